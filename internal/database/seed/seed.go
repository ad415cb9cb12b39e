package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

// File is the YAML document describing the reference data of a venue.
type File struct {
	Roles       []string         `yaml:"roles"`
	Users       []UserSeed       `yaml:"users"`
	TicketTypes []TicketTypeSeed `yaml:"ticket_types"`
}

type UserSeed struct {
	Name  string `yaml:"name"`
	Phone string `yaml:"phone"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

// TicketTypeSeed keeps prices and times as text so "1500.50" and "23:00"
// are read exactly as written.
type TicketTypeSeed struct {
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	BasePrice     string `yaml:"base_price"`
	AutoSwitch    bool   `yaml:"auto_switch"`
	SwitchStart   string `yaml:"switch_start"`
	SwitchEnd     string `yaml:"switch_end"`
	OverridePrice string `yaml:"override_price"`
	Inactive      bool   `yaml:"inactive"`
}

// Result counts the rows that were actually inserted.
type Result struct {
	Roles       int
	Users       int
	TicketTypes int
}

func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: seed file: %v", apperrors.ErrInvalidInput, err)
	}
	return &f, nil
}

func (s TicketTypeSeed) model() (*models.TicketType, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: ticket type without name", apperrors.ErrInvalidInput)
	}
	base, err := decimal.NewFromString(s.BasePrice)
	if err != nil {
		return nil, fmt.Errorf("%w: %s base_price %q", apperrors.ErrInvalidInput, name, s.BasePrice)
	}
	if base.IsNegative() {
		return nil, fmt.Errorf("%s: %w", name, apperrors.ErrInvalidPrice)
	}
	tt := &models.TicketType{
		Name:        name,
		Description: s.Description,
		BasePrice:   base,
		AutoSwitch:  s.AutoSwitch,
		Active:      !s.Inactive,
	}
	if s.SwitchStart != "" {
		t, err := pricing.ParseTimeOfDay(s.SwitchStart)
		if err != nil {
			return nil, fmt.Errorf("%w: %s switch_start: %v", apperrors.ErrInvalidInput, name, err)
		}
		tt.SwitchStart = &t
	}
	if s.SwitchEnd != "" {
		t, err := pricing.ParseTimeOfDay(s.SwitchEnd)
		if err != nil {
			return nil, fmt.Errorf("%w: %s switch_end: %v", apperrors.ErrInvalidInput, name, err)
		}
		tt.SwitchEnd = &t
	}
	if s.OverridePrice != "" {
		p, err := decimal.NewFromString(s.OverridePrice)
		if err != nil || p.IsNegative() {
			return nil, fmt.Errorf("%s override_price: %w", name, apperrors.ErrInvalidPrice)
		}
		tt.OverridePrice = decimal.NewNullDecimal(p)
	}
	if tt.AutoSwitch && !tt.Schedule().Complete() {
		return nil, fmt.Errorf("%s: %w", name, apperrors.ErrInvalidSchedule)
	}
	return tt, nil
}

// Apply inserts whatever the file names that is not in the database yet.
// Rows are matched by name, so running it twice changes nothing.
func Apply(ctx context.Context, db *bun.DB, f *File, log *logger.Logger) (*Result, error) {
	types := make([]*models.TicketType, 0, len(f.TicketTypes))
	for _, s := range f.TicketTypes {
		tt, err := s.model()
		if err != nil {
			return nil, err
		}
		types = append(types, tt)
	}

	res := &Result{}
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		roleIDs := map[string]int64{}
		for _, name := range f.Roles {
			id, created, err := ensureRole(ctx, tx, strings.TrimSpace(name))
			if err != nil {
				return err
			}
			roleIDs[name] = id
			if created {
				res.Roles++
			}
		}

		for _, u := range f.Users {
			roleID, ok := roleIDs[u.Role]
			if !ok {
				id, created, err := ensureRole(ctx, tx, u.Role)
				if err != nil {
					return err
				}
				roleID, roleIDs[u.Role] = id, id
				if created {
					res.Roles++
				}
			}
			exists, err := tx.NewSelect().Model((*models.User)(nil)).Where("u.nombre = ?", u.Name).Exists(ctx)
			if err != nil {
				return apperrors.Persistence("seed users", err)
			}
			if exists {
				continue
			}
			user := &models.User{Name: u.Name, Phone: u.Phone, Email: u.Email, RoleID: roleID, Active: true, CreatedAt: time.Now().UTC()}
			if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
				return apperrors.Persistence("seed users", err)
			}
			res.Users++
		}

		for _, tt := range types {
			exists, err := tx.NewSelect().Model((*models.TicketType)(nil)).Where("t.nombre = ?", tt.Name).Exists(ctx)
			if err != nil {
				return apperrors.Persistence("seed ticket types", err)
			}
			if exists {
				continue
			}
			if _, err := tx.NewInsert().Model(tt).Exec(ctx); err != nil {
				return apperrors.Persistence("seed ticket types", err)
			}
			res.TicketTypes++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.LogDatabase("SEED", "roles,usuarios,entradas",
		fmt.Sprintf("%d roles, %d users, %d ticket types inserted", res.Roles, res.Users, res.TicketTypes))
	return res, nil
}

func ensureRole(ctx context.Context, tx bun.Tx, name string) (int64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("%w: empty role name", apperrors.ErrInvalidInput)
	}
	role := &models.Role{}
	err := tx.NewSelect().Model(role).Where("r.nombre = ?", name).Limit(1).Scan(ctx)
	if err == nil {
		return role.ID, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, apperrors.Persistence("seed roles", err)
	}
	role = &models.Role{Name: name}
	if _, err := tx.NewInsert().Model(role).Exec(ctx); err != nil {
		return 0, false, apperrors.Persistence("seed roles", err)
	}
	return role.ID, true, nil
}
