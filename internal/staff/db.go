package staff

import (
	"context"
	"database/sql"
	"errors"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

type UserPatch struct {
	Name   *string
	Phone  *string
	Email  *string
	RoleID *int64
	Active *bool
}

func notFound(err error, kind error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return kind
	}
	return apperrors.Persistence(op, err)
}

func roleExists(ctx context.Context, idb bun.IDB, id int64) error {
	exists, err := idb.NewSelect().Model((*models.Role)(nil)).Where("r.id = ?", id).Exists(ctx)
	if err != nil {
		return apperrors.Persistence("check role", err)
	}
	if !exists {
		return apperrors.ErrRoleNotFound
	}
	return nil
}

func (d *DB) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles := []models.Role{}
	if err := d.Bun.NewSelect().Model(&roles).OrderExpr("r.id ASC").Scan(ctx); err != nil {
		return nil, apperrors.Persistence("list roles", err)
	}
	return roles, nil
}

func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := d.Bun.NewSelect().Model(&users).Relation("Role").OrderExpr("u.id ASC").Scan(ctx); err != nil {
		return nil, apperrors.Persistence("list users", err)
	}
	return users, nil
}

func (d *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u := new(models.User)
	if err := d.Bun.NewSelect().Model(u).Relation("Role").Where("u.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound, "load user")
	}
	return u, nil
}

func (d *DB) CreateUser(ctx context.Context, u *models.User) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := roleExists(ctx, tx, u.RoleID); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(u).Returning("id").Exec(ctx); err != nil {
			return apperrors.Persistence("insert user", err)
		}
		return nil
	})
}

func (d *DB) UpdateUser(ctx context.Context, id int64, patch UserPatch) (*models.User, error) {
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		u := new(models.User)
		if err := tx.NewSelect().Model(u).Where("u.id = ?", id).Scan(ctx); err != nil {
			return notFound(err, apperrors.ErrUserNotFound, "load user")
		}
		if patch.Name != nil {
			u.Name = *patch.Name
		}
		if patch.Phone != nil {
			u.Phone = *patch.Phone
		}
		if patch.Email != nil {
			u.Email = *patch.Email
		}
		if patch.Active != nil {
			u.Active = *patch.Active
		}
		if patch.RoleID != nil && *patch.RoleID != u.RoleID {
			if err := roleExists(ctx, tx, *patch.RoleID); err != nil {
				return err
			}
			u.RoleID = *patch.RoleID
		}
		_, err := tx.NewUpdate().Model(u).
			Column("nombre", "telefono", "email", "rol_id", "activo").
			WherePK().
			Exec(ctx)
		if err != nil {
			return apperrors.Persistence("update user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d.GetUser(ctx, id)
}

// DeleteUser removes a staff member; their guest list goes with them.
func (d *DB) DeleteUser(ctx context.Context, id int64) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.Guest)(nil)).Where("usuario_id = ?", id).Exec(ctx); err != nil {
			return apperrors.Persistence("delete guests of user", err)
		}
		res, err := tx.NewDelete().Model((*models.User)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return apperrors.Persistence("delete user", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperrors.ErrUserNotFound
		}
		return nil
	})
}
