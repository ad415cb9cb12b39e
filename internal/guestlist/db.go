package guestlist

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

type GuestPatch struct {
	Name  *string
	Phone *string
}

func notFound(err error, kind error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return kind
	}
	return apperrors.Persistence(op, err)
}

// ListUsers returns every staff member with their role and guests. When
// eventID is set only guests of that event are loaded.
func (d *DB) ListUsers(ctx context.Context, eventID *int64) ([]models.User, error) {
	users := []models.User{}
	err := d.Bun.NewSelect().
		Model(&users).
		Relation("Role").
		Relation("Guests", func(q *bun.SelectQuery) *bun.SelectQuery {
			if eventID != nil {
				q = q.Where("g.evento_id = ?", *eventID)
			}
			return q.OrderExpr("g.id ASC")
		}).
		OrderExpr("u.id ASC").
		Scan(ctx)
	if err != nil {
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

func (d *DB) AddGuest(ctx context.Context, g *models.Guest) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*models.User)(nil)).Where("u.id = ?", g.UserID).Exists(ctx)
		if err != nil {
			return apperrors.Persistence("check user", err)
		}
		if !exists {
			return apperrors.ErrUserNotFound
		}
		if _, err := tx.NewInsert().Model(g).Returning("id").Exec(ctx); err != nil {
			return apperrors.Persistence("insert guest", err)
		}
		return nil
	})
}

func (d *DB) GetGuest(ctx context.Context, id int64) (*models.Guest, error) {
	g := new(models.Guest)
	if err := d.Bun.NewSelect().Model(g).Where("g.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, apperrors.ErrGuestNotFound, "load guest")
	}
	return g, nil
}

func (d *DB) UpdateGuest(ctx context.Context, id int64, patch GuestPatch) (*models.Guest, error) {
	g, err := d.GetGuest(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.Phone != nil {
		g.Phone = *patch.Phone
	}
	if _, err := d.Bun.NewUpdate().Model(g).Column("nombre_persona", "telefono").WherePK().Exec(ctx); err != nil {
		return nil, apperrors.Persistence("update guest", err)
	}
	return g, nil
}

func (d *DB) SetCheckedIn(ctx context.Context, id int64, checkedIn bool) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Guest)(nil)).
		Set("ingreso = ?", checkedIn).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return apperrors.Persistence("check in guest", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrGuestNotFound
	}
	return nil
}

func (d *DB) DeleteGuest(ctx context.Context, id int64) error {
	res, err := d.Bun.NewDelete().Model((*models.Guest)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return apperrors.Persistence("delete guest", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrGuestNotFound
	}
	return nil
}
