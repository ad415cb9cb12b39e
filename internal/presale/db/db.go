package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

type DB struct {
	Bun *bun.DB
}

func notFound(err error, kind error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return kind
	}
	return apperrors.Persistence(op, err)
}

func withNames(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Relation("TicketType").Relation("Event")
}

// Insert stores a presale after checking its ticket type is on sale and its
// event, when given, exists.
func (d *DB) Insert(ctx context.Context, p *models.Presale) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		tt := new(models.TicketType)
		if err := tx.NewSelect().Model(tt).Where("t.id = ?", p.TicketTypeID).Scan(ctx); err != nil {
			return notFound(err, apperrors.ErrTicketTypeNotFound, "load ticket type")
		}
		if !tt.Active {
			return apperrors.ErrTicketTypeNotFound
		}
		if p.EventID != nil {
			exists, err := tx.NewSelect().Model((*models.Event)(nil)).Where("e.id = ?", *p.EventID).Exists(ctx)
			if err != nil {
				return apperrors.Persistence("check event", err)
			}
			if !exists {
				return apperrors.ErrEventNotFound
			}
		}
		if _, err := tx.NewInsert().Model(p).Returning("id").Exec(ctx); err != nil {
			return apperrors.Persistence("insert presale", err)
		}
		return nil
	})
}

// List returns the pending presales, oldest first, with their ticket type
// and event.
func (d *DB) List(ctx context.Context) ([]models.Presale, error) {
	presales := []models.Presale{}
	err := withNames(d.Bun.NewSelect().Model(&presales)).
		OrderExpr("a.created_at ASC, a.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperrors.Persistence("list presales", err)
	}
	return presales, nil
}

func (d *DB) Get(ctx context.Context, id int64) (*models.Presale, error) {
	p := new(models.Presale)
	if err := withNames(d.Bun.NewSelect().Model(p)).Where("a.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, apperrors.ErrPresaleNotFound, "load presale")
	}
	return p, nil
}

// Redeem locks a presale, hands it to fn and deletes it when fn succeeds.
// When fn fails the presale stays pending and fn's error is returned.
func (d *DB) Redeem(ctx context.Context, id int64, fn func(p *models.Presale) error) (*models.Presale, error) {
	var redeemed *models.Presale

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		p := new(models.Presale)
		q := withNames(tx.NewSelect().Model(p)).Where("a.id = ?", id)
		if q.Dialect().Name() == dialect.PG {
			q = q.For("UPDATE OF a")
		}
		if err := q.Scan(ctx); err != nil {
			return notFound(err, apperrors.ErrPresaleNotFound, "load presale")
		}
		if err := fn(p); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.Presale)(nil)).Where("id = ?", p.ID).Exec(ctx); err != nil {
			return apperrors.Persistence("delete presale", err)
		}
		redeemed = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redeemed, nil
}
