package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// EventFilter narrows ListEvents. Zero values mean no restriction.
type EventFilter struct {
	ActiveOnly bool
	From       time.Time
	To         time.Time
}

type EventPatch struct {
	Name     *string
	Detail   *string
	Capacity *int
}

func notFound(err error, kind error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return kind
	}
	return apperrors.Persistence(op, err)
}

func (d *DB) ListEvents(ctx context.Context, f EventFilter) ([]models.Event, error) {
	events := []models.Event{}
	q := d.Bun.NewSelect().Model(&events).OrderExpr("e.fecha ASC")
	if f.ActiveOnly {
		q = q.Where("e.activo = ?", true)
	}
	if !f.From.IsZero() {
		q = q.Where("e.fecha >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("e.fecha < ?", f.To)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, apperrors.Persistence("list events", err)
	}
	return events, nil
}

func (d *DB) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	ev := new(models.Event)
	if err := d.Bun.NewSelect().Model(ev).Where("e.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, apperrors.ErrEventNotFound, "load event")
	}
	return ev, nil
}

// CreateEvent inserts ev. Two events may not share a date.
func (d *DB) CreateEvent(ctx context.Context, ev *models.Event) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*models.Event)(nil)).Where("e.fecha = ?", ev.Date).Exists(ctx)
		if err != nil {
			return apperrors.Persistence("check event date", err)
		}
		if exists {
			return apperrors.ErrDuplicateEvent
		}
		if _, err := tx.NewInsert().Model(ev).Returning("id").Exec(ctx); err != nil {
			return apperrors.Persistence("insert event", err)
		}
		return nil
	})
}

// UpdateEvent applies the non-nil fields of patch. The date is fixed once
// the event exists.
func (d *DB) UpdateEvent(ctx context.Context, id int64, patch EventPatch) (*models.Event, error) {
	var ev *models.Event
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current := new(models.Event)
		if err := tx.NewSelect().Model(current).Where("e.id = ?", id).Scan(ctx); err != nil {
			return notFound(err, apperrors.ErrEventNotFound, "load event")
		}
		if patch.Name != nil {
			current.Name = *patch.Name
		}
		if patch.Detail != nil {
			current.Detail = *patch.Detail
		}
		if patch.Capacity != nil {
			current.Capacity = *patch.Capacity
		}
		if _, err := tx.NewUpdate().Model(current).
			Column("nombre", "detalle", "capacidad").
			WherePK().
			Exec(ctx); err != nil {
			return apperrors.Persistence("update event", err)
		}
		ev = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// DeactivateEvent is the soft delete of an event.
func (d *DB) DeactivateEvent(ctx context.Context, id int64) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("activo = ?", false).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return apperrors.Persistence("deactivate event", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrEventNotFound
	}
	return nil
}

// EnsureEvents creates an event for every date that has none and returns
// the events at those dates ordered by date.
func (d *DB) EnsureEvents(ctx context.Context, dates []time.Time, name string, capacity int, createdAt time.Time) ([]models.Event, error) {
	events := []models.Event{}
	if len(dates) == 0 {
		return events, nil
	}
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, date := range dates {
			ev := &models.Event{
				Name:      name,
				Date:      date,
				Capacity:  capacity,
				Active:    true,
				CreatedAt: createdAt,
			}
			if _, err := tx.NewInsert().Model(ev).On("CONFLICT (fecha) DO NOTHING").Exec(ctx); err != nil {
				return apperrors.Persistence("insert upcoming event", err)
			}
		}
		if err := tx.NewSelect().Model(&events).
			Where("e.fecha IN (?)", bun.In(dates)).
			OrderExpr("e.fecha ASC").
			Scan(ctx); err != nil {
			return apperrors.Persistence("load upcoming events", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) ListTicketTypes(ctx context.Context, activeOnly bool) ([]models.TicketType, error) {
	types := []models.TicketType{}
	q := d.Bun.NewSelect().Model(&types).OrderExpr("t.id ASC")
	if activeOnly {
		q = q.Where("t.activo = ?", true)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, apperrors.Persistence("list ticket types", err)
	}
	return types, nil
}

func (d *DB) GetTicketType(ctx context.Context, id int64) (*models.TicketType, error) {
	tt := new(models.TicketType)
	if err := d.Bun.NewSelect().Model(tt).Where("t.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, apperrors.ErrTicketTypeNotFound, "load ticket type")
	}
	return tt, nil
}

func (d *DB) CreateTicketType(ctx context.Context, tt *models.TicketType) error {
	if _, err := d.Bun.NewInsert().Model(tt).Returning("id").Exec(ctx); err != nil {
		return apperrors.Persistence("insert ticket type", err)
	}
	return nil
}

// SaveTicketType writes every column of an existing ticket type.
func (d *DB) SaveTicketType(ctx context.Context, tt *models.TicketType) error {
	res, err := d.Bun.NewUpdate().Model(tt).WherePK().Exec(ctx)
	if err != nil {
		return apperrors.Persistence("update ticket type", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrTicketTypeNotFound
	}
	return nil
}

func (d *DB) DeactivateTicketType(ctx context.Context, id int64) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.TicketType)(nil)).
		Set("activo = ?", false).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return apperrors.Persistence("deactivate ticket type", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrTicketTypeNotFound
	}
	return nil
}

// DeleteTicketType removes a ticket type that no live ledger row references.
func (d *DB) DeleteTicketType(ctx context.Context, id int64) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		used, err := tx.NewSelect().
			Model((*models.SaleRecord)(nil)).
			Where("v.entrada_id = ?", id).
			Exists(ctx)
		if err != nil {
			return apperrors.Persistence("check ticket type usage", err)
		}
		if used {
			return apperrors.ErrTicketTypeInUse
		}
		res, err := tx.NewDelete().Model((*models.TicketType)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return apperrors.Persistence("delete ticket type", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperrors.ErrTicketTypeNotFound
		}
		return nil
	})
}
