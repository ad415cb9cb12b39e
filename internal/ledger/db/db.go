package db

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/ledger"
	"ms-boxoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

type DB struct {
	Bun *bun.DB
}

// SaleDraft is a validated request to append one ledger row. Quantity is
// always positive; the operation decides the sign.
type SaleDraft struct {
	TicketTypeID       int64
	EventID            *int64
	Operation          models.Operation
	Quantity           int
	IncludesDrink      bool
	RecordedBy         string
	RequireActiveEvent bool
	At                 time.Time
}

// PriceFunc resolves the unit price of a ticket type loaded inside the
// write transaction.
type PriceFunc func(tt *models.TicketType) decimal.Decimal

// lock adds a row-locking clause on Postgres. SQLite serializes writers on
// its own and has no FOR clause.
func lock(q *bun.SelectQuery, mode string) *bun.SelectQuery {
	if q.Dialect().Name() == dialect.PG {
		return q.For(mode)
	}
	return q
}

func notFound(err error, kind error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return kind
	}
	return apperrors.Persistence(op, err)
}

// InsertSale appends a sale or correction in one transaction. A correction
// locks its ticket type row so concurrent corrections of the same pair are
// checked one after the other, and both operations hold a share lock on the
// event row so a close cannot interleave.
func (d *DB) InsertSale(ctx context.Context, draft SaleDraft, price PriceFunc) (*models.SaleRecord, error) {
	if draft.Quantity < 1 || draft.Quantity > math.MaxInt32 {
		return nil, apperrors.ErrInvalidQuantity
	}
	var rec *models.SaleRecord

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		tt := new(models.TicketType)
		q := tx.NewSelect().Model(tt).Where("t.id = ?", draft.TicketTypeID)
		if draft.Operation == models.OperationCorrection {
			q = lock(q, "UPDATE")
		}
		if err := q.Scan(ctx); err != nil {
			return notFound(err, apperrors.ErrTicketTypeNotFound, "load ticket type")
		}
		if !tt.Active {
			return apperrors.ErrTicketTypeNotFound
		}

		if draft.EventID != nil {
			ev := new(models.Event)
			err := lock(tx.NewSelect().Model(ev).Where("e.id = ?", *draft.EventID), "SHARE").Scan(ctx)
			if err != nil {
				return notFound(err, apperrors.ErrEventNotFound, "load event")
			}
			if !ev.Active && draft.RequireActiveEvent {
				return apperrors.ErrEventNotActive
			}
		}

		quantity := draft.Quantity
		drink := draft.IncludesDrink
		if draft.Operation == models.OperationCorrection {
			running, err := runningQuantity(ctx, tx, draft.EventID, tt.ID)
			if err != nil {
				return err
			}
			if draft.Quantity > running {
				return &apperrors.CorrectionError{Available: running, Requested: draft.Quantity}
			}
			quantity = -draft.Quantity
			drink = false
		}

		unit := price(tt)
		rec = &models.SaleRecord{
			TicketTypeID:  tt.ID,
			EventID:       draft.EventID,
			Operation:     draft.Operation,
			Quantity:      quantity,
			UnitPrice:     unit,
			IncludesDrink: drink,
			Total:         unit.Mul(decimal.NewFromInt(int64(quantity))),
			RecordedBy:    draft.RecordedBy,
			SoldAt:        draft.At,
		}
		if _, err := tx.NewInsert().Model(rec).Returning("id").Exec(ctx); err != nil {
			return apperrors.Persistence("insert sale", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func runningQuantity(ctx context.Context, idb bun.IDB, eventID *int64, ticketTypeID int64) (int, error) {
	var running int
	q := idb.NewSelect().
		Model((*models.SaleRecord)(nil)).
		ColumnExpr("COALESCE(SUM(v.cantidad), 0)").
		Where("v.entrada_id = ?", ticketTypeID)
	if eventID == nil {
		q = q.Where("v.evento_id IS NULL")
	} else {
		q = q.Where("v.evento_id = ?", *eventID)
	}
	if err := q.Scan(ctx, &running); err != nil {
		return 0, apperrors.Persistence("sum running quantity", err)
	}
	return running, nil
}

func totalsQuery(idb bun.IDB) *bun.SelectQuery {
	return idb.NewSelect().
		TableExpr("ventas_entradas AS v").
		Join("JOIN entradas AS t ON t.id = v.entrada_id").
		ColumnExpr("v.evento_id, v.entrada_id, t.nombre").
		ColumnExpr("COALESCE(SUM(v.cantidad), 0) AS cantidad").
		ColumnExpr("COALESCE(SUM(v.total), 0) AS total").
		GroupExpr("v.evento_id, v.entrada_id, t.nombre")
}

func eventTotals(ctx context.Context, idb bun.IDB, eventID int64) ([]models.RunningTotal, error) {
	lines := []models.RunningTotal{}
	err := totalsQuery(idb).
		Where("v.evento_id = ?", eventID).
		OrderExpr("v.entrada_id").
		Scan(ctx, &lines)
	if err != nil {
		return nil, apperrors.Persistence("sum event totals", err)
	}
	return lines, nil
}

// EventTotals returns the live totals of an event grouped by ticket type.
func (d *DB) EventTotals(ctx context.Context, eventID int64) ([]models.RunningTotal, error) {
	return eventTotals(ctx, d.Bun, eventID)
}

// RunningTotals returns every live (event, ticket type) group, including
// sales recorded without an event.
func (d *DB) RunningTotals(ctx context.Context) ([]models.RunningTotal, error) {
	lines := []models.RunningTotal{}
	err := totalsQuery(d.Bun).
		OrderExpr("v.evento_id, v.entrada_id").
		Scan(ctx, &lines)
	if err != nil {
		return nil, apperrors.Persistence("sum running totals", err)
	}
	return lines, nil
}

func (d *DB) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	ev := new(models.Event)
	if err := d.Bun.NewSelect().Model(ev).Where("e.id = ?", eventID).Scan(ctx); err != nil {
		return nil, notFound(err, apperrors.ErrEventNotFound, "load event")
	}
	return ev, nil
}

func (d *DB) GetSale(ctx context.Context, saleID int64) (*models.SaleRecord, error) {
	rec := new(models.SaleRecord)
	if err := d.Bun.NewSelect().Model(rec).Where("v.id = ?", saleID).Scan(ctx); err != nil {
		return nil, notFound(err, apperrors.ErrSaleNotFound, "load sale")
	}
	return rec, nil
}

// CloseEvent archives an event's totals, clears its live rows and
// deactivates it, all in one transaction. The event row is locked first so
// sales waiting on their share lock see the event inactive afterwards.
func (d *DB) CloseEvent(ctx context.Context, eventID int64, closedBy string, at time.Time) (*models.EventCloseSnapshot, error) {
	var snap *models.EventCloseSnapshot

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		ev := new(models.Event)
		if err := lock(tx.NewSelect().Model(ev).Where("e.id = ?", eventID), "UPDATE").Scan(ctx); err != nil {
			return notFound(err, apperrors.ErrEventNotFound, "load event")
		}
		if !ev.Active {
			return apperrors.ErrEventNotActive
		}

		lines, err := eventTotals(ctx, tx, eventID)
		if err != nil {
			return err
		}
		sold, amount, detail := ledger.Summarize(lines)

		snap = &models.EventCloseSnapshot{
			EventID:          ev.ID,
			EventName:        ev.Name,
			TotalSold:        sold,
			TotalAmount:      amount,
			Capacity:         ev.Capacity,
			OccupancyPercent: ledger.Occupancy(sold, ev.Capacity),
			Detail:           detail,
			ClosedBy:         closedBy,
			ClosedAt:         at,
		}
		if _, err := tx.NewInsert().Model(snap).Returning("id").Exec(ctx); err != nil {
			return apperrors.Persistence("insert close snapshot", err)
		}

		if _, err := tx.NewDelete().
			Model((*models.SaleRecord)(nil)).
			Where("evento_id = ?", eventID).
			Exec(ctx); err != nil {
			return apperrors.Persistence("delete event sales", err)
		}

		if _, err := tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("activo = ?", false).
			Where("id = ?", eventID).
			Exec(ctx); err != nil {
			return apperrors.Persistence("deactivate event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (d *DB) ListSnapshots(ctx context.Context) ([]models.EventCloseSnapshot, error) {
	snaps := []models.EventCloseSnapshot{}
	if err := d.Bun.NewSelect().Model(&snaps).OrderExpr("c.fecha_cierre DESC, c.id DESC").Scan(ctx); err != nil {
		return nil, apperrors.Persistence("list close snapshots", err)
	}
	return snaps, nil
}

func (d *DB) GetSnapshot(ctx context.Context, id int64) (*models.EventCloseSnapshot, error) {
	snap := new(models.EventCloseSnapshot)
	if err := d.Bun.NewSelect().Model(snap).Where("c.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, apperrors.ErrSnapshotNotFound, "load close snapshot")
	}
	return snap, nil
}

func (d *DB) GetTicketType(ctx context.Context, id int64) (*models.TicketType, error) {
	tt := new(models.TicketType)
	if err := d.Bun.NewSelect().Model(tt).Where("t.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, apperrors.ErrTicketTypeNotFound, "load ticket type")
	}
	return tt, nil
}
