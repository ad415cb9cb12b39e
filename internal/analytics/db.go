package analytics

import (
	"context"
	"time"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// DB handles analytics database operations
type DB struct {
	bun *bun.DB
}

// NewDB creates a new analytics DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// EventAggregate is one event with everything sold for it, live or archived.
type EventAggregate struct {
	ID       int64           `bun:"id" json:"id"`
	Name     string          `bun:"nombre" json:"name"`
	Date     time.Time       `bun:"fecha" json:"date"`
	Capacity int             `bun:"capacidad" json:"capacity"`
	Active   bool            `bun:"activo" json:"active"`
	Sold     int             `bun:"vendidas" json:"sold"`
	Revenue  decimal.Decimal `bun:"recaudacion" json:"revenue"`
}

type closedTotals struct {
	EventID int64           `bun:"evento_id"`
	Sold    int             `bun:"vendidas"`
	Revenue decimal.Decimal `bun:"recaudacion"`
}

// EventAggregates returns every event in date order with its live ledger
// totals plus whatever was archived when it closed.
func (db *DB) EventAggregates(ctx context.Context) ([]EventAggregate, error) {
	rows := []EventAggregate{}
	err := db.bun.NewSelect().
		TableExpr("eventos AS e").
		Join("LEFT JOIN ventas_entradas AS v ON v.evento_id = e.id").
		ColumnExpr("e.id, e.nombre, e.fecha, e.capacidad, e.activo").
		ColumnExpr("COALESCE(SUM(v.cantidad), 0) AS vendidas").
		ColumnExpr("COALESCE(SUM(v.total), 0) AS recaudacion").
		GroupExpr("e.id, e.nombre, e.fecha, e.capacidad, e.activo").
		OrderExpr("e.fecha ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, apperrors.Persistence("aggregate events", err)
	}

	closed := []closedTotals{}
	err = db.bun.NewSelect().
		TableExpr("cierres_eventos AS c").
		ColumnExpr("c.evento_id").
		ColumnExpr("COALESCE(SUM(c.total_vendido), 0) AS vendidas").
		ColumnExpr("COALESCE(SUM(c.total_recaudado), 0) AS recaudacion").
		GroupExpr("c.evento_id").
		Scan(ctx, &closed)
	if err != nil {
		return nil, apperrors.Persistence("aggregate closures", err)
	}

	byEvent := make(map[int64]closedTotals, len(closed))
	for _, c := range closed {
		byEvent[c.EventID] = c
	}
	for i := range rows {
		if c, ok := byEvent[rows[i].ID]; ok {
			rows[i].Sold += c.Sold
			rows[i].Revenue = rows[i].Revenue.Add(c.Revenue)
		}
	}
	return rows, nil
}

// ClosureHistory lists close snapshots taken in [from, to), newest first.
// Zero bounds are open.
func (db *DB) ClosureHistory(ctx context.Context, from, to time.Time) ([]models.EventCloseSnapshot, error) {
	snaps := []models.EventCloseSnapshot{}
	q := db.bun.NewSelect().Model(&snaps).OrderExpr("c.fecha_cierre DESC, c.id DESC")
	if !from.IsZero() {
		q = q.Where("c.fecha_cierre >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("c.fecha_cierre < ?", to)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, apperrors.Persistence("closure history", err)
	}
	return snaps, nil
}
