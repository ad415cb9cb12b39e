package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type SnapshotLine struct {
	TicketTypeID int64           `json:"ticket_type_id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	Total        decimal.Decimal `json:"total"`
}

// EventCloseSnapshot archives an event's totals when it is closed. Rows are
// never updated.
type EventCloseSnapshot struct {
	bun.BaseModel `bun:"table:cierres_eventos,alias:c"`

	ID               int64               `bun:"id,pk,autoincrement" json:"id"`
	EventID          int64               `bun:"evento_id,notnull" json:"event_id"`
	EventName        string              `bun:"evento_nombre,notnull" json:"event_name"`
	TotalSold        int                 `bun:"total_vendido,notnull" json:"total_sold"`
	TotalAmount      decimal.Decimal     `bun:"total_recaudado,type:numeric(14,2),notnull" json:"total_amount"`
	Capacity         int                 `bun:"capacidad,notnull" json:"capacity"`
	OccupancyPercent decimal.NullDecimal `bun:"ocupacion,type:numeric(6,2)" json:"occupancy_percent"`
	Detail           []SnapshotLine      `bun:"detalle,type:jsonb,notnull" json:"detail"`
	ClosedBy         string              `bun:"cerrado_por,nullzero" json:"closed_by,omitempty"`
	ClosedAt         time.Time           `bun:"fecha_cierre,notnull" json:"closed_at"`
}
