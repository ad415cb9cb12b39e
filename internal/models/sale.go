package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Operation string

const (
	OperationSale       Operation = "sale"
	OperationCorrection Operation = "correction"
)

// ParseOperation also accepts the cash desk's legacy verbs.
func ParseOperation(s string) (Operation, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sale", "registrar":
		return OperationSale, true
	case "correction", "restar":
		return OperationCorrection, true
	default:
		return "", false
	}
}

// SaleRecord is one append-only ledger row. Corrections carry a negative
// quantity and total.
type SaleRecord struct {
	bun.BaseModel `bun:"table:ventas_entradas,alias:v"`

	ID            int64           `bun:"id,pk,autoincrement" json:"id"`
	TicketTypeID  int64           `bun:"entrada_id,notnull" json:"ticket_type_id"`
	EventID       *int64          `bun:"evento_id" json:"event_id"`
	Operation     Operation       `bun:"operacion,notnull" json:"operation"`
	Quantity      int             `bun:"cantidad,notnull" json:"quantity"`
	UnitPrice     decimal.Decimal `bun:"precio_unitario,type:numeric(12,2),notnull" json:"unit_price"`
	IncludesDrink bool            `bun:"incluye_trago,notnull" json:"includes_complimentary_drink"`
	Total         decimal.Decimal `bun:"total,type:numeric(14,2),notnull" json:"total"`
	RecordedBy    string          `bun:"registrado_por,nullzero" json:"recorded_by,omitempty"`
	SoldAt        time.Time       `bun:"fecha_venta,notnull" json:"sold_at"`
}

// RunningTotal is the live sum of one (event, ticket type) pair.
type RunningTotal struct {
	EventID        *int64          `bun:"evento_id" json:"event_id"`
	TicketTypeID   int64           `bun:"entrada_id" json:"ticket_type_id"`
	TicketTypeName string          `bun:"nombre" json:"ticket_type_name"`
	Quantity       int             `bun:"cantidad" json:"quantity"`
	Amount         decimal.Decimal `bun:"total" json:"amount"`
}
