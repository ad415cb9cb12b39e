package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Presale is an advance purchase waiting at the door. Printing its tickets
// redeems it and removes the row.
type Presale struct {
	bun.BaseModel `bun:"table:anticipadas,alias:a"`

	ID            int64       `bun:"id,pk,autoincrement" json:"id"`
	Name          string      `bun:"nombre,notnull" json:"name"`
	DNI           string      `bun:"dni,nullzero" json:"dni,omitempty"`
	TicketTypeID  int64       `bun:"entrada_id,notnull" json:"ticket_type_id"`
	EventID       *int64      `bun:"evento_id" json:"event_id"`
	Quantity      int         `bun:"cantidad,notnull" json:"quantity"`
	IncludesDrink bool        `bun:"incluye_trago,notnull" json:"includes_drink"`
	CreatedAt     time.Time   `bun:"created_at,notnull" json:"created_at"`
	TicketType    *TicketType `bun:"rel:belongs-to,join:entrada_id=id" json:"ticket_type,omitempty"`
	Event         *Event      `bun:"rel:belongs-to,join:evento_id=id" json:"event,omitempty"`
}
