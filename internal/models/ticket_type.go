package models

import (
	"ms-boxoffice/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type TicketType struct {
	bun.BaseModel `bun:"table:entradas,alias:t"`

	ID            int64               `bun:"id,pk,autoincrement" json:"id"`
	Name          string              `bun:"nombre,notnull" json:"name"`
	Description   string              `bun:"descripcion,nullzero" json:"description,omitempty"`
	BasePrice     decimal.Decimal     `bun:"precio_base,type:numeric(12,2),notnull" json:"base_price"`
	AutoSwitch    bool                `bun:"cambio_automatico,notnull" json:"auto_switch"`
	SwitchStart   *pricing.TimeOfDay  `bun:"hora_inicio_cambio,type:time" json:"switch_start,omitempty"`
	SwitchEnd     *pricing.TimeOfDay  `bun:"hora_fin_cambio,type:time" json:"switch_end,omitempty"`
	OverridePrice decimal.NullDecimal `bun:"nuevo_precio,type:numeric(12,2)" json:"override_price"`
	Active        bool                `bun:"activo,notnull" json:"active"`
}

func (t *TicketType) Schedule() pricing.Schedule {
	return pricing.Schedule{
		BasePrice:     t.BasePrice,
		AutoSwitch:    t.AutoSwitch,
		Start:         t.SwitchStart,
		End:           t.SwitchEnd,
		OverridePrice: t.OverridePrice,
	}
}
