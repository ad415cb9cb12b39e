package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:eventos,alias:e"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"nombre,notnull" json:"name"`
	Detail    string    `bun:"detalle,nullzero" json:"detail,omitempty"`
	Date      time.Time `bun:"fecha,notnull,unique" json:"date"`
	Capacity  int       `bun:"capacidad,notnull" json:"capacity"`
	Active    bool      `bun:"activo,notnull" json:"active"`
	CreatedAt time.Time `bun:"fecha_creacion,notnull" json:"created_at"`
}
