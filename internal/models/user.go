package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleOwner    = "owner"
	RolePromoter = "promoter"
)

type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"nombre,notnull,unique" json:"name"`
}

// User is a staff member. Promoters own guest lists.
type User struct {
	bun.BaseModel `bun:"table:usuarios,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"nombre,notnull" json:"name"`
	Phone     string    `bun:"telefono,nullzero" json:"phone,omitempty"`
	Email     string    `bun:"email,nullzero" json:"email,omitempty"`
	RoleID    int64     `bun:"rol_id,notnull" json:"role_id"`
	Active    bool      `bun:"activo,notnull" json:"active"`
	CreatedAt time.Time `bun:"fecha_creacion,notnull" json:"created_at"`
	Role      *Role     `bun:"rel:belongs-to,join:rol_id=id" json:"role,omitempty"`
	Guests    []*Guest  `bun:"rel:has-many,join:id=usuario_id" json:"guests,omitempty"`
}

type Guest struct {
	bun.BaseModel `bun:"table:listas,alias:g"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"usuario_id,notnull" json:"user_id"`
	EventID   *int64    `bun:"evento_id" json:"event_id,omitempty"`
	Name      string    `bun:"nombre_persona,notnull" json:"name"`
	Phone     string    `bun:"telefono,nullzero" json:"phone,omitempty"`
	CheckedIn bool      `bun:"ingreso,notnull" json:"checked_in"`
	CreatedAt time.Time `bun:"fecha_registro,notnull" json:"created_at"`
}
