package printing

import (
	"fmt"
	"time"

	"ms-boxoffice/internal/utils"

	"github.com/shopspring/decimal"
)

// Receipt is one printed entry ticket.
type Receipt struct {
	Venue         string
	Title         string
	TicketType    string
	EventName     string
	Price         decimal.Decimal
	IncludesDrink bool
	ControlCode   string
	IssuedAt      time.Time
}

const (
	TitleDigital = "ENTRADA DIGITAL"
	TitleFree    = "ENTRADA GRATIS"
	TitleAdvance = "ENTRADA ANTICIPADA"
)

func (r Receipt) ESCPOS() []byte {
	e := newESCPOS().center()

	e.bold(true).double(true).line(r.Venue).double(false).bold(false)
	e.line(r.Title).rule()

	e.left()
	if r.EventName != "" {
		e.line("Evento: " + r.EventName)
	}
	e.line("Entrada: " + r.TicketType)
	e.line("Fecha: " + r.IssuedAt.Format("02/01/2006"))
	e.line("Hora: " + r.IssuedAt.Format("15:04"))
	e.bold(true).line("Total: " + utils.FormatPesos(r.Price)).bold(false)

	e.center()
	if r.IncludesDrink {
		e.bold(true).line("INCLUYE TRAGO GRATIS").bold(false)
	}
	if r.ControlCode != "" {
		e.rule().line(fmt.Sprintf("Codigo: %s", r.ControlCode))
	}
	e.line("Gracias por tu compra")
	return e.cut()
}
