// Package ledger holds the arithmetic shared by the ledger store and service:
// folding running totals into event totals and computing occupancy.
package ledger

import (
	"ms-boxoffice/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Occupancy is totalSold / capacity * 100 rounded to two decimals. It is
// undefined (invalid) when capacity is not positive.
func Occupancy(totalSold, capacity int) decimal.NullDecimal {
	if capacity <= 0 {
		return decimal.NullDecimal{}
	}
	pct := decimal.NewFromInt(int64(totalSold)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(capacity))).
		Round(2)
	return decimal.NewNullDecimal(pct)
}

// DisplayOccupancy rounds an occupancy to a whole percentage.
func DisplayOccupancy(o decimal.NullDecimal) *int {
	if !o.Valid {
		return nil
	}
	v := int(o.Decimal.Round(0).IntPart())
	return &v
}

// Summarize folds per-ticket-type running totals into the figures archived
// when an event closes.
func Summarize(lines []models.RunningTotal) (int, decimal.Decimal, []models.SnapshotLine) {
	sold := 0
	amount := decimal.Zero
	detail := make([]models.SnapshotLine, 0, len(lines))
	for _, l := range lines {
		sold += l.Quantity
		amount = amount.Add(l.Amount)
		detail = append(detail, models.SnapshotLine{
			TicketTypeID: l.TicketTypeID,
			Name:         l.TicketTypeName,
			Quantity:     l.Quantity,
			Total:        l.Amount,
		})
	}
	return sold, amount, detail
}
