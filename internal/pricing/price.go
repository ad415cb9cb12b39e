// Package pricing resolves the unit price of a ticket type at a moment in
// time from its optional time-of-day price window.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Schedule is the pricing part of a ticket type.
type Schedule struct {
	BasePrice     decimal.Decimal
	AutoSwitch    bool
	Start         *TimeOfDay
	End           *TimeOfDay
	OverridePrice decimal.NullDecimal
}

// Complete reports whether an automatic switch has everything it needs.
func (s Schedule) Complete() bool {
	return s.Start != nil && s.End != nil && s.OverridePrice.Valid
}

// InWindow reports whether now falls inside [start, end], both inclusive at
// minute resolution. A window whose start is after its end crosses midnight;
// it matches only when wrap is set.
func InWindow(now, start, end TimeOfDay, wrap bool) bool {
	if start <= end {
		return start <= now && now <= end
	}
	if !wrap {
		return false
	}
	return now >= start || now <= end
}

// EffectivePriceAt returns the override price when the schedule is switched
// on and now is inside its window, otherwise the base price.
func EffectivePriceAt(s Schedule, now time.Time, wrap bool) decimal.Decimal {
	if !s.AutoSwitch || !s.Complete() {
		return s.BasePrice
	}
	if InWindow(At(now), *s.Start, *s.End, wrap) {
		return s.OverridePrice.Decimal
	}
	return s.BasePrice
}

// Resolver binds price resolution to a clock and the venue timezone.
type Resolver struct {
	Clock    Clock
	Location *time.Location
	Wrap     bool
}

func NewResolver(clock Clock, loc *time.Location, wrap bool) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{Clock: clock, Location: loc, Wrap: wrap}
}

// Now is the resolver clock in the venue timezone.
func (r *Resolver) Now() time.Time {
	return r.Clock.Now().In(r.Location)
}

func (r *Resolver) EffectivePrice(s Schedule) decimal.Decimal {
	return EffectivePriceAt(s, r.Now(), r.Wrap)
}
