package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/ledger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/pricing"

	"github.com/shopspring/decimal"
)

// Store is the read side the analytics service needs
type Store interface {
	EventAggregates(ctx context.Context) ([]EventAggregate, error)
	ClosureHistory(ctx context.Context, from, to time.Time) ([]models.EventCloseSnapshot, error)
}

// Service handles analytics operations
type Service struct {
	store Store
	clock pricing.Clock
	loc   *time.Location
}

// NewService creates a new analytics service
func NewService(store Store, clock pricing.Clock, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, clock: clock, loc: loc}
}

// DashboardQuery selects the month, an optional single past day and how
// many upcoming events to show
type DashboardQuery struct {
	Month         string // YYYY-MM, defaults to the current month
	Day           string // YYYY-MM-DD, restricts past events to that day
	LimitUpcoming int
}

// MonthMetrics summarizes the active events of a month
type MonthMetrics struct {
	Events           int             `json:"events"`
	Tickets          int             `json:"tickets"`
	Revenue          decimal.Decimal `json:"revenue"`
	AverageOccupancy int             `json:"average_occupancy"`
}

// EventFigures is one event row of the dashboard
type EventFigures struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Date      time.Time       `json:"date"`
	Tickets   int             `json:"tickets"`
	Revenue   decimal.Decimal `json:"revenue"`
	Occupancy int             `json:"occupancy"`
}

// MonthlySummary covers every event of the month, active or not
type MonthlySummary struct {
	Label            string          `json:"label"`
	Events           int             `json:"events"`
	Tickets          int             `json:"tickets"`
	Revenue          decimal.Decimal `json:"revenue"`
	AverageOccupancy int             `json:"average_occupancy"`
	BestNight        *EventFigures   `json:"best_night"`
}

// WeekdayPoint is one bar of the weekly charts
type WeekdayPoint struct {
	Name       string          `json:"name"`
	Sales      decimal.Decimal `json:"sales"`
	Attendance int             `json:"attendance"`
}

// RevenueShare is one slice of the revenue pie
type RevenueShare struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Dashboard is everything the owner's home screen shows
type Dashboard struct {
	Metrics        MonthMetrics   `json:"metrics"`
	CurrentNight   *EventFigures  `json:"current_night"`
	UpcomingEvents []EventFigures `json:"upcoming_events"`
	PastEvents     []EventFigures `json:"past_events"`
	MonthlySummary MonthlySummary `json:"monthly_summary"`
	Weekly         []WeekdayPoint `json:"weekly"`
	RevenueShare   []RevenueShare `json:"revenue_share"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

var monthNames = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}

var weekdayNames = [...]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}

// currentNightWindow is how long after its start an event still counts as
// tonight, so a party that began at 23:00 is current at 03:00.
const currentNightWindow = 8 * time.Hour

const revenueShareTop = 5

// Dashboard computes the home screen figures from one aggregate read
func (s *Service) Dashboard(ctx context.Context, q DashboardQuery) (*Dashboard, error) {
	now := s.clock.Now().In(s.loc)
	monthStart, err := s.monthStart(q.Month, now)
	if err != nil {
		return nil, err
	}
	monthEnd := monthStart.AddDate(0, 1, 0)

	var day time.Time
	if q.Day != "" {
		day, err = time.ParseInLocation("2006-01-02", q.Day, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: day must be YYYY-MM-DD", apperrors.ErrInvalidInput)
		}
	}
	limit := q.LimitUpcoming
	if limit < 1 {
		limit = 3
	}

	events, err := s.store.EventAggregates(ctx)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		UpcomingEvents: []EventFigures{},
		PastEvents:     []EventFigures{},
		Weekly:         []WeekdayPoint{},
		RevenueShare:   []RevenueShare{},
		GeneratedAt:    now,
	}

	var monthAll, monthActive []EventAggregate
	for _, e := range events {
		date := e.Date.In(s.loc)
		if !date.Before(monthStart) && date.Before(monthEnd) {
			monthAll = append(monthAll, e)
			if e.Active {
				monthActive = append(monthActive, e)
			}
		}
	}
	d.Metrics = monthMetrics(monthActive)
	d.MonthlySummary = monthlySummary(monthAll, monthStart)
	d.CurrentNight = s.currentNight(events, now)

	for _, e := range events {
		date := e.Date.In(s.loc)
		if date.After(now) && e.Active && len(d.UpcomingEvents) < limit {
			d.UpcomingEvents = append(d.UpcomingEvents, figures(e, s.loc))
		}
	}

	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		date := e.Date.In(s.loc)
		if !day.IsZero() {
			if sameDay(date, day) {
				d.PastEvents = append(d.PastEvents, figures(e, s.loc))
			}
			continue
		}
		if date.Before(now) {
			d.PastEvents = append(d.PastEvents, figures(e, s.loc))
		}
	}

	d.Weekly = weekly(events, now, s.loc)
	d.RevenueShare = revenueShare(events)
	return d, nil
}

// ClosureHistory lists the archived closes of a month, or all of them
func (s *Service) ClosureHistory(ctx context.Context, month string) ([]models.EventCloseSnapshot, error) {
	if month == "" {
		return s.store.ClosureHistory(ctx, time.Time{}, time.Time{})
	}
	start, err := s.monthStart(month, s.clock.Now().In(s.loc))
	if err != nil {
		return nil, err
	}
	return s.store.ClosureHistory(ctx, start, start.AddDate(0, 1, 0))
}

func (s *Service) monthStart(month string, now time.Time) (time.Time, error) {
	if month == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc), nil
	}
	t, err := time.ParseInLocation("2006-01", month, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month must be YYYY-MM", apperrors.ErrInvalidInput)
	}
	return t, nil
}

func (s *Service) currentNight(events []EventAggregate, now time.Time) *EventFigures {
	var best *EventAggregate
	for i := range events {
		e := &events[i]
		date := e.Date.In(s.loc)
		tonight := sameDay(date, now) || (!date.After(now) && now.Sub(date) <= currentNightWindow)
		if tonight && (best == nil || e.Date.After(best.Date)) {
			best = e
		}
	}
	if best == nil {
		return nil
	}
	f := figures(*best, s.loc)
	return &f
}

func figures(e EventAggregate, loc *time.Location) EventFigures {
	return EventFigures{
		ID:        e.ID,
		Name:      e.Name,
		Date:      e.Date.In(loc),
		Tickets:   e.Sold,
		Revenue:   e.Revenue,
		Occupancy: occupancyOf(e),
	}
}

func occupancyOf(e EventAggregate) int {
	if p := ledger.DisplayOccupancy(ledger.Occupancy(e.Sold, e.Capacity)); p != nil {
		return *p
	}
	return 0
}

// averageOccupancy averages the occupancy of events with a capacity
func averageOccupancy(events []EventAggregate) int {
	sum := decimal.Zero
	n := 0
	for _, e := range events {
		o := ledger.Occupancy(e.Sold, e.Capacity)
		if !o.Valid {
			continue
		}
		sum = sum.Add(o.Decimal)
		n++
	}
	if n == 0 {
		return 0
	}
	return int(sum.Div(decimal.NewFromInt(int64(n))).Round(0).IntPart())
}

func monthMetrics(events []EventAggregate) MonthMetrics {
	m := MonthMetrics{Events: len(events), Revenue: decimal.Zero}
	for _, e := range events {
		m.Tickets += e.Sold
		m.Revenue = m.Revenue.Add(e.Revenue)
	}
	m.AverageOccupancy = averageOccupancy(events)
	return m
}

func monthlySummary(events []EventAggregate, monthStart time.Time) MonthlySummary {
	m := monthMetrics(events)
	summary := MonthlySummary{
		Label:            fmt.Sprintf("%s %d", monthNames[monthStart.Month()-1], monthStart.Year()),
		Events:           m.Events,
		Tickets:          m.Tickets,
		Revenue:          m.Revenue,
		AverageOccupancy: m.AverageOccupancy,
	}
	for _, e := range events {
		if e.Sold == 0 && e.Revenue.IsZero() {
			continue
		}
		if summary.BestNight == nil || e.Revenue.GreaterThan(summary.BestNight.Revenue) {
			f := figures(e, monthStart.Location())
			summary.BestNight = &f
		}
	}
	return summary
}

// weekly groups the events of the last seven days by weekday in date order
func weekly(events []EventAggregate, now time.Time, loc *time.Location) []WeekdayPoint {
	from := now.Add(-7 * 24 * time.Hour)
	points := []WeekdayPoint{}
	index := map[time.Weekday]int{}
	for _, e := range events {
		date := e.Date.In(loc)
		if date.Before(from) || date.After(now) {
			continue
		}
		i, ok := index[date.Weekday()]
		if !ok {
			i = len(points)
			index[date.Weekday()] = i
			points = append(points, WeekdayPoint{Name: weekdayNames[date.Weekday()], Sales: decimal.Zero})
		}
		points[i].Sales = points[i].Sales.Add(e.Revenue)
		points[i].Attendance += e.Sold
	}
	return points
}

// revenueShare is each event's percentage of all revenue, top five
func revenueShare(events []EventAggregate) []RevenueShare {
	total := decimal.Zero
	for _, e := range events {
		total = total.Add(e.Revenue)
	}
	shares := []RevenueShare{}
	if !total.IsPositive() {
		return shares
	}
	for _, e := range events {
		if !e.Revenue.IsPositive() {
			continue
		}
		shares = append(shares, RevenueShare{
			Name:  e.Name,
			Value: e.Revenue.Mul(decimal.NewFromInt(100)).Div(total).Round(2),
		})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Value.GreaterThan(shares[j].Value) })
	if len(shares) > revenueShareTop {
		shares = shares[:revenueShareTop]
	}
	return shares
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
