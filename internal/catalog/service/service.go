package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/catalog/db"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/pricing"

	"github.com/shopspring/decimal"
)

type DBLayer interface {
	ListEvents(ctx context.Context, f db.EventFilter) ([]models.Event, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	CreateEvent(ctx context.Context, ev *models.Event) error
	UpdateEvent(ctx context.Context, id int64, patch db.EventPatch) (*models.Event, error)
	DeactivateEvent(ctx context.Context, id int64) error
	EnsureEvents(ctx context.Context, dates []time.Time, name string, capacity int, createdAt time.Time) ([]models.Event, error)

	ListTicketTypes(ctx context.Context, activeOnly bool) ([]models.TicketType, error)
	GetTicketType(ctx context.Context, id int64) (*models.TicketType, error)
	CreateTicketType(ctx context.Context, tt *models.TicketType) error
	SaveTicketType(ctx context.Context, tt *models.TicketType) error
	DeactivateTicketType(ctx context.Context, id int64) error
	DeleteTicketType(ctx context.Context, id int64) error
}

// List modes accepted by ListEvents.
const (
	ListAll      = ""
	ListActive   = "active"
	ListCalendar = "calendar"
	ListUpcoming = "upcoming"
)

const calendarWindow = 60 * 24 * time.Hour

type EventRequest struct {
	Name     string    `json:"name" validate:"required"`
	Detail   string    `json:"detail"`
	Date     time.Time `json:"date" validate:"required"`
	Capacity int       `json:"capacity"`
}

type EventUpdate struct {
	Name     *string `json:"name"`
	Detail   *string `json:"detail"`
	Capacity *int    `json:"capacity"`
}

// TicketTypeRequest is used for both create and partial update; nil fields
// are left untouched on update.
type TicketTypeRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	BasePrice     *decimal.Decimal `json:"base_price"`
	AutoSwitch    *bool            `json:"auto_switch"`
	SwitchStart   *string          `json:"switch_start"`
	SwitchEnd     *string          `json:"switch_end"`
	OverridePrice *decimal.Decimal `json:"override_price"`
	Active        *bool            `json:"active"`
}

// TicketTypeView is a ticket type with the price it sells at right now.
type TicketTypeView struct {
	models.TicketType
	EffectivePrice decimal.Decimal `json:"effective_price"`
}

type CatalogService struct {
	DB     DBLayer
	Prices *pricing.Resolver
	Logger *logger.Logger
	Venue  config.VenueConfig
}

func NewCatalogService(database DBLayer, prices *pricing.Resolver, log *logger.Logger, venue config.VenueConfig) *CatalogService {
	return &CatalogService{DB: database, Prices: prices, Logger: log, Venue: venue}
}

func (s *CatalogService) ListEvents(ctx context.Context, mode string) ([]models.Event, error) {
	switch mode {
	case ListAll:
		return s.DB.ListEvents(ctx, db.EventFilter{})
	case ListActive:
		return s.DB.ListEvents(ctx, db.EventFilter{ActiveOnly: true})
	case ListUpcoming:
		return s.EnsureUpcomingSaturdays(ctx)
	case ListCalendar:
		if _, err := s.EnsureUpcomingSaturdays(ctx); err != nil {
			return nil, err
		}
		today := startOfDay(s.Prices.Now())
		return s.DB.ListEvents(ctx, db.EventFilter{From: today, To: today.Add(calendarWindow + 24*time.Hour)})
	default:
		return nil, fmt.Errorf("%w: unknown list mode %q", apperrors.ErrInvalidInput, mode)
	}
}

func (s *CatalogService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	return s.DB.GetEvent(ctx, id)
}

func (s *CatalogService) CreateEvent(ctx context.Context, req EventRequest) (*models.Event, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrInvalidInput)
	}
	if req.Capacity <= 0 {
		return nil, apperrors.ErrInvalidCapacity
	}
	ev := &models.Event{
		Name:      name,
		Detail:    req.Detail,
		Date:      req.Date,
		Capacity:  req.Capacity,
		Active:    true,
		CreatedAt: s.Prices.Now(),
	}
	if err := s.DB.CreateEvent(ctx, ev); err != nil {
		return nil, err
	}
	s.Logger.LogDatabase("INSERT", "eventos", fmt.Sprintf("event #%d %q on %s", ev.ID, ev.Name, ev.Date.Format("2006-01-02")))
	return ev, nil
}

func (s *CatalogService) UpdateEvent(ctx context.Context, id int64, req EventUpdate) (*models.Event, error) {
	if req.Capacity != nil && *req.Capacity <= 0 {
		return nil, apperrors.ErrInvalidCapacity
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", apperrors.ErrInvalidInput)
	}
	return s.DB.UpdateEvent(ctx, id, db.EventPatch{Name: req.Name, Detail: req.Detail, Capacity: req.Capacity})
}

func (s *CatalogService) DeactivateEvent(ctx context.Context, id int64) error {
	if err := s.DB.DeactivateEvent(ctx, id); err != nil {
		return err
	}
	s.Logger.LogDatabase("UPDATE", "eventos", fmt.Sprintf("event #%d deactivated", id))
	return nil
}

// UpcomingSaturdays returns the configured number of Saturday nights
// starting with the next one (today when today is Saturday).
func UpcomingSaturdays(now time.Time, count, hour int) []time.Time {
	day := startOfDay(now)
	offset := (int(time.Saturday) - int(day.Weekday()) + 7) % 7
	first := day.AddDate(0, 0, offset)

	dates := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		d := first.AddDate(0, 0, 7*i)
		dates = append(dates, time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, d.Location()))
	}
	return dates
}

// EnsureUpcomingSaturdays creates the missing Saturday events with the
// default capacity and returns all of them.
func (s *CatalogService) EnsureUpcomingSaturdays(ctx context.Context) ([]models.Event, error) {
	now := s.Prices.Now()
	dates := UpcomingSaturdays(now, s.Venue.UpcomingCount, s.Venue.UpcomingHour)
	events, err := s.DB.EnsureEvents(ctx, dates, "Evento", s.Venue.UpcomingCapacity, now)
	if err != nil {
		return nil, err
	}
	s.Logger.Debug("CATALOG", fmt.Sprintf("%d upcoming saturdays ensured", len(events)))
	return events, nil
}

func (s *CatalogService) view(tt models.TicketType) TicketTypeView {
	return TicketTypeView{TicketType: tt, EffectivePrice: s.Prices.EffectivePrice(tt.Schedule())}
}

func (s *CatalogService) ListTicketTypes(ctx context.Context, activeOnly bool) ([]TicketTypeView, error) {
	types, err := s.DB.ListTicketTypes(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	views := make([]TicketTypeView, 0, len(types))
	for _, tt := range types {
		views = append(views, s.view(tt))
	}
	return views, nil
}

func (s *CatalogService) GetTicketType(ctx context.Context, id int64) (*TicketTypeView, error) {
	tt, err := s.DB.GetTicketType(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.view(*tt)
	return &v, nil
}

func (s *CatalogService) CreateTicketType(ctx context.Context, req TicketTypeRequest) (*TicketTypeView, error) {
	if req.Name == nil || req.BasePrice == nil {
		return nil, fmt.Errorf("%w: name and base_price are required", apperrors.ErrInvalidInput)
	}
	tt := &models.TicketType{Active: true}
	if err := applyTicketType(tt, req); err != nil {
		return nil, err
	}
	if err := s.DB.CreateTicketType(ctx, tt); err != nil {
		return nil, err
	}
	s.Logger.LogDatabase("INSERT", "entradas", fmt.Sprintf("ticket type #%d %q", tt.ID, tt.Name))
	v := s.view(*tt)
	return &v, nil
}

func (s *CatalogService) UpdateTicketType(ctx context.Context, id int64, req TicketTypeRequest) (*TicketTypeView, error) {
	tt, err := s.DB.GetTicketType(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyTicketType(tt, req); err != nil {
		return nil, err
	}
	if err := s.DB.SaveTicketType(ctx, tt); err != nil {
		return nil, err
	}
	v := s.view(*tt)
	return &v, nil
}

func (s *CatalogService) DeactivateTicketType(ctx context.Context, id int64) error {
	return s.DB.DeactivateTicketType(ctx, id)
}

func (s *CatalogService) DeleteTicketType(ctx context.Context, id int64) error {
	if err := s.DB.DeleteTicketType(ctx, id); err != nil {
		return err
	}
	s.Logger.LogDatabase("DELETE", "entradas", fmt.Sprintf("ticket type #%d", id))
	return nil
}

// applyTicketType merges req into tt and validates the result.
func applyTicketType(tt *models.TicketType, req TicketTypeRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return fmt.Errorf("%w: name must not be empty", apperrors.ErrInvalidInput)
		}
		tt.Name = name
	}
	if req.Description != nil {
		tt.Description = *req.Description
	}
	if req.BasePrice != nil {
		tt.BasePrice = *req.BasePrice
	}
	if req.AutoSwitch != nil {
		tt.AutoSwitch = *req.AutoSwitch
	}
	if req.SwitchStart != nil {
		t, err := parseOptionalTime(*req.SwitchStart)
		if err != nil {
			return err
		}
		tt.SwitchStart = t
	}
	if req.SwitchEnd != nil {
		t, err := parseOptionalTime(*req.SwitchEnd)
		if err != nil {
			return err
		}
		tt.SwitchEnd = t
	}
	if req.OverridePrice != nil {
		tt.OverridePrice = decimal.NewNullDecimal(*req.OverridePrice)
	}
	if req.Active != nil {
		tt.Active = *req.Active
	}
	return validateTicketType(tt)
}

func parseOptionalTime(s string) (*pricing.TimeOfDay, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := pricing.ParseTimeOfDay(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return &t, nil
}

func validateTicketType(tt *models.TicketType) error {
	if tt.BasePrice.IsNegative() {
		return apperrors.ErrInvalidPrice
	}
	if tt.OverridePrice.Valid && tt.OverridePrice.Decimal.IsNegative() {
		return apperrors.ErrInvalidPrice
	}
	if tt.AutoSwitch && !tt.Schedule().Complete() {
		return apperrors.ErrInvalidSchedule
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
