package guestlist

import (
	"context"
	"fmt"
	"strings"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/pricing"
	"ms-boxoffice/internal/printing"

	"github.com/shopspring/decimal"
)

type DBLayer interface {
	ListUsers(ctx context.Context, eventID *int64) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	AddGuest(ctx context.Context, g *models.Guest) error
	GetGuest(ctx context.Context, id int64) (*models.Guest, error)
	UpdateGuest(ctx context.Context, id int64, patch GuestPatch) (*models.Guest, error)
	SetCheckedIn(ctx context.Context, id int64, checkedIn bool) error
	DeleteGuest(ctx context.Context, id int64) error
}

type GuestRequest struct {
	UserID  int64  `json:"user_id" validate:"required,gt=0"`
	EventID *int64 `json:"event_id" validate:"omitempty,gt=0"`
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
}

type GuestUpdate struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// PrintResult tells the door whether the complimentary ticket came out.
type PrintResult struct {
	Description string `json:"description"`
	Printed     bool   `json:"printed"`
	Warning     string `json:"warning,omitempty"`
}

type Service struct {
	DB      DBLayer
	Printer printing.Printer
	Clock   pricing.Clock
	Logger  *logger.Logger
	Venue   string
}

func NewService(database DBLayer, printer printing.Printer, clock pricing.Clock, log *logger.Logger, venue string) *Service {
	if printer == nil {
		printer = printing.NopPrinter{Logger: log}
	}
	return &Service{DB: database, Printer: printer, Clock: clock, Logger: log, Venue: venue}
}

func (s *Service) ListPromoters(ctx context.Context, eventID *int64) ([]models.User, error) {
	return s.DB.ListUsers(ctx, eventID)
}

func (s *Service) AddGuest(ctx context.Context, req GuestRequest) (*models.Guest, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: guest name is required", apperrors.ErrInvalidInput)
	}
	g := &models.Guest{
		UserID:    req.UserID,
		EventID:   req.EventID,
		Name:      name,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: s.Clock.Now(),
	}
	if err := s.DB.AddGuest(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) UpdateGuest(ctx context.Context, id int64, req GuestUpdate) (*models.Guest, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("%w: guest name must not be empty", apperrors.ErrInvalidInput)
	}
	return s.DB.UpdateGuest(ctx, id, GuestPatch{Name: req.Name, Phone: req.Phone})
}

func (s *Service) CheckIn(ctx context.Context, id int64) error {
	return s.DB.SetCheckedIn(ctx, id, true)
}

func (s *Service) DeleteGuest(ctx context.Context, id int64) error {
	return s.DB.DeleteGuest(ctx, id)
}

// ComplimentaryDescription builds "Entrada Gratis - <list> / <guest>",
// skipping whichever part is blank.
func ComplimentaryDescription(list, guest string) string {
	desc := "Entrada Gratis"
	if l := strings.TrimSpace(list); l != "" {
		desc += " - " + l
	}
	if g := strings.TrimSpace(guest); g != "" {
		desc += " / " + g
	}
	return desc
}

// PrintComplimentary prints a zero-priced entry. A printer failure is
// returned as a warning on the result.
func (s *Service) PrintComplimentary(ctx context.Context, list, guest string) *PrintResult {
	desc := ComplimentaryDescription(list, guest)
	receipt := printing.Receipt{
		Venue:      s.Venue,
		Title:      printing.TitleFree,
		TicketType: desc,
		Price:      decimal.Zero,
		IssuedAt:   s.Clock.Now(),
	}
	job := printing.NewJob("guest-"+desc, 1, receipt.ESCPOS())

	result := &PrintResult{Description: desc}
	if err := s.Printer.Print(ctx, job); err != nil {
		result.Warning = "complimentary ticket was not printed: " + err.Error()
		s.Logger.Warn("PRINT", fmt.Sprintf("%s: %v", desc, err))
		return result
	}
	result.Printed = true
	s.Logger.LogPrint(job.Reference, "complimentary ticket sent")
	return result
}

// PrintGuestTicket prints the complimentary entry of a listed guest, using
// the promoter's name as the list name.
func (s *Service) PrintGuestTicket(ctx context.Context, guestID int64) (*PrintResult, error) {
	g, err := s.DB.GetGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	owner, err := s.DB.GetUser(ctx, g.UserID)
	if err != nil {
		return nil, err
	}
	return s.PrintComplimentary(ctx, owner.Name, g.Name), nil
}
