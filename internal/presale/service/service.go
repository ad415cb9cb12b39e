package service

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
	Insert(ctx context.Context, p *models.Presale) error
	List(ctx context.Context) ([]models.Presale, error)
	Get(ctx context.Context, id int64) (*models.Presale, error)
	Redeem(ctx context.Context, id int64, fn func(p *models.Presale) error) (*models.Presale, error)
}

// PresaleRequest registers an advance sale. A zero quantity means one.
type PresaleRequest struct {
	Name          string `json:"name" validate:"required"`
	DNI           string `json:"dni" validate:"omitempty,max=20"`
	TicketTypeID  int64  `json:"ticket_type_id" validate:"required,gt=0"`
	EventID       *int64 `json:"event_id" validate:"omitempty,gt=0"`
	Quantity      int    `json:"quantity"`
	IncludesDrink bool   `json:"includes_drink"`
}

// PresaleView is a pending presale with the names the door list shows.
type PresaleView struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	DNI            string          `json:"dni,omitempty"`
	TicketTypeID   int64           `json:"ticket_type_id"`
	TicketTypeName string          `json:"ticket_type_name"`
	TicketPrice    decimal.Decimal `json:"ticket_price"`
	EventID        *int64          `json:"event_id"`
	EventName      string          `json:"event_name,omitempty"`
	Quantity       int             `json:"quantity"`
	IncludesDrink  bool            `json:"includes_drink"`
}

type PrintResult struct {
	PresaleID  int64  `json:"presale_id"`
	TicketType string `json:"ticket_type"`
	Copies     int    `json:"copies"`
	Printed    bool   `json:"printed"`
	Warning    string `json:"warning,omitempty"`
}

// defaultTicketName labels a presale whose ticket type row is gone.
const defaultTicketName = "Anticipada"

type PresaleService struct {
	DB          DBLayer
	Printer     printing.Printer
	Clock       pricing.Clock
	Logger      *logger.Logger
	Venue       string
	MaxQuantity int
}

func NewPresaleService(database DBLayer, printer printing.Printer, clock pricing.Clock, log *logger.Logger, venue string, maxQuantity int) *PresaleService {
	if printer == nil {
		printer = printing.NopPrinter{Logger: log}
	}
	return &PresaleService{
		DB:          database,
		Printer:     printer,
		Clock:       clock,
		Logger:      log,
		Venue:       venue,
		MaxQuantity: maxQuantity,
	}
}

func (s *PresaleService) Create(ctx context.Context, req PresaleRequest) (*PresaleView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: presale name is required", apperrors.ErrInvalidInput)
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return nil, apperrors.ErrInvalidQuantity
	}
	if s.MaxQuantity > 0 && qty > s.MaxQuantity {
		return nil, fmt.Errorf("%w: at most %d per presale", apperrors.ErrInvalidQuantity, s.MaxQuantity)
	}

	p := &models.Presale{
		Name:          name,
		DNI:           strings.TrimSpace(req.DNI),
		TicketTypeID:  req.TicketTypeID,
		EventID:       req.EventID,
		Quantity:      qty,
		IncludesDrink: req.IncludesDrink,
		CreatedAt:     s.Clock.Now(),
	}
	if err := s.DB.Insert(ctx, p); err != nil {
		return nil, err
	}
	s.Logger.Info("PRESALE", fmt.Sprintf("presale #%d for %s: %d x ticket type %d", p.ID, p.Name, p.Quantity, p.TicketTypeID))

	stored, err := s.DB.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	v := view(stored)
	return &v, nil
}

func (s *PresaleService) List(ctx context.Context) ([]PresaleView, error) {
	presales, err := s.DB.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]PresaleView, 0, len(presales))
	for i := range presales {
		views = append(views, view(&presales[i]))
	}
	return views, nil
}

// Print sends one ticket per unit at the base price and removes the presale.
// A printer failure keeps the presale pending and comes back as a warning.
func (s *PresaleService) Print(ctx context.Context, id int64) (*PrintResult, error) {
	result := &PrintResult{PresaleID: id}
	var printErr error

	_, err := s.DB.Redeem(ctx, id, func(p *models.Presale) error {
		v := view(p)
		result.TicketType = v.TicketTypeName
		result.Copies = p.Quantity

		receipt := printing.Receipt{
			Venue:         s.Venue,
			Title:         printing.TitleAdvance,
			TicketType:    v.TicketTypeName,
			EventName:     v.EventName,
			Price:         v.TicketPrice,
			IncludesDrink: p.IncludesDrink,
			IssuedAt:      s.Clock.Now(),
		}
		job := printing.NewJob(fmt.Sprintf("presale-%d", p.ID), p.Quantity, receipt.ESCPOS())
		if err := s.Printer.Print(ctx, job); err != nil {
			printErr = err
			return err
		}
		s.Logger.LogPrint(job.Reference, fmt.Sprintf("%d copies sent for %s", job.Copies, p.Name))
		return nil
	})
	if printErr != nil {
		result.Warning = "presale kept, tickets were not printed: " + printErr.Error()
		s.Logger.Warn("PRINT", fmt.Sprintf("presale #%d: %v", id, printErr))
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	result.Printed = true
	return result, nil
}

func view(p *models.Presale) PresaleView {
	v := PresaleView{
		ID:             p.ID,
		Name:           p.Name,
		DNI:            p.DNI,
		TicketTypeID:   p.TicketTypeID,
		TicketTypeName: defaultTicketName,
		TicketPrice:    decimal.Zero,
		EventID:        p.EventID,
		Quantity:       p.Quantity,
		IncludesDrink:  p.IncludesDrink,
	}
	if p.TicketType != nil && p.TicketType.ID != 0 {
		v.TicketTypeName = p.TicketType.Name
		v.TicketPrice = p.TicketType.BasePrice
	}
	if p.EventID != nil && p.Event != nil && p.Event.ID != 0 {
		v.EventName = p.Event.Name
	}
	return v
}
