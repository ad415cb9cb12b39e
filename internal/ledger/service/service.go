package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/ledger"
	"ms-boxoffice/internal/ledger/db"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/pricing"
	"ms-boxoffice/internal/printing"
	"ms-boxoffice/internal/printing/qr"
	"ms-boxoffice/internal/sse"
	"ms-boxoffice/internal/utils"

	"github.com/shopspring/decimal"
)

type DBLayer interface {
	InsertSale(ctx context.Context, draft db.SaleDraft, price db.PriceFunc) (*models.SaleRecord, error)
	EventTotals(ctx context.Context, eventID int64) ([]models.RunningTotal, error)
	RunningTotals(ctx context.Context) ([]models.RunningTotal, error)
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)
	GetTicketType(ctx context.Context, id int64) (*models.TicketType, error)
	GetSale(ctx context.Context, saleID int64) (*models.SaleRecord, error)
	CloseEvent(ctx context.Context, eventID int64, closedBy string, at time.Time) (*models.EventCloseSnapshot, error)
	ListSnapshots(ctx context.Context) ([]models.EventCloseSnapshot, error)
	GetSnapshot(ctx context.Context, id int64) (*models.EventCloseSnapshot, error)
}

// EventPublisher is satisfied by the Kafka producer.
type EventPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}) error
}

type TotalsBroadcaster interface {
	Emit(update sse.TotalsUpdate)
}

type SaleRequest struct {
	TicketTypeID               int64  `json:"ticket_type_id" validate:"required,gt=0"`
	EventID                    *int64 `json:"event_id" validate:"omitempty,gt=0"`
	Quantity                   int    `json:"quantity"`
	Operation                  string `json:"operation" validate:"required"`
	IncludesComplimentaryDrink bool   `json:"includes_complimentary_drink"`
	Print                      bool   `json:"print"`
	RecordedBy                 string `json:"-"`
}

type SaleResult struct {
	Sale           *models.SaleRecord `json:"sale"`
	TicketTypeName string             `json:"ticket_type_name"`
	ControlCode    string             `json:"control_code"`
	PrintWarning   string             `json:"print_warning,omitempty"`
}

type EventTotals struct {
	EventID          int64                 `json:"event_id"`
	EventName        string                `json:"event_name,omitempty"`
	Capacity         int                   `json:"capacity"`
	Active           bool                  `json:"active"`
	ByTicketType     map[int64]int         `json:"by_ticket_type"`
	Lines            []models.RunningTotal `json:"lines"`
	TotalSold        int                   `json:"total_sold"`
	TotalRevenue     decimal.Decimal       `json:"total_revenue"`
	OccupancyPercent decimal.NullDecimal   `json:"occupancy_percent"`
	OccupancyDisplay *int                  `json:"occupancy_display"`
}

type LedgerService struct {
	DB      DBLayer
	Prices  *pricing.Resolver
	Printer printing.Printer
	QR      *qr.QRGenerator
	Events  EventPublisher
	Live    TotalsBroadcaster
	Logger  *logger.Logger

	VenueName          string
	RequireActiveEvent bool
	MaxQuantity        int
	Topics             config.TopicConfig
}

func NewLedgerService(database DBLayer, prices *pricing.Resolver, printer printing.Printer, log *logger.Logger, cfg *config.Config) *LedgerService {
	if printer == nil {
		printer = printing.NopPrinter{Logger: log}
	}
	return &LedgerService{
		DB:                 database,
		Prices:             prices,
		Printer:            printer,
		QR:                 qr.NewQRGenerator(cfg.QR.Secret),
		Logger:             log,
		VenueName:          cfg.Venue.Name,
		RequireActiveEvent: cfg.Venue.RequireActive,
		MaxQuantity:        cfg.Venue.QuantityLimit(),
		Topics:             cfg.Kafka.Topics,
	}
}

// RecordSale appends a sale or a correction to the ledger. Printing happens
// after the write commits; a print failure is reported as a warning on the
// result, never as an error.
func (s *LedgerService) RecordSale(ctx context.Context, req SaleRequest) (*SaleResult, error) {
	if req.Quantity < 1 {
		return nil, apperrors.ErrInvalidQuantity
	}
	if s.MaxQuantity > 0 && req.Quantity > s.MaxQuantity {
		return nil, fmt.Errorf("%w: at most %d per operation", apperrors.ErrInvalidQuantity, s.MaxQuantity)
	}
	op, ok := models.ParseOperation(req.Operation)
	if !ok {
		return nil, apperrors.ErrInvalidOperation
	}

	now := s.Prices.Now()
	priceAt := func(tt *models.TicketType) decimal.Decimal {
		return pricing.EffectivePriceAt(tt.Schedule(), now, s.Prices.Wrap)
	}

	rec, err := s.DB.InsertSale(ctx, db.SaleDraft{
		TicketTypeID:       req.TicketTypeID,
		EventID:            req.EventID,
		Operation:          op,
		Quantity:           req.Quantity,
		IncludesDrink:      req.IncludesComplimentaryDrink,
		RecordedBy:         req.RecordedBy,
		RequireActiveEvent: s.RequireActiveEvent,
		At:                 now,
	}, priceAt)
	if err != nil {
		return nil, err
	}

	s.Logger.LogSale(string(op), rec.ID, fmt.Sprintf("ticket type %d qty %d unit %s total %s",
		rec.TicketTypeID, rec.Quantity, rec.UnitPrice.StringFixed(2), rec.Total.StringFixed(2)))

	result := &SaleResult{
		Sale:        rec,
		ControlCode: utils.ControlCode(rec.ID, rec.SoldAt),
	}
	if tt, err := s.DB.GetTicketType(ctx, rec.TicketTypeID); err == nil {
		result.TicketTypeName = tt.Name
	}

	s.publish(ctx, s.Topics.SaleRecorded, strconv.FormatInt(rec.ID, 10), result)
	if rec.EventID != nil {
		s.broadcastTotals(ctx, *rec.EventID, string(op))
	}

	if op == models.OperationSale && req.Print {
		if err := s.printSale(ctx, rec, result); err != nil {
			result.PrintWarning = "sale recorded but the ticket was not printed: " + err.Error()
			s.Logger.Warn("PRINT", fmt.Sprintf("sale #%d: %v", rec.ID, err))
		}
	}
	return result, nil
}

func (s *LedgerService) printSale(ctx context.Context, rec *models.SaleRecord, result *SaleResult) error {
	receipt := printing.Receipt{
		Venue:         s.VenueName,
		Title:         printing.TitleDigital,
		TicketType:    result.TicketTypeName,
		Price:         rec.UnitPrice,
		IncludesDrink: rec.IncludesDrink,
		ControlCode:   result.ControlCode,
		IssuedAt:      rec.SoldAt,
	}
	if rec.EventID != nil {
		if ev, err := s.DB.GetEvent(ctx, *rec.EventID); err == nil {
			receipt.EventName = ev.Name
		}
	}

	job := printing.NewJob(fmt.Sprintf("sale-%d", rec.ID), rec.Quantity, receipt.ESCPOS())
	if err := s.Printer.Print(ctx, job); err != nil {
		return err
	}
	s.Logger.LogPrint(job.Reference, fmt.Sprintf("%d copies sent", job.Copies))
	return nil
}

// GetEventTotals sums the live rows of an event. An unknown event yields
// zero totals and no occupancy.
func (s *LedgerService) GetEventTotals(ctx context.Context, eventID int64) (*EventTotals, error) {
	totals := &EventTotals{
		EventID:      eventID,
		ByTicketType: map[int64]int{},
		Lines:        []models.RunningTotal{},
		TotalRevenue: decimal.Zero,
	}

	ev, err := s.DB.GetEvent(ctx, eventID)
	if errors.Is(err, apperrors.ErrEventNotFound) {
		return totals, nil
	}
	if err != nil {
		return nil, err
	}
	totals.EventName = ev.Name
	totals.Capacity = ev.Capacity
	totals.Active = ev.Active

	lines, err := s.DB.EventTotals(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sold, amount, _ := ledger.Summarize(lines)

	totals.Lines = lines
	for _, l := range lines {
		totals.ByTicketType[l.TicketTypeID] += l.Quantity
	}
	totals.TotalSold = sold
	totals.TotalRevenue = amount
	totals.OccupancyPercent = ledger.Occupancy(sold, ev.Capacity)
	totals.OccupancyDisplay = ledger.DisplayOccupancy(totals.OccupancyPercent)
	return totals, nil
}

func (s *LedgerService) ListRunningTotals(ctx context.Context) ([]models.RunningTotal, error) {
	return s.DB.RunningTotals(ctx)
}

// CloseEvent archives and clears an event. Closing twice is rejected.
func (s *LedgerService) CloseEvent(ctx context.Context, eventID int64, closedBy string) (*models.EventCloseSnapshot, error) {
	snap, err := s.DB.CloseEvent(ctx, eventID, closedBy, s.Prices.Now())
	if err != nil {
		return nil, err
	}

	s.Logger.LogClose(eventID, fmt.Sprintf("snapshot #%d: %d sold, %s collected, occupancy %s",
		snap.ID, snap.TotalSold, snap.TotalAmount.StringFixed(2), occupancyLabel(snap.OccupancyPercent)))

	s.publish(ctx, s.Topics.EventClosed, strconv.FormatInt(eventID, 10), snap)
	if s.Live != nil {
		s.Live.Emit(sse.TotalsUpdate{EventID: eventID, Kind: "closed", Totals: snap})
	}
	return snap, nil
}

func (s *LedgerService) ListSnapshots(ctx context.Context) ([]models.EventCloseSnapshot, error) {
	return s.DB.ListSnapshots(ctx)
}

func (s *LedgerService) GetSnapshot(ctx context.Context, id int64) (*models.EventCloseSnapshot, error) {
	return s.DB.GetSnapshot(ctx, id)
}

// EntryQR renders the digital entry QR of a sale.
func (s *LedgerService) EntryQR(ctx context.Context, saleID int64, size int) ([]byte, error) {
	rec, err := s.DB.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if rec.Operation != models.OperationSale {
		return nil, fmt.Errorf("%w: corrections have no entry", apperrors.ErrInvalidInput)
	}
	return s.QR.PNG(entryFor(rec), size)
}

// VerifyEntry decrypts a scanned token and checks the sale is still live.
func (s *LedgerService) VerifyEntry(ctx context.Context, token string) (*qr.Entry, error) {
	entry, err := s.QR.Decrypt(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if _, err := s.DB.GetSale(ctx, entry.SaleID); err != nil {
		return nil, err
	}
	return entry, nil
}

func entryFor(rec *models.SaleRecord) qr.Entry {
	return qr.Entry{
		SaleID:       rec.ID,
		EventID:      rec.EventID,
		TicketTypeID: rec.TicketTypeID,
		Quantity:     rec.Quantity,
		ControlCode:  utils.ControlCode(rec.ID, rec.SoldAt),
		IssuedAt:     rec.SoldAt,
	}
}

func (s *LedgerService) publish(ctx context.Context, topic, key string, v interface{}) {
	if s.Events == nil || topic == "" {
		return
	}
	if err := s.Events.PublishJSON(ctx, topic, key, v); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("publish %s/%s failed: %v", topic, key, err))
	}
}

func (s *LedgerService) broadcastTotals(ctx context.Context, eventID int64, kind string) {
	if s.Live == nil {
		return
	}
	totals, err := s.GetEventTotals(ctx, eventID)
	if err != nil {
		s.Logger.Warn("SSE", fmt.Sprintf("totals for event %d: %v", eventID, err))
		return
	}
	s.Live.Emit(sse.TotalsUpdate{EventID: eventID, Kind: kind, Totals: totals})
}

func occupancyLabel(o decimal.NullDecimal) string {
	if !o.Valid {
		return "n/a"
	}
	return o.Decimal.StringFixed(2) + "%"
}
