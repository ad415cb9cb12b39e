package ledger_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/auth"
	idem "ms-boxoffice/internal/ledger/redis"
	"ms-boxoffice/internal/ledger/service"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/printing/qr"
	"ms-boxoffice/internal/sse"
	"ms-boxoffice/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type LedgerService interface {
	RecordSale(ctx context.Context, req service.SaleRequest) (*service.SaleResult, error)
	GetEventTotals(ctx context.Context, eventID int64) (*service.EventTotals, error)
	ListRunningTotals(ctx context.Context) ([]models.RunningTotal, error)
	CloseEvent(ctx context.Context, eventID int64, closedBy string) (*models.EventCloseSnapshot, error)
	ListSnapshots(ctx context.Context) ([]models.EventCloseSnapshot, error)
	GetSnapshot(ctx context.Context, id int64) (*models.EventCloseSnapshot, error)
	EntryQR(ctx context.Context, saleID int64, size int) ([]byte, error)
	VerifyEntry(ctx context.Context, token string) (*qr.Entry, error)
}

// IdempotencyStore backs the Idempotency-Key header on sale requests.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (idem.Status, []byte, error)
	Complete(ctx context.Context, key string, response interface{}) error
	Release(ctx context.Context, key string) error
}

type Handler struct {
	Service     LedgerService
	Idempotency IdempotencyStore
	Emitter     *sse.TotalsEmitter
	Logger      *logger.Logger
	Validate    *validator.Validate
	CloseRoles  []string
}

func NewHandler(svc LedgerService, store IdempotencyStore, emitter *sse.TotalsEmitter, log *logger.Logger, closeRoles []string) *Handler {
	return &Handler{
		Service:     svc,
		Idempotency: store,
		Emitter:     emitter,
		Logger:      log,
		Validate:    validator.New(),
		CloseRoles:  closeRoles,
	}
}

// RegisterRoutes mounts the ledger endpoints under /api/ledger.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/ledger", func(r chi.Router) {
		r.Post("/sales", h.RecordSale)
		r.Get("/sales/{saleId}/qr", h.EntryQR)
		r.Post("/entries/verify", h.VerifyEntry)
		r.Get("/totals", h.ListRunningTotals)
		r.Get("/events/{eventId}/totals", h.GetEventTotals)
		r.Get("/events/{eventId}/stream", h.StreamTotals)
		if len(h.CloseRoles) > 0 {
			r.With(auth.RequireRole(h.CloseRoles...)).Post("/events/{eventId}/close", h.CloseEvent)
		} else {
			r.Post("/events/{eventId}/close", h.CloseEvent)
		}
		r.Get("/closures", h.ListSnapshots)
		r.Get("/closures/{closureId}", h.GetSnapshot)
	})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", apperrors.ErrInvalidInput, name)
	}
	return id, nil
}

func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req service.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		utils.WriteError(w, "Invalid sale", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	req.RecordedBy = auth.UserID(r.Context())

	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.Idempotency != nil {
		if !utils.ValidIdempotencyKey(key) {
			utils.WriteError(w, "Invalid Idempotency-Key", fmt.Errorf("%w: malformed idempotency key", apperrors.ErrInvalidInput))
			return
		}
		status, body, err := h.Idempotency.Reserve(r.Context(), key)
		if err != nil {
			// without redis the sale still goes through, just without replay
			h.Logger.Warn("REDIS", fmt.Sprintf("reserve %s: %v", key, err))
			key = ""
		} else {
			switch status {
			case idem.InFlight:
				utils.WriteError(w, "Duplicate request", apperrors.ErrDuplicateRequest)
				return
			case idem.Replay:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replay", "true")
				w.WriteHeader(http.StatusCreated)
				w.Write(body)
				return
			}
		}
	} else {
		key = ""
	}

	result, err := h.Service.RecordSale(r.Context(), req)
	if err != nil {
		if key != "" {
			_ = h.Idempotency.Release(r.Context(), key)
		}
		h.Logger.Warn("API", fmt.Sprintf("RecordSale: %v", err))
		utils.WriteError(w, "Could not record sale", err)
		return
	}

	resp := utils.SuccessResponse("Sale recorded", result)
	resp.Warning = result.PrintWarning
	if key != "" {
		if err := h.Idempotency.Complete(r.Context(), key, resp); err != nil {
			// key stays pending until its TTL expires
			h.Logger.Warn("REDIS", fmt.Sprintf("complete %s: %v", key, err))
		}
	}
	utils.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ListRunningTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Service.ListRunningTotals(r.Context())
	if err != nil {
		utils.WriteError(w, "Could not load totals", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Running totals", totals))
}

func (h *Handler) GetEventTotals(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		utils.WriteError(w, "Invalid event", err)
		return
	}
	totals, err := h.Service.GetEventTotals(r.Context(), eventID)
	if err != nil {
		utils.WriteError(w, "Could not load totals", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event totals", totals))
}

func (h *Handler) CloseEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		utils.WriteError(w, "Invalid event", err)
		return
	}
	snap, err := h.Service.CloseEvent(r.Context(), eventID, auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CloseEvent %d: %v", eventID, err))
		utils.WriteError(w, "Could not close event", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event closed", snap))
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.Service.ListSnapshots(r.Context())
	if err != nil {
		utils.WriteError(w, "Could not load closures", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Closures", snaps))
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "closureId")
	if err != nil {
		utils.WriteError(w, "Invalid closure", err)
		return
	}
	snap, err := h.Service.GetSnapshot(r.Context(), id)
	if err != nil {
		utils.WriteError(w, "Could not load closure", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Closure", snap))
}

func (h *Handler) EntryQR(w http.ResponseWriter, r *http.Request) {
	saleID, err := pathID(r, "saleId")
	if err != nil {
		utils.WriteError(w, "Invalid sale", err)
		return
	}
	size := 256
	if s := r.URL.Query().Get("size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 64 && n <= 1024 {
			size = n
		}
	}
	png, err := h.Service.EntryQR(r.Context(), saleID, size)
	if err != nil {
		utils.WriteError(w, "Could not render QR", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

func (h *Handler) VerifyEntry(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	if err := h.Validate.Struct(body); err != nil {
		utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: token is required", apperrors.ErrInvalidInput))
		return
	}
	entry, err := h.Service.VerifyEntry(r.Context(), body.Token)
	if err != nil {
		h.Logger.LogSecurity("ENTRY_REJECTED", err.Error())
		utils.WriteError(w, "Entry rejected", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Entry valid", entry))
}
