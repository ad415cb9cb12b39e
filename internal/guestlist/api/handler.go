package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/guestlist"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	Service  *guestlist.Service
	Logger   *logger.Logger
	Validate *validator.Validate
}

func NewHandler(svc *guestlist.Service, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log, Validate: validator.New()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/guestlists", func(r chi.Router) {
		r.Get("/", h.ListPromoters)
		r.Post("/print", h.PrintComplimentary)
		r.Post("/guests", h.AddGuest)
		r.Put("/guests/{guestId}", h.UpdateGuest)
		r.Delete("/guests/{guestId}", h.DeleteGuest)
		r.Post("/guests/{guestId}/check-in", h.CheckIn)
		r.Post("/guests/{guestId}/print", h.PrintGuestTicket)
	})
}

func guestID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "guestId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid guest id", apperrors.ErrInvalidInput)
	}
	return id, nil
}

func (h *Handler) ListPromoters(w http.ResponseWriter, r *http.Request) {
	var eventID *int64
	if s := r.URL.Query().Get("event_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			utils.WriteError(w, "Invalid event", fmt.Errorf("%w: event_id", apperrors.ErrInvalidInput))
			return
		}
		eventID = &id
	}
	users, err := h.Service.ListPromoters(r.Context(), eventID)
	if err != nil {
		utils.WriteError(w, "Could not load guest lists", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Guest lists", users))
}

func (h *Handler) AddGuest(w http.ResponseWriter, r *http.Request) {
	var req guestlist.GuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		utils.WriteError(w, "Invalid guest", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	g, err := h.Service.AddGuest(r.Context(), req)
	if err != nil {
		utils.WriteError(w, "Could not add guest", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Guest added", g))
}

func (h *Handler) UpdateGuest(w http.ResponseWriter, r *http.Request) {
	id, err := guestID(r)
	if err != nil {
		utils.WriteError(w, "Invalid guest", err)
		return
	}
	var req guestlist.GuestUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	g, err := h.Service.UpdateGuest(r.Context(), id, req)
	if err != nil {
		utils.WriteError(w, "Could not update guest", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Guest updated", g))
}

func (h *Handler) DeleteGuest(w http.ResponseWriter, r *http.Request) {
	id, err := guestID(r)
	if err != nil {
		utils.WriteError(w, "Invalid guest", err)
		return
	}
	if err := h.Service.DeleteGuest(r.Context(), id); err != nil {
		utils.WriteError(w, "Could not delete guest", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := guestID(r)
	if err != nil {
		utils.WriteError(w, "Invalid guest", err)
		return
	}
	if err := h.Service.CheckIn(r.Context(), id); err != nil {
		utils.WriteError(w, "Could not check in guest", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Guest checked in", nil))
}

func (h *Handler) PrintGuestTicket(w http.ResponseWriter, r *http.Request) {
	id, err := guestID(r)
	if err != nil {
		utils.WriteError(w, "Invalid guest", err)
		return
	}
	res, err := h.Service.PrintGuestTicket(r.Context(), id)
	if err != nil {
		utils.WriteError(w, "Could not print ticket", err)
		return
	}
	writePrintResult(w, res)
}

func (h *Handler) PrintComplimentary(w http.ResponseWriter, r *http.Request) {
	var body struct {
		List string `json:"list"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	writePrintResult(w, h.Service.PrintComplimentary(r.Context(), body.List, body.Name))
}

func writePrintResult(w http.ResponseWriter, res *guestlist.PrintResult) {
	resp := utils.SuccessResponse("Complimentary ticket sent to the printer", res)
	if !res.Printed {
		resp.Message = "Complimentary ticket not printed"
		resp.Warning = res.Warning
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}
