package catalog_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/auth"
	"ms-boxoffice/internal/catalog/service"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type CatalogService interface {
	ListEvents(ctx context.Context, mode string) ([]models.Event, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	CreateEvent(ctx context.Context, req service.EventRequest) (*models.Event, error)
	UpdateEvent(ctx context.Context, id int64, req service.EventUpdate) (*models.Event, error)
	DeactivateEvent(ctx context.Context, id int64) error

	ListTicketTypes(ctx context.Context, activeOnly bool) ([]service.TicketTypeView, error)
	GetTicketType(ctx context.Context, id int64) (*service.TicketTypeView, error)
	CreateTicketType(ctx context.Context, req service.TicketTypeRequest) (*service.TicketTypeView, error)
	UpdateTicketType(ctx context.Context, id int64, req service.TicketTypeRequest) (*service.TicketTypeView, error)
	DeactivateTicketType(ctx context.Context, id int64) error
	DeleteTicketType(ctx context.Context, id int64) error
}

type Handler struct {
	Service    CatalogService
	Logger     *logger.Logger
	Validate   *validator.Validate
	WriteRoles []string
}

func NewHandler(svc CatalogService, log *logger.Logger, writeRoles []string) *Handler {
	return &Handler{Service: svc, Logger: log, Validate: validator.New(), WriteRoles: writeRoles}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Get("/{eventId}", h.GetEvent)
		r.Group(func(r chi.Router) {
			if len(h.WriteRoles) > 0 {
				r.Use(auth.RequireRole(h.WriteRoles...))
			}
			r.Post("/", h.CreateEvent)
			r.Put("/{eventId}", h.UpdateEvent)
			r.Delete("/{eventId}", h.DeactivateEvent)
		})
	})
	r.Route("/api/ticket-types", func(r chi.Router) {
		r.Get("/", h.ListTicketTypes)
		r.Get("/{ticketTypeId}", h.GetTicketType)
		r.Group(func(r chi.Router) {
			if len(h.WriteRoles) > 0 {
				r.Use(auth.RequireRole(h.WriteRoles...))
			}
			r.Post("/", h.CreateTicketType)
			r.Put("/{ticketTypeId}", h.UpdateTicketType)
			r.Post("/{ticketTypeId}/deactivate", h.DeactivateTicketType)
			r.Delete("/{ticketTypeId}", h.DeleteTicketType)
		})
	})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", apperrors.ErrInvalidInput, name)
	}
	return id, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return nil
}

// listMode reads ?mode=, keeping the older ?upcoming=1 and ?calendar=1 flags.
func listMode(r *http.Request) string {
	q := r.URL.Query()
	switch {
	case q.Get("upcoming") == "1":
		return service.ListUpcoming
	case q.Get("calendar") == "1":
		return service.ListCalendar
	case q.Get("active") == "1":
		return service.ListActive
	}
	return q.Get("mode")
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.ListEvents(r.Context(), listMode(r))
	if err != nil {
		utils.WriteError(w, "Could not list events", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Events", events))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventId")
	if err != nil {
		utils.WriteError(w, "Invalid event", err)
		return
	}
	ev, err := h.Service.GetEvent(r.Context(), id)
	if err != nil {
		utils.WriteError(w, "Could not load event", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event", ev))
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req service.EventRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		utils.WriteError(w, "Invalid event", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	ev, err := h.Service.CreateEvent(r.Context(), req)
	if err != nil {
		utils.WriteError(w, "Could not create event", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Event created", ev))
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventId")
	if err != nil {
		utils.WriteError(w, "Invalid event", err)
		return
	}
	var req service.EventUpdate
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	ev, err := h.Service.UpdateEvent(r.Context(), id, req)
	if err != nil {
		utils.WriteError(w, "Could not update event", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event updated", ev))
}

func (h *Handler) DeactivateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventId")
	if err != nil {
		utils.WriteError(w, "Invalid event", err)
		return
	}
	if err := h.Service.DeactivateEvent(r.Context(), id); err != nil {
		utils.WriteError(w, "Could not deactivate event", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event deactivated", nil))
}

func (h *Handler) ListTicketTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.ListTicketTypes(r.Context(), r.URL.Query().Get("active") == "1")
	if err != nil {
		utils.WriteError(w, "Could not list ticket types", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket types", types))
}

func (h *Handler) GetTicketType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "ticketTypeId")
	if err != nil {
		utils.WriteError(w, "Invalid ticket type", err)
		return
	}
	tt, err := h.Service.GetTicketType(r.Context(), id)
	if err != nil {
		utils.WriteError(w, "Could not load ticket type", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket type", tt))
}

func (h *Handler) CreateTicketType(w http.ResponseWriter, r *http.Request) {
	var req service.TicketTypeRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	tt, err := h.Service.CreateTicketType(r.Context(), req)
	if err != nil {
		utils.WriteError(w, "Could not create ticket type", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Ticket type created", tt))
}

func (h *Handler) UpdateTicketType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "ticketTypeId")
	if err != nil {
		utils.WriteError(w, "Invalid ticket type", err)
		return
	}
	var req service.TicketTypeRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	tt, err := h.Service.UpdateTicketType(r.Context(), id, req)
	if err != nil {
		utils.WriteError(w, "Could not update ticket type", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket type updated", tt))
}

func (h *Handler) DeactivateTicketType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "ticketTypeId")
	if err != nil {
		utils.WriteError(w, "Invalid ticket type", err)
		return
	}
	if err := h.Service.DeactivateTicketType(r.Context(), id); err != nil {
		utils.WriteError(w, "Could not deactivate ticket type", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket type deactivated", nil))
}

func (h *Handler) DeleteTicketType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "ticketTypeId")
	if err != nil {
		utils.WriteError(w, "Invalid ticket type", err)
		return
	}
	if err := h.Service.DeleteTicketType(r.Context(), id); err != nil {
		utils.WriteError(w, "Could not delete ticket type", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
