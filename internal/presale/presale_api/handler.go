package presale_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/presale/service"
	"ms-boxoffice/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type PresaleService interface {
	Create(ctx context.Context, req service.PresaleRequest) (*service.PresaleView, error)
	List(ctx context.Context) ([]service.PresaleView, error)
	Print(ctx context.Context, id int64) (*service.PrintResult, error)
}

type Handler struct {
	Service  PresaleService
	Logger   *logger.Logger
	Validate *validator.Validate
}

func NewHandler(svc PresaleService, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log, Validate: validator.New()}
}

// RegisterRoutes mounts the presale endpoints under /api/presales.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/presales", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/{presaleId}/print", h.Print)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	presales, err := h.Service.List(r.Context())
	if err != nil {
		utils.WriteError(w, "Could not load presales", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Presales", presales))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.PresaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		utils.WriteError(w, "Invalid presale", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	p, err := h.Service.Create(r.Context(), req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreatePresale: %v", err))
		utils.WriteError(w, "Could not register presale", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Presale registered", p))
}

func (h *Handler) Print(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "presaleId"), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, "Invalid presale", fmt.Errorf("%w: invalid presale id", apperrors.ErrInvalidInput))
		return
	}
	res, err := h.Service.Print(r.Context(), id)
	if err != nil {
		utils.WriteError(w, "Could not print presale", err)
		return
	}
	resp := utils.SuccessResponse("Presale printed and removed from the list", res)
	if !res.Printed {
		resp.Message = "Presale not printed"
		resp.Warning = res.Warning
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}
