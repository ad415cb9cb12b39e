package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/staff"
	"ms-boxoffice/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	Service  *staff.Service
	Logger   *logger.Logger
	Validate *validator.Validate
}

func NewHandler(svc *staff.Service, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log, Validate: validator.New()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/roles", h.ListRoles)
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Put("/{userId}", h.UpdateUser)
		r.Delete("/{userId}", h.DeleteUser)
	})
}

func userID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid user id", apperrors.ErrInvalidInput)
	}
	return id, nil
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.ListRoles(r.Context())
	if err != nil {
		utils.WriteError(w, "Could not load roles", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Roles", roles))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		utils.WriteError(w, "Could not load users", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Users", users))
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req staff.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		utils.WriteError(w, "Invalid user", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	u, err := h.Service.CreateUser(r.Context(), req)
	if err != nil {
		utils.WriteError(w, "Could not create user", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("User created", u))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		utils.WriteError(w, "Invalid user", err)
		return
	}
	var req staff.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		utils.WriteError(w, "Invalid user", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	u, err := h.Service.UpdateUser(r.Context(), id, req)
	if err != nil {
		utils.WriteError(w, "Could not update user", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("User updated", u))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		utils.WriteError(w, "Invalid user", err)
		return
	}
	if err := h.Service.DeleteUser(r.Context(), id); err != nil {
		utils.WriteError(w, "Could not delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
