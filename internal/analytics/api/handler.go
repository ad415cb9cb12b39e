package analytics_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ms-boxoffice/internal/analytics"
	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
)

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service     *analytics.Service
	Logger      *logger.Logger
	RedisClient *redis.Client
	CacheTTL    time.Duration
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: logger}
}

// NewHandlerWithRedis creates a new analytics handler that caches the
// dashboard in Redis for ttl
func NewHandlerWithRedis(service *analytics.Service, logger *logger.Logger, redisClient *redis.Client, ttl time.Duration) *Handler {
	return &Handler{Service: service, Logger: logger, RedisClient: redisClient, CacheTTL: ttl}
}

// RegisterRoutes registers the analytics routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/closures", h.GetClosures)
	})
}

func dashboardCacheKey(q analytics.DashboardQuery) string {
	return fmt.Sprintf("dashboard:%s:%s:%d", q.Month, q.Day, q.LimitUpcoming)
}

// GetDashboard returns the owner's home screen figures
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := analytics.DashboardQuery{Month: query.Get("month"), Day: query.Get("day")}
	if s := query.Get("limitUpcoming"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			utils.WriteError(w, "Invalid limitUpcoming", fmt.Errorf("%w: limitUpcoming must be a positive integer", apperrors.ErrInvalidInput))
			return
		}
		q.LimitUpcoming = n
	}

	key := dashboardCacheKey(q)
	if cached, ok := h.cached(r.Context(), key); ok {
		w.Header().Set("X-Cache", "HIT")
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Dashboard", cached))
		return
	}

	dashboard, err := h.Service.Dashboard(r.Context(), q)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("dashboard failed: %v", err))
		utils.WriteError(w, "Could not build dashboard", err)
		return
	}
	h.store(r.Context(), key, dashboard)
	w.Header().Set("X-Cache", "MISS")
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Dashboard", dashboard))
}

// GetClosures lists archived closes, optionally for one month
func (h *Handler) GetClosures(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.Service.ClosureHistory(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		utils.WriteError(w, "Could not load closures", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Closures", snaps))
}

func (h *Handler) cached(ctx context.Context, key string) (json.RawMessage, bool) {
	if h.RedisClient == nil {
		return nil, false
	}
	raw, err := h.RedisClient.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		h.Logger.Warn("ANALYTICS", fmt.Sprintf("cache read %s: %v", key, err))
		return nil, false
	}
	return json.RawMessage(raw), true
}

func (h *Handler) store(ctx context.Context, key string, dashboard *analytics.Dashboard) {
	if h.RedisClient == nil || h.CacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(dashboard)
	if err != nil {
		return
	}
	if err := h.RedisClient.Set(ctx, key, raw, h.CacheTTL).Err(); err != nil {
		h.Logger.Warn("ANALYTICS", fmt.Sprintf("cache write %s: %v", key, err))
	}
}
