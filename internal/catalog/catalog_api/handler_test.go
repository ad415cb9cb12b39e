package catalog_api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ms-boxoffice/internal/auth"
	"ms-boxoffice/internal/catalog/db"
	"ms-boxoffice/internal/catalog/service"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/pricing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setupRouter(t *testing.T, role string, now time.Time) (http.Handler, *bun.DB) {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })
	for _, m := range []interface{}{(*models.Event)(nil), (*models.TicketType)(nil), (*models.SaleRecord)(nil)} {
		_, err := bunDB.NewCreateTable().Model(m).Exec(context.Background())
		require.NoError(t, err)
	}

	venue := config.VenueConfig{UpcomingCount: 5, UpcomingCapacity: 800, UpcomingHour: 23}
	prices := pricing.NewResolver(pricing.Fake(now), time.UTC, true)
	svc := service.NewCatalogService(&db.DB{Bun: bunDB}, prices, logger.NewNop(), venue)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.WithIdentity(req.Context(), &auth.Identity{Subject: "u", Role: role})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(svc, logger.NewNop(), []string{models.RoleOwner}).RegisterRoutes(r)
	return r, bunDB
}

func call(h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestEventEndpoints(t *testing.T) {
	h, _ := setupRouter(t, models.RoleOwner, time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC))

	w, env := call(h, http.MethodPost, "/api/events", `{"name":"Aniversario","date":"2025-03-14T23:00:00Z","capacity":300}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ev models.Event
	require.NoError(t, json.Unmarshal(env.Data, &ev))
	assert.True(t, ev.Active)

	w, _ = call(h, http.MethodPost, "/api/events", `{"name":"Otro","date":"2025-03-14T23:00:00Z","capacity":300}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = call(h, http.MethodPost, "/api/events", `{"name":"Cero","date":"2025-03-20T23:00:00Z","capacity":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(h, http.MethodPut, "/api/events/1", `{"capacity":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(h, http.MethodDelete, "/api/events/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = call(h, http.MethodGet, "/api/events?active=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	w, _ = call(h, http.MethodGet, "/api/events/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpcomingCreatesSaturdays(t *testing.T) {
	h, bunDB := setupRouter(t, models.RoleOwner, time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC))

	w, env := call(h, http.MethodGet, "/api/events?upcoming=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var events []models.Event
	require.NoError(t, json.Unmarshal(env.Data, &events))
	require.Len(t, events, 5)
	assert.True(t, events[0].Date.Equal(time.Date(2025, 3, 8, 23, 0, 0, 0, time.UTC)))

	call(h, http.MethodGet, "/api/events?mode=upcoming", "")
	count, err := bunDB.NewSelect().Model((*models.Event)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	w, env = call(h, http.MethodGet, "/api/events?calendar=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &events))
	assert.Len(t, events, 5)
}

func TestTicketTypeEndpoints(t *testing.T) {
	h, bunDB := setupRouter(t, models.RoleOwner, time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC))

	w, env := call(h, http.MethodPost, "/api/ticket-types",
		`{"name":"General","base_price":"1000","auto_switch":true,"switch_start":"23:00","switch_end":"01:00","override_price":"1500"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view service.TicketTypeView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.True(t, decimal.NewFromInt(1500).Equal(view.EffectivePrice))

	w, _ = call(h, http.MethodPost, "/api/ticket-types", `{"name":"Roto","base_price":"100","auto_switch":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = call(h, http.MethodPut, "/api/ticket-types/1", `{"auto_switch":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.True(t, decimal.NewFromInt(1000).Equal(view.EffectivePrice))

	_, err := bunDB.NewInsert().Model(&models.SaleRecord{
		TicketTypeID: view.ID, Operation: models.OperationSale, Quantity: 1,
		UnitPrice: decimal.NewFromInt(1000), Total: decimal.NewFromInt(1000), SoldAt: time.Now().UTC(),
	}).Exec(context.Background())
	require.NoError(t, err)

	w, _ = call(h, http.MethodDelete, "/api/ticket-types/1", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = call(h, http.MethodPost, "/api/ticket-types/1/deactivate", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCatalogWritesNeedOwner(t *testing.T) {
	h, _ := setupRouter(t, models.RolePromoter, time.Now())

	w, _ := call(h, http.MethodPost, "/api/ticket-types", `{"name":"General","base_price":"1000"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = call(h, http.MethodGet, "/api/ticket-types", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
