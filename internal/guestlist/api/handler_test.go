package api

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ms-boxoffice/internal/guestlist"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/pricing"
	"ms-boxoffice/internal/printing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type MockPrinter struct {
	mock.Mock
}

func (m *MockPrinter) Print(ctx context.Context, job printing.Job) error {
	return m.Called(job).Error(0)
}

func setupRouter(t *testing.T, printer printing.Printer) http.Handler {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	for _, m := range []interface{}{(*models.Role)(nil), (*models.User)(nil), (*models.Guest)(nil)} {
		_, err := bunDB.NewCreateTable().Model(m).Exec(ctx)
		require.NoError(t, err)
	}
	role := &models.Role{Name: models.RolePromoter}
	_, err = bunDB.NewInsert().Model(role).Exec(ctx)
	require.NoError(t, err)
	_, err = bunDB.NewInsert().Model(&models.User{Name: "Lista Juan", RoleID: role.ID}).Exec(ctx)
	require.NoError(t, err)

	clock := pricing.Fake(time.Date(2025, 3, 1, 23, 45, 0, 0, time.UTC))
	svc := guestlist.NewService(&guestlist.DB{Bun: bunDB}, printer, clock, logger.NewNop(), "SANTAS")
	r := chi.NewRouter()
	NewHandler(svc, logger.NewNop()).RegisterRoutes(r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGuestEndpoints(t *testing.T) {
	printer := new(MockPrinter)
	printer.On("Print", mock.Anything).Return(nil)
	r := setupRouter(t, printer)

	rec := do(r, http.MethodPost, "/api/guestlists/guests", `{"user_id":1,"name":"Ana"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/guestlists/guests", `{"name":"Ana"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/guestlists/guests", `{"user_id":9,"name":"Ana"}`).Code)

	rec = do(r, http.MethodGet, "/api/guestlists/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Ana"`)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/api/guestlists/guests/1", `{"phone":"351"}`).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/guestlists/guests/1/check-in", "").Code)

	rec = do(r, http.MethodPost, "/api/guestlists/guests/1/print", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Entrada Gratis - Lista Juan / Ana")

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/guestlists/guests/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/guestlists/guests/1", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodDelete, "/api/guestlists/guests/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/guestlists/?event_id=x", "").Code)
}

func TestPrintComplimentaryWarning(t *testing.T) {
	r := setupRouter(t, nil)

	rec := do(r, http.MethodPost, "/api/guestlists/print", `{"list":"VIP","name":"Ana"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"warning"`)
	assert.Contains(t, rec.Body.String(), "Complimentary ticket not printed")
}
