package presale_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/presale/service"
	"ms-boxoffice/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPresaleService struct {
	mock.Mock
}

func (m *MockPresaleService) Create(ctx context.Context, req service.PresaleRequest) (*service.PresaleView, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PresaleView), args.Error(1)
}

func (m *MockPresaleService) List(ctx context.Context) ([]service.PresaleView, error) {
	args := m.Called()
	return args.Get(0).([]service.PresaleView), args.Error(1)
}

func (m *MockPresaleService) Print(ctx context.Context, id int64) (*service.PrintResult, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PrintResult), args.Error(1)
}

func setupRouter(svc *MockPresaleService) chi.Router {
	r := chi.NewRouter()
	NewHandler(svc, logger.NewNop()).RegisterRoutes(r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCreatePresale(t *testing.T) {
	svc := new(MockPresaleService)
	svc.On("Create", mock.MatchedBy(func(req service.PresaleRequest) bool {
		return req.Name == "Ana" && req.TicketTypeID == 2 && req.Quantity == 2
	})).Return(&service.PresaleView{ID: 1, Name: "Ana", TicketTypeName: "VIP", Quantity: 2}, nil)
	r := setupRouter(svc)

	w := do(r, http.MethodPost, "/api/presales/", `{"name":"Ana","ticket_type_id":2,"quantity":2}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"ticket_type_name":"VIP"`)
}

func TestCreatePresaleRejectsBadInput(t *testing.T) {
	svc := new(MockPresaleService)
	svc.On("Create", mock.Anything).Return(nil, apperrors.ErrTicketTypeNotFound)
	r := setupRouter(svc)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/presales/", `{"ticket_type_id":2}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/presales/", `{"name":"Ana"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/presales/", `not json`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/presales/", `{"name":"Ana","ticket_type_id":9}`).Code)
}

func TestListPresales(t *testing.T) {
	svc := new(MockPresaleService)
	svc.On("List").Return([]service.PresaleView{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Beto"}}, nil)

	w := do(setupRouter(svc), http.MethodGet, "/api/presales/", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}

func TestPrintPresale(t *testing.T) {
	svc := new(MockPresaleService)
	svc.On("Print", int64(1)).Return(&service.PrintResult{PresaleID: 1, Printed: true, Copies: 2}, nil)
	svc.On("Print", int64(2)).Return(&service.PrintResult{PresaleID: 2, Warning: "presale kept, tickets were not printed: paper out"}, nil)
	svc.On("Print", int64(3)).Return(nil, apperrors.ErrPresaleNotFound)
	r := setupRouter(svc)

	w := do(r, http.MethodPost, "/api/presales/1/print", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Presale printed and removed from the list")

	w = do(r, http.MethodPost, "/api/presales/2/print", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "paper out")

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/presales/3/print", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/presales/abc/print", "").Code)
}
