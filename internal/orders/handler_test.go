package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo Repository) chi.Router {
	handler := NewHandler(slog.Default(), newTestService(repo))
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func TestHandlerCreateOrder(t *testing.T) {
	router := newTestRouter(newMockRepository())

	body := `{"client_id":7,"order_date":"2024-06-01T00:00:00Z","lines":[{"item_id":1,"quantity":2},{"item_id":2,"quantity":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	var payload struct {
		Order Order `json:"order"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Equal(t, "P240601-001", payload.Order.ProformaNumber)
	assert.Equal(t, int64(2500), payload.Total)
}

func TestHandlerCreateValidation(t *testing.T) {
	router := newTestRouter(newMockRepository())

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"client_id":7,"lines":[]}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestHandlerLockedOrderConflict(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID:  7,
		OrderDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Lines:     []CreateLineReq{{ItemID: 1, Quantity: 1}},
	}, 42)
	require.NoError(t, err)
	repo.orders[order.ID].Status = StatusPaid

	req := httptest.NewRequest(http.MethodDelete, "/orders/1", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusConflict, res.Code, res.Body.String())
}

func TestHandlerShowUnknownOrder(t *testing.T) {
	router := newTestRouter(newMockRepository())

	req := httptest.NewRequest(http.MethodGet, "/orders/999", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusNotFound, res.Code)
}
