package listorders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corray333/storefront/order/internal/service/apperr"
	"github.com/corray333/storefront/order/internal/service/models/order"
	"github.com/corray333/storefront/order/internal/service/models/orderitem"
	"github.com/corray333/storefront/order/pkg/http/middleware/auth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ListOrders(ctx context.Context, userID uuid.UUID, page int, pageSize int) ([]order.Order, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func TestListOrders_Paging(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
	}{
		{name: "defaults", query: "", wantPage: 1, wantPageSize: 20},
		{name: "explicit", query: "?page=3&page_size=10", wantPage: 3, wantPageSize: 10},
		{name: "page size clamped", query: "?page_size=500", wantPage: 1, wantPageSize: 100},
		{name: "negative page", query: "?page=-2", wantPage: 1, wantPageSize: 20},
		{name: "unknown keys ignored", query: "?sort=asc", wantPage: 1, wantPageSize: 20},
		{name: "last allowed page", query: "?page=100000&page_size=100", wantPage: 100000, wantPageSize: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID := uuid.New()
			svc := &mockService{}
			svc.On("ListOrders", mock.Anything, userID, tt.wantPage, tt.wantPageSize).Return([]order.Order{}, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/orders"+tt.query, nil)
			req = req.WithContext(auth.WithUserID(req.Context(), userID))
			rec := httptest.NewRecorder()

			ListOrders(rec, req, svc)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"orders":[]}`, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestListOrders_RendersOrders(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()

	svc := &mockService{}
	svc.On("ListOrders", mock.Anything, userID, 1, 20).Return([]order.Order{{
		ID:          orderID,
		UserID:      userID,
		TotalAmount: decimal.RequireFromString("2500.00"),
		Status:      order.StatusPending,
		OrderItems: []orderitem.OrderItem{
			{ID: uuid.New(), OrderID: orderID, Quantity: 2, PriceAtTime: decimal.NewFromInt(1000)},
		},
	}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()

	ListOrders(rec, req, svc)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Orders []struct {
			ID          uuid.UUID `json:"id"`
			TotalAmount float64   `json:"total_amount"`
			Status      string    `json:"status"`
			Items       []struct {
				Quantity    int     `json:"quantity"`
				PriceAtTime float64 `json:"price_at_time"`
			} `json:"items"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Orders, 1)
	assert.Equal(t, orderID, body.Orders[0].ID)
	assert.Equal(t, 2500.0, body.Orders[0].TotalAmount)
	assert.Equal(t, "pending", body.Orders[0].Status)
	require.Len(t, body.Orders[0].Items, 1)
	assert.Equal(t, 1000.0, body.Orders[0].Items[0].PriceAtTime)
}

func TestListOrders_Errors(t *testing.T) {
	t.Run("bad page", func(t *testing.T) {
		svc := &mockService{}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?page=first", nil)
		req = req.WithContext(auth.WithUserID(req.Context(), uuid.New()))
		rec := httptest.NewRecorder()

		ListOrders(rec, req, svc)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), string(apperr.CodeValidation))
	})

	for _, page := range []string{"100001", "9223372036854775807"} {
		t.Run("page "+page+" out of range", func(t *testing.T) {
			svc := &mockService{}
			req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?page="+page, nil)
			req = req.WithContext(auth.WithUserID(req.Context(), uuid.New()))
			rec := httptest.NewRecorder()

			ListOrders(rec, req, svc)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), string(apperr.CodeValidation))
			assert.Contains(t, rec.Body.String(), "page: must not exceed 100000")
			svc.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ListOrders(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil), &mockService{})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("service failure", func(t *testing.T) {
		userID := uuid.New()
		svc := &mockService{}
		svc.On("ListOrders", mock.Anything, userID, 1, 20).
			Return(nil, apperr.Wrap(apperr.CodeServer, errors.New("connection reset")))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()

		ListOrders(rec, req, svc)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})
}
