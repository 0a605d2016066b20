package listorders

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/corray333/storefront/order/internal/service/apperr"
	"github.com/corray333/storefront/order/internal/service/models/order"
	"github.com/corray333/storefront/order/internal/transport/http/orderview"
	"github.com/corray333/storefront/order/internal/transport/http/response"
	"github.com/corray333/storefront/order/pkg/http/middleware/auth"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPage         = 100000
)

type service interface {
	ListOrders(ctx context.Context, userID uuid.UUID, page int, pageSize int) ([]order.Order, error)
}

type queryOrdersRequest struct {
	Page     int `schema:"page"`
	PageSize int `schema:"page_size"`
}

var errPageOutOfRange = fmt.Errorf("page: must not exceed %d", maxPage)

// normalize applies defaults and clamps the page size.
// Pages beyond maxPage are rejected rather than silently wrapped.
func (q *queryOrdersRequest) normalize() error {
	if q.Page > maxPage {
		return errPageOutOfRange
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	return nil
}

type listOrdersResponse struct {
	Orders []orderview.Order `json:"orders"`
}

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// ListOrders handles the list orders request for the authenticated user.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, apperr.New(apperr.CodeUnauthenticated))
		return
	}

	query := &queryOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		slog.WarnContext(r.Context(), "Error decoding list orders query", "user_id", userID.String(), "error", err)
		response.WriteError(w, r, apperr.Wrap(apperr.CodeValidation, err))

		return
	}
	if err := query.normalize(); err != nil {
		response.WriteError(w, r, apperr.Wrap(apperr.CodeValidation, err).WithMessage(err.Error()))
		return
	}

	orders, err := service.ListOrders(r.Context(), userID, query.Page, query.PageSize)
	if err != nil {
		slog.ErrorContext(r.Context(), "Error getting orders", "user_id", userID.String(), "error", err)
		response.WriteError(w, r, err)

		return
	}

	response.WriteJSON(w, r, http.StatusOK, listOrdersResponse{
		Orders: orderview.FromModels(orders),
	})
}
