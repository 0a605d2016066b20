package getorder

import (
	"context"
	"net/http"

	"github.com/corray333/storefront/order/internal/service/apperr"
	"github.com/corray333/storefront/order/internal/service/models/order"
	"github.com/corray333/storefront/order/internal/transport/http/orderview"
	"github.com/corray333/storefront/order/internal/transport/http/response"
	"github.com/corray333/storefront/order/pkg/http/middleware/auth"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type service interface {
	GetOrder(ctx context.Context, userID uuid.UUID, id uuid.UUID) (order.Order, error)
}

// GetOrder handles GET /orders/{id} for the authenticated user.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, apperr.New(apperr.CodeUnauthenticated))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, apperr.Wrap(apperr.CodeValidation, err))
		return
	}

	o, err := service.GetOrder(r.Context(), userID, id)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.WriteJSON(w, r, http.StatusOK, orderview.FromModel(&o))
}
