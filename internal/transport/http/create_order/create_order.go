package createorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/corray333/storefront/order/internal/service/apperr"
	"github.com/corray333/storefront/order/internal/service/models/order"
	"github.com/corray333/storefront/order/internal/service/models/orderitem"
	"github.com/corray333/storefront/order/internal/transport/http/response"
	"github.com/corray333/storefront/order/pkg/http/middleware/auth"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, model order.CreateOrderModel) (order.Order, error)
}

// Limits bound a checkout request.
type Limits struct {
	MaxItems       int
	MaxTotalAmount decimal.Decimal
	MaxBodyBytes   int64
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxItems:       50,
		MaxTotalAmount: decimal.NewFromInt(10_000_000),
		MaxBodyBytes:   1 << 20,
	}
}

// itemInCreateOrderRequest represents an item in a create order request.
type itemInCreateOrderRequest struct {
	ProductID   string          `json:"product_id"    validate:"required,uuid"`
	Quantity    int             `json:"quantity"      validate:"min=1,max=100"`
	PriceAtTime decimal.Decimal `json:"price_at_time" validate:"money"`
	Size        *string         `json:"size"          validate:"omitempty,max=50"`
	Color       *string         `json:"color"         validate:"omitempty,max=50"`
}

// toModel converts itemInCreateOrderRequest to orderitem.OrderItem.
func (r *itemInCreateOrderRequest) toModel() orderitem.OrderItem {
	return orderitem.OrderItem{
		ProductID:   uuid.MustParse(r.ProductID),
		Quantity:    r.Quantity,
		PriceAtTime: r.PriceAtTime,
		Size:        r.Size,
		Color:       r.Color,
	}
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	AddressID   string                     `json:"address_id"   validate:"required,uuid"`
	TotalAmount decimal.Decimal            `json:"total_amount" validate:"money,max_total"`
	Items       []itemInCreateOrderRequest `json:"items"        validate:"required,min=1,max_items,dive"`
}

// toModel converts a validated request to order.CreateOrderModel.
func (r *createOrderRequest) toModel() order.CreateOrderModel {
	items := make([]orderitem.OrderItem, len(r.Items))
	for i := range r.Items {
		items[i] = r.Items[i].toModel()
	}

	return order.CreateOrderModel{
		AddressID:   uuid.MustParse(r.AddressID),
		TotalAmount: r.TotalAmount,
		Items:       items,
	}
}

// createOrderResponse is the success payload.
type createOrderResponse struct {
	Success     bool        `json:"success"`
	OrderID     uuid.UUID   `json:"order_id"`
	Status      string      `json:"status"`
	TotalAmount json.Number `json:"total_amount"`
	CreatedAt   time.Time   `json:"created_at"`
}

func newCreateOrderResponse(o *order.Order) createOrderResponse {
	return createOrderResponse{
		Success:     true,
		OrderID:     o.ID,
		Status:      o.Status.String(),
		TotalAmount: json.Number(o.TotalAmount.String()),
		CreatedAt:   o.CreatedAt,
	}
}

// maxMoney is the largest amount a NUMERIC(12,2) column holds.
var maxMoney = decimal.RequireFromString("9999999999.99")

// validMoney reports whether d is positive, whole cents and fits the money columns.
// Anything else would be rounded or rejected by the database.
func validMoney(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Round(2)) && d.LessThanOrEqual(maxMoney)
}

// newValidator creates a validator that understands decimals and the checkout limits.
func newValidator(limits Limits) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Decimals are validated as their exact string form, never as floats.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && validMoney(d)
	})
	_ = v.RegisterValidation("max_total", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.LessThanOrEqual(limits.MaxTotalAmount)
	})
	_ = v.RegisterValidation("max_items", func(fl validator.FieldLevel) bool {
		return fl.Field().Len() <= limits.MaxItems
	})

	return v
}

// validationMessage names the first offending field, e.g. "items[0].quantity: failed min".
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return apperr.Message(apperr.CodeValidation)
	}

	fe := errs[0]
	_, field, _ := strings.Cut(fe.Namespace(), ".")

	return fmt.Sprintf("%s: failed %s", field, fe.Tag())
}

// Handler handles checkout requests.
type Handler struct {
	service  service
	validate *validator.Validate
	limits   Limits
}

// NewHandler creates a new create order handler.
func NewHandler(service service, limits Limits) *Handler {
	return &Handler{
		service:  service,
		validate: newValidator(limits),
		limits:   limits,
	}
}

// ServeHTTP handles the create order request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, apperr.New(apperr.CodeUnauthenticated))
		return
	}

	req := createOrderRequest{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.limits.MaxBodyBytes)).Decode(&req); err != nil {
		slog.WarnContext(r.Context(), "Error decoding request body for create order",
			"user_id", userID.String(),
			"error", err,
		)
		response.WriteError(w, r, apperr.Wrap(apperr.CodeValidation, err))

		return
	}

	if err := h.validate.Struct(&req); err != nil {
		slog.WarnContext(r.Context(), "Error validating request body for create order",
			"user_id", userID.String(),
			"error", err,
		)
		response.WriteError(w, r, apperr.Wrap(apperr.CodeValidation, err).WithMessage(validationMessage(err)))

		return
	}

	// A checkout runs to completion even if the client goes away.
	ctx := context.WithoutCancel(r.Context())

	created, err := h.service.CreateOrder(ctx, userID, req.toModel())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.WriteJSON(w, r, http.StatusOK, newCreateOrderResponse(&created))
}
