package order

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/corray333/storefront/order/internal/service/models/address"
	"github.com/corray333/storefront/order/internal/service/models/orderitem"
	"github.com/corray333/storefront/order/internal/service/models/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an order does not exist or belongs to another user.
var ErrNotFound = errors.New("order not found")

// Order represents a placed order in the system.
type Order struct {
	ID              uuid.UUID             `json:"id"`
	UserID          uuid.UUID             `json:"userId"`
	AddressID       uuid.UUID             `json:"addressId"`
	TotalAmount     decimal.Decimal       `json:"totalAmount"`
	Status          Status                `json:"status"`
	PaymentStatus   payment.Status        `json:"paymentStatus"`
	PaymentMethod   payment.Method        `json:"paymentMethod"`
	ShippingAddress address.Snapshot      `json:"shippingAddress"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
	OrderItems      []orderitem.OrderItem `json:"orderItems"`
}

// Status is the fulfilment state of an order.
// The happy path is pending -> processing -> shipped -> delivered;
// cancelled and refunded are terminal states off that path.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

var ErrInvalidStatus = errors.New("invalid order status")

func (s Status) String() string {
	return string(s)
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}
