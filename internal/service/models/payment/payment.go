package payment

import (
	"database/sql/driver"
	"errors"
)

// Status is the payment state recorded on an order.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

var ErrInvalidStatus = errors.New("invalid payment status")

func (s Status) String() string {
	return string(s)
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusFailed, StatusRefunded:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Method is the name of the gateway that captured the payment.
type Method string

// MethodRazorpay is the gateway the storefront checkout uses by default.
const MethodRazorpay Method = "razorpay"

var ErrInvalidMethod = errors.New("invalid payment method")

func (m Method) String() string {
	return string(m)
}

func (m Method) Value() (driver.Value, error) {
	return m.String(), nil
}

// ParseMethod accepts any non-empty gateway name.
func ParseMethod(s string) (Method, error) {
	if s == "" {
		return "", ErrInvalidMethod
	}

	return Method(s), nil
}
