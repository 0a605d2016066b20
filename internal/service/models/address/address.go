package address

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an address does not exist or belongs to another user.
var ErrNotFound = errors.New("address not found")

// Address is a saved shipping address of a user.
type Address struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	AddressLine string    `json:"addressLine"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	PostalCode  *string   `json:"postalCode,omitempty"`
	Country     string    `json:"country"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Snapshot is the copy of an address stored on an order at checkout.
// It is never updated when the source address changes.
type Snapshot struct {
	AddressLine string  `json:"address_line"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	PostalCode  *string `json:"postal_code,omitempty"`
	Country     string  `json:"country"`
}

// Snapshot copies the shipping fields of the address.
func (a *Address) Snapshot() Snapshot {
	var postalCode *string
	if a.PostalCode != nil {
		pc := *a.PostalCode
		postalCode = &pc
	}

	return Snapshot{
		AddressLine: a.AddressLine,
		City:        a.City,
		State:       a.State,
		PostalCode:  postalCode,
		Country:     a.Country,
	}
}
