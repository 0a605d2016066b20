package iaddressrepo

import (
	"context"

	"github.com/corray333/storefront/order/internal/service/models/address"
	"github.com/google/uuid"
)

// IAddressRepository is an interface for address postgres repository.
type IAddressRepository interface {
	GetOwned(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*address.Address, error)
}
