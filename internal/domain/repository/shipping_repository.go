package repository

import (
	"context"

	"dermacare/internal/domain/entity"
)

type ShippingRepository interface {
	// Addresses
	CreateAddress(ctx context.Context, address *entity.ShippingAddress) error
	GetAddressByID(ctx context.Context, id string) (*entity.ShippingAddress, error)
	ListAddressesByUser(ctx context.Context, userID string) ([]*entity.ShippingAddress, error)
	UpdateAddress(ctx context.Context, address *entity.ShippingAddress) error
	DeleteAddress(ctx context.Context, id string) error
	// SetDefaultAddress flags the address as the user's default and clears
	// the flag on every other address of that user in one transaction.
	SetDefaultAddress(ctx context.Context, userID, addressID string) error

	// Methods
	CreateMethod(ctx context.Context, method *entity.ShippingMethod) error
	GetMethodByID(ctx context.Context, id string) (*entity.ShippingMethod, error)
	ListActiveMethods(ctx context.Context) ([]*entity.ShippingMethod, error)
	UpdateMethod(ctx context.Context, method *entity.ShippingMethod) error

	// Orders
	CreateOrder(ctx context.Context, order *entity.ShippingOrder) error
	GetOrderByID(ctx context.Context, id string) (*entity.ShippingOrder, error)
	ListOrdersByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.ShippingOrder, int64, error)
	// AppendOrderStatus writes the order's current status fields and
	// appends the history entry without rewriting the whole document.
	AppendOrderStatus(ctx context.Context, order *entity.ShippingOrder, entry entity.StatusEntry) error
	// UpdateOrderEstimate overwrites the estimated delivery date.
	UpdateOrderEstimate(ctx context.Context, order *entity.ShippingOrder) error
}
