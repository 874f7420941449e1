package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/cart"
	orderDatamodel "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/order"
)

type RepositoryAPI interface {
	// GetByGUID returns nil, nil when no order carries the guid.
	GetByGUID(ctx context.Context, guid uuid.UUID) (*orderDatamodel.Order, error)
	GetByID(ctx context.Context, id int64) (*orderDatamodel.Order, error)
	// CreateFromCart inserts the order with its items and empties the
	// customer's cart in one transaction.
	CreateFromCart(ctx context.Context, o *orderDatamodel.Order) error
	UpdatePayment(ctx context.Context, o *orderDatamodel.Order) error
	AddItemAndIncreaseTotal(ctx context.Context, orderID int64, item *orderDatamodel.OrderItem) error
	CountItems(ctx context.Context, orderID int64, kind, paymentReference string) (int64, error)
}

// CartReader is the part of the cart service order placement reads from.
type CartReader interface {
	GetCart(ctx context.Context, customerID, storeID int64) ([]cart.CartItem, error)
}
