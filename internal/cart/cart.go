package cart

import (
	"context"

	cartDatamodel "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/cart"
)

type RepositoryAPI interface {
	// GetCustomer returns nil, nil for an unknown id.
	GetCustomer(ctx context.Context, id int64) (*cartDatamodel.Customer, error)
	ListItems(ctx context.Context, customerID, storeID int64) ([]cartDatamodel.CartItem, error)
	AddItem(ctx context.Context, item *cartDatamodel.CartItem) error
}
