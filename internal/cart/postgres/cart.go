package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/iyzipay-checkout/internal/cart"
	cartDatamodel "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/cart"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) cart.RepositoryAPI {
	return &CartRepository{db: db}
}

func (r *CartRepository) GetCustomer(ctx context.Context, id int64) (*cartDatamodel.Customer, error) {
	var c cartDatamodel.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CartRepository) ListItems(ctx context.Context, customerID, storeID int64) ([]cartDatamodel.CartItem, error) {
	var items []cartDatamodel.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("customer_id = ? AND store_id = ?", customerID, storeID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *CartRepository) AddItem(ctx context.Context, item *cartDatamodel.CartItem) error {
	return r.db.WithContext(ctx).Omit("Product").Create(item).Error
}
