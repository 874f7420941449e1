package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/cart"
	orderDatamodel "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/order"
	"github.com/frahmantamala/iyzipay-checkout/internal/order"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) order.RepositoryAPI {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) GetByGUID(ctx context.Context, guid uuid.UUID) (*orderDatamodel.Order, error) {
	var o orderDatamodel.Order
	err := r.db.WithContext(ctx).Preload("Items", orderedItems).Where("order_guid = ?", guid).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*orderDatamodel.Order, error) {
	var o orderDatamodel.Order
	err := r.db.WithContext(ctx).Preload("Items", orderedItems).Where("id = ?", id).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) CreateFromCart(ctx context.Context, o *orderDatamodel.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		return tx.Where("customer_id = ? AND store_id = ?", o.CustomerID, o.StoreID).
			Delete(&cart.CartItem{}).Error
	})
}

func (r *OrderRepository) UpdatePayment(ctx context.Context, o *orderDatamodel.Order) error {
	res := r.db.WithContext(ctx).
		Model(&orderDatamodel.Order{}).
		Where("id = ?", o.ID).
		Updates(map[string]interface{}{
			"order_status":                     o.OrderStatus,
			"payment_status":                   o.PaymentStatus,
			"authorization_transaction_id":     o.AuthorizationTransactionID,
			"authorization_transaction_result": o.AuthorizationTransactionResult,
			"capture_transaction_id":           o.CaptureTransactionID,
			"capture_transaction_result":       o.CaptureTransactionResult,
			"paid_at":                          o.PaidAt,
			"updated_at":                       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *OrderRepository) AddItemAndIncreaseTotal(ctx context.Context, orderID int64, item *orderDatamodel.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		res := tx.Model(&orderDatamodel.Order{}).
			Where("id = ?", orderID).
			Update("order_total", gorm.Expr("order_total + ?", item.PriceInclTax))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *OrderRepository) CountItems(ctx context.Context, orderID int64, kind, paymentReference string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&orderDatamodel.OrderItem{}).
		Where("order_id = ? AND kind = ? AND payment_reference = ?", orderID, kind, paymentReference).
		Count(&n).Error
	return n, err
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
