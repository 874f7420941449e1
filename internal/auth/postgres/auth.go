package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/cart"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) FindCustomerByEmail(ctx context.Context, email string) (*cart.Customer, error) {
	var c cart.Customer
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", email).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) FindCustomerByID(ctx context.Context, id int64) (*cart.Customer, error) {
	var c cart.Customer
	err := r.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) RecordLogin(ctx context.Context, customerID int64, ip string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&cart.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]interface{}{
			"last_ip_address": ip,
			"last_login_at":   at,
		}).Error
}
