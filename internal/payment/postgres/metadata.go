package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	paymentmodel "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/payment"
)

// MetadataRepository stores the encoded gateway record per order.
type MetadataRepository struct {
	db *gorm.DB
}

func NewMetadataRepository(db *gorm.DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

func (r *MetadataRepository) Get(ctx context.Context, orderID int64) (string, error) {
	var m paymentmodel.GatewayMetadata
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Data, nil
}

func (r *MetadataRepository) Save(ctx context.Context, orderID int64, data string) error {
	m := paymentmodel.GatewayMetadata{OrderID: orderID, Data: data}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&m).Error
}
