package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	paymentmodel "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/payment"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{
		db: db,
	}
}

func (r *NotificationRepository) Record(ctx context.Context, n *paymentmodel.NotificationLog) error {
	if n.Status == "" {
		n.Status = paymentmodel.NotificationStatusReceived
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) MarkHandled(ctx context.Context, id string) error {
	return r.updateStatus(ctx, id, map[string]interface{}{
		"status":         paymentmodel.NotificationStatusHandled,
		"failure_reason": nil,
		"attempts":       gorm.Expr("attempts + 1"),
	})
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.updateStatus(ctx, id, map[string]interface{}{
		"status":         paymentmodel.NotificationStatusHandleFailed,
		"failure_reason": reason,
		"attempts":       gorm.Expr("attempts + 1"),
	})
}

func (r *NotificationRepository) updateStatus(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&paymentmodel.NotificationLog{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification %s not found", id)
	}
	return nil
}

func (r *NotificationRepository) ListFailed(ctx context.Context, maxAttempts, limit int) ([]paymentmodel.NotificationLog, error) {
	var entries []paymentmodel.NotificationLog
	err := r.db.WithContext(ctx).
		Where("status = ? AND attempts < ?", paymentmodel.NotificationStatusHandleFailed, maxAttempts).
		Order("received_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
