package notification

import (
	"context"

	paymentmodel "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/payment"
	"github.com/frahmantamala/iyzipay-checkout/internal/payment"
)

type RepositoryAPI interface {
	Record(ctx context.Context, n *paymentmodel.NotificationLog) error
	MarkHandled(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
	// ListFailed returns handle_failed entries with fewer than maxAttempts
	// attempts, oldest first.
	ListFailed(ctx context.Context, maxAttempts, limit int) ([]paymentmodel.NotificationLog, error)
}

// WebhookProcessor is the part of the payment engine a replay drives.
type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*payment.WebhookResult, error)
}

type ReplayJob struct {
	Entry paymentmodel.NotificationLog
}

type ReplaySummary struct {
	Total   int
	Handled int
	Failed  int
}
