package events

import (
	"context"
	"log/slog"
)

// PaymentEventTypes lists every event the payment engine publishes.
var PaymentEventTypes = []string{
	EventTypePaymentSettled,
	EventTypePaymentVoided,
	EventTypePaymentRefunded,
	EventTypeInstallmentFeeApplied,
}

// SubscribeAuditLog writes one structured line per payment event.
func SubscribeAuditLog(bus *EventBus, logger *slog.Logger) {
	for _, eventType := range PaymentEventTypes {
		bus.Subscribe(eventType, func(ctx context.Context, event Event) error {
			logger.InfoContext(ctx, "payment event",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"occurred_at", event.OccurredAt(),
				"payload", event.Payload())
			return nil
		})
	}
}
