package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/iyzipay-checkout/internal/core/events"
	"github.com/frahmantamala/iyzipay-checkout/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Manage events: publish test events through the payment event subscribers`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event to the event bus for testing and debugging`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventData      string
	eventOrderID   int64
	eventPaymentID string
)

func publishTestEvent(eventType string) error {
	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)
	events.SubscribeAuditLog(eventBus, logger)

	var event events.Event
	switch eventType {
	case events.EventTypePaymentSettled:
		event = events.NewPaymentSettledEvent(eventOrderID, "", eventPaymentID, "cli-command")
	case events.EventTypePaymentVoided:
		event = events.NewPaymentVoidedEvent(eventOrderID, "", "Voided", "cli-command")
	case events.EventTypePaymentRefunded:
		event = events.NewPaymentRefundedEvent(eventOrderID, "", eventPaymentID, eventData)
	default:
		eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			logger.Info("test handler received event",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"payload", event.Payload())
			return nil
		})
		event = events.BaseEvent{
			ID:        fmt.Sprintf("test-%d", time.Now().Unix()),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"message": eventData,
				"source":  "cli-command",
			},
		}
	}

	logger.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())

	if err := eventBus.PublishSync(context.Background(), event); err != nil {
		logger.Error("failed to publish event", "error", err)
		return err
	}

	logger.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message, or the amount for payment.refunded")
	publishEventCmd.Flags().Int64Var(&eventOrderID, "order-id", 0, "Order id carried by payment events")
	publishEventCmd.Flags().StringVar(&eventPaymentID, "payment-id", "", "Gateway payment id carried by payment events")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
