package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"

	"github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/order"
	gatewaytypes "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/events"
)

const (
	fieldEventType      = "iyziEventType"
	fieldPaymentID      = "iyziPaymentId"
	fieldToken          = "token"
	fieldConversationID = "paymentConversationId"
	fieldStatus         = "status"
)

// ParseWebhookPayload decodes a notification body into its field map.
func ParseWebhookPayload(payload []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, ErrMalformedPayload(err)
	}
	if fields == nil {
		return nil, ErrMalformedPayload(errors.New("payload is not an object"))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrMalformedPayload(errors.New("unexpected data after payload"))
	}
	return fields, nil
}

// ExtractWebhookFields pulls the signed fields out of a field map.
func ExtractWebhookFields(m map[string]interface{}) WebhookFields {
	return WebhookFields{
		EventType:      fieldString(m, fieldEventType),
		PaymentID:      fieldString(m, fieldPaymentID),
		Token:          fieldString(m, fieldToken),
		ConversationID: fieldString(m, fieldConversationID),
		Status:         fieldString(m, fieldStatus),
	}
}

func fieldString(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// HandleWebhook authenticates a notification and applies its status to the
// matching order. Signed deliveries are verified with the merchant secret;
// unsigned ones are trusted as received unless signatures are required.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	m, err := ParseWebhookPayload(payload)
	if err != nil {
		return nil, err
	}
	fields := ExtractWebhookFields(m)

	result := &WebhookResult{Fields: fields, Signed: signature != ""}

	if result.Signed {
		if !VerifySignature(fields, s.settings.SecretKey, signature) {
			s.log(ctx).Warn("webhook rejected: invalid signature",
				"payment_id", fields.PaymentID,
				"conversation_id", fields.ConversationID)
			return nil, ErrInvalidSignature()
		}
	} else {
		if s.settings.RequireWebhookSignature {
			s.log(ctx).Warn("webhook rejected: signature required", "conversation_id", fields.ConversationID)
			return nil, internal.NewValidationError("Missing signature", internal.ErrCodeInvalidSignature)
		}
		if fields.Token == "" {
			return nil, ErrMissingToken("Missing required parameters")
		}
		if fields.Status == "" {
			fields.Status = gatewaytypes.PaymentStatusFailure
			result.Fields.Status = fields.Status
		}
		// known weakness: an unsigned status is trusted without a retrieve call
		s.log(ctx).Warn("webhook accepted without signature",
			"conversation_id", fields.ConversationID,
			"token", maskToken(fields.Token),
			"status", fields.Status)
	}

	if err := s.applyWebhookStatus(ctx, fields, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) applyWebhookStatus(ctx context.Context, fields WebhookFields, result *WebhookResult) error {
	guid, err := uuid.Parse(fields.ConversationID)
	if err != nil {
		s.log(ctx).Info("webhook conversation id is not an order guid, ignoring",
			"conversation_id", fields.ConversationID)
		return nil
	}

	return s.withLock(ctx, guid.String(), func() error {
		o, err := s.orders.FindByGUID(ctx, guid)
		if err != nil {
			return internal.NewInternalError("failed to load order", err)
		}
		if o == nil {
			s.log(ctx).Info("webhook for unknown order accepted", "order_guid", guid.String())
			return nil
		}
		result.OrderID = o.ID

		success := fields.Status == gatewaytypes.PaymentStatusSuccess
		paymentStatus, orderStatus := order.PaymentStatusVoided, order.StatusCancelled
		if success {
			paymentStatus, orderStatus = order.PaymentStatusPaid, s.settings.OrderStatusAfterPayment
		}

		// a settled order is never moved by a repeated success notification
		if success && o.PaymentStatus == order.PaymentStatusPaid {
			result.PaymentStatus = o.PaymentStatus
			return nil
		}
		if o.PaymentStatus == paymentStatus && o.OrderStatus == orderStatus {
			result.PaymentStatus = o.PaymentStatus
			return nil
		}

		o.PaymentStatus = paymentStatus
		o.OrderStatus = orderStatus
		if err := s.orders.UpdatePayment(ctx, o); err != nil {
			return internal.NewInternalError("failed to update order", err)
		}
		result.PaymentStatus = paymentStatus
		result.Applied = true

		s.log(ctx).Info("webhook applied",
			"order_id", o.ID,
			"order_guid", guid.String(),
			"payment_id", fields.PaymentID,
			"payment_status", paymentStatus,
			"order_status", orderStatus)

		if success {
			s.publish(ctx, events.NewPaymentSettledEvent(o.ID, guid.String(), fields.PaymentID, events.EventSourceWebhook))
		} else {
			s.publish(ctx, events.NewPaymentVoidedEvent(o.ID, guid.String(), fields.Status, events.EventSourceWebhook))
		}
		return nil
	})
}
