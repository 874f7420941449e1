package payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/common/validation"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/order"
	gatewaytypes "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/events"
)

// Refund returns an amount of a settled payment to the card.
func (s *Service) Refund(ctx context.Context, req RefundRequest) (*order.Order, error) {
	var refunded *order.Order
	err := s.withLock(ctx, req.OrderGUID.String(), func() error {
		o, err := s.loadOrder(ctx, req.OrderGUID)
		if err != nil {
			return err
		}
		if appErr := validation.ValidateRefundAmount(req.Amount, o.OrderTotal); appErr != nil {
			return appErr
		}

		paymentID, err := s.resolvePaymentID(ctx, o)
		if err != nil {
			return err
		}

		resp, err := s.gateway.CreateRefund(ctx, &gatewaytypes.CreateRefundRequest{
			Locale:         s.settings.GatewayLocale(),
			ConversationID: o.OrderGUID.String(),
			PaymentID:      paymentID,
			Price:          formatAmount(req.Amount),
			Currency:       s.settings.Currency,
			IP:             req.IP,
		})
		if err != nil {
			s.log(ctx).Error("refund request failed", "order_id", o.ID, "error", err)
			return ErrRemoteGateway("Refund error: "+err.Error(), err)
		}
		if resp == nil {
			return ErrRemoteGateway("Refund failed: empty gateway response", nil)
		}
		if !resp.Succeeded() {
			s.log(ctx).Warn("refund rejected by gateway", "order_id", o.ID, "message", resp.ErrorMessage)
			return ErrRemoteGateway("Refund failed: "+resp.ErrorMessage, nil)
		}

		o.PaymentStatus = order.PaymentStatusRefunded
		if err := s.orders.UpdatePayment(ctx, o); err != nil {
			return internal.NewInternalError("failed to update order", err)
		}

		s.log(ctx).Info("payment refunded",
			"order_id", o.ID,
			"payment_id", paymentID,
			"amount", formatAmount(req.Amount))
		s.publish(ctx, events.NewPaymentRefundedEvent(o.ID, o.OrderGUID.String(), paymentID, formatAmount(req.Amount)))
		refunded = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refunded, nil
}

// Void cancels a payment before settlement. The gateway only allows this
// inside the cancel window counted from order creation.
func (s *Service) Void(ctx context.Context, req VoidRequest) (*order.Order, error) {
	var voided *order.Order
	err := s.withLock(ctx, req.OrderGUID.String(), func() error {
		o, err := s.loadOrder(ctx, req.OrderGUID)
		if err != nil {
			return err
		}
		if s.now().Sub(o.CreatedAt) > s.settings.CancelWindow {
			return ErrCancelWindowElapsed(s.settings.CancelWindow)
		}

		paymentID, err := s.resolvePaymentID(ctx, o)
		if err != nil {
			return err
		}

		resp, err := s.gateway.CreateCancel(ctx, &gatewaytypes.CreateCancelRequest{
			Locale:         s.settings.GatewayLocale(),
			ConversationID: o.OrderGUID.String(),
			PaymentID:      paymentID,
			IP:             req.IP,
		})
		if err != nil {
			s.log(ctx).Error("cancel request failed", "order_id", o.ID, "error", err)
			return ErrRemoteGateway("Cancel error: "+err.Error(), err)
		}
		if resp == nil {
			return ErrRemoteGateway("Cancel failed: empty gateway response", nil)
		}
		if !resp.Succeeded() {
			s.log(ctx).Warn("cancel rejected by gateway", "order_id", o.ID, "message", resp.ErrorMessage)
			return ErrRemoteGateway("Cancel failed: "+resp.ErrorMessage, nil)
		}

		o.PaymentStatus = order.PaymentStatusVoided
		if err := s.orders.UpdatePayment(ctx, o); err != nil {
			return internal.NewInternalError("failed to update order", err)
		}

		s.log(ctx).Info("payment voided", "order_id", o.ID, "payment_id", paymentID)
		s.publish(ctx, events.NewPaymentVoidedEvent(o.ID, o.OrderGUID.String(), gatewaytypes.StatusSuccess, events.EventSourceAdmin))
		voided = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voided, nil
}

func (s *Service) loadOrder(ctx context.Context, guid uuid.UUID) (*order.Order, error) {
	o, err := s.orders.FindByGUID(ctx, guid)
	if err != nil {
		return nil, internal.NewInternalError("failed to load order", err)
	}
	if o == nil {
		return nil, internal.ErrOrderNotFound
	}
	return o, nil
}

// resolvePaymentID prefers the stored gateway metadata and falls back to the
// authorization transaction id recorded at confirmation.
func (s *Service) resolvePaymentID(ctx context.Context, o *order.Order) (string, error) {
	if s.metadata != nil {
		data, err := s.metadata.Get(ctx, o.ID)
		if err != nil {
			s.log(ctx).Warn("failed to read gateway metadata", "order_id", o.ID, "error", err)
		}
		if id := DecodeOrderData(data).PaymentID; id != "" {
			return id, nil
		}
	}
	if o.AuthorizationTransactionID != "" {
		return o.AuthorizationTransactionID, nil
	}
	return "", ErrPaymentIDNotFound()
}
