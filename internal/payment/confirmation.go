package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/order"
	gatewaytypes "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/events"
)

// Confirm settles the order behind a checkout token after the shopper is
// sent back by the gateway. The token is exchanged for the authoritative
// checkout record; nothing posted by the browser besides the token is used.
//
// The record must carry status SUCCESS. A reported paymentStatus other than
// SUCCESS is also a failed payment, so a successful request whose charge did
// not go through never settles the order.
func (s *Service) Confirm(ctx context.Context, req ConfirmationRequest) (*ConfirmationResult, error) {
	if req.Token == "" {
		return nil, ErrMissingToken("Missing required parameters - no token found")
	}

	cf, err := s.gateway.RetrieveCheckoutForm(ctx, &gatewaytypes.RetrieveCheckoutFormRequest{
		Locale: s.settings.GatewayLocale(),
		Token:  req.Token,
	})
	if err != nil {
		s.log(ctx).Error("retrieve checkout form failed", "token", maskToken(req.Token), "error", err)
		return nil, ErrRemoteGateway("Retrieve payment error: "+err.Error(), err)
	}
	if cf == nil {
		return nil, ErrPaymentRecordNotFound()
	}
	if cf.Status != gatewaytypes.StatusSuccess {
		s.log(ctx).Warn("checkout form not successful",
			"token", maskToken(req.Token),
			"status", cf.Status,
			"error_message", cf.ErrorMessage)
		return nil, ErrPaymentFailed(cf.Status)
	}
	if cf.PaymentStatus != "" && cf.PaymentStatus != gatewaytypes.PaymentStatusSuccess {
		return nil, ErrPaymentFailed(cf.PaymentStatus)
	}

	guid, err := uuid.Parse(cf.BasketID)
	if err != nil {
		return nil, ErrInvalidCorrelation()
	}

	paid := NormalizePaidPrice(cf.PaidPrice.String())
	result := &ConfirmationResult{OrderGUID: guid, TransactionID: cf.PaymentID}

	err = s.withLock(ctx, guid.String(), func() error {
		o, placed, err := s.findOrPlaceOrder(ctx, guid, req.Shopper)
		if err != nil {
			return err
		}
		result.OrderPlaced = placed
		wasPaid := o.PaymentStatus == order.PaymentStatusPaid

		now := s.now().UTC()
		o.PaymentStatus = order.PaymentStatusPaid
		o.OrderStatus = order.StatusComplete
		o.PaidAt = &now
		o.AuthorizationTransactionID = cf.PaymentID
		o.AuthorizationTransactionResult = cf.AuthCode
		o.CaptureTransactionID = cf.PaymentID
		o.CaptureTransactionResult = cf.AuthCode

		if err := s.orders.UpdatePayment(ctx, o); err != nil {
			return internal.NewInternalError("Payment confirmation error", err)
		}
		result.OrderID = o.ID

		s.storeMetadata(ctx, o.ID, cf)

		if !wasPaid {
			s.publish(ctx, events.NewPaymentSettledEvent(o.ID, guid.String(), cf.PaymentID, events.EventSourceConfirmation))
		}

		if fee, ok := InstallmentFee(cf.Installment, o.OrderTotal, paid); ok {
			if applied := s.applyInstallmentFee(ctx, o, cf.PaymentID, cf.Installment, fee); applied {
				result.FeeApplied = true
				result.InstallmentFee = fee
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("payment confirmed",
		"order_id", result.OrderID,
		"order_guid", guid.String(),
		"payment_id", cf.PaymentID,
		"order_placed", result.OrderPlaced,
		"fee_applied", result.FeeApplied)

	return result, nil
}

func (s *Service) findOrPlaceOrder(ctx context.Context, guid uuid.UUID, shopper Shopper) (*order.Order, bool, error) {
	o, err := s.orders.FindByGUID(ctx, guid)
	if err != nil {
		return nil, false, internal.NewInternalError("failed to load order", err)
	}
	if o != nil {
		return o, false, nil
	}

	items, err := s.carts.GetCart(ctx, shopper.CustomerID, shopper.StoreID)
	if err != nil {
		return nil, false, internal.NewInternalError("failed to load shopping cart", err)
	}
	if len(items) == 0 {
		return nil, false, ErrCartEmpty("Shopping cart is empty")
	}

	placed, err := s.orders.PlaceOrder(ctx, order.PlaceRequest{
		OrderGUID:     guid,
		CustomerID:    shopper.CustomerID,
		StoreID:       shopper.StoreID,
		PaymentMethod: order.PaymentMethodIyzipay,
		Currency:      s.settings.Currency,
	})
	if err != nil || placed == nil {
		s.log(ctx).Error("failed to place order on confirmation", "order_guid", guid.String(), "error", err)
		return nil, false, ErrOrderCreationFailed(err)
	}
	return placed, true, nil
}

// storeMetadata keeps the gateway record next to the order; failures only log.
func (s *Service) storeMetadata(ctx context.Context, orderID int64, cf *gatewaytypes.CheckoutForm) {
	if s.metadata == nil {
		return
	}
	data := EncodeOrderData(MetadataFromCheckoutForm(cf))
	if err := s.metadata.Save(ctx, orderID, data); err != nil {
		s.log(ctx).Warn("failed to store gateway metadata", "order_id", orderID, "error", err)
	}
}

// applyInstallmentFee appends the surcharge line once per payment id. Errors
// are logged and never surface to the shopper.
func (s *Service) applyInstallmentFee(ctx context.Context, o *order.Order, paymentID string, installment int, fee decimal.Decimal) bool {
	exists, err := s.orders.HasInstallmentFee(ctx, o.ID, paymentID)
	if err != nil {
		s.log(ctx).Error("failed to check installment fee", "order_id", o.ID, "error", err)
		return false
	}
	if exists {
		s.log(ctx).Info("installment fee already applied", "order_id", o.ID, "payment_id", paymentID)
		return false
	}

	productID := o.FirstProductID()
	if productID == 0 {
		productID = 1
	}

	item := &order.OrderItem{
		OrderItemGUID:        uuid.New(),
		OrderID:              o.ID,
		ProductID:            productID,
		Kind:                 order.ItemKindInstallmentFee,
		Quantity:             1,
		UnitPriceInclTax:     fee,
		UnitPriceExclTax:     fee,
		PriceInclTax:         fee,
		PriceExclTax:         fee,
		AttributeDescription: installmentFeeDescription(installment),
		PaymentReference:     paymentID,
	}

	updated, err := s.orders.ApplyInstallmentFee(ctx, o.ID, item)
	if err != nil {
		s.log(ctx).Error("failed to apply installment fee", "order_id", o.ID, "fee", formatAmount(fee), "error", err)
		return false
	}
	if updated != nil {
		o.OrderTotal = updated.OrderTotal
		o.Items = updated.Items
	}

	s.log(ctx).Info("installment fee applied",
		"order_id", o.ID,
		"installment", installment,
		"fee", formatAmount(fee),
		"new_total", formatAmount(o.OrderTotal))
	s.publish(ctx, events.NewInstallmentFeeAppliedEvent(o.ID, paymentID, installment, formatAmount(fee), formatAmount(o.OrderTotal)))
	return true
}
