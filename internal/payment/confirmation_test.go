package payment_test

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	apperrors "github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/order"
	gatewaytypes "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/events"
	paymentPkg "github.com/frahmantamala/iyzipay-checkout/internal/payment"
)

func successfulForm(guid uuid.UUID, paidPrice string, installment int) *gatewaytypes.CheckoutForm {
	return &gatewaytypes.CheckoutForm{
		Response:      gatewaytypes.Response{Status: gatewaytypes.StatusSuccess, ConversationID: guid.String()},
		Token:         "tok-123456789",
		PaymentID:     "22416035",
		PaymentStatus: gatewaytypes.PaymentStatusSuccess,
		PaidPrice:     gatewaytypes.JSONNumber(paidPrice),
		Price:         "100",
		Installment:   installment,
		BasketID:      guid.String(),
		AuthCode:      "654321",
		CardFamily:    "Bonus",
	}
}

var _ = Describe("Confirm", func() {
	var (
		engine  *testEngine
		ctx     context.Context
		guid    uuid.UUID
		shopper paymentPkg.Shopper
	)

	BeforeEach(func() {
		ctx = context.Background()
		engine = newTestEngine(paymentPkg.Settings{Locale: "en"})
		guid = uuid.New()
		shopper = paymentPkg.Shopper{CustomerID: 1, StoreID: 1, IP: "10.0.0.1"}
	})

	addPendingOrder := func(total int64) *order.Order {
		return engine.orders.add(&order.Order{
			OrderGUID:     guid,
			OrderStatus:   order.StatusPending,
			PaymentStatus: order.PaymentStatusPending,
			OrderTotal:    decimal.NewFromInt(total),
			Items:         []order.OrderItem{{ProductID: 10, Kind: order.ItemKindProduct, Quantity: 1}},
		})
	}

	confirm := func() (*paymentPkg.ConfirmationResult, error) {
		return engine.service.Confirm(ctx, paymentPkg.ConfirmationRequest{Token: "tok-123456789", Shopper: shopper})
	}

	Describe("rejections", func() {
		It("requires a token", func() {
			_, err := engine.service.Confirm(ctx, paymentPkg.ConfirmationRequest{})

			Expect(err).To(MatchError("Missing required parameters - no token found"))
			Expect(engine.gateway.retrieveCalls).To(Equal(0))
		})

		It("reports a retrieve transport failure", func() {
			engine.gateway.retrieveError = errors.New("connection reset")

			_, err := confirm()

			Expect(apperrors.HasCode(err, apperrors.ErrCodeRemoteGateway)).To(BeTrue())
		})

		It("reports a missing payment record", func() {
			_, err := confirm()

			Expect(err).To(MatchError("Payment information not found"))
		})

		It("reports an unsuccessful checkout form", func() {
			cf := successfulForm(guid, "100", 1)
			cf.Status = gatewaytypes.StatusFailure
			engine.gateway.checkoutForm = cf

			_, err := confirm()

			Expect(err).To(MatchError("Payment failed. Status: failure"))
		})

		It("reports a failed payment status", func() {
			cf := successfulForm(guid, "100", 1)
			cf.PaymentStatus = gatewaytypes.PaymentStatusFailure
			engine.gateway.checkoutForm = cf

			_, err := confirm()

			Expect(err).To(MatchError("Payment failed. Status: FAILURE"))
		})

		It("rejects a basket id that is not an order guid", func() {
			cf := successfulForm(guid, "100", 1)
			cf.BasketID = "basket-1"
			engine.gateway.checkoutForm = cf

			_, err := confirm()

			Expect(err).To(MatchError("Invalid basket ID format"))
		})
	})

	It("retrieves with the configured locale", func() {
		addPendingOrder(100)
		engine.gateway.checkoutForm = successfulForm(guid, "100", 1)

		_, err := confirm()

		Expect(err).NotTo(HaveOccurred())
		Expect(engine.gateway.retrieveLocale).To(Equal("en"))
	})

	It("settles an existing order and records the gateway data", func() {
		o := addPendingOrder(100)
		engine.gateway.checkoutForm = successfulForm(guid, "100.00", 1)

		result, err := confirm()

		Expect(err).NotTo(HaveOccurred())
		Expect(result.OrderID).To(Equal(o.ID))
		Expect(result.OrderPlaced).To(BeFalse())
		Expect(result.FeeApplied).To(BeFalse())

		stored := engine.orders.get(guid)
		Expect(stored.PaymentStatus).To(Equal(order.PaymentStatusPaid))
		Expect(stored.OrderStatus).To(Equal(order.StatusComplete))
		Expect(stored.PaidAt).NotTo(BeNil())
		Expect(stored.AuthorizationTransactionID).To(Equal("22416035"))
		Expect(stored.CaptureTransactionResult).To(Equal("654321"))

		meta := paymentPkg.DecodeOrderData(engine.metadata.data[o.ID])
		Expect(meta.PaymentID).To(Equal("22416035"))
		Expect(meta.CardFamily).To(Equal("Bonus"))
		Expect(engine.publisher.ofType(events.EventTypePaymentSettled)).To(HaveLen(1))
	})

	It("still confirms when metadata cannot be stored", func() {
		addPendingOrder(100)
		engine.metadata.saveError = errors.New("disk full")
		engine.gateway.checkoutForm = successfulForm(guid, "100", 1)

		_, err := confirm()

		Expect(err).NotTo(HaveOccurred())
		Expect(engine.orders.get(guid).PaymentStatus).To(Equal(order.PaymentStatusPaid))
	})

	Describe("when the order does not exist yet", func() {
		BeforeEach(func() {
			engine.gateway.checkoutForm = successfulForm(guid, "100", 1)
		})

		It("places it from the shopper's cart", func() {
			engine.carts.items = append(engine.carts.items, product(10, "Book", "100.00", 1))

			result, err := confirm()

			Expect(err).NotTo(HaveOccurred())
			Expect(result.OrderPlaced).To(BeTrue())
			Expect(engine.orders.placeCalls).To(Equal(1))
			Expect(engine.orders.get(guid).PaymentStatus).To(Equal(order.PaymentStatusPaid))
		})

		It("fails on an empty cart", func() {
			_, err := confirm()

			Expect(err).To(MatchError("Shopping cart is empty"))
			Expect(engine.orders.placeCalls).To(Equal(0))
		})

		It("fails when placement fails", func() {
			engine.carts.items = append(engine.carts.items, product(10, "Book", "100.00", 1))
			engine.orders.placeError = errors.New("constraint violation")

			_, err := confirm()

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Message).To(Equal("Failed to create order"))
		})
	})

	Describe("installment fee", func() {
		It("adds the difference between paid and total as a fee line", func() {
			addPendingOrder(100)
			engine.gateway.checkoutForm = successfulForm(guid, "115.00", 3)

			result, err := confirm()

			Expect(err).NotTo(HaveOccurred())
			Expect(result.FeeApplied).To(BeTrue())
			Expect(result.InstallmentFee.Equal(decimal.NewFromInt(15))).To(BeTrue())

			stored := engine.orders.get(guid)
			Expect(stored.OrderTotal.Equal(decimal.NewFromInt(115))).To(BeTrue())
			fee := stored.Items[len(stored.Items)-1]
			Expect(fee.Kind).To(Equal(order.ItemKindInstallmentFee))
			Expect(fee.ProductID).To(Equal(int64(10)))
			Expect(fee.Quantity).To(Equal(1))
			Expect(fee.PaymentReference).To(Equal("22416035"))
			Expect(fee.AttributeDescription).To(ContainSubstring("3 Taksit"))
			Expect(engine.publisher.ofType(events.EventTypeInstallmentFeeApplied)).To(HaveLen(1))
		})

		It("reads a minor-unit scaled paid price", func() {
			addPendingOrder(100)
			engine.gateway.checkoutForm = successfulForm(guid, "11500000", 3)

			result, err := confirm()

			Expect(err).NotTo(HaveOccurred())
			Expect(result.InstallmentFee.Equal(decimal.NewFromInt(15))).To(BeTrue())
		})

		It("skips the fee for a single installment", func() {
			addPendingOrder(100)
			engine.gateway.checkoutForm = successfulForm(guid, "115.00", 1)

			result, err := confirm()

			Expect(err).NotTo(HaveOccurred())
			Expect(result.FeeApplied).To(BeFalse())
			Expect(engine.orders.feeCalls).To(Equal(0))
		})

		It("applies the fee only once across repeated confirmations", func() {
			addPendingOrder(100)
			engine.gateway.checkoutForm = successfulForm(guid, "115.00", 3)

			_, err := confirm()
			Expect(err).NotTo(HaveOccurred())
			second, err := confirm()
			Expect(err).NotTo(HaveOccurred())

			Expect(second.FeeApplied).To(BeFalse())
			Expect(engine.orders.feeCalls).To(Equal(1))
			Expect(engine.orders.get(guid).OrderTotal.Equal(decimal.NewFromInt(115))).To(BeTrue())
			Expect(engine.publisher.ofType(events.EventTypePaymentSettled)).To(HaveLen(1))
		})

		It("applies the fee only once across concurrent confirmations", func() {
			addPendingOrder(100)
			engine.gateway.checkoutForm = successfulForm(guid, "115.00", 3)

			var wg sync.WaitGroup
			for i := 0; i < 6; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := confirm()
					Expect(err).NotTo(HaveOccurred())
				}()
			}
			wg.Wait()

			Expect(engine.orders.feeCalls).To(Equal(1))
			Expect(engine.orders.get(guid).OrderTotal.Equal(decimal.NewFromInt(115))).To(BeTrue())
		})

		It("settles once when the webhook and the confirmation race", func() {
			addPendingOrder(100)
			engine.gateway.checkoutForm = successfulForm(guid, "115.00", 3)
			service := paymentPkg.NewService(paymentPkg.Dependencies{
				Orders:   engine.orders,
				Carts:    engine.carts,
				Metadata: engine.metadata,
				Gateway:  engine.gateway,
				Locker:   paymentPkg.NewKeyedMutex(),
				Events:   engine.publisher,
			}, paymentPkg.Settings{SecretKey: testSecret, OrderStatusAfterPayment: order.StatusProcessing}, quietLogger())
			body := webhookBody(guid.String(), "SUCCESS", "tok")
			signature := signFor(guid.String(), "SUCCESS", "tok")

			start := make(chan struct{})
			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(2)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					<-start
					_, err := service.HandleWebhook(ctx, body, signature)
					Expect(err).NotTo(HaveOccurred())
				}()
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					<-start
					_, err := service.Confirm(ctx, paymentPkg.ConfirmationRequest{Token: "tok-123456789", Shopper: shopper})
					Expect(err).NotTo(HaveOccurred())
				}()
			}
			close(start)
			wg.Wait()

			settled := engine.orders.get(guid)
			Expect(settled.PaymentStatus).To(Equal(order.PaymentStatusPaid))
			Expect(settled.OrderStatus).To(Equal(order.StatusComplete))
			Expect(settled.OrderTotal.Equal(decimal.NewFromInt(115))).To(BeTrue())

			feeLines := 0
			for _, it := range settled.Items {
				if it.Kind == order.ItemKindInstallmentFee {
					feeLines++
				}
			}
			Expect(feeLines).To(Equal(1))
			Expect(engine.orders.feeCalls).To(Equal(1))
		})

		It("keeps the confirmation when the fee cannot be stored", func() {
			addPendingOrder(100)
			engine.orders.applyFeeError = errors.New("db down")
			engine.gateway.checkoutForm = successfulForm(guid, "115.00", 3)

			result, err := confirm()

			Expect(err).NotTo(HaveOccurred())
			Expect(result.FeeApplied).To(BeFalse())
			Expect(engine.orders.get(guid).PaymentStatus).To(Equal(order.PaymentStatusPaid))
		})
	})
})
