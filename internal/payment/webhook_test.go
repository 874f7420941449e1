package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	apperrors "github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/order"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/events"
	paymentPkg "github.com/frahmantamala/iyzipay-checkout/internal/payment"
	"github.com/frahmantamala/iyzipay-checkout/pkg/logger"
)

func webhookBody(guid, status, token string) []byte {
	b, _ := json.Marshal(map[string]interface{}{
		"iyziEventType":         "CHECKOUT_FORM_AUTH",
		"iyziPaymentId":         22416035,
		"token":                 token,
		"paymentConversationId": guid,
		"status":                status,
	})
	return b
}

func signFor(guid, status, token string) string {
	return paymentPkg.ComputeSignature(paymentPkg.WebhookFields{
		EventType:      "CHECKOUT_FORM_AUTH",
		PaymentID:      "22416035",
		Token:          token,
		ConversationID: guid,
		Status:         status,
	}, testSecret)
}

var _ = Describe("HandleWebhook", func() {
	var (
		engine *testEngine
		ctx    context.Context
		guid   uuid.UUID
	)

	BeforeEach(func() {
		ctx = context.Background()
		engine = newTestEngine(paymentPkg.Settings{OrderStatusAfterPayment: order.StatusProcessing})
		guid = uuid.New()
		engine.orders.add(&order.Order{
			OrderGUID:     guid,
			OrderStatus:   order.StatusPending,
			PaymentStatus: order.PaymentStatusPending,
			OrderTotal:    decimal.NewFromInt(100),
		})
	})

	Context("with a signature", func() {
		It("marks the order paid with the configured order status", func() {
			body := webhookBody(guid.String(), "SUCCESS", "tok")

			result, err := engine.service.HandleWebhook(ctx, body, signFor(guid.String(), "SUCCESS", "tok"))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Applied).To(BeTrue())
			Expect(result.Signed).To(BeTrue())
			Expect(result.Fields.PaymentID).To(Equal("22416035"))

			o := engine.orders.get(guid)
			Expect(o.PaymentStatus).To(Equal(order.PaymentStatusPaid))
			Expect(o.OrderStatus).To(Equal(order.StatusProcessing))
			Expect(engine.publisher.ofType(events.EventTypePaymentSettled)).To(HaveLen(1))
		})

		It("logs through the logger carried by the context", func() {
			var buf bytes.Buffer
			scoped := slog.New(slog.NewJSONHandler(&buf, nil)).With("trace_id", "trace-abc")
			scopedCtx := logger.NewContext(ctx, scoped)

			_, err := engine.service.HandleWebhook(scopedCtx, webhookBody(guid.String(), "SUCCESS", "tok"), signFor(guid.String(), "SUCCESS", "tok"))

			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("webhook applied"))
			Expect(buf.String()).To(ContainSubstring(`"trace_id":"trace-abc"`))
		})

		It("accepts an upper-case signature", func() {
			sig := strings.ToUpper(signFor(guid.String(), "SUCCESS", "tok"))

			_, err := engine.service.HandleWebhook(ctx, webhookBody(guid.String(), "SUCCESS", "tok"), sig)

			Expect(err).NotTo(HaveOccurred())
			Expect(engine.orders.get(guid).PaymentStatus).To(Equal(order.PaymentStatusPaid))
		})

		It("rejects a bad signature without touching the order", func() {
			sig := signFor(guid.String(), "FAILURE", "tok")

			_, err := engine.service.HandleWebhook(ctx, webhookBody(guid.String(), "SUCCESS", "tok"), sig)

			Expect(err).To(MatchError("Invalid signature"))
			Expect(apperrors.HasCode(err, apperrors.ErrCodeInvalidSignature)).To(BeTrue())
			Expect(engine.orders.get(guid).PaymentStatus).To(Equal(order.PaymentStatusPending))
			Expect(engine.orders.updateCalls).To(Equal(0))
		})

		It("voids and cancels on a failed payment", func() {
			_, err := engine.service.HandleWebhook(ctx, webhookBody(guid.String(), "FAILURE", "tok"), signFor(guid.String(), "FAILURE", "tok"))

			Expect(err).NotTo(HaveOccurred())
			o := engine.orders.get(guid)
			Expect(o.PaymentStatus).To(Equal(order.PaymentStatusVoided))
			Expect(o.OrderStatus).To(Equal(order.StatusCancelled))
			Expect(engine.publisher.ofType(events.EventTypePaymentVoided)).To(HaveLen(1))
		})

		It("treats a duplicate delivery as a no-op", func() {
			body := webhookBody(guid.String(), "SUCCESS", "tok")
			sig := signFor(guid.String(), "SUCCESS", "tok")

			first, err := engine.service.HandleWebhook(ctx, body, sig)
			Expect(err).NotTo(HaveOccurred())
			second, err := engine.service.HandleWebhook(ctx, body, sig)
			Expect(err).NotTo(HaveOccurred())

			Expect(first.Applied).To(BeTrue())
			Expect(second.Applied).To(BeFalse())
			Expect(second.PaymentStatus).To(Equal(order.PaymentStatusPaid))
			Expect(engine.orders.updateCalls).To(Equal(1))
			Expect(engine.publisher.ofType(events.EventTypePaymentSettled)).To(HaveLen(1))
		})

		It("leaves a settled order alone on a repeated success", func() {
			settled := uuid.New()
			engine.orders.add(&order.Order{
				OrderGUID:     settled,
				OrderStatus:   order.StatusComplete,
				PaymentStatus: order.PaymentStatusPaid,
			})

			result, err := engine.service.HandleWebhook(ctx, webhookBody(settled.String(), "SUCCESS", "tok"), signFor(settled.String(), "SUCCESS", "tok"))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Applied).To(BeFalse())
			Expect(engine.orders.get(settled).OrderStatus).To(Equal(order.StatusComplete))
		})
	})

	Context("without a signature", func() {
		It("requires a token", func() {
			_, err := engine.service.HandleWebhook(ctx, webhookBody(guid.String(), "SUCCESS", ""), "")

			Expect(err).To(MatchError("Missing required parameters"))
			Expect(engine.orders.updateCalls).To(Equal(0))
		})

		It("trusts the delivered status", func() {
			_, err := engine.service.HandleWebhook(ctx, webhookBody(guid.String(), "SUCCESS", "tok"), "")

			Expect(err).NotTo(HaveOccurred())
			Expect(engine.orders.get(guid).PaymentStatus).To(Equal(order.PaymentStatusPaid))
		})

		It("defaults a missing status to failure", func() {
			body := []byte(fmt.Sprintf(`{"token":"tok","paymentConversationId":%q}`, guid.String()))

			result, err := engine.service.HandleWebhook(ctx, body, "")

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Fields.Status).To(Equal("FAILURE"))
			Expect(engine.orders.get(guid).PaymentStatus).To(Equal(order.PaymentStatusVoided))
		})

		It("is refused when signatures are required", func() {
			strict := newTestEngine(paymentPkg.Settings{RequireWebhookSignature: true})

			_, err := strict.service.HandleWebhook(ctx, webhookBody(guid.String(), "SUCCESS", "tok"), "")

			Expect(apperrors.HasCode(err, apperrors.ErrCodeInvalidSignature)).To(BeTrue())
		})
	})

	DescribeTable("rejects a body that is not a single JSON object",
		func(body string) {
			_, err := engine.service.HandleWebhook(ctx, []byte(body), "")

			Expect(apperrors.HasCode(err, apperrors.ErrCodeMalformedPayload)).To(BeTrue())
			Expect(engine.orders.updateCalls).To(Equal(0))
		},
		Entry("form encoded", "status=SUCCESS"),
		Entry("trailing junk", `{"token":"t","status":"SUCCESS"} trailing-junk`),
		Entry("two objects", `{"status":"SUCCESS"}{"status":"FAILURE"}`),
		Entry("json array", `[{"status":"SUCCESS"}]`),
		Entry("null", `null`),
	)

	It("tolerates trailing whitespace after the object", func() {
		fields, err := paymentPkg.ParseWebhookPayload([]byte("{\"status\":\"SUCCESS\"}\n  "))

		Expect(err).NotTo(HaveOccurred())
		Expect(fields).To(HaveKeyWithValue("status", "SUCCESS"))
	})

	It("accepts a conversation id that is not an order guid without changes", func() {
		body := webhookBody("not-a-guid", "SUCCESS", "tok")

		result, err := engine.service.HandleWebhook(ctx, body, signFor("not-a-guid", "SUCCESS", "tok"))

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Applied).To(BeFalse())
		Expect(engine.orders.updateCalls).To(Equal(0))
	})

	It("accepts a notification for an unknown order", func() {
		unknown := uuid.New().String()

		result, err := engine.service.HandleWebhook(ctx, webhookBody(unknown, "SUCCESS", "tok"), signFor(unknown, "SUCCESS", "tok"))

		Expect(err).NotTo(HaveOccurred())
		Expect(result.OrderID).To(BeZero())
		Expect(result.Applied).To(BeFalse())
	})

	It("surfaces order store failures", func() {
		engine.orders.updateError = fmt.Errorf("db down")

		_, err := engine.service.HandleWebhook(ctx, webhookBody(guid.String(), "SUCCESS", "tok"), signFor(guid.String(), "SUCCESS", "tok"))

		appErr, ok := apperrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(apperrors.ErrorTypeInternal))
	})
})
