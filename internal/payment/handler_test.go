package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	apperrors "github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/internal/auth"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/order"
	paymentmodel "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/payment"
	paymentPkg "github.com/frahmantamala/iyzipay-checkout/internal/payment"
	"github.com/frahmantamala/iyzipay-checkout/internal/transport"
	"github.com/frahmantamala/iyzipay-checkout/pkg/logger"
)

type mockPaymentService struct {
	checkoutResult  *paymentPkg.CheckoutResult
	checkoutError   error
	checkoutRequest paymentPkg.CheckoutRequest

	webhookResult    *paymentPkg.WebhookResult
	webhookError     error
	webhookPayload   []byte
	webhookSignature string

	confirmResult  *paymentPkg.ConfirmationResult
	confirmError   error
	confirmRequest paymentPkg.ConfirmationRequest

	refundOrder   *order.Order
	refundError   error
	refundRequest paymentPkg.RefundRequest

	voidOrder *order.Order
	voidError error

	settings paymentPkg.Settings
}

func (m *mockPaymentService) InitiateCheckout(_ context.Context, req paymentPkg.CheckoutRequest) (*paymentPkg.CheckoutResult, error) {
	m.checkoutRequest = req
	return m.checkoutResult, m.checkoutError
}

func (m *mockPaymentService) HandleWebhook(_ context.Context, payload []byte, signature string) (*paymentPkg.WebhookResult, error) {
	m.webhookPayload = payload
	m.webhookSignature = signature
	return m.webhookResult, m.webhookError
}

func (m *mockPaymentService) Confirm(_ context.Context, req paymentPkg.ConfirmationRequest) (*paymentPkg.ConfirmationResult, error) {
	m.confirmRequest = req
	return m.confirmResult, m.confirmError
}

func (m *mockPaymentService) Refund(_ context.Context, req paymentPkg.RefundRequest) (*order.Order, error) {
	m.refundRequest = req
	return m.refundOrder, m.refundError
}

func (m *mockPaymentService) Void(_ context.Context, req paymentPkg.VoidRequest) (*order.Order, error) {
	return m.voidOrder, m.voidError
}

func (m *mockPaymentService) Settings() paymentPkg.Settings {
	return m.settings
}

type mockRecorder struct {
	recorded []*paymentmodel.NotificationLog
	handled  []string
	failed   map[string]string
}

func (m *mockRecorder) Record(_ context.Context, n *paymentmodel.NotificationLog) error {
	m.recorded = append(m.recorded, n)
	return nil
}

func (m *mockRecorder) MarkHandled(_ context.Context, id string) error {
	m.handled = append(m.handled, id)
	return nil
}

func (m *mockRecorder) MarkFailed(_ context.Context, id string, reason string) error {
	m.failed[id] = reason
	return nil
}

func decodeBody(rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
	return body
}

var _ = ginkgo.Describe("PaymentHandler", func() {
	var (
		handler     *paymentPkg.Handler
		mockService *mockPaymentService
		guid        uuid.UUID
	)

	ginkgo.BeforeEach(func() {
		mockService = &mockPaymentService{}
		handler = paymentPkg.NewHandler(transport.NewBaseHandler(quietLogger()), mockService)
		guid = uuid.New()
	})

	postForm := func(target string, form url.Values) *http.Request {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	ginkgo.Describe("ProcessPayment", func() {
		ginkgo.It("returns the form content for iframe mode", func() {
			// Given
			mockService.checkoutResult = &paymentPkg.CheckoutResult{Mode: "iframe", CheckoutFormContent: "<script/>", Token: "t"}
			req := postForm("/api/v1/payments/iyzipay/process", url.Values{"mode": {"iframe"}, "orderGuid": {guid.String()}})
			req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{CustomerID: 7, StoreID: 2}))
			req.Header.Set("X-Forwarded-For", "85.1.2.3, 10.0.0.1")
			rec := httptest.NewRecorder()

			// When
			handler.ProcessPayment(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			body := decodeBody(rec)
			gomega.Expect(body["success"]).To(gomega.BeTrue())
			gomega.Expect(body["checkoutFormContent"]).To(gomega.Equal("<script/>"))
			gomega.Expect(body["token"]).To(gomega.Equal(guid.String()))
			gomega.Expect(mockService.checkoutRequest.Shopper).To(gomega.Equal(paymentPkg.Shopper{CustomerID: 7, StoreID: 2, IP: "85.1.2.3"}))
		})

		ginkgo.It("redirects in redirect mode", func() {
			mockService.checkoutResult = &paymentPkg.CheckoutResult{Mode: "redirect", PaymentPageURL: "https://pay.example.com/form"}
			rec := httptest.NewRecorder()

			handler.ProcessPayment(rec, postForm("/", url.Values{"mode": {"redirect"}, "orderGuid": {guid.String()}}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusFound))
			gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal("https://pay.example.com/form"))
		})

		ginkgo.It("fails when redirect mode has no payment page", func() {
			mockService.checkoutResult = &paymentPkg.CheckoutResult{Mode: "redirect"}
			rec := httptest.NewRecorder()

			handler.ProcessPayment(rec, postForm("/", url.Values{"mode": {"redirect"}, "orderGuid": {guid.String()}}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			body := decodeBody(rec)
			gomega.Expect(body["success"]).To(gomega.BeFalse())
			gomega.Expect(body["message"]).To(gomega.Equal("Payment page is not available"))
		})

		ginkgo.It("reports missing parameters", func() {
			rec := httptest.NewRecorder()

			handler.ProcessPayment(rec, postForm("/", url.Values{"mode": {"iframe"}}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			body := decodeBody(rec)
			gomega.Expect(body["success"]).To(gomega.BeFalse())
			gomega.Expect(body["message"]).To(gomega.Equal("Missing required parameters"))
		})

		ginkgo.It("reports an invalid order guid", func() {
			rec := httptest.NewRecorder()

			handler.ProcessPayment(rec, postForm("/", url.Values{"mode": {"iframe"}, "orderGuid": {"123"}}))

			gomega.Expect(decodeBody(rec)["message"]).To(gomega.Equal("Invalid OrderGuid format"))
		})

		ginkgo.It("passes service messages through with their status", func() {
			mockService.checkoutError = apperrors.ErrCustomerNotFound
			rec := httptest.NewRecorder()

			handler.ProcessPayment(rec, postForm("/", url.Values{"mode": {"iframe"}, "orderGuid": {guid.String()}}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNotFound))
			gomega.Expect(decodeBody(rec)["message"]).To(gomega.Equal("Customer not found"))
		})
	})

	ginkgo.Describe("Confirmation", func() {
		ginkgo.It("redirects to the completed page with the order id", func() {
			mockService.confirmResult = &paymentPkg.ConfirmationResult{OrderID: 42}
			rec := httptest.NewRecorder()

			handler.Confirmation(rec, postForm("/", url.Values{"token": {"tok"}}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusFound))
			gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal("/checkout/completed?orderId=42"))
			gomega.Expect(mockService.confirmRequest.Token).To(gomega.Equal("tok"))
		})

		ginkgo.It("appends to a configured completed url with a query", func() {
			mockService.settings = paymentPkg.Settings{CompletedURL: "https://shop.example.com/done?src=iyzico"}
			mockService.confirmResult = &paymentPkg.ConfirmationResult{OrderID: 42}
			rec := httptest.NewRecorder()

			handler.Confirmation(rec, httptest.NewRequest(http.MethodGet, "/?token=tok", nil))

			gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal("https://shop.example.com/done?src=iyzico&orderId=42"))
		})

		ginkgo.It("returns the service message as 400", func() {
			mockService.confirmError = paymentPkg.ErrPaymentFailed("FAILURE")
			rec := httptest.NewRecorder()

			handler.Confirmation(rec, postForm("/", url.Values{"token": {"tok"}}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(decodeBody(rec)["message"]).To(gomega.Equal("Payment failed. Status: FAILURE"))
		})

		ginkgo.It("logs failures through the request logger", func() {
			// Given
			var buf bytes.Buffer
			requestLogger := slog.New(slog.NewJSONHandler(&buf, nil)).With("trace_id", "trace-123")
			mockService.confirmError = paymentPkg.ErrPaymentFailed("FAILURE")
			req := postForm("/", url.Values{"token": {"tok"}})
			req = req.WithContext(logger.NewContext(req.Context(), requestLogger))
			rec := httptest.NewRecorder()

			// When
			handler.Confirmation(rec, req)

			// Then
			gomega.Expect(buf.String()).To(gomega.ContainSubstring("payment confirmation failed"))
			gomega.Expect(buf.String()).To(gomega.ContainSubstring(`"trace_id":"trace-123"`))
		})

		ginkgo.It("prefixes unexpected errors", func() {
			mockService.confirmError = errors.New("boom")
			rec := httptest.NewRecorder()

			handler.Confirmation(rec, postForm("/", url.Values{"token": {"tok"}}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(decodeBody(rec)["message"]).To(gomega.Equal("Payment confirmation error: boom"))
		})
	})

	ginkgo.Describe("Admin actions", func() {
		var router chi.Router

		ginkgo.BeforeEach(func() {
			router = chi.NewRouter()
			router.Post("/orders/{guid}/refund", handler.RefundOrder)
			router.Post("/orders/{guid}/void", handler.VoidOrder)
		})

		ginkgo.It("refunds the requested amount", func() {
			mockService.refundOrder = &order.Order{ID: 5, OrderGUID: guid, PaymentStatus: order.PaymentStatusRefunded, OrderTotal: decimal.NewFromInt(115)}
			req := httptest.NewRequest(http.MethodPost, "/orders/"+guid.String()+"/refund", bytes.NewBufferString(`{"amount":"15.50"}`))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(mockService.refundRequest.OrderGUID).To(gomega.Equal(guid))
			gomega.Expect(mockService.refundRequest.Amount.Equal(decimal.RequireFromString("15.50"))).To(gomega.BeTrue())
			body := decodeBody(rec)
			gomega.Expect(body["payment_status"]).To(gomega.Equal("Refunded"))
			gomega.Expect(body["order_total"]).To(gomega.Equal("115.00"))
		})

		ginkgo.It("rejects a malformed guid", func() {
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/abc/void", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("maps a missing order to 404", func() {
			mockService.voidError = apperrors.ErrOrderNotFound
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/"+guid.String()+"/void", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})
})

var _ = ginkgo.Describe("WebhookHandler", func() {
	var (
		handler     *paymentPkg.WebhookHandler
		mockService *mockPaymentService
		recorder    *mockRecorder
	)

	ginkgo.BeforeEach(func() {
		mockService = &mockPaymentService{}
		recorder = &mockRecorder{failed: map[string]string{}}
		handler = paymentPkg.NewWebhookHandler(transport.NewBaseHandler(quietLogger()), mockService, recorder)
	})

	ginkgo.It("returns 200 with an empty body and records the delivery as handled", func() {
		mockService.webhookResult = &paymentPkg.WebhookResult{Applied: true}
		body := `{"iyziEventType":"CHECKOUT_FORM_AUTH","iyziPaymentId":123,"paymentConversationId":"conv","status":"SUCCESS"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(paymentPkg.SignatureHeader, "abc")
		rec := httptest.NewRecorder()

		handler.HandleWebhook(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(rec.Body.Len()).To(gomega.Equal(0))
		gomega.Expect(mockService.webhookSignature).To(gomega.Equal("abc"))
		gomega.Expect(string(mockService.webhookPayload)).To(gomega.Equal(body))

		gomega.Expect(recorder.recorded).To(gomega.HaveLen(1))
		entry := recorder.recorded[0]
		gomega.Expect(entry.PaymentID).To(gomega.Equal("123"))
		gomega.Expect(entry.ConversationID).To(gomega.Equal("conv"))
		gomega.Expect(entry.Signature).To(gomega.Equal("abc"))
		gomega.Expect(recorder.handled).To(gomega.ConsistOf(entry.ID))
	})

	ginkgo.It("returns 400 with the message and records the failure", func() {
		mockService.webhookError = paymentPkg.ErrInvalidSignature()
		rec := httptest.NewRecorder()

		handler.HandleWebhook(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(decodeBody(rec)["message"]).To(gomega.Equal("Invalid signature"))
		gomega.Expect(recorder.failed).To(gomega.HaveLen(1))
	})

	ginkgo.It("keeps non-JSON bodies in the log", func() {
		mockService.webhookError = paymentPkg.ErrMalformedPayload(errors.New("bad json"))
		rec := httptest.NewRecorder()

		handler.HandleWebhook(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("status=SUCCESS")))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(string(recorder.recorded[0].Payload)).To(gomega.Equal(`"status=SUCCESS"`))
	})

	ginkgo.It("works without a recorder", func() {
		mockService.webhookResult = &paymentPkg.WebhookResult{}
		bare := paymentPkg.NewWebhookHandler(nil, mockService, nil)
		rec := httptest.NewRecorder()

		bare.HandleWebhook(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})
})
