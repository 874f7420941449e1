package payment_test

import (
	"context"
	"errors"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/cart"
	gatewaytypes "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/paymentgateway"
	paymentPkg "github.com/frahmantamala/iyzipay-checkout/internal/payment"
)

var _ = Describe("InitiateCheckout", func() {
	var (
		engine  *testEngine
		ctx     context.Context
		guid    uuid.UUID
		request paymentPkg.CheckoutRequest
	)

	BeforeEach(func() {
		ctx = context.Background()
		engine = newTestEngine(paymentPkg.Settings{
			EnableInstallments:  true,
			MaxInstallmentCount: 6,
			CallbackURL:         "https://shop.example.com/api/v1/payments/iyzipay/confirmation",
		})
		guid = uuid.New()
		engine.carts.customer = &cart.Customer{ID: 1, StoreID: 1, Email: "shopper@example.com", FirstName: "Ayşe"}
		engine.carts.items = []cart.CartItem{
			product(10, "Book", "40.00", 2),
			product(11, "", "20.00", 1),
		}
		engine.carts.items[1].Product.IsVirtual = true
		engine.gateway.initResponse = &gatewaytypes.CheckoutFormInitialize{
			Response:            gatewaytypes.Response{Status: gatewaytypes.StatusSuccess},
			Token:               "form-token-123",
			CheckoutFormContent: "<script>iyzi</script>",
			PaymentPageURL:      "https://sandbox-cpp.iyzipay.com?token=form-token-123",
		}
		request = paymentPkg.CheckoutRequest{
			OrderGUID: guid,
			Mode:      "iframe",
			Shopper:   paymentPkg.Shopper{CustomerID: 1, StoreID: 1, IP: "10.0.0.1"},
		}
	})

	It("creates a hosted form for the cart", func() {
		result, err := engine.service.InitiateCheckout(ctx, request)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Mode).To(Equal(paymentPkg.ModeIframe))
		Expect(result.Token).To(Equal("form-token-123"))
		Expect(result.CheckoutFormContent).To(Equal("<script>iyzi</script>"))

		req := engine.gateway.initRequest
		Expect(req.ConversationID).To(Equal(guid.String()))
		Expect(req.BasketID).To(Equal(guid.String()))
		Expect(req.Price).To(Equal("100.00"))
		Expect(req.PaidPrice).To(Equal("100.00"))
		Expect(req.Currency).To(Equal("TRY"))
		Expect(req.Locale).To(Equal(gatewaytypes.LocaleTR))
		Expect(req.CallbackURL).To(Equal("https://shop.example.com/api/v1/payments/iyzipay/confirmation"))
		Expect(req.EnabledInstallments).To(Equal([]int{1, 2, 3, 4, 5, 6}))
	})

	It("fills the buyer with placeholders where the customer record is incomplete", func() {
		_, err := engine.service.InitiateCheckout(ctx, request)
		Expect(err).NotTo(HaveOccurred())

		buyer := engine.gateway.initRequest.Buyer
		Expect(buyer.ID).To(Equal("1"))
		Expect(buyer.Name).To(Equal("Ayşe"))
		Expect(buyer.Surname).To(Equal("Adı"))
		Expect(buyer.GsmNumber).To(Equal("+905350000000"))
		Expect(buyer.IdentityNumber).To(Equal("11111111111"))
		Expect(buyer.IP).To(Equal("10.0.0.1"))
		Expect(buyer.City).To(Equal("Istanbul"))
	})

	It("maps cart lines onto basket items", func() {
		_, err := engine.service.InitiateCheckout(ctx, request)
		Expect(err).NotTo(HaveOccurred())

		items := engine.gateway.initRequest.BasketItems
		Expect(items).To(HaveLen(2))
		Expect(items[0].ID).To(Equal("10"))
		Expect(items[0].Price).To(Equal("80.00"))
		Expect(items[0].ItemType).To(Equal(gatewaytypes.BasketItemPhysical))
		Expect(items[1].Name).To(Equal("Ürün"))
		Expect(items[1].ItemType).To(Equal(gatewaytypes.BasketItemVirtual))
	})

	It("uses the configured mode when none is given", func() {
		request.Mode = ""

		result, err := engine.service.InitiateCheckout(ctx, request)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Mode).To(Equal(paymentPkg.ModeIframe))
	})

	It("rejects an unsupported mode before calling the gateway", func() {
		request.Mode = "embedded"

		_, err := engine.service.InitiateCheckout(ctx, request)

		Expect(err).To(MatchError("Unsupported payment mode: embedded"))
		Expect(engine.gateway.initCalls).To(Equal(0))
	})

	It("rejects an empty order guid", func() {
		request.OrderGUID = uuid.Nil

		_, err := engine.service.InitiateCheckout(ctx, request)

		Expect(err).To(MatchError("Invalid OrderGuid format"))
	})

	It("requires a known customer", func() {
		request.Shopper.CustomerID = 0

		_, err := engine.service.InitiateCheckout(ctx, request)

		Expect(err).To(MatchError("Customer not found"))
		Expect(engine.gateway.initCalls).To(Equal(0))
	})

	It("refuses an empty cart without calling the gateway", func() {
		engine.carts.items = nil

		_, err := engine.service.InitiateCheckout(ctx, request)

		Expect(err).To(MatchError("Sepet boş"))
		Expect(apperrors.HasCode(err, apperrors.ErrCodeCartEmpty)).To(BeTrue())
		Expect(engine.gateway.initCalls).To(Equal(0))
	})

	It("enforces buyer contact details in strict mode", func() {
		strict := newTestEngine(paymentPkg.Settings{StrictBuyerValidation: true, CallbackURL: "https://shop.example.com/cb"})
		strict.carts.customer = engine.carts.customer
		strict.carts.items = engine.carts.items

		_, err := strict.service.InitiateCheckout(ctx, request)

		Expect(apperrors.HasCode(err, apperrors.ErrCodeBuyerIncomplete)).To(BeTrue())
		Expect(strict.gateway.initCalls).To(Equal(0))
	})

	It("passes the gateway's rejection message through", func() {
		engine.gateway.initResponse = &gatewaytypes.CheckoutFormInitialize{
			Response: gatewaytypes.Response{Status: gatewaytypes.StatusFailure, ErrorMessage: "Geçersiz imza"},
		}

		_, err := engine.service.InitiateCheckout(ctx, request)

		Expect(err).To(MatchError("Geçersiz imza"))
		Expect(apperrors.HasCode(err, apperrors.ErrCodeRemoteGateway)).To(BeTrue())
	})

	It("reports a transport failure", func() {
		engine.gateway.initResponse = nil
		engine.gateway.initError = errors.New("timeout")

		_, err := engine.service.InitiateCheckout(ctx, request)

		Expect(apperrors.HasCode(err, apperrors.ErrCodeRemoteGateway)).To(BeTrue())
	})
})
