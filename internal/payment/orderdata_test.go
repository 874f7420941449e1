package payment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	gatewaytypes "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/paymentgateway"
	paymentPkg "github.com/frahmantamala/iyzipay-checkout/internal/payment"
)

var _ = Describe("Order data codec", func() {
	full := func() paymentPkg.OrderGatewayMetadata {
		return paymentPkg.OrderGatewayMetadata{
			PaymentID:       "22416035",
			ConversationID:  "9b2f1a2e-6a7c-4a47-9d0e-0a9a1c1e2f3b",
			Token:           "tok",
			BasketID:        "9b2f1a2e-6a7c-4a47-9d0e-0a9a1c1e2f3b",
			PaymentStatus:   "SUCCESS",
			FraudStatus:     1,
			CardType:        "CREDIT_CARD",
			CardAssociation: "MASTER_CARD",
			CardFamily:      "Bonus",
			BinNumber:       "554960",
			LastFourDigits:  "0008",
			AuthCode:        "123456",
			Phase:           "AUTH",
			MdStatus:        1,
			HostReference:   "mock00001iyzihostrfn",
			ItemTransactions: []paymentPkg.ItemTransaction{{
				ItemID:                       "10",
				PaymentTransactionID:         "23733465",
				TransactionStatus:            2,
				Price:                        decimal.RequireFromString("100.00"),
				PaidPrice:                    decimal.RequireFromString("115.00"),
				MerchantCommissionRate:       decimal.RequireFromString("15.00"),
				MerchantCommissionRateAmount: decimal.RequireFromString("15.00"),
				IyziCommissionRateAmount:     decimal.RequireFromString("3.1395"),
				IyziCommissionFee:            decimal.RequireFromString("0.25"),
				MerchantPayoutAmount:         decimal.RequireFromString("111.6105"),
			}},
		}
	}

	It("round trips every field", func() {
		m := full()

		decoded := paymentPkg.DecodeOrderData(paymentPkg.EncodeOrderData(m))

		Expect(decoded.Equal(m)).To(BeTrue())
	})

	It("round trips the zero record", func() {
		decoded := paymentPkg.DecodeOrderData(paymentPkg.EncodeOrderData(paymentPkg.OrderGatewayMetadata{}))

		Expect(decoded.IsZero()).To(BeTrue())
	})

	DescribeTable("decodes absent or corrupt input to the zero record",
		func(text string) {
			Expect(paymentPkg.DecodeOrderData(text).IsZero()).To(BeTrue())
		},
		Entry("empty", ""),
		Entry("blank", "   "),
		Entry("not json", "<xml/>"),
		Entry("truncated", `{"paymentId":"1"`),
		Entry("wrong shape", `[1,2,3]`),
	)

	It("notices a changed item amount", func() {
		a := full()
		b := full()
		b.ItemTransactions[0].PaidPrice = decimal.RequireFromString("115.01")

		Expect(a.Equal(b)).To(BeFalse())
	})

	It("projects a retrieved checkout form", func() {
		cf := &gatewaytypes.CheckoutForm{
			Token:          "tok",
			PaymentID:      "22416035",
			PaymentStatus:  "SUCCESS",
			BasketID:       "basket",
			AuthCode:       "123456",
			LastFourDigits: "0008",
			ItemTransactions: []gatewaytypes.ItemTransaction{
				{ItemID: "10", PaymentTransactionID: "1", Price: 100, PaidPrice: 115},
			},
		}
		cf.ConversationID = "conv"

		m := paymentPkg.MetadataFromCheckoutForm(cf)

		Expect(m.PaymentID).To(Equal("22416035"))
		Expect(m.ConversationID).To(Equal("conv"))
		Expect(m.AuthCode).To(Equal("123456"))
		Expect(m.ItemTransactions).To(HaveLen(1))
		Expect(m.ItemTransactions[0].PaidPrice.Equal(decimal.NewFromInt(115))).To(BeTrue())
	})
})
