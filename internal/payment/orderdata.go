package payment

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	gatewaytypes "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/paymentgateway"
)

// OrderGatewayMetadata is the gateway-side record kept alongside an order.
type OrderGatewayMetadata struct {
	PaymentID        string            `json:"paymentId"`
	ConversationID   string            `json:"conversationId"`
	Token            string            `json:"token"`
	BasketID         string            `json:"basketId"`
	PaymentStatus    string            `json:"paymentStatus"`
	FraudStatus      int               `json:"fraudStatus"`
	CardType         string            `json:"cardType"`
	CardAssociation  string            `json:"cardAssociation"`
	CardFamily       string            `json:"cardFamily"`
	BinNumber        string            `json:"binNumber"`
	LastFourDigits   string            `json:"lastFourDigits"`
	AuthCode         string            `json:"authCode"`
	Phase            string            `json:"phase"`
	MdStatus         int               `json:"mdStatus"`
	HostReference    string            `json:"hostReference"`
	ItemTransactions []ItemTransaction `json:"itemTransactions"`
}

type ItemTransaction struct {
	ItemID                       string          `json:"itemId"`
	PaymentTransactionID         string          `json:"paymentTransactionId"`
	TransactionStatus            int             `json:"transactionStatus"`
	Price                        decimal.Decimal `json:"price"`
	PaidPrice                    decimal.Decimal `json:"paidPrice"`
	MerchantCommissionRate       decimal.Decimal `json:"merchantCommissionRate"`
	MerchantCommissionRateAmount decimal.Decimal `json:"merchantCommissionRateAmount"`
	IyziCommissionRateAmount     decimal.Decimal `json:"iyziCommissionRateAmount"`
	IyziCommissionFee            decimal.Decimal `json:"iyziCommissionFee"`
	MerchantPayoutAmount         decimal.Decimal `json:"merchantPayoutAmount"`
}

// EncodeOrderData renders m as compact JSON.
func EncodeOrderData(m OrderGatewayMetadata) string {
	if m.ItemTransactions == nil {
		m.ItemTransactions = []ItemTransaction{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeOrderData never fails: empty or unreadable text yields the zero record.
func DecodeOrderData(text string) OrderGatewayMetadata {
	if strings.TrimSpace(text) == "" {
		return OrderGatewayMetadata{}
	}
	var m OrderGatewayMetadata
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return OrderGatewayMetadata{}
	}
	return m
}

// IsZero reports whether nothing was captured.
func (m OrderGatewayMetadata) IsZero() bool {
	return m.Equal(OrderGatewayMetadata{})
}

// Equal compares field by field, treating decimals by value and a nil item
// list as empty.
func (m OrderGatewayMetadata) Equal(o OrderGatewayMetadata) bool {
	if m.PaymentID != o.PaymentID || m.ConversationID != o.ConversationID ||
		m.Token != o.Token || m.BasketID != o.BasketID ||
		m.PaymentStatus != o.PaymentStatus || m.FraudStatus != o.FraudStatus ||
		m.CardType != o.CardType || m.CardAssociation != o.CardAssociation ||
		m.CardFamily != o.CardFamily || m.BinNumber != o.BinNumber ||
		m.LastFourDigits != o.LastFourDigits || m.AuthCode != o.AuthCode ||
		m.Phase != o.Phase || m.MdStatus != o.MdStatus || m.HostReference != o.HostReference {
		return false
	}
	if len(m.ItemTransactions) != len(o.ItemTransactions) {
		return false
	}
	for i := range m.ItemTransactions {
		if !m.ItemTransactions[i].Equal(o.ItemTransactions[i]) {
			return false
		}
	}
	return true
}

func (t ItemTransaction) Equal(o ItemTransaction) bool {
	return t.ItemID == o.ItemID &&
		t.PaymentTransactionID == o.PaymentTransactionID &&
		t.TransactionStatus == o.TransactionStatus &&
		t.Price.Equal(o.Price) &&
		t.PaidPrice.Equal(o.PaidPrice) &&
		t.MerchantCommissionRate.Equal(o.MerchantCommissionRate) &&
		t.MerchantCommissionRateAmount.Equal(o.MerchantCommissionRateAmount) &&
		t.IyziCommissionRateAmount.Equal(o.IyziCommissionRateAmount) &&
		t.IyziCommissionFee.Equal(o.IyziCommissionFee) &&
		t.MerchantPayoutAmount.Equal(o.MerchantPayoutAmount)
}

// MetadataFromCheckoutForm projects a retrieved checkout form onto the stored record.
func MetadataFromCheckoutForm(cf *gatewaytypes.CheckoutForm) OrderGatewayMetadata {
	m := OrderGatewayMetadata{
		PaymentID:       cf.PaymentID,
		ConversationID:  cf.ConversationID,
		Token:           cf.Token,
		BasketID:        cf.BasketID,
		PaymentStatus:   cf.PaymentStatus,
		FraudStatus:     cf.FraudStatus,
		CardType:        cf.CardType,
		CardAssociation: cf.CardAssociation,
		CardFamily:      cf.CardFamily,
		BinNumber:       cf.BinNumber,
		LastFourDigits:  cf.LastFourDigits,
		AuthCode:        cf.AuthCode,
		Phase:           cf.Phase,
		MdStatus:        cf.MdStatus,
		HostReference:   cf.HostReference,
	}
	for _, it := range cf.ItemTransactions {
		m.ItemTransactions = append(m.ItemTransactions, ItemTransaction{
			ItemID:                       it.ItemID,
			PaymentTransactionID:         it.PaymentTransactionID,
			TransactionStatus:            it.TransactionStatus,
			Price:                        decimal.NewFromFloat(it.Price),
			PaidPrice:                    decimal.NewFromFloat(it.PaidPrice),
			MerchantCommissionRate:       decimal.NewFromFloat(it.MerchantCommissionRate),
			MerchantCommissionRateAmount: decimal.NewFromFloat(it.MerchantCommissionRateAmount),
			IyziCommissionRateAmount:     decimal.NewFromFloat(it.IyziCommissionRateAmount),
			IyziCommissionFee:            decimal.NewFromFloat(it.IyziCommissionFee),
			MerchantPayoutAmount:         decimal.NewFromFloat(it.MerchantPayoutAmount),
		})
	}
	return m
}
