package paymentgateway

import (
	"errors"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"

	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailure = "FAILURE"

	PaymentGroupProduct = "PRODUCT"
	BasketItemPhysical  = "PHYSICAL"
	BasketItemVirtual   = "VIRTUAL"

	LocaleTR = "tr"
	LocaleEN = "en"
)

// Response carries the envelope every gateway operation returns.
type Response struct {
	Status         string `json:"status"`
	ErrorCode      string `json:"errorCode,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	ErrorGroup     string `json:"errorGroup,omitempty"`
	Locale         string `json:"locale,omitempty"`
	SystemTime     int64  `json:"systemTime,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

func (r Response) Succeeded() bool {
	return r.Status == StatusSuccess
}

type Buyer struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Surname             string `json:"surname"`
	GsmNumber           string `json:"gsmNumber,omitempty"`
	Email               string `json:"email"`
	IdentityNumber      string `json:"identityNumber"`
	LastLoginDate       string `json:"lastLoginDate,omitempty"`
	RegistrationDate    string `json:"registrationDate,omitempty"`
	RegistrationAddress string `json:"registrationAddress"`
	IP                  string `json:"ip"`
	City                string `json:"city"`
	Country             string `json:"country"`
	ZipCode             string `json:"zipCode,omitempty"`
}

type Address struct {
	ContactName string `json:"contactName"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Description string `json:"address"`
	ZipCode     string `json:"zipCode,omitempty"`
}

type BasketItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category1 string `json:"category1"`
	Category2 string `json:"category2,omitempty"`
	ItemType  string `json:"itemType"`
	Price     string `json:"price"`
}

type CheckoutFormInitializeRequest struct {
	Locale              string       `json:"locale"`
	ConversationID      string       `json:"conversationId"`
	Price               string       `json:"price"`
	PaidPrice           string       `json:"paidPrice"`
	Currency            string       `json:"currency"`
	BasketID            string       `json:"basketId"`
	PaymentGroup        string       `json:"paymentGroup"`
	CallbackURL         string       `json:"callbackUrl"`
	EnabledInstallments []int        `json:"enabledInstallments,omitempty"`
	Buyer               Buyer        `json:"buyer"`
	ShippingAddress     Address      `json:"shippingAddress"`
	BillingAddress      Address      `json:"billingAddress"`
	BasketItems         []BasketItem `json:"basketItems"`
}

func (r *CheckoutFormInitializeRequest) Validate() error {
	if r.ConversationID == "" {
		return errors.New("conversationId is required")
	}
	if r.Price == "" || r.PaidPrice == "" {
		return errors.New("price and paidPrice are required")
	}
	if r.CallbackURL == "" {
		return errors.New("callbackUrl is required")
	}
	if len(r.BasketItems) == 0 {
		return errors.New("at least one basket item is required")
	}
	return nil
}

type CheckoutFormInitialize struct {
	Response
	Token               string `json:"token"`
	CheckoutFormContent string `json:"checkoutFormContent"`
	TokenExpireTime     int64  `json:"tokenExpireTime"`
	PaymentPageURL      string `json:"paymentPageUrl"`
}

type RetrieveCheckoutFormRequest struct {
	Locale         string `json:"locale"`
	ConversationID string `json:"conversationId,omitempty"`
	Token          string `json:"token"`
}

type ItemTransaction struct {
	ItemID                       string  `json:"itemId"`
	PaymentTransactionID         string  `json:"paymentTransactionId"`
	TransactionStatus            int     `json:"transactionStatus"`
	Price                        float64 `json:"price"`
	PaidPrice                    float64 `json:"paidPrice"`
	MerchantCommissionRate       float64 `json:"merchantCommissionRate"`
	MerchantCommissionRateAmount float64 `json:"merchantCommissionRateAmount"`
	IyziCommissionRateAmount     float64 `json:"iyziCommissionRateAmount"`
	IyziCommissionFee            float64 `json:"iyziCommissionFee"`
	MerchantPayoutAmount         float64 `json:"merchantPayoutAmount"`
}

// CheckoutForm is the retrieved result of a completed hosted checkout.
// Amounts stay textual so the caller controls parsing.
type CheckoutForm struct {
	Response
	Token            string            `json:"token"`
	PaymentID        string            `json:"paymentId"`
	PaymentStatus    string            `json:"paymentStatus"`
	FraudStatus      int               `json:"fraudStatus"`
	Price            JSONNumber        `json:"price"`
	PaidPrice        JSONNumber        `json:"paidPrice"`
	Currency         string            `json:"currency"`
	Installment      int               `json:"installment"`
	BasketID         string            `json:"basketId"`
	BinNumber        string            `json:"binNumber"`
	LastFourDigits   string            `json:"lastFourDigits"`
	CardType         string            `json:"cardType"`
	CardAssociation  string            `json:"cardAssociation"`
	CardFamily       string            `json:"cardFamily"`
	AuthCode         string            `json:"authCode"`
	Phase            string            `json:"phase"`
	MdStatus         int               `json:"mdStatus"`
	HostReference    string            `json:"hostReference"`
	CallbackURL      string            `json:"callbackUrl"`
	ItemTransactions []ItemTransaction `json:"itemTransactions"`
}

type CreateRefundRequest struct {
	Locale         string `json:"locale"`
	ConversationID string `json:"conversationId"`
	PaymentID      string `json:"paymentId"`
	Price          string `json:"price"`
	Currency       string `json:"currency"`
	IP             string `json:"ip"`
}

type Refund struct {
	Response
	PaymentID            string     `json:"paymentId"`
	PaymentTransactionID string     `json:"paymentTransactionId"`
	Price                JSONNumber `json:"price"`
	Currency             string     `json:"currency"`
}

type CreateCancelRequest struct {
	Locale         string `json:"locale"`
	ConversationID string `json:"conversationId"`
	PaymentID      string `json:"paymentId"`
	IP             string `json:"ip"`
	Reason         string `json:"reason,omitempty"`
	Description    string `json:"description,omitempty"`
}

type Cancel struct {
	Response
	PaymentID string     `json:"paymentId"`
	Price     JSONNumber `json:"price"`
	Currency  string     `json:"currency"`
}
