package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/cart"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/order"
	gatewaytypes "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/events"
)

// OrderService is the order store the engine mutates but does not own.
type OrderService interface {
	// FindByGUID returns nil, nil when no order carries the guid.
	FindByGUID(ctx context.Context, guid uuid.UUID) (*order.Order, error)
	PlaceOrder(ctx context.Context, req order.PlaceRequest) (*order.Order, error)
	UpdatePayment(ctx context.Context, o *order.Order) error
	// ApplyInstallmentFee inserts the fee line and raises the order total in
	// one transaction, returning the updated order.
	ApplyInstallmentFee(ctx context.Context, orderID int64, item *order.OrderItem) (*order.Order, error)
	HasInstallmentFee(ctx context.Context, orderID int64, paymentID string) (bool, error)
}

type CartService interface {
	GetCustomer(ctx context.Context, customerID int64) (*cart.Customer, error)
	GetCart(ctx context.Context, customerID, storeID int64) ([]cart.CartItem, error)
}

type MetadataStore interface {
	// Get returns "" when nothing is stored for the order.
	Get(ctx context.Context, orderID int64) (string, error)
	Save(ctx context.Context, orderID int64, data string) error
}

type Gateway interface {
	CreateCheckoutForm(ctx context.Context, req *gatewaytypes.CheckoutFormInitializeRequest) (*gatewaytypes.CheckoutFormInitialize, error)
	RetrieveCheckoutForm(ctx context.Context, req *gatewaytypes.RetrieveCheckoutFormRequest) (*gatewaytypes.CheckoutForm, error)
	CreateRefund(ctx context.Context, req *gatewaytypes.CreateRefundRequest) (*gatewaytypes.Refund, error)
	CreateCancel(ctx context.Context, req *gatewaytypes.CreateCancelRequest) (*gatewaytypes.Cancel, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ServiceAPI is what the HTTP handlers and the replay worker depend on.
type ServiceAPI interface {
	InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
	Confirm(ctx context.Context, req ConfirmationRequest) (*ConfirmationResult, error)
	Refund(ctx context.Context, req RefundRequest) (*order.Order, error)
	Void(ctx context.Context, req VoidRequest) (*order.Order, error)
	Settings() Settings
}

// Shopper identifies the browsing customer, store and client address.
type Shopper struct {
	CustomerID int64
	StoreID    int64
	IP         string
}

type CheckoutRequest struct {
	OrderGUID uuid.UUID
	Mode      string
	Shopper   Shopper
}

type CheckoutResult struct {
	Mode                string `json:"mode"`
	Token               string `json:"token"`
	CheckoutFormContent string `json:"checkoutFormContent"`
	PaymentPageURL      string `json:"paymentPageUrl"`
}

type WebhookResult struct {
	Fields        WebhookFields
	Signed        bool
	OrderID       int64
	PaymentStatus string
	Applied       bool
}

type ConfirmationRequest struct {
	Token   string
	Shopper Shopper
}

type ConfirmationResult struct {
	OrderID        int64
	OrderGUID      uuid.UUID
	TransactionID  string
	OrderPlaced    bool
	InstallmentFee decimal.Decimal
	FeeApplied     bool
}

type RefundRequest struct {
	OrderGUID uuid.UUID
	Amount    decimal.Decimal
	IP        string
}

type VoidRequest struct {
	OrderGUID uuid.UUID
	IP        string
}
