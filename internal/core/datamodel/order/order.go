package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusComplete   = "Complete"
	StatusCancelled  = "Cancelled"
)

const (
	PaymentStatusPending  = "Pending"
	PaymentStatusPaid     = "Paid"
	PaymentStatusVoided   = "Voided"
	PaymentStatusRefunded = "Refunded"
)

const (
	ItemKindProduct        = "product"
	ItemKindInstallmentFee = "installment_fee"
)

const PaymentMethodIyzipay = "Payments.Iyzipay"

type Order struct {
	ID                             int64           `gorm:"primaryKey"`
	OrderGUID                      uuid.UUID       `gorm:"column:order_guid;type:uuid;uniqueIndex;not null"`
	CustomerID                     int64           `gorm:"column:customer_id;not null"`
	StoreID                        int64           `gorm:"column:store_id;not null"`
	OrderStatus                    string          `gorm:"column:order_status;not null;default:Pending"`
	PaymentStatus                  string          `gorm:"column:payment_status;not null;default:Pending"`
	PaymentMethod                  string          `gorm:"column:payment_method"`
	CustomerCurrency               string          `gorm:"column:customer_currency"`
	OrderTotal                     decimal.Decimal `gorm:"column:order_total;type:numeric(18,4);not null"`
	AuthorizationTransactionID     string          `gorm:"column:authorization_transaction_id"`
	AuthorizationTransactionResult string          `gorm:"column:authorization_transaction_result"`
	CaptureTransactionID           string          `gorm:"column:capture_transaction_id"`
	CaptureTransactionResult       string          `gorm:"column:capture_transaction_result"`
	PaidAt                         *time.Time      `gorm:"column:paid_at"`
	CreatedAt                      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	Items                          []OrderItem     `gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	ID                   int64           `gorm:"primaryKey"`
	OrderItemGUID        uuid.UUID       `gorm:"column:order_item_guid;type:uuid;not null"`
	OrderID              int64           `gorm:"column:order_id;not null;index"`
	ProductID            int64           `gorm:"column:product_id;not null"`
	Kind                 string          `gorm:"column:kind;not null;default:product"`
	Quantity             int             `gorm:"column:quantity;not null"`
	UnitPriceInclTax     decimal.Decimal `gorm:"column:unit_price_incl_tax;type:numeric(18,4)"`
	UnitPriceExclTax     decimal.Decimal `gorm:"column:unit_price_excl_tax;type:numeric(18,4)"`
	PriceInclTax         decimal.Decimal `gorm:"column:price_incl_tax;type:numeric(18,4)"`
	PriceExclTax         decimal.Decimal `gorm:"column:price_excl_tax;type:numeric(18,4)"`
	AttributeDescription string          `gorm:"column:attribute_description"`
	PaymentReference     string          `gorm:"column:payment_reference;index"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// FirstProductID returns the product id of the first product line, or 0.
func (o *Order) FirstProductID() int64 {
	for _, it := range o.Items {
		if it.Kind == ItemKindProduct || it.Kind == "" {
			return it.ProductID
		}
	}
	return 0
}

// PlaceRequest asks the order service to turn a customer's cart into an order.
type PlaceRequest struct {
	OrderGUID     uuid.UUID
	CustomerID    int64
	StoreID       int64
	PaymentMethod string
	Currency      string
}
