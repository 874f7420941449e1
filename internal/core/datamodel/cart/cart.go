package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

type Store struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	URL       string    `gorm:"column:url"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

type Customer struct {
	ID             int64      `gorm:"primaryKey"`
	StoreID        int64      `gorm:"column:store_id;not null"`
	Email          string     `gorm:"column:email;uniqueIndex;not null"`
	FirstName      string     `gorm:"column:first_name"`
	LastName       string     `gorm:"column:last_name"`
	Phone          string     `gorm:"column:phone"`
	IdentityNumber string     `gorm:"column:identity_number"`
	PasswordHash   string     `gorm:"column:password_hash;not null"`
	IsActive       bool       `gorm:"column:is_active;default:true"`
	IsAdmin        bool       `gorm:"column:is_admin;default:false"`
	LastIPAddress  string     `gorm:"column:last_ip_address"`
	LastLoginAt    *time.Time `gorm:"column:last_login_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

type Product struct {
	ID        int64           `gorm:"primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Category  string          `gorm:"column:category"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(18,4);not null"`
	IsVirtual bool            `gorm:"column:is_virtual;default:false"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

type CartItem struct {
	ID         int64     `gorm:"primaryKey"`
	CustomerID int64     `gorm:"column:customer_id;not null;index"`
	StoreID    int64     `gorm:"column:store_id;not null"`
	ProductID  int64     `gorm:"column:product_id;not null"`
	Quantity   int       `gorm:"column:quantity;not null"`
	Product    Product   `gorm:"foreignKey:ProductID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartItem) TableName() string { return "shopping_cart_items" }

// LineTotal is the unit price times quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
