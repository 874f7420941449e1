package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/cart"
)

const seedPassword = "password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo store, customers, products and a filled cart.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			if err := clearSeedData(gormDB); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		if err := seed(gormDB, cfg.Security.BCryptCost, cfg.Server.BaseURL); err != nil {
			log.Fatalf("failed to seed: %v", err)
		}
		fmt.Println("Seeding complete; password for every customer is", seedPassword)
	},
}

func seed(db *gorm.DB, bcryptCost int, storeURL string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		store := cart.Store{Name: "Demo Store", URL: storeURL}
		if err := tx.Where(cart.Store{Name: store.Name}).FirstOrCreate(&store).Error; err != nil {
			return fmt.Errorf("seed store: %w", err)
		}

		shopper, err := seedCustomer(tx, cart.Customer{
			StoreID:        store.ID,
			Email:          "shopper@mail.com",
			FirstName:      "Ayşe",
			LastName:       "Yılmaz",
			Phone:          "+905551112233",
			IdentityNumber: "11111111111",
			PasswordHash:   string(hash),
			IsActive:       true,
		})
		if err != nil {
			return err
		}
		if _, err := seedCustomer(tx, cart.Customer{
			StoreID:      store.ID,
			Email:        "admin@mail.com",
			FirstName:    "Store",
			LastName:     "Admin",
			PasswordHash: string(hash),
			IsActive:     true,
			IsAdmin:      true,
		}); err != nil {
			return err
		}

		products := []cart.Product{
			{Name: "Kitap", Category: "Books", Price: decimal.RequireFromString("40.00")},
			{Name: "Kalem", Category: "Stationery", Price: decimal.RequireFromString("20.00")},
			{Name: "E-Kitap", Category: "Books", Price: decimal.RequireFromString("15.00"), IsVirtual: true},
		}
		for i := range products {
			if err := tx.Where(cart.Product{Name: products[i].Name}).FirstOrCreate(&products[i]).Error; err != nil {
				return fmt.Errorf("seed product %s: %w", products[i].Name, err)
			}
		}

		var count int64
		if err := tx.Model(&cart.CartItem{}).Where("customer_id = ?", shopper.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			fmt.Println("shopper cart already filled")
			return nil
		}
		for i, p := range products {
			item := cart.CartItem{CustomerID: shopper.ID, StoreID: store.ID, ProductID: p.ID, Quantity: i%2 + 1}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("seed cart item: %w", err)
			}
		}
		fmt.Println("Seeded cart for", shopper.Email)
		return nil
	})
}

func seedCustomer(tx *gorm.DB, c cart.Customer) (*cart.Customer, error) {
	var existing cart.Customer
	err := tx.Where("email = ?", c.Email).First(&existing).Error
	if err == nil {
		fmt.Println("customer already exists:", c.Email)
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := tx.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("seed customer %s: %w", c.Email, err)
	}
	fmt.Println("Seeded customer:", c.Email)
	return &c, nil
}

func clearSeedData(db *gorm.DB) error {
	tables := []string{
		"payment_notification_log",
		"order_gateway_metadata",
		"order_items",
		"orders",
		"shopping_cart_items",
		"products",
		"customers",
		"stores",
	}
	for _, t := range tables {
		if err := db.Exec("DELETE FROM " + t).Error; err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	return nil
}
