package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/iyzipay-checkout/internal"
	orderDatamodel "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/order"
)

type Service struct {
	repo   RepositoryAPI
	carts  CartReader
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, carts CartReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		carts:  carts,
		logger: logger,
	}
}

func (s *Service) FindByGUID(ctx context.Context, guid uuid.UUID) (*orderDatamodel.Order, error) {
	return s.repo.GetByGUID(ctx, guid)
}

// PlaceOrder turns the customer's cart into a pending order under the
// requested guid. Placing the same guid twice returns the existing order.
func (s *Service) PlaceOrder(ctx context.Context, req orderDatamodel.PlaceRequest) (*orderDatamodel.Order, error) {
	if req.OrderGUID == uuid.Nil {
		return nil, errors.NewValidationError("order guid is required", errors.ErrCodeInvalidOrderGUID)
	}

	existing, err := s.repo.GetByGUID(ctx, req.OrderGUID)
	if err != nil {
		return nil, fmt.Errorf("lookup order %s: %w", req.OrderGUID, err)
	}
	if existing != nil {
		return existing, nil
	}

	items, err := s.carts.GetCart(ctx, req.CustomerID, req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.NewValidationError("Shopping cart is empty", errors.ErrCodeCartEmpty)
	}

	o := &orderDatamodel.Order{
		OrderGUID:        req.OrderGUID,
		CustomerID:       req.CustomerID,
		StoreID:          req.StoreID,
		OrderStatus:      orderDatamodel.StatusPending,
		PaymentStatus:    orderDatamodel.PaymentStatusPending,
		PaymentMethod:    req.PaymentMethod,
		CustomerCurrency: req.Currency,
	}

	total := decimal.Zero
	for _, it := range items {
		line := it.LineTotal()
		total = total.Add(line)
		o.Items = append(o.Items, orderDatamodel.OrderItem{
			OrderItemGUID:    uuid.New(),
			ProductID:        it.ProductID,
			Kind:             orderDatamodel.ItemKindProduct,
			Quantity:         it.Quantity,
			UnitPriceInclTax: it.Product.Price,
			UnitPriceExclTax: it.Product.Price,
			PriceInclTax:     line,
			PriceExclTax:     line,
		})
	}
	o.OrderTotal = total

	if err := s.repo.CreateFromCart(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order placed",
		"order_id", o.ID,
		"order_guid", o.OrderGUID.String(),
		"customer_id", o.CustomerID,
		"items", len(o.Items),
		"total", o.OrderTotal.StringFixed(2))
	return o, nil
}

func (s *Service) UpdatePayment(ctx context.Context, o *orderDatamodel.Order) error {
	if o == nil || o.ID == 0 {
		return errors.ErrOrderNotFound
	}
	return s.repo.UpdatePayment(ctx, o)
}

// ApplyInstallmentFee appends the fee line and raises the stored total by
// the same amount, then returns the reloaded order.
func (s *Service) ApplyInstallmentFee(ctx context.Context, orderID int64, item *orderDatamodel.OrderItem) (*orderDatamodel.Order, error) {
	if item == nil || !item.PriceInclTax.IsPositive() {
		return nil, errors.NewValidationError("installment fee must be positive", errors.ErrCodeInvalidAmount)
	}
	item.OrderID = orderID
	if item.Kind == "" {
		item.Kind = orderDatamodel.ItemKindInstallmentFee
	}
	if item.OrderItemGUID == uuid.Nil {
		item.OrderItemGUID = uuid.New()
	}

	if err := s.repo.AddItemAndIncreaseTotal(ctx, orderID, item); err != nil {
		return nil, fmt.Errorf("apply installment fee: %w", err)
	}
	return s.repo.GetByID(ctx, orderID)
}

func (s *Service) HasInstallmentFee(ctx context.Context, orderID int64, paymentID string) (bool, error) {
	n, err := s.repo.CountItems(ctx, orderID, orderDatamodel.ItemKindInstallmentFee, paymentID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
