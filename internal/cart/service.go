package cart

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/iyzipay-checkout/internal"
	cartDatamodel "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/cart"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetCustomer(ctx context.Context, customerID int64) (*cartDatamodel.Customer, error) {
	if customerID <= 0 {
		return nil, nil
	}
	return s.repo.GetCustomer(ctx, customerID)
}

// GetCart returns the shopping cart lines of a customer in a store. An
// anonymous shopper has an empty cart.
func (s *Service) GetCart(ctx context.Context, customerID, storeID int64) ([]cartDatamodel.CartItem, error) {
	if customerID <= 0 {
		return nil, nil
	}
	items, err := s.repo.ListItems(ctx, customerID, storeID)
	if err != nil {
		s.logger.Error("failed to load cart", "customer_id", customerID, "store_id", storeID, "error", err)
		return nil, err
	}
	return items, nil
}

func (s *Service) AddItem(ctx context.Context, item *cartDatamodel.CartItem) error {
	if item.Quantity <= 0 {
		return errors.NewValidationFieldError("quantity", "quantity must be positive", errors.ErrCodeValidationFailed)
	}
	return s.repo.AddItem(ctx, item)
}
