package payment

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/common/validation"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/cart"
	gatewaytypes "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/paymentgateway"
)

const gatewayDateLayout = "2006-01-02 15:04:05"

// Placeholder buyer values the gateway accepts when the customer record is
// incomplete. StrictBuyerValidation turns their use into a rejection.
const (
	placeholderName     = "Müşteri"
	placeholderSurname  = "Adı"
	placeholderGSM      = "+905350000000"
	placeholderEmail    = "customer@example.com"
	placeholderIdentity = "11111111111"
	placeholderAddress  = "Adres bilgisi"
	placeholderCity     = "Istanbul"
	placeholderCountry  = "Turkey"
	placeholderZipCode  = "34000"
	placeholderIP       = "127.0.0.1"

	placeholderProductName = "Ürün"
	placeholderCategory1   = "Kategori"
	placeholderCategory2   = "Alt Kategori"
)

// InitiateCheckout builds the checkout form request from the shopper's cart
// and asks the gateway for a hosted payment form.
func (s *Service) InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = s.settings.PaymentFormMode
	}
	if mode != ModeIframe && mode != ModePopup && mode != ModeRedirect {
		return nil, ErrUnsupportedMode(req.Mode)
	}
	if req.OrderGUID == uuid.Nil {
		return nil, internal.NewValidationError("Invalid OrderGuid format", internal.ErrCodeInvalidOrderGUID)
	}

	customer, err := s.carts.GetCustomer(ctx, req.Shopper.CustomerID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load customer", err)
	}
	if customer == nil {
		return nil, internal.ErrCustomerNotFound
	}

	items, err := s.carts.GetCart(ctx, req.Shopper.CustomerID, req.Shopper.StoreID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load shopping cart", err)
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty("Sepet boş")
	}

	if s.settings.StrictBuyerValidation {
		if appErr := validation.ValidateBuyerContact(customer.Email, customer.Phone); appErr != nil {
			return nil, appErr
		}
	}

	gwReq := s.BuildCheckoutFormRequest(req.OrderGUID, customer, items, req.Shopper.IP)
	if err := gwReq.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	resp, err := s.gateway.CreateCheckoutForm(ctx, gwReq)
	if err != nil {
		s.log(ctx).Error("create checkout form failed", "order_guid", req.OrderGUID.String(), "error", err)
		return nil, ErrRemoteGateway(err.Error(), err)
	}
	if resp == nil || !resp.Succeeded() {
		msg := "Checkout form could not be created"
		if resp != nil && resp.ErrorMessage != "" {
			msg = resp.ErrorMessage
		}
		s.log(ctx).Warn("checkout form rejected by gateway",
			"order_guid", req.OrderGUID.String(),
			"message", msg)
		return nil, ErrRemoteGateway(msg, nil)
	}

	s.log(ctx).Info("checkout form created",
		"order_guid", req.OrderGUID.String(),
		"mode", mode,
		"price", gwReq.Price,
		"token", maskToken(resp.Token))

	return &CheckoutResult{
		Mode:                mode,
		Token:               resp.Token,
		CheckoutFormContent: resp.CheckoutFormContent,
		PaymentPageURL:      resp.PaymentPageURL,
	}, nil
}

// BuildCheckoutFormRequest maps a customer and cart onto the gateway request.
// The order guid is the conversation id and the basket id.
func (s *Service) BuildCheckoutFormRequest(orderGUID uuid.UUID, customer *cart.Customer, items []cart.CartItem, ip string) *gatewaytypes.CheckoutFormInitializeRequest {
	total := decimal.Zero
	basket := make([]gatewaytypes.BasketItem, 0, len(items))
	for _, it := range items {
		line := it.LineTotal()
		total = total.Add(line)
		basket = append(basket, basketItem(it, line))
	}

	buyer := buildBuyer(customer, ip, s.now())
	address := gatewaytypes.Address{
		ContactName: buyer.Name + " " + buyer.Surname,
		City:        buyer.City,
		Country:     buyer.Country,
		ZipCode:     buyer.ZipCode,
	}
	shipping := address
	shipping.Description = "Teslimat adresi"
	billing := address
	billing.Description = "Fatura adresi"

	price := formatAmount(total)
	id := orderGUID.String()
	return &gatewaytypes.CheckoutFormInitializeRequest{
		Locale:              s.settings.GatewayLocale(),
		ConversationID:      id,
		Price:               price,
		PaidPrice:           price,
		Currency:            s.settings.Currency,
		BasketID:            id,
		PaymentGroup:        gatewaytypes.PaymentGroupProduct,
		CallbackURL:         s.settings.CallbackURL,
		EnabledInstallments: s.settings.enabledInstallments(),
		Buyer:               buyer,
		ShippingAddress:     shipping,
		BillingAddress:      billing,
		BasketItems:         basket,
	}
}

func buildBuyer(c *cart.Customer, ip string, now time.Time) gatewaytypes.Buyer {
	lastLogin := now
	if c.LastLoginAt != nil {
		lastLogin = *c.LastLoginAt
	}
	registered := c.CreatedAt
	if registered.IsZero() {
		registered = now
	}
	if ip == "" {
		ip = c.LastIPAddress
	}

	return gatewaytypes.Buyer{
		ID:                  strconv.FormatInt(c.ID, 10),
		Name:                orDefault(c.FirstName, placeholderName),
		Surname:             orDefault(c.LastName, placeholderSurname),
		GsmNumber:           orDefault(c.Phone, placeholderGSM),
		Email:               orDefault(c.Email, placeholderEmail),
		IdentityNumber:      orDefault(c.IdentityNumber, placeholderIdentity),
		LastLoginDate:       lastLogin.Format(gatewayDateLayout),
		RegistrationDate:    registered.Format(gatewayDateLayout),
		RegistrationAddress: placeholderAddress,
		IP:                  orDefault(ip, placeholderIP),
		City:                placeholderCity,
		Country:             placeholderCountry,
		ZipCode:             placeholderZipCode,
	}
}

func basketItem(it cart.CartItem, line decimal.Decimal) gatewaytypes.BasketItem {
	itemType := gatewaytypes.BasketItemPhysical
	if it.Product.IsVirtual {
		itemType = gatewaytypes.BasketItemVirtual
	}
	return gatewaytypes.BasketItem{
		ID:        strconv.FormatInt(it.ProductID, 10),
		Name:      orDefault(it.Product.Name, placeholderProductName),
		Category1: orDefault(it.Product.Category, placeholderCategory1),
		Category2: placeholderCategory2,
		ItemType:  itemType,
		Price:     formatAmount(line),
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
