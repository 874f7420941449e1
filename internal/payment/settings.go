package payment

import (
	"strings"
	"time"

	"github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/order"
	gatewaytypes "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/paymentgateway"
)

const (
	ModeIframe   = "iframe"
	ModePopup    = "popup"
	ModeRedirect = "redirect"

	ConfirmationPath = "/api/v1/payments/iyzipay/confirmation"
)

// Settings is the immutable merchant configuration the engine runs with.
type Settings struct {
	SecretKey               string
	Locale                  string
	Currency                string
	EnableInstallments      bool
	MaxInstallmentCount     int
	OrderStatusAfterPayment string
	PaymentFormMode         string
	RequireWebhookSignature bool
	StrictBuyerValidation   bool
	CancelWindow            time.Duration
	CallbackURL             string
	CompletedURL            string
}

func NewSettings(cfg internal.IyzipayConfig, storeBaseURL string) Settings {
	s := Settings{
		SecretKey:               cfg.SecretKey,
		Locale:                  cfg.Locale,
		Currency:                cfg.Currency,
		EnableInstallments:      cfg.EnableInstallments,
		MaxInstallmentCount:     cfg.MaxInstallmentCount,
		OrderStatusAfterPayment: cfg.OrderStatusAfterPayment,
		PaymentFormMode:         strings.ToLower(cfg.PaymentFormMode),
		RequireWebhookSignature: cfg.RequireWebhookSignature,
		StrictBuyerValidation:   cfg.StrictBuyerValidation,
		CancelWindow:            cfg.CancelWindow,
		CallbackURL:             strings.TrimRight(storeBaseURL, "/") + ConfirmationPath,
		CompletedURL:            cfg.CompletedURL,
	}
	return s.withDefaults()
}

func (s Settings) withDefaults() Settings {
	if s.Currency == "" {
		s.Currency = "TRY"
	}
	if s.MaxInstallmentCount <= 0 {
		s.MaxInstallmentCount = 12
	}
	if s.OrderStatusAfterPayment == "" {
		s.OrderStatusAfterPayment = order.StatusPending
	}
	if s.PaymentFormMode == "" {
		s.PaymentFormMode = ModeIframe
	}
	if s.CancelWindow <= 0 {
		s.CancelWindow = 24 * time.Hour
	}
	return s
}

// GatewayLocale maps the configured locale onto the two the gateway accepts.
func (s Settings) GatewayLocale() string {
	if strings.EqualFold(s.Locale, gatewaytypes.LocaleEN) {
		return gatewaytypes.LocaleEN
	}
	return gatewaytypes.LocaleTR
}

func (s Settings) enabledInstallments() []int {
	if !s.EnableInstallments {
		return nil
	}
	out := make([]int, 0, s.MaxInstallmentCount)
	for i := 1; i <= s.MaxInstallmentCount; i++ {
		out = append(out, i)
	}
	return out
}
