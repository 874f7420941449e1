package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	paidPriceSanityLimit = decimal.NewFromInt(1_000_000)
	paidPriceScale       = decimal.NewFromInt(100_000)
)

// NormalizePaidPrice parses the gateway's paid amount. Values above the
// sanity limit arrive in minor-unit scale and are divided back down;
// unparsable input yields zero.
func NormalizePaidPrice(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	if d.GreaterThan(paidPriceSanityLimit) {
		return d.Div(paidPriceScale)
	}
	return d
}

// InstallmentFee returns the surcharge the gateway added on top of the
// quoted total, or false when no fee line is due.
func InstallmentFee(installment int, orderTotal, paid decimal.Decimal) (decimal.Decimal, bool) {
	if installment <= 1 {
		return decimal.Zero, false
	}
	if !orderTotal.IsPositive() || !paid.GreaterThan(orderTotal) {
		return decimal.Zero, false
	}
	return paid.Sub(orderTotal), true
}

func installmentFeeDescription(installment int) string {
	return fmt.Sprintf("Taksit Komisyonu (%d Taksit) - Taksit sayısı: %d", installment, installment)
}

// formatAmount renders an amount with two decimals and a dot separator.
func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
