package market

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/simaogato/coinfolio-backend/internal/domain"
)

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(-math.MaxInt64)
)

// ValidateCurrency checks that code is a known ISO currency usable for display
func ValidateCurrency(code string) error {
	code = domain.NormalizeCurrency(code)
	if code == "" {
		return fmt.Errorf("%w: currency cannot be empty", domain.ErrValidation)
	}
	if money.GetCurrency(strings.ToUpper(code)) == nil {
		return fmt.Errorf("%w: unsupported currency %q", domain.ErrValidation, code)
	}
	return nil
}

// FormatMoney renders an amount in the given currency, e.g. "$52,000.00"
// Unknown currencies and amounts beyond int64 minor units fall back to the
// plain decimal with the code appended.
func FormatMoney(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(domain.NormalizeCurrency(currency))
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}

	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := amount.Mul(factor).Round(0)
	if minor.GreaterThan(maxMinorUnits) || minor.LessThan(minMinorUnits) {
		return amount.StringFixed(int32(cur.Fraction)) + " " + code
	}
	return money.New(minor.IntPart(), code).Display()
}
