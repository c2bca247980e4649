package domain

import "github.com/shopspring/decimal"

// AmountScale is the number of fractional digits kept by every amount
// column (decimal(38,18)).
const AmountScale = 18

// HasAmountScale reports whether v fits the amount columns without rounding.
func HasAmountScale(v decimal.Decimal) bool {
	return v.Equal(v.Truncate(AmountScale))
}

// CheckAmount rejects amounts that are not positive or that carry more
// fractional digits than can be stored.
func CheckAmount(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return Errorf(KindInvalidArgument, "%s must be a positive amount", field)
	}
	if !HasAmountScale(v) {
		return Errorf(KindInvalidArgument, "%s has more than %d decimal places", field, AmountScale)
	}
	return nil
}
