package utils

import (
	"fmt"
	"math"

	"github.com/safebank/bank-api/shared/models"
	"github.com/shopspring/decimal"
)

// MonthlyLoanPayment applies the amortized-loan formula
//
//	payment = (r/100 * P) / (1 - (1 + r/100)^-n)
//
// where r is the monthly rate in percent. The result is not rounded.
// A non-positive principal, rate or term is rejected rather than special-cased.
func MonthlyLoanPayment(principal, monthlyRatePct decimal.Decimal, months int) (float64, error) {
	if !principal.IsPositive() {
		return 0, fmt.Errorf("%w: loan amount must be positive", models.ErrValidation)
	}
	if !monthlyRatePct.IsPositive() {
		return 0, fmt.Errorf("%w: loan rate must be positive", models.ErrValidation)
	}
	if months <= 0 {
		return 0, fmt.Errorf("%w: loan term must be at least one month", models.ErrValidation)
	}

	r := monthlyRatePct.InexactFloat64() / 100
	p := principal.InexactFloat64()
	return (r * p) / (1 - math.Pow(1+r, -float64(months))), nil
}
