package service

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"magit/domain"
)

var periodOptions = []domain.PeriodOption{
	{Value: 6, Label: "6 months"},
	{Value: 9, Label: "9 months"},
	{Value: 12, Label: "12 months"},
	{Value: 18, Label: "18 months"},
	{Value: 24, Label: "24 months"},
}

var usPrinter = message.NewPrinter(language.AmericanEnglish)

// CalculateHalalFinancing returns the marked-up total and monthly installment
// for financing price-cash over periodMonths. Degenerate input (negative cash,
// non-positive price or period, cash covering the price, NaN/Inf) yields the
// zero result instead of an error. Values are not rounded.
func CalculateHalalFinancing(cashAvailable, propertyPrice float64, periodMonths int) domain.FinancingResult {
	if !isFinite(cashAvailable) || !isFinite(propertyPrice) {
		return domain.FinancingResult{}
	}
	// Zero cash is a valid full-financing case (121280 for a 100000 price).
	if cashAvailable < 0 || propertyPrice <= 0 || periodMonths <= 0 || cashAvailable >= propertyPrice {
		return domain.FinancingResult{}
	}

	cashRatio := cashAvailable / propertyPrice * 100
	multiplier := financingBaseMultiplier + financingRatioSlope*cashRatio
	financingAmount := propertyPrice - cashAvailable
	totalCost := multiplier * financingAmount

	return domain.FinancingResult{
		TotalCost:              totalCost,
		RequiredMonthlyPayment: totalCost / float64(periodMonths),
		FinancingAmount:        financingAmount,
	}
}

// PeriodOptions returns the permitted repayment periods in ascending order.
func PeriodOptions() []domain.PeriodOption {
	out := make([]domain.PeriodOption, len(periodOptions))
	copy(out, periodOptions)
	return out
}

// WholeMonths converts a period given as a JSON number. Fractional,
// non-finite or out-of-range values map to 0, which the calculator treats as
// degenerate.
func WholeMonths(v float64) int {
	if !isFinite(v) || v != math.Trunc(v) || v < 0 || v > maxPeriodMonths {
		return 0
	}
	return int(v)
}

func IsValidPeriod(months int) bool {
	for _, p := range periodOptions {
		if p.Value == months {
			return true
		}
	}
	return false
}

// IsOfferable applies the minimum down payment policy the calculator itself
// does not enforce.
func IsOfferable(cashAvailable, propertyPrice float64) bool {
	return propertyPrice > 0 &&
		cashAvailable >= MinDownPaymentRatio*propertyPrice &&
		cashAvailable < propertyPrice
}

// FormatCurrency renders v as whole US dollars with thousands separators,
// e.g. 1234567 -> "$1,234,567".
func FormatCurrency(v float64) string {
	if math.IsNaN(v) {
		return "$NaN"
	}
	if math.IsInf(v, 1) {
		return "$∞"
	}
	if math.IsInf(v, -1) {
		return "-$∞"
	}

	// Rounded as a decimal, printed as a float: int64 cannot hold every price.
	whole, _ := decimal.NewFromFloat(v).Round(0).Float64()
	if whole < 0 {
		return "-$" + usPrinter.Sprintf("%.0f", -whole)
	}
	return "$" + usPrinter.Sprintf("%.0f", whole)
}

// FinancingPlans evaluates every period option for the given cash and price.
// With a positive maxMonthly, plans whose installment exceeds it are marked
// unaffordable and the shortest affordable period is recommended.
func FinancingPlans(cashAvailable, propertyPrice, maxMonthly float64) domain.FinancingPlansResult {
	result := domain.FinancingPlansResult{
		Offerable: IsOfferable(cashAvailable, propertyPrice),
		Plans:     make([]domain.FinancingPlan, 0, len(periodOptions)),
	}
	if propertyPrice > 0 {
		result.MinimumDownPayment = MinDownPaymentRatio * propertyPrice
	}

	for _, opt := range periodOptions {
		calc := CalculateHalalFinancing(cashAvailable, propertyPrice, opt.Value)
		affordable := !calc.IsZero() && (maxMonthly <= 0 || calc.RequiredMonthlyPayment <= maxMonthly)

		result.Plans = append(result.Plans, domain.FinancingPlan{
			PeriodMonths:           opt.Value,
			Label:                  opt.Label,
			TotalCost:              calc.TotalCost,
			RequiredMonthlyPayment: calc.RequiredMonthlyPayment,
			FinancingAmount:        calc.FinancingAmount,
			MonthlyFormatted:       FormatCurrency(calc.RequiredMonthlyPayment),
			Affordable:             affordable,
		})

		if affordable && maxMonthly > 0 && result.RecommendedPeriod == 0 {
			result.RecommendedPeriod = opt.Value
		}
	}

	return result
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
