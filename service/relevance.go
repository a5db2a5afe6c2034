package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"magit/domain"
)

const (
	overBudgetWeight        = 100
	underMinimumWeight      = 20
	missingBedroomPenalty   = 10
	missingFinancingPenalty = 15
	missingVerifiedPenalty  = 10
	otherDistrictPenalty    = 8
	matchBonus              = 2
)

var (
	widenMinFactor = decimal.RequireFromString("0.8")
	widenMaxFactor = decimal.RequireFromString("1.2")
)

// WidenFilter loosens a filter that matched nothing. Price bounds move by 20%
// outward, the bedroom minimum drops by one (never below one) and the
// verified, financing and district constraints are removed. Property type is
// kept.
func WidenFilter(f domain.SearchFilter) domain.SearchFilter {
	widened := domain.SearchFilter{
		PropertyType: f.PropertyType,
		Lifestyle:    f.Lifestyle,
	}

	if f.PriceMin != nil {
		v, _ := decimal.NewFromFloat(*f.PriceMin).Mul(widenMinFactor).Floor().Float64()
		widened.PriceMin = domain.Float64Ptr(v)
	}
	if f.PriceMax != nil {
		v, _ := decimal.NewFromFloat(*f.PriceMax).Mul(widenMaxFactor).Ceil().Float64()
		widened.PriceMax = domain.Float64Ptr(v)
	}
	if f.BedroomsMin != nil {
		widened.BedroomsMin = domain.IntPtr(max(*f.BedroomsMin-1, 1))
	}

	return widened
}

// ScoreProperty rates how far p is from the original (unwidened) filter.
// Lower is better and the score is never negative.
func ScoreProperty(p domain.Property, original domain.SearchFilter) (float64, string) {
	var (
		score   float64
		reasons []string
	)

	switch {
	case original.PriceMax != nil && *original.PriceMax > 0 && p.Price > *original.PriceMax:
		over := (p.Price - *original.PriceMax) * overBudgetWeight / *original.PriceMax
		score += over
		reasons = append(reasons, fmt.Sprintf("over budget by %.0f%%", over))
	case original.PriceMin != nil && *original.PriceMin > 0 && p.Price < *original.PriceMin:
		deficit := *original.PriceMin - p.Price
		score += deficit * underMinimumWeight / *original.PriceMin
		reasons = append(reasons, "below the minimum price")
	case original.PriceMin != nil || original.PriceMax != nil:
		reasons = append(reasons, "within budget")
	}

	if original.BedroomsMin != nil {
		if missing := *original.BedroomsMin - p.Bedrooms; missing > 0 {
			score += float64(missing * missingBedroomPenalty)
			reasons = append(reasons, "fewer bedrooms than requested")
		} else {
			score -= matchBonus
			reasons = append(reasons, "enough bedrooms")
		}
	}

	if p.HasHalalFinancing() {
		score -= matchBonus
		if original.Financing {
			reasons = append(reasons, "halal financing available")
		}
	} else if original.Financing {
		score += missingFinancingPenalty
		reasons = append(reasons, "no halal financing")
	}

	if p.IsVerified {
		score -= matchBonus
		if original.VerifiedOnly {
			reasons = append(reasons, "verified listing")
		}
	} else if original.VerifiedOnly {
		score += missingVerifiedPenalty
		reasons = append(reasons, "not verified")
	}

	if len(original.Districts) > 0 {
		if contains(original.Districts, p.District) {
			reasons = append(reasons, "in a requested district")
		} else {
			score += otherDistrictPenalty
			reasons = append(reasons, "outside the requested districts")
		}
	}

	if score < 0 {
		score = 0
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "similar listing")
	}
	return score, strings.Join(reasons, ", ")
}

// RankRelaxed scores candidates against the original filter and returns the
// best relaxedTopN, lowest score first. Ties keep the input order.
func RankRelaxed(candidates []domain.Property, original domain.SearchFilter) []domain.ScoredProperty {
	scored := make([]domain.ScoredProperty, len(candidates))
	for i, p := range candidates {
		score, rationale := ScoreProperty(p, original)
		scored[i] = domain.ScoredProperty{
			Property:  p,
			Score:     domain.Float64Ptr(score),
			Rationale: rationale,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].Score < *scored[j].Score
	})

	if len(scored) > relaxedTopN {
		scored = scored[:relaxedTopN]
	}
	return scored
}
