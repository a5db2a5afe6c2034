package service

import "time"

const (
	// Halal financing markup: multiplier = base + slope * cashRatio(%).
	financingBaseMultiplier = 1.2128
	financingRatioSlope     = 0.00112

	// MinDownPaymentRatio is the share of the price a buyer must pay up front
	// before a financing request is accepted.
	MinDownPaymentRatio = 0.5

	MaxFinancingRequestsPerPage = 100

	// maxPeriodMonths bounds periods accepted from JSON numbers.
	maxPeriodMonths = 1200
)

const (
	DefaultSearchLimit = 20
	maxBedroomsFilter  = 20
	MaxSearchLimit     = 50
	MaxQueryLength     = 500

	// relaxedPoolSize is how many widened candidates are scored.
	relaxedPoolSize = 100
	// relaxedTopN is how many scored candidates are returned.
	relaxedTopN = 10
)

const (
	DefaultBackfillLimit = 50
	MaxBackfillLimit     = 500

	minVisitLeadTime = 30 * time.Minute
)

const defaultGeocoderTimeout = 10 * time.Second
