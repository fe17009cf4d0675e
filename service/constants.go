package service

import "math"

// Factor weights. They sum to 1.0.
const (
	WeightLoanToValue    = 0.25
	WeightDaysOnMarket   = 0.20
	WeightPriceReduction = 0.15
	WeightPreforeclosure = 0.15
	WeightTaxDelinquent  = 0.10
	WeightAbsenteeOwner  = 0.10
	WeightAbsorption     = 0.05
)

// Normalization limits.
const (
	LoanToValueSaturation = 0.9 // LTV at or above this scores 1.0
	DaysOnMarketCap       = 2.0 // DOM ratio cap
	MinMedianDaysOnMarket = 1.0 // denominator floor for the DOM ratio
	AbsorptionSaturation  = 6.0 // months of supply above this scores 1.0
	MaxDistressScore      = 100.0
	// Scores have no lower clamp, but totals below this saturate so the
	// conversion to int stays defined.
	MinDistressScore = math.MinInt32
)

// Explanation thresholds on the unweighted factors.
const (
	ReasonLoanToValueMin    = 0.9
	ReasonDaysOnMarketMin   = 1.5
	ReasonPriceReductionMin = 0.08
	ReasonAbsorptionMin     = 0.8
)

// Discount brackets, checked in order on the rounded score.
const (
	BracketLowMax      = 30
	BracketModerateMax = 60
	BracketHighMax     = 80

	DiscountLow      = "0–2%"
	DiscountModerate = "3–9%"
	DiscountHigh     = "10–15%"
	DiscountSevere   = "15–20%+"
)

const (
	ReasonPrefix     = "Main factors: "
	NoFactorsReason  = "No major distress factors detected."
	MaxBatchSize     = 500
	batchWorkers     = 8
	cacheKeyPrefix   = "distress:v1:"
	maxNarrativeText = 600
)

// DiscountBrackets lists every label DiscountBracket can return, lowest first.
var DiscountBrackets = []string{DiscountLow, DiscountModerate, DiscountHigh, DiscountSevere}
