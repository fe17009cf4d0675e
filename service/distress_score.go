package service

import (
	"math"
	"strings"

	"distress-score/domain"
)

// roundHalfUp rounds ties toward +Inf, so -2.5 becomes -2.
func roundHalfUp(value float64) float64 {
	return math.Floor(value + 0.5)
}

// CalculateDistressScore scores a listing. It is total over all numeric
// inputs and never validates; callers that need validation use DistressService.
func CalculateDistressScore(input domain.DistressInput) domain.DistressResult {
	factors := ComputeFactors(input)
	total := Contributions(factors).Total

	// Only the upper bound is clamped.
	rounded := roundHalfUp(math.Min(total, MaxDistressScore))
	if math.IsNaN(rounded) || rounded < MinDistressScore {
		rounded = MinDistressScore
	}
	score := int(rounded)

	return domain.DistressResult{
		Score:             score,
		EstimatedDiscount: DiscountBracket(score),
		Reason:            ExplainFactors(input, factors),
	}
}

// ComputeFactors normalizes each signal into its unweighted sub-score.
func ComputeFactors(input domain.DistressInput) domain.DistressFactors {
	var f domain.DistressFactors

	if input.LoanToValuePct >= LoanToValueSaturation {
		f.LoanToValue = 1.0
	} else {
		f.LoanToValue = input.LoanToValuePct / LoanToValueSaturation
	}

	median := math.Max(input.MedianDaysOnMarket, MinMedianDaysOnMarket)
	f.DaysOnMarket = math.Min(float64(input.DaysOnMarket)/median, DaysOnMarketCap)

	if input.OriginalListPrice > 0 {
		drop := (input.OriginalListPrice - input.CurrentListPrice) / input.OriginalListPrice
		f.PriceReduction = math.Max(drop, 0)
	}

	f.Preforeclosure = indicator(input.PreforeclosureActive)
	f.TaxDelinquent = indicator(input.TaxDelinquent)
	f.AbsenteeOwner = indicator(input.AbsenteeOwner)

	// Negative absorption rates pass through unclamped.
	if input.AbsorptionRate > AbsorptionSaturation {
		f.Absorption = 1.0
	} else {
		f.Absorption = input.AbsorptionRate / AbsorptionSaturation
	}

	return f
}

// Contributions weights each factor into score points (0-100 scale).
func Contributions(f domain.DistressFactors) domain.DistressContributions {
	c := domain.DistressContributions{
		LoanToValue:    WeightLoanToValue * f.LoanToValue * 100,
		DaysOnMarket:   WeightDaysOnMarket * f.DaysOnMarket * 100,
		PriceReduction: WeightPriceReduction * f.PriceReduction * 100,
		Preforeclosure: WeightPreforeclosure * f.Preforeclosure * 100,
		TaxDelinquent:  WeightTaxDelinquent * f.TaxDelinquent * 100,
		AbsenteeOwner:  WeightAbsenteeOwner * f.AbsenteeOwner * 100,
		Absorption:     WeightAbsorption * f.Absorption * 100,
	}

	weighted := WeightLoanToValue*f.LoanToValue +
		WeightDaysOnMarket*f.DaysOnMarket +
		WeightPriceReduction*f.PriceReduction +
		WeightPreforeclosure*f.Preforeclosure +
		WeightTaxDelinquent*f.TaxDelinquent +
		WeightAbsenteeOwner*f.AbsenteeOwner +
		WeightAbsorption*f.Absorption
	c.Total = weighted * 100

	return c
}

// DiscountBracket maps a rounded score to its discount label.
func DiscountBracket(score int) string {
	switch {
	case score < BracketLowMax:
		return DiscountLow
	case score < BracketModerateMax:
		return DiscountModerate
	case score < BracketHighMax:
		return DiscountHigh
	default:
		return DiscountSevere
	}
}

// ExplainFactors lists the factors that cross their reason thresholds. The
// thresholds are independent of the aggregation weights.
func ExplainFactors(input domain.DistressInput, f domain.DistressFactors) string {
	reasons := []string{}

	if f.LoanToValue >= ReasonLoanToValueMin {
		reasons = append(reasons, "High loan-to-value")
	}
	if f.DaysOnMarket > ReasonDaysOnMarketMin {
		reasons = append(reasons, "Long days on market")
	}
	if f.PriceReduction > ReasonPriceReductionMin {
		reasons = append(reasons, "Significant price reduction")
	}
	if input.PreforeclosureActive {
		reasons = append(reasons, "Preforeclosure")
	}
	if input.TaxDelinquent {
		reasons = append(reasons, "Tax delinquent")
	}
	if input.AbsenteeOwner {
		reasons = append(reasons, "Absentee owner")
	}
	if f.Absorption > ReasonAbsorptionMin {
		reasons = append(reasons, "High absorption rate")
	}

	if len(reasons) == 0 {
		return NoFactorsReason
	}
	return ReasonPrefix + strings.Join(reasons, ", ") + "."
}

func indicator(flag bool) float64 {
	if flag {
		return 1.0
	}
	return 0.0
}
