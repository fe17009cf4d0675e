package service

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distress-score/domain"
)

func baseInput() domain.DistressInput {
	return domain.DistressInput{
		LoanToValuePct:     0.5,
		DaysOnMarket:       10,
		MedianDaysOnMarket: 20,
		OriginalListPrice:  200000,
		CurrentListPrice:   200000,
		AbsorptionRate:     3,
	}
}

func TestCalculateDistressScore_ReferenceListings(t *testing.T) {
	tests := []struct {
		name       string
		input      domain.DistressInput
		check      func(t *testing.T, score int)
		wantScore  int
		wantBucket string
		wantReason string
	}{
		{
			name: "high distress",
			input: domain.DistressInput{
				LoanToValuePct: 0.94, DaysOnMarket: 88, MedianDaysOnMarket: 33,
				OriginalListPrice: 500000, CurrentListPrice: 435000,
				PreforeclosureActive: true, TaxDelinquent: true, AbsenteeOwner: true,
				AbsorptionRate: 6.8,
			},
			check:      func(t *testing.T, score int) { assert.Greater(t, score, 85) },
			wantScore:  100,
			wantBucket: DiscountSevere,
			wantReason: "Main factors: High loan-to-value, Long days on market, Significant price reduction, Preforeclosure, Tax delinquent, Absentee owner, High absorption rate.",
		},
		{
			name: "low distress",
			input: domain.DistressInput{
				LoanToValuePct: 0.45, DaysOnMarket: 12, MedianDaysOnMarket: 29,
				OriginalListPrice: 650000, CurrentListPrice: 645000,
				AbsorptionRate: 2.5,
			},
			check:      func(t *testing.T, score int) { assert.Less(t, score, 25) },
			wantScore:  23,
			wantBucket: DiscountLow,
			wantReason: NoFactorsReason,
		},
		{
			// Lands just over the 60 threshold, so the bracket is 10–15%.
			name: "mid distress",
			input: domain.DistressInput{
				LoanToValuePct: 0.78, DaysOnMarket: 44, MedianDaysOnMarket: 35,
				OriginalListPrice: 490000, CurrentListPrice: 470000,
				TaxDelinquent: true, AbsorptionRate: 5.2,
			},
			check: func(t *testing.T, score int) {
				assert.GreaterOrEqual(t, score, 55)
				assert.LessOrEqual(t, score, 65)
			},
			wantScore:  62,
			wantBucket: DiscountHigh,
			wantReason: "Main factors: Tax delinquent, High absorption rate.",
		},
		{
			// Preforeclosure alone is worth 15 points; the total stays under 60.
			name: "preforeclosure only",
			input: domain.DistressInput{
				LoanToValuePct: 0.60, DaysOnMarket: 22, MedianDaysOnMarket: 28,
				OriginalListPrice: 470000, CurrentListPrice: 470000,
				PreforeclosureActive: true, AbsorptionRate: 3.9,
			},
			check:      func(t *testing.T, score int) { assert.Greater(t, score, 50) },
			wantScore:  51,
			wantBucket: DiscountModerate,
			wantReason: "Main factors: Preforeclosure.",
		},
		{
			name: "no price drop, long days on market",
			input: domain.DistressInput{
				LoanToValuePct: 0.88, DaysOnMarket: 120, MedianDaysOnMarket: 40,
				OriginalListPrice: 480000, CurrentListPrice: 480000,
				AbsenteeOwner: true, AbsorptionRate: 7.0,
			},
			check: func(t *testing.T, score int) {
				assert.GreaterOrEqual(t, score, 70)
				assert.LessOrEqual(t, score, 80)
			},
			wantScore:  79,
			wantBucket: DiscountHigh,
			wantReason: "Main factors: High loan-to-value, Long days on market, Absentee owner, High absorption rate.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateDistressScore(tt.input)

			tt.check(t, got.Score)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantBucket, got.EstimatedDiscount)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

func TestComputeFactors_LoanToValue(t *testing.T) {
	tests := []struct {
		ltv  float64
		want float64
	}{
		{0, 0},
		{0.45, 0.5},
		{0.9, 1.0},
		{0.95, 1.0},
		{1.6, 1.0},
	}
	for _, tt := range tests {
		in := baseInput()
		in.LoanToValuePct = tt.ltv
		assert.InDelta(t, tt.want, ComputeFactors(in).LoanToValue, 1e-12, "ltv %v", tt.ltv)
	}
}

func TestComputeFactors_DaysOnMarket(t *testing.T) {
	tests := []struct {
		name   string
		dom    int
		median float64
		want   float64
	}{
		{"ratio", 30, 20, 1.5},
		{"capped", 200, 20, 2.0},
		{"zero median floors to one", 1, 0, 1.0},
		{"zero median capped", 5, 0, 2.0},
		{"fractional median floors to one", 1, 0.5, 1.0},
		{"zero days", 0, 30, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.DaysOnMarket = tt.dom
			in.MedianDaysOnMarket = tt.median
			assert.InDelta(t, tt.want, ComputeFactors(in).DaysOnMarket, 1e-12)
		})
	}
}

func TestComputeFactors_PriceReduction(t *testing.T) {
	tests := []struct {
		name     string
		original float64
		current  float64
		want     float64
	}{
		{"reduction", 500000, 435000, 0.13},
		{"unchanged", 480000, 480000, 0},
		{"increase floors at zero", 400000, 420000, 0},
		{"zero original", 0, 100000, 0},
		{"negative original", -100, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.OriginalListPrice = tt.original
			in.CurrentListPrice = tt.current
			assert.InDelta(t, tt.want, ComputeFactors(in).PriceReduction, 1e-12)
		})
	}
}

func TestComputeFactors_Absorption(t *testing.T) {
	tests := []struct {
		rate float64
		want float64
	}{
		{3, 0.5},
		{6, 1.0},
		{6.8, 1.0},
		{12, 1.0},
		{-3, -0.5},
	}
	for _, tt := range tests {
		in := baseInput()
		in.AbsorptionRate = tt.rate
		assert.InDelta(t, tt.want, ComputeFactors(in).Absorption, 1e-12, "rate %v", tt.rate)
	}
}

func TestComputeFactors_Indicators(t *testing.T) {
	in := baseInput()
	f := ComputeFactors(in)
	assert.Zero(t, f.Preforeclosure)
	assert.Zero(t, f.TaxDelinquent)
	assert.Zero(t, f.AbsenteeOwner)

	in.PreforeclosureActive = true
	in.TaxDelinquent = true
	in.AbsenteeOwner = true
	f = ComputeFactors(in)
	assert.Equal(t, 1.0, f.Preforeclosure)
	assert.Equal(t, 1.0, f.TaxDelinquent)
	assert.Equal(t, 1.0, f.AbsenteeOwner)
}

func TestCalculateDistressScore_ClampsAtHundred(t *testing.T) {
	in := domain.DistressInput{
		LoanToValuePct: 1.2, DaysOnMarket: 400, MedianDaysOnMarket: 30,
		OriginalListPrice: 100000, CurrentListPrice: 10000,
		PreforeclosureActive: true, TaxDelinquent: true, AbsenteeOwner: true,
		AbsorptionRate: 12,
	}
	assert.Greater(t, Contributions(ComputeFactors(in)).Total, 100.0)
	assert.Equal(t, 100, CalculateDistressScore(in).Score)
}

func TestCalculateDistressScore_NoLowerClamp(t *testing.T) {
	in := domain.DistressInput{AbsorptionRate: -60}

	got := CalculateDistressScore(in)

	assert.Equal(t, -50, got.Score)
	assert.Equal(t, DiscountLow, got.EstimatedDiscount)
	assert.Equal(t, NoFactorsReason, got.Reason)
}

func TestCalculateDistressScore_SaturatesExtremeNegatives(t *testing.T) {
	for _, rate := range []float64{-1e20, -1e300, math.Inf(-1)} {
		got := CalculateDistressScore(domain.DistressInput{AbsorptionRate: rate})
		assert.Equal(t, math.MinInt32, got.Score, "absorptionRate %g", rate)
		assert.Equal(t, DiscountLow, got.EstimatedDiscount)
	}

	got := CalculateDistressScore(domain.DistressInput{AbsorptionRate: -1.2e6})
	assert.Equal(t, -1000000, got.Score)
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.49, 0},
		{0.5, 1},
		{2.5, 3},
		{29.5, 30},
		{59.49, 59},
		{-2.5, -2},
		{-2.51, -3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundHalfUp(tt.in), "roundHalfUp(%v)", tt.in)
	}
}

func TestDiscountBracket(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{-5, DiscountLow},
		{0, DiscountLow},
		{29, DiscountLow},
		{30, DiscountModerate},
		{59, DiscountModerate},
		{60, DiscountHigh},
		{79, DiscountHigh},
		{80, DiscountSevere},
		{100, DiscountSevere},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DiscountBracket(tt.score), "score %d", tt.score)
	}
}

func TestExplainFactors_Thresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.DistressInput)
		want   string
	}{
		{"nothing", func(*domain.DistressInput) {}, NoFactorsReason},
		{
			// 0.85 / 0.9 clears the reason threshold without saturating the factor.
			"ltv below saturation still listed",
			func(in *domain.DistressInput) { in.LoanToValuePct = 0.85 },
			"Main factors: High loan-to-value.",
		},
		{
			"dom ratio of exactly 1.5 not listed",
			func(in *domain.DistressInput) { in.DaysOnMarket = 30 },
			NoFactorsReason,
		},
		{
			"dom ratio above 1.5",
			func(in *domain.DistressInput) { in.DaysOnMarket = 31 },
			"Main factors: Long days on market.",
		},
		{
			"price reduction of exactly 8% not listed",
			func(in *domain.DistressInput) {
				in.OriginalListPrice = 100000
				in.CurrentListPrice = 92000
			},
			NoFactorsReason,
		},
		{
			"price reduction above 8%",
			func(in *domain.DistressInput) {
				in.OriginalListPrice = 100000
				in.CurrentListPrice = 90000
			},
			"Main factors: Significant price reduction.",
		},
		{
			"absorption factor of exactly 0.8 not listed",
			func(in *domain.DistressInput) { in.AbsorptionRate = 4.8 },
			NoFactorsReason,
		},
		{
			"absorption factor above 0.8",
			func(in *domain.DistressInput) { in.AbsorptionRate = 4.9 },
			"Main factors: High absorption rate.",
		},
		{
			"absorption at saturation",
			func(in *domain.DistressInput) { in.AbsorptionRate = 6 },
			"Main factors: High absorption rate.",
		},
		{
			"flags keep fixed order",
			func(in *domain.DistressInput) {
				in.AbsenteeOwner = true
				in.PreforeclosureActive = true
				in.TaxDelinquent = true
			},
			"Main factors: Preforeclosure, Tax delinquent, Absentee owner.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.DaysOnMarket = 10
			in.MedianDaysOnMarket = 20
			tt.mutate(&in)
			assert.Equal(t, tt.want, CalculateDistressScore(in).Reason)
		})
	}
}

func TestContributions_SumToTotal(t *testing.T) {
	in := domain.DistressInput{
		LoanToValuePct: 0.78, DaysOnMarket: 44, MedianDaysOnMarket: 35,
		OriginalListPrice: 490000, CurrentListPrice: 470000,
		TaxDelinquent: true, AbsorptionRate: 5.2,
	}
	c := Contributions(ComputeFactors(in))

	sum := c.LoanToValue + c.DaysOnMarket + c.PriceReduction + c.Preforeclosure +
		c.TaxDelinquent + c.AbsenteeOwner + c.Absorption
	assert.InDelta(t, c.Total, sum, 1e-9)
	assert.InDelta(t, 10.0, c.TaxDelinquent, 1e-12)
}

func TestWeightsSumToOne(t *testing.T) {
	sum := WeightLoanToValue + WeightDaysOnMarket + WeightPriceReduction +
		WeightPreforeclosure + WeightTaxDelinquent + WeightAbsenteeOwner + WeightAbsorption
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestCalculateDistressScore_Monotonic(t *testing.T) {
	type step func(in *domain.DistressInput, i int)
	steps := map[string]step{
		"loan to value": func(in *domain.DistressInput, i int) { in.LoanToValuePct = float64(i) * 0.05 },
		"days on market": func(in *domain.DistressInput, i int) { in.DaysOnMarket = i * 3 },
		"price gap": func(in *domain.DistressInput, i int) {
			in.CurrentListPrice = in.OriginalListPrice * (1 - float64(i)*0.01)
		},
	}

	for name, apply := range steps {
		t.Run(name, func(t *testing.T) {
			prev := -1 << 31
			for i := 0; i <= 30; i++ {
				in := baseInput()
				apply(&in, i)
				score := CalculateDistressScore(in).Score
				assert.GreaterOrEqual(t, score, prev, "step %d", i)
				prev = score
			}
		})
	}

	flags := map[string]func(*domain.DistressInput){
		"preforeclosure": func(in *domain.DistressInput) { in.PreforeclosureActive = true },
		"tax delinquent": func(in *domain.DistressInput) { in.TaxDelinquent = true },
		"absentee owner": func(in *domain.DistressInput) { in.AbsenteeOwner = true },
	}
	for name, set := range flags {
		t.Run(name, func(t *testing.T) {
			in := baseInput()
			before := CalculateDistressScore(in).Score
			set(&in)
			assert.Greater(t, CalculateDistressScore(in).Score, before)
		})
	}
}

func TestCalculateDistressScore_BoundedAndDeterministic(t *testing.T) {
	for ltv := 0.0; ltv <= 1.5; ltv += 0.15 {
		for dom := 0; dom <= 200; dom += 40 {
			for _, flag := range []bool{false, true} {
				in := domain.DistressInput{
					LoanToValuePct: ltv, DaysOnMarket: dom, MedianDaysOnMarket: 45,
					OriginalListPrice: 300000, CurrentListPrice: 270000,
					PreforeclosureActive: flag, TaxDelinquent: flag, AbsenteeOwner: !flag,
					AbsorptionRate: float64(dom) / 20,
				}
				got := CalculateDistressScore(in)
				require.GreaterOrEqual(t, got.Score, 0)
				require.LessOrEqual(t, got.Score, 100)
				require.Contains(t, DiscountBrackets, got.EstimatedDiscount)
				require.Equal(t, DiscountBracket(got.Score), got.EstimatedDiscount)
				require.Equal(t, got, CalculateDistressScore(in))
			}
		}
	}
}

func TestCalculateDistressScore_ConcurrentCallers(t *testing.T) {
	in := domain.DistressInput{
		LoanToValuePct: 0.94, DaysOnMarket: 88, MedianDaysOnMarket: 33,
		OriginalListPrice: 500000, CurrentListPrice: 435000,
		PreforeclosureActive: true, AbsorptionRate: 6.8,
	}
	want := CalculateDistressScore(in)

	var wg sync.WaitGroup
	results := make([]domain.DistressResult, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = CalculateDistressScore(in)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
