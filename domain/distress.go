package domain

// DistressInput holds the listing and market signals used to score a listing.
type DistressInput struct {
	LoanToValuePct       float64 `json:"loanToValuePct"`
	DaysOnMarket         int     `json:"daysOnMarket"`
	MedianDaysOnMarket   float64 `json:"medianDaysOnMarket"`
	OriginalListPrice    float64 `json:"originalListPrice"`
	CurrentListPrice     float64 `json:"currentListPrice"`
	PreforeclosureActive bool    `json:"preforeclosureActive"`
	TaxDelinquent        bool    `json:"taxDelinquent"`
	AbsenteeOwner        bool    `json:"absenteeOwner"`
	AbsorptionRate       float64 `json:"absorptionRate"`
}

type DistressResult struct {
	Score             int    `json:"distress_score"`
	EstimatedDiscount string `json:"estimated_discount"`
	Reason            string `json:"distress_reason"`
}

// DistressFactors are the unweighted per-signal sub-scores.
type DistressFactors struct {
	LoanToValue    float64 `json:"loanToValue"`
	DaysOnMarket   float64 `json:"daysOnMarket"`
	PriceReduction float64 `json:"priceReduction"`
	Preforeclosure float64 `json:"preforeclosure"`
	TaxDelinquent  float64 `json:"taxDelinquent"`
	AbsenteeOwner  float64 `json:"absenteeOwner"`
	Absorption     float64 `json:"absorption"`
}

// DistressContributions are the weighted points each factor adds to the
// unclamped score.
type DistressContributions struct {
	LoanToValue    float64 `json:"loanToValue"`
	DaysOnMarket   float64 `json:"daysOnMarket"`
	PriceReduction float64 `json:"priceReduction"`
	Preforeclosure float64 `json:"preforeclosure"`
	TaxDelinquent  float64 `json:"taxDelinquent"`
	AbsenteeOwner  float64 `json:"absenteeOwner"`
	Absorption     float64 `json:"absorption"`
	Total          float64 `json:"total"`
}

type DistressExplanation struct {
	Result        DistressResult        `json:"result"`
	Factors       DistressFactors       `json:"factors"`
	Contributions DistressContributions `json:"contributions"`
	Narrative     string                `json:"narrative,omitempty"`
	Source        string                `json:"narrative_source,omitempty"`
}
