package domain

type ListingInput struct {
	ID string `json:"id"`
	DistressInput
}

type BatchInput struct {
	Listings []ListingInput `json:"listings"`
	MinScore *int           `json:"minScore,omitempty"`
	Limit    int            `json:"limit,omitempty"`
}

type RankedListing struct {
	ID string `json:"id"`
	DistressResult
}

type RejectedListing struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type BatchResult struct {
	Ranked        []RankedListing   `json:"ranked"`
	Rejected      []RejectedListing `json:"rejected,omitempty"`
	BracketCounts map[string]int    `json:"bracketCounts"`
	Scored        int               `json:"scored"`
}
