package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMissingFields = errors.New("missing required fields")

// DistressRequest is the wire form of DistressInput. Pointers tell absent
// fields apart from zero values; every field is required.
type DistressRequest struct {
	LoanToValuePct       *float64 `json:"loanToValuePct"`
	DaysOnMarket         *int     `json:"daysOnMarket"`
	MedianDaysOnMarket   *float64 `json:"medianDaysOnMarket"`
	OriginalListPrice    *float64 `json:"originalListPrice"`
	CurrentListPrice     *float64 `json:"currentListPrice"`
	PreforeclosureActive *bool    `json:"preforeclosureActive"`
	TaxDelinquent        *bool    `json:"taxDelinquent"`
	AbsenteeOwner        *bool    `json:"absenteeOwner"`
	AbsorptionRate       *float64 `json:"absorptionRate"`
}

// Input returns the scorer input, or ErrMissingFields naming every absent
// field in declaration order.
func (req DistressRequest) Input() (DistressInput, error) {
	var missing []string
	f := func(name string, v *float64) float64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return *v
	}
	b := func(name string, v *bool) bool {
		if v == nil {
			missing = append(missing, name)
			return false
		}
		return *v
	}

	input := DistressInput{
		LoanToValuePct: f("loanToValuePct", req.LoanToValuePct),
	}
	if req.DaysOnMarket == nil {
		missing = append(missing, "daysOnMarket")
	} else {
		input.DaysOnMarket = *req.DaysOnMarket
	}
	input.MedianDaysOnMarket = f("medianDaysOnMarket", req.MedianDaysOnMarket)
	input.OriginalListPrice = f("originalListPrice", req.OriginalListPrice)
	input.CurrentListPrice = f("currentListPrice", req.CurrentListPrice)
	input.PreforeclosureActive = b("preforeclosureActive", req.PreforeclosureActive)
	input.TaxDelinquent = b("taxDelinquent", req.TaxDelinquent)
	input.AbsenteeOwner = b("absenteeOwner", req.AbsenteeOwner)
	input.AbsorptionRate = f("absorptionRate", req.AbsorptionRate)

	if len(missing) > 0 {
		return DistressInput{}, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	return input, nil
}

type ListingRequest struct {
	ID string `json:"id"`
	DistressRequest
}

type BatchRequest struct {
	Listings []ListingRequest `json:"listings"`
	MinScore *int             `json:"minScore"`
	Limit    int              `json:"limit"`
}

// Input converts every listing, failing on the first one with absent fields.
func (req BatchRequest) Input() (BatchInput, error) {
	input := BatchInput{
		Listings: make([]ListingInput, 0, len(req.Listings)),
		MinScore: req.MinScore,
		Limit:    req.Limit,
	}
	for i, l := range req.Listings {
		in, err := l.Input()
		if err != nil {
			return BatchInput{}, fmt.Errorf("listing %d (%q): %w", i, l.ID, err)
		}
		input.Listings = append(input.Listings, ListingInput{ID: l.ID, DistressInput: in})
	}
	return input, nil
}
