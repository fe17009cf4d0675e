package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"distress-score/domain"
)

var (
	ErrEmptyBatch    = errors.New("no listings provided")
	ErrBatchTooLarge = errors.New("too many listings")
)

type BatchService struct {
	distress *DistressService
}

func NewBatchService(distress *DistressService) *BatchService {
	return &BatchService{distress: distress}
}

// Rank scores every listing and orders them by descending score, ties broken
// by id. Listings that fail validation are reported in Rejected and do not
// abort the batch.
func (s *BatchService) Rank(
	ctx context.Context,
	input domain.BatchInput,
) (domain.BatchResult, error) {

	if len(input.Listings) == 0 {
		return domain.BatchResult{}, ErrEmptyBatch
	}
	if len(input.Listings) > MaxBatchSize {
		return domain.BatchResult{}, fmt.Errorf("%w: %d exceeds the maximum of %d", ErrBatchTooLarge, len(input.Listings), MaxBatchSize)
	}
	if input.Limit < 0 {
		return domain.BatchResult{}, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}

	seen := make(map[string]bool, len(input.Listings))
	for _, l := range input.Listings {
		if l.ID == "" {
			return domain.BatchResult{}, fmt.Errorf("%w: listing id must not be empty", ErrInvalidInput)
		}
		if seen[l.ID] {
			return domain.BatchResult{}, fmt.Errorf("%w: duplicate listing id %q", ErrInvalidInput, l.ID)
		}
		seen[l.ID] = true
	}

	result := domain.BatchResult{
		Ranked:        []domain.RankedListing{},
		BracketCounts: make(map[string]int, len(DiscountBrackets)),
	}
	for _, label := range DiscountBrackets {
		result.BracketCounts[label] = 0
	}

	outcomes, err := s.scoreAll(ctx, input.Listings)
	if err != nil {
		return domain.BatchResult{}, err
	}

	for i, l := range input.Listings {
		o := outcomes[i]
		if o.err != nil {
			log.Warn().Err(o.err).Str("listing", l.ID).Msg("skipping listing")
			result.Rejected = append(result.Rejected, domain.RejectedListing{ID: l.ID, Error: o.err.Error()})
			continue
		}

		result.BracketCounts[o.result.EstimatedDiscount]++
		result.Ranked = append(result.Ranked, domain.RankedListing{ID: l.ID, DistressResult: o.result})
	}
	result.Scored = len(result.Ranked)

	sort.Slice(result.Ranked, func(i, j int) bool {
		a, b := result.Ranked[i], result.Ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.ID < b.ID
	})

	if input.MinScore != nil {
		filtered := result.Ranked[:0]
		for _, r := range result.Ranked {
			if r.Score >= *input.MinScore {
				filtered = append(filtered, r)
			}
		}
		result.Ranked = filtered
	}
	if input.Limit > 0 && len(result.Ranked) > input.Limit {
		result.Ranked = result.Ranked[:input.Limit]
	}

	log.Debug().
		Int("scored", result.Scored).
		Int("rejected", len(result.Rejected)).
		Int("returned", len(result.Ranked)).
		Msg("batch ranked")

	return result, nil
}

type scoreOutcome struct {
	result domain.DistressResult
	err    error
}

// scoreAll scores listings on up to batchWorkers goroutines. Per-listing
// validation errors are kept in the outcome; only context cancellation fails
// the whole call.
func (s *BatchService) scoreAll(ctx context.Context, listings []domain.ListingInput) ([]scoreOutcome, error) {
	outcomes := make([]scoreOutcome, len(listings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkers)
	for i, l := range listings {
		i, l := i, l
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i].result, outcomes[i].err = s.distress.Score(gctx, l.DistressInput)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
