package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"

	"distress-score/domain"
	"distress-score/metrics"
	"distress-score/repository"
)

var ErrInvalidInput = errors.New("invalid distress input")

type DistressService struct {
	cache   repository.CacheRepository
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewDistressService creates a DistressService. cache may be nil, in which
// case nothing is memoized.
func NewDistressService(
	cache repository.CacheRepository,
	ttl time.Duration,
	m *metrics.Metrics,
) *DistressService {
	if cache == nil {
		cache = repository.NewNoopCache()
	}
	return &DistressService{cache: cache, ttl: ttl, metrics: m}
}

// ValidateDistressInput rejects inputs outside the scorer's documented domain.
func ValidateDistressInput(input domain.DistressInput) error {
	floats := []struct {
		name  string
		value float64
	}{
		{"loanToValuePct", input.LoanToValuePct},
		{"medianDaysOnMarket", input.MedianDaysOnMarket},
		{"originalListPrice", input.OriginalListPrice},
		{"currentListPrice", input.CurrentListPrice},
		{"absorptionRate", input.AbsorptionRate},
	}
	for _, f := range floats {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, f.name)
		}
	}
	if input.DaysOnMarket < 0 {
		return fmt.Errorf("%w: daysOnMarket must not be negative", ErrInvalidInput)
	}
	if input.MedianDaysOnMarket < 0 {
		return fmt.Errorf("%w: medianDaysOnMarket must not be negative", ErrInvalidInput)
	}
	return nil
}

// Score validates the input and returns its distress result, using the cache
// when possible. Cache failures never fail the call.
func (s *DistressService) Score(
	ctx context.Context,
	input domain.DistressInput,
) (domain.DistressResult, error) {
	if err := ValidateDistressInput(input); err != nil {
		return domain.DistressResult{}, err
	}

	key := cacheKey(input)

	if cached, ok := s.lookup(ctx, key); ok {
		return cached, nil
	}

	result := CalculateDistressScore(input)
	s.metrics.ObserveScore(result.Score, result.EstimatedDiscount)

	s.store(ctx, key, result)

	return result, nil
}

// Explain returns the result together with the factor breakdown.
func (s *DistressService) Explain(
	ctx context.Context,
	input domain.DistressInput,
) (domain.DistressExplanation, error) {
	result, err := s.Score(ctx, input)
	if err != nil {
		return domain.DistressExplanation{}, err
	}

	factors := ComputeFactors(input)
	return domain.DistressExplanation{
		Result:        result,
		Factors:       factors,
		Contributions: Contributions(factors),
	}, nil
}

func (s *DistressService) lookup(ctx context.Context, key string) (domain.DistressResult, bool) {
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("score cache lookup failed")
		s.metrics.ObserveCache(metrics.CacheError)
		return domain.DistressResult{}, false
	}
	if !found {
		s.metrics.ObserveCache(metrics.CacheMiss)
		return domain.DistressResult{}, false
	}

	var result domain.DistressResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding corrupt cache entry")
		s.metrics.ObserveCache(metrics.CacheError)
		return domain.DistressResult{}, false
	}

	s.metrics.ObserveCache(metrics.CacheHit)
	return result, true
}

func (s *DistressService) store(ctx context.Context, key string, result domain.DistressResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode score for cache")
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache score")
	}
}

// cacheKey hashes the canonical JSON encoding of the input. Field order is
// fixed by the struct, so equal inputs always share a key.
func cacheKey(input domain.DistressInput) string {
	payload, _ := json.Marshal(input)
	return fmt.Sprintf("%s%016x", cacheKeyPrefix, xxhash.Sum64(payload))
}
