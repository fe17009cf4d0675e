package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"distress-score/domain"
	"distress-score/metrics"
)

// Narrative sources.
const (
	NarrativeLLM      = "llm"
	NarrativeFallback = "fallback"
)

type NarrativeOptions struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout time.Duration
}

type NarrativeService struct {
	apiKey     string
	apiURL     string
	model      string
	enabled    bool
	httpClient *http.Client
	metrics    *metrics.Metrics
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewNarrativeService returns a service that calls the chat endpoint only
// when an API key is configured.
func NewNarrativeService(opts NarrativeOptions, m *metrics.Metrics) *NarrativeService {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NarrativeService{
		apiKey:  opts.APIKey,
		apiURL:  opts.APIURL,
		model:   opts.Model,
		enabled: opts.APIKey != "" && opts.APIURL != "",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: m,
	}
}

func (s *NarrativeService) Enabled() bool {
	return s.enabled
}

// Narrate returns a prose explanation of a scored listing and where it came
// from. It never fails: any LLM problem yields the fallback narrative.
func (s *NarrativeService) Narrate(
	ctx context.Context,
	input domain.DistressInput,
	explanation domain.DistressExplanation,
) (string, string) {
	if !s.enabled {
		s.metrics.ObserveNarrative(NarrativeFallback)
		return FallbackNarrative(explanation.Result), NarrativeFallback
	}

	text, err := s.callLLM(ctx, buildNarrativePrompt(input, explanation))
	if err != nil {
		log.Warn().Err(err).Msg("narrative LLM call failed, using fallback")
		s.metrics.ObserveNarrative(NarrativeFallback)
		return FallbackNarrative(explanation.Result), NarrativeFallback
	}

	s.metrics.ObserveNarrative(NarrativeLLM)
	return text, NarrativeLLM
}

// OpportunityTier labels how attractive a score is as an acquisition lead.
func OpportunityTier(score int) string {
	switch {
	case score >= 85:
		return "CRITICAL opportunity"
	case score >= 70:
		return "HIGH potential"
	case score >= 55:
		return "MODERATE discount"
	default:
		return "LOW distress"
	}
}

func FallbackNarrative(result domain.DistressResult) string {
	return fmt.Sprintf("%s: distress score %d/100, estimated discount %s. %s",
		OpportunityTier(result.Score), result.Score, result.EstimatedDiscount, result.Reason)
}

func buildNarrativePrompt(input domain.DistressInput, e domain.DistressExplanation) string {
	return fmt.Sprintf(`Explain this residential listing's distress assessment to a real-estate investor.

SIGNALS:
- Loan-to-value: %.2f
- Days on market: %d (area median %.0f)
- List price: original $%.0f, current $%.0f
- Preforeclosure: %t
- Tax delinquent: %t
- Absentee owner: %t
- Absorption rate: %.1f months of supply

ASSESSMENT:
- Distress score: %d/100
- Estimated discount: %s
- %s
- Weighted points: LTV %.1f, days on market %.1f, price reduction %.1f, preforeclosure %.1f, tax %.1f, absentee %.1f, absorption %.1f

Write 2-3 plain sentences. Do not change the score or the discount range.`,
		input.LoanToValuePct, input.DaysOnMarket, input.MedianDaysOnMarket,
		input.OriginalListPrice, input.CurrentListPrice,
		input.PreforeclosureActive, input.TaxDelinquent, input.AbsenteeOwner,
		input.AbsorptionRate,
		e.Result.Score, e.Result.EstimatedDiscount, e.Result.Reason,
		e.Contributions.LoanToValue, e.Contributions.DaysOnMarket, e.Contributions.PriceReduction,
		e.Contributions.Preforeclosure, e.Contributions.TaxDelinquent, e.Contributions.AbsenteeOwner,
		e.Contributions.Absorption)
}

func (s *NarrativeService) callLLM(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: "You are a residential real-estate acquisitions analyst. You explain distress scores clearly and never invent data.",
			},
			{
				Role:    "user",
				Content: prompt,
			},
		},
		MaxTokens: 200,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("narrative API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", err
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("no choices in narrative response")
	}

	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty narrative response")
	}
	if r := []rune(text); len(r) > maxNarrativeText {
		text = string(r[:maxNarrativeText])
	}
	return text, nil
}
