package assist

import (
	"context"
	"errors"

	"cvcraft/internal/credits"
	"cvcraft/internal/logger"
	"cvcraft/internal/metrics"
)

type Charger interface {
	CheckAndDeduct(ctx context.Context, userID, required int, feature string) (*credits.Deduction, error)
}

type Option func(*Service)

func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

type Service struct {
	charger  Charger
	provider Provider
	cache    Cache
}

// NewService builds the AI gateway. A nil provider makes every feature
// unavailable without charging.
func NewService(charger Charger, provider Provider, opts ...Option) *Service {
	s := &Service{charger: charger, provider: provider}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run validates req, charges the feature's cost and then calls the provider.
// Credits are not returned when the provider fails afterwards.
func (s *Service) Run(ctx context.Context, userID int, f Feature, req Request) (*Result, error) {
	cost, err := Cost(f, req)
	if err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, ErrProviderUnavailable
	}

	deduction, err := s.charger.CheckAndDeduct(ctx, userID, cost, string(f))
	if err != nil {
		var shortfall *credits.InsufficientCreditsError
		if errors.As(err, &shortfall) {
			metrics.RecordAIRequest(string(f), "denied")
		}
		return nil, err
	}

	result := &Result{Feature: f, Credits: deduction}
	outputs := make(map[string]string)
	for _, t := range buildTasks(f, req) {
		out, err := s.complete(ctx, f, t.prompt)
		if err != nil {
			metrics.RecordAIRequest(string(f), "error")
			logger.WithFields(map[string]interface{}{
				"user_id": userID,
				"feature": string(f),
				"charged": cost,
			}).Error("AI provider call failed after charge: " + err.Error())
			return nil, &ProviderError{Feature: f, Err: err}
		}
		outputs[t.key] = out
	}

	if singleOutput(f) {
		result.Output = outputs["output"]
	} else {
		result.Sections = outputs
	}

	metrics.RecordAIRequest(string(f), "ok")
	return result, nil
}

func (s *Service) complete(ctx context.Context, f Feature, prompt string) (string, error) {
	if s.cache == nil {
		return s.provider.Complete(ctx, prompt)
	}

	key := cacheKey(f, prompt)
	if out, ok, err := s.cache.Get(ctx, key); err != nil {
		logger.WithError(err).Warn("AI cache read failed")
	} else if ok {
		return out, nil
	}

	out, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, key, out); err != nil {
		logger.WithError(err).Warn("AI cache write failed")
	}
	return out, nil
}

// Costs lists the flat cost of every feature; batch features report their per-item cost.
func Costs() map[Feature]int {
	out := make(map[Feature]int, len(flatCosts)+3)
	for f, c := range flatCosts {
		out[f] = c
	}
	out[FeatureInterviewFeedback] = 1
	out[FeatureResumeBulkEnhance] = 1
	out[FeatureCoverLetterBulkEnhance] = 1
	return out
}
