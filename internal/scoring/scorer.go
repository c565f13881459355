package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"lightbox/internal/config"
	"lightbox/internal/logging"
	"lightbox/internal/services"
)

// Result is a resolved score for one candidate.
type Result struct {
	CandidateID string  `json:"candidate_id"`
	Value       float64 `json:"value"`
	Source      string  `json:"source"`
	Cached      bool    `json:"cached"`
}

// Scorer resolves aesthetic scores through the persistent cache, delegating
// misses to the configured strategy. When the primary strategy fails and
// fallback is enabled, the affected candidate is scored heuristically instead
// of failing the scan.
type Scorer struct {
	cache           *Cache
	primary         Strategy
	fallback        Strategy
	fallbackOnError bool
	logger          *slog.Logger
}

// NewScorer wires a scorer around the supplied cache and strategy.
func NewScorer(cache *Cache, primary Strategy, fallbackOnError bool, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scorer{
		cache:           cache,
		primary:         primary,
		fallback:        Heuristic{},
		fallbackOnError: fallbackOnError,
		logger:          logging.NewComponentLogger(logger, "scoring"),
	}
}

// NewFromConfig builds the scorer selected by configuration, opening the
// persistent cache at the configured path.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Scorer, error) {
	cache, err := OpenCache(cfg.Scoring.CachePath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scoring", "open cache", "score cache unavailable", err)
	}
	var primary Strategy
	switch cfg.Scoring.Backend {
	case config.ScoringBackendModel:
		primary = NewModelClient(ModelConfig{
			APIKey:         cfg.Scoring.APIKey,
			BaseURL:        cfg.Scoring.BaseURL,
			Model:          cfg.Scoring.Model,
			TimeoutSeconds: cfg.Scoring.TimeoutSeconds,
		})
	case config.ScoringBackendHeuristic:
		primary = Heuristic{}
	default:
		_ = cache.Close()
		return nil, services.Wrap(services.ErrConfiguration, "scoring", "select backend",
			fmt.Sprintf("unknown scoring backend %q", cfg.Scoring.Backend), nil)
	}
	return NewScorer(cache, primary, cfg.Scoring.FallbackOnError, logger), nil
}

// Close releases the underlying cache.
func (s *Scorer) Close() error {
	if s == nil {
		return nil
	}
	return s.cache.Close()
}

// CacheStats exposes persisted cache statistics.
func (s *Scorer) CacheStats(ctx context.Context) (CacheStats, error) {
	return s.cache.Stats(ctx)
}

// Score resolves one candidate. Cache lookups are keyed by content
// fingerprint, so identical bytes across runs reuse the stored score without
// touching the backend.
func (s *Scorer) Score(ctx context.Context, input Input) (Result, error) {
	if input.Fingerprint != "" && s.cache != nil {
		entry, found, err := s.cache.Get(ctx, input.Fingerprint)
		if err != nil {
			s.logger.Warn("score cache lookup failed",
				logging.String(logging.FieldCandidate, input.CandidateID), logging.Error(err))
		} else if found {
			return Result{
				CandidateID: input.CandidateID,
				Value:       entry.Score,
				Source:      entry.Source,
				Cached:      true,
			}, nil
		}
	}

	value, source, err := s.invoke(ctx, input)
	if err != nil {
		return Result{}, err
	}

	if input.Fingerprint != "" && s.cache != nil {
		if putErr := s.cache.Put(ctx, CacheEntry{
			Fingerprint: input.Fingerprint,
			Score:       value,
			Source:      source,
		}); putErr != nil {
			s.logger.Warn("score cache write failed",
				logging.String(logging.FieldCandidate, input.CandidateID), logging.Error(putErr))
		}
	}
	return Result{CandidateID: input.CandidateID, Value: value, Source: source}, nil
}

func (s *Scorer) invoke(ctx context.Context, input Input) (float64, string, error) {
	value, err := s.primary.Score(ctx, input)
	if err == nil {
		return Clamp(value), s.primary.Name(), nil
	}
	if ctx.Err() != nil {
		return 0, "", ctx.Err()
	}
	if !s.fallbackOnError || s.primary.Name() == s.fallback.Name() {
		return 0, "", services.Wrap(services.ErrTransient, "scoring", "score candidate", "backend unavailable", err)
	}
	s.logger.Warn("primary scorer failed, falling back",
		logging.String(logging.FieldCandidate, input.CandidateID),
		slog.String("backend", s.primary.Name()),
		logging.Error(err))
	value, fbErr := s.fallback.Score(ctx, input)
	if fbErr != nil {
		return 0, "", services.Wrap(services.ErrTransient, "scoring", "score candidate", "fallback failed", fbErr)
	}
	return Clamp(value), s.fallback.Name(), nil
}
