package scoring

import (
	"context"
	"math"

	"lightbox/internal/quality"
)

// Score bounds. Every strategy normalizes into this range.
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Input carries everything a strategy may need to score one candidate. The
// pixel buffer is borrowed; strategies must not retain or mutate it.
type Input struct {
	CandidateID string
	Path        string
	// Fingerprint is the content fingerprint used as the cache key.
	Fingerprint string
	Metrics     quality.Metrics
	Data        []byte
}

// Strategy assigns an aesthetic score to a candidate. Implementations are
// selected at startup by configuration: a model-backed scorer and a cheap
// deterministic fallback.
type Strategy interface {
	Name() string
	Score(ctx context.Context, input Input) (float64, error)
}

// Heuristic scores from the quality metrics alone. Deterministic, never
// fails, and used both as a standalone backend and as the per-candidate
// fallback when the model backend is unavailable.
type Heuristic struct{}

func (Heuristic) Name() string { return "heuristic" }

func (Heuristic) Score(_ context.Context, input Input) (float64, error) {
	m := input.Metrics
	base := (m.Brightness/255.0)*4.0 + (m.Contrast/255.0)*2.5 + math.Min(m.Sharpness, 300.0)/60.0
	return Clamp(base), nil
}

// Clamp bounds a raw score into the normalized range.
func Clamp(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}
