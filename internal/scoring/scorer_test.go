package scoring

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"lightbox/internal/quality"
	"lightbox/internal/services"
)

type countingStrategy struct {
	calls int
	value float64
	err   error
}

func (s *countingStrategy) Name() string { return "counting" }

func (s *countingStrategy) Score(context.Context, Input) (float64, error) {
	s.calls++
	return s.value, s.err
}

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestHeuristicScoreIsDeterministicAndClamped(t *testing.T) {
	input := Input{Metrics: quality.Metrics{Brightness: 128, Contrast: 40, Sharpness: 180}}
	first, err := Heuristic{}.Score(context.Background(), input)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	second, _ := Heuristic{}.Score(context.Background(), input)
	if first != second {
		t.Fatalf("expected deterministic score, got %v then %v", first, second)
	}
	if first < MinScore || first > MaxScore {
		t.Fatalf("score %v out of range", first)
	}

	blown := Input{Metrics: quality.Metrics{Brightness: 255, Contrast: 255, Sharpness: 10000}}
	capped, _ := Heuristic{}.Score(context.Background(), blown)
	if capped != MaxScore {
		t.Fatalf("expected saturated metrics to clamp to %v, got %v", MaxScore, capped)
	}
}

func TestScorerReusesCachedScoreWithoutInvokingBackend(t *testing.T) {
	cache := openTestCache(t)
	strategy := &countingStrategy{value: 7.5}
	scorer := NewScorer(cache, strategy, false, nil)

	input := Input{CandidateID: "cand-1", Fingerprint: "abc123"}
	first, err := scorer.Score(context.Background(), input)
	if err != nil {
		t.Fatalf("first score: %v", err)
	}
	if first.Cached {
		t.Fatal("first score should not be cached")
	}
	if first.Value != 7.5 || first.Source != "counting" {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, err := scorer.Score(context.Background(), Input{CandidateID: "cand-2", Fingerprint: "abc123"})
	if err != nil {
		t.Fatalf("second score: %v", err)
	}
	if !second.Cached {
		t.Fatal("expected cache hit for identical fingerprint")
	}
	if second.Value != 7.5 {
		t.Fatalf("cache returned %v, want 7.5", second.Value)
	}
	if strategy.calls != 1 {
		t.Fatalf("backend invoked %d times, want 1", strategy.calls)
	}
}

func TestScorerFallsBackPerCandidateWhenPrimaryFails(t *testing.T) {
	cache := openTestCache(t)
	strategy := &countingStrategy{err: errors.New("connection refused")}
	scorer := NewScorer(cache, strategy, true, nil)

	input := Input{
		CandidateID: "cand-1",
		Fingerprint: "fp-1",
		Metrics:     quality.Metrics{Brightness: 120, Contrast: 35, Sharpness: 150},
	}
	result, err := scorer.Score(context.Background(), input)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.Source != "heuristic" {
		t.Fatalf("expected heuristic fallback, got source %q", result.Source)
	}

	// The fallback score is still cached so the retry next run is free.
	entry, found, err := cache.Get(context.Background(), "fp-1")
	if err != nil || !found {
		t.Fatalf("expected cached fallback entry, found=%v err=%v", found, err)
	}
	if entry.Source != "heuristic" {
		t.Fatalf("cached source %q, want heuristic", entry.Source)
	}
}

func TestScorerSurfacesTransientErrorWhenFallbackDisabled(t *testing.T) {
	cache := openTestCache(t)
	strategy := &countingStrategy{err: errors.New("connection refused")}
	scorer := NewScorer(cache, strategy, false, nil)

	_, err := scorer.Score(context.Background(), Input{CandidateID: "cand-1", Fingerprint: "fp-1"})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestCachePutFirstWriterWins(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	if err := cache.Put(ctx, CacheEntry{Fingerprint: "fp", Score: 4.2, Source: "heuristic"}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := cache.Put(ctx, CacheEntry{Fingerprint: "fp", Score: 9.9, Source: "model"}); err != nil {
		t.Fatalf("second put: %v", err)
	}

	entry, found, err := cache.Get(ctx, "fp")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if entry.Score != 4.2 || entry.Source != "heuristic" {
		t.Fatalf("second put overwrote entry: %+v", entry)
	}

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Entries != 1 {
		t.Fatalf("expected 1 entry, got %d", stats.Entries)
	}
}
