package scoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestModelClientRetriesServerErrors(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			http.Error(w, "upstream busy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score": 8.1}`))
	}))
	defer server.Close()

	client := NewModelClient(
		ModelConfig{BaseURL: server.URL, APIKey: "test-key"},
		WithRetryBackoff(time.Millisecond, time.Millisecond),
		WithSleeper(func(time.Duration) {}),
	)
	score, err := client.Score(context.Background(), Input{Data: []byte{0x01}})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 8.1 {
		t.Fatalf("score = %v, want 8.1", score)
	}
	if got := requests.Load(); got != 2 {
		t.Fatalf("server saw %d requests, want 2", got)
	}
}

func TestModelClientDoesNotRetryClientErrors(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "unsupported image", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewModelClient(
		ModelConfig{BaseURL: server.URL},
		WithRetryBackoff(time.Millisecond, time.Millisecond),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.Score(context.Background(), Input{Data: []byte{0x01}})
	if err == nil {
		t.Fatal("expected error for http 400")
	}
	if got := requests.Load(); got != 1 {
		t.Fatalf("server saw %d requests, want 1", got)
	}
}

func TestModelClientClampsOutOfRangeScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score": 42.0}`))
	}))
	defer server.Close()

	client := NewModelClient(ModelConfig{BaseURL: server.URL})
	score, err := client.Score(context.Background(), Input{Data: []byte{0x01}})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != MaxScore {
		t.Fatalf("score = %v, want clamp to %v", score, MaxScore)
	}
}
