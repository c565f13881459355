package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lightbox/internal/api"
	"lightbox/internal/printing"
	"lightbox/internal/scan"
	"lightbox/internal/shortlist"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("[paths]\ndata_dir = %q\nlog_dir = %q\n", filepath.Join(dir, "data"), filepath.Join(dir, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, bind, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--bind", bind, "--config", configPath}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func completeSnapshot(id string) scan.Snapshot {
	return scan.Snapshot{
		ID:        id,
		Directory: "/photos/trip",
		State:     scan.StateComplete,
		CreatedAt: time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC),
		Shortlist: []scan.Entry{
			{Entry: shortlist.Entry{Rank: 1, CandidateID: "cand-1", Filename: "a.jpg", Score: 8.25, ScoreSource: "heuristic"}, Selected: true},
			{Entry: shortlist.Entry{Rank: 2, CandidateID: "cand-2", Filename: "b.jpg", Score: 7.10, ScoreSource: "heuristic"}},
		},
	}
}

func TestCLIScansAndShortlist(t *testing.T) {
	configPath := writeTestConfig(t)
	snap := completeSnapshot("job-1")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/scans", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]scan.Snapshot{snap})
	})
	mux.HandleFunc("GET /api/scans/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(snap)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	bind := strings.TrimPrefix(srv.URL, "http://")

	out, _, err := runCLI(t, []string{"scans"}, bind, configPath)
	if err != nil {
		t.Fatalf("scans: %v", err)
	}
	if !strings.Contains(out, "job-1") || !strings.Contains(out, "/photos/trip") {
		t.Fatalf("scans output missing job: %q", out)
	}

	out, _, err = runCLI(t, []string{"shortlist"}, bind, configPath)
	if err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	if !strings.Contains(out, "a.jpg") || !strings.Contains(out, "8.25") {
		t.Fatalf("shortlist output missing entries: %q", out)
	}

	out, _, err = runCLI(t, []string{"shortlist", "job-1", "--json"}, bind, configPath)
	if err != nil {
		t.Fatalf("shortlist --json: %v", err)
	}
	var entries []scan.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode shortlist JSON: %v", err)
	}
	if len(entries) != 2 || entries[0].CandidateID != "cand-1" {
		t.Fatalf("unexpected shortlist JSON: %+v", entries)
	}
}

func TestCLIShortlistRequiresCompletedScan(t *testing.T) {
	configPath := writeTestConfig(t)
	snap := completeSnapshot("job-2")
	snap.State = scan.StateRunning
	snap.Shortlist = nil

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/scans/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(snap)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, _, err := runCLI(t, []string{"shortlist", "job-2"}, strings.TrimPrefix(srv.URL, "http://"), configPath)
	if err == nil || !strings.Contains(err.Error(), "running") {
		t.Fatalf("expected running-state error, got %v", err)
	}
}

func TestCLISelectTogglesEntry(t *testing.T) {
	configPath := writeTestConfig(t)
	var received api.SelectionRequest

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/scans/{id}/selection", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode selection request: %v", err)
		}
		json.NewEncoder(w).Encode(scan.Entry{
			Entry:    shortlist.Entry{CandidateID: received.CandidateID, Filename: "a.jpg"},
			Selected: received.Selected,
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	bind := strings.TrimPrefix(srv.URL, "http://")

	out, _, err := runCLI(t, []string{"select", "job-1", "cand-1"}, bind, configPath)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !received.Selected || received.CandidateID != "cand-1" {
		t.Fatalf("unexpected selection request: %+v", received)
	}
	if !strings.Contains(out, "selected") {
		t.Fatalf("unexpected select output: %q", out)
	}

	out, _, err = runCLI(t, []string{"select", "job-1", "cand-1", "--remove"}, bind, configPath)
	if err != nil {
		t.Fatalf("select --remove: %v", err)
	}
	if received.Selected {
		t.Fatalf("expected deselection request, got %+v", received)
	}
	if !strings.Contains(out, "deselected") {
		t.Fatalf("unexpected deselect output: %q", out)
	}
}

func TestCLIPrintOrderUsesSelectedCandidates(t *testing.T) {
	configPath := writeTestConfig(t)
	snap := completeSnapshot("job-1")
	var received printing.Request

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/scans/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(snap)
	})
	mux.HandleFunc("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode order request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(printing.Order{
			ID:              "order-1",
			ScanID:          received.ScanID,
			CandidateIDs:    received.CandidateIDs,
			State:           "submitted",
			ProviderOrderID: "ord_123",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	bind := strings.TrimPrefix(srv.URL, "http://")

	out, _, err := runCLI(t, []string{
		"print", "order", "job-1",
		"--name", "Sam Carter",
		"--line1", "1 High Street",
		"--city", "Bristol",
		"--postal-code", "AB1 2CD",
		"--country", "GB",
	}, bind, configPath)
	if err != nil {
		t.Fatalf("print order: %v", err)
	}
	if len(received.CandidateIDs) != 1 || received.CandidateIDs[0] != "cand-1" {
		t.Fatalf("expected the selected candidate only, got %v", received.CandidateIDs)
	}
	if received.Recipient.Name != "Sam Carter" || received.Recipient.CountryCode != "GB" {
		t.Fatalf("recipient not forwarded: %+v", received.Recipient)
	}
	if !strings.Contains(out, "order-1") || !strings.Contains(out, "ord_123") {
		t.Fatalf("unexpected order output: %q", out)
	}
}

func TestCLIPrintOrderWithoutSelectionFails(t *testing.T) {
	configPath := writeTestConfig(t)
	snap := completeSnapshot("job-1")
	snap.Shortlist[0].Selected = false

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/scans/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(snap)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, _, err := runCLI(t, []string{"print", "order", "job-1"}, strings.TrimPrefix(srv.URL, "http://"), configPath)
	if err == nil || !strings.Contains(err.Error(), "no candidates selected") {
		t.Fatalf("expected selection error, got %v", err)
	}
}

func TestCLIStatusJSON(t *testing.T) {
	configPath := writeTestConfig(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.DaemonStatus{Running: true, PID: 4242, Bind: "127.0.0.1:7311", Jobs: 3})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, _, err := runCLI(t, []string{"status", "--json"}, strings.TrimPrefix(srv.URL, "http://"), configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status JSON: %v", err)
	}
	if status.PID != 4242 || status.Jobs != 3 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestCLIConfigInit(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	cmd = newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}
}
