package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"lightbox/internal/config"
	"lightbox/internal/media"
	"lightbox/internal/quality"
	"lightbox/internal/scoring"
)

type fakeProvider struct {
	candidates map[string]*media.Candidate
	failures   map[string]error
}

func (p *fakeProvider) Enumerate(_ context.Context, _ string) ([]string, error) {
	paths := make([]string, 0, len(p.candidates)+len(p.failures))
	for path := range p.candidates {
		paths = append(paths, path)
	}
	for path := range p.failures {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func (p *fakeProvider) Load(_ context.Context, path string) (*media.Candidate, error) {
	if err, ok := p.failures[path]; ok {
		return nil, err
	}
	if cand, ok := p.candidates[path]; ok {
		return cand, nil
	}
	return nil, errors.New("unknown path")
}

func checkerboard(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return img
}

func darkFrame(w, h int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, w, h))
}

func newCandidate(id, path string, img image.Image, captured time.Time, data []byte) *media.Candidate {
	bounds := img.Bounds()
	return &media.Candidate{
		ID:         id,
		Path:       path,
		Filename:   filepath.Base(path),
		CapturedAt: captured,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Data:       data,
		Image:      img,
	}
}

func newTestRunner(t *testing.T, provider media.Provider) *Runner {
	t.Helper()
	cfg := config.Default()
	cache, err := scoring.OpenCache(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	scorer := scoring.NewScorer(cache, scoring.Heuristic{}, false, nil)
	return NewRunner(&cfg, provider, scorer, nil)
}

func findCandidate(t *testing.T, report *Report, path string) CandidateReport {
	t.Helper()
	for _, cand := range report.Candidates {
		if cand.Path == path {
			return cand
		}
	}
	t.Fatalf("candidate %s not in report", path)
	return CandidateReport{}
}

func TestRunDropsDarkFramesAndShortlistsKeepers(t *testing.T) {
	base := time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{candidates: map[string]*media.Candidate{
		"/photos/a.jpg": newCandidate("cand-a", "/photos/a.jpg", checkerboard(800, 600), base, []byte("a")),
		"/photos/b.jpg": newCandidate("cand-b", "/photos/b.jpg", darkFrame(800, 600), base.Add(time.Minute), []byte("b")),
	}}

	report, err := newTestRunner(t, provider).Run(context.Background(), Request{Directory: "/photos"}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	dark := findCandidate(t, report, "/photos/b.jpg")
	if dark.Verdict.Status != quality.StatusDrop {
		t.Fatalf("dark frame verdict %q, want drop", dark.Verdict.Status)
	}
	hasDark := false
	for _, reason := range dark.Verdict.Reasons {
		if reason == quality.ReasonDark {
			hasDark = true
		}
	}
	if !hasDark {
		t.Fatalf("dark frame reasons %v missing %q", dark.Verdict.Reasons, quality.ReasonDark)
	}
	if dark.Cluster != nil {
		t.Fatal("dropped candidate should not be clustered")
	}

	if len(report.Shortlist) != 1 || report.Shortlist[0].CandidateID != "cand-a" {
		t.Fatalf("unexpected shortlist: %+v", report.Shortlist)
	}
	if report.Counts.Dropped != 1 || report.Counts.Kept != 1 {
		t.Fatalf("unexpected counts: %+v", report.Counts)
	}
}

func TestRunClustersBurstAndRetainsAtMostK(t *testing.T) {
	base := time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC)
	frame := checkerboard(800, 600)
	provider := &fakeProvider{candidates: map[string]*media.Candidate{}}
	for i := 0; i < 3; i++ {
		path := fmt.Sprintf("/photos/burst-%d.jpg", i)
		provider.candidates[path] = newCandidate(
			fmt.Sprintf("cand-%d", i), path, frame,
			base.Add(time.Duration(i)*time.Second), []byte("burst"),
		)
	}

	report, err := newTestRunner(t, provider).Run(context.Background(), Request{Directory: "/photos"}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	clusterID := ""
	retained := 0
	for _, cand := range report.Candidates {
		if cand.Cluster == nil {
			t.Fatalf("candidate %s not clustered", cand.CandidateID)
		}
		if clusterID == "" {
			clusterID = cand.Cluster.ClusterID
		}
		if cand.Cluster.ClusterID != clusterID {
			t.Fatalf("burst split across clusters: %q vs %q", cand.Cluster.ClusterID, clusterID)
		}
		if cand.Cluster.Size != 3 {
			t.Fatalf("cluster size %d, want 3", cand.Cluster.Size)
		}
		if cand.Cluster.Retained {
			retained++
		}
	}
	if retained != 2 {
		t.Fatalf("retained %d members, want 2", retained)
	}
	if len(report.Shortlist) != 2 {
		t.Fatalf("shortlist has %d entries, want 2", len(report.Shortlist))
	}
}

func TestRunRecordsUnreadableFileAsDropVerdict(t *testing.T) {
	base := time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		candidates: map[string]*media.Candidate{
			"/photos/ok.jpg": newCandidate("cand-ok", "/photos/ok.jpg", checkerboard(800, 600), base, []byte("ok")),
		},
		failures: map[string]error{
			"/photos/corrupt.jpg": errors.New("decode /photos/corrupt.jpg: invalid JPEG format"),
		},
	}

	report, err := newTestRunner(t, provider).Run(context.Background(), Request{Directory: "/photos"}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	corrupt := findCandidate(t, report, "/photos/corrupt.jpg")
	if corrupt.Verdict.Status != quality.StatusDrop {
		t.Fatalf("corrupt verdict %q, want drop", corrupt.Verdict.Status)
	}
	if len(corrupt.Verdict.Reasons) != 1 || corrupt.Verdict.Reasons[0] != quality.ReasonDecodeError {
		t.Fatalf("corrupt reasons %v, want [decode_error]", corrupt.Verdict.Reasons)
	}
	if len(report.Shortlist) != 1 {
		t.Fatalf("shortlist has %d entries, want 1", len(report.Shortlist))
	}
}

func TestRunFiltersCandidatesOutsideDateWindow(t *testing.T) {
	base := time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{candidates: map[string]*media.Candidate{
		"/photos/july.jpg": newCandidate("cand-july", "/photos/july.jpg", checkerboard(800, 600), base, []byte("july")),
		"/photos/june.jpg": newCandidate("cand-june", "/photos/june.jpg", checkerboard(800, 600), base.AddDate(0, -1, 0), []byte("june")),
	}}

	req := Request{
		Directory: "/photos",
		Start:     base.Add(-24 * time.Hour),
		End:       base.Add(24 * time.Hour),
	}
	report, err := newTestRunner(t, provider).Run(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.Counts.Filtered != 1 {
		t.Fatalf("filtered %d, want 1", report.Counts.Filtered)
	}
	if len(report.Candidates) != 1 || report.Candidates[0].CandidateID != "cand-july" {
		t.Fatalf("unexpected candidates: %+v", report.Candidates)
	}
}

func TestRunProgressReachesTerminalCounts(t *testing.T) {
	base := time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{candidates: map[string]*media.Candidate{
		"/photos/a.jpg": newCandidate("cand-a", "/photos/a.jpg", checkerboard(800, 600), base, []byte("a")),
	}}

	var updates []Progress
	_, err := newTestRunner(t, provider).Run(context.Background(), Request{Directory: "/photos"}, func(p Progress) {
		updates = append(updates, p)
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(updates) == 0 {
		t.Fatal("expected progress updates")
	}
	last := updates[len(updates)-1]
	if last.Stage != StageSelect || last.Processed != 1 || last.Total != 1 || last.Matched != 1 {
		t.Fatalf("unexpected terminal progress: %+v", last)
	}
	processed := 0
	for _, p := range updates {
		if p.Stage != StageAnalyze {
			continue
		}
		if p.Processed < processed {
			t.Fatalf("processed counter regressed: %d -> %d", processed, p.Processed)
		}
		processed = p.Processed
	}
}
