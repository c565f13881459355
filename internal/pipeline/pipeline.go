package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"lightbox/internal/cluster"
	"lightbox/internal/config"
	"lightbox/internal/logging"
	"lightbox/internal/media"
	"lightbox/internal/quality"
	"lightbox/internal/scoring"
	"lightbox/internal/shortlist"
)

// Pipeline stages reported through progress callbacks.
const (
	StageEnumerate = "enumerate"
	StageAnalyze   = "analyze"
	StageCluster   = "cluster"
	StageScore     = "score"
	StageSelect    = "select"
)

// Request describes one scan run. Start and End bound the capture timestamp
// window; a zero value leaves that side open.
type Request struct {
	Directory string
	Start     time.Time
	End       time.Time
}

// Progress is a point-in-time snapshot pushed to the progress callback.
type Progress struct {
	Stage     string `json:"stage,omitempty"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Matched   int    `json:"matched"`
}

// ProgressFunc receives progress updates from the owning worker. Callbacks
// run synchronously on the pipeline goroutine and must be cheap.
type ProgressFunc func(Progress)

// CandidateReport is the per-candidate outcome of a run.
type CandidateReport struct {
	CandidateID  string              `json:"candidate_id"`
	Path         string              `json:"path"`
	Filename     string              `json:"filename"`
	CapturedAt   time.Time           `json:"captured_at"`
	FallbackTime bool                `json:"fallback_time,omitempty"`
	Metrics      quality.Metrics     `json:"metrics"`
	Verdict      quality.Verdict     `json:"verdict"`
	Cluster      *cluster.Assignment `json:"cluster,omitempty"`
	Score        *scoring.Result     `json:"score,omitempty"`
}

// Counts summarizes a run.
type Counts struct {
	Enumerated int `json:"enumerated"`
	Filtered   int `json:"filtered"`
	Kept       int `json:"kept"`
	Soft       int `json:"soft"`
	Dropped    int `json:"dropped"`
	Retained   int `json:"retained"`
	Scored     int `json:"scored"`
}

// Report is the full outcome of one scan run.
type Report struct {
	Directory  string            `json:"directory"`
	Start      time.Time         `json:"start,omitempty"`
	End        time.Time         `json:"end,omitempty"`
	Candidates []CandidateReport `json:"candidates"`
	Shortlist  []shortlist.Entry `json:"shortlist"`
	Counts     Counts            `json:"counts"`
}

// Runner executes the scan pipeline: enumerate, load and gate, cluster,
// score, select. Per-candidate faults (unreadable file, decode error, scoring
// failure) degrade that candidate, never the job.
type Runner struct {
	cfg       *config.Config
	provider  media.Provider
	gate      *quality.Gate
	clusterer *cluster.Clusterer
	scorer    *scoring.Scorer
	logger    *slog.Logger
}

// NewRunner wires a runner from configuration and the shared scorer.
func NewRunner(cfg *config.Config, provider media.Provider, scorer *scoring.Scorer, logger *slog.Logger) *Runner {
	if provider == nil {
		provider = media.NewFSProvider()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:       cfg,
		provider:  provider,
		gate:      quality.NewGate(cfg.Quality),
		clusterer: cluster.NewClusterer(cfg.Cluster),
		scorer:    scorer,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run executes one scan. The returned report is complete even when
// individual candidates failed; only enumeration errors and context
// cancellation abort the run.
func (r *Runner) Run(ctx context.Context, req Request, progress ProgressFunc) (*Report, error) {
	if progress == nil {
		progress = func(Progress) {}
	}
	report := &Report{Directory: req.Directory, Start: req.Start, End: req.End}

	paths, err := r.provider.Enumerate(ctx, req.Directory)
	if err != nil {
		return nil, err
	}
	report.Counts.Enumerated = len(paths)
	progress(Progress{Stage: StageEnumerate, Total: len(paths)})

	candidates, filtered, err := r.loadAndGate(ctx, req, paths, progress)
	if err != nil {
		return nil, err
	}
	report.Counts.Filtered = filtered

	// Chronological order fixes cluster formation: bursts of near-duplicate
	// shots arrive adjacent regardless of filename.
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].CapturedAt.Equal(candidates[j].CapturedAt) {
			return candidates[i].CapturedAt.Before(candidates[j].CapturedAt)
		}
		return candidates[i].report.Path < candidates[j].report.Path
	})

	r.clusterSurvivors(candidates)
	progress(Progress{Stage: StageCluster, Processed: len(paths), Total: len(paths)})

	scored := r.scoreRetained(ctx, candidates, progress)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Shortlist = shortlist.Select(scored, r.cfg.Scan.ShortlistSize)
	progress(Progress{
		Stage:     StageSelect,
		Processed: len(paths),
		Total:     len(paths),
		Matched:   len(report.Shortlist),
	})

	report.Candidates = make([]CandidateReport, 0, len(candidates))
	for _, cand := range candidates {
		switch cand.report.Verdict.Status {
		case quality.StatusKeep:
			report.Counts.Kept++
		case quality.StatusSoft:
			report.Counts.Soft++
		case quality.StatusDrop:
			report.Counts.Dropped++
		}
		if cand.report.Cluster != nil && cand.report.Cluster.Retained {
			report.Counts.Retained++
		}
		if cand.report.Score != nil {
			report.Counts.Scored++
		}
		report.Candidates = append(report.Candidates, cand.report)
	}
	return report, nil
}

// candidate carries per-run working state alongside the report entry. Pixel
// data is released as soon as scoring no longer needs it.
type candidate struct {
	report      CandidateReport
	CapturedAt  time.Time
	fingerprint cluster.Fingerprint
	contentHash string
	data        []byte
	hashed      bool
}

func (r *Runner) loadAndGate(ctx context.Context, req Request, paths []string, progress ProgressFunc) ([]*candidate, int, error) {
	candidates := make([]*candidate, 0, len(paths))
	filtered := 0
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		cand, skip := r.loadOne(ctx, req, path)
		if skip {
			filtered++
		} else if cand != nil {
			candidates = append(candidates, cand)
		}
		progress(Progress{Stage: StageAnalyze, Processed: i + 1, Total: len(paths)})
	}
	return candidates, filtered, nil
}

func (r *Runner) loadOne(ctx context.Context, req Request, path string) (*candidate, bool) {
	loaded, err := r.provider.Load(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false
		}
		r.logger.Warn("candidate unreadable", slog.String("path", path), logging.Error(err))
		metrics, verdict := quality.DecodeFailure()
		return &candidate{report: CandidateReport{
			CandidateID: uuid.NewString(),
			Path:        path,
			Filename:    filepath.Base(path),
			Metrics:     metrics,
			Verdict:     verdict,
		}}, false
	}

	if outsideWindow(loaded.CapturedAt, req.Start, req.End) {
		return nil, true
	}

	metrics, verdict := r.gate.Evaluate(loaded.Image)
	cand := &candidate{
		report: CandidateReport{
			CandidateID:  loaded.ID,
			Path:         loaded.Path,
			Filename:     loaded.Filename,
			CapturedAt:   loaded.CapturedAt,
			FallbackTime: loaded.FallbackTime,
			Metrics:      metrics,
			Verdict:      verdict,
		},
		CapturedAt:  loaded.CapturedAt,
		contentHash: media.ContentFingerprint(loaded.Data),
		data:        loaded.Data,
	}

	if verdict.Status != quality.StatusDrop {
		fp, hashErr := cluster.ComputeFingerprint(loaded.Image)
		if hashErr != nil {
			r.logger.Warn("fingerprint failed, dropping candidate",
				logging.String(logging.FieldCandidate, loaded.ID), logging.Error(hashErr))
			cand.report.Verdict = quality.Verdict{
				Status:  quality.StatusDrop,
				Reasons: append(cand.report.Verdict.Reasons, quality.ReasonDecodeError),
			}
		} else {
			cand.fingerprint = fp
			cand.hashed = true
		}
	}
	return cand, false
}

func (r *Runner) clusterSurvivors(candidates []*candidate) {
	members := make([]cluster.Member, 0, len(candidates))
	owners := make([]*candidate, 0, len(candidates))
	for _, cand := range candidates {
		if !cand.hashed || cand.report.Verdict.Status == quality.StatusDrop {
			continue
		}
		members = append(members, cluster.Member{
			CandidateID: cand.report.CandidateID,
			Fingerprint: cand.fingerprint,
			Verdict:     cand.report.Verdict.Status,
			Sharpness:   cand.report.Metrics.Sharpness,
		})
		owners = append(owners, cand)
	}
	assignments := r.clusterer.Cluster(members)
	for i := range assignments {
		assignment := assignments[i]
		owners[i].report.Cluster = &assignment
	}
}

func (r *Runner) scoreRetained(ctx context.Context, candidates []*candidate, progress ProgressFunc) []shortlist.Entry {
	entries := make([]shortlist.Entry, 0, len(candidates))
	for _, cand := range candidates {
		if ctx.Err() != nil {
			return entries
		}
		if cand.report.Cluster == nil || !cand.report.Cluster.Retained {
			cand.data = nil
			continue
		}
		result, err := r.scorer.Score(ctx, scoring.Input{
			CandidateID: cand.report.CandidateID,
			Path:        cand.report.Path,
			Fingerprint: cand.contentHash,
			Metrics:     cand.report.Metrics,
			Data:        cand.data,
		})
		cand.data = nil
		if err != nil {
			r.logger.Warn("scoring failed, candidate excluded from shortlist",
				logging.String(logging.FieldCandidate, cand.report.CandidateID), logging.Error(err))
			continue
		}
		cand.report.Score = &result
		entries = append(entries, shortlist.Entry{
			CandidateID: cand.report.CandidateID,
			Path:        cand.report.Path,
			Filename:    cand.report.Filename,
			Score:       result.Value,
			ScoreSource: result.Source,
			Sharpness:   cand.report.Metrics.Sharpness,
			ClusterID:   cand.report.Cluster.ClusterID,
		})
		progress(Progress{Stage: StageScore, Matched: len(entries)})
	}
	return entries
}

func outsideWindow(captured, start, end time.Time) bool {
	if !start.IsZero() && captured.Before(start) {
		return true
	}
	if !end.IsZero() && captured.After(end) {
		return true
	}
	return false
}
