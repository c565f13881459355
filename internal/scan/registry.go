package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"lightbox/internal/config"
	"lightbox/internal/logging"
	"lightbox/internal/pipeline"
	"lightbox/internal/services"
)

// CompleteHook runs after a job's pipeline finishes successfully, before the
// job becomes visible as complete. It returns candidate id → thumbnail
// reference for the shortlist entries it materialized.
type CompleteHook func(ctx context.Context, jobID string, report *pipeline.Report) (map[string]string, error)

// TeardownFunc releases job-scoped resources when a job is evicted from
// history.
type TeardownFunc func(jobID string)

// Option customizes the registry.
type Option func(*Registry)

// WithCompleteHook installs the post-pipeline hook.
func WithCompleteHook(hook CompleteHook) Option {
	return func(r *Registry) { r.onComplete = hook }
}

// WithTeardown installs the eviction teardown hook.
func WithTeardown(teardown TeardownFunc) Option {
	return func(r *Registry) { r.teardown = teardown }
}

// NotifyFunc observes terminal state transitions for external alerting.
// Called outside the registry mutex; failures are the callback's problem.
type NotifyFunc func(jobID string, state State, shortlisted int)

// WithNotify installs the terminal-state notification callback.
func WithNotify(notify NotifyFunc) Option {
	return func(r *Registry) { r.notify = notify }
}

// Registry owns scan jobs: admission, the bounded worker pool, state
// transitions, history retention, and selection toggles.
type Registry struct {
	runner       *pipeline.Runner
	logger       *slog.Logger
	sem          *semaphore.Weighted
	historyLimit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	jobs          map[string]*job
	terminalOrder []string

	onComplete CompleteHook
	teardown   TeardownFunc
	notify     NotifyFunc
}

// NewRegistry builds a registry sized by configuration.
func NewRegistry(cfg *config.Config, runner *pipeline.Runner, logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := cfg.Scan.Workers
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		runner:       runner,
		logger:       logging.NewComponentLogger(logger, "scan"),
		sem:          semaphore.NewWeighted(int64(workers)),
		historyLimit: cfg.Scan.HistoryLimit,
		ctx:          ctx,
		cancel:       cancel,
		jobs:         make(map[string]*job),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit validates and enqueues a scan. The returned snapshot reflects the
// queued job; the pipeline runs on a pooled worker.
func (r *Registry) Submit(req pipeline.Request) (Snapshot, error) {
	if err := validateRequest(req); err != nil {
		return Snapshot{}, err
	}

	j := &job{
		id:        uuid.NewString(),
		directory: req.Directory,
		start:     req.Start,
		end:       req.End,
		state:     StateQueued,
		createdAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.jobs[j.id] = j
	snap := j.snapshot()
	r.mu.Unlock()

	r.logger.Info("scan queued",
		logging.String(logging.FieldJobID, j.id), slog.String("directory", req.Directory))

	r.wg.Add(1)
	go r.run(j, req)
	return snap, nil
}

func validateRequest(req pipeline.Request) error {
	if req.Directory == "" {
		return services.Wrap(services.ErrValidation, "scan", "submit", "directory required", nil)
	}
	info, err := os.Stat(req.Directory)
	if err != nil {
		return services.Wrap(services.ErrValidation, "scan", "submit",
			fmt.Sprintf("directory %s not readable", req.Directory), err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrValidation, "scan", "submit",
			fmt.Sprintf("%s is not a directory", req.Directory), nil)
	}
	if !req.Start.IsZero() && !req.End.IsZero() && req.End.Before(req.Start) {
		return services.Wrap(services.ErrValidation, "scan", "submit", "end precedes start", nil)
	}
	return nil
}

func (r *Registry) run(j *job, req pipeline.Request) {
	defer r.wg.Done()

	if err := r.sem.Acquire(r.ctx, 1); err != nil {
		r.finish(j, nil, nil, err)
		return
	}
	defer r.sem.Release(1)

	r.mu.Lock()
	j.state = StateRunning
	j.startedAt = time.Now().UTC()
	r.mu.Unlock()
	r.logger.Info("scan running", logging.String(logging.FieldJobID, j.id))

	report, err := r.runner.Run(r.ctx, req, func(p pipeline.Progress) {
		r.mu.Lock()
		// processed never moves backwards no matter how stages interleave.
		if p.Processed < j.progress.Processed {
			p.Processed = j.progress.Processed
		}
		if p.Total < j.progress.Total {
			p.Total = j.progress.Total
		}
		if p.Matched < j.progress.Matched {
			p.Matched = j.progress.Matched
		}
		j.progress = p
		r.mu.Unlock()
	})

	var thumbs map[string]string
	if err == nil && r.onComplete != nil {
		thumbs, err = r.onComplete(r.ctx, j.id, report)
		if err != nil {
			// Thumbnails are a convenience, not a correctness requirement.
			r.logger.Warn("completion hook failed", logging.String(logging.FieldJobID, j.id), logging.Error(err))
			err = nil
		}
	}
	r.finish(j, report, thumbs, err)
}

func (r *Registry) finish(j *job, report *pipeline.Report, thumbs map[string]string, err error) {
	r.mu.Lock()
	j.finishedAt = time.Now().UTC()
	if err != nil {
		j.state = StateError
		j.errMessage = err.Error()
	} else {
		j.state = StateComplete
		j.report = report
		j.entries = make([]Entry, 0, len(report.Shortlist))
		for _, item := range report.Shortlist {
			j.entries = append(j.entries, Entry{
				Entry:     item,
				Thumbnail: thumbs[item.CandidateID],
			})
		}
	}
	r.terminalOrder = append(r.terminalOrder, j.id)
	state := j.state
	entryCount := len(j.entries)
	evicted := r.evictLocked()
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("scan failed", logging.String(logging.FieldJobID, j.id), logging.Error(err))
	} else {
		r.logger.Info("scan complete",
			logging.String(logging.FieldJobID, j.id), slog.Int("shortlist", entryCount))
	}
	if r.notify != nil {
		r.notify(j.id, state, entryCount)
	}
	for _, id := range evicted {
		if r.teardown != nil {
			r.teardown(id)
		}
		r.logger.Info("scan evicted from history", logging.String(logging.FieldJobID, id))
	}
}

// evictLocked trims terminal history to the configured limit, oldest first.
// Caller holds the mutex. Returned ids need teardown outside the lock.
func (r *Registry) evictLocked() []string {
	if r.historyLimit <= 0 {
		return nil
	}
	var evicted []string
	for len(r.terminalOrder) > r.historyLimit {
		id := r.terminalOrder[0]
		r.terminalOrder = r.terminalOrder[1:]
		delete(r.jobs, id)
		evicted = append(evicted, id)
	}
	return evicted
}

// Get returns a snapshot of one job.
func (r *Registry) Get(id string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return Snapshot{}, services.Wrap(services.ErrNotFound, "scan", "get", fmt.Sprintf("job %s", id), nil)
	}
	return j.snapshot(), nil
}

// List returns snapshots of all known jobs, newest first.
func (r *Registry) List() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snaps := make([]Snapshot, 0, len(r.jobs))
	for _, j := range r.jobs {
		snaps = append(snaps, j.snapshot())
	}
	sort.Slice(snaps, func(i, k int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[k].CreatedAt) {
			return snaps[i].CreatedAt.After(snaps[k].CreatedAt)
		}
		return snaps[i].ID < snaps[k].ID
	})
	return snaps
}

// ToggleSelection flips the selected flag on one shortlist entry of a
// complete job.
func (r *Registry) ToggleSelection(jobID, candidateID string, selected bool) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return Entry{}, services.Wrap(services.ErrNotFound, "scan", "toggle selection", fmt.Sprintf("job %s", jobID), nil)
	}
	if j.state != StateComplete {
		return Entry{}, services.Wrap(services.ErrConflict, "scan", "toggle selection",
			fmt.Sprintf("job %s is %s, not complete", jobID, j.state), nil)
	}
	for i := range j.entries {
		if j.entries[i].CandidateID == candidateID {
			j.entries[i].Selected = selected
			return j.entries[i], nil
		}
	}
	return Entry{}, services.Wrap(services.ErrNotFound, "scan", "toggle selection",
		fmt.Sprintf("candidate %s not in shortlist of job %s", candidateID, jobID), nil)
}

// Shutdown stops admission of new pipeline work and waits for in-flight jobs
// to reach a terminal state or the context to expire.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
