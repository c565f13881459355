package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"lightbox/internal/config"
	"lightbox/internal/logging"
	"lightbox/internal/media"
	"lightbox/internal/notifications"
	"lightbox/internal/pipeline"
	"lightbox/internal/printing"
	"lightbox/internal/scan"
	"lightbox/internal/scoring"
	"lightbox/internal/shortlist"
	"lightbox/internal/thumbs"
)

// Daemon wires the scan registry, thumbnail store, print service, and HTTP
// API together and enforces single-instance execution through a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	scorer   *scoring.Scorer
	registry *scan.Registry
	thumbs   *thumbs.Store
	printing *printing.Service
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	scorer, err := scoring.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	notifier := notifications.NewService(cfg)
	thumbStore := thumbs.NewStore(cfg, logger)
	runner := pipeline.NewRunner(cfg, media.NewFSProvider(), scorer, logger)
	registry := scan.NewRegistry(cfg, runner, logger,
		scan.WithCompleteHook(func(ctx context.Context, jobID string, report *pipeline.Report) (map[string]string, error) {
			entries := make([]shortlist.Entry, len(report.Shortlist))
			copy(entries, report.Shortlist)
			return thumbStore.EnsureForJob(ctx, jobID, entries)
		}),
		scan.WithTeardown(thumbStore.RemoveJob),
		scan.WithNotify(func(jobID string, state scan.State, shortlisted int) {
			ctx := context.Background()
			var err error
			if state == scan.StateError {
				err = notifier.ScanFailed(ctx, jobID, nil)
			} else {
				err = notifier.ScanCompleted(ctx, jobID, shortlisted)
			}
			if err != nil {
				logger.Warn("scan notification", logging.Error(err))
			}
		}),
	)
	printSvc := printing.NewService(cfg, registry, logger, printing.WithNotifier(notifier))

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		scorer:   scorer,
		registry: registry,
		thumbs:   thumbStore,
		printing: printSvc,
		lockPath: cfg.LockFilePath(),
		lock:     flock.New(cfg.LockFilePath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock and brings up the HTTP API. It returns
// once the daemon is serving; Stop shuts everything down.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another lightbox daemon holds %s", d.lockPath)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if err := d.api.start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("lightbox daemon started",
		slog.Int("pid", os.Getpid()),
		slog.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API, drains running scans, and releases job-scoped
// resources. Thumbnails are a per-run cache, so the whole store goes at
// shutdown.
func (d *Daemon) Stop(ctx context.Context) {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.registry.Shutdown(ctx); err != nil {
		d.logger.Warn("scan registry did not drain", logging.Error(err))
	}
	d.thumbs.RemoveAll()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("lightbox daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close(ctx context.Context) error {
	d.Stop(ctx)
	return d.scorer.Close()
}

// Addr reports the API listen address once started.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Running reports whether the daemon is serving.
func (d *Daemon) Running() bool {
	return d.running.Load()
}
