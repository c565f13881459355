package thumbs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"lightbox/internal/config"
	"lightbox/internal/logging"
	"lightbox/internal/shortlist"
)

const thumbnailQuality = 85

// Store materializes job-scoped shortlist thumbnails on disk. Thumbnails are
// a cache, not source data: every file under the store root can be deleted
// and regenerated from the originals.
type Store struct {
	root    string
	maxEdge int
	enabled bool
	logger  *slog.Logger
}

// NewStore builds a store rooted at the configured thumbnail directory.
func NewStore(cfg *config.Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		root:    cfg.ThumbnailDir(),
		maxEdge: cfg.Thumbnails.MaxEdge,
		enabled: cfg.Thumbnails.Enabled,
		logger:  logging.NewComponentLogger(logger, "thumbs"),
	}
}

// EnsureForJob renders a thumbnail for each shortlist entry and returns
// candidate id → API reference. A source that fails to decode skips its
// thumbnail; the job still completes.
func (s *Store) EnsureForJob(ctx context.Context, jobID string, entries []shortlist.Entry) (map[string]string, error) {
	if !s.enabled || len(entries) == 0 {
		return nil, nil
	}
	jobDir := filepath.Join(s.root, jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbnail dir: %w", err)
	}
	refs := make(map[string]string, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return refs, err
		}
		if err := s.renderOne(entry.Path, filepath.Join(jobDir, entry.CandidateID+".jpg")); err != nil {
			s.logger.Warn("thumbnail skipped",
				logging.String(logging.FieldJobID, jobID),
				logging.String(logging.FieldCandidate, entry.CandidateID),
				logging.Error(err))
			continue
		}
		refs[entry.CandidateID] = fmt.Sprintf("/api/scans/%s/thumbs/%s", jobID, entry.CandidateID)
	}
	return refs, nil
}

func (s *Store) renderOne(sourcePath, targetPath string) error {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode source: %w", err)
	}

	scaled := scaleToFit(img, s.maxEdge)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := os.WriteFile(targetPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}
	return nil
}

// Path returns the on-disk location for a candidate's thumbnail and whether
// the file exists.
func (s *Store) Path(jobID, candidateID string) (string, bool) {
	path := filepath.Join(s.root, jobID, candidateID+".jpg")
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// RemoveJob deletes every thumbnail owned by a job. Used as the registry
// eviction teardown.
func (s *Store) RemoveJob(jobID string) {
	if jobID == "" {
		return
	}
	if err := os.RemoveAll(filepath.Join(s.root, jobID)); err != nil {
		s.logger.Warn("thumbnail teardown failed", logging.String(logging.FieldJobID, jobID), logging.Error(err))
	}
}

// RemoveAll clears the whole store, used at daemon shutdown.
func (s *Store) RemoveAll() {
	if err := os.RemoveAll(s.root); err != nil {
		s.logger.Warn("thumbnail store cleanup failed", logging.Error(err))
	}
}

func scaleToFit(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if maxEdge <= 0 || (width <= maxEdge && height <= maxEdge) {
		return img
	}
	targetW, targetH := width, height
	if width >= height {
		targetW = maxEdge
		targetH = height * maxEdge / width
	} else {
		targetH = maxEdge
		targetW = width * maxEdge / height
	}
	if targetW < 1 {
		targetW = 1
	}
	if targetH < 1 {
		targetH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
