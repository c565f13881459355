package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Provider supplies candidate enumeration and loading for the scan pipeline.
type Provider interface {
	Enumerate(ctx context.Context, dir string) ([]string, error)
	Load(ctx context.Context, path string) (*Candidate, error)
}

var allowedExtensions = []string{".jpg", ".jpeg", ".jpe", ".jfif"}

// FSProvider reads candidates from the local filesystem.
type FSProvider struct{}

// NewFSProvider constructs a filesystem-backed provider.
func NewFSProvider() *FSProvider {
	return &FSProvider{}
}

// Enumerate walks dir recursively and returns JPEG file paths in lexical
// order. Lexical order keeps cluster formation deterministic across runs.
func (p *FSProvider) Enumerate(ctx context.Context, dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			return nil
		}
		if hasAllowedExtension(entry.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Load reads, decodes, and timestamps a single candidate. Decode failures are
// returned as errors; the pipeline converts them into drop verdicts rather
// than aborting the job.
func (p *FSProvider) Load(ctx context.Context, path string) (*Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	capturedAt, fromEXIF := captureTime(data)
	fallback := !fromEXIF
	if fallback {
		if info, statErr := os.Stat(path); statErr == nil {
			capturedAt = info.ModTime().UTC()
		}
	}

	bounds := img.Bounds()
	return &Candidate{
		ID:           uuid.NewString(),
		Path:         path,
		Filename:     filepath.Base(path),
		CapturedAt:   capturedAt,
		FallbackTime: fallback,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		Data:         data,
		Image:        img,
	}, nil
}

func hasAllowedExtension(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
