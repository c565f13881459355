package media

import (
	"image"
	"time"
)

// Candidate is one image under consideration in a scan job. Immutable once
// loaded; the decoded image and raw bytes are borrowed by the pipeline for
// metric computation and scoring, never mutated.
type Candidate struct {
	ID         string
	Path       string
	Filename   string
	CapturedAt time.Time
	// FallbackTime is true when no EXIF capture timestamp was found and the
	// file modification time was used instead.
	FallbackTime bool
	Width        int
	Height       int
	Data         []byte
	Image        image.Image
}
