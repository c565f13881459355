package testsupport

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lightbox/internal/media"
)

// Checkerboard returns a bright, high-contrast, high-frequency frame that
// passes every gate threshold at 800x600 and above.
func Checkerboard(w, h int) *image.Gray {
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

// DarkFrame returns an all-black frame that the gate drops as dark.
func DarkFrame(w, h int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, w, h))
}

// EncodeJPEG renders an image to JPEG bytes.
func EncodeJPEG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// WriteJPEG writes an image as a JPEG file, creating parent directories.
func WriteJPEG(t testing.TB, path string, img image.Image) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, EncodeJPEG(t, img), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Candidate builds an in-memory candidate without touching the filesystem.
func Candidate(id, path string, img image.Image, captured time.Time, data []byte) *media.Candidate {
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
