package quality_test

import (
	"image"
	"image/color"
	"testing"

	"lightbox/internal/config"
	"lightbox/internal/quality"
)

func newGate() *quality.Gate {
	cfg := config.Default()
	return quality.NewGate(cfg.Quality)
}

func goodMetrics() quality.Metrics {
	return quality.Metrics{
		Brightness:  120,
		Contrast:    45,
		Sharpness:   300,
		Width:       1600,
		Height:      1200,
		AspectRatio: 1600.0 / 1200.0,
	}
}

func TestClassifyKeep(t *testing.T) {
	verdict := newGate().Classify(goodMetrics())
	if verdict.Status != quality.StatusKeep {
		t.Fatalf("expected keep, got %s (%v)", verdict.Status, verdict.Reasons)
	}
	if len(verdict.Reasons) != 0 {
		t.Fatalf("expected no reasons for keep, got %v", verdict.Reasons)
	}
}

func TestClassifyDarkAlwaysDrops(t *testing.T) {
	// Darkness below the hard threshold dominates every other metric.
	for _, sharpness := range []float64{0, 150, 10000} {
		m := goodMetrics()
		m.Brightness = 10
		m.Sharpness = sharpness
		verdict := newGate().Classify(m)
		if verdict.Status != quality.StatusDrop {
			t.Fatalf("brightness 10 sharpness %v: expected drop, got %s", sharpness, verdict.Status)
		}
		if verdict.Reasons[0] != quality.ReasonDark {
			t.Fatalf("expected dark reason first, got %v", verdict.Reasons)
		}
	}
}

func TestClassifySoftThresholds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*quality.Metrics)
		reason string
	}{
		{"dim", func(m *quality.Metrics) { m.Brightness = 45 }, quality.ReasonDim},
		{"soft focus", func(m *quality.Metrics) { m.Sharpness = 80 }, quality.ReasonSoftFocus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := goodMetrics()
			tc.mutate(&m)
			verdict := newGate().Classify(m)
			if verdict.Status != quality.StatusSoft {
				t.Fatalf("expected soft, got %s (%v)", verdict.Status, verdict.Reasons)
			}
			if verdict.Reasons[0] != tc.reason {
				t.Fatalf("expected reason %s, got %v", tc.reason, verdict.Reasons)
			}
		})
	}
}

func TestClassifyHardDrops(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*quality.Metrics)
		reason string
	}{
		{"low contrast", func(m *quality.Metrics) { m.Contrast = 5 }, quality.ReasonLowContrast},
		{"blurred", func(m *quality.Metrics) { m.Sharpness = 20 }, quality.ReasonBlurred},
		{"low resolution", func(m *quality.Metrics) { m.Width = 400 }, quality.ReasonLowResolution},
		{"extreme aspect", func(m *quality.Metrics) { m.AspectRatio = 4.2 }, quality.ReasonExtremeAspect},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := goodMetrics()
			tc.mutate(&m)
			verdict := newGate().Classify(m)
			if verdict.Status != quality.StatusDrop {
				t.Fatalf("expected drop, got %s (%v)", verdict.Status, verdict.Reasons)
			}
			found := false
			for _, r := range verdict.Reasons {
				if r == tc.reason {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected reason %s in %v", tc.reason, verdict.Reasons)
			}
		})
	}
}

func TestClassifyBrightSharpIsKeep(t *testing.T) {
	// Brightness >= soft threshold and sharpness >= soft threshold with no
	// hard-drop condition must classify as keep.
	m := goodMetrics()
	m.Brightness = 50
	m.Sharpness = 120
	verdict := newGate().Classify(m)
	if verdict.Status != quality.StatusKeep {
		t.Fatalf("expected keep at soft boundaries, got %s (%v)", verdict.Status, verdict.Reasons)
	}
}

func TestDecodeFailure(t *testing.T) {
	metrics, verdict := quality.DecodeFailure()
	if verdict.Status != quality.StatusDrop {
		t.Fatalf("expected drop, got %s", verdict.Status)
	}
	if len(verdict.Reasons) != 1 || verdict.Reasons[0] != quality.ReasonDecodeError {
		t.Fatalf("expected decode_error reason, got %v", verdict.Reasons)
	}
	if metrics != (quality.Metrics{}) {
		t.Fatalf("expected zero metrics, got %+v", metrics)
	}
}

func TestComputeMetricsUniformImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	m := quality.ComputeMetrics(img)
	if m.Brightness < 126 || m.Brightness > 130 {
		t.Fatalf("expected brightness near 128, got %v", m.Brightness)
	}
	if m.Contrast > 1 {
		t.Fatalf("expected near-zero contrast, got %v", m.Contrast)
	}
	if m.Sharpness > 1 {
		t.Fatalf("expected near-zero sharpness, got %v", m.Sharpness)
	}
	if m.Width != 64 || m.Height != 64 || m.AspectRatio != 1 {
		t.Fatalf("unexpected geometry: %+v", m)
	}
}

func TestComputeMetricsCheckerboardIsSharp(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := color.RGBA{A: 255}
			if (x+y)%2 == 0 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	m := quality.ComputeMetrics(img)
	if m.Sharpness < 1000 {
		t.Fatalf("expected high sharpness for checkerboard, got %v", m.Sharpness)
	}
	if m.Contrast < 100 {
		t.Fatalf("expected high contrast for checkerboard, got %v", m.Contrast)
	}
}
