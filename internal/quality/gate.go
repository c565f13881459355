package quality

import (
	"image"

	"lightbox/internal/config"
)

// Status classifies a candidate after the cheap quality checks.
type Status string

const (
	StatusKeep Status = "keep"
	StatusSoft Status = "soft"
	StatusDrop Status = "drop"
)

// Reason codes attached to verdicts, ordered by evaluation sequence.
const (
	ReasonDecodeError   = "decode_error"
	ReasonDark          = "dark"
	ReasonDim           = "dim"
	ReasonLowContrast   = "low_contrast"
	ReasonBlurred       = "blurred"
	ReasonSoftFocus     = "soft_focus"
	ReasonLowResolution = "low_resolution"
	ReasonExtremeAspect = "extreme_aspect"
)

// Verdict is the gate outcome for one candidate. A Drop verdict ends the
// candidate's pipeline progression; Soft continues but is surfaced to callers.
type Verdict struct {
	Status  Status   `json:"status"`
	Reasons []string `json:"reasons,omitempty"`
}

// Gate applies configurable brightness, contrast, sharpness, resolution, and
// aspect thresholds. Pure: same image and thresholds always yield the same
// metrics and verdict.
type Gate struct {
	cfg config.Quality
}

// NewGate builds a gate from config thresholds.
func NewGate(cfg config.Quality) *Gate {
	return &Gate{cfg: cfg}
}

// Evaluate computes metrics for img and classifies it. Metrics are returned
// for every verdict, including drops.
func (g *Gate) Evaluate(img image.Image) (Metrics, Verdict) {
	metrics := ComputeMetrics(img)
	return metrics, g.Classify(metrics)
}

// Classify applies the gate policy to precomputed metrics.
func (g *Gate) Classify(m Metrics) Verdict {
	status := StatusKeep
	var reasons []string

	drop := func(reason string) {
		status = StatusDrop
		reasons = append(reasons, reason)
	}
	soften := func(reason string) {
		if status != StatusDrop {
			status = StatusSoft
		}
		reasons = append(reasons, reason)
	}

	if m.Brightness < g.cfg.BrightnessDrop {
		drop(ReasonDark)
	} else if m.Brightness < g.cfg.BrightnessSoft {
		soften(ReasonDim)
	}

	if m.Contrast < g.cfg.ContrastDrop {
		drop(ReasonLowContrast)
	}

	if m.Sharpness < g.cfg.SharpnessDrop {
		drop(ReasonBlurred)
	} else if m.Sharpness < g.cfg.SharpnessSoft {
		soften(ReasonSoftFocus)
	}

	if min(m.Width, m.Height) < g.cfg.MinDimension {
		drop(ReasonLowResolution)
	}

	if m.AspectRatio > 0 && (m.AspectRatio < g.cfg.MinAspect || m.AspectRatio > g.cfg.MaxAspect) {
		drop(ReasonExtremeAspect)
	}

	return Verdict{Status: status, Reasons: reasons}
}

// DecodeFailure is the synthetic verdict for candidates whose bytes could not
// be decoded. Metrics are zero-valued; the candidate never reaches clustering.
func DecodeFailure() (Metrics, Verdict) {
	return Metrics{}, Verdict{Status: StatusDrop, Reasons: []string{ReasonDecodeError}}
}
