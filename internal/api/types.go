package api

import (
	"fmt"
	"strings"
	"time"

	"lightbox/internal/pipeline"
)

// SubmitScanRequest is the POST /api/scans payload. Start and End accept
// RFC 3339 timestamps or bare dates; either side may be empty.
type SubmitScanRequest struct {
	Directory string `json:"directory"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
}

// SubmitScanResponse acknowledges an accepted scan.
type SubmitScanResponse struct {
	JobID string `json:"job_id"`
	State string `json:"state"`
}

// SelectionRequest is the POST /api/scans/{id}/selection payload.
type SelectionRequest struct {
	CandidateID string `json:"candidate_id"`
	Selected    bool   `json:"selected"`
}

// DaemonStatus is the GET /api/status payload.
type DaemonStatus struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	Bind         string `json:"bind"`
	Jobs         int    `json:"jobs"`
	Orders       int    `json:"orders"`
	CacheEntries int64  `json:"cache_entries"`
	CacheOldest  string `json:"cache_oldest,omitempty"`
}

// ErrorResponse is the uniform error payload. Detail carries structured
// context such as a rejected order's redacted diagnostic.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail any    `json:"detail,omitempty"`
}

// ToPipelineRequest converts the wire request into a pipeline request,
// parsing the optional date bounds.
func (r SubmitScanRequest) ToPipelineRequest() (pipeline.Request, error) {
	req := pipeline.Request{Directory: strings.TrimSpace(r.Directory)}
	start, err := parseTimeBound(r.Start, false)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("parse start: %w", err)
	}
	end, err := parseTimeBound(r.End, true)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("parse end: %w", err)
	}
	req.Start = start
	req.End = end
	return req, nil
}

// parseTimeBound accepts RFC 3339 or a bare date. A bare end date extends to
// the end of that day so "2026-07-04".."2026-07-04" covers the whole day.
func parseTimeBound(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", value)
	}
	parsed = parsed.UTC()
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return parsed, nil
}
