package api

import (
	"testing"
	"time"
)

func TestToPipelineRequestParsesBareDates(t *testing.T) {
	req, err := SubmitScanRequest{
		Directory: "/photos",
		Start:     "2026-07-04",
		End:       "2026-07-04",
	}.ToPipelineRequest()
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	wantStart := time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)
	if !req.Start.Equal(wantStart) {
		t.Fatalf("start %v, want %v", req.Start, wantStart)
	}
	if !req.End.After(req.Start) || req.End.Day() != 4 {
		t.Fatalf("end %v should cover the whole start day", req.End)
	}
}

func TestToPipelineRequestParsesRFC3339(t *testing.T) {
	req, err := SubmitScanRequest{
		Directory: "/photos",
		Start:     "2026-07-04T09:30:00Z",
	}.ToPipelineRequest()
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if req.Start.Hour() != 9 || req.Start.Minute() != 30 {
		t.Fatalf("unexpected start: %v", req.Start)
	}
	if !req.End.IsZero() {
		t.Fatalf("empty end should stay zero, got %v", req.End)
	}
}

func TestToPipelineRequestRejectsGarbageDates(t *testing.T) {
	_, err := SubmitScanRequest{Directory: "/photos", Start: "last tuesday"}.ToPipelineRequest()
	if err == nil {
		t.Fatal("expected parse error")
	}
}
