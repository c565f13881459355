package scan

import (
	"time"

	"lightbox/internal/pipeline"
	"lightbox/internal/shortlist"
)

// State is the lifecycle position of a scan job.
type State string

const (
	StateQueued   State = "queued"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateError    State = "error"
)

// Terminal reports whether a job in this state will never change state again.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateError
}

// Entry is a shortlist member enriched with job-scoped mutable state. The
// selected flag is the only field that changes after the job completes.
type Entry struct {
	shortlist.Entry
	Selected  bool   `json:"selected"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// job is the registry-internal mutable record. All access goes through the
// registry mutex; only the owning worker writes state and progress.
type job struct {
	id         string
	directory  string
	start      time.Time
	end        time.Time
	state      State
	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
	progress   pipeline.Progress
	errMessage string
	report     *pipeline.Report
	entries    []Entry
}

// Snapshot is an immutable copy of a job's visible state. Shortlist and
// candidate details are populated only once the job is complete.
type Snapshot struct {
	ID           string                     `json:"id"`
	Directory    string                     `json:"directory"`
	Start        time.Time                  `json:"start,omitzero"`
	End          time.Time                  `json:"end,omitzero"`
	State        State                      `json:"state"`
	CreatedAt    time.Time                  `json:"created_at"`
	StartedAt    time.Time                  `json:"started_at,omitzero"`
	FinishedAt   time.Time                  `json:"finished_at,omitzero"`
	Progress     pipeline.Progress          `json:"progress"`
	ErrorMessage string                     `json:"error,omitempty"`
	Counts       pipeline.Counts            `json:"counts,omitzero"`
	Candidates   []pipeline.CandidateReport `json:"candidates,omitempty"`
	Shortlist    []Entry                    `json:"shortlist,omitempty"`
}

func (j *job) snapshot() Snapshot {
	snap := Snapshot{
		ID:           j.id,
		Directory:    j.directory,
		Start:        j.start,
		End:          j.end,
		State:        j.state,
		CreatedAt:    j.createdAt,
		StartedAt:    j.startedAt,
		FinishedAt:   j.finishedAt,
		Progress:     j.progress,
		ErrorMessage: j.errMessage,
	}
	if j.state != StateComplete {
		return snap
	}
	if j.report != nil {
		snap.Counts = j.report.Counts
		snap.Candidates = append([]pipeline.CandidateReport(nil), j.report.Candidates...)
	}
	snap.Shortlist = append([]Entry(nil), j.entries...)
	return snap
}
