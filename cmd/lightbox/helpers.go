package main

import (
	"context"
	"fmt"

	"lightbox/internal/scan"
)

// scanFetcher is the slice of the API client the scan helpers need; tests
// substitute a fake.
type scanFetcher interface {
	Scan(ctx context.Context, jobID string) (scan.Snapshot, error)
}

func renderShortlistTable(entries []scan.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", entry.Rank),
			entry.CandidateID,
			entry.Filename,
			fmt.Sprintf("%.2f", entry.Score),
			entry.ScoreSource,
			yesNo(entry.Selected),
		})
	}
	return renderTable(
		[]string{"Rank", "Candidate", "File", "Score", "Source", "Selected"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
