// Package shortlist ranks scored candidates into the final print shortlist.
package shortlist

import "sort"

// Entry is one ranked shortlist member.
type Entry struct {
	Rank        int     `json:"rank"`
	CandidateID string  `json:"candidate_id"`
	Path        string  `json:"path"`
	Filename    string  `json:"filename"`
	Score       float64 `json:"score"`
	ScoreSource string  `json:"score_source"`
	Sharpness   float64 `json:"sharpness"`
	ClusterID   string  `json:"cluster_id,omitempty"`
}

// Select orders the eligible candidates by score descending, breaking ties by
// sharpness descending and then candidate ID ascending so equal-quality runs
// always produce the same shortlist. It returns at most size entries; fewer
// eligible candidates than size is not an error.
func Select(candidates []Entry, size int) []Entry {
	if size <= 0 || len(candidates) == 0 {
		return nil
	}
	ranked := make([]Entry, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Sharpness != ranked[j].Sharpness {
			return ranked[i].Sharpness > ranked[j].Sharpness
		}
		return ranked[i].CandidateID < ranked[j].CandidateID
	})
	if len(ranked) > size {
		ranked = ranked[:size]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
