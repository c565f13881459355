package cluster

import (
	"fmt"
	"sort"

	"lightbox/internal/config"
	"lightbox/internal/quality"
)

// Member is one gate survivor entering the clusterer, in arrival order.
type Member struct {
	CandidateID string
	Fingerprint Fingerprint
	Verdict     quality.Status
	Sharpness   float64
}

// Assignment records a candidate's cluster membership. Non-retained members
// stay visible for diagnostics but are excluded from scoring and selection.
type Assignment struct {
	CandidateID string `json:"candidate_id"`
	ClusterID   string `json:"cluster_id"`
	Rank        int    `json:"rank"`
	Size        int    `json:"size"`
	Retained    bool   `json:"retained"`
}

// Clusterer groups near-duplicate candidates by perceptual hash distance.
//
// The pass is greedy and single-sweep: each new member is compared against the
// most recent representative of each open cluster, newest clusters first, and
// joins the nearest cluster within the distance threshold. This is not
// globally optimal clustering; it trades exactness for near-linear time and
// full determinism given a fixed arrival order.
type Clusterer struct {
	cfg config.Cluster
}

// NewClusterer builds a clusterer from config.
func NewClusterer(cfg config.Cluster) *Clusterer {
	return &Clusterer{cfg: cfg}
}

type openCluster struct {
	id             string
	representative Fingerprint
	members        []int
}

// Cluster assigns every member to a cluster and marks at most KeepPerCluster
// members per cluster as retained. Retention prefers keep over soft verdicts,
// then higher sharpness, then earlier arrival. Returned assignments are in
// the same order as members.
func (c *Clusterer) Cluster(members []Member) []Assignment {
	if len(members) == 0 {
		return nil
	}

	clusters := make([]*openCluster, 0, len(members))
	memberCluster := make([]int, len(members))

	for i, member := range members {
		best := -1
		bestDistance := c.cfg.DistanceThreshold + 1

		checked := 0
		for j := len(clusters) - 1; j >= 0; j-- {
			if c.cfg.ComparisonWindow > 0 && checked >= c.cfg.ComparisonWindow {
				break
			}
			checked++
			distance := member.Fingerprint.Distance(clusters[j].representative)
			if distance < bestDistance {
				bestDistance = distance
				best = j
			}
		}

		if best >= 0 {
			clusters[best].members = append(clusters[best].members, i)
			clusters[best].representative = member.Fingerprint
			memberCluster[i] = best
			continue
		}

		clusters = append(clusters, &openCluster{
			id:             fmt.Sprintf("cluster-%d", len(clusters)+1),
			representative: member.Fingerprint,
			members:        []int{i},
		})
		memberCluster[i] = len(clusters) - 1
	}

	assignments := make([]Assignment, len(members))
	for _, cl := range clusters {
		ranked := make([]int, len(cl.members))
		copy(ranked, cl.members)
		sort.SliceStable(ranked, func(a, b int) bool {
			return retentionLess(members[ranked[a]], members[ranked[b]])
		})
		for rank, idx := range ranked {
			assignments[idx] = Assignment{
				CandidateID: members[idx].CandidateID,
				ClusterID:   cl.id,
				Rank:        rank + 1,
				Size:        len(cl.members),
				Retained:    rank < c.cfg.KeepPerCluster,
			}
		}
	}
	return assignments
}

// retentionLess orders cluster members by retention priority: keep verdicts
// first, then sharper images. SliceStable preserves arrival order on ties.
func retentionLess(a, b Member) bool {
	aKeep := a.Verdict == quality.StatusKeep
	bKeep := b.Verdict == quality.StatusKeep
	if aKeep != bKeep {
		return aKeep
	}
	return a.Sharpness > b.Sharpness
}
