package cluster_test

import (
	"testing"

	"lightbox/internal/cluster"
	"lightbox/internal/config"
	"lightbox/internal/quality"
)

func newClusterer(opts ...func(*config.Cluster)) *cluster.Clusterer {
	cfg := config.Default().Cluster
	for _, opt := range opts {
		opt(&cfg)
	}
	return cluster.NewClusterer(cfg)
}

func member(id string, fp cluster.Fingerprint, verdict quality.Status, sharpness float64) cluster.Member {
	return cluster.Member{CandidateID: id, Fingerprint: fp, Verdict: verdict, Sharpness: sharpness}
}

func TestDistance(t *testing.T) {
	a := cluster.Fingerprint(0b1010)
	b := cluster.Fingerprint(0b0110)
	if got := a.Distance(b); got != 2 {
		t.Fatalf("expected distance 2, got %d", got)
	}
	if got := a.Distance(a); got != 0 {
		t.Fatalf("expected distance 0, got %d", got)
	}
}

func TestClusterJoinsWithinThreshold(t *testing.T) {
	// Fingerprints two bits apart cluster together; a distant one opens its own.
	members := []cluster.Member{
		member("a", 0x0000000000000000, quality.StatusKeep, 300),
		member("b", 0x0000000000000003, quality.StatusKeep, 250),
		member("c", 0xffffffffffffffff, quality.StatusKeep, 200),
	}
	assignments := newClusterer().Cluster(members)

	if assignments[0].ClusterID != assignments[1].ClusterID {
		t.Fatalf("expected a and b in same cluster: %+v", assignments)
	}
	if assignments[2].ClusterID == assignments[0].ClusterID {
		t.Fatalf("expected c in its own cluster: %+v", assignments)
	}
	if assignments[0].Size != 2 || assignments[2].Size != 1 {
		t.Fatalf("unexpected cluster sizes: %+v", assignments)
	}
	if !assignments[0].Retained || !assignments[1].Retained {
		t.Fatalf("K=2 should retain both near-duplicates: %+v", assignments)
	}
}

func TestClusterRetainsAtMostK(t *testing.T) {
	members := []cluster.Member{
		member("a", 0, quality.StatusKeep, 400),
		member("b", 1, quality.StatusKeep, 300),
		member("c", 2, quality.StatusKeep, 200),
		member("d", 3, quality.StatusKeep, 100),
	}
	assignments := newClusterer().Cluster(members)

	retained := 0
	for _, a := range assignments {
		if a.ClusterID != assignments[0].ClusterID {
			t.Fatalf("expected one cluster, got %+v", assignments)
		}
		if a.Retained {
			retained++
		}
	}
	if retained != 2 {
		t.Fatalf("expected exactly 2 retained, got %d", retained)
	}
	// Sharpest members win.
	if !assignments[0].Retained || !assignments[1].Retained {
		t.Fatalf("expected a and b retained: %+v", assignments)
	}
}

func TestClusterRetentionPrefersKeepOverSoft(t *testing.T) {
	members := []cluster.Member{
		member("soft-sharp", 0, quality.StatusSoft, 900),
		member("keep-a", 1, quality.StatusKeep, 200),
		member("keep-b", 2, quality.StatusKeep, 100),
	}
	assignments := newClusterer().Cluster(members)

	if assignments[0].Retained {
		t.Fatalf("soft member should lose to keep members: %+v", assignments)
	}
	if !assignments[1].Retained || !assignments[2].Retained {
		t.Fatalf("keep members should be retained: %+v", assignments)
	}
	if assignments[0].Rank != 3 {
		t.Fatalf("soft member should rank last, got %d", assignments[0].Rank)
	}
}

func TestClusterTieBreaksByArrivalOrder(t *testing.T) {
	// Same verdict, same sharpness: earlier arrival is retained.
	members := []cluster.Member{
		member("first", 0, quality.StatusKeep, 100),
		member("second", 1, quality.StatusKeep, 100),
		member("third", 2, quality.StatusKeep, 100),
	}
	cl := newClusterer(func(c *config.Cluster) { c.KeepPerCluster = 1 })
	assignments := cl.Cluster(members)

	if !assignments[0].Retained {
		t.Fatalf("expected earliest member retained: %+v", assignments)
	}
	if assignments[1].Retained || assignments[2].Retained {
		t.Fatalf("expected later members dropped: %+v", assignments)
	}
}

func TestClusterComparisonWindowLimitsLookback(t *testing.T) {
	// With a window of 1, only the newest open cluster is compared, so a
	// candidate matching an older cluster opens a fresh one.
	members := []cluster.Member{
		member("a", 0x0000000000000000, quality.StatusKeep, 100),
		member("b", 0xffffffffffffffff, quality.StatusKeep, 100),
		member("c", 0x0000000000000001, quality.StatusKeep, 100),
	}
	cl := newClusterer(func(c *config.Cluster) { c.ComparisonWindow = 1 })
	assignments := cl.Cluster(members)

	if assignments[2].ClusterID == assignments[0].ClusterID {
		t.Fatalf("window 1 should not reach cluster of a: %+v", assignments)
	}

	unlimited := newClusterer().Cluster(members)
	if unlimited[2].ClusterID != unlimited[0].ClusterID {
		t.Fatalf("unbounded window should reach cluster of a: %+v", unlimited)
	}
}

func TestClusterEmptyInput(t *testing.T) {
	if got := newClusterer().Cluster(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %+v", got)
	}
}

func TestClusterMemberNeverInTwoClusters(t *testing.T) {
	members := []cluster.Member{
		member("a", 0x00, quality.StatusKeep, 10),
		member("b", 0x01, quality.StatusKeep, 20),
		member("c", 0xf0, quality.StatusKeep, 30),
		member("d", 0xf1, quality.StatusSoft, 40),
	}
	assignments := newClusterer().Cluster(members)
	seen := map[string]string{}
	for _, a := range assignments {
		if prev, ok := seen[a.CandidateID]; ok && prev != a.ClusterID {
			t.Fatalf("candidate %s in two clusters", a.CandidateID)
		}
		seen[a.CandidateID] = a.ClusterID
	}
	if len(seen) != len(members) {
		t.Fatalf("expected %d assignments, got %d", len(members), len(seen))
	}
}
