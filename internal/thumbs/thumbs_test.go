package thumbs

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"lightbox/internal/config"
	"lightbox/internal/shortlist"
	"lightbox/internal/testsupport"
)

func TestEnsureForJobScalesAndServesThumbnails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(t.TempDir(), "keeper.jpg")
	testsupport.WriteJPEG(t, source, testsupport.Checkerboard(1600, 1200))

	store := NewStore(cfg, nil)
	refs, err := store.EnsureForJob(context.Background(), "job-1", []shortlist.Entry{
		{CandidateID: "cand-1", Path: source},
	})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if refs["cand-1"] != "/api/scans/job-1/thumbs/cand-1" {
		t.Fatalf("unexpected ref: %q", refs["cand-1"])
	}

	path, ok := store.Path("job-1", "cand-1")
	if !ok {
		t.Fatal("thumbnail file missing")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read thumbnail: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if got := img.Bounds().Dx(); got != cfg.Thumbnails.MaxEdge {
		t.Fatalf("thumbnail long edge %d, want %d", got, cfg.Thumbnails.MaxEdge)
	}
	if got, want := img.Bounds().Dy(), cfg.Thumbnails.MaxEdge*1200/1600; got != want {
		t.Fatalf("thumbnail short edge %d, want %d", got, want)
	}
}

func TestEnsureForJobSkipsUndecodableSources(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	bad := filepath.Join(t.TempDir(), "bad.jpg")
	if err := os.WriteFile(bad, []byte("not a jpeg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	good := filepath.Join(t.TempDir(), "good.jpg")
	testsupport.WriteJPEG(t, good, testsupport.Checkerboard(640, 480))

	store := NewStore(cfg, nil)
	refs, err := store.EnsureForJob(context.Background(), "job-1", []shortlist.Entry{
		{CandidateID: "cand-bad", Path: bad},
		{CandidateID: "cand-good", Path: good},
	})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, ok := refs["cand-bad"]; ok {
		t.Fatal("undecodable source should not produce a ref")
	}
	if _, ok := refs["cand-good"]; !ok {
		t.Fatal("good source missing from refs")
	}
}

func TestRemoveJobDeletesThumbnails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(t.TempDir(), "keeper.jpg")
	testsupport.WriteJPEG(t, source, testsupport.Checkerboard(640, 480))

	store := NewStore(cfg, nil)
	if _, err := store.EnsureForJob(context.Background(), "job-1", []shortlist.Entry{
		{CandidateID: "cand-1", Path: source},
	}); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	store.RemoveJob("job-1")
	if _, ok := store.Path("job-1", "cand-1"); ok {
		t.Fatal("thumbnail survived teardown")
	}
}

func TestDisabledStoreProducesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t, func(c *config.Config) {
		c.Thumbnails.Enabled = false
	})
	source := filepath.Join(t.TempDir(), "keeper.jpg")
	testsupport.WriteJPEG(t, source, testsupport.Checkerboard(640, 480))

	store := NewStore(cfg, nil)
	refs, err := store.EnsureForJob(context.Background(), "job-1", []shortlist.Entry{
		{CandidateID: "cand-1", Path: source},
	})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if refs != nil {
		t.Fatalf("disabled store produced refs: %v", refs)
	}
}
