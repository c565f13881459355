package testsupport

import (
	"context"
	"errors"
	"sort"

	"lightbox/internal/media"
)

// StaticProvider serves pre-built candidates, standing in for the filesystem
// provider in pipeline and registry tests.
type StaticProvider struct {
	Candidates map[string]*media.Candidate
	Failures   map[string]error
}

func (p *StaticProvider) Enumerate(_ context.Context, _ string) ([]string, error) {
	paths := make([]string, 0, len(p.Candidates)+len(p.Failures))
	for path := range p.Candidates {
		paths = append(paths, path)
	}
	for path := range p.Failures {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func (p *StaticProvider) Load(_ context.Context, path string) (*media.Candidate, error) {
	if err, ok := p.Failures[path]; ok {
		return nil, err
	}
	if cand, ok := p.Candidates[path]; ok {
		return cand, nil
	}
	return nil, errors.New("unknown path: " + path)
}
