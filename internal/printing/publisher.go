package printing

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// AssetPublisher resolves a local candidate file into a URL the print
// provider can fetch, with an expiry the provider must beat.
type AssetPublisher interface {
	Publish(ctx context.Context, candidatePath string) (string, time.Time, error)
}

// BaseURLPublisher maps local files onto a configured public base URL.
// Operators point the base at wherever they expose the scan directory
// (object storage, tunnel, static host); the daemon does not upload.
type BaseURLPublisher struct {
	baseURL string
	expiry  time.Duration
}

// NewBaseURLPublisher builds a publisher for the configured asset base.
func NewBaseURLPublisher(baseURL string, expiryHours int) *BaseURLPublisher {
	if expiryHours <= 0 {
		expiryHours = 24
	}
	return &BaseURLPublisher{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		expiry:  time.Duration(expiryHours) * time.Hour,
	}
}

func (p *BaseURLPublisher) Publish(_ context.Context, candidatePath string) (string, time.Time, error) {
	if p.baseURL == "" {
		return "", time.Time{}, fmt.Errorf("asset base url not configured")
	}
	name := filepath.Base(candidatePath)
	if name == "." || name == string(filepath.Separator) {
		return "", time.Time{}, fmt.Errorf("asset path %q has no filename", candidatePath)
	}
	return p.baseURL + "/" + url.PathEscape(name), time.Now().UTC().Add(p.expiry), nil
}
