package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lightbox/internal/api"
	"lightbox/internal/printing"
	"lightbox/internal/scan"
)

// ErrDaemonUnavailable marks transport failures reaching the daemon, so the
// CLI can suggest starting it.
var ErrDaemonUnavailable = errors.New("lightbox daemon unavailable")

// Client talks to a running daemon's HTTP API.
type Client struct {
	base *url.URL
	http *http.Client
}

// New builds a client for the configured API bind address.
func New(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("api bind address required")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""
	return &Client{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Status fetches daemon health.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &status)
	return status, err
}

// SubmitScan enqueues a scan job.
func (c *Client) SubmitScan(ctx context.Context, req api.SubmitScanRequest) (api.SubmitScanResponse, error) {
	var resp api.SubmitScanResponse
	err := c.do(ctx, http.MethodPost, "/api/scans", req, &resp)
	return resp, err
}

// Scan fetches one scan job.
func (c *Client) Scan(ctx context.Context, jobID string) (scan.Snapshot, error) {
	var snap scan.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/scans/"+url.PathEscape(jobID), nil, &snap)
	return snap, err
}

// Scans lists known jobs, newest first.
func (c *Client) Scans(ctx context.Context) ([]scan.Snapshot, error) {
	var snaps []scan.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/scans", nil, &snaps)
	return snaps, err
}

// ToggleSelection flips the selected flag on a shortlist entry.
func (c *Client) ToggleSelection(ctx context.Context, jobID string, req api.SelectionRequest) (scan.Entry, error) {
	var entry scan.Entry
	err := c.do(ctx, http.MethodPost, "/api/scans/"+url.PathEscape(jobID)+"/selection", req, &entry)
	return entry, err
}

// SubmitOrder submits a print order.
func (c *Client) SubmitOrder(ctx context.Context, req printing.Request) (printing.Order, error) {
	var order printing.Order
	err := c.do(ctx, http.MethodPost, "/api/orders", req, &order)
	return order, err
}

// Order fetches one order with lazily refreshed provider status.
func (c *Client) Order(ctx context.Context, orderID string) (printing.Order, error) {
	var order printing.Order
	err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(orderID), nil, &order)
	return order, err
}

// Orders lists known orders, newest first.
func (c *Client) Orders(ctx context.Context) ([]printing.Order, error) {
	var orders []printing.Order
	err := c.do(ctx, http.MethodGet, "/api/orders", nil, &orders)
	return orders, err
}

// APIError is a non-2xx daemon response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("daemon returned %d", e.StatusCode)
}

func (c *Client) do(ctx context.Context, method, path string, payload, target any) error {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	endpoint := c.base.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr api.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
