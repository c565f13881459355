package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lightbox/internal/config"
)

const userAgent = "Lightbox-Go/0.1.0"

// Service delivers curation milestones to an external channel.
type Service interface {
	ScanCompleted(ctx context.Context, jobID string, shortlisted int) error
	ScanFailed(ctx context.Context, jobID string, reason error) error
	OrderSubmitted(ctx context.Context, orderID, providerRef string, photos int) error
	OrderFailed(ctx context.Context, orderID string, reason error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) ScanCompleted(ctx context.Context, jobID string, shortlisted int) error {
	data := payload{
		title:   "Lightbox - Scan Complete",
		message: fmt.Sprintf("Scan %s finished with %d shortlisted photos", jobID, shortlisted),
		tags:    []string{"lightbox", "scan", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) ScanFailed(ctx context.Context, jobID string, reason error) error {
	message := fmt.Sprintf("Scan %s failed", jobID)
	if reason != nil {
		message = fmt.Sprintf("%s: %s", message, strings.TrimSpace(reason.Error()))
	}
	data := payload{
		title:    "Lightbox - Scan Failed",
		message:  message,
		tags:     []string{"lightbox", "scan", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) OrderSubmitted(ctx context.Context, orderID, providerRef string, photos int) error {
	message := fmt.Sprintf("Print order %s submitted with %d photos", orderID, photos)
	if providerRef = strings.TrimSpace(providerRef); providerRef != "" {
		message = fmt.Sprintf("%s (ref %s)", message, providerRef)
	}
	data := payload{
		title:   "Lightbox - Order Submitted",
		message: message,
		tags:    []string{"lightbox", "print", "submitted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) OrderFailed(ctx context.Context, orderID string, reason error) error {
	message := fmt.Sprintf("Print order %s failed", orderID)
	if reason != nil {
		message = fmt.Sprintf("%s: %s", message, strings.TrimSpace(reason.Error()))
	}
	data := payload{
		title:    "Lightbox - Order Failed",
		message:  message,
		tags:     []string{"lightbox", "print", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Lightbox - Test",
		message:  "Notification system test",
		tags:     []string{"lightbox", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) ScanCompleted(context.Context, string, int) error          { return nil }
func (noopService) ScanFailed(context.Context, string, error) error           { return nil }
func (noopService) OrderSubmitted(context.Context, string, string, int) error { return nil }
func (noopService) OrderFailed(context.Context, string, error) error          { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
