package prodigi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lightbox/internal/services"
)

// Print product constants. Every order uses the 4x6 photo print SKU with the
// asset scaled to fill the print area.
const (
	SKU4x6Print      = "GLOBAL-PAP-4X6"
	SizingFill       = "fillPrintArea"
	PrintAreaDefault = "default"
)

// Provider order stages.
const (
	StageInProgress = "InProgress"
	StageComplete   = "Complete"
	StageCancelled  = "Cancelled"
)

const outcomeCreated = "Created"

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Prodigi print API: JSON over HTTPS with X-API-Key
// authentication. It performs single attempts; retry policy belongs to the
// caller, which knows which failures are worth repeating.
type Client struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewClient constructs a print API client. A nil doer falls back to
// http.DefaultClient.
func NewClient(baseURL, apiKey string, client HTTPDoer) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

// Address is a physical delivery address in provider format.
type Address struct {
	Line1           string `json:"line1"`
	Line2           string `json:"line2,omitempty"`
	PostalOrZipCode string `json:"postalOrZipCode"`
	CountryCode     string `json:"countryCode"`
	TownOrCity      string `json:"townOrCity"`
	StateOrCounty   string `json:"stateOrCounty,omitempty"`
}

// Recipient identifies the order's delivery target.
type Recipient struct {
	Name    string  `json:"name"`
	Address Address `json:"address"`
}

// Asset points at one published image for a print area.
type Asset struct {
	PrintArea string `json:"printArea"`
	URL       string `json:"url"`
}

// Item is one print line in an order.
type Item struct {
	MerchantReference string  `json:"merchantReference"`
	SKU               string  `json:"sku"`
	Copies            int     `json:"copies"`
	Sizing            string  `json:"sizing"`
	Assets            []Asset `json:"assets"`
}

// OrderRequest is the create-order payload. It carries no credentials; the
// API key travels only in the request header.
type OrderRequest struct {
	MerchantReference string    `json:"merchantReference"`
	ShippingMethod    string    `json:"shippingMethod"`
	Recipient         Recipient `json:"recipient"`
	Items             []Item    `json:"items"`
}

// OrderStatus is the provider-side order progress.
type OrderStatus struct {
	Stage string `json:"stage"`
}

// Order is the provider's view of a submitted order.
type Order struct {
	ID     string      `json:"id"`
	Status OrderStatus `json:"status"`
}

type orderResponse struct {
	Outcome string `json:"outcome"`
	Order   Order  `json:"order"`
}

// RejectionError carries the provider's definitive refusal of an order,
// with the raw response body for diagnostics. Bodies never contain the API
// key; it is sent only as a header.
type RejectionError struct {
	StatusCode int
	Outcome    string
	Body       string
}

func (e *RejectionError) Error() string {
	if e.Outcome != "" {
		return fmt.Sprintf("order rejected: outcome %s (http %d)", e.Outcome, e.StatusCode)
	}
	return fmt.Sprintf("order rejected: http %d", e.StatusCode)
}

// CreateOrder submits one order. Transport and server-side failures come back
// tagged transient; provider rejections come back tagged rejected with a
// RejectionError in the chain.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	body, err := c.send(ctx, http.MethodPost, "/orders", req)
	if err != nil {
		return Order{}, err
	}
	var decoded orderResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Order{}, services.Wrap(services.ErrTransient, "prodigi", "create order", "decode response", err)
	}
	if decoded.Outcome != "" && !strings.EqualFold(decoded.Outcome, outcomeCreated) {
		rejection := &RejectionError{StatusCode: http.StatusOK, Outcome: decoded.Outcome, Body: string(body)}
		return Order{}, services.Wrap(services.ErrRejected, "prodigi", "create order", rejection.Error(), rejection)
	}
	if decoded.Order.ID == "" {
		return Order{}, services.Wrap(services.ErrTransient, "prodigi", "create order", "response missing order id", nil)
	}
	return decoded.Order, nil
}

// GetOrder fetches the current provider state of an order.
func (c *Client) GetOrder(ctx context.Context, id string) (Order, error) {
	body, err := c.send(ctx, http.MethodGet, "/orders/"+id, nil)
	if err != nil {
		return Order{}, err
	}
	var decoded orderResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Order{}, services.Wrap(services.ErrTransient, "prodigi", "get order", "decode response", err)
	}
	if decoded.Order.ID == "" {
		decoded.Order.ID = id
	}
	return decoded.Order, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload any) ([]byte, error) {
	op := strings.ToLower(method) + " " + path
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "prodigi", op, "encode payload", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "prodigi", op, "build request", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "prodigi", op, "request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "prodigi", op, "read response", err)
	}

	switch {
	case resp.StatusCode < http.StatusMultipleChoices:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, services.Wrap(services.ErrTransient, "prodigi", op,
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	default:
		rejection := &RejectionError{StatusCode: resp.StatusCode, Body: string(body)}
		return nil, services.Wrap(services.ErrRejected, "prodigi", op, rejection.Error(), rejection)
	}
}

// LocalState is the daemon-side order state derived from provider status.
type LocalState string

const (
	StateSubmitted LocalState = "submitted"
	StateComplete  LocalState = "complete"
	StateFailed    LocalState = "failed"
)

// MapStage converts a provider stage into the local order state. Unknown
// stages stay submitted so a provider-side addition never strands an order
// as failed.
func MapStage(stage string) LocalState {
	switch {
	case strings.EqualFold(stage, StageComplete):
		return StateComplete
	case strings.EqualFold(stage, StageCancelled):
		return StateFailed
	default:
		return StateSubmitted
	}
}
