package printing

import (
	"strings"
	"time"

	"lightbox/internal/services/prodigi"
)

// Recipient is the delivery target supplied by the caller. Contact fields
// are sent to the provider but never copied into diagnostic snapshots.
type Recipient struct {
	Name        string `json:"name"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
}

// Request describes one print order submission.
type Request struct {
	ScanID         string    `json:"scan_id"`
	CandidateIDs   []string  `json:"candidate_ids"`
	Recipient      Recipient `json:"recipient"`
	ShippingMethod string    `json:"shipping_method"`
	Copies         int       `json:"copies"`
}

// Diagnostic is the redacted snapshot kept when a submission is rejected.
// It records what was asked of the provider and how the provider answered,
// with credentials and recipient contact details excluded.
type Diagnostic struct {
	MerchantReference string   `json:"merchant_reference"`
	ShippingMethod    string   `json:"shipping_method"`
	SKU               string   `json:"sku"`
	ItemCount         int      `json:"item_count"`
	Copies            int      `json:"copies"`
	AssetURLs         []string `json:"asset_urls,omitempty"`
	Attempts          int      `json:"attempts"`
	ResponseStatus    int      `json:"response_status,omitempty"`
	ResponseBody      string   `json:"response_body,omitempty"`
}

// Order is the daemon-side record of a submission, kept in memory until
// restart.
type Order struct {
	ID              string             `json:"id"`
	ScanID          string             `json:"scan_id"`
	CandidateIDs    []string           `json:"candidate_ids"`
	State           prodigi.LocalState `json:"state"`
	ProviderOrderID string             `json:"provider_order_id,omitempty"`
	ShippingMethod  string             `json:"shipping_method"`
	Copies          int                `json:"copies"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	ErrorMessage    string             `json:"error,omitempty"`
	Diagnostic      *Diagnostic        `json:"diagnostic,omitempty"`
}

// Shipping methods accepted from callers, mapped to provider names.
var shippingMethods = map[string]string{
	"budget":       "Budget",
	"standard":     "Standard",
	"standardplus": "StandardPlus",
	"express":      "Express",
	"overnight":    "Overnight",
}

// ResolveShippingMethod normalizes a caller-supplied shipping method to the
// provider's name. The empty string defaults to standard shipping.
func ResolveShippingMethod(method string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(method))
	normalized = strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)
	if normalized == "" {
		normalized = "standard"
	}
	resolved, ok := shippingMethods[normalized]
	return resolved, ok
}
