package printing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lightbox/internal/config"
	"lightbox/internal/logging"
	"lightbox/internal/scan"
	"lightbox/internal/services"
	"lightbox/internal/services/prodigi"
)

// JobSource exposes the scan jobs orders are built from. Satisfied by
// *scan.Registry.
type JobSource interface {
	Get(id string) (scan.Snapshot, error)
}

// OrderClient is the remote print API surface the service depends on.
// Satisfied by *prodigi.Client.
type OrderClient interface {
	CreateOrder(ctx context.Context, req prodigi.OrderRequest) (prodigi.Order, error)
	GetOrder(ctx context.Context, id string) (prodigi.Order, error)
}

// Option customizes the service.
type Option func(*Service)

// WithClient overrides the remote API client.
func WithClient(client OrderClient) Option {
	return func(s *Service) { s.client = client }
}

// WithPublisher overrides the asset publisher.
func WithPublisher(publisher AssetPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(s *Service) { s.sleeper = sleeper }
}

// Notifier receives order outcome events. Satisfied by notifications.Service.
type Notifier interface {
	OrderSubmitted(ctx context.Context, orderID, providerRef string, photos int) error
	OrderFailed(ctx context.Context, orderID string, reason error) error
}

// WithNotifier installs the order outcome notifier.
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

// Service validates, submits, and tracks print orders. Orders live in memory
// until restart; submission is at-least-once and resubmitting the same
// selection creates a new order.
type Service struct {
	cfg       config.Printing
	jobs      JobSource
	publisher AssetPublisher
	client    OrderClient
	logger    *slog.Logger
	sleeper   func(time.Duration)
	notifier  Notifier

	mu     sync.Mutex
	orders map[string]*Order
}

// NewService wires the print order service from configuration.
func NewService(cfg *config.Config, jobs JobSource, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Service{
		cfg:       cfg.Printing,
		jobs:      jobs,
		publisher: NewBaseURLPublisher(cfg.Printing.AssetBaseURL, cfg.Printing.AssetExpiryHours),
		logger:    logging.NewComponentLogger(logger, "printing"),
		orders:    make(map[string]*Order),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		timeout := time.Duration(cfg.Printing.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		s.client = prodigi.NewClient(cfg.Printing.BaseURL, cfg.Printing.APIKey, &http.Client{Timeout: timeout})
	}
	return s
}

// Submit validates and submits one order. Configuration problems surface
// before any asset is published or any network call is made. Transport
// failures are retried with backoff; provider rejections are final and leave
// a redacted diagnostic on the failed order.
func (s *Service) Submit(ctx context.Context, req Request) (Order, error) {
	if s.cfg.APIKey == "" {
		return Order{}, services.Wrap(services.ErrConfiguration, "printing", "submit", "print api key not configured", nil)
	}
	if s.cfg.AssetBaseURL == "" {
		return Order{}, services.Wrap(services.ErrConfiguration, "printing", "submit", "asset base url not configured", nil)
	}

	entries, err := s.resolveSelection(req)
	if err != nil {
		return Order{}, err
	}
	shipping, ok := ResolveShippingMethod(req.ShippingMethod)
	if !ok {
		return Order{}, services.Wrap(services.ErrValidation, "printing", "submit",
			fmt.Sprintf("unknown shipping method %q", req.ShippingMethod), nil)
	}
	copies := req.Copies
	if copies <= 0 {
		copies = 1
	}

	orderID := uuid.NewString()
	items := make([]prodigi.Item, 0, len(entries))
	assetURLs := make([]string, 0, len(entries))
	for _, entry := range entries {
		assetURL, _, pubErr := s.publisher.Publish(ctx, entry.Path)
		if pubErr != nil {
			return Order{}, services.Wrap(services.ErrConfiguration, "printing", "submit",
				fmt.Sprintf("publish asset for %s", entry.CandidateID), pubErr)
		}
		assetURLs = append(assetURLs, assetURL)
		items = append(items, prodigi.Item{
			MerchantReference: entry.CandidateID,
			SKU:               prodigi.SKU4x6Print,
			Copies:            copies,
			Sizing:            prodigi.SizingFill,
			Assets:            []prodigi.Asset{{PrintArea: prodigi.PrintAreaDefault, URL: assetURL}},
		})
	}

	providerReq := prodigi.OrderRequest{
		MerchantReference: orderID,
		ShippingMethod:    shipping,
		Recipient: prodigi.Recipient{
			Name: req.Recipient.Name,
			Address: prodigi.Address{
				Line1:           req.Recipient.Line1,
				Line2:           req.Recipient.Line2,
				PostalOrZipCode: req.Recipient.PostalCode,
				CountryCode:     req.Recipient.CountryCode,
				TownOrCity:      req.Recipient.City,
				StateOrCounty:   req.Recipient.State,
			},
		},
		Items: items,
	}

	order := &Order{
		ID:             orderID,
		ScanID:         req.ScanID,
		CandidateIDs:   append([]string(nil), req.CandidateIDs...),
		ShippingMethod: shipping,
		Copies:         copies,
		CreatedAt:      time.Now().UTC(),
	}

	providerOrder, attempts, submitErr := s.submitWithRetry(ctx, providerReq)
	order.UpdatedAt = time.Now().UTC()
	if submitErr != nil {
		order.State = prodigi.StateFailed
		order.ErrorMessage = submitErr.Error()
		order.Diagnostic = buildDiagnostic(providerReq, assetURLs, attempts, submitErr)
		s.store(order)
		s.logger.Error("order submission failed",
			logging.String(logging.FieldOrderID, orderID), slog.Int("attempts", attempts), logging.Error(submitErr))
		if s.notifier != nil {
			if notifyErr := s.notifier.OrderFailed(ctx, orderID, submitErr); notifyErr != nil {
				s.logger.Warn("order failure notification", logging.Error(notifyErr))
			}
		}
		return *order, submitErr
	}

	order.State = prodigi.MapStage(providerOrder.Status.Stage)
	order.ProviderOrderID = providerOrder.ID
	s.store(order)
	s.logger.Info("order submitted",
		logging.String(logging.FieldOrderID, orderID),
		slog.String("provider_order_id", providerOrder.ID),
		slog.Int("items", len(items)))
	if s.notifier != nil {
		if notifyErr := s.notifier.OrderSubmitted(ctx, orderID, providerOrder.ID, len(items)); notifyErr != nil {
			s.logger.Warn("order notification", logging.Error(notifyErr))
		}
	}
	return *order, nil
}

func (s *Service) resolveSelection(req Request) ([]scan.Entry, error) {
	if len(req.CandidateIDs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "printing", "submit", "no candidates selected", nil)
	}
	job, err := s.jobs.Get(req.ScanID)
	if err != nil {
		return nil, err
	}
	if job.State != scan.StateComplete {
		return nil, services.Wrap(services.ErrConflict, "printing", "submit",
			fmt.Sprintf("scan %s is %s, not complete", req.ScanID, job.State), nil)
	}
	byID := make(map[string]scan.Entry, len(job.Shortlist))
	for _, entry := range job.Shortlist {
		byID[entry.CandidateID] = entry
	}
	entries := make([]scan.Entry, 0, len(req.CandidateIDs))
	for _, id := range req.CandidateIDs {
		entry, ok := byID[id]
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "printing", "submit",
				fmt.Sprintf("candidate %s not in shortlist of scan %s", id, req.ScanID), nil)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) submitWithRetry(ctx context.Context, req prodigi.OrderRequest) (prodigi.Order, int, error) {
	maxAttempts := s.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	backoff := time.Duration(s.cfg.RetryBackoffMS) * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		order, err := s.client.CreateOrder(ctx, req)
		if err == nil {
			return order, attempt, nil
		}
		lastErr = err
		if !services.Retryable(err) || attempt == maxAttempts {
			return prodigi.Order{}, attempt, err
		}
		s.logger.Warn("order submission attempt failed, retrying",
			logging.String(logging.FieldOrderID, req.MerchantReference),
			slog.Int("attempt", attempt), logging.Error(err))
		if err := s.sleep(ctx, backoff); err != nil {
			return prodigi.Order{}, attempt, err
		}
		backoff *= 2
	}
	return prodigi.Order{}, maxAttempts, lastErr
}

func (s *Service) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if s.sleeper != nil {
		s.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func buildDiagnostic(req prodigi.OrderRequest, assetURLs []string, attempts int, err error) *Diagnostic {
	diag := &Diagnostic{
		MerchantReference: req.MerchantReference,
		ShippingMethod:    req.ShippingMethod,
		SKU:               prodigi.SKU4x6Print,
		ItemCount:         len(req.Items),
		AssetURLs:         assetURLs,
		Attempts:          attempts,
	}
	if len(req.Items) > 0 {
		diag.Copies = req.Items[0].Copies
	}
	var rejection *prodigi.RejectionError
	if errors.As(err, &rejection) {
		diag.ResponseStatus = rejection.StatusCode
		diag.ResponseBody = rejection.Body
	}
	return diag
}

func (s *Service) store(order *Order) {
	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()
}

// Get returns one order, refreshing provider status lazily: a submitted
// order with a provider id is polled on access. Refresh failures keep the
// last known state.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	s.mu.Lock()
	order, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return Order{}, services.Wrap(services.ErrNotFound, "printing", "get", fmt.Sprintf("order %s", id), nil)
	}
	needsRefresh := order.State == prodigi.StateSubmitted && order.ProviderOrderID != ""
	providerID := order.ProviderOrderID
	s.mu.Unlock()

	if !needsRefresh {
		return s.snapshot(id)
	}
	providerOrder, err := s.client.GetOrder(ctx, providerID)
	if err != nil {
		s.logger.Warn("order status refresh failed", logging.String(logging.FieldOrderID, id), logging.Error(err))
		return s.snapshot(id)
	}
	s.mu.Lock()
	if current, ok := s.orders[id]; ok && current.State == prodigi.StateSubmitted {
		current.State = prodigi.MapStage(providerOrder.Status.Stage)
		current.UpdatedAt = time.Now().UTC()
	}
	s.mu.Unlock()
	return s.snapshot(id)
}

// List returns all known orders, newest first.
func (s *Service) List() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := make([]Order, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, *order)
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
	return orders
}

func (s *Service) snapshot(id string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return Order{}, services.Wrap(services.ErrNotFound, "printing", "get", fmt.Sprintf("order %s", id), nil)
	}
	return *order, nil
}
