package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"lightbox/internal/api"
	"lightbox/internal/config"
	"lightbox/internal/logging"
	"lightbox/internal/printing"
	"lightbox/internal/services"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", srv.handleStatus)
	mux.HandleFunc("POST /api/scans", srv.handleSubmitScan)
	mux.HandleFunc("GET /api/scans", srv.handleListScans)
	mux.HandleFunc("GET /api/scans/{id}", srv.handleGetScan)
	mux.HandleFunc("POST /api/scans/{id}/selection", srv.handleSelection)
	mux.HandleFunc("GET /api/scans/{id}/thumbs/{candidate}", srv.handleThumbnail)
	mux.HandleFunc("POST /api/orders", srv.handleSubmitOrder)
	mux.HandleFunc("GET /api/orders", srv.handleListOrders)
	mux.HandleFunc("GET /api/orders/{id}", srv.handleGetOrder)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := api.DaemonStatus{
		Running: s.daemon.Running(),
		PID:     os.Getpid(),
		Bind:    s.addr(),
		Jobs:    len(s.daemon.registry.List()),
		Orders:  len(s.daemon.printing.List()),
	}
	if stats, err := s.daemon.scorer.CacheStats(r.Context()); err == nil {
		status.CacheEntries = stats.Entries
		if !stats.Oldest.IsZero() {
			status.CacheOldest = stats.Oldest.Format(time.RFC3339)
		}
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *apiServer) handleSubmitScan(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	pipelineReq, err := req.ToPipelineRequest()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	snap, err := s.daemon.registry.Submit(pipelineReq)
	if err != nil {
		s.writeServiceError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.SubmitScanResponse{JobID: snap.ID, State: string(snap.State)})
}

func (s *apiServer) handleListScans(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.registry.List())
}

func (s *apiServer) handleGetScan(w http.ResponseWriter, r *http.Request) {
	snap, err := s.daemon.registry.Get(r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *apiServer) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req api.SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	entry, err := s.daemon.registry.ToggleSelection(r.PathValue("id"), req.CandidateID, req.Selected)
	if err != nil {
		s.writeServiceError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

func (s *apiServer) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	path, ok := s.daemon.thumbs.Path(r.PathValue("id"), r.PathValue("candidate"))
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.New("thumbnail not found"))
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

func (s *apiServer) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req printing.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	order, err := s.daemon.printing.Submit(r.Context(), req)
	if err != nil {
		var detail any
		if order.Diagnostic != nil {
			detail = order
		}
		s.writeServiceError(w, err, detail)
		return
	}
	s.writeJSON(w, http.StatusCreated, order)
}

func (s *apiServer) handleListOrders(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.printing.List())
}

func (s *apiServer) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.daemon.printing.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

// writeServiceError maps the sentinel taxonomy onto HTTP statuses. detail, if
// set, rides along in the error payload (rejected orders attach their
// redacted record).
func (s *apiServer) writeServiceError(w http.ResponseWriter, err error, detail any) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrConfiguration):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrRejected):
		status = http.StatusBadGateway
	case errors.Is(err, services.ErrTransient):
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: err.Error(), Detail: detail})
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}
