// Package api serves the diagram, the playback controls and a live event
// stream to browser viewers.
package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/AaronLay10/chaintour/internal/controls"
	"github.com/AaronLay10/chaintour/internal/diagram"
	"github.com/AaronLay10/chaintour/internal/events"
	"github.com/AaronLay10/chaintour/internal/logger"
	"github.com/AaronLay10/chaintour/internal/playback"
	"github.com/AaronLay10/chaintour/internal/version"
)

const shutdownTimeout = 5 * time.Second

// The server switches to HTTPS when both variables name a certificate pair.
const (
	EnvTLSCert = "CHAINTOUR_TLS_CERT"
	EnvTLSKey  = "CHAINTOUR_TLS_KEY"
)

// Server exposes one Controls over HTTP and WebSocket.
type Server struct {
	controls  *controls.Controls
	catalog   *diagram.Catalog
	logger    *zap.SugaredLogger
	registry  *prometheus.Registry
	startTime time.Time
}

// NewServer builds a server for c. The catalog is served as-is by
// /diagram and /scenarios.
func NewServer(c *controls.Controls, catalog *diagram.Catalog) *Server {
	s := &Server{
		controls:  c,
		catalog:   catalog,
		logger:    logger.Named("api"),
		startTime: time.Now(),
	}
	s.registry = newRegistry(s)
	return s
}

// Handler returns the routes served by s.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.uiHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/events", s.eventsHandler)
	mux.HandleFunc("/diagram", s.diagramHandler)
	mux.HandleFunc("/scenarios", s.scenariosHandler)
	mux.HandleFunc("/playback", s.playbackHandler)
	mux.HandleFunc("/playback/play", s.playHandler)
	mux.HandleFunc("/playback/pause", s.pauseHandler)
	mux.HandleFunc("/playback/resume", s.resumeHandler)
	mux.HandleFunc("/playback/reset", s.resetHandler)
	mux.HandleFunc("/playback/speed", s.speedHandler)
	mux.HandleFunc("/playback/hover", s.hoverHandler)
	mux.HandleFunc("/ws", s.wsEventsHandler)
	mux.Handle("/metrics", metricsHandler(s.registry))
	return mux
}

// ListenAndServe serves on port until ctx is cancelled. A certificate pair
// that is configured but cannot be loaded is an error, not a fallback to HTTP.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	tlsConfig, err := tlsFromEnv()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("api listening", logger.FieldAddress, srv.Addr, "tls", srv.TLSConfig != nil)
		if srv.TLSConfig != nil {
			errCh <- srv.ListenAndServeTLS("", "")
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "api server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	events.CloseAllSubscribers()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "api shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "api server")
	}
	return nil
}

// tlsFromEnv loads the pair named by EnvTLSCert and EnvTLSKey. It returns nil
// when either is unset.
func tlsFromEnv() (*tls.Config, error) {
	certFile, keyFile := os.Getenv(EnvTLSCert), os.Getenv(EnvTLSKey)
	if certFile == "" || keyFile == "" {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "load TLS certificate %s", certFile),
			fmt.Sprintf("unset %s and %s to serve plain HTTP", EnvTLSCert, EnvTLSKey))
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

// Response is the body of every control endpoint.
type Response struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Hint  string          `json:"hint,omitempty"`
	State *controls.State `json:"state,omitempty"`
}

type playRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type speedRequest struct {
	Multiplier float64 `json:"multiplier"`
}

type hoverRequest struct {
	NodeID string `json:"node_id"`
}

type scenarioSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Steps       int    `json:"steps"`
	DurationMS  int64  `json:"duration_ms"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   "chaintour",
		Version:   version.Version,
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, events.Snapshot())
}

func (s *Server) diagramHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"title": s.catalog.Title,
		"graph": s.catalog.Graph,
	})
}

func (s *Server) scenariosHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	out := make([]scenarioSummary, 0, len(s.catalog.Scenarios))
	for _, sc := range s.catalog.Scenarios {
		out = append(out, scenarioSummary{
			ID:          sc.ID,
			Title:       sc.Title,
			Description: sc.Description,
			Steps:       len(sc.Steps),
			DurationMS:  sc.TotalDuration().Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) playbackHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.controls.State())
}

func (s *Server) playHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req playRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	s.respond(w, s.controls.Play(req.ScenarioID))
}

func (s *Server) pauseHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	s.controls.Pause()
	s.respond(w, nil)
}

func (s *Server) resumeHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	s.controls.Resume()
	s.respond(w, nil)
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	s.controls.Reset()
	s.respond(w, nil)
}

func (s *Server) speedHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req speedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: "invalid JSON"})
		return
	}
	s.respond(w, s.controls.SetSpeed(req.Multiplier))
}

func (s *Server) hoverHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req hoverRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	if req.NodeID == "" {
		s.controls.ClearHover()
		s.respond(w, nil)
		return
	}
	s.respond(w, s.controls.Hover(req.NodeID))
}

// respond writes the outcome of a control call together with the new state.
func (s *Server) respond(w http.ResponseWriter, err error) {
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			s.logger.Errorw("control failed", logger.FieldError, err)
		}
		writeJSON(w, code, Response{
			Error: err.Error(),
			Hint:  errors.FlattenHints(err),
		})
		return
	}
	st := s.controls.State()
	writeJSON(w, http.StatusOK, Response{OK: true, State: &st})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, playback.ErrInvalidScenario):
		return http.StatusUnprocessableEntity
	case errors.Is(err, controls.ErrUnknownScenario), errors.Is(err, controls.ErrUnknownNode):
		return http.StatusNotFound
	case errors.Is(err, playback.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, Response{Error: "method not allowed"})
	return false
}

// decodeOptional decodes a JSON body into v; an empty body leaves v zero.
func decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, Response{Error: "invalid JSON"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
