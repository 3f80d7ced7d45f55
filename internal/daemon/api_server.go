package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kagelump/vlog/internal/api"
	"github.com/kagelump/vlog/internal/config"
	"github.com/kagelump/vlog/internal/logging"
	"github.com/kagelump/vlog/internal/services"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{bind: bind, logger: logger, daemon: d}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", srv.handleHealthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/api/status", srv.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/catalog", srv.handleCatalogList).Methods(http.MethodGet)
	router.HandleFunc("/api/catalog/stats", srv.handleCatalogStats).Methods(http.MethodGet)
	router.HandleFunc("/api/catalog/{filename}", srv.handleCatalogGet).Methods(http.MethodGet)
	router.HandleFunc("/api/catalog/{filename}", srv.handleCatalogRemove).Methods(http.MethodDelete)
	router.HandleFunc("/api/catalog/{filename}/keep", srv.handleCatalogKeep).Methods(http.MethodPost)

	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
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

// addr returns the bound listen address, for tests using port zero.
func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "api"))
}

func (s *apiServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:     status.Running,
		PID:         status.PID,
		LockPath:    status.LockPath,
		CatalogPath: status.CatalogPath,
		Ingest: api.IngestStatus{
			Running:      status.Ingest.Running,
			WatchDir:     status.Ingest.WatchDir,
			Queued:       status.Ingest.Queued,
			WorkerActive: status.Ingest.WorkerActive,
			BatchSize:    status.Ingest.BatchSize,
			BatchTimeout: status.Ingest.BatchTimeout,
		},
		Describe: api.DescribeHealth{
			Status:      status.Describe.Status,
			ModelLoaded: status.Describe.ModelLoaded,
			ModelName:   status.Describe.ModelName,
			Error:       status.DescribeErr,
		},
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleCatalogList(w http.ResponseWriter, r *http.Request) {
	records, err := s.daemon.ListCatalog(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"records": api.FromCatalogRecords(records)})
}

func (s *apiServer) handleCatalogStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.daemon.CatalogSummary(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.CatalogStats{
		Total:        stats.Total,
		Kept:         stats.Kept,
		TotalSeconds: stats.TotalSeconds,
	})
}

func (s *apiServer) handleCatalogGet(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]
	rec, err := s.daemon.GetRecord(r.Context(), filename)
	if errors.Is(err, services.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "no record for "+filename)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromCatalogRecord(rec))
}

func (s *apiServer) handleCatalogRemove(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]
	removed, err := s.daemon.RemoveRecord(r.Context(), filename)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		s.writeError(w, http.StatusNotFound, "no record for "+filename)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"removed": true})
}

func (s *apiServer) handleCatalogKeep(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]
	var body struct {
		Keep bool `json:"keep"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	updated, err := s.daemon.SetKeep(r.Context(), filename, body.Keep)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !updated {
		s.writeError(w, http.StatusNotFound, "no record for "+filename)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"keep": body.Keep})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Warn("encode response failed", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
