// Package server exposes the metadata-introspection HTTP API.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dbscanner/internal/db"
	"dbscanner/internal/introspect"
	"dbscanner/internal/logger"
	"dbscanner/pkg/config"
)

// ConnectFunc opens a database connection and resolves the catalog for its
// dialect. Swapped out in tests; db.Open in production.
type ConnectFunc func(driver, dsn string, timeout time.Duration) (*sql.DB, introspect.Catalog, error)

// Server handles metadata requests against one configured database.
// Connection parameters are fixed at construction; every request opens and
// closes its own connection.
type Server struct {
	driver  string
	dsn     string
	timeout time.Duration
	connect ConnectFunc
}

// New builds a Server from the app config. timeout bounds both the
// connection ping and the catalog queries of a single request.
func New(cfg config.AppConfig, timeout time.Duration) (*Server, error) {
	driver, dsn, err := config.BuildDriverAndDSN(cfg.Database)
	if err != nil {
		return nil, err
	}
	return &Server{driver: driver, dsn: dsn, timeout: timeout, connect: db.Open}, nil
}

// Router returns the HTTP routes of the service.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Get("/get_metadata", s.handleGetMetadata)
	r.Get("/health", s.handleHealth)
	return r
}

// handleGetMetadata serves GET /get_metadata?table_name=X.
// Invalid input is rejected before any connection is opened; not-found is a
// normal outcome; everything else is a database failure answered with a
// generic body so driver internals never reach the caller.
func (s *Server) handleGetMetadata(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table_name")
	if table == "" {
		writeError(w, http.StatusBadRequest, "Table name is required")
		return
	}
	if !introspect.ValidTableName(table) {
		writeError(w, http.StatusBadRequest, "Invalid table name. Only alphanumeric characters and underscores are allowed.")
		return
	}

	conn, catalog, err := s.connect(s.driver, s.dsn, s.timeout)
	if err != nil {
		logger.Error("connect for table %s: %v", table, err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	agg, err := introspect.NewScanner(conn, catalog).Aggregate(ctx, table)
	if errors.Is(err, introspect.ErrTableNotFound) {
		logger.Info("no metadata found for table %s", table)
		writeJSON(w, http.StatusNotFound, introspect.EmptyAggregate())
		return
	}
	if err != nil {
		logger.Error("aggregate metadata for %s: %v", table, err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

// handleHealth opens and pings the configured database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	conn, _, err := s.connect(s.driver, s.dsn, s.timeout)
	if err != nil {
		logger.Warn("health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	conn.Close()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger emits one structured access-log record per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Request().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
