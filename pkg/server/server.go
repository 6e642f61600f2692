// Package server exposes reconciliation planning over HTTP.
//
// Routes:
//
//	GET  /healthz  liveness check, always 200 "ok"
//	POST /plan     body is a SQL script; responds with the planned operations
//	               and the residual script as JSON
//
// Planning never executes SQL, so the endpoint is safe to point at production
// catalogs. Each request runs its own reconciliation pass.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/catalog"
	"github.com/pseudomuto/dbmover/pkg/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/sync/errgroup"
)

const (
	maxScriptBytes  = 4 << 20
	shutdownTimeout = 10 * time.Second
)

type (
	// Config controls server startup.
	Config struct {
		// Addr is the listen address, e.g. ":8080".
		Addr string
		// Catalog is inspected on every request.
		Catalog catalog.Catalog
		// Schema is passed to the Inspector; empty means the dialect default.
		Schema string
		// Options are applied to every reconciliation pass.
		Options schema.Options
		// Logger is attached to each request context.
		Logger zerolog.Logger
	}

	// Server serves the planning endpoint.
	Server struct {
		cfg    Config
		router chi.Router
	}

	// PlanResponse is the body returned by POST /plan.
	PlanResponse struct {
		Operations []OperationResponse `json:"operations"`
		Residual   string              `json:"residual"`
	}

	// OperationResponse is a single planned statement.
	OperationResponse struct {
		SQL   string                `json:"sql"`
		Class schema.OperationClass `json:"class"`
		Table string                `json:"table"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

// New constructs a Server and its routes.
func New(cfg Config) *Server {
	s := &Server{cfg: cfg, router: chi.NewRouter()}
	s.routes()

	return s
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on the configured address until ctx is cancelled, then shuts
// the server down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.cfg.Logger.Info().Str("addr", s.cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server failed")
		}

		return nil
	})
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.cfg.Logger.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(hlog.NewHandler(s.cfg.Logger))
	s.router.Use(requestIDLogger)
	s.router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/plan", s.handlePlan)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxScriptBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
		return
	}

	plan := schema.NewPlan()
	rec := schema.NewReconciler(schema.NewInspector(s.cfg.Catalog, s.cfg.Schema), plan, s.cfg.Options)

	residual, err := rec.Reconcile(r.Context(), string(body))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, schema.ErrParse) {
			status = http.StatusUnprocessableEntity
		}

		hlog.FromRequest(r).Error().Err(err).Msg("planning failed")
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	resp := PlanResponse{Operations: []OperationResponse{}, Residual: residual}
	for _, op := range plan.Operations() {
		resp.Operations = append(resp.Operations, OperationResponse{SQL: op.SQL, Class: op.Class, Table: op.Table})
	}

	writeJSON(w, http.StatusOK, resp)
}

// requestIDLogger adds chi's request id to the request logger.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("req_id", middleware.GetReqID(r.Context()))
		})

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
