// Package server exposes the calculator dashboard, its JSON API and the
// report downloads over HTTP.
package server

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	surfboardgwp "github.com/swellcycle/surfboard-gwp"
	"github.com/swellcycle/surfboard-gwp/internal/archive"
	"github.com/swellcycle/surfboard-gwp/internal/auth"
	"github.com/swellcycle/surfboard-gwp/internal/store"
	"github.com/swellcycle/surfboard-gwp/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// historyLimit is the number of snapshots shown on the history page.
const historyLimit = 50

// Server holds the dependencies of the http handlers.
type Server struct {
	evaluator *model.Evaluator
	auth      *auth.Authenticator
	limiter   *auth.LoginLimiter
	history   *store.Store
	archive   archive.Store
	metrics   surfboardgwp.AssessmentSource
	pages     map[string]*template.Template
}

type Option func(s *Server)

// WithHistory enables saving assessments.
func WithHistory(history *store.Store) Option {
	return func(s *Server) {
		s.history = history
	}
}

// WithArchive uploads every generated report to the store.
func WithArchive(store archive.Store) Option {
	return func(s *Server) {
		s.archive = store
	}
}

// WithMetricsSource exposes the assessments of source on /metrics.
func WithMetricsSource(source surfboardgwp.AssessmentSource) Option {
	return func(s *Server) {
		s.metrics = source
	}
}

// New returns a server evaluating requests with evaluator. Every page but
// the login page requires a token issued by authenticator.
func New(evaluator *model.Evaluator, authenticator *auth.Authenticator, limiter *auth.LoginLimiter, opts ...Option) (*Server, error) {
	s := &Server{
		evaluator: evaluator,
		auth:      authenticator,
		limiter:   limiter,
	}
	for _, opt := range opts {
		opt(s)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	s.pages = pages

	if !authenticator.Configured() {
		slog.Warn("no credential configured, every login will be rejected")
	}
	return s, nil
}

func parsePages() (map[string]*template.Template, error) {
	layout, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout template: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, page := range []string{"login.html", "dashboard.html", "history.html"} {
		clone, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout template: %w", err)
		}
		pages[page], err = clone.ParseFS(templateFS, "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
	}
	return pages, nil
}

// Handler returns the router of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.metrics != nil {
		r.Handle("/metrics", surfboardgwp.NewOpenMetricsHandler("baseline", s.metrics))
	}

	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLoginSubmit)
	r.Post("/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware(http.HandlerFunc(s.handleUnauthorized)))

		r.Get("/", s.handleDashboard)
		r.Post("/assess", s.handleAssessForm)
		r.Post("/export/{format}", s.handleExport)
		r.Post("/assessments", s.handleSave)
		r.Get("/history", s.handleHistory)
		r.Get("/history/{id}", s.handleSnapshot)

		r.Post("/api/assess", s.handleAPIAssess)
	})

	return r
}

// requestLogger writes one slog record per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		slog.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, found := s.pages[page]
	if !found {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		slog.Error("failed to render page", "page", page, "err", err.Error())
	}
}
