// Package server exposes the validation, tracking, learning, and audit
// surfaces over HTTP.
package server

import (
	"embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quillon/acatflow/internal/audit"
	"github.com/quillon/acatflow/internal/learning"
	"github.com/quillon/acatflow/internal/llm"
	"github.com/quillon/acatflow/internal/tracking"
)

//go:embed static/index.html
var staticFS embed.FS

// Server wires the domain stores behind an HTTP router. Analyzer may be
// nil, in which case validation stops at the rule engine.
type Server struct {
	tracking tracking.Store
	learning *learning.Store
	audit    *audit.Log
	analyzer *llm.Analyzer
	version  string
}

// New assembles a server over the given stores.
func New(trackingStore tracking.Store, learningStore *learning.Store, auditLog *audit.Log, analyzer *llm.Analyzer, version string) *Server {
	return &Server{
		tracking: trackingStore,
		learning: learningStore,
		audit:    auditLog,
		analyzer: analyzer,
		version:  version,
	}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/", s.handleDashboard)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/firms", s.handleFirms)
	r.Post("/api/validate", s.handleValidate)
	r.Post("/api/submit", s.handleSubmit)

	r.Route("/api/records", func(r chi.Router) {
		r.Post("/", s.handleCreateRecord)
		r.Get("/", s.handleListRecords)
		r.Get("/{recordId}", s.handleGetRecord)
		r.Patch("/{recordId}/status", s.handleUpdateStatus)
		r.Delete("/{recordId}", s.handleDeleteRecord)
	})

	r.Get("/api/learning/insights", s.handleInsights)
	r.Get("/api/learning/{firmCode}", s.handleFirmProfile)
	r.Get("/api/audit", s.handleAuditEntries)

	return r
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "dashboard not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
