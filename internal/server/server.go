// Package server exposes the reconciliation service as a JSON HTTP API.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/commission-cli/internal/recon"
	"github.com/sells-group/commission-cli/internal/store"
)

// Server wires the reconciliation service into an HTTP router.
type Server struct {
	svc       *recon.Service
	store     store.Store
	log       *zap.Logger
	maxUpload int64
	origins   []string
}

// Options configures the HTTP surface.
type Options struct {
	MaxUploadBytes int64
	CORSOrigins    []string
}

func New(svc *recon.Service, st store.Store, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 25 << 20
	}
	return &Server{
		svc:       svc,
		store:     st,
		log:       log,
		maxUpload: opts.MaxUploadBytes,
		origins:   opts.CORSOrigins,
	}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
			AllowCredentials: true,
		}))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api/reconciliation", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/", s.handleListImports)
		r.Post("/lines/{lineID}/match", s.handleManualMatch)
		r.Post("/monthly-pay/{period}", s.handleMonthlyPay)
		r.Get("/monthly-pay/{period}", s.handleMonthlyPay)
		r.Get("/agent-sheet/{period}/{agentID}", s.handleAgentSheet)
		r.Get("/{importID}", s.handleImportSummary)
		r.Post("/{importID}/match", s.handleRunMatching)
		r.Post("/{importID}/calculate", s.handleImportCommissions)
		r.Delete("/{importID}", s.handleDeleteImport)
	})

	r.Route("/api/payroll", func(r chi.Router) {
		r.Post("/submit/{period}", s.handlePayrollSubmit)
		r.Post("/unlock/{period}", s.handlePayrollUnlock)
		r.Post("/mark-paid/{period}", s.handlePayrollMarkPaid)
		r.Get("/history", s.handlePayrollHistory)
		r.Get("/detail/{period}", s.handlePayrollDetail)
	})

	r.Route("/api/tiers", func(r chi.Router) {
		r.Get("/", s.handleListTiers)
		r.Post("/", s.handleCreateTier)
		r.Post("/seed", s.handleSeedTiers)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
