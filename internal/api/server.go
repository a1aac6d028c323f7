// Package api serves the CRM over HTTP. Every /api route is scoped to the
// owner named by the caller's bearer token.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/crm/internal/config"
	"github.com/sells-group/crm/internal/enrich"
	"github.com/sells-group/crm/internal/importer"
	"github.com/sells-group/crm/internal/kanban"
	"github.com/sells-group/crm/internal/store"
)

const (
	sessionTTL    = time.Hour
	maxUploadSize = 32 << 20
)

// Server holds the handlers' dependencies.
type Server struct {
	store    store.Store
	sessions *importer.Sessions
	executor *importer.Executor
	enrich   *enrich.Service
	board    *kanban.Board
	verifier *Verifier
	keys     func() map[string]bool
	origins  []string
	log      *zap.Logger
}

type options struct {
	src enrich.Source
}

// Option configures a Server.
type Option func(*options)

// WithSource replaces the provider factory built from config.
func WithSource(src enrich.Source) Option {
	return func(o *options) { o.src = src }
}

// New wires a Server over st.
func New(cfg *config.Config, st store.Store, opts ...Option) *Server {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = enrich.NewFactory(cfg)
	}

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Server{
		store:    st,
		sessions: importer.NewSessions(importer.Validator{Region: cfg.Enrich.PhoneRegion}, sessionTTL),
		executor: importer.NewExecutor(st, importer.WithChunkSize(cfg.Import.ChunkSize)),
		enrich:   enrich.NewService(st, o.src, enrich.WithBatchSize(cfg.Enrich.BatchSize)),
		board:    kanban.NewBoard(st),
		verifier: NewVerifier(cfg.Auth.JWTSecret),
		keys:     cfg.KeyStatus,
		origins:  origins,
		log:      zap.L().With(zap.String("component", "api")),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logging(s.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.verifier.Middleware)

		r.Get("/dashboard", s.dashboard)
		r.Get("/settings/keys", s.settingsKeys)

		r.Post("/enrich", s.enrichOne)
		r.Post("/enrich/batch", s.enrichBatch)
		r.Post("/enrich/bulk", s.enrichBulk)

		r.Route("/imports", func(r chi.Router) {
			r.Get("/", s.listImports)
			r.Post("/", s.uploadImport)
			r.Get("/{id}", s.getImport)
			r.Put("/{id}/mapping", s.setImportMapping)
			r.Post("/{id}/confirm", s.confirmImport)
			r.Post("/{id}/execute", s.executeImport)
			r.Delete("/{id}", s.deleteImport)
		})

		r.Mount("/people", peopleResource(s.store).routes())
		r.Mount("/companies", companyResource(s.store).routes())

		r.Route("/kanban", func(r chi.Router) {
			r.Get("/", s.loadBoard)
			r.Post("/columns", s.addColumn)
			r.Patch("/columns/{id}", s.updateColumn)
			r.Delete("/columns/{id}", s.deleteColumn)
			r.Post("/columns/{id}/move", s.moveColumn)
			r.Post("/cards/{companyId}", s.addCard)
			r.Post("/cards/{companyId}/move", s.moveCard)
			r.Delete("/cards/{companyId}", s.removeCard)
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Warn("api: health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Counts(r.Context(), OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) settingsKeys(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.keys())
}
