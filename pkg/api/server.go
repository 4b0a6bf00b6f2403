// pkg/api/server.go
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/analytics"
	"github.com/David-Botos/datawizard/pkg/catalog"
	"github.com/David-Botos/datawizard/pkg/cleaner"
	"github.com/David-Botos/datawizard/pkg/config"
	"github.com/David-Botos/datawizard/pkg/converter"
	"github.com/David-Botos/datawizard/pkg/counter"
	"github.com/David-Botos/datawizard/pkg/insights"
	"github.com/David-Botos/datawizard/pkg/session"
)

// Deps are the collaborators the HTTP handlers work with
type Deps struct {
	Server   config.ServerConfig
	Cleaning config.CleaningConfig

	Converter *converter.TypeConverter
	Cleaner   *cleaner.DataCleaner
	Sessions  *session.Store
	Counter   *counter.Counter
	Metrics   *analytics.Metrics

	Catalog         *catalog.Catalog
	CatalogWarnings []string // Surfaced with every catalog page

	// Registry is served on /metrics when set
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// Server serves the cleaning and catalog API
type Server struct {
	cfg      config.ServerConfig
	defaults cleaner.Options
	insights insights.Options

	converter *converter.TypeConverter
	cleaner   *cleaner.DataCleaner
	sessions  *session.Store
	counter   *counter.Counter
	metrics   *analytics.Metrics
	registry  *prometheus.Registry

	catalog         *catalog.Catalog
	catalogWarnings []string

	logger *zap.Logger
}

// NewServer validates the dependencies and builds a server
func NewServer(d Deps) (*Server, error) {
	switch {
	case d.Converter == nil:
		return nil, errors.New("type converter cannot be nil")
	case d.Cleaner == nil:
		return nil, errors.New("cleaner cannot be nil")
	case d.Sessions == nil:
		return nil, errors.New("session store cannot be nil")
	case d.Counter == nil:
		return nil, errors.New("visit counter cannot be nil")
	case d.Metrics == nil:
		return nil, errors.New("metrics cannot be nil")
	case d.Logger == nil:
		return nil, errors.New("logger cannot be nil")
	}

	cat := d.Catalog
	if cat == nil {
		cat = catalog.New(nil)
	}

	opts := insights.DefaultOptions()
	if d.Cleaning.MaxCategories > 0 {
		opts.MaxCategories = d.Cleaning.MaxCategories
	}

	return &Server{
		cfg: d.Server,
		defaults: cleaner.Options{
			HandleMissing:    d.Cleaning.HandleMissing,
			RemoveDuplicates: d.Cleaning.RemoveDuplicates,
			StandardizeText:  d.Cleaning.StandardizeText,
			FixTypes:         d.Cleaning.FixTypes,
		},
		insights:        opts,
		converter:       d.Converter,
		cleaner:         d.Cleaner,
		sessions:        d.Sessions,
		counter:         d.Counter,
		metrics:         d.Metrics,
		registry:        d.Registry,
		catalog:         cat,
		catalogWarnings: d.CatalogWarnings,
		logger:          d.Logger.Named("api"),
	}, nil
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", sessionHeader},
		ExposedHeaders:   []string{"Content-Disposition", sessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.health)
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Post("/clean", s.clean)
		r.Get("/visits", s.visits)
		r.Get("/analytics", s.analytics)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.currentPage)
			r.Get("/options", s.projectOptions)
			r.Post("/search", s.search)
			r.Post("/more", s.loadMore)
			r.Post("/reset", s.reset)
			r.Get("/detail/{index}", s.openDetail)
			r.Delete("/detail", s.closeDetail)
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("ok", map[string]interface{}{
		"sessions": s.sessions.Len(),
		"projects": s.catalog.Len(),
	}))
}

// requestLogger logs one line per request with zap
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info("Request handled",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
