package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mind-engage/medscore/internal/metrics"
)

type RouterOptions struct {
	Scorer      Scorer
	Tables      Tables
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	CORSOrigins []string
	Timeout     time.Duration
}

// NewRouter mounts the scoring API, health checks and metrics.
func NewRouter(o RouterOptions) chi.Router {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if len(o.CORSOrigins) == 0 {
		o.CORSOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(o.Logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(o.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: o.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Post("/score", ScoreHandler(o.Scorer, o.Metrics, o.Logger))
	r.Get("/health", HealthHandler(o.Tables))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", ReadyHandler(o.Tables))
	r.Method(http.MethodGet, "/metrics", o.Metrics.Handler())

	return r
}
