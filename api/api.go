// Package api serves the persons HTTP API.
package api

import (
	"errors"
	"net/http"
	"time"

	persons "github.com/getpup/persons-api"
	"github.com/getpup/persons-api/forecast"
	"github.com/getpup/persons-api/metrics"
	"github.com/getpup/persons-api/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// ErrStoreRequired indicates the API was configured without a person store.
var ErrStoreRequired = errors.New("person store is required")

// Config configures the HTTP API.
type Config struct {
	// Store persists persons (required).
	Store store.PersonStore

	// Forecast generates weather forecasts (default: generator with no summaries).
	Forecast *forecast.Generator

	// ForecastDays is the number of days served by /weatherforecast (default: 5).
	ForecastDays int

	// AllowedOrigins lists CORS origins (default: *).
	AllowedOrigins []string

	// Logger receives request and error logs (default: nil, no logging).
	Logger persons.Logger

	// InstrumentHTTP records request metrics for every route.
	InstrumentHTTP bool

	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler

	// RequestTimeout bounds handler execution (default: 30s).
	RequestTimeout time.Duration
}

// Server routes HTTP requests to the person store and forecast generator.
type Server struct {
	store        store.PersonStore
	forecast     *forecast.Generator
	forecastDays int
	logger       persons.Logger
	openAPI      []byte
	router       chi.Router
}

// New creates a Server from cfg.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, ErrStoreRequired
	}
	if cfg.Forecast == nil {
		cfg.Forecast = forecast.NewGenerator(nil)
	}
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = forecast.DefaultDays
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	doc, err := openAPIDocument()
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:        cfg.Store,
		forecast:     cfg.Forecast,
		forecastDays: cfg.ForecastDays,
		logger:       cfg.Logger,
		openAPI:      doc,
	}
	s.router = s.routes(cfg)

	return s, nil
}

func (s *Server) routes(cfg Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	if cfg.InstrumentHTTP {
		r.Use(metrics.Middleware)
	}
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders: []string{"Location"},
	}).Handler)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Get("/openapi.json", s.openAPIHandler)
	r.Get("/weatherforecast", s.weatherForecast)

	r.Route("/persons", func(r chi.Router) {
		r.Post("/", s.createPerson)
		r.Get("/", s.listPersons)
		r.Get("/{id}", s.getPerson)
		r.Put("/{id}", s.updatePerson)
		r.Delete("/{id}", s.deletePerson)
	})

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
