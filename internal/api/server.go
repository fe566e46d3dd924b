package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/snarg/drive-transcriber/internal/config"
	"github.com/snarg/drive-transcriber/internal/metrics"
)

const (
	banner       = "Video transcriber is up. Send a POST request to /transcribe.\n"
	maxBodyBytes = 1 << 20
)

type ServerOptions struct {
	Config            *config.Config
	Jobs              JobService
	MQTT              ConnChecker // nil when no broker is configured
	FFmpegAvailable   bool
	StagingConfigured bool
	Version           string
	StartTime         time.Time
	Log               zerolog.Logger
}

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(opts ServerOptions) *Server {
	cfg := opts.Config
	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      NewRouter(opts),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: opts.Log,
	}
}

// NewRouter builds the HTTP routes.
func NewRouter(opts ServerOptions) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(opts.Log))
	r.Use(metrics.InstrumentHandler)

	// Unauthenticated
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(banner))
	})
	r.Get("/api/v1/health", NewHealthHandler(opts).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	transcribe := NewTranscribeHandler(opts.Jobs)
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(opts.Config.AuthToken))
		r.Use(LimitBody(maxBodyBytes))
		r.Post("/transcribe", transcribe.Submit)
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
