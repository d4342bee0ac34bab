// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/activity"
	"github.com/Lagunov2003/practice-registry/internal/event"
	"github.com/Lagunov2003/practice-registry/internal/handler"
	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/observability"
	"github.com/Lagunov2003/practice-registry/internal/session"
	"github.com/Lagunov2003/practice-registry/internal/wire"
	"github.com/Lagunov2003/practice-registry/internal/workspace"
)

// CleanupInterval is how often expired sessions are dropped.
const CleanupInterval = time.Minute

// Config holds server configuration.
type Config struct {
	Addr     string
	Backend  workspace.Backend
	Lookup   workspace.Searcher
	Recorder event.Recorder
	Activity activity.Store
	Sessions *session.Manager
	Registry prometheus.Gatherer
	Metrics  *observability.Metrics
	Log      *zap.Logger
}

// NewRouter registers every route of the admin server.
func NewRouter(cfg Config) http.Handler {
	log := logging.OrNop(cfg.Log)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log, cfg.Metrics))
	r.Use(middleware.Recoverer)

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	// --- Pages ---
	pages := handler.NewPageHandler(cfg.Backend, log)
	r.Get("/", pages.Landing)
	r.Get("/registry", pages.Registry)

	r.Route("/api", func(r chi.Router) {
		// --- Practices ---
		ph := handler.NewPracticeHandler(cfg.Backend, cfg.Recorder, log)
		r.Get("/top", ph.GetTop)
		r.Get("/practices", ph.ListPractices)
		r.Post("/practices", ph.CreatePractice)
		r.Patch("/practices/{id}/grade", ph.UpdateGrade)
		r.Post("/practices/{id}/complete", ph.CompletePractice)

		// --- Lookups ---
		lh := handler.NewLookupHandler(cfg.Lookup, log)
		r.Get("/lookup/{domain}", lh.Search)

		// --- Activity ---
		if cfg.Activity != nil {
			ah := handler.NewActivityHandler(cfg.Activity, log.Named("api"))
			r.Get("/activity", ah.HandleGetActivity)
		}

		// --- Sessions ---
		if cfg.Sessions != nil {
			r.Handle("/ws", wire.NewHandler(cfg.Sessions, log))
		}
	})
	return r
}

// Run starts the HTTP server and the session janitor, and blocks until ctx
// is cancelled or the listener fails.
func Run(ctx context.Context, cfg Config) error {
	log := logging.OrNop(cfg.Log)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Sessions != nil {
		go janitor(ctx, cfg.Sessions, log)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	log.Info("starting server", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func janitor(ctx context.Context, sessions *session.Manager, log *zap.Logger) {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Cleanup(); n > 0 {
				log.Info("expired sessions removed", zap.Int("count", n))
			}
		}
	}
}

// requestLogger logs method, path, status and duration of every request.
func requestLogger(log *zap.Logger, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.ObserveHTTP(r.Method, strconv.Itoa(status))
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
