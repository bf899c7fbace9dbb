package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"ch_router/pkg/config"
)

const shutdownTimeout = 10 * time.Second

// NewServer creates an HTTP server with all routes and middleware.
func NewServer(cfg config.ServerConfig, handlers *Handlers) *http.Server {
	mux := http.NewServeMux()

	sem := make(chan struct{}, cfg.MaxConcurrent)
	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, withMiddleware(h, sem, cfg))
	}

	route("POST /api/v1/distance", handlers.HandleDistance)
	route("POST /api/v1/route", handlers.HandleRoute)
	route("POST /api/v1/matrix", handlers.HandleMatrix)
	route("GET /api/v1/nearest", handlers.HandleNearest)
	route("GET /api/v1/health", handlers.HandleHealth)
	route("GET /api/v1/stats", handlers.HandleStats)

	var handler http.Handler = mux
	if cfg.CORSOrigin != "" {
		handler = cors.New(cors.Options{
			AllowedOrigins: []string{cfg.CORSOrigin},
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
		}).Handler(mux)
	}

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		IdleTimeout:  cfg.IdleTimeout.Duration,
	}
}

// ListenAndServe starts the server and blocks until it fails or a SIGTERM or
// SIGINT triggers a graceful shutdown.
func ListenAndServe(srv *http.Server) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Printf("Received shutdown signal, draining connections...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// withMiddleware wraps a handler with security headers, concurrency limiting,
// panic recovery, a request deadline and an access log line. CORS is handled
// in front of the mux so that preflight requests get answered.
func withMiddleware(handler http.HandlerFunc, sem chan struct{}, cfg config.ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")

		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		default:
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, "service_unavailable", "")
			return
		}

		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic: %s %s: %v", r.Method, r.URL.Path, rec)
				writeError(w, http.StatusInternalServerError, "internal_error", "")
			}
		}()

		ctx, cancel := context.WithTimeout(r.Context(), cfg.RequestTimeout.Duration)
		defer cancel()

		start := time.Now()
		handler(w, r.WithContext(ctx))
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start).Round(time.Microsecond))
	}
}
