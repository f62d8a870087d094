package ui

import (
	"net/http"
	"time"

	"carprice/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Admin is the operator listener: Prometheus metrics, pprof and a health check.
type Admin struct {
	router *chi.Mux
	log    *internal.Logger
}

// NewAdminApp creates the admin router.
func NewAdminApp() *Admin {
	a := &Admin{
		router: chi.NewRouter(),
		log:    internal.DefaultLogger.Component("Admin"),
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

func (a *Admin) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *Admin) setupRoutes() {
	a.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	a.router.Handle("/metrics", promhttp.Handler())
	a.router.Mount("/debug", middleware.Profiler())
}

// Handler exposes the router, mainly for tests.
func (a *Admin) Handler() http.Handler { return a.router }

// HTTPServer wraps the admin router in an http.Server listening on addr.
func (a *Admin) HTTPServer(addr string) *http.Server {
	a.log.Info("Admin endpoints on %s (/metrics, /debug/pprof)", addr)
	return &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
