package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carprice/adapters/plotpng"
	"carprice/internal"
	"carprice/internal/config"
	"carprice/internal/dataset"
	"carprice/internal/metrics"
	"carprice/internal/page"
	"carprice/internal/session"
	"carprice/ui"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 5 * time.Minute
)

func loadDataset(ctx context.Context, appConfig *config.Config) (*dataset.Dataset, error) {
	data, err := dataset.LoadConfigured(ctx, appConfig)
	if err != nil {
		return nil, err
	}
	r := data.Report
	metrics.RecordDataset(r.RowsRead, r.RowsKept, r.Duplicates, r.Missing)
	return data, nil
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sweepSessions drops idle filter sessions until ctx is cancelled
func sweepSessions(ctx context.Context, store *session.Store) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			store.CleanupExpired()
			metrics.ActiveSessions.Set(float64(store.Len()))
		}
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	internal.DefaultLogger.SetLevel(internal.ParseLogLevel(appConfig.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := loadDataset(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to load car dataset: %v", err)
	}

	narratives, err := page.LoadNarratives()
	if err != nil {
		log.Fatalf("Failed to load page narratives: %v", err)
	}

	sessions := session.NewStore(time.Duration(appConfig.Session.MaxAgeSecs) * time.Second)
	server, err := ui.NewServer(ui.Deps{
		Data:       data,
		Config:     appConfig,
		Narratives: narratives,
		Charts:     plotpng.DefaultRenderer(),
		Sessions:   sessions,
	})
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serve(gctx, server.HTTPServer(":"+appConfig.Server.Port))
	})
	if appConfig.Admin.Enabled {
		g.Go(func() error {
			return serve(gctx, ui.NewAdminApp().HTTPServer(":"+appConfig.Admin.Port))
		})
	}
	g.Go(func() error { return sweepSessions(gctx, sessions) })

	log.Printf("Serving %d cars from %s on port %s", len(data.Records), data.Source, appConfig.Server.Port)
	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
	log.Println("Shutdown complete")
}
