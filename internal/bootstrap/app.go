package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/jobfit/internal/infra/config"
	"github.com/yanqian/jobfit/internal/infra/queue"
)

const shutdownTimeout = 10 * time.Second

// App owns the HTTP server and the background job queue.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	jobs   queue.HandlerQueue
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, jobs queue.HandlerQueue) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, jobs: jobs}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the server fails.
// In-flight tailoring jobs are drained after the server stops accepting requests.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address, "queue", a.cfg.Queue.Backend)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutdown signal received")
		runErr = a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	if a.jobs != nil {
		a.logger.Info("draining job queue")
		a.jobs.Close()
	}
	return runErr
}
