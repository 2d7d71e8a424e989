// Package server owns the HTTP listener lifecycle of the serve command.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/logger"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/schedule"
)

type Options struct {
	Addr string
	// Jobs run in the background for the lifetime of the server.
	Jobs *schedule.Scheduler
	// ShutdownTimeout bounds how long in-flight requests may take to finish.
	ShutdownTimeout time.Duration
}

// Start serves handler until ctx is cancelled, then drains connections and
// waits for background jobs.
func Start(ctx context.Context, handler http.Handler, opts Options) error {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 15 * time.Second
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	jobCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	if opts.Jobs != nil {
		opts.Jobs.Start(jobCtx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("m-buy-sell listening", "addr", opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", opts.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	stopJobs()
	if opts.Jobs != nil {
		opts.Jobs.Wait()
	}
	if err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
