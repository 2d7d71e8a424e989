// Package logger provides the process-wide structured logger built on
// log/slog.
//
// Handlers log through the request-scoped logger so every line carries the
// request ID:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order created", "order_id", order.ID)
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/rssabbir-dev/m-buy-sell-backend/config"
)

var (
	L *slog.Logger

	sinkMu sync.Mutex
	sink   *MongoHandler
)

func init() {
	L = slog.New(consoleHandler())
	slog.SetDefault(L)
}

// consoleHandler is JSON in production (for aggregators) and text elsewhere.
func consoleHandler() slog.Handler {
	if config.IsProduction() {
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// AttachMongo adds an asynchronous MongoDB sink next to the console handler.
// Call Close on shutdown to flush it.
func AttachMongo(uri, db string) error {
	h, err := NewMongoHandler(uri, db, "logs")
	if err != nil {
		return err
	}

	sinkMu.Lock()
	sink = h
	sinkMu.Unlock()

	L = slog.New(NewMultiHandler(consoleHandler(), h))
	slog.SetDefault(L)
	return nil
}

// Close flushes and detaches the MongoDB sink if one was attached.
func Close() {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if sink != nil {
		sink.Close()
		sink = nil
	}
}

type ctxKey struct{}

// WithCtx returns the request logger injected by the Logger middleware, or
// the base logger when ctx carries none.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return L
}

// InjectLogger stores a request-tagged *slog.Logger in ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }

// LevelFor picks the access-log level for an HTTP status.
func LevelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}
