package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry enables error reporting when dsn is set. It reports whether
// reporting is active; a failed init is logged and treated as disabled.
func InitSentry(dsn, environment, release string, logger *slog.Logger) bool {
	if dsn == "" {
		return false
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
	})
	if err != nil {
		logger.Warn("sentry initialization failed", slog.String("error", err.Error()))
		return false
	}
	logger.Info("sentry initialized", slog.String("environment", environment))
	return true
}

// FlushSentry waits up to timeout for queued events to be sent.
func FlushSentry(timeout time.Duration) {
	sentry.Flush(timeout)
}

// CaptureError reports err on the hub attached to ctx, falling back to the
// global hub. It is a no-op when Sentry is not initialized.
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}
