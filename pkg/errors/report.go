package errors

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter forwards unexpected errors to an external error tracker.
type Reporter interface {
	// Report sends err with the given tags. It must not block the caller for long.
	Report(ctx context.Context, err error, tags map[string]string)

	// Flush waits until buffered reports are delivered or the timeout expires.
	Flush(timeout time.Duration) bool
}

// NopReporter discards every report. It is used when no DSN is configured.
type NopReporter struct{}

// Report implements Reporter.
func (NopReporter) Report(context.Context, error, map[string]string) {}

// Flush implements Reporter.
func (NopReporter) Flush(time.Duration) bool { return true }

// SentryReporter reports errors to Sentry through a dedicated hub so the
// global sentry state stays untouched.
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter creates a Reporter for the given DSN. An empty DSN yields a
// NopReporter.
func NewSentryReporter(dsn, environment, release string) (Reporter, error) {
	if dsn == "" {
		return NopReporter{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		return nil, Wrap(err, "init sentry client")
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Report implements Reporter.
func (r *SentryReporter) Report(_ context.Context, err error, tags map[string]string) {
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		r.hub.CaptureException(err)
	})
}

// Flush implements Reporter.
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
