package telemetry

import (
	"context"
	"time"

	"rental-settlement/internal/pkg/config"
	"rental-settlement/internal/pkg/errs"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// Reporter forwards server-side failures to error telemetry.
type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

type NopReporter struct{}

func (NopReporter) Report(context.Context, error, map[string]string) {}

type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter builds a reporter with its own hub so nothing depends on
// sentry's global state. The returned func flushes buffered events.
func NewSentryReporter(cfg config.TelemetryConfig, transport sentry.Transport) (*SentryReporter, func(), error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		Transport:   transport,
	})
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to create sentry client")
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	flush := func() {
		hub.Flush(flushTimeout)
	}
	return &SentryReporter{hub: hub}, flush, nil
}

// Report sends err with its redactable details and stack as built by cockroachdb/errors.
func (r *SentryReporter) Report(_ context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}

	event, extraDetails := errors.BuildSentryReport(err)
	if event.Extra == nil {
		event.Extra = make(map[string]any, len(extraDetails))
	}
	for k, v := range extraDetails {
		event.Extra[k] = v
	}

	hub := r.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
	})
	hub.CaptureEvent(event)
}

// NewReporter picks the Sentry reporter when a DSN is configured.
func NewReporter(cfg config.TelemetryConfig) (Reporter, func(), error) {
	if cfg.SentryDSN == "" {
		return NopReporter{}, func() {}, nil
	}
	return NewSentryReporter(cfg, nil)
}
