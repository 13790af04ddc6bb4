package monitoring

import (
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kidpech/asso_api/internal/config"
)

// sensitiveHeaders never leave the process with an event.
var sensitiveHeaders = []string{"Authorization", "Cookie", "X-Api-Key"}

// InitSentry configures the global hub. It is a no-op without a DSN.
func InitSentry(cfg config.MonitoringConfig, app config.AppConfig) error {
	if cfg.SentryDSN == "" {
		return nil
	}
	host, _ := os.Hostname()
	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Release:          app.Name + "@" + app.Version,
		Environment:      app.Env,
		ServerName:       host,
		AttachStacktrace: true,
		EnableTracing:    cfg.SentrySampleRate > 0,
		TracesSampleRate: cfg.SentrySampleRate,
		BeforeSend:       scrubEvent,
	})
}

func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil || event.Request == nil {
		return event
	}
	for _, name := range sensitiveHeaders {
		delete(event.Request.Headers, name)
	}
	event.Request.Cookies = ""
	return event
}

// Flush waits for queued events before shutdown.
func Flush() {
	sentry.Flush(2 * time.Second)
}
