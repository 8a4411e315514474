// Package security guards statement uploads before any parsing happens and
// keeps the append-only security audit trail.
package security

import (
	"context"
	"log/slog"
	"time"

	"github.com/dinarly/dinarly-api/pkg/metrics"
)

// AuditLogger records security-relevant events as structured log entries.
// It is purely observational: it never returns an error and never blocks
// the pipeline it observes.
type AuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditLogger creates an audit logger writing through the given slog logger.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger.With(slog.String("log", "security_audit")),
		now:    time.Now,
	}
}

// Event emits one audit entry. Details are attached as structured attrs.
func (a *AuditLogger) Event(ctx context.Context, name string, details map[string]any) {
	if a == nil || a.logger == nil {
		return
	}

	attrs := make([]any, 0, 2+2*len(details))
	attrs = append(attrs, slog.Time("at", a.now()))
	for key, value := range details {
		attrs = append(attrs, slog.Any(key, value))
	}

	a.logger.LogAttrs(ctx, slog.LevelInfo, name, argsToAttrs(attrs)...)
	metrics.AuditEvents.WithLabelValues(name).Inc()
}

func argsToAttrs(args []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(args))
	for _, arg := range args {
		if attr, ok := arg.(slog.Attr); ok {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}
