package logging

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
)

// SentryHandler is an slog.Handler that forwards ERROR+ records to Sentry.
// Attributes become event extras; a pre-bound attr set from WithAttrs is
// merged into every event.
type SentryHandler struct {
	hub   *sentry.Hub
	attrs []slog.Attr
}

func NewSentryHandler() *SentryHandler {
	return &SentryHandler{hub: sentry.CurrentHub()}
}

// Enabled only handles ERROR and above.
func (h *SentryHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *SentryHandler) Handle(_ context.Context, record slog.Record) error {
	event := sentry.NewEvent()
	event.Level = sentry.LevelError
	event.Message = record.Message
	event.Timestamp = record.Time

	for _, a := range h.attrs {
		event.Extra[a.Key] = a.Value.Any()
	}
	record.Attrs(func(a slog.Attr) bool {
		event.Extra[a.Key] = a.Value.Any()
		return true
	})

	h.hub.CaptureEvent(event)
	return nil
}

func (h *SentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &SentryHandler{hub: h.hub, attrs: merged}
}

func (h *SentryHandler) WithGroup(string) slog.Handler {
	return h
}
