package logging

import (
	"context"
	"log/slog"
	"os"
)

// Setup installs the global slog logger: JSON to stdout, plus any extra
// handlers (e.g. the Sentry forwarder). Debug mode lowers the level.
func Setup(debug bool, extra ...slog.Handler) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if len(extra) == 0 {
		slog.SetDefault(slog.New(stdout))
		return
	}
	slog.SetDefault(slog.New(NewMultiHandler(append([]slog.Handler{stdout}, extra...)...)))
}

// MultiHandler fans out records to several slog.Handlers. A handler error
// stops the fan-out; the stdout handler is first so it always sees the record.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: handlers}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: handlers}
}
