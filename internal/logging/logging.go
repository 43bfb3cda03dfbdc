package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

type Options struct {
	Level string
	JSON  bool
	// File redirects output from stderr to a file, opened for append.
	File string
	// SeqURL additionally ships records to a Seq server.
	SeqURL string
	// Discard drops local output; used by the interactive UI when no File is set.
	Discard bool
}

var def atomic.Value

func init() {
	cfg := &slog.HandlerOptions{Level: slog.LevelInfo}
	h := slog.NewTextHandler(os.Stderr, cfg)
	def.Store(slog.New(h))
}

// Configure installs a new default logger and returns a function that
// flushes and releases its sinks.
func Configure(opts Options) (func(), error) {
	lvl := ParseLevel(opts.Level)
	cfg := &slog.HandlerOptions{Level: lvl}

	var w io.Writer = os.Stderr
	closers := []func(){}

	switch {
	case opts.File != "":
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return func() {}, err
		}
		w = f
		closers = append(closers, func() { f.Close() })
	case opts.Discard:
		w = io.Discard
	}

	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, cfg)
	} else {
		h = slog.NewTextHandler(w, cfg)
	}

	if opts.SeqURL != "" {
		_, seqHandler := slogseq.NewLogger(
			opts.SeqURL,
			slogseq.WithBatchSize(10),
			slogseq.WithFlushInterval(500*time.Millisecond),
			slogseq.WithHandlerOptions(cfg),
		)
		// Seq unavailable: keep local output only
		if seqHandler != nil {
			h = &multiHandler{handlers: []slog.Handler{h, seqHandler}}
			closers = append([]func(){func() { seqHandler.Close() }}, closers...)
		}
	}

	def.Store(slog.New(h))

	return func() {
		for _, c := range closers {
			c()
		}
	}, nil
}

func ParseLevel(s string) slog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func L() *slog.Logger {
	l, _ := def.Load().(*slog.Logger)
	return l
}

// multiHandler forwards log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
