package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// LevelOff sits above every standard level so no records pass the filter.
const LevelOff = slog.Level(128)

// LevelFor maps the verbosity flags to a log level. The default is warn;
// when several flags are set the quietest wins.
func LevelFor(verbose, debug, quiet, silent bool) slog.Level {
	switch {
	case silent:
		return LevelOff
	case quiet:
		return slog.LevelError
	case debug:
		return slog.LevelDebug
	case verbose:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// Sink receives formatted log lines. The progress package provides a sink
// that repaints the active bar after each line so log output does not shred
// it.
type Sink interface {
	Println(line string)
}

// WriterSink prints each line to an io.Writer.
type WriterSink struct {
	W io.Writer
}

// Println writes one line followed by a newline.
func (s WriterSink) Println(line string) {
	fmt.Fprintln(s.W, line)
}

// Handler is a slog.Handler that renders records as colored "[LEVEL] message"
// lines and tallies warnings and errors for the build summary.
type Handler struct {
	state *handlerState
	level slog.Leveler
	attrs string
	group string
}

// handlerState is shared between a Handler and its WithAttrs and WithGroup
// derivatives.
type handlerState struct {
	mu       sync.Mutex
	def      Sink
	sink     Sink
	warnings atomic.Int64
	errors   atomic.Int64
}

// NewHandler creates a Handler writing to w at the given level.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	def := WriterSink{W: w}
	return &Handler{
		state: &handlerState{def: def, sink: def},
		level: level,
	}
}

// SetSink routes subsequent log lines through sink. Passing nil restores the
// handler's original writer.
func (h *Handler) SetSink(sink Sink) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	if sink == nil {
		h.state.sink = h.state.def
		return
	}
	h.state.sink = sink
}

// Warnings returns the number of warning records handled so far.
func (h *Handler) Warnings() int {
	return int(h.state.warnings.Load())
}

// Errors returns the number of error records handled so far.
func (h *Handler) Errors() int {
	return int(h.state.errors.Load())
}

// ResetCounts clears the warning and error tallies before a rebuild.
func (h *Handler) ResetCounts() {
	h.state.warnings.Store(0)
	h.state.errors.Store(0)
}

// Enabled reports whether records at level should be handled.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle renders one record and hands it to the active sink.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	switch {
	case r.Level >= slog.LevelError:
		h.state.errors.Add(1)
	case r.Level >= slog.LevelWarn:
		h.state.warnings.Add(1)
	}

	var sb strings.Builder
	sb.WriteString(levelTag(r.Level))
	sb.WriteByte(' ')
	sb.WriteString(r.Message)
	sb.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&sb, h.group, a)
		return true
	})

	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.sink.Println(sb.String())
	return nil
}

// WithAttrs returns a handler that includes attrs on every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var sb strings.Builder
	for _, a := range attrs {
		appendAttr(&sb, h.group, a)
	}
	h2 := *h
	h2.attrs = h.attrs + sb.String()
	return &h2
}

// WithGroup returns a handler that prefixes attribute keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	if h2.group == "" {
		h2.group = name
	} else {
		h2.group += "." + name
	}
	return &h2
}

// levelTag returns the colored "[LEVEL]" prefix for a record.
func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return Red.Sprint("[ERROR]")
	case level >= slog.LevelWarn:
		return Yellow.Sprint("[WARN]")
	case level >= slog.LevelInfo:
		return Blue.Sprint("[INFO]")
	default:
		return Green.Sprint("[DEBUG]")
	}
}

// appendAttr writes one attribute as " key=value", flattening groups.
func appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			appendAttr(sb, key, ga)
		}
		return
	}
	fmt.Fprintf(sb, " %s=%s", key, a.Value)
}
