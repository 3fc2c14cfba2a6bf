package testutil

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

// LogRecord is one captured record with its attributes flattened into a
// map. Grouped keys are dotted ("table.name") and values are slog.Value.Any,
// so ints arrive as int64.
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// logBuffer is shared by a handler and everything derived from it
type logBuffer struct {
	mu      sync.Mutex
	records []LogRecord
}

func (b *logBuffer) add(r LogRecord) {
	b.mu.Lock()
	b.records = append(b.records, r)
	b.mu.Unlock()
}

func (b *logBuffer) snapshot() []LogRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.records)
}

// BufferedSlogHandler is an slog.Handler that keeps every record in memory
// and echoes it to t.Log.
type BufferedSlogHandler struct {
	buf    *logBuffer
	fixed  map[string]any
	prefix string
	t      *testing.T
}

func NewBufferedSlogHandler(t *testing.T) *BufferedSlogHandler {
	return &BufferedSlogHandler{buf: &logBuffer{}, fixed: map[string]any{}, t: t}
}

// NewTestLogger returns a logger writing into a fresh handler
func NewTestLogger(t *testing.T) (*slog.Logger, *BufferedSlogHandler) {
	h := NewBufferedSlogHandler(t)
	return slog.New(h), h
}

func (h *BufferedSlogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *BufferedSlogHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.fixed)+r.NumAttrs())
	for k, v := range h.fixed {
		attrs[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.prefix+a.Key] = a.Value.Any()
		return true
	})

	h.buf.add(LogRecord{Time: r.Time, Level: r.Level, Message: r.Message, Attrs: attrs})
	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *BufferedSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	child := h.derive(h.prefix)
	for _, a := range attrs {
		child.fixed[h.prefix+a.Key] = a.Value.Any()
	}
	return child
}

func (h *BufferedSlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.derive(h.prefix + name + ".")
}

func (h *BufferedSlogHandler) derive(prefix string) *BufferedSlogHandler {
	fixed := make(map[string]any, len(h.fixed))
	for k, v := range h.fixed {
		fixed[k] = v
	}
	return &BufferedSlogHandler{buf: h.buf, fixed: fixed, prefix: prefix, t: h.t}
}

func (h *BufferedSlogHandler) GetRecords() []LogRecord {
	return h.buf.snapshot()
}

func (h *BufferedSlogHandler) GetRecordsByLevel(level slog.Level) []LogRecord {
	return h.filter(func(r LogRecord) bool { return r.Level == level })
}

// ContainsMessage matches substrings of record messages
func (h *BufferedSlogHandler) ContainsMessage(message string) bool {
	return len(h.filter(func(r LogRecord) bool { return strings.Contains(r.Message, message) })) > 0
}

func (h *BufferedSlogHandler) ContainsAttr(key string, value any) bool {
	return len(h.filter(func(r LogRecord) bool {
		v, ok := r.Attrs[key]
		return ok && v == value
	})) > 0
}

func (h *BufferedSlogHandler) Count() int {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	return len(h.buf.records)
}

func (h *BufferedSlogHandler) Clear() {
	h.buf.mu.Lock()
	h.buf.records = nil
	h.buf.mu.Unlock()
}

func (h *BufferedSlogHandler) filter(keep func(LogRecord) bool) []LogRecord {
	var out []LogRecord
	for _, r := range h.buf.snapshot() {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (h *BufferedSlogHandler) dump(t *testing.T) {
	t.Helper()
	for _, r := range h.buf.snapshot() {
		t.Logf("  %s %q %v", r.Level, r.Message, r.Attrs)
	}
}

// AssertLogContains fails t unless a record at level contains message
func AssertLogContains(t *testing.T, h *BufferedSlogHandler, level slog.Level, message string) {
	t.Helper()
	for _, r := range h.GetRecordsByLevel(level) {
		if strings.Contains(r.Message, message) {
			return
		}
	}
	t.Errorf("no %s record containing %q", level, message)
	h.dump(t)
}

// AssertLogAttr fails t unless some record carries key=value
func AssertLogAttr(t *testing.T, h *BufferedSlogHandler, key string, value any) {
	t.Helper()
	if !h.ContainsAttr(key, value) {
		t.Errorf("no record with %s=%v", key, value)
		h.dump(t)
	}
}

func AssertNoErrors(t *testing.T, h *BufferedSlogHandler) {
	t.Helper()
	for _, r := range h.GetRecordsByLevel(slog.LevelError) {
		t.Errorf("unexpected error record: %s %v", r.Message, r.Attrs)
	}
}
