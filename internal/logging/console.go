package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders one human-readable line per record:
//
//	2026-01-02T15:04:05Z INFO commands[3f2a...]: call failed method=Analyze
//
// The component and correlation id are lifted into the tag before the
// message; every other attr follows as key=value.
type consoleHandler struct {
	out       *lineWriter
	level     slog.Leveler
	addSource bool
	tag       lineTag
	group     string
	attrs     []byte
}

type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lineWriter) write(line []byte) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, err := lw.w.Write(line)
	return err
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) *consoleHandler {
	return &consoleHandler{out: &lineWriter{w: w}, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append([]byte(nil), h.attrs...)
	for _, attr := range attrs {
		clone.attrs = appendAttr(clone.attrs, clone.group, attr, &clone.tag)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.group + name + "."
	return &clone
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	tag := h.tag
	var attrs []byte
	record.Attrs(func(attr slog.Attr) bool {
		attrs = appendAttr(attrs, h.group, attr, &tag)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	line := make([]byte, 0, 96+len(h.attrs)+len(attrs))
	line = ts.UTC().AppendFormat(line, time.RFC3339)
	line = append(line, ' ')
	line = append(line, levelLabel(record.Level)...)
	line = append(line, ' ')
	if rendered := tag.String(); rendered != "" {
		line = append(line, rendered...)
		line = append(line, ": "...)
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		line = append(line, msg...)
	} else {
		line = append(line, "(no message)"...)
	}
	if h.addSource {
		if src := record.Source(); src != nil {
			line = fmt.Appendf(line, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	line = append(line, h.attrs...)
	line = append(line, attrs...)
	line = append(line, '\n')
	return h.out.write(line)
}

// lineTag holds the attrs shown ahead of the message. The first value seen
// for each wins.
type lineTag struct {
	component   string
	correlation string
}

func (t *lineTag) absorb(key string, value slog.Value) bool {
	switch key {
	case FieldComponent:
		if t.component == "" {
			t.component = valueText(value)
		}
		return true
	case FieldCorrelationID:
		if t.correlation == "" {
			t.correlation = valueText(value)
		}
		return true
	}
	return false
}

func (t lineTag) String() string {
	if t.correlation == "" {
		return t.component
	}
	return t.component + "[" + t.correlation + "]"
}

func appendAttr(buf []byte, group string, attr slog.Attr, tag *lineTag) []byte {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return buf
	}
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			group += attr.Key + "."
		}
		for _, nested := range attr.Value.Group() {
			buf = appendAttr(buf, group, nested, tag)
		}
		return buf
	}
	if attr.Key == "" {
		return buf
	}
	if group == "" && tag.absorb(attr.Key, attr.Value) {
		return buf
	}
	buf = append(buf, ' ')
	buf = append(buf, group...)
	buf = append(buf, attr.Key...)
	buf = append(buf, '=')
	text := valueText(attr.Value)
	if needsQuoting(text) {
		return strconv.AppendQuote(buf, text)
	}
	return append(buf, text...)
}

func valueText(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	return strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	})
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
