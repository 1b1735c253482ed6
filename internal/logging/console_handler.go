package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders records for a terminal:
//
//	2026-01-02 15:04:05.000 INFO [observation] Observation obs-1 · @alice - message
//	    - Grade: "research grade"
//
// Info and above show highlighted fields only; debug shows every key.
type consoleHandler struct {
	out       *lockedWriter
	level     *slog.LevelVar
	addSource bool
	attrs     []kv
	prefix    string
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

type kv struct {
	key   string
	value slog.Value
}

// consoleEntry is one record after the subject fields are pulled out.
type consoleEntry struct {
	time          time.Time
	level         slog.Level
	component     string
	observationID string
	userID        string
	message       string
	source        *slog.Source
	fields        []kv
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	entry := consoleEntry{
		time:    record.Time,
		level:   record.Level,
		message: strings.TrimSpace(record.Message),
	}
	if entry.time.IsZero() {
		entry.time = time.Now()
	}
	if entry.message == "" {
		entry.message = "(no message)"
	}
	if h.addSource {
		entry.source = record.Source()
	}

	fields := append([]kv(nil), h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendFlattened(fields, h.prefix, attr)
		return true
	})
	for _, f := range lastValueWins(fields) {
		switch f.key {
		case FieldComponent:
			entry.component = attrString(f.value)
			continue
		case FieldObservationID:
			entry.observationID = attrString(f.value)
		case FieldUserID:
			entry.userID = attrString(f.value)
		}
		entry.fields = append(entry.fields, f)
	}

	var buf bytes.Buffer
	entry.writeHeader(&buf)
	if entry.level < slog.LevelInfo {
		entry.writeAllFields(&buf)
	} else {
		entry.writeHighlights(&buf)
	}

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := h.out.w.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]kv(nil), h.attrs...)
	for _, attr := range attrs {
		clone.attrs = appendFlattened(clone.attrs, h.prefix, attr)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func (e consoleEntry) writeHeader(buf *bytes.Buffer) {
	buf.WriteString(formatTimestamp(e.time))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(e.level))
	if e.component != "" {
		buf.WriteString(" [" + e.component + "]")
	}
	if subject := composeSubject(e.observationID, e.userID); subject != "" {
		buf.WriteString(" " + subject)
	}
	buf.WriteString(" - ")
	buf.WriteString(e.message)
	if e.source != nil && e.source.File != "" {
		buf.WriteString(" [" + filepath.Base(e.source.File) + ":" + strconv.Itoa(e.source.Line) + "]")
	}
	buf.WriteByte('\n')
}

func (e consoleEntry) writeHighlights(buf *bytes.Buffer) {
	fields, hidden := selectInfoFields(e.fields)
	for _, field := range fields {
		buf.WriteString("    - " + field.label + ": " + field.value + "\n")
	}
	switch {
	case hidden == 1:
		buf.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		buf.WriteString("    + " + strconv.Itoa(hidden) + " more fields hidden\n")
	}
}

func (e consoleEntry) writeAllFields(buf *bytes.Buffer) {
	for _, f := range e.fields {
		buf.WriteString("    " + f.key + ": " + formatValue(f.value) + "\n")
	}
}

// composeSubject renders "Observation <id> · @<user>" for the log header.
func composeSubject(observationID, userID string) string {
	observationID = strings.TrimSpace(observationID)
	userID = strings.TrimSpace(userID)
	switch {
	case observationID != "" && userID != "":
		return "Observation " + observationID + " · @" + userID
	case observationID != "":
		return "Observation " + observationID
	case userID != "":
		return "@" + userID
	default:
		return ""
	}
}

// lastValueWins keeps the first position of each key and its latest value.
func lastValueWins(fields []kv) []kv {
	index := make(map[string]int, len(fields))
	out := make([]kv, 0, len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if pos, ok := index[f.key]; ok {
			out[pos].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func appendFlattened(dst []kv, prefix string, attr slog.Attr) []kv {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix = joinKey(prefix, attr.Key)
		}
		for _, member := range value.Group() {
			dst = appendFlattened(dst, groupPrefix, member)
		}
		return dst
	}
	return append(dst, kv{key: joinKey(prefix, attr.Key), value: value})
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
