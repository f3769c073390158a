// Package debug configures the process logger and adds opt-in debug
// output per subsystem.
//
// Categories select WHAT is logged (POSTSMITH_DEBUG or logging.debug, comma
// separated). The level selects HOW MUCH (POSTSMITH_LOG_LEVEL or
// logging.level). A debug.Log call is only visible when its category is on
// and the level is DEBUG or lower; debug.Trace additionally needs TRACE.
//
//	POSTSMITH_DEBUG=search,providers POSTSMITH_LOG_LEVEL=TRACE postsmith-server
//
// At TRACE the provider clients log request and response bodies.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync/atomic"
)

// LevelTrace sits below slog.LevelDebug.
const LevelTrace = slog.LevelDebug - 4

// Known lists the categories the code base logs under. "all" enables every
// category.
var Known = []string{"all", "auth", "config", "mcp", "pipeline", "providers", "search", "storage", "transport"}

type categorySet map[string]bool

func (s categorySet) has(category string) bool {
	return s["all"] || s[category]
}

var enabled atomic.Pointer[categorySet]

func init() {
	setCategories(os.Getenv("POSTSMITH_DEBUG"))
}

func setCategories(list string) {
	set := parseCategories(list)
	enabled.Store(&set)
}

// Init installs the default slog logger on stderr. POSTSMITH_DEBUG and
// POSTSMITH_LOG_LEVEL win over the configured values. format is "json" or
// text otherwise.
func Init(configCategories, configLevel, format string) {
	setCategories(firstNonEmpty(os.Getenv("POSTSMITH_DEBUG"), configCategories))
	level := ParseLevel(firstNonEmpty(os.Getenv("POSTSMITH_LOG_LEVEL"), configLevel))
	slog.SetDefault(slog.New(NewHandler(os.Stderr, format, level)))
}

// NewHandler returns a JSON or text slog handler writing to w.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Enabled reports whether category is switched on.
func Enabled(category string) bool {
	return enabled.Load().has(category)
}

// Log emits a DEBUG record tagged with category.
func Log(category string, msg string, args ...any) {
	if Enabled(category) {
		slog.Debug(msg, append([]any{"debug", category}, args...)...)
	}
}

// Trace emits a TRACE record tagged with category.
func Trace(category string, msg string, args ...any) {
	if Enabled(category) {
		slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
	}
}

// TraceIsEnabled reports whether a Trace call for category would be
// written. Use it to skip building large trace attributes.
func TraceIsEnabled(category string) bool {
	return Enabled(category) && slog.Default().Enabled(context.Background(), LevelTrace)
}

var levels = map[string]slog.Level{
	"TRACE":   LevelTrace,
	"DEBUG":   slog.LevelDebug,
	"INFO":    slog.LevelInfo,
	"WARN":    slog.LevelWarn,
	"WARNING": slog.LevelWarn,
	"ERROR":   slog.LevelError,
}

// ParseLevel maps a level name to a slog.Level. Unknown names mean INFO.
func ParseLevel(s string) slog.Level {
	if l, ok := levels[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return l
	}
	return slog.LevelInfo
}

// ValidLevel reports whether ParseLevel knows s.
func ValidLevel(s string) bool {
	_, ok := levels[strings.ToUpper(strings.TrimSpace(s))]
	return ok
}

// UnknownCategories returns the entries of a category list that are not in
// Known, in the order given.
func UnknownCategories(list string) []string {
	var unknown []string
	for _, cat := range splitCategories(list) {
		if !slices.Contains(Known, cat) {
			unknown = append(unknown, cat)
		}
	}
	return unknown
}

// Truncate shortens s to maxLen runes and marks the cut with "...".
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

func parseCategories(list string) categorySet {
	set := make(categorySet)
	for _, cat := range splitCategories(list) {
		set[cat] = true
	}
	return set
}

func splitCategories(list string) []string {
	var out []string
	for _, cat := range strings.Split(list, ",") {
		if cat = strings.ToLower(strings.TrimSpace(cat)); cat != "" {
			out = append(out, cat)
		}
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
