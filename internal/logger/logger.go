package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
)

const (
	EnvDebug   = "PAGELAYOUT_DEBUG"
	EnvLogFile = "PAGELAYOUT_LOG_FILE"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorWhite  = "\033[37m"
	colorGray   = "\033[90m"
)

var rootLogger *slog.Logger

func init() {
	level := slog.LevelInfo
	if debug, _ := strconv.ParseBool(os.Getenv(EnvDebug)); debug {
		level = slog.LevelDebug
	}
	_, noColor := os.LookupEnv("NO_COLOR")
	handlers := []slog.Handler{NewHandler(os.Stdout, level, !noColor)}

	// A log file that cannot be opened only loses the file copy.
	if path := os.Getenv(EnvLogFile); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			handlers = append(handlers, NewHandler(f, slog.LevelDebug, false))
		} else {
			fmt.Fprintf(os.Stdout, "logger: %s: %v\n", EnvLogFile, err)
		}
	}
	rootLogger = slog.New(fanout(handlers))
}

// GetLogger returns a logger with the given prefix for easier filtering
func GetLogger(prefix string) *slog.Logger {
	return rootLogger.With("module", prefix)
}

// NewHandler formats records as "[module] LEVEL: msg (k=v, ...) [hh:mm:ss]".
func NewHandler(w io.Writer, level slog.Leveler, withColors bool) slog.Handler {
	return &customHandler{w: w, mu: &sync.Mutex{}, level: level, withColors: withColors}
}

type customHandler struct {
	w          io.Writer
	mu         *sync.Mutex
	level      slog.Leveler
	attrs      []slog.Attr
	group      string
	withColors bool
}

func (h *customHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func levelStyle(l slog.Level) (string, string) {
	switch {
	case l >= slog.LevelError:
		return colorRed, "ERROR"
	case l >= slog.LevelWarn:
		return colorYellow, "WARNING"
	case l >= slog.LevelInfo:
		return colorBlue, "INFO"
	default:
		return colorWhite, "DEBUG"
	}
}

func (h *customHandler) Handle(_ context.Context, record slog.Record) error {
	var module string
	var args []string
	add := func(a slog.Attr) bool {
		if a.Key == "module" {
			module = a.Value.String()
			return true
		}
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		args = append(args, fmt.Sprintf("%s=%v", key, a.Value.Resolve()))
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	record.Attrs(add)

	var b strings.Builder
	color, levelStr := levelStyle(record.Level)
	if module != "" {
		if h.withColors {
			fmt.Fprintf(&b, "%s[%s]%s ", colorGray, module, colorReset)
		} else {
			fmt.Fprintf(&b, "[%s] ", module)
		}
	}
	if h.withColors {
		fmt.Fprintf(&b, "%s%s%s: %s", color, levelStr, colorReset, record.Message)
	} else {
		fmt.Fprintf(&b, "%s: %s", levelStr, record.Message)
	}
	if len(args) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(args, ", "))
	}
	fmt.Fprintf(&b, " [%s]\n", record.Time.Format("15:04:05"))

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *customHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *customHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = name
	return &next
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}
