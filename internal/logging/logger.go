package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New builds the JSON logger for a process. With a logstash address every
// record is also mirrored there; the returned closer releases that connection.
func New(service, level, logstashAddr string) (*slog.Logger, io.Closer) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if logstashAddr != "" {
		if ls, err := NewLogstash(logstashAddr); err == nil {
			out = io.MultiWriter(os.Stdout, ls)
			closer = ls
		}
	}
	return NewWithWriter(out, service, level), closer
}

func NewWithWriter(w io.Writer, service, level string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h).With("service", service)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
