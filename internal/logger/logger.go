package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the structured logging contract used across crumbs.
// Key/value pairs follow the message: log.Info("deleted", "domain", d, "count", n).
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	Err(err error, msg string, kv ...any)
	With(kv ...any) Logger
}

// Options configures New.
type Options struct {
	Level      string    // debug, info, warn, error (default info)
	File       string    // optional rotating log file
	MaxSizeMB  int       // rotation threshold, default 10
	MaxBackups int       // rotated files kept, default 3
	Console    io.Writer // console sink, default os.Stderr
	NoConsole  bool
}

type zlogger struct {
	z zerolog.Logger
}

// New builds a zerolog-backed Logger. Console output always goes to stderr
// because stdout carries JSON and MCP traffic.
func New(opts Options) (Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var writers []io.Writer
	if !opts.NoConsole {
		out := opts.Console
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly})
	}
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		maxBackups := opts.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			Compress:   false,
		})
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		w = io.Discard
	case 1:
		w = writers[0]
	default:
		w = zerolog.MultiLevelWriter(writers...)
	}

	z := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &zlogger{z: z}, nil
}

// NewWriter returns a JSON logger writing to w. Used by tests that inspect output.
func NewWriter(w io.Writer, level string) (Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return &zlogger{z: zerolog.New(w).Level(lvl)}, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return &zlogger{z: zerolog.Nop()}
}

// ParseLevel maps a config level name to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "off", "disabled":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

func (l *zlogger) Debug(msg string, kv ...any) { emit(l.z.Debug(), msg, kv) }
func (l *zlogger) Info(msg string, kv ...any)  { emit(l.z.Info(), msg, kv) }
func (l *zlogger) Warn(msg string, kv ...any)  { emit(l.z.Warn(), msg, kv) }
func (l *zlogger) Error(msg string, kv ...any) { emit(l.z.Error(), msg, kv) }

func (l *zlogger) Err(err error, msg string, kv ...any) {
	emit(l.z.Error().Err(err), msg, kv)
}

func (l *zlogger) With(kv ...any) Logger {
	return &zlogger{z: l.z.With().Fields(normalize(kv)).Logger()}
}

func emit(e *zerolog.Event, msg string, kv []any) {
	if e == nil {
		return
	}
	if len(kv) > 0 {
		e = e.Fields(normalize(kv))
	}
	e.Msg(msg)
}

// normalize pads an odd key/value list so a trailing key is not silently dropped.
func normalize(kv []any) []any {
	if len(kv)%2 == 1 {
		kv = append(kv, "(MISSING)")
	}
	return kv
}
