package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with typed fields.
type Logger struct {
	zl zerolog.Logger
}

// Config selects level, encoding and destination.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

// New builds a Logger from cfg.
func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
	}

	zl := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying fields on every entry.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = f.addToContext(ctx)
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) Debug(msg string, fields ...Field) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { emit(l.zl.Error(), msg, fields) }

func emit(e *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		f.addTo(e)
	}
	e.Msg(msg)
}

// Field is a typed key/value attached to a log entry.
type Field struct {
	key   string
	kind  fieldKind
	str   string
	num   float64
	i64   int64
	b     bool
	err   error
	iface interface{}
}

type fieldKind uint8

const (
	kindString fieldKind = iota
	kindInt
	kindFloat
	kindBool
	kindErr
	kindAny
)

func (f Field) addTo(e *zerolog.Event) {
	switch f.kind {
	case kindString:
		e.Str(f.key, f.str)
	case kindInt:
		e.Int64(f.key, f.i64)
	case kindFloat:
		e.Float64(f.key, f.num)
	case kindBool:
		e.Bool(f.key, f.b)
	case kindErr:
		e.Err(f.err)
	default:
		e.Interface(f.key, f.iface)
	}
}

func (f Field) addToContext(c zerolog.Context) zerolog.Context {
	switch f.kind {
	case kindString:
		return c.Str(f.key, f.str)
	case kindInt:
		return c.Int64(f.key, f.i64)
	case kindFloat:
		return c.Float64(f.key, f.num)
	case kindBool:
		return c.Bool(f.key, f.b)
	case kindErr:
		return c.AnErr(f.key, f.err)
	default:
		return c.Interface(f.key, f.iface)
	}
}

func String(key, value string) Field { return Field{key: key, kind: kindString, str: value} }
func Int(key string, value int) Field { return Field{key: key, kind: kindInt, i64: int64(value)} }
func Int64(key string, value int64) Field {
	return Field{key: key, kind: kindInt, i64: value}
}
func Float(key string, value float64) Field { return Field{key: key, kind: kindFloat, num: value} }
func Bool(key string, value bool) Field     { return Field{key: key, kind: kindBool, b: value} }
func Error(err error) Field                 { return Field{key: "error", kind: kindErr, err: err} }
func Any(key string, value interface{}) Field {
	return Field{key: key, kind: kindAny, iface: value}
}

// Duration logs d in milliseconds.
func Duration(key string, d time.Duration) Field {
	return Field{key: key, kind: kindInt, i64: d.Milliseconds()}
}
