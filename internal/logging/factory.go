package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions configures the rotating file sink.
type FileOptions struct {
	Directory  string
	FileName   string
	MaxSizeMB  int
	MaxBackups int
}

// Options selects the backend and level.
//
// Format "json" and "text" build a slog logger, "zap" a production zap
// logger and "dev" a console zap logger. Unknown formats fall back to json.
type Options struct {
	Format string
	Level  string
	File   *FileOptions
}

// New builds a Logger writing to out and, when configured, to a rotating
// file. The returned close function flushes and releases the file sink.
func New(opts Options, out io.Writer) (Logger, func() error) {
	var sink *lumberjack.Logger
	w := out
	if opts.File != nil && opts.File.FileName != "" {
		sink = &lumberjack.Logger{
			Filename:   filepath.Join(opts.File.Directory, opts.File.FileName),
			MaxSize:    opts.File.MaxSizeMB,
			MaxBackups: opts.File.MaxBackups,
		}
		w = io.MultiWriter(out, sink)
	}

	closeSink := func() error {
		if sink == nil {
			return nil
		}
		return sink.Close()
	}

	switch strings.ToLower(opts.Format) {
	case "zap", "dev":
		zl := newZap(opts, w)
		return NewZapLogger(zl), func() error {
			_ = zl.Sync()
			return closeSink()
		}
	case "text":
		h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel(opts.Level)})
		return NewSlogLogger(slog.New(h)), closeSink
	default:
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(opts.Level)})
		return NewSlogLogger(slog.New(h)), closeSink
	}
}

func newZap(opts Options, w io.Writer) *zap.Logger {
	var enc zapcore.Encoder
	if strings.ToLower(opts.Format) == "dev" {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	lvl, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl))
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
