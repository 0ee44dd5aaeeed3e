package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	slogmulti "github.com/samber/slog-multi"
)

// Options configures Setup.
type Options struct {
	// Level is the minimum level to log. The zero value is slog.LevelInfo.
	Level slog.Level

	// JSON forces the JSON handler even when stderr is a TTY.
	JSON bool

	// FilePath, when non-empty, additionally writes JSON logs to this file.
	FilePath string
}

// Setup replaces the global logger with a handler chain suitable for the CLI:
// a colorized tint handler when stderr is a terminal, a JSON handler otherwise,
// fanned out to an optional JSON log file. It returns a closer for the file.
func Setup(opts Options) (io.Closer, error) {
	consoleHandler := newConsoleHandler(opts)

	var closer io.Closer
	handler := consoleHandler
	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		closer = f
		fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: opts.Level})
		handler = slogmulti.Fanout(consoleHandler, fileHandler)
	}

	DefaultLogger = slog.New(handler)
	slog.SetDefault(DefaultLogger)
	return closer, nil
}

func newConsoleHandler(opts Options) slog.Handler {
	if !opts.JSON && isatty.IsTerminal(os.Stderr.Fd()) {
		return tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
			Level: opts.Level,
		})
	}
	return slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: opts.Level})
}
