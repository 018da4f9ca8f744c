// Package logging builds the process zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"modelfolio/internal/common/fsutil"
)

// Options configure New.
type Options struct {
	Level string
	// Format is "json", "console" or "auto" (console only on a terminal).
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Out defaults to os.Stderr.
	Out io.Writer
}

// New returns a logger writing to Out and, when File is set, to a rotated file.
// The returned func closes the file sink.
func New(opts Options) (zerolog.Logger, func(), error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	var console io.Writer = out
	if useConsole(opts.Format, out) {
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: os.Getenv("NO_COLOR") != ""}
	}

	cleanup := func() {}
	w := console
	if opts.File != "" {
		p, err := fsutil.EnsureParentDir(opts.File)
		if err != nil {
			return zerolog.Nop(), cleanup, err
		}
		rotator := &lumberjack.Logger{
			Filename:   p,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		cleanup = func() { _ = rotator.Close() }
		w = zerolog.MultiLevelWriter(console, rotator)
	}

	l := zerolog.New(w).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
	return l, cleanup, nil
}

// ParseLevel maps a level name to a zerolog level. Unknown names mean info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func useConsole(format string, out io.Writer) bool {
	switch strings.ToLower(format) {
	case "console":
		return true
	case "json":
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
