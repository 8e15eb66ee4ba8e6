// Package logging configures the process-wide phuslu/log logger.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/phuslu/log"
)

// ErrBadOption indicates an unknown level or format.
var ErrBadOption = errors.New("logging: invalid option")

// Levels lists the accepted level names, most verbose first.
var Levels = []string{"trace", "debug", "info", "warn", "error"}

// Formats lists the accepted output formats.
var Formats = []string{"console", "json"}

// Options configures the logger initialization.
type Options struct {
	Level  string    // Minimum level. Default: info
	Format string    // console or json. Default: console
	Writer io.Writer // Destination. Default: os.Stderr
	Caller bool      // Include file:line of the call site
}

// Validate reports whether the level and format are known.
func (o Options) Validate() error {
	if o.Level != "" && !slices.Contains(Levels, o.Level) {
		return fmt.Errorf("%w: level %q", ErrBadOption, o.Level)
	}
	if o.Format != "" && !slices.Contains(Formats, o.Format) {
		return fmt.Errorf("%w: format %q", ErrBadOption, o.Format)
	}
	return nil
}

// Init replaces log.DefaultLogger according to opts. Call from main()
// before any log calls.
func Init(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	level := opts.Level
	if level == "" {
		level = "info"
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	var writer log.Writer
	switch opts.Format {
	case "json":
		writer = &log.IOWriter{Writer: w}
	default:
		writer = &log.ConsoleWriter{Writer: w}
	}

	caller := 0
	if opts.Caller {
		caller = 1
	}
	log.DefaultLogger = log.Logger{
		Level:  log.ParseLevel(level),
		Caller: caller,
		Writer: writer,
	}
	return nil
}

// Discard silences the default logger.
func Discard() {
	log.DefaultLogger = log.Logger{
		Level:  log.ErrorLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}
