// Package logging builds the process logger from configuration.
//
// dbmover logs through zerolog. The logger is created once in the CLI and
// attached to the context, so library packages retrieve it with zerolog.Ctx
// and stay silent when no logger was attached.
package logging

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/config"
	"github.com/rs/zerolog"
)

const (
	// FormatConsole renders human readable, colorized lines.
	FormatConsole = "console"

	// FormatJSON renders one JSON object per line.
	FormatJSON = "json"
)

// New returns a logger writing to w with the level and format from cfg.
//
// Example:
//
//	logger, err := logging.New(config.Log{Level: "debug", Format: "json"}, os.Stderr)
//	if err != nil {
//		return err
//	}
//
//	ctx = logger.WithContext(ctx)
func New(cfg config.Log, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		lvl, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), errors.Wrapf(err, "invalid log level: %s", cfg.Level)
		}
		level = lvl
	}

	switch cfg.Format {
	case "", FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case FormatJSON:
	default:
		return zerolog.Nop(), errors.Errorf("invalid log format: %s", cfg.Format)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
