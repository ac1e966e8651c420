package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"

	"moonclock/config"
)

var baseLogger = log.Logger

func SetupLogger(cliArgs *config.CommandLineArguments) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	var writer io.Writer = os.Stderr
	if cliArgs.PrettyLogging {
		writer = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	// the default location is on tmpfs, the log is gone after a power cycle
	if cliArgs.LogFileLocation != "" {
		rollingLogFile := &lumberjack.Logger{
			Filename:   cliArgs.LogFileLocation,
			MaxSize:    5,
			MaxBackups: 1,
		}
		writer = io.MultiWriter(writer, rollingLogFile)
	}

	baseLogger = zerolog.New(writer).With().Caller().Timestamp().Stack().Logger()
	log.Logger = baseLogger
	zerolog.DefaultContextLogger = &baseLogger

	if cliArgs.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Debug().Msgf("moonclock CLI arguments: %+v", *cliArgs)
}

// WithBoot returns ctx carrying a logger that tags every line with bootID.
// Each boot gets a new id so the lines of one boot can be told apart after a
// reset. The global logger is left untouched.
func WithBoot(ctx context.Context, bootID string) context.Context {
	return baseLogger.With().Str("boot", bootID).Logger().WithContext(ctx)
}
