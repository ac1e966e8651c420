package safe

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func Go(f func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				log.Fatal().Str("panic", fmt.Sprint(err)).Msgf("recovered from a panic, will exit...")
				os.Exit(1)
			}
		}()
		f()
	}()
}

// Call runs f and converts a panic raised inside it into an error.
func Call(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()

	return f()
}
