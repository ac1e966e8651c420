// Package scheduler runs the app roster round-robin. Any fault ends the loop:
// the caller resets the whole device.
package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"moonclock/apps"
	"moonclock/errdefs"
	"moonclock/safe"
)

type Scheduler struct {
	units      []apps.Unit
	runTimeout time.Duration
	iterations int
}

// New returns a scheduler over units in the given order. A runTimeout of 0
// lets a unit block forever.
func New(units []apps.Unit, runTimeout time.Duration) *Scheduler {
	return &Scheduler{units: units, runTimeout: runTimeout}
}

// Iterations returns the number of completed passes over the roster.
func (s *Scheduler) Iterations() int {
	return s.iterations
}

// Run cycles through the units until one of them faults and returns that
// fault as errdefs.ErrAppFault. It only returns ctx.Err() once ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.units) == 0 {
		log.Ctx(ctx).Warn().Msg("No apps to run, idling")
		<-ctx.Done()
		return ctx.Err()
	}

	for {
		for i, unit := range s.units {
			if err := ctx.Err(); err != nil {
				return err
			}

			err := s.runUnit(ctx, unit)
			if err == nil {
				continue
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}

			fault := errdefs.AppFault(err, unit.Kind(), i)
			log.Ctx(ctx).Error().Stack().Err(err).Int("iteration", s.iterations).Msgf("Application %s has crashed", unit.Kind())
			return fault
		}

		s.iterations++
	}
}

func (s *Scheduler) runUnit(ctx context.Context, unit apps.Unit) error {
	if s.runTimeout <= 0 {
		return safe.Call(func() error { return unit.Run(ctx) })
	}

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	done := make(chan error, 1)
	safe.Go(func() {
		done <- safe.Call(func() error { return unit.Run(runCtx) })
	})

	select {
	case err := <-done:
		if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return errors.Wrapf(errdefs.ErrRunTimeout, "%s: %s", unit.Kind(), err)
		}
		return err
	case <-runCtx.Done():
		select {
		case err := <-done:
			return err
		default:
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		// the unit keeps its goroutine; the device is reset right after this
		return errors.Wrapf(errdefs.ErrRunTimeout, "%s did not return within %s", unit.Kind(), s.runTimeout)
	}
}
