package system

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"moonclock/errdefs"
)

// Rebuild hands the restart back to the boot loop, which constructs the device
// from scratch in the same process.
type Rebuild struct{}

func (Rebuild) Restart(ctx context.Context) error {
	return errdefs.ErrRebuild
}

type Rebooter interface {
	Reboot(ctx context.Context) error
}

// Reboot restarts the whole machine. If the machine is still up after Grace,
// or the reboot request fails, it falls back to a rebuild.
type Reboot struct {
	Rebooter Rebooter
	Clock    clock.Clock
	Grace    time.Duration
}

func NewReboot(rebooter Rebooter) Reboot {
	return Reboot{Rebooter: rebooter, Clock: clock.New(), Grace: time.Minute}
}

func (r Reboot) Restart(ctx context.Context) error {
	err := r.Rebooter.Reboot(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Reboot has failed, rebuilding the device instead")
		return errdefs.ErrRebuild
	}

	log.Ctx(ctx).Info().Msgf("Reboot requested, waiting up to %s for shutdown", r.Grace)

	timer := r.Clock.Timer(r.Grace)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		log.Ctx(ctx).Warn().Msg("Still running after the reboot request, rebuilding the device instead")
		return errdefs.ErrRebuild
	}
}
