// Package reset shows the reset indicator and restarts the device.
package reset

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"moonclock/display"
	"moonclock/safe"
)

const Indicator = "RESET"

// Pauser waits for d, or less when ctx is done first.
type Pauser interface {
	Pause(ctx context.Context, d time.Duration) error
}

// Restarter brings the device back to boot. It returns errdefs.ErrRebuild when
// the caller has to rebuild the device itself.
type Restarter interface {
	Restart(ctx context.Context) error
}

type Controller struct {
	surface   display.Surface
	pauser    Pauser
	dwell     time.Duration
	restarter Restarter
}

func NewController(surface display.Surface, pauser Pauser, dwell time.Duration, restarter Restarter) *Controller {
	return &Controller{
		surface:   surface,
		pauser:    pauser,
		dwell:     dwell,
		restarter: restarter,
	}
}

// Reset shows "RESET", waits for the dwell time and restarts. cause is only
// logged. The returned error is the restarter's, or ctx.Err() when ctx ends
// during the dwell.
func (c *Controller) Reset(ctx context.Context, cause error) error {
	log.Ctx(ctx).Error().Err(cause).Msgf("Resetting device in %s", c.dwell)

	c.indicate(ctx)
	err := c.pauser.Pause(ctx, c.dwell)
	if err != nil {
		return err
	}

	return c.restarter.Restart(ctx)
}

func (c *Controller) indicate(ctx context.Context) {
	err := safe.Call(func() error {
		c.surface.Clear()
		c.surface.RenderText(Indicator, true)
		return c.surface.Show()
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to show the reset indicator")
	}
}
