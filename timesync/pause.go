package timesync

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Sleep blocks for d on clk. It returns ctx.Err() as soon as ctx is done.
func Sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := clk.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pauser pauses on a clock.Clock, giving up once the context is done.
type Pauser struct {
	Clock clock.Clock
}

func (p Pauser) Pause(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, p.Clock, d)
}
