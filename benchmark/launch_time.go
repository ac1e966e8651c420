package benchmark

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
)

const (
	PhaseDisplay = "display"
	PhaseConnect = "connect"
	PhaseClock   = "clock"
	PhaseApps    = "apps"
	PhaseRunLoop = "run loop"
)

type mark struct {
	phase string
	at    time.Time
}

// BootTimings records when each boot phase completed.
type BootTimings struct {
	mu    sync.Mutex
	clock clock.Clock
	start time.Time
	marks []mark
}

func Start(clk clock.Clock) *BootTimings {
	return &BootTimings{clock: clk, start: clk.Now()}
}

func (b *BootTimings) Mark(phase string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.marks = append(b.marks, mark{phase: phase, at: b.clock.Now()})
}

// TimeTill returns the time from the start of the boot until phase completed.
func (b *BootTimings) TimeTill(phase string) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.marks {
		if m.phase == phase {
			return m.at.Sub(b.start), true
		}
	}
	return 0, false
}

func (b *BootTimings) Results() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var results []string
	previous := b.start
	for _, m := range b.marks {
		results = append(results, fmt.Sprintf("Time until %s completion: %s (phase took %s)", m.phase, m.at.Sub(b.start), m.at.Sub(previous)))
		previous = m.at
	}
	return results
}

func (b *BootTimings) LogResults(ctx context.Context) {
	for _, result := range b.Results() {
		log.Ctx(ctx).Info().Msg(result)
	}
}
