package testutil

import (
	"context"
	"sync"
	"time"
)

// RecordingPauser returns from Pause immediately and remembers the requested
// durations. OnPause, when set, runs inside Pause. Pause reports ctx.Err()
// like a real pause that was cut short.
type RecordingPauser struct {
	mu     sync.Mutex
	pauses []time.Duration

	OnPause func(d time.Duration)
}

func (p *RecordingPauser) Pause(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	p.pauses = append(p.pauses, d)
	onPause := p.OnPause
	p.mu.Unlock()

	if onPause != nil {
		onPause(d)
	}
	return ctx.Err()
}

func (p *RecordingPauser) Pauses() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.pauses...)
}

func (p *RecordingPauser) Total() time.Duration {
	var total time.Duration
	for _, d := range p.Pauses() {
		total += d
	}
	return total
}
