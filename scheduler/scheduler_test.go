package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moonclock/apps"
	"moonclock/errdefs"
)

// =============================================================================
// Test units
// =============================================================================

type runLog struct {
	mu   sync.Mutex
	runs []string
}

func (l *runLog) add(kind string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, kind)
}

func (l *runLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.runs...)
}

type scriptedUnit struct {
	kind   string
	log    *runLog
	runs   int
	faults map[int]error
	run    func(ctx context.Context, n int) error
}

func (u *scriptedUnit) Kind() string {
	return u.kind
}

func (u *scriptedUnit) Run(ctx context.Context) error {
	n := u.runs
	u.runs++
	u.log.add(u.kind)

	if u.run != nil {
		return u.run(ctx, n)
	}
	return u.faults[n]
}

func roster(log *runLog, kinds ...string) []*scriptedUnit {
	var units []*scriptedUnit
	for _, kind := range kinds {
		units = append(units, &scriptedUnit{kind: kind, log: log, faults: map[int]error{}})
	}
	return units
}

func asUnits(units []*scriptedUnit) []apps.Unit {
	var result []apps.Unit
	for _, unit := range units {
		result = append(result, unit)
	}
	return result
}

// =============================================================================
// Tests
// =============================================================================

func TestFaultStopsTheLoop(t *testing.T) {
	for _, runTimeout := range []time.Duration{0, time.Minute} {
		t.Run(runTimeout.String(), func(t *testing.T) {
			log := &runLog{}
			units := roster(log, "time", "crypto", "text")
			boom := errors.New("api returned garbage")
			units[1].faults[2] = boom

			scheduler := New(asUnits(units), runTimeout)
			err := scheduler.Run(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, boom)

			var fault errdefs.ErrAppFault
			require.True(t, errors.As(err, &fault))
			assert.Equal(t, "crypto", fault.Kind)
			assert.Equal(t, 1, fault.Index)

			// iteration 2 stops at the faulting unit
			assert.Equal(t, []string{
				"time", "crypto", "text",
				"time", "crypto", "text",
				"time", "crypto",
			}, log.get())
			assert.Equal(t, 2, scheduler.Iterations())
		})
	}
}

func TestPanicIsFault(t *testing.T) {
	log := &runLog{}
	units := roster(log, "time", "fees")
	units[1].run = func(ctx context.Context, n int) error {
		var m map[string]int
		m["x"]++
		return nil
	}

	err := New(asUnits(units), 0).Run(context.Background())

	require.Error(t, err)
	assert.True(t, errdefs.IsAppFault(err))
	assert.Contains(t, err.Error(), "panic")
	assert.Equal(t, []string{"time", "fees"}, log.get())
}

func TestRunTimeout(t *testing.T) {
	t.Run("unit ignoring its context", func(t *testing.T) {
		log := &runLog{}
		units := roster(log, "blockheight")
		release := make(chan struct{})
		defer close(release)
		units[0].run = func(ctx context.Context, n int) error {
			<-release
			return nil
		}

		err := New(asUnits(units), 20*time.Millisecond).Run(context.Background())
		assert.ErrorIs(t, err, errdefs.ErrRunTimeout)
		assert.True(t, errdefs.IsAppFault(err))
	})

	t.Run("unit returning the deadline", func(t *testing.T) {
		log := &runLog{}
		units := roster(log, "temperature")
		units[0].run = func(ctx context.Context, n int) error {
			<-ctx.Done()
			return ctx.Err()
		}

		err := New(asUnits(units), 20*time.Millisecond).Run(context.Background())
		assert.ErrorIs(t, err, errdefs.ErrRunTimeout)
		assert.True(t, errdefs.IsAppFault(err))
	})
}

func TestCancellationIsNotAFault(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := &runLog{}
	units := roster(log, "time", "text")
	units[1].run = func(ctx context.Context, n int) error {
		if n == 3 {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	scheduler := New(asUnits(units), 0)
	err := scheduler.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errdefs.IsAppFault(err))
	assert.Equal(t, 3, scheduler.Iterations())
}

func TestEmptyRosterIdles(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := New(nil, 0).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
