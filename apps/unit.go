// Package apps holds the display apps the device cycles through and the
// registry that builds them from the configured roster.
package apps

import (
	"context"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"moonclock/display"
	"moonclock/timesync"
)

// Unit is one entry of the running roster. Run renders the app for its
// configured duration; a returned error is a fault and resets the device.
type Unit interface {
	Kind() string
	Run(ctx context.Context) error
}

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type TimeSource interface {
	Now() time.Time
}

// Env is what every app gets at construction: the shared display, the shared
// HTTP client, the synced wall clock and the local clock used for waiting.
type Env struct {
	Display display.Surface
	HTTP    Doer
	Time    TimeSource
	Clock   clock.Clock
}

// BaseOptions are accepted by every kind. Duration is in seconds.
type BaseOptions struct {
	Duration float64 `yaml:"duration"`
}

type base struct {
	kind     string
	env      Env
	duration time.Duration
}

func newBase(kind string, env Env, opts BaseOptions) (base, error) {
	if opts.Duration < 0 {
		return base{}, errors.Errorf("duration must be >= 0, got %v", opts.Duration)
	}

	return base{
		kind:     kind,
		env:      env,
		duration: time.Duration(opts.Duration * float64(time.Second)),
	}, nil
}

func (b *base) Kind() string {
	return b.kind
}

func (b *base) show(content string, centered bool) error {
	b.env.Display.Clear()
	b.env.Display.RenderText(content, centered)
	return b.env.Display.Show()
}

func (b *base) sleep(ctx context.Context, d time.Duration) error {
	return timesync.Sleep(ctx, b.env.Clock, d)
}

// showAndHold renders a single frame and keeps it up for the app's duration.
func (b *base) showAndHold(ctx context.Context, content string) error {
	err := b.show(content, true)
	if err != nil {
		return err
	}

	return b.sleep(ctx, b.duration)
}
