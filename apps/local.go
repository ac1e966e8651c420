package apps

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"moonclock/config"
	"moonclock/display"
)

type timeOptions struct {
	BaseOptions `yaml:",inline"`
	Format      string `yaml:"format"`
}

// timeApp shows the synced wall clock, refreshed every second.
type timeApp struct {
	base
	format string
}

func newTimeApp(env Env, cfg config.AppConfig) (Unit, error) {
	opts := timeOptions{BaseOptions: BaseOptions{Duration: 10}, Format: "15:04"}
	err := cfg.Decode(&opts)
	if err != nil {
		return nil, err
	}

	if opts.Format == "" {
		return nil, errors.New("format must not be empty")
	}

	b, err := newBase(cfg.Kind, env, opts.BaseOptions)
	if err != nil {
		return nil, err
	}

	return &timeApp{base: b, format: opts.Format}, nil
}

func (a *timeApp) Run(ctx context.Context) error {
	deadline := a.env.Clock.Now().Add(a.duration)

	for {
		err := a.show(a.env.Time.Now().Format(a.format), true)
		if err != nil {
			return err
		}

		remaining := deadline.Sub(a.env.Clock.Now())
		if remaining <= 0 {
			return ctx.Err()
		}
		if remaining > time.Second {
			remaining = time.Second
		}

		err = a.sleep(ctx, remaining)
		if err != nil {
			return err
		}
	}
}

type textOptions struct {
	BaseOptions `yaml:",inline"`
	Text        string `yaml:"text"`
	Centered    bool   `yaml:"centered"`
}

type textApp struct {
	base
	text     string
	centered bool
}

func newTextApp(env Env, cfg config.AppConfig) (Unit, error) {
	opts := textOptions{BaseOptions: BaseOptions{Duration: 10}, Centered: true}
	err := cfg.Decode(&opts)
	if err != nil {
		return nil, err
	}

	if opts.Text == "" {
		return nil, errors.New("text must not be empty")
	}

	b, err := newBase(cfg.Kind, env, opts.BaseOptions)
	if err != nil {
		return nil, err
	}

	return &textApp{base: b, text: opts.Text, centered: opts.Centered}, nil
}

func (a *textApp) Run(ctx context.Context) error {
	err := a.show(a.text, a.centered)
	if err != nil {
		return err
	}

	return a.sleep(ctx, a.duration)
}

type autoContrastOptions struct {
	BaseOptions `yaml:",inline"`
	Day         int `yaml:"day"`
	Night       int `yaml:"night"`
	NightStart  int `yaml:"night_start"`
	NightEnd    int `yaml:"night_end"`
}

// autoContrastApp renders nothing; it dims the panels between NightStart and
// NightEnd (hours of the synced clock) and restores them during the day.
type autoContrastApp struct {
	base
	dimmer     display.Dimmer
	day        byte
	night      byte
	nightStart int
	nightEnd   int
	current    int
}

func newAutoContrastApp(env Env, cfg config.AppConfig) (Unit, error) {
	opts := autoContrastOptions{Day: 255, Night: 1, NightStart: 22, NightEnd: 7}
	err := cfg.Decode(&opts)
	if err != nil {
		return nil, err
	}

	dimmer, ok := env.Display.(display.Dimmer)
	if !ok {
		return nil, errors.New("display does not support contrast control")
	}

	for name, level := range map[string]int{"day": opts.Day, "night": opts.Night} {
		if level < 0 || level > 255 {
			return nil, errors.Errorf("%s contrast must be within 0..255, got %d", name, level)
		}
	}
	for name, hour := range map[string]int{"night_start": opts.NightStart, "night_end": opts.NightEnd} {
		if hour < 0 || hour > 23 {
			return nil, errors.Errorf("%s must be an hour within 0..23, got %d", name, hour)
		}
	}

	b, err := newBase(cfg.Kind, env, opts.BaseOptions)
	if err != nil {
		return nil, err
	}

	return &autoContrastApp{
		base:       b,
		dimmer:     dimmer,
		day:        byte(opts.Day),
		night:      byte(opts.Night),
		nightStart: opts.NightStart,
		nightEnd:   opts.NightEnd,
		current:    -1,
	}, nil
}

func (a *autoContrastApp) isNight(hour int) bool {
	if a.nightStart == a.nightEnd {
		return false
	}
	if a.nightStart < a.nightEnd {
		return hour >= a.nightStart && hour < a.nightEnd
	}
	return hour >= a.nightStart || hour < a.nightEnd
}

func (a *autoContrastApp) Run(ctx context.Context) error {
	level := a.day
	if a.isNight(a.env.Time.Now().Hour()) {
		level = a.night
	}

	if int(level) != a.current {
		err := a.dimmer.SetContrast(level)
		if err != nil {
			return errors.Wrap(err, "failed to set contrast")
		}

		log.Ctx(ctx).Debug().Msgf("Contrast set to %d", level)
		a.current = int(level)
	}

	return a.sleep(ctx, a.duration)
}
