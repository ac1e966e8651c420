package main

import (
	"context"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"moonclock/apps"
	"moonclock/benchmark"
	"moonclock/config"
	"moonclock/connectivity"
	"moonclock/display"
	"moonclock/logging"
	"moonclock/network"
	"moonclock/reset"
	"moonclock/scheduler"
	"moonclock/timesync"
)

const splashDuration = time.Second

// Backends are the outside world of one boot. The display is opened anew on
// every boot and closed when the boot ends.
type Backends struct {
	Surface   display.Surface
	Closer    io.Closer
	Connector network.Connector
	HTTP      apps.Doer
	Clock     clock.Clock
	Pauser    connectivity.Pauser
	Restarter reset.Restarter
}

// Device is everything one boot owns. A reset throws it away and builds a new
// one from the config.
type Device struct {
	BootID string
	Config *config.Config

	backends     Backends
	appSurface   *display.Fence
	Connectivity *connectivity.Manager
	Reset        *reset.Controller
	Timings      *benchmark.BootTimings

	Time      *timesync.Source
	Units     []apps.Unit
	Scheduler *scheduler.Scheduler
}

func NewDevice(cfg *config.Config, backends Backends) *Device {
	timings := connectivity.DefaultTimings()
	timings.Attempt = cfg.Device.ConnectTimeout

	return &Device{
		BootID:       uuid.New().String(),
		Config:       cfg,
		backends:     backends,
		appSurface:   display.NewFence(backends.Surface),
		Connectivity: connectivity.NewManager(backends.Surface, backends.Connector, backends.Pauser, timings),
		Reset:        reset.NewController(backends.Surface, backends.Pauser, cfg.Device.Reset.Dwell, backends.Restarter),
		Timings:      benchmark.Start(backends.Clock),
	}
}

// Run boots the device and runs the apps. A failed clock sync or an app fault
// goes through the reset controller, whose result is returned. When ctx is
// cancelled Run returns ctx.Err(). The apps lose the display once Run leaves
// the run loop.
func (d *Device) Run(ctx context.Context) error {
	ctx = logging.WithBoot(ctx, d.BootID)
	log.Ctx(ctx).Info().Msgf("Booting device (boot %s)", d.BootID)

	err := d.boot(ctx)
	if err == nil {
		d.Timings.Mark(benchmark.PhaseRunLoop)
		d.Timings.LogResults(ctx)

		err = d.Scheduler.Run(ctx)
	}
	d.appSurface.Close()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	return d.Reset.Reset(ctx, err)
}

func (d *Device) boot(ctx context.Context) error {
	d.splash(ctx, "wifi setup")
	err := d.backends.Pauser.Pause(ctx, splashDuration)
	if err != nil {
		return err
	}
	d.Timings.Mark(benchmark.PhaseDisplay)

	logHardwareAddresses(ctx)

	credential, err := d.Connectivity.Connect(ctx, d.Config.Credentials)
	if err != nil {
		return err
	}
	d.Timings.Mark(benchmark.PhaseConnect)

	logIPv4Addresses(ctx, credential)

	d.splash(ctx, "TIME  INIT")
	d.Time, err = timesync.Sync(ctx, d.backends.HTTP, d.backends.Clock, d.Config.Device.TimeURL, d.Config.Device.Timezone)
	if err != nil {
		return err
	}
	d.Timings.Mark(benchmark.PhaseClock)

	d.splash(ctx, "APPS  INIT")
	units, errs := apps.Build(ctx, d.Config.Device.Apps, apps.Env{
		Display: d.appSurface.Surface(),
		HTTP:    d.backends.HTTP,
		Time:    d.Time,
		Clock:   d.backends.Clock,
	})
	if len(errs) > 0 {
		log.Ctx(ctx).Warn().Msgf("%d of %d apps could not be initialized", len(errs), len(d.Config.Device.Apps))
	}
	if len(units) == 0 {
		d.splash(ctx, "no apps")
	}
	d.Timings.Mark(benchmark.PhaseApps)

	d.Units = units
	d.Scheduler = scheduler.New(units, d.Config.Device.RunTimeout)

	return nil
}

func (d *Device) splash(ctx context.Context, content string) {
	d.backends.Surface.Clear()
	d.backends.Surface.RenderText(content, true)
	err := d.backends.Surface.Show()
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msgf("failed to show %q", content)
	}
}

func (d *Device) Close() error {
	if d.backends.Closer == nil {
		return nil
	}

	return errors.Wrap(d.backends.Closer.Close(), "failed to close display")
}

func logHardwareAddresses(ctx context.Context) {
	macs, err := network.GetHardwareAddresses()
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to list network interfaces")
		return
	}

	for iface, mac := range macs {
		log.Ctx(ctx).Info().Str("interface", iface).Msgf("MAC address: %s", mac)
	}
}

func logIPv4Addresses(ctx context.Context, credential network.Credential) {
	addresses, err := network.GetIPv4Addresses()
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to list IPv4 addresses")
		return
	}

	for _, address := range addresses {
		log.Ctx(ctx).Info().Str("interface", address.InterfaceName).Msgf("Connected to %s with IP address %s", credential.ID, address.Ip)
	}
}
