package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"moonclock/config"
	"moonclock/display"
	"moonclock/errdefs"
	"moonclock/filesystem"
	"moonclock/logging"
	"moonclock/network"
	"moonclock/release"
	"moonclock/reset"
	"moonclock/system"
	"moonclock/timesync"
)

func main() {
	defer func() {
		err := recover()

		if err != nil {
			log.Fatal().Msgf("Panic: %+v \n Stack Trace: %s", err, debug.Stack())
		}
	}()

	rootCmd, err := newRootCommand()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() (*cobra.Command, error) {
	defaults, err := config.DefaultCliArguments()
	if err != nil {
		return nil, errors.Wrap(err, "failed to determine default paths")
	}

	cliArgs := *defaults
	rootCmd := &cobra.Command{
		Use:           "moonclock",
		Short:         "Connects to WiFi, syncs the clock and cycles the configured display apps",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), &cliArgs)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&cliArgs.ConfigFileLocation, "config", defaults.ConfigFileLocation, "Path to the device configuration (YAML)")
	flags.StringVar(&cliArgs.SecretsFileLocation, "secrets", defaults.SecretsFileLocation, "Path to the network credentials (INI, one section per network)")
	flags.StringVar(&cliArgs.LogFileLocation, "logFile", defaults.LogFileLocation, "Log file location, empty to log to stderr only")
	flags.StringVar(&cliArgs.Display, "display", defaults.Display, "Display backend (ssd1306|console)")
	flags.StringVar(&cliArgs.Network, "network", defaults.Network, "Network backend (nm|dummy)")
	flags.BoolVar(&cliArgs.Debug, "debug", defaults.Debug, "Sets the log level to debug")
	flags.BoolVar(&cliArgs.PrettyLogging, "prettyLogging", defaults.PrettyLogging, "Enables the pretty console writing, intended for debugging")

	rootCmd.AddCommand(newVersionCommand())
	return rootCmd, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the firmware version and build architecture",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			goos, arch, variant := release.GetSystemInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s/%s%s)\n", release.GetVersion(), goos, arch, variant)
		},
	}
}

func run(ctx context.Context, cliArgs *config.CommandLineArguments) error {
	switch cliArgs.Display {
	case config.DisplaySSD1306, config.DisplayConsole:
	default:
		return errors.Errorf("unknown display backend %q", cliArgs.Display)
	}
	switch cliArgs.Network {
	case config.NetworkNetworkManager, config.NetworkDummy:
	default:
		return errors.Errorf("unknown network backend %q", cliArgs.Network)
	}

	logDir := ""
	if cliArgs.LogFileLocation != "" {
		logDir = filepath.Dir(cliArgs.LogFileLocation)
	}

	err := filesystem.InitDirectories(logDir)
	if err != nil {
		return errors.Wrap(err, "failed to create log directory")
	}

	logging.SetupLogger(cliArgs)
	logDiskUsage(logDir)

	goos, arch, variant := release.GetSystemInfo()
	log.Info().Msgf("Starting... moonclock %s (OS: %s, %s/%s%s)", release.GetVersion(), system.GetOSVersion(), goos, arch, variant)

	deviceConfig, err := config.LoadDeviceConfig(cliArgs.ConfigFileLocation)
	if err != nil {
		return errors.Wrap(err, "failed to load device config")
	}

	err = config.Validate(deviceConfig, release.GetVersion())
	if err != nil {
		return errors.Wrap(err, "invalid device config")
	}

	credentials, err := config.LoadSecretsFile(cliArgs.SecretsFileLocation)
	if err != nil {
		return errors.Wrap(err, "failed to load secrets")
	}
	if len(credentials) == 0 {
		log.Warn().Msgf("%s contains no networks, the device will not get online", cliArgs.SecretsFileLocation)
	}

	generalConfig := config.New(cliArgs, deviceConfig, credentials)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runDevice(ctx, &generalConfig, clock.New(), openBackends)
}

type backendsOpener func(cfg *config.Config) (Backends, error)

// runDevice builds and runs devices, one per boot, until ctx is cancelled or a
// restart replaces the process. clk paces the retries of failed opens.
func runDevice(ctx context.Context, cfg *config.Config, clk clock.Clock, open backendsOpener) error {
	retryDelay := cfg.Device.Reset.Dwell
	if retryDelay < time.Second {
		retryDelay = time.Second
	}

	for {
		backends, err := open(cfg)
		if err != nil {
			log.Error().Stack().Err(err).Msgf("failed to open device backends, retrying in %s", retryDelay)

			if timesync.Sleep(ctx, clk, retryDelay) != nil {
				return nil
			}
			continue
		}

		device := NewDevice(cfg, backends)
		err = device.Run(ctx)

		closeErr := device.Close()
		if closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to release the display")
		}

		if ctx.Err() != nil {
			log.Info().Msg("Shutting down")
			return nil
		}

		if errors.Is(err, errdefs.ErrRebuild) {
			log.Info().Msg("Rebuilding device")
			continue
		}

		return err
	}
}

func openBackends(cfg *config.Config) (Backends, error) {
	clk := clock.New()
	backends := Backends{
		HTTP:   &http.Client{Timeout: cfg.Device.HTTPTimeout},
		Clock:  clk,
		Pauser: timesync.Pauser{Clock: clk},
	}

	switch cfg.CommandLineArguments.Display {
	case config.DisplaySSD1306:
		bank, closer, err := display.OpenSSD1306(cfg.Device.Display)
		if err != nil {
			return Backends{}, err
		}
		backends.Surface = bank
		backends.Closer = closer
	default:
		backends.Surface = display.NewConsole(cfg.Device.Display)
	}

	switch cfg.CommandLineArguments.Network {
	case config.NetworkNetworkManager:
		connector, err := network.NewNMWNetwork()
		if err != nil {
			if backends.Closer != nil {
				backends.Closer.Close()
			}
			return Backends{}, err
		}
		backends.Connector = connector
	default:
		backends.Connector = network.NewDummyNetwork()
	}

	backends.Restarter = newRestarter(cfg.Device.Reset.Mode)
	return backends, nil
}

func newRestarter(mode string) reset.Restarter {
	if mode == config.ResetModeReboot {
		sys := system.New()
		return system.NewReboot(&sys)
	}

	return system.Rebuild{}
}

func logDiskUsage(logDir string) {
	if logDir == "" {
		return
	}

	usage, err := filesystem.UsageOf(logDir)
	if err != nil {
		log.Warn().Err(err).Msgf("failed to get disk usage of %s", logDir)
		return
	}

	if usage.UsePercent >= 90 {
		log.Warn().Msgf("%s (%s) is %d%% full, %dkB left for the log", logDir, usage.Filesystem, usage.UsePercent, usage.Available)
		return
	}

	log.Debug().Msgf("%s (%s): %dkB available", logDir, usage.Filesystem, usage.Available)
}
