package config

import (
	"fmt"
	"os"
	"runtime"

	"moonclock/network"
)

type CommandLineArguments struct {
	ConfigFileLocation  string
	SecretsFileLocation string
	LogFileLocation     string
	Display             string
	Network             string
	Debug               bool
	PrettyLogging       bool
}

type Config struct {
	CommandLineArguments *CommandLineArguments
	Device               *DeviceConfig
	Credentials          []network.Credential
}

func New(cliArgs *CommandLineArguments, device *DeviceConfig, credentials []network.Credential) Config {
	return Config{
		CommandLineArguments: cliArgs,
		Device:               device,
		Credentials:          credentials,
	}
}

const (
	DisplaySSD1306 = "ssd1306"
	DisplayConsole = "console"

	NetworkNetworkManager = "nm"
	NetworkDummy          = "dummy"
)

// DefaultCliArguments returns the flag defaults. On Linux the device layout is
// used, elsewhere everything lives below the home directory and no hardware
// is touched.
func DefaultCliArguments() (*CommandLineArguments, error) {
	args := CommandLineArguments{
		ConfigFileLocation:  "/etc/moonclock/conf.yaml",
		SecretsFileLocation: "/etc/moonclock/secrets.ini",
		LogFileLocation:     "/run/moonclock/moonclock.log",
		Display:             DisplaySSD1306,
		Network:             NetworkNetworkManager,
	}

	if runtime.GOOS != "linux" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		args.ConfigFileLocation = fmt.Sprintf("%s/%s", homeDir, "moonclock/conf.yaml")
		args.SecretsFileLocation = fmt.Sprintf("%s/%s", homeDir, "moonclock/secrets.ini")
		args.LogFileLocation = ""
		args.Display = DisplayConsole
		args.Network = NetworkDummy
	}

	return &args, nil
}
