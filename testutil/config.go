package testutil

import (
	"time"

	"moonclock/config"
	"moonclock/network"
)

// DefaultTestConfig returns a configuration that touches no hardware: console
// display, dummy network, no log file and zero dwell so tests do not wait.
func DefaultTestConfig() *config.Config {
	device := config.DefaultDeviceConfig()
	device.Reset.Dwell = 0
	device.ConnectTimeout = time.Second

	return &config.Config{
		CommandLineArguments: &config.CommandLineArguments{
			Display:       config.DisplayConsole,
			Network:       config.NetworkDummy,
			PrettyLogging: true,
			Debug:         true,
		},
		Device: &device,
		Credentials: []network.Credential{
			{ID: "test-ssid", Secret: "test-password"},
		},
	}
}

// TestConfigBuilder provides a fluent interface for building test configs
type TestConfigBuilder struct {
	config *config.Config
}

func NewTestConfigBuilder() *TestConfigBuilder {
	return &TestConfigBuilder{
		config: DefaultTestConfig(),
	}
}

func (b *TestConfigBuilder) WithCredentials(credentials ...network.Credential) *TestConfigBuilder {
	b.config.Credentials = credentials
	return b
}

func (b *TestConfigBuilder) WithApps(apps ...config.AppConfig) *TestConfigBuilder {
	b.config.Device.Apps = apps
	return b
}

func (b *TestConfigBuilder) WithTimeURL(url string) *TestConfigBuilder {
	b.config.Device.TimeURL = url
	return b
}

func (b *TestConfigBuilder) WithTimezone(tz string) *TestConfigBuilder {
	b.config.Device.Timezone = tz
	return b
}

func (b *TestConfigBuilder) WithRunTimeout(d time.Duration) *TestConfigBuilder {
	b.config.Device.RunTimeout = d
	return b
}

func (b *TestConfigBuilder) WithResetMode(mode string) *TestConfigBuilder {
	b.config.Device.Reset.Mode = mode
	return b
}

func (b *TestConfigBuilder) Build() *config.Config {
	return b.config
}
