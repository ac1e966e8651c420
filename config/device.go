package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"moonclock/display"
	"moonclock/errdefs"
	"moonclock/filesystem"
)

const (
	ResetModeRebuild = "rebuild"
	ResetModeReboot  = "reboot"
)

type ResetConfig struct {
	Mode  string        `yaml:"mode"`
	Dwell time.Duration `yaml:"dwell"`
}

// DeviceConfig is the content of conf.yaml.
type DeviceConfig struct {
	Timezone       string          `yaml:"timezone"`
	TimeURL        string          `yaml:"time_url"`
	ConnectTimeout time.Duration   `yaml:"connect_timeout"`
	RunTimeout     time.Duration   `yaml:"run_timeout"`
	HTTPTimeout    time.Duration   `yaml:"http_timeout"`
	Requires       string          `yaml:"requires"`
	Display        display.Options `yaml:"display"`
	Reset          ResetConfig     `yaml:"reset"`
	Apps           []AppConfig     `yaml:"apps"`
}

func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Timezone:       "Europe/Prague",
		TimeURL:        "https://worldtimeapi.org/api/timezone/",
		ConnectTimeout: time.Second * 15,
		RunTimeout:     time.Minute * 2,
		HTTPTimeout:    time.Second * 30,
		Display:        display.DefaultOptions(),
		Reset: ResetConfig{
			Mode:  ResetModeRebuild,
			Dwell: time.Second * 30,
		},
	}
}

// LoadDeviceConfig reads conf.yaml on top of the defaults: keys missing from
// the file keep their default value.
func LoadDeviceConfig(path string) (*DeviceConfig, error) {
	if path == "" {
		return nil, errdefs.ErrConfigNotProvided
	}

	exists, err := filesystem.FileExists(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}
	if !exists {
		return nil, errors.Wrap(errdefs.ErrNotFound, path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	return ParseDeviceConfig(raw)
}

func ParseDeviceConfig(raw []byte) (*DeviceConfig, error) {
	deviceConfig := DefaultDeviceConfig()

	err := yaml.Unmarshal(raw, &deviceConfig)
	if err != nil {
		return nil, errors.Wrap(errdefs.ErrFailedToParse, err.Error())
	}

	return &deviceConfig, nil
}
