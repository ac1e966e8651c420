package config

import (
	"net/url"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
)

// Validate checks a loaded DeviceConfig. firmwareVersion is matched against
// the optional `requires` constraint.
func Validate(cfg *DeviceConfig, firmwareVersion string) error {
	if cfg.Timezone == "" {
		return errors.New("timezone must not be empty")
	}

	timeURL, err := url.Parse(cfg.TimeURL)
	if err != nil || (timeURL.Scheme != "http" && timeURL.Scheme != "https") || timeURL.Host == "" {
		return errors.Errorf("time_url %q is not an http(s) url", cfg.TimeURL)
	}

	if cfg.ConnectTimeout <= 0 {
		return errors.New("connect_timeout must be > 0")
	}
	if cfg.RunTimeout < 0 {
		return errors.New("run_timeout must be >= 0 (0 disables it)")
	}
	if cfg.HTTPTimeout <= 0 {
		return errors.New("http_timeout must be > 0")
	}

	if err := validateDisplay(cfg); err != nil {
		return err
	}

	switch cfg.Reset.Mode {
	case ResetModeRebuild, ResetModeReboot:
	default:
		return errors.Errorf("reset.mode %q is invalid (expected %s or %s)", cfg.Reset.Mode, ResetModeRebuild, ResetModeReboot)
	}
	if cfg.Reset.Dwell < 0 {
		return errors.New("reset.dwell must be >= 0")
	}

	for i, app := range cfg.Apps {
		if app.Kind == "" {
			return errors.Errorf("apps[%d]: name is required", i)
		}
	}

	if cfg.Requires != "" {
		constraint, err := semver.NewConstraint(cfg.Requires)
		if err != nil {
			return errors.Wrapf(err, "requires %q is not a valid version constraint", cfg.Requires)
		}

		version, err := semver.NewVersion(firmwareVersion)
		if err != nil {
			return errors.Wrapf(err, "firmware version %q is not a semantic version", firmwareVersion)
		}

		if !constraint.Check(version) {
			return errors.Errorf("configuration requires firmware %s, running %s", cfg.Requires, firmwareVersion)
		}
	}

	return nil
}

func validateDisplay(cfg *DeviceConfig) error {
	d := cfg.Display
	if d.Panels < 1 {
		return errors.New("display.panels must be >= 1")
	}
	if d.Panels > 8 {
		return errors.New("display.panels must be <= 8 (channels of the multiplexer)")
	}
	if d.Width <= 0 || d.Height <= 0 {
		return errors.New("display.width and display.height must be > 0")
	}
	if d.ColumnsPerPanel < 1 {
		return errors.New("display.columns_per_panel must be >= 1")
	}
	if d.FrequencyKHz < 0 {
		return errors.New("display.frequency_khz must be >= 0")
	}

	return nil
}
