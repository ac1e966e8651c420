package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moonclock/errdefs"
	"moonclock/network"
)

const sampleConf = `
timezone: America/New_York
connect_timeout: 10s
run_timeout: 0s
display:
  panels: 4
reset:
  mode: reboot
apps:
  - name: time
    duration: 20
  - name: crypto
    coin: bitcoin
    currency: eur
  - name: text
`

func TestParseDeviceConfig(t *testing.T) {
	cfg, err := ParseDeviceConfig([]byte(sampleConf))
	require.NoError(t, err)

	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, time.Second*10, cfg.ConnectTimeout)
	assert.Zero(t, cfg.RunTimeout)
	assert.Equal(t, ResetModeReboot, cfg.Reset.Mode)

	// untouched keys keep their defaults
	assert.Equal(t, "https://worldtimeapi.org/api/timezone/", cfg.TimeURL)
	assert.Equal(t, time.Second*30, cfg.Reset.Dwell)
	assert.Equal(t, 4, cfg.Display.Panels)
	assert.Equal(t, 128, cfg.Display.Width)
	assert.Equal(t, uint16(0x70), cfg.Display.MuxAddress)

	require.Len(t, cfg.Apps, 3)
	assert.Equal(t, "time", cfg.Apps[0].Kind)
	assert.Equal(t, "crypto", cfg.Apps[1].Kind)
	assert.Equal(t, "text", cfg.Apps[2].Kind)
}

func TestParseDeviceConfigRejectsGarbage(t *testing.T) {
	_, err := ParseDeviceConfig([]byte("apps: [1, 2"))
	assert.ErrorIs(t, err, errdefs.ErrFailedToParse)

	_, err = ParseDeviceConfig([]byte("apps:\n  - time\n"))
	assert.Error(t, err)
}

func TestLoadDeviceConfigRequiresPath(t *testing.T) {
	_, err := LoadDeviceConfig("")
	assert.ErrorIs(t, err, errdefs.ErrConfigNotProvided)
}

func TestLoadMissingFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadDeviceConfig(filepath.Join(dir, "conf.yaml"))
	assert.ErrorIs(t, err, errdefs.ErrNotFound)

	_, err = LoadSecretsFile(filepath.Join(dir, "secrets.ini"))
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	confPath := filepath.Join(dir, "conf.yaml")
	secretsPath := filepath.Join(dir, "secrets.ini")
	require.NoError(t, os.WriteFile(confPath, []byte(sampleConf), 0644))
	require.NoError(t, os.WriteFile(secretsPath, []byte("[home]\npassword = pw\n"), 0600))

	cfg, err := LoadDeviceConfig(confPath)
	require.NoError(t, err)
	assert.Len(t, cfg.Apps, 3)

	credentials, err := LoadSecretsFile(secretsPath)
	require.NoError(t, err)
	assert.Equal(t, []network.Credential{{ID: "home", Secret: "pw"}}, credentials)
}

func TestAppConfigDecode(t *testing.T) {
	cfg, err := ParseDeviceConfig([]byte(sampleConf))
	require.NoError(t, err)

	t.Run("declared options are decoded", func(t *testing.T) {
		var opts struct {
			Coin     string `yaml:"coin"`
			Currency string `yaml:"currency"`
		}
		require.NoError(t, cfg.Apps[1].Decode(&opts))
		assert.Equal(t, "bitcoin", opts.Coin)
		assert.Equal(t, "eur", opts.Currency)
	})

	t.Run("unknown options are rejected", func(t *testing.T) {
		var opts struct {
			Coin string `yaml:"coin"`
		}
		assert.Error(t, cfg.Apps[1].Decode(&opts))
	})

	t.Run("no options leaves defaults", func(t *testing.T) {
		opts := struct {
			Text string `yaml:"text"`
		}{Text: "hello"}
		require.NoError(t, cfg.Apps[2].Decode(&opts))
		assert.Equal(t, "hello", opts.Text)
	})

	t.Run("built in code", func(t *testing.T) {
		app, err := NewAppConfig("time", map[string]interface{}{"format": "15:04"})
		require.NoError(t, err)

		var opts struct {
			Format string `yaml:"format"`
		}
		require.NoError(t, app.Decode(&opts))
		assert.Equal(t, "15:04", opts.Format)
	})
}

func TestLoadSecrets(t *testing.T) {
	secrets := []byte(`
[home]
ssid = FRITZ!Box 7430
password = s3cret;#with-symbols

[office]
ssid = corp
password = hunter22

[cafe]
`)

	credentials, err := LoadSecrets(secrets)
	require.NoError(t, err)

	assert.Equal(t, []network.Credential{
		{ID: "FRITZ!Box 7430", Secret: "s3cret;#with-symbols"},
		{ID: "corp", Secret: "hunter22"},
		{ID: "cafe", Secret: ""},
	}, credentials)
}

func TestLoadSecretsKeepsRepeatedSections(t *testing.T) {
	secrets := []byte(`
[home]
password = first

[cafe]

[home]
ssid = home-5g
password = second
`)

	credentials, err := LoadSecrets(secrets)
	require.NoError(t, err)

	assert.Equal(t, []network.Credential{
		{ID: "home", Secret: "first"},
		{ID: "cafe", Secret: ""},
		{ID: "home-5g", Secret: "second"},
	}, credentials)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *DeviceConfig)
		version string
		wantErr bool
	}{
		{"defaults are valid", func(cfg *DeviceConfig) {}, "1.4.0", false},
		{"empty timezone", func(cfg *DeviceConfig) { cfg.Timezone = "" }, "1.4.0", true},
		{"bad time url", func(cfg *DeviceConfig) { cfg.TimeURL = "ftp://example.com/" }, "1.4.0", true},
		{"zero connect timeout", func(cfg *DeviceConfig) { cfg.ConnectTimeout = 0 }, "1.4.0", true},
		{"disabled run timeout", func(cfg *DeviceConfig) { cfg.RunTimeout = 0 }, "1.4.0", false},
		{"negative run timeout", func(cfg *DeviceConfig) { cfg.RunTimeout = -time.Second }, "1.4.0", true},
		{"too many panels", func(cfg *DeviceConfig) { cfg.Display.Panels = 9 }, "1.4.0", true},
		{"unknown reset mode", func(cfg *DeviceConfig) { cfg.Reset.Mode = "halt" }, "1.4.0", true},
		{"app without name", func(cfg *DeviceConfig) { cfg.Apps = []AppConfig{{}} }, "1.4.0", true},
		{"satisfied requires", func(cfg *DeviceConfig) { cfg.Requires = ">= 1.2.0" }, "1.4.0", false},
		{"unsatisfied requires", func(cfg *DeviceConfig) { cfg.Requires = ">= 2.0.0" }, "1.4.0", true},
		{"invalid requires", func(cfg *DeviceConfig) { cfg.Requires = "soon" }, "1.4.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDeviceConfig()
			tt.mutate(&cfg)

			err := Validate(&cfg, tt.version)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
