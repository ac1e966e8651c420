package system

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// usage of D-Bus API recommended, `reboot` is only the fallback
// $ busctl call org.freedesktop.login1 /org/freedesktop/login1 org.freedesktop.login1.Manager Reboot b false

const (
	logindDBusDestination = "org.freedesktop.login1"
	logindDBusObjectPath  = "/org/freedesktop/login1"
	logindRebootMethod    = "org.freedesktop.login1.Manager.Reboot"

	osReleasePath = "/etc/os-release"
)

type busConn interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
}

type System struct {
	conn    busConn
	command func(ctx context.Context, name string, args ...string) error
}

// New returns a System talking to logind over the system bus. When the bus is
// unavailable only the `reboot` command is used.
func New() System {
	sys := System{command: runCommand}

	conn, err := dbus.SystemBus()
	if err != nil {
		log.Warn().Err(err).Msg("system bus unavailable, falling back to the reboot command")
		return sys
	}

	sys.conn = conn
	return sys
}

func runCommand(ctx context.Context, name string, args ...string) error {
	_, err := exec.CommandContext(ctx, name, args...).Output()
	return err
}

// Reboot asks logind to reboot the machine, or runs `reboot` when that fails.
// It returns once the request was accepted.
func (sys *System) Reboot(ctx context.Context) error {
	if sys.conn != nil {
		object := sys.conn.Object(logindDBusDestination, logindDBusObjectPath)
		call := object.CallWithContext(ctx, logindRebootMethod, 0, false)
		if call.Err == nil {
			return nil
		}

		log.Ctx(ctx).Warn().Err(call.Err).Msgf("D-Bus call to %s failed, trying the reboot command", logindRebootMethod)
	}

	err := sys.command(ctx, "reboot")
	if err != nil {
		return errors.Wrap(err, "failed to reboot")
	}

	return nil
}

func GetOSReleaseCurrent() (map[string]string, error) {
	osInfoBytes, err := os.ReadFile(osReleasePath)
	if err != nil {
		return nil, err
	}

	return parseOSRelease(string(osInfoBytes)), nil
}

func parseOSRelease(content string) map[string]string {
	dict := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found || key == "" || strings.HasPrefix(key, "#") {
			continue
		}

		dict[key] = strings.Trim(value, `"'`)
	}

	return dict
}

func GetOSVersion() string {
	switch runtime.GOOS {
	case "linux":
		osRelease, err := GetOSReleaseCurrent()
		if err == nil {
			if prettyName := osRelease["PRETTY_NAME"]; prettyName != "" {
				return prettyName
			}
			if name := osRelease["NAME"]; name != "" {
				return name
			}
		}

		return "Linux/Unix-based"
	case "windows":
		return "Windows"
	case "darwin":
		return "MacOS"
	}

	return runtime.GOOS
}
