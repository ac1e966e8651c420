package network

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	NetworkManagerInterface  = "org.freedesktop.NetworkManager"
	NetworkManagerObjectPath = dbus.ObjectPath("/org/freedesktop/NetworkManager")

	NetworkManagerGetDevices                = NetworkManagerInterface + ".GetDevices"
	NetworkManagerAddAndActivateConnection2 = NetworkManagerInterface + ".AddAndActivateConnection2"
	NetworkManagerDeactivateConnection      = NetworkManagerInterface + ".DeactivateConnection"

	DevicePropertyDeviceType      = NetworkManagerInterface + ".Device.DeviceType"
	ActiveConnectionPropertyState = NetworkManagerInterface + ".Connection.Active.State"
)

// see https://networkmanager.dev/docs/api/latest/nm-dbus-types.html
const (
	NmDeviceTypeWifi uint32 = 2

	NmActiveConnectionStateActivated   uint32 = 2
	NmActiveConnectionStateDeactivated uint32 = 4
)

type ConnectionSettings map[string]map[string]dbus.Variant

// busConn is the subset of *dbus.Conn the connector needs.
type busConn interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
}

// NMWNetwork joins wireless networks through the NetworkManager D-Bus API.
// Profiles are added as volatile so nothing is written to disk and a failed
// profile disappears once it is deactivated.
type NMWNetwork struct {
	conn         busConn
	pollInterval time.Duration
}

func NewNMWNetwork() (*NMWNetwork, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to the system bus")
	}

	return newNMWNetwork(conn), nil
}

func newNMWNetwork(conn busConn) *NMWNetwork {
	return &NMWNetwork{conn: conn, pollInterval: time.Millisecond * 200}
}

func (n *NMWNetwork) nm() dbus.BusObject {
	return n.conn.Object(NetworkManagerInterface, NetworkManagerObjectPath)
}

func (n *NMWNetwork) Connect(ctx context.Context, credential Credential) error {
	device, err := n.getWirelessDevice(ctx)
	if err != nil {
		return err
	}

	options := map[string]dbus.Variant{
		"persist": dbus.MakeVariant("volatile"),
	}

	var connectionPath, activePath dbus.ObjectPath
	var result map[string]dbus.Variant
	err = n.nm().CallWithContext(ctx, NetworkManagerAddAndActivateConnection2, 0,
		newConnectionSettings(credential), device, dbus.ObjectPath("/"), options).
		Store(&connectionPath, &activePath, &result)
	if err != nil {
		return errors.Wrapf(err, "failed to activate a connection to %s", credential.ID)
	}

	log.Ctx(ctx).Debug().Msgf("NetworkManager: activating %s (%s)", activePath, connectionPath)

	err = n.waitForActivation(ctx, activePath)
	if err != nil {
		n.deactivate(ctx, activePath)
		return err
	}

	return nil
}

func (n *NMWNetwork) getWirelessDevice(ctx context.Context) (dbus.ObjectPath, error) {
	var devices []dbus.ObjectPath
	err := n.nm().CallWithContext(ctx, NetworkManagerGetDevices, 0).Store(&devices)
	if err != nil {
		return "", errors.Wrap(err, "failed to list network devices")
	}

	for _, device := range devices {
		variant, err := n.conn.Object(NetworkManagerInterface, device).GetProperty(DevicePropertyDeviceType)
		if err != nil {
			return "", err
		}

		devType, ok := variant.Value().(uint32)
		if ok && devType == NmDeviceTypeWifi {
			return device, nil
		}
	}

	return "", ErrDeviceNotFound
}

func (n *NMWNetwork) waitForActivation(ctx context.Context, activePath dbus.ObjectPath) error {
	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	activeConnection := n.conn.Object(NetworkManagerInterface, activePath)
	for {
		variant, err := activeConnection.GetProperty(ActiveConnectionPropertyState)
		if err != nil {
			// the active connection object is removed once activation fails
			return errors.Wrap(ErrActivationFailed, err.Error())
		}

		state, _ := variant.Value().(uint32)
		switch state {
		case NmActiveConnectionStateActivated:
			return nil
		case NmActiveConnectionStateDeactivated:
			return ErrActivationFailed
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// deactivate runs even when ctx already ended; only its values are kept.
func (n *NMWNetwork) deactivate(ctx context.Context, activePath dbus.ObjectPath) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second*5)
	defer cancel()

	err := n.nm().CallWithContext(ctx, NetworkManagerDeactivateConnection, 0, activePath).Err
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Msgf("failed to deactivate %s", activePath)
	}
}

// see https://networkmanager.dev/docs/api/latest/settings-802-11-wireless-security.html
func newConnectionSettings(credential Credential) ConnectionSettings {
	settings := make(ConnectionSettings)
	settings["connection"] = map[string]dbus.Variant{
		"id":          dbus.MakeVariant("moonclock-" + credential.ID),
		"type":        dbus.MakeVariant("802-11-wireless"),
		"autoconnect": dbus.MakeVariant(false),
	}

	settings["802-11-wireless"] = map[string]dbus.Variant{
		"ssid": dbus.MakeVariant([]byte(credential.ID)),
		"mode": dbus.MakeVariant("infrastructure"),
	}

	settings["ipv4"] = map[string]dbus.Variant{"method": dbus.MakeVariant("auto")}
	settings["ipv6"] = map[string]dbus.Variant{"method": dbus.MakeVariant("auto")}

	if credential.Secret != "" {
		settings["802-11-wireless-security"] = map[string]dbus.Variant{
			"key-mgmt": dbus.MakeVariant("wpa-psk"),
			"psk":      dbus.MakeVariant(credential.Secret),
		}
	}

	return settings
}
