package network

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// fakeBus - answers the NetworkManager calls the connector issues
// =============================================================================

type fakeBus struct {
	devices     map[dbus.ObjectPath]uint32
	states      []uint32 // consumed one per State property read
	activateErr error
	calls       []string
	settings    ConnectionSettings
}

type fakeObject struct {
	dbus.BusObject
	bus  *fakeBus
	path dbus.ObjectPath
}

func (b *fakeBus) Object(dest string, path dbus.ObjectPath) dbus.BusObject {
	return &fakeObject{bus: b, path: path}
}

func (o *fakeObject) CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	o.bus.calls = append(o.bus.calls, method)

	switch method {
	case NetworkManagerGetDevices:
		var paths []dbus.ObjectPath
		for path := range o.bus.devices {
			paths = append(paths, path)
		}
		return &dbus.Call{Body: []interface{}{paths}}
	case NetworkManagerAddAndActivateConnection2:
		if o.bus.activateErr != nil {
			return &dbus.Call{Err: o.bus.activateErr}
		}
		o.bus.settings = args[0].(ConnectionSettings)
		return &dbus.Call{Body: []interface{}{
			dbus.ObjectPath("/org/freedesktop/NetworkManager/Settings/7"),
			dbus.ObjectPath("/org/freedesktop/NetworkManager/ActiveConnection/3"),
			map[string]dbus.Variant{},
		}}
	}

	return &dbus.Call{}
}

func (o *fakeObject) GetProperty(p string) (dbus.Variant, error) {
	switch p {
	case DevicePropertyDeviceType:
		return dbus.MakeVariant(o.bus.devices[o.path]), nil
	case ActiveConnectionPropertyState:
		if len(o.bus.states) == 0 {
			return dbus.Variant{}, errors.New("no such object")
		}
		state := o.bus.states[0]
		if len(o.bus.states) > 1 {
			o.bus.states = o.bus.states[1:]
		}
		return dbus.MakeVariant(state), nil
	}

	return dbus.Variant{}, errors.New("unknown property")
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		devices: map[dbus.ObjectPath]uint32{
			"/org/freedesktop/NetworkManager/Devices/1": 1,
			"/org/freedesktop/NetworkManager/Devices/2": NmDeviceTypeWifi,
		},
	}
}

func newTestNetwork(bus *fakeBus) *NMWNetwork {
	n := newNMWNetwork(bus)
	n.pollInterval = time.Millisecond
	return n
}

// =============================================================================
// Tests
// =============================================================================

func TestConnectActivates(t *testing.T) {
	bus := newFakeBus()
	bus.states = []uint32{1, 1, NmActiveConnectionStateActivated}

	err := newTestNetwork(bus).Connect(context.Background(), Credential{ID: "home", Secret: "hunter22"})
	require.NoError(t, err)

	assert.Equal(t, []byte("home"), bus.settings["802-11-wireless"]["ssid"].Value())
	assert.Equal(t, "hunter22", bus.settings["802-11-wireless-security"]["psk"].Value())
	assert.NotContains(t, bus.calls, NetworkManagerDeactivateConnection)
}

func TestConnectDeactivatesOnFailure(t *testing.T) {
	t.Run("activation ends deactivated", func(t *testing.T) {
		bus := newFakeBus()
		bus.states = []uint32{1, NmActiveConnectionStateDeactivated}

		err := newTestNetwork(bus).Connect(context.Background(), Credential{ID: "home"})
		assert.ErrorIs(t, err, ErrActivationFailed)
		assert.Contains(t, bus.calls, NetworkManagerDeactivateConnection)
	})

	t.Run("attempt times out", func(t *testing.T) {
		bus := newFakeBus()
		bus.states = []uint32{1}

		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*20)
		defer cancel()

		err := newTestNetwork(bus).Connect(ctx, Credential{ID: "home"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, bus.calls, NetworkManagerDeactivateConnection)
	})

	t.Run("activation is rejected", func(t *testing.T) {
		bus := newFakeBus()
		bus.activateErr = errors.New("802-11-wireless-security.psk: property is invalid")

		err := newTestNetwork(bus).Connect(context.Background(), Credential{ID: "home", Secret: "x"})
		assert.Error(t, err)
		assert.NotContains(t, bus.calls, NetworkManagerDeactivateConnection)
	})
}

func TestConnectWithoutWirelessDevice(t *testing.T) {
	bus := newFakeBus()
	bus.devices = map[dbus.ObjectPath]uint32{"/org/freedesktop/NetworkManager/Devices/1": 1}

	err := newTestNetwork(bus).Connect(context.Background(), Credential{ID: "home"})
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestNewConnectionSettings(t *testing.T) {
	t.Run("open network has no security section", func(t *testing.T) {
		settings := newConnectionSettings(Credential{ID: "cafe"})
		_, ok := settings["802-11-wireless-security"]
		assert.False(t, ok)
		assert.Equal(t, "moonclock-cafe", settings["connection"]["id"].Value())
	})

	t.Run("protected network uses wpa-psk", func(t *testing.T) {
		settings := newConnectionSettings(Credential{ID: "home", Secret: "pw"})
		assert.Equal(t, "wpa-psk", settings["802-11-wireless-security"]["key-mgmt"].Value())
	})
}
