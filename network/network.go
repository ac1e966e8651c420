package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

// Credential is a pre-shared network credential. The position of a credential
// in the list handed to the connectivity manager is its priority.
type Credential struct {
	ID     string // network name (SSID)
	Secret string // passphrase, empty for open networks
}

func (c Credential) String() string {
	return c.ID
}

// Connector performs a single connection attempt. The attempt must give up
// once ctx is done.
type Connector interface {
	Connect(ctx context.Context, credential Credential) error
}

const IPv4RegExp = `^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`

var ErrDeviceNotFound = errors.New("device not found")
var ErrActivationFailed = errors.New("connection activation failed")

type Ipv4Address struct {
	InterfaceName string `json:"interfaceName"`
	Ip            string `json:"ip"`
}

func GetIPv4Addresses() ([]Ipv4Address, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	ipv4regex, err := regexp.Compile(IPv4RegExp)
	if err != nil {
		return nil, err
	}

	var networks []Ipv4Address
	for _, i := range ifaces {
		addrs, err := i.Addrs()
		if err != nil {
			return nil, err
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}

			ipString := fmt.Sprintf("%v", ip)
			match := ipv4regex.MatchString(ipString)
			isLoopbackIp := ipString == "127.0.0.1" || ipString == "0.0.0.0"
			isDockerInterface := strings.Contains(i.Name, "docker")

			if match && !isLoopbackIp && !isDockerInterface {
				networks = append(networks, Ipv4Address{InterfaceName: i.Name, Ip: ipString})
			}
		}
	}

	return networks, nil
}

// GetHardwareAddresses lists the MAC addresses of all non-loopback interfaces.
func GetHardwareAddresses() (map[string]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	macs := make(map[string]string)
	for _, i := range ifaces {
		if i.Flags&net.FlagLoopback != 0 || len(i.HardwareAddr) == 0 {
			continue
		}
		macs[i.Name] = i.HardwareAddr.String()
	}

	return macs, nil
}
