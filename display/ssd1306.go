package display

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// Options describe the panel bank wiring.
type Options struct {
	Bus             string `yaml:"bus"`
	MuxAddress      uint16 `yaml:"mux_address"`
	Panels          int    `yaml:"panels"`
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`
	ColumnsPerPanel int    `yaml:"columns_per_panel"`
	FrequencyKHz    int    `yaml:"frequency_khz"`
}

func DefaultOptions() Options {
	return Options{
		MuxAddress:      0x70,
		Panels:          5,
		Width:           128,
		Height:          64,
		ColumnsPerPanel: 2,
		FrequencyKHz:    1400,
	}
}

// MuxBus routes every transaction through one channel of a TCA9548A I2C
// multiplexer, so identical panels can share the same address.
type MuxBus struct {
	Bus        i2c.Bus
	MuxAddress uint16
	Channel    uint8
}

func (m *MuxBus) String() string {
	return fmt.Sprintf("%s/tca9548a@%#x/%d", m.Bus, m.MuxAddress, m.Channel)
}

func (m *MuxBus) Tx(addr uint16, w, r []byte) error {
	err := m.Bus.Tx(m.MuxAddress, []byte{1 << m.Channel}, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to select mux channel %d", m.Channel)
	}

	return m.Bus.Tx(addr, w, r)
}

func (m *MuxBus) SetSpeed(f physic.Frequency) error {
	return m.Bus.SetSpeed(f)
}

// OpenSSD1306 initializes the host drivers, opens the I2C bus and one SSD1306
// panel per multiplexer channel.
func OpenSSD1306(opts Options) (*Bank, io.Closer, error) {
	_, err := host.Init()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize periph host drivers")
	}

	bus, err := i2creg.Open(opts.Bus)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open i2c bus %q", opts.Bus)
	}

	if opts.FrequencyKHz > 0 {
		err = bus.SetSpeed(physic.Frequency(opts.FrequencyKHz) * physic.KiloHertz)
		if err != nil {
			log.Warn().Err(err).Msgf("failed to set i2c bus speed to %dkHz, keeping default", opts.FrequencyKHz)
		}
	}

	panels := make([]Panel, opts.Panels)
	for i := range panels {
		devOpts := ssd1306.DefaultOpts
		devOpts.W = opts.Width
		devOpts.H = opts.Height

		dev, err := ssd1306.NewI2C(&MuxBus{Bus: bus, MuxAddress: opts.MuxAddress, Channel: uint8(i)}, &devOpts)
		if err != nil {
			bus.Close()
			return nil, nil, errors.Wrapf(err, "failed to initialize panel %d", i)
		}

		panels[i] = dev
	}

	log.Debug().Msgf("initialized %d ssd1306 panels on %s", len(panels), bus)

	return NewBank(panels, opts.ColumnsPerPanel), bus, nil
}
