package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mclarke/hub75-matrix/internal/types"
	"github.com/mclarke/hub75-matrix/pkg/hub75"
	"github.com/mclarke/hub75-matrix/pkg/memory"
	"github.com/mclarke/hub75-matrix/pkg/pio"
)

// Config is the application configuration.
type Config struct {
	Display   types.DisplayConfig   `json:"display"`
	Pins      types.PinConfig       `json:"pins"`
	Heartbeat types.HeartbeatConfig `json:"heartbeat"`
}

// LoadConfig loads the configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := DefaultConfig()
	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the configuration for a standard 64x64 panel on the
// default header wiring.
func DefaultConfig() *Config {
	return &Config{
		Display: types.DisplayConfig{
			Width:         memory.DefaultWidth,
			Height:        memory.DefaultHeight,
			PWMBits:       6,
			Brightness:    255,
			Gamma:         true,
			RowStepTimeUs: 1,
			ChannelOrder:  "gbr",
			RefreshRate:   50,
		},
		Pins: types.PinConfig{
			Chip: "gpiochip0",
			R1:   pio.DefaultPins.R1,
			G1:   pio.DefaultPins.G1,
			B1:   pio.DefaultPins.B1,
			R2:   pio.DefaultPins.R2,
			G2:   pio.DefaultPins.G2,
			B2:   pio.DefaultPins.B2,
			A:    pio.DefaultPins.A,
			B:    pio.DefaultPins.B,
			C:    pio.DefaultPins.C,
			D:    pio.DefaultPins.D,
			E:    pio.DefaultPins.E,
			Clk:  pio.DefaultPins.Clk,
			Lat:  pio.DefaultPins.Lat,
			OE:   pio.DefaultPins.OE,
		},
		Heartbeat: types.HeartbeatConfig{
			LED:      "GPIO25",
			PeriodMs: 500,
		},
	}
}

// Geometry converts the display section into a panel geometry.
func (c *Config) Geometry() memory.Geometry {
	return memory.Geometry{
		Width:     c.Display.Width,
		Height:    c.Display.Height,
		ColorBits: c.Display.PWMBits,
	}
}

// DriverConfig converts the display section into a driver configuration.
func (c *Config) DriverConfig() (hub75.Config, error) {
	var order memory.ChannelOrder
	switch c.Display.ChannelOrder {
	case "", "rgb":
		order = memory.OrderRGB
	case "gbr":
		order = memory.OrderGBR
	default:
		return hub75.Config{}, fmt.Errorf("unknown channel order %q", c.Display.ChannelOrder)
	}
	if c.Display.Brightness < 0 || c.Display.Brightness > 255 {
		return hub75.Config{}, fmt.Errorf("brightness must be between 0 and 255, got %d", c.Display.Brightness)
	}
	return hub75.Config{
		PWMBits:            uint8(c.Display.PWMBits),
		Brightness:         uint8(c.Display.Brightness),
		UseGammaCorrection: c.Display.Gamma,
		RowStepTimeUs:      uint32(c.Display.RowStepTimeUs),
		ChannelOrder:       order,
	}, nil
}

// PIOPins converts the pin section into the sequencer pin assignment.
func (c *Config) PIOPins() pio.Pins {
	return pio.Pins{
		R1: c.Pins.R1, G1: c.Pins.G1, B1: c.Pins.B1,
		R2: c.Pins.R2, G2: c.Pins.G2, B2: c.Pins.B2,
		A: c.Pins.A, B: c.Pins.B, C: c.Pins.C,
		D: c.Pins.D, E: c.Pins.E,
		Clk: c.Pins.Clk, Lat: c.Pins.Lat, OE: c.Pins.OE,
	}
}
