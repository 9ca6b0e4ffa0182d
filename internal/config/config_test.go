package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mclarke/hub75-matrix/pkg/memory"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Display.Width != 64 || cfg.Display.Height != 64 {
		t.Errorf("default geometry = %dx%d, want 64x64", cfg.Display.Width, cfg.Display.Height)
	}
	if cfg.Display.PWMBits != 6 {
		t.Errorf("default pwm bits = %d, want 6", cfg.Display.PWMBits)
	}
	if _, err := cfg.DriverConfig(); err != nil {
		t.Errorf("DefaultConfig() does not produce a valid driver config: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"display": {
			"width": 32,
			"height": 32,
			"pwm_bits": 4,
			"brightness": 128,
			"gamma": false,
			"channel_order": "rgb",
			"refresh_rate": 100
		},
		"pins": {"chip": "gpiochip4"}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Display.Width != 32 || cfg.Display.PWMBits != 4 {
		t.Errorf("loaded display = %+v", cfg.Display)
	}
	if cfg.Pins.Chip != "gpiochip4" {
		t.Errorf("loaded chip = %q, want gpiochip4", cfg.Pins.Chip)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Heartbeat.LED != "GPIO25" {
		t.Errorf("heartbeat LED = %q, want default GPIO25", cfg.Heartbeat.LED)
	}

	geom := cfg.Geometry()
	want := memory.Geometry{Width: 32, Height: 32, ColorBits: 4}
	if geom != want {
		t.Errorf("Geometry() = %+v, want %+v", geom, want)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if !os.IsNotExist(err) {
		t.Errorf("LoadConfig() on missing file = %v, want not-exist error", err)
	}
}

func TestLoadConfigBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() with malformed JSON did not return error")
	}
}

func TestDriverConfigChannelOrder(t *testing.T) {
	tests := []struct {
		order   string
		want    memory.ChannelOrder
		wantErr bool
	}{
		{"", memory.OrderRGB, false},
		{"rgb", memory.OrderRGB, false},
		{"gbr", memory.OrderGBR, false},
		{"bgr", 0, true},
	}

	for _, tt := range tests {
		t.Run("order "+tt.order, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Display.ChannelOrder = tt.order
			dc, err := cfg.DriverConfig()
			if (err != nil) != tt.wantErr {
				t.Fatalf("DriverConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && dc.ChannelOrder != tt.want {
				t.Errorf("ChannelOrder = %d, want %d", dc.ChannelOrder, tt.want)
			}
		})
	}
}

func TestDriverConfigBrightnessRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Display.Brightness = 300
	if _, err := cfg.DriverConfig(); err == nil {
		t.Error("DriverConfig() with brightness 300 did not return error")
	}
}
