package hub75

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mclarke/hub75-matrix/pkg/memory"
	"github.com/mclarke/hub75-matrix/pkg/pixel"
)

func testConfig() Config {
	return Config{
		PWMBits:      2,
		Brightness:   255,
		ChannelOrder: memory.OrderRGB,
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		geom    memory.Geometry
		cfg     Config
		wantErr bool
	}{
		{"valid", memory.Geometry{Width: 4, Height: 4, ColorBits: 2}, testConfig(), false},
		{"zero pwm bits", memory.Geometry{Width: 4, Height: 4, ColorBits: 2}, Config{Brightness: 255}, true},
		{"pwm bits too large", memory.Geometry{Width: 4, Height: 4, ColorBits: 9}, Config{PWMBits: 9}, true},
		{"bits mismatch", memory.Geometry{Width: 4, Height: 4, ColorBits: 4}, testConfig(), true},
		{"bad geometry", memory.Geometry{Width: 0, Height: 4, ColorBits: 2}, testConfig(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.geom, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetConfig(t *testing.T) {
	d, err := New(memory.Geometry{Width: 4, Height: 4, ColorBits: 2}, testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cfg := d.Config()
	cfg.Brightness = 100
	if err := d.SetConfig(cfg); err != nil {
		t.Errorf("SetConfig() brightness change error = %v", err)
	}
	if d.Config().Brightness != 100 {
		t.Errorf("Brightness = %d after SetConfig, want 100", d.Config().Brightness)
	}

	cfg.PWMBits = 4
	if err := d.SetConfig(cfg); err == nil {
		t.Error("SetConfig() with changed PWMBits did not return error")
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.validate(); err != nil {
		t.Errorf("DefaultConfig() does not validate: %v", err)
	}
}

func TestSize(t *testing.T) {
	d, err := New(memory.Geometry{Width: 8, Height: 4, ColorBits: 2}, testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w, h := d.Size()
	if w != 8 || h != 4 {
		t.Errorf("Size() = %dx%d, want 8x4", w, h)
	}
}

// countingSink counts signal edges; the software path test only needs to
// see a full frame flow through.
type countingSink struct {
	mu     sync.Mutex
	clocks int
	holds  int
	done   chan struct{}
	target int
}

func (s *countingSink) ClockColumn(bits uint8) {
	s.mu.Lock()
	s.clocks++
	s.mu.Unlock()
}
func (s *countingSink) SetRowAddress(addr uint8) {}
func (s *countingSink) Latch()                   {}
func (s *countingSink) OutputEnable(ticks uint32) {
	s.mu.Lock()
	s.holds++
	if s.holds == s.target {
		close(s.done)
	}
	s.mu.Unlock()
}

func TestRunSoftwareDeliversFrames(t *testing.T) {
	d, err := New(memory.Geometry{Width: 4, Height: 4, ColorBits: 2}, testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	d.SetPixel(0, 0, pixel.Red)
	d.Commit()

	// One frame is 2 rows x 2 planes = 4 holds.
	sink := &countingSink{done: make(chan struct{}), target: 4}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	finished := make(chan error, 1)
	go func() { finished <- d.RunSoftware(ctx, sink) }()

	select {
	case <-sink.done:
	case <-time.After(time.Second):
		t.Fatal("software engine did not complete a frame")
	}

	cancel()
	select {
	case err := <-finished:
		if err != context.Canceled {
			t.Errorf("RunSoftware() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunSoftware() did not return after cancel")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.clocks < 16 {
		t.Errorf("clocked %d columns, want at least one frame of 16", sink.clocks)
	}
}
