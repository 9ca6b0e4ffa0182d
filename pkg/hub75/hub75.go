// Package hub75 is the driver facade: it validates the configuration,
// builds the color correction tables and display memory, and wires the
// transfer engine to the sequencers. Content generators only ever see
// SetPixel, Clear and Commit.
package hub75

import (
	"context"
	"fmt"

	"github.com/mclarke/hub75-matrix/pkg/dma"
	"github.com/mclarke/hub75-matrix/pkg/lut"
	"github.com/mclarke/hub75-matrix/pkg/memory"
	"github.com/mclarke/hub75-matrix/pkg/mmap"
	"github.com/mclarke/hub75-matrix/pkg/pio"
	"github.com/mclarke/hub75-matrix/pkg/pixel"
)

// Config is the immutable-after-apply driver configuration. Changing it
// rebuilds the correction tables; changing PWMBits additionally requires
// restarting the output engine, which loads its plane count once.
type Config struct {
	PWMBits            uint8  // bit planes per channel, 1-8
	Brightness         uint8  // global brightness, 0-255
	UseGammaCorrection bool
	RowStepTimeUs      uint32 // tick length for bit-banged sinks
	ChannelOrder       memory.ChannelOrder
}

// DefaultConfig mirrors the values the panels ship calibrated for.
func DefaultConfig() Config {
	return Config{
		PWMBits:            6,
		Brightness:         255,
		UseGammaCorrection: true,
		RowStepTimeUs:      1,
		ChannelOrder:       memory.OrderGBR,
	}
}

func (c Config) validate() error {
	if c.PWMBits < 1 || c.PWMBits > 8 {
		return fmt.Errorf("pwm bits must be between 1 and 8, got %d", c.PWMBits)
	}
	return nil
}

func (c Config) lutOptions() lut.Options {
	return lut.Options{
		PWMBits:    c.PWMBits,
		Brightness: c.Brightness,
		UseGamma:   c.UseGammaCorrection,
	}
}

// Driver owns the display memory and correction tables and exposes the
// pixel-write contract. Hardware or software output engines are attached
// separately via Start or RunSoftware.
type Driver struct {
	cfg    Config
	tables *lut.Tables
	mem    *memory.DisplayMemory

	pioRegs *mmap.MemoryMap
	dmaRegs *mmap.MemoryMap
	sms     *pio.StateMachines
}

// New builds a driver for the given panel geometry. The display memory is
// attached immediately: by the time New returns, the engine-visible
// pointers are bound and the transfer engine may be configured.
func New(geom memory.Geometry, cfg Config) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if geom.ColorBits != int(cfg.PWMBits) {
		return nil, fmt.Errorf("geometry color bits %d does not match pwm bits %d", geom.ColorBits, cfg.PWMBits)
	}

	tables := lut.NewTables(cfg.lutOptions())
	mem, err := memory.New(geom, tables, cfg.ChannelOrder)
	if err != nil {
		return nil, err
	}
	mem.Attach()

	return &Driver{cfg: cfg, tables: tables, mem: mem}, nil
}

// SetConfig applies a new configuration, synchronously rebuilding the
// correction tables. Not safe to call concurrently with SetPixel. A change
// of PWMBits is rejected here because the delay table and sequencer loop
// bounds are sized at construction.
func (d *Driver) SetConfig(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if cfg.PWMBits != d.cfg.PWMBits {
		return fmt.Errorf("cannot change pwm bits at runtime, rebuild the driver")
	}
	d.cfg = cfg
	d.tables.Rebuild(cfg.lutOptions())
	return nil
}

// Config returns the current configuration.
func (d *Driver) Config() Config { return d.cfg }

// Size returns the logical canvas dimensions.
func (d *Driver) Size() (width, height int) {
	g := d.mem.Geometry()
	return g.Width, g.Height
}

// SetPixel writes one pixel into the draw buffer. Out-of-range coordinates
// are ignored. Render-domain only.
func (d *Driver) SetPixel(x, y int, c pixel.RGB565) {
	d.mem.SetPixel(x, y, c)
}

// Clear zero-fills the draw buffer.
func (d *Driver) Clear() {
	d.mem.Clear()
}

// Commit publishes the draw buffer to the output engine. Non-blocking; the
// frame appears on the next scan pass. If Commit outruns the panel refresh,
// intermediate frames are dropped, never queued.
func (d *Driver) Commit() {
	d.mem.Commit()
}

// Memory exposes the display memory for engine wiring and tests.
func (d *Driver) Memory() *memory.DisplayMemory { return d.mem }

// Start brings up the hardware output engine: maps the PIO and DMA register
// windows, loads the sequencer programs, configures the chained transfer
// channels and starts the scan. After Start the panel refreshes forever
// with no further processor involvement.
func (d *Driver) Start(chipName string, pins pio.Pins) error {
	geom := d.mem.Geometry()

	pioRegs, err := mmap.New(pio.PIOBaseAddr, pio.PIOMemSize)
	if err != nil {
		return fmt.Errorf("failed to map PIO registers: %v", err)
	}
	dmaRegs, err := mmap.New(dma.DMABaseAddr, dma.DMAMemSize)
	if err != nil {
		pioRegs.Close()
		return fmt.Errorf("failed to map DMA registers: %v", err)
	}

	sms, err := pio.Setup(pioRegs, chipName, pins, geom.Width, geom.ActiveRows(), geom.ColorBits)
	if err != nil {
		dmaRegs.Close()
		pioRegs.Close()
		return fmt.Errorf("failed to set up sequencers: %v", err)
	}

	if _, err := dma.Configure(dmaRegs, d.mem, pio.TxFIFOAddr(pio.DataSM), pio.TxFIFOAddr(pio.OESM)); err != nil {
		sms.Close()
		dmaRegs.Close()
		pioRegs.Close()
		return fmt.Errorf("failed to configure transfer engine: %v", err)
	}

	sms.Start()

	d.pioRegs = pioRegs
	d.dmaRegs = dmaRegs
	d.sms = sms
	return nil
}

// RunSoftware drives the panel with the software engine and sequencers,
// emitting signal edges into the given sink. Blocks until the context is
// cancelled. Used off target, in tests, and for panels reached only by
// bit-banged GPIO.
func (d *Driver) RunSoftware(ctx context.Context, sink pio.SignalSink) error {
	geom := d.mem.Geometry()

	seq, err := pio.NewSequencers(geom.Width, geom.ActiveRows(), geom.ColorBits, sink)
	if err != nil {
		return err
	}
	engine := dma.NewEngine(d.mem, seq.DataFIFO(), seq.DelayFIFO())

	done := make(chan error, 2)
	go func() { done <- seq.Run(ctx) }()
	go func() { done <- engine.Run(ctx) }()
	<-done
	return ctx.Err()
}

// Close releases the hardware handles if Start was called.
func (d *Driver) Close() error {
	if d.sms != nil {
		d.sms.Close()
		d.sms = nil
	}
	if d.dmaRegs != nil {
		d.dmaRegs.Close()
		d.dmaRegs = nil
	}
	if d.pioRegs != nil {
		d.pioRegs.Close()
		d.pioRegs = nil
	}
	return nil
}
