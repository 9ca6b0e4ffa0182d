package pio

import (
	"context"
	"fmt"
)

// SignalSink receives the panel signal edges produced by the software
// sequencers. Implementations range from recording sinks in tests to
// bit-banged GPIO for panels without a usable PIO block.
type SignalSink interface {
	// ClockColumn puts six packed color bits on the data lines and pulses
	// the pixel clock once. Bit layout per half: bit0 red, bit1 green,
	// bit2 blue; bits [0..3) top half, [3..6) bottom half.
	ClockColumn(bits uint8)

	// SetRowAddress drives the five address lines. The value is already
	// inverted for the wiring polarity, as on the wire.
	SetRowAddress(addr uint8)

	// Latch pulses the latch line, transferring the shifted row into the
	// panel's output registers.
	Latch()

	// OutputEnable asserts the active-low output-enable line for the
	// given number of ticks, then deasserts it.
	OutputEnable(ticks uint32)
}

// Sequencers is the software rendition of the three-machine block. Each
// sequencer runs as its own goroutine; they coordinate exclusively over
// four one-shot signal channels that mirror the hardware flags:
//
//	rowData     data sequencer -> row sequencer  "row data ready"
//	rowAddrSet  row sequencer -> data sequencer  "shift the next row"
//	timingStart row sequencer -> OE sequencer    "latch happened"
//	timingDone  OE sequencer -> row sequencer    "hold elapsed"
//
// The double handshake lets the data sequencer shift row N+1 while the
// output-enable hold for row N is still running, exactly as on hardware.
type Sequencers struct {
	width      int
	activeRows int
	colorBits  int
	sink       SignalSink

	dataFIFO  chan uint32
	delayFIFO chan uint32
	rowFIFO   chan uint32

	rowData     chan struct{}
	rowAddrSet  chan struct{}
	timingStart chan struct{}
	timingDone  chan struct{}
}

// fifoDepth matches the joined hardware TX FIFO.
const fifoDepth = 8

// NewSequencers builds a sequencer block for the given geometry. The loop
// bounds are primed into the FIFOs here, before the caller can start any
// stream producer, mirroring the hardware start-up where Setup pushes them
// into the TX FIFOs before the transfer engine is configured. The
// parameters are loaded once at start and never reread; a bit-depth change
// requires a new block.
func NewSequencers(width, activeRows, colorBits int, sink SignalSink) (*Sequencers, error) {
	if width < 1 || activeRows < 1 || colorBits < 1 {
		return nil, fmt.Errorf("invalid sequencer geometry: width=%d rows=%d bits=%d", width, activeRows, colorBits)
	}
	s := &Sequencers{
		width:       width,
		activeRows:  activeRows,
		colorBits:   colorBits,
		sink:        sink,
		dataFIFO:    make(chan uint32, fifoDepth),
		delayFIFO:   make(chan uint32, fifoDepth),
		rowFIFO:     make(chan uint32, 2),
		rowData:     make(chan struct{}, 1),
		rowAddrSet:  make(chan struct{}, 1),
		timingStart: make(chan struct{}, 1),
		timingDone:  make(chan struct{}, 1),
	}
	s.dataFIFO <- uint32(width - 1)
	s.rowFIFO <- uint32(activeRows - 1)
	s.rowFIFO <- uint32(colorBits - 1)
	return s, nil
}

// DataFIFO is the data sequencer's input queue, fed by the transfer engine.
func (s *Sequencers) DataFIFO() chan<- uint32 { return s.dataFIFO }

// DelayFIFO is the output-enable sequencer's input queue.
func (s *Sequencers) DelayFIFO() chan<- uint32 { return s.delayFIFO }

// Run starts all three sequencers and blocks until the context is
// cancelled. The loop bounds were primed at construction and sit ahead of
// any stream data in the FIFOs.
func (s *Sequencers) Run(ctx context.Context) error {
	done := make(chan error, 3)
	go func() { done <- s.runData(ctx) }()
	go func() { done <- s.runRow(ctx) }()
	go func() { done <- s.runOE(ctx) }()
	<-done
	return ctx.Err()
}

// runData is the data sequencer: load-width, shift-column, await-next-row.
func (s *Sequencers) runData(ctx context.Context) error {
	width, err := s.pull(ctx, s.dataFIFO)
	if err != nil {
		return err
	}

	// Output shift register state: bytes are consumed LSB-first from
	// 32-bit FIFO words, four columns per word.
	var osr uint32
	var osrBits uint

	nextByte := func() (uint8, error) {
		if osrBits == 0 {
			w, err := s.pull(ctx, s.dataFIFO)
			if err != nil {
				return 0, err
			}
			osr, osrBits = w, 32
		}
		b := uint8(osr)
		osr >>= 8
		osrBits -= 8
		return b, nil
	}

	for {
		for col := uint32(0); col <= width; col++ {
			b, err := nextByte()
			if err != nil {
				return err
			}
			s.sink.ClockColumn(b & 0x3f)
		}
		if err := s.signal(ctx, s.rowData); err != nil {
			return err
		}
		if err := s.await(ctx, s.rowAddrSet); err != nil {
			return err
		}
	}
}

// runRow is the row sequencer: the nested (row, plane) loop with the double
// handshake.
func (s *Sequencers) runRow(ctx context.Context) error {
	rows, err := s.pull(ctx, s.rowFIFO)
	if err != nil {
		return err
	}
	bits, err := s.pull(ctx, s.rowFIFO)
	if err != nil {
		return err
	}

	for {
		for x := int32(rows); x >= 0; x-- {
			s.sink.SetRowAddress(uint8(^x) & 0x1f)
			for y := int32(bits); y >= 0; y-- {
				if err := s.await(ctx, s.rowData); err != nil {
					return err
				}
				s.sink.Latch()
				if err := s.signal(ctx, s.timingStart); err != nil {
					return err
				}
				if err := s.signal(ctx, s.rowAddrSet); err != nil {
					return err
				}
				if err := s.await(ctx, s.timingDone); err != nil {
					return err
				}
			}
		}
	}
}

// runOE is the output-enable sequencer: load-delay, await-start, hold,
// signal-done.
func (s *Sequencers) runOE(ctx context.Context) error {
	for {
		d, err := s.pull(ctx, s.delayFIFO)
		if err != nil {
			return err
		}
		if err := s.await(ctx, s.timingStart); err != nil {
			return err
		}
		// The hardware down-count loop runs d+1 times, so the LSB plane
		// (delay 0) still gets one tick of output.
		s.sink.OutputEnable(d + 1)
		if err := s.signal(ctx, s.timingDone); err != nil {
			return err
		}
	}
}

func (s *Sequencers) pull(ctx context.Context, fifo <-chan uint32) (uint32, error) {
	select {
	case v := <-fifo:
		return v, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (s *Sequencers) signal(ctx context.Context, flag chan<- struct{}) error {
	select {
	case flag <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sequencers) await(ctx context.Context, flag <-chan struct{}) error {
	select {
	case <-flag:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
