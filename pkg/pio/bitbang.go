package pio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// BitBangSink is a SignalSink that drives the panel lines directly through
// the GPIO character device. Far too slow for high refresh rates, but it
// needs no PIO or DMA block and is the bring-up path on boards where those
// are unavailable.
type BitBangSink struct {
	chip *gpiocdev.Chip

	data [6]*gpiocdev.Line // R1 G1 B1 R2 G2 B2
	addr [5]*gpiocdev.Line // A B C D E
	clk  *gpiocdev.Line
	lat  *gpiocdev.Line
	oe   *gpiocdev.Line

	// tick is the unit the output-enable hold is measured in.
	tick time.Duration
}

// NewBitBangSink claims all fourteen lines as outputs. tick sets the
// duration of one output-enable hold unit.
func NewBitBangSink(chipName string, pins Pins, tick time.Duration) (*BitBangSink, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", chipName, err)
	}

	s := &BitBangSink{chip: chip, tick: tick}

	request := func(offset int) (*gpiocdev.Line, error) {
		return chip.RequestLine(offset, gpiocdev.AsOutput(0))
	}

	dataPins := [6]int{pins.R1, pins.G1, pins.B1, pins.R2, pins.G2, pins.B2}
	for i, offset := range dataPins {
		if s.data[i], err = request(offset); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to claim data line %d: %v", offset, err)
		}
	}
	addrPins := [5]int{pins.A, pins.B, pins.C, pins.D, pins.E}
	for i, offset := range addrPins {
		if s.addr[i], err = request(offset); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to claim address line %d: %v", offset, err)
		}
	}
	if s.clk, err = request(pins.Clk); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to claim clock line: %v", err)
	}
	if s.lat, err = request(pins.Lat); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to claim latch line: %v", err)
	}
	if s.oe, err = request(pins.OE); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to claim output-enable line: %v", err)
	}

	// Output disabled until the first hold.
	s.oe.SetValue(1)

	return s, nil
}

// ClockColumn implements SignalSink.
func (s *BitBangSink) ClockColumn(bits uint8) {
	for i, line := range s.data {
		line.SetValue(int(bits >> uint(i) & 1))
	}
	s.clk.SetValue(1)
	s.clk.SetValue(0)
}

// SetRowAddress implements SignalSink.
func (s *BitBangSink) SetRowAddress(addr uint8) {
	for i, line := range s.addr {
		line.SetValue(int(addr >> uint(i) & 1))
	}
}

// Latch implements SignalSink.
func (s *BitBangSink) Latch() {
	s.lat.SetValue(1)
	s.lat.SetValue(0)
}

// OutputEnable implements SignalSink. Output-enable is active low.
func (s *BitBangSink) OutputEnable(ticks uint32) {
	s.oe.SetValue(0)
	time.Sleep(time.Duration(ticks) * s.tick)
	s.oe.SetValue(1)
}

// Close releases all claimed lines.
func (s *BitBangSink) Close() error {
	for _, line := range s.data {
		if line != nil {
			line.Close()
		}
	}
	for _, line := range s.addr {
		if line != nil {
			line.Close()
		}
	}
	for _, line := range []*gpiocdev.Line{s.clk, s.lat, s.oe} {
		if line != nil {
			line.Close()
		}
	}
	if s.chip != nil {
		s.chip.Close()
		s.chip = nil
	}
	return nil
}
