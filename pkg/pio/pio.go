// Package pio drives the three hardware sequencers that turn streamed bytes
// into HUB75 signal edges: a data/clock sequencer, a row-address/latch
// sequencer and an output-enable timing sequencer. The sequencers
// coordinate through four one-shot flags and never share memory. A software
// rendition with identical handshake semantics lives in sequencer.go.
package pio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"github.com/mclarke/hub75-matrix/pkg/mmap"
)

const (
	// PIO block register window.
	PIOBaseAddr = 0x50200000
	PIOMemSize  = 0x1000

	// Block-wide registers.
	regCtrl   = 0x000
	regFstat  = 0x004
	regFdebug = 0x008

	// TX FIFO ports, one per state machine.
	regTxF0 = 0x010
	txfStep = 0x004

	// Shared instruction memory, 32 slots.
	regInstrMem = 0x048

	// Per-state-machine configuration, stride 0x18.
	regSM0ClkDiv    = 0x0c8
	regSM0ExecCtrl  = 0x0cc
	regSM0ShiftCtrl = 0x0d0
	regSM0PinCtrl   = 0x0dc
	smStride        = 0x018

	// State machine assignment.
	DataSM = 0
	RowSM  = 1
	OESM   = 2

	// EXECCTRL fields. SIDE_EN stays clear: all three programs side-set
	// on every instruction.
	execWrapBottom = 7
	execWrapTop    = 12

	// SHIFTCTRL fields.
	shiftAutoPull    = 17
	shiftOutDirRight = 19
	shiftPullThresh  = 25
	shiftFJoinTx     = 30

	// PINCTRL fields.
	pinOutBase      = 0
	pinSidesetBase  = 10
	pinOutCount     = 20
	pinSidesetCount = 29
)

// Pins names the GPIO line offsets of the fourteen HUB75 signals. The
// sequencers address their out pins as base-plus-count groups, so the six
// data lines must be consecutive GPIOs in R1,G1,B1,R2,G2,B2 order and the
// five address lines consecutive in A..E order. The side-set lines (Clk,
// Lat, OE) are independent.
type Pins struct {
	R1, G1, B1    int // color data, top half
	R2, G2, B2    int // color data, bottom half
	A, B, C, D, E int // row address
	Clk, Lat, OE  int
}

// DefaultPins is the default header wiring, with each out group on a
// consecutive GPIO run.
var DefaultPins = Pins{
	R1: 6, G1: 7, B1: 8,
	R2: 9, G2: 10, B2: 11,
	A: 12, B: 13, C: 14, D: 15, E: 16,
	Clk: 17, Lat: 18, OE: 19,
}

func (p Pins) validate() error {
	data := []int{p.R1, p.G1, p.B1, p.R2, p.G2, p.B2}
	for i := 1; i < len(data); i++ {
		if data[i] != data[0]+i {
			return fmt.Errorf("data lines must be consecutive GPIOs from R1, got %v", data)
		}
	}
	addr := []int{p.A, p.B, p.C, p.D, p.E}
	for i := 1; i < len(addr); i++ {
		if addr[i] != addr[0]+i {
			return fmt.Errorf("address lines must be consecutive GPIOs from A, got %v", addr)
		}
	}
	return nil
}

// StateMachines owns the configured sequencer block. The GPIO lines are
// claimed for the lifetime of the block so nothing else can drive them.
type StateMachines struct {
	regs  *mmap.MemoryMap
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
	mu    sync.Mutex
}

// Setup loads the three programs, configures all state machines and pushes
// their start-up parameters. The sequencers are left stopped; call Start
// after the transfer engine is configured. width, activeRows and colorBits
// must match the display memory geometry — they are loaded once and never
// reread, so changing bit depth means restarting the block.
func Setup(regs *mmap.MemoryMap, chipName string, pins Pins, width, activeRows, colorBits int) (*StateMachines, error) {
	if err := pins.validate(); err != nil {
		return nil, err
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", chipName, err)
	}

	sm := &StateMachines{regs: regs, chip: chip}
	if err := sm.claimPins(pins); err != nil {
		sm.Close()
		return nil, err
	}

	// Program layout in the shared instruction memory.
	dataOrigin := uint8(0)
	rowOrigin := dataOrigin + uint8(len(DataProgram.Instructions))
	oeOrigin := rowOrigin + uint8(len(RowProgram.Instructions))

	sm.loadProgram(DataProgram, dataOrigin)
	sm.loadProgram(RowProgram, rowOrigin)
	sm.loadProgram(OEProgram, oeOrigin)

	// Data sequencer: six out pins (color), clock on side-set, autopull
	// with the TX FIFO joined for depth.
	sm.configSM(DataSM, DataProgram, dataOrigin, smConfig{
		outBase: pins.R1, outCount: 6,
		sidesetBase: pins.Clk,
		autoPull:    true, fifoJoinTx: true,
	})

	// Row sequencer: five out pins (address), latch on side-set.
	sm.configSM(RowSM, RowProgram, rowOrigin, smConfig{
		outBase: pins.A, outCount: 5,
		sidesetBase: pins.Lat,
	})

	// Output-enable sequencer: no out pins, OE on side-set, autopull for
	// the delay stream.
	sm.configSM(OESM, OEProgram, oeOrigin, smConfig{
		sidesetBase: pins.OE,
		autoPull:    true, fifoJoinTx: true,
	})

	// Start-up parameters, consumed by the programs' initial pulls.
	sm.push(DataSM, uint32(width-1))
	sm.push(RowSM, uint32(activeRows-1))
	sm.push(RowSM, uint32(colorBits-1))

	return sm, nil
}

// smConfig is the per-state-machine pin and shift setup.
type smConfig struct {
	outBase     int
	outCount    int
	sidesetBase int
	autoPull    bool
	fifoJoinTx  bool
}

func (s *StateMachines) claimPins(pins Pins) error {
	all := []int{
		pins.R1, pins.G1, pins.B1, pins.R2, pins.G2, pins.B2,
		pins.A, pins.B, pins.C, pins.D, pins.E,
		pins.Clk, pins.Lat, pins.OE,
	}
	for _, offset := range all {
		line, err := s.chip.RequestLine(offset, gpiocdev.AsOutput(0))
		if err != nil {
			return fmt.Errorf("failed to claim line %d: %v", offset, err)
		}
		s.lines = append(s.lines, line)
	}
	return nil
}

func (s *StateMachines) loadProgram(p Program, origin uint8) {
	for i, instr := range Relocate(p, origin) {
		s.regs.Write32(regInstrMem+uintptr(int(origin)+i)*4, uint32(instr))
	}
}

func (s *StateMachines) configSM(n int, p Program, origin uint8, cfg smConfig) {
	base := uintptr(n) * smStride

	s.regs.Write32(regSM0ClkDiv+base, p.ClkDiv)

	exec := uint32(origin+p.WrapBottom)<<execWrapBottom |
		uint32(origin+p.WrapTop)<<execWrapTop
	s.regs.Write32(regSM0ExecCtrl+base, exec)

	shift := uint32(1) << shiftOutDirRight // shift right, LSB first
	if cfg.autoPull {
		shift |= 1 << shiftAutoPull // threshold 32 encodes as 0
	}
	if cfg.fifoJoinTx {
		shift |= 1 << shiftFJoinTx
	}
	s.regs.Write32(regSM0ShiftCtrl+base, shift)

	pinctrl := uint32(cfg.outBase)<<pinOutBase |
		uint32(cfg.outCount)<<pinOutCount |
		uint32(cfg.sidesetBase)<<pinSidesetBase |
		uint32(1)<<pinSidesetCount
	s.regs.Write32(regSM0PinCtrl+base, pinctrl)
}

// push writes one word into a state machine's TX FIFO.
func (s *StateMachines) push(n int, value uint32) {
	s.regs.Write32(regTxF0+uintptr(n)*txfStep, value)
}

// TxFIFOAddr returns the physical address of a state machine's TX FIFO
// port, for programming the transfer engine's write address.
func TxFIFOAddr(n int) uint32 {
	return uint32(PIOBaseAddr + regTxF0 + n*txfStep)
}

// Start enables all three sequencers in one control write so they come up
// in lockstep. Once running they are autonomous and are not designed to be
// stopped during normal operation.
func (s *StateMachines) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs.Write32(regCtrl, 1<<DataSM|1<<RowSM|1<<OESM)
}

// Stop disables the sequencers. Only useful for bring-up and bit-depth
// reconfiguration; the production path never calls it.
func (s *StateMachines) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs.Write32(regCtrl, 0)
}

// Close stops the block and releases the GPIO lines.
func (s *StateMachines) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range s.lines {
		line.Close()
	}
	s.lines = nil

	if s.chip != nil {
		s.chip.Close()
		s.chip = nil
	}
	return nil
}
