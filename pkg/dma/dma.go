// Package dma configures the chained transfer channels that stream display
// memory and BCM timing into the sequencer FIFOs. Four channels run in two
// pairs: a stream channel that copies a whole block per scan pass and a
// re-arm channel whose only job is to copy the current value of the source
// pointer variable back into the stream channel's read-address register.
// Because the re-arm channel reads the pointer variable, not a buffer, a
// buffer swap in display memory is picked up on the next pass with no
// reconfiguration and no processor involvement.
package dma

import (
	"fmt"
	"unsafe"

	"github.com/mclarke/hub75-matrix/pkg/memory"
	"github.com/mclarke/hub75-matrix/pkg/mmap"
)

const (
	// DMA block register window.
	DMABaseAddr = 0x50000000
	DMAMemSize  = 0x1000

	// Per-channel register offsets. Each channel occupies 0x40 bytes.
	ChannelStride = 0x040
	ReadAddr      = 0x000
	WriteAddr     = 0x004
	TransCount    = 0x008
	CtrlTrig      = 0x00c
	Al1Ctrl       = 0x010

	// Channel assignment.
	FBChannel     = 0 // framebuffer -> data sequencer FIFO
	FBLoopChannel = 1 // re-arms channel 0's read address
	OEChannel     = 2 // delay table -> output-enable sequencer FIFO
	OELoopChannel = 3 // re-arms channel 2's read address

	// TREQ selectors: pace transfers on sequencer FIFO data requests.
	TreqDataSM    = 0    // PIO0 SM0 TX
	TreqOESM      = 2    // PIO0 SM2 TX
	TreqPermanent = 0x3f // no pacing, transfer immediately

	// Transfer word sizes.
	SizeByte = 0
	SizeHalf = 1
	SizeWord = 2
)

// Ctrl is a channel control register value. The bit layout matches the
// channel CTRL_TRIG register of the DMA block.
type Ctrl uint32

// Control register bit positions.
const (
	ctrlEn       = 0
	ctrlDataSize = 2
	ctrlIncrRead = 4
	ctrlIncrWr   = 6
	ctrlChainTo  = 11
	ctrlTreqSel  = 17
	ctrlIrqQuiet = 23
)

// WithEnable sets the channel enable bit.
func (c Ctrl) WithEnable() Ctrl { return c | 1<<ctrlEn }

// WithDataSize selects the transfer width (SizeByte, SizeHalf, SizeWord).
func (c Ctrl) WithDataSize(size uint32) Ctrl { return c | Ctrl(size&0x3)<<ctrlDataSize }

// WithIncrRead makes the read address advance after each transfer.
func (c Ctrl) WithIncrRead() Ctrl { return c | 1<<ctrlIncrRead }

// WithIncrWrite makes the write address advance after each transfer.
func (c Ctrl) WithIncrWrite() Ctrl { return c | 1<<ctrlIncrWr }

// WithChainTo triggers the named channel when this one completes.
func (c Ctrl) WithChainTo(ch uint32) Ctrl { return c | Ctrl(ch&0xf)<<ctrlChainTo }

// WithTreqSel paces transfers on the given data request line.
func (c Ctrl) WithTreqSel(treq uint32) Ctrl { return c | Ctrl(treq&0x3f)<<ctrlTreqSel }

// WithIrqQuiet suppresses completion interrupts.
func (c Ctrl) WithIrqQuiet() Ctrl { return c | 1<<ctrlIrqQuiet }

// ChainTo reports the channel this control word chains to.
func (c Ctrl) ChainTo() uint32 { return uint32(c>>ctrlChainTo) & 0xf }

// Channels holds the register window the four transfer channels are
// programmed through.
type Channels struct {
	regs *mmap.MemoryMap
}

// Configure programs all four channels against the given display memory and
// starts the two stream channels. dataFIFOAddr and oeFIFOAddr are the
// physical addresses of the data and output-enable sequencer TX FIFOs.
// This is a static, fire-and-forget configuration: once the stream channels
// trigger, the pairs run forever without software servicing.
func Configure(regs *mmap.MemoryMap, mem *memory.DisplayMemory, dataFIFOAddr, oeFIFOAddr uint32) (*Channels, error) {
	if mem.ActiveBufferPtr() == nil {
		return nil, fmt.Errorf("display memory not attached")
	}

	c := &Channels{regs: regs}
	geom := mem.Geometry()

	// Pair A: framebuffer stream. The stream channel copies FrameSize/4
	// words into the data FIFO, then chains to the loop channel, which
	// copies the live value of the active-buffer pointer back into the
	// stream channel's read address and chains back.
	fbCtrl := Ctrl(0).
		WithIncrRead().
		WithDataSize(SizeWord).
		WithTreqSel(TreqDataSM).
		WithChainTo(FBLoopChannel).
		WithIrqQuiet().
		WithEnable()
	c.writeChannel(FBChannel, Al1Ctrl, uint32(fbCtrl))
	c.writeChannel(FBChannel, ReadAddr, uint32(uintptr(mem.ActiveBufferPtr())))
	c.writeChannel(FBChannel, WriteAddr, dataFIFOAddr)
	c.writeChannel(FBChannel, TransCount, uint32(geom.FrameSize()/4))

	fbLoopCtrl := Ctrl(0).
		WithDataSize(SizeWord).
		WithTreqSel(TreqPermanent).
		WithChainTo(FBChannel).
		WithIrqQuiet().
		WithEnable()
	c.writeChannel(FBLoopChannel, Al1Ctrl, uint32(fbLoopCtrl))
	c.writeChannel(FBLoopChannel, ReadAddr, uint32(uintptr(unsafe.Pointer(mem.FBPtrAddr()))))
	c.writeChannel(FBLoopChannel, WriteAddr, uint32(DMABaseAddr+FBChannel*ChannelStride+ReadAddr))
	c.writeChannel(FBLoopChannel, TransCount, 1)

	// Pair B: BCM delay stream, same structure, ColorBits words per pass.
	oeCtrl := Ctrl(0).
		WithIncrRead().
		WithDataSize(SizeWord).
		WithTreqSel(TreqOESM).
		WithChainTo(OELoopChannel).
		WithIrqQuiet().
		WithEnable()
	c.writeChannel(OEChannel, Al1Ctrl, uint32(oeCtrl))
	c.writeChannel(OEChannel, ReadAddr, uint32(uintptr(mem.DelayPtr())))
	c.writeChannel(OEChannel, WriteAddr, oeFIFOAddr)
	c.writeChannel(OEChannel, TransCount, uint32(geom.ColorBits))

	oeLoopCtrl := Ctrl(0).
		WithDataSize(SizeWord).
		WithTreqSel(TreqPermanent).
		WithChainTo(OEChannel).
		WithIrqQuiet().
		WithEnable()
	c.writeChannel(OELoopChannel, Al1Ctrl, uint32(oeLoopCtrl))
	c.writeChannel(OELoopChannel, ReadAddr, uint32(uintptr(unsafe.Pointer(mem.DelayPtrAddr()))))
	c.writeChannel(OELoopChannel, WriteAddr, uint32(DMABaseAddr+OEChannel*ChannelStride+ReadAddr))
	c.writeChannel(OELoopChannel, TransCount, 1)

	// Trigger both stream channels by rewriting CTRL through the trigger
	// alias. From here on the pairs are autonomous.
	c.regs.Write32(FBChannel*ChannelStride+CtrlTrig, uint32(fbCtrl))
	c.regs.Write32(OEChannel*ChannelStride+CtrlTrig, uint32(oeCtrl))

	return c, nil
}

func (c *Channels) writeChannel(ch int, reg uintptr, value uint32) {
	c.regs.Write32(uintptr(ch)*ChannelStride+reg, value)
}

func (c *Channels) readChannel(ch int, reg uintptr) uint32 {
	return c.regs.Read32(uintptr(ch)*ChannelStride + reg)
}

// Status is a snapshot of the stream channels for bring-up diagnostics.
type Status struct {
	FBTransCount uint32
	OETransCount uint32
	FBReadAddr   uint32
	OEReadAddr   uint32
}

// Status reads the live channel registers.
func (c *Channels) Status() Status {
	return Status{
		FBTransCount: c.readChannel(FBChannel, TransCount),
		OETransCount: c.readChannel(OEChannel, TransCount),
		FBReadAddr:   c.readChannel(FBChannel, ReadAddr),
		OEReadAddr:   c.readChannel(OEChannel, ReadAddr),
	}
}

// Healthy reports whether the stream channels look like they are cycling:
// remaining counts must be within one block of the configured lengths.
func (s Status) Healthy(geom memory.Geometry) bool {
	return s.FBTransCount <= uint32(geom.FrameSize()/4) &&
		s.OETransCount <= uint32(geom.ColorBits)
}
