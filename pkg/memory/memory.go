// Package memory owns the double-buffered, BCM-encoded display memory that
// the transfer engine scans. One buffer is active (read by hardware) while
// the other receives pixel writes; Commit republishes the active buffer as
// a single atomic pointer store, so the engine picks up a new frame on its
// next full scan pass without being reconfigured.
package memory

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/mclarke/hub75-matrix/pkg/lut"
	"github.com/mclarke/hub75-matrix/pkg/pixel"
)

// Default production panel geometry.
const (
	DefaultWidth     = 64
	DefaultHeight    = 64
	DefaultColorBits = 8
)

// Geometry describes a dual-scan panel. Height must be even: one row
// address selects a row in the top half and its partner in the bottom half
// simultaneously.
type Geometry struct {
	Width     int
	Height    int
	ColorBits int // bit planes per channel, 1-8
}

// ActiveRows is the number of addressable row pairs.
func (g Geometry) ActiveRows() int { return g.Height / 2 }

// FrameSize is the encoded size of one frame in bytes, laid out as
// [row][bit_plane][column].
func (g Geometry) FrameSize() int { return g.ActiveRows() * g.ColorBits * g.Width }

func (g Geometry) validate() error {
	if g.Width <= 0 || g.Height <= 0 || g.Height%2 != 0 {
		return fmt.Errorf("invalid panel geometry: %dx%d", g.Width, g.Height)
	}
	if g.ColorBits < 1 || g.ColorBits > 8 {
		return fmt.Errorf("color bits must be between 1 and 8, got %d", g.ColorBits)
	}
	if g.FrameSize()%4 != 0 {
		return fmt.Errorf("frame size %d is not a multiple of the transfer word size", g.FrameSize())
	}
	return nil
}

// ChannelOrder is the permutation applied to compensate for panels whose
// internal wiring routes the electrical R/G/B lines to different LED dies.
// It is a per-deployment calibration constant.
type ChannelOrder uint8

const (
	// OrderRGB passes channels straight through.
	OrderRGB ChannelOrder = iota
	// OrderGBR drives the green line with the red sample, the blue line
	// with the green sample and the red line with the blue sample.
	OrderGBR
)

// DisplayMemory is the double-buffered frame store. Each encoded byte packs
// one bit plane of one column for two physical pixels: bits [0..3) carry
// B,G,R for the top half, bits [3..6) for the bottom half.
//
// Construction is two-phase: New allocates the buffers but leaves the
// pointers the transfer engine dereferences unset, and Attach binds them
// once the instance has reached its permanent address. The split exists
// because the engine's re-arm channels embed the address of the pointer
// variable itself.
type DisplayMemory struct {
	geom   Geometry
	order  ChannelOrder
	tables *lut.Tables

	fb0 []byte
	fb1 []byte

	// delays holds the BCM output-enable durations, delays[i] = 2^i - 1.
	delays []uint32

	// fbPtr points at the first byte of the active buffer. Read by the
	// transfer engine on every scan pass; written only by Commit.
	fbPtr unsafe.Pointer

	// delayPtr points at the first delay value.
	delayPtr unsafe.Pointer

	// current selects the active buffer: false = fb0, true = fb1.
	current bool
}

// New allocates display memory for the given geometry. The correction
// tables are consulted on every pixel write and must outlive the memory.
func New(geom Geometry, tables *lut.Tables, order ChannelOrder) (*DisplayMemory, error) {
	if err := geom.validate(); err != nil {
		return nil, err
	}
	delays := make([]uint32, geom.ColorBits)
	for i := range delays {
		delays[i] = 1<<uint(i) - 1
	}
	return &DisplayMemory{
		geom:   geom,
		order:  order,
		tables: tables,
		fb0:    make([]byte, geom.FrameSize()),
		fb1:    make([]byte, geom.FrameSize()),
		delays: delays,
	}, nil
}

// Attach binds the engine-visible pointers to the owned arrays. Must be
// called before the transfer engine is configured and before the first
// SetPixel.
func (m *DisplayMemory) Attach() {
	atomic.StorePointer(&m.fbPtr, unsafe.Pointer(&m.fb0[0]))
	atomic.StorePointer(&m.delayPtr, unsafe.Pointer(&m.delays[0]))
}

// Geometry returns the panel geometry the memory was built for.
func (m *DisplayMemory) Geometry() Geometry { return m.geom }

// SetPixel encodes one pixel into the draw buffer. Out-of-range coordinates
// are ignored, matching the forgiving semantics animation code expects.
// Never touches the active buffer.
func (m *DisplayMemory) SetPixel(x, y int, c pixel.RGB565) {
	if x < 0 || x >= m.geom.Width || y < 0 || y >= m.geom.Height {
		return
	}

	sr := m.tables.Red(c.R())
	sg := m.tables.Green(c.G())
	sb := m.tables.Blue(c.B())

	// Map corrected samples onto the electrical data lines.
	var lr, lg, lb uint8
	switch m.order {
	case OrderGBR:
		lg, lb, lr = sr, sg, sb
	default:
		lr, lg, lb = sr, sg, sb
	}

	activeRows := m.geom.ActiveRows()
	shift := uint(0)
	if y >= activeRows {
		shift = 3
	}
	baseIdx := x + (y%activeRows)*m.geom.Width*m.geom.ColorBits

	draw := m.drawBuffer()
	for b := 0; b < m.geom.ColorBits; b++ {
		packed := (lb>>uint(b)&1)<<2 | (lg>>uint(b)&1)<<1 | (lr >> uint(b) & 1)
		idx := baseIdx + b*m.geom.Width
		draw[idx] &^= 0b111 << shift
		draw[idx] |= packed << shift
	}
}

// Clear zero-fills the draw buffer. The active buffer is untouched.
func (m *DisplayMemory) Clear() {
	draw := m.drawBuffer()
	for i := range draw {
		draw[i] = 0
	}
}

// Commit publishes the draw buffer as the new active buffer and zero-fills
// the buffer it replaces, which becomes the new draw target. The pointer
// store is atomic and Commit never waits for the hardware: the new frame is
// picked up at the next scan-pass boundary. Single-writer only; Commit must
// not race with itself or with SetPixel.
func (m *DisplayMemory) Commit() {
	m.current = !m.current
	if m.current {
		atomic.StorePointer(&m.fbPtr, unsafe.Pointer(&m.fb1[0]))
	} else {
		atomic.StorePointer(&m.fbPtr, unsafe.Pointer(&m.fb0[0]))
	}
	m.Clear()
}

// drawBuffer returns the buffer not currently scanned by the engine.
func (m *DisplayMemory) drawBuffer() []byte {
	if m.current {
		return m.fb0
	}
	return m.fb1
}

// ActiveBufferPtr returns the address of the active buffer's first byte,
// for programming the transfer engine's initial read address.
func (m *DisplayMemory) ActiveBufferPtr() unsafe.Pointer {
	return atomic.LoadPointer(&m.fbPtr)
}

// DelayPtr returns the address of the BCM delay table.
func (m *DisplayMemory) DelayPtr() unsafe.Pointer {
	return atomic.LoadPointer(&m.delayPtr)
}

// FBPtrAddr returns the address of the active-buffer pointer variable. The
// re-arm channel reads through this address on every pass, which is what
// lets Commit take effect without reconfiguring the engine.
func (m *DisplayMemory) FBPtrAddr() *unsafe.Pointer { return &m.fbPtr }

// DelayPtrAddr returns the address of the delay-table pointer variable.
func (m *DisplayMemory) DelayPtrAddr() *unsafe.Pointer { return &m.delayPtr }

// Delays returns the BCM delay table: Delays()[i] == 2^i - 1.
func (m *DisplayMemory) Delays() []uint32 { return m.delays }
