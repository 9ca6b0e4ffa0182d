package dma

import (
	"testing"

	"github.com/mclarke/hub75-matrix/pkg/memory"
)

func TestCtrlBitPacking(t *testing.T) {
	tests := []struct {
		name string
		ctrl Ctrl
		want uint32
	}{
		{"enable", Ctrl(0).WithEnable(), 1 << 0},
		{"word size", Ctrl(0).WithDataSize(SizeWord), 2 << 2},
		{"incr read", Ctrl(0).WithIncrRead(), 1 << 4},
		{"incr write", Ctrl(0).WithIncrWrite(), 1 << 6},
		{"chain to 3", Ctrl(0).WithChainTo(3), 3 << 11},
		{"treq permanent", Ctrl(0).WithTreqSel(TreqPermanent), 0x3f << 17},
		{"irq quiet", Ctrl(0).WithIrqQuiet(), 1 << 23},
		{
			"stream channel",
			Ctrl(0).WithIncrRead().WithDataSize(SizeWord).WithTreqSel(TreqDataSM).
				WithChainTo(FBLoopChannel).WithIrqQuiet().WithEnable(),
			1<<0 | 2<<2 | 1<<4 | 1<<11 | 1<<23,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if uint32(tt.ctrl) != tt.want {
				t.Errorf("ctrl = %#08x, want %#08x", uint32(tt.ctrl), tt.want)
			}
		})
	}
}

func TestCtrlChainTo(t *testing.T) {
	c := Ctrl(0).WithChainTo(OELoopChannel)
	if got := c.ChainTo(); got != OELoopChannel {
		t.Errorf("ChainTo() = %d, want %d", got, OELoopChannel)
	}
	// Out-of-range channels must be masked to the 4-bit field.
	c = Ctrl(0).WithChainTo(0x13)
	if got := c.ChainTo(); got != 3 {
		t.Errorf("ChainTo() after masked set = %d, want 3", got)
	}
}

func TestCtrlFieldsDisjoint(t *testing.T) {
	// Setting every field must not overlap any other field.
	full := Ctrl(0).WithEnable().WithDataSize(3).WithIncrRead().WithIncrWrite().
		WithChainTo(0xf).WithTreqSel(0x3f).WithIrqQuiet()
	sum := uint32(1<<0) + 3<<2 + 1<<4 + 1<<6 + 0xf<<11 + 0x3f<<17 + 1<<23
	if uint32(full) != sum {
		t.Errorf("combined ctrl = %#08x, want %#08x", uint32(full), sum)
	}
}

func TestStatusHealthy(t *testing.T) {
	geom := memory.Geometry{Width: 64, Height: 64, ColorBits: 8}
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"cycling", Status{FBTransCount: 100, OETransCount: 3}, true},
		{"at block boundary", Status{FBTransCount: uint32(geom.FrameSize() / 4), OETransCount: 8}, true},
		{"fb runaway", Status{FBTransCount: 1 << 20, OETransCount: 3}, false},
		{"oe runaway", Status{FBTransCount: 0, OETransCount: 100}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Healthy(geom); got != tt.want {
				t.Errorf("Healthy() = %v, want %v", got, tt.want)
			}
		})
	}
}
