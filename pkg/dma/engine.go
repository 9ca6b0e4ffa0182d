package dma

import (
	"context"
	"sync/atomic"
	"unsafe"

	"github.com/mclarke/hub75-matrix/pkg/memory"
)

// Engine is the software rendition of the chained channel pairs. It keeps
// the exact re-arm semantics: the source pointer variable is re-read at the
// start of every pass, so a Commit in display memory takes effect on the
// next pass without the engine being told. Used off target and by the
// sequencer tests; on hardware the same roles are filled by Configure.
type Engine struct {
	mem       *memory.DisplayMemory
	dataFIFO  chan<- uint32
	delayFIFO chan<- uint32
}

// NewEngine builds a software engine feeding the given sequencer FIFOs.
func NewEngine(mem *memory.DisplayMemory, dataFIFO, delayFIFO chan<- uint32) *Engine {
	return &Engine{mem: mem, dataFIFO: dataFIFO, delayFIFO: delayFIFO}
}

// Run streams both blocks until the context is cancelled. Backpressure
// comes from the FIFOs: a full FIFO stalls the pass exactly as a full
// hardware FIFO deasserts the data request line.
func (e *Engine) Run(ctx context.Context) error {
	done := make(chan error, 2)
	go func() { done <- e.runFrames(ctx) }()
	go func() { done <- e.runDelays(ctx) }()
	<-done
	return ctx.Err()
}

func (e *Engine) runFrames(ctx context.Context) error {
	for {
		if err := e.framePass(ctx); err != nil {
			return err
		}
	}
}

func (e *Engine) runDelays(ctx context.Context) error {
	for {
		if err := e.delayPass(ctx); err != nil {
			return err
		}
	}
}

// framePass performs one full-buffer scan: the re-arm step (re-reading the
// active-buffer pointer) followed by the stream of FrameSize/4 words.
func (e *Engine) framePass(ctx context.Context) error {
	frameSize := e.mem.Geometry().FrameSize()
	p := atomic.LoadPointer(e.mem.FBPtrAddr())
	buf := unsafe.Slice((*byte)(p), frameSize)

	for i := 0; i < frameSize; i += 4 {
		word := uint32(buf[i]) | uint32(buf[i+1])<<8 |
			uint32(buf[i+2])<<16 | uint32(buf[i+3])<<24
		select {
		case e.dataFIFO <- word:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// delayPass streams the ColorBits delay values once.
func (e *Engine) delayPass(ctx context.Context) error {
	bits := e.mem.Geometry().ColorBits
	p := atomic.LoadPointer(e.mem.DelayPtrAddr())
	delays := unsafe.Slice((*uint32)(p), bits)

	for _, d := range delays {
		select {
		case e.delayFIFO <- d:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
