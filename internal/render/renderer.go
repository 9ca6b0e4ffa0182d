package render

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mclarke/hub75-matrix/internal/types"
	"github.com/mclarke/hub75-matrix/pkg/pixel"
)

// Scene produces one frame. frame increments monotonically from zero; the
// scene draws into the canvas and the renderer commits afterwards.
type Scene func(c types.Canvas, frame int) error

// Renderer drives a scene at a fixed frame rate.
type Renderer struct {
	canvas types.Canvas
	period time.Duration

	mu    sync.Mutex
	scene Scene
}

// NewRenderer creates a renderer committing to canvas every refreshRate
// milliseconds.
func NewRenderer(canvas types.Canvas, refreshRate int) *Renderer {
	if refreshRate < 1 {
		refreshRate = 50
	}
	return &Renderer{
		canvas: canvas,
		period: time.Duration(refreshRate) * time.Millisecond,
	}
}

// SetScene swaps the active scene. Takes effect on the next frame.
func (r *Renderer) SetScene(s Scene) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scene = s
}

// Start runs the frame loop until the context is cancelled. A scene error
// is logged and the frame skipped; the loop keeps running.
func (r *Renderer) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.mu.Lock()
			scene := r.scene
			r.mu.Unlock()
			if scene == nil {
				continue
			}
			if err := scene(r.canvas, frame); err != nil {
				log.Printf("Failed to render frame %d: %v", frame, err)
				continue
			}
			r.canvas.Commit()
			frame++
		}
	}
}

// ScrollText returns a scene scrolling text right to left across the
// middle of the panel, wrapping when it has fully left the screen.
func ScrollText(tr *TextRenderer, text string, col pixel.RGB565) Scene {
	width := tr.Width(text)
	return func(c types.Canvas, frame int) error {
		w, h := c.Size()
		x := w - frame%(w+width)
		c.Clear()
		return tr.Draw(c, text, x, h/2-7, col)
	}
}
