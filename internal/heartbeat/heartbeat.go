// Package heartbeat blinks a status LED while the daemon is alive. The
// panel itself can look healthy while the process is wedged; the LED on
// the bonnet cannot.
package heartbeat

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Heartbeat toggles a GPIO LED at a fixed period.
type Heartbeat struct {
	pin    gpio.PinIO
	period time.Duration
}

// New initializes the host and claims the named LED pin, e.g. "GPIO25".
func New(ledName string, period time.Duration) (*Heartbeat, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host: %v", err)
	}
	pin := gpioreg.ByName(ledName)
	if pin == nil {
		return nil, fmt.Errorf("no such pin: %s", ledName)
	}
	return &Heartbeat{pin: pin, period: period}, nil
}

// Run blinks until the context is cancelled, then leaves the LED off.
func (h *Heartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.period)
	defer ticker.Stop()
	defer h.pin.Out(gpio.Low)

	level := gpio.Low
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			level = !level
			if err := h.pin.Out(level); err != nil {
				return fmt.Errorf("failed to drive %s: %v", h.pin.Name(), err)
			}
		}
	}
}
