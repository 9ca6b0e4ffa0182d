package types

import "github.com/mclarke/hub75-matrix/pkg/pixel"

// Canvas is the pixel-write contract content generators draw against.
// Writes land in the draw buffer; nothing is visible until Commit.
type Canvas interface {
	// Size returns the logical canvas dimensions.
	Size() (width, height int)
	// SetPixel sets one pixel. Out-of-range coordinates are ignored.
	SetPixel(x, y int, c pixel.RGB565)
	// Clear zero-fills the draw buffer.
	Clear()
	// Commit publishes the draw buffer to the display.
	Commit()
}

// DisplayConfig is the panel section of the configuration file.
type DisplayConfig struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	PWMBits       int    `json:"pwm_bits"`
	Brightness    int    `json:"brightness"`
	Gamma         bool   `json:"gamma"`
	RowStepTimeUs int    `json:"row_step_time_us"`
	ChannelOrder  string `json:"channel_order"` // "rgb" or "gbr"
	RefreshRate   int    `json:"refresh_rate"`  // renderer frame period in ms
	FontPath      string `json:"font_path"`
}

// PinConfig is the GPIO wiring section of the configuration file.
type PinConfig struct {
	Chip string `json:"chip"`
	R1   int    `json:"r1"`
	G1   int    `json:"g1"`
	B1   int    `json:"b1"`
	R2   int    `json:"r2"`
	G2   int    `json:"g2"`
	B2   int    `json:"b2"`
	A    int    `json:"a"`
	B    int    `json:"b"`
	C    int    `json:"c"`
	D    int    `json:"d"`
	E    int    `json:"e"`
	Clk  int    `json:"clk"`
	Lat  int    `json:"lat"`
	OE   int    `json:"oe"`
}

// HeartbeatConfig is the liveness indicator section.
type HeartbeatConfig struct {
	LED      string `json:"led"`       // periph gpioreg name, e.g. "GPIO25"
	PeriodMs int    `json:"period_ms"`
}
