// Package lut holds the color correction lookup tables. A raw RGB565 channel
// sample is expanded to 8 bits, scaled by the global brightness, gamma
// corrected, and truncated to the configured number of bit planes. The
// tables are rebuilt whenever the driver configuration changes and are
// read-only while the panel is scanning.
package lut

// gamma8 maps linear 8-bit values to gamma-corrected values. LED matrices
// have a non-linear brightness curve, so without this table low intensities
// wash out and gradients band visibly.
var gamma8 = [256]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 5, 5, 5,
	5, 6, 6, 6, 6, 7, 7, 7, 7, 8, 8, 8, 9, 9, 9, 10, 10, 10, 11, 11, 11, 12, 12, 13, 13, 13, 14,
	14, 15, 15, 16, 16, 17, 17, 18, 18, 19, 19, 20, 20, 21, 21, 22, 22, 23, 24, 24, 25, 25, 26, 27,
	27, 28, 29, 29, 30, 31, 32, 32, 33, 34, 35, 35, 36, 37, 38, 39, 39, 40, 41, 42, 43, 44, 45, 46,
	47, 48, 49, 50, 50, 51, 52, 54, 55, 56, 57, 58, 59, 60, 61, 62, 63, 64, 66, 67, 68, 69, 70, 72,
	73, 74, 75, 77, 78, 79, 81, 82, 83, 85, 86, 87, 89, 90, 92, 93, 95, 96, 98, 99, 101, 102, 104,
	105, 107, 109, 110, 112, 114, 115, 117, 119, 120, 122, 124, 126, 127, 129, 131, 133, 135, 137,
	138, 140, 142, 144, 146, 148, 150, 152, 154, 156, 158, 160, 162, 164, 167, 169, 171, 173, 175,
	177, 180, 182, 184, 186, 189, 191, 193, 196, 198, 200, 203, 205, 208, 210, 213, 215, 218, 220,
	223, 225, 228, 231, 233, 236, 239, 241, 244, 247, 249, 252, 255,
}

// GammaCorrect maps a linear 8-bit value to its gamma-corrected value.
// The mapping is monotonically non-decreasing with GammaCorrect(0) == 0 and
// GammaCorrect(255) == 255.
func GammaCorrect(value uint8) uint8 {
	return gamma8[value]
}

// Options are the inputs the tables are derived from. They mirror the
// relevant fields of the driver configuration.
type Options struct {
	PWMBits    uint8 // bit planes per channel, 1-8
	Brightness uint8 // global brightness, 0-255
	UseGamma   bool
}

// Tables maps raw RGB565 channel samples to corrected, brightness-scaled,
// bit-depth-truncated values. One table per channel because red and blue
// carry 5 bits while green carries 6.
type Tables struct {
	r [32]uint8
	g [64]uint8
	b [32]uint8
}

// NewTables builds correction tables for the given options.
func NewTables(opts Options) *Tables {
	t := &Tables{}
	t.Rebuild(opts)
	return t
}

// Rebuild recomputes all three tables. Must be called before the first
// pixel write and again after every configuration change; the tables are
// not safe to rebuild while a render goroutine is writing pixels.
func (t *Tables) Rebuild(opts Options) {
	for i := range t.r {
		t.r[i] = correct(uint8(i)<<3|uint8(i)>>2, opts)
	}
	for i := range t.g {
		t.g[i] = correct(uint8(i)<<2|uint8(i)>>4, opts)
	}
	for i := range t.b {
		t.b[i] = correct(uint8(i)<<3|uint8(i)>>2, opts)
	}
}

// correct applies brightness scaling, optional gamma correction and the
// bit-depth truncation to an 8-bit-expanded channel value. Integer-only:
// this runs once per table entry but the same arithmetic contract holds for
// the hot path that consumes the tables.
func correct(v uint8, opts Options) uint8 {
	scaled := uint8(uint16(v) * uint16(opts.Brightness) / 255)
	if opts.UseGamma {
		scaled = gamma8[scaled]
	}
	return scaled >> (8 - opts.PWMBits)
}

// Red looks up the corrected value for a 5-bit red sample.
func (t *Tables) Red(v uint8) uint8 { return t.r[v&0x1f] }

// Green looks up the corrected value for a 6-bit green sample.
func (t *Tables) Green(v uint8) uint8 { return t.g[v&0x3f] }

// Blue looks up the corrected value for a 5-bit blue sample.
func (t *Tables) Blue(v uint8) uint8 { return t.b[v&0x1f] }
