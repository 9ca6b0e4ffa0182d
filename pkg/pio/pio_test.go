package pio

import "testing"

func TestPinsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Pins)
		wantErr bool
	}{
		{"defaults", func(p *Pins) {}, false},
		{"shifted groups", func(p *Pins) {
			p.R1, p.G1, p.B1, p.R2, p.G2, p.B2 = 0, 1, 2, 3, 4, 5
			p.A, p.B, p.C, p.D, p.E = 20, 21, 22, 23, 24
		}, false},
		{"data gap", func(p *Pins) { p.B1 = p.G1 + 2 }, true},
		{"data order swapped", func(p *Pins) { p.R1, p.G1 = p.G1, p.R1 }, true},
		{"address gap", func(p *Pins) { p.E = p.D + 3 }, true},
		{"address order swapped", func(p *Pins) { p.A, p.B = p.B, p.A }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pins := DefaultPins
			tt.mutate(&pins)
			err := pins.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
