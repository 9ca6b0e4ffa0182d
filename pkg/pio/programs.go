package pio

// The three sequencer micro-programs. Each is the machine-code form of the
// assembly shown in its comment, using one side-set bit (clock, latch and
// output-enable respectively). The data and output-enable programs are fed
// by the transfer engine through their TX FIFOs; the row program receives
// its two loop bounds from setup code before start.

// Program is a sequencer micro-program plus its wrap range. WrapBottom and
// WrapTop are program-relative; they are rebased when the program is loaded
// at a nonzero origin.
type Program struct {
	Instructions []uint16
	WrapBottom   uint8
	WrapTop      uint8
	ClkDiv       uint32 // CLKDIV register value, 16.8 fixed point
}

// DataProgram shifts one byte of packed color bits per column while pulsing
// the pixel clock, then handshakes with the row sequencer.
//
//	.side_set 1            ; pixel clock
//	    out isr, 32 side 0 ; first FIFO word is width-1, parked in ISR
//	.wrap_target
//	    mov x, isr  side 0 ; reload the column counter
//	pixel:
//	    out pins, 8 side 0 ; 6 color bits (plus 2 padding) onto data lines
//	    jmp x-- pixel side 1 ; clock the column out, next column
//	    irq 4       side 0 ; row data ready
//	    wait 1 irq 5 side 0 ; block until the row address is set
//	.wrap
var DataProgram = Program{
	Instructions: []uint16{
		0x60c0, // out isr, 32     side 0
		0xa026, // mov x, isr      side 0
		0x6008, // out pins, 8     side 0
		0x1042, // jmp x-- 2       side 1
		0xc004, // irq 4           side 0
		0x20c5, // wait 1 irq 5    side 0
	},
	WrapBottom: 1,
	WrapTop:    5,
	ClkDiv:     0x00020000, // 2.0
}

// RowProgram runs the nested (row, bit-plane) loop: set the inverted row
// address, then for each plane wait for the data sequencer, pulse the
// latch, start the output-enable timing, release the data sequencer for the
// next row, and block until the timing completes.
//
//	.side_set 1              ; latch
//	    pull        side 0   ; active_rows-1
//	    out isr, 32 side 0   ; parked in ISR
//	    pull        side 0   ; color_bits-1, stays in OSR
//	.wrap_target
//	    mov x, isr  side 0   ; reload the row counter
//	addr:
//	    mov pins, ~x side 0  ; inverted row address onto A-E
//	    mov y, osr  side 0   ; reload the plane counter
//	row:
//	    wait 1 irq 4 side 0  ; row data ready
//	    nop         side 1   ; latch pulse
//	    irq 6       side 1   ; start output-enable timing
//	    irq 5       side 0   ; data sequencer may shift the next row
//	    wait 1 irq 7 side 0  ; timing done
//	    jmp y-- row side 0
//	    jmp x-- addr side 0
//	.wrap
var RowProgram = Program{
	Instructions: []uint16{
		0x80a0, // pull            side 0
		0x60c0, // out isr, 32     side 0
		0x80a0, // pull            side 0
		0xa026, // mov x, isr      side 0
		0xa009, // mov pins, ~x    side 0
		0xa047, // mov y, osr      side 0
		0x20c4, // wait 1 irq 4    side 0
		0xb042, // nop             side 1
		0xd006, // irq 6           side 1
		0xc005, // irq 5           side 0
		0x20c7, // wait 1 irq 7    side 0
		0x0066, // jmp y-- 6       side 0
		0x0044, // jmp x-- 4       side 0
	},
	WrapBottom: 3,
	WrapTop:    12,
	ClkDiv:     0x00018000, // 1.5
}

// OEProgram consumes one BCM delay value per plane and asserts the
// active-low output-enable line for that many ticks, then reports back.
//
//	.side_set 1              ; output enable, active low
//	.wrap_target
//	    out x, 32   side 1   ; next delay value, output disabled
//	    wait 1 irq 6 side 1  ; latch happened
//	delay:
//	    jmp x-- delay side 0 ; output enabled for delay+1 ticks
//	    irq 7       side 1   ; timing done, output disabled
//	.wrap
var OEProgram = Program{
	Instructions: []uint16{
		0x7020, // out x, 32       side 1
		0x30c6, // wait 1 irq 6    side 1
		0x0042, // jmp x-- 2       side 0
		0xd007, // irq 7           side 1
	},
	WrapBottom: 0,
	WrapTop:    3,
	ClkDiv:     0x00018000, // 1.5
}

// Relocate rebases a program to the given instruction-memory origin. JMP is
// the only instruction carrying an absolute address, so its 5-bit target
// field is shifted by the origin; everything else is position-independent.
func Relocate(p Program, origin uint8) []uint16 {
	out := make([]uint16, len(p.Instructions))
	for i, instr := range p.Instructions {
		if instr&0xe000 == 0x0000 { // JMP
			target := uint8(instr&0x1f) + origin
			instr = instr&^0x001f | uint16(target&0x1f)
		}
		out[i] = instr
	}
	return out
}
