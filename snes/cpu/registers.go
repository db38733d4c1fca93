package cpu

import "github.com/valerio/go-snes/snes/bit"

// Processor status flag bits. Bit 4 is the index-width flag in native mode
// and the break flag in emulation mode.
const (
	flagC uint8 = 0x01 // carry
	flagZ uint8 = 0x02 // zero
	flagI uint8 = 0x04 // IRQ disable
	flagD uint8 = 0x08 // decimal
	flagX uint8 = 0x10 // index register size / break
	flagM uint8 = 0x20 // accumulator size
	flagV uint8 = 0x40 // overflow
	flagN uint8 = 0x80 // negative
)

// Registers is the 65C816 register file. The 16 bit registers expose their
// 8 bit halves through accessors instead of unions.
type Registers struct {
	a  uint16 // accumulator
	x  uint16 // X index
	y  uint16 // Y index
	d  uint16 // direct page
	sp uint16 // stack pointer
	db uint8  // data bank
	pb uint8  // program bank
	pc uint16
	p  uint8

	emulationMode bool
}

func newRegisters() Registers {
	return Registers{
		sp:            0x01FF,
		p:             0x34,
		emulationMode: true,
	}
}

func (r *Registers) al() uint8 { return bit.Low(r.a) }
func (r *Registers) ah() uint8 { return bit.High(r.a) }
func (r *Registers) xl() uint8 { return bit.Low(r.x) }
func (r *Registers) yl() uint8 { return bit.Low(r.y) }
func (r *Registers) dl() uint8 { return bit.Low(r.d) }
func (r *Registers) dh() uint8 { return bit.High(r.d) }
func (r *Registers) sl() uint8 { return bit.Low(r.sp) }

func (r *Registers) setAL(value uint8) { r.a = (r.a & 0xFF00) | uint16(value) }
func (r *Registers) setAH(value uint8) { r.a = (uint16(value) << 8) | (r.a & 0x00FF) }
func (r *Registers) setXL(value uint8) { r.x = (r.x & 0xFF00) | uint16(value) }
func (r *Registers) setYL(value uint8) { r.y = (r.y & 0xFF00) | uint16(value) }

func (r *Registers) flagSet(flag uint8) bool {
	return r.p&flag != 0
}

func (r *Registers) setFlag(flag uint8, on bool) {
	if on {
		r.p |= flag
	} else {
		r.p &^= flag
	}
}

func (r *Registers) carry() uint16 {
	return uint16(r.p & flagC)
}

// Accessors used by the debugger and tests.
func (r *Registers) A() uint16          { return r.a }
func (r *Registers) X() uint16          { return r.x }
func (r *Registers) Y() uint16          { return r.y }
func (r *Registers) D() uint16          { return r.d }
func (r *Registers) SP() uint16         { return r.sp }
func (r *Registers) DB() uint8          { return r.db }
func (r *Registers) PB() uint8          { return r.pb }
func (r *Registers) PC() uint16         { return r.pc }
func (r *Registers) P() uint8           { return r.p }
func (r *Registers) EmulationMode() bool { return r.emulationMode }
