package audio

import "github.com/valerio/go-snes/snes/bit"

// Processor status flag bits.
const (
	flagC uint8 = 0x01 // carry
	flagZ uint8 = 0x02 // zero
	flagI uint8 = 0x04 // interrupt enable
	flagH uint8 = 0x08 // half carry
	flagB uint8 = 0x10 // break
	flagP uint8 = 0x20 // zero page selector
	flagV uint8 = 0x40 // overflow
	flagN uint8 = 0x80 // negative
)

// Registers is the SPC700 register file. A and Y combine into the 16 bit YA
// pair, A in the low byte.
type Registers struct {
	a  uint8
	y  uint8
	x  uint8
	sp uint8 // implicit page 0x01
	pc uint16
	p  uint8
}

func (r *Registers) ya() uint16 {
	return bit.Combine(r.y, r.a)
}

func (r *Registers) setYA(value uint16) {
	r.a = bit.Low(value)
	r.y = bit.High(value)
}

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

func (r *Registers) carry() uint8 {
	return r.p & flagC
}

// Accessors used by the debugger and tests.
func (r *Registers) A() uint8   { return r.a }
func (r *Registers) X() uint8   { return r.x }
func (r *Registers) Y() uint8   { return r.y }
func (r *Registers) YA() uint16 { return r.ya() }
func (r *Registers) SP() uint8  { return r.sp }
func (r *Registers) PC() uint16 { return r.pc }
func (r *Registers) P() uint8   { return r.p }

// Spc700 is the audio CPU. It runs against its own 64 KiB bus and catches up
// with the main CPU in Step, using the audio timer's cycle counter.
type Spc700 struct {
	reg    Registers
	opcode uint8

	bus   *Bus
	timer *Timer

	// Set by SLEEP/STOP; the CPU then idles, burning cycles, until reset.
	waiting bool

	// SPC cycles the CPU is ahead of the master-clock budget.
	clocksAhead int64
}

func NewSpc700(bus *Bus, timer *Timer) *Spc700 {
	return &Spc700{
		reg: Registers{
			sp: 0xFF,
			pc: 0xFFC0,
		},
		bus:   bus,
		timer: timer,
	}
}

// Reg exposes the register file for the debugger and tests.
func (s *Spc700) Reg() *Registers {
	return &s.reg
}

// Waiting reports whether SLEEP or STOP has halted execution.
func (s *Spc700) Waiting() bool {
	return s.waiting
}

func (s *Spc700) ReadPC8Bit() uint8 {
	value := s.bus.Read8(s.reg.pc)
	s.reg.pc++
	return value
}

func (s *Spc700) ReadPC16Bit() uint16 {
	low := s.ReadPC8Bit()
	high := s.ReadPC8Bit()
	return bit.Combine(high, low)
}

// Step runs instructions until the SPC cycles counted by the audio timer
// catch up with the given budget. A waiting CPU consumes the budget idle.
func (s *Spc700) Step(clocksToRun uint32) {
	s.clocksAhead -= int64(clocksToRun)

	if s.waiting {
		// A sleeping CPU idles through its budget until a reset wakes it.
		if s.clocksAhead < 0 {
			s.clocksAhead = 0
		}
		return
	}

	s.timer.ResetCounter()
	for s.clocksAhead < 0 {
		s.ProcessOpCode()
		s.clocksAhead += int64(s.timer.Counter())
		s.timer.ResetCounter()
		if s.waiting {
			s.clocksAhead = 0
			return
		}
	}
}

func (s *Spc700) setNZ(value uint8) {
	s.reg.setFlag(flagN, value&0x80 != 0)
	s.reg.setFlag(flagZ, value == 0)
}

func (s *Spc700) setNZ16(value uint16) {
	s.reg.setFlag(flagN, value&0x8000 != 0)
	s.reg.setFlag(flagZ, value == 0)
}

func (s *Spc700) loadRegister(dest *uint8, value uint8) {
	*dest = value
	s.setNZ(value)
}

// add8 computes x + y + carry and sets V, H, C, N and Z.
func (s *Spc700) add8(x, y uint8) uint8 {
	result16 := uint16(x) + uint16(y) + uint16(s.reg.carry())
	result := uint8(result16)

	s.reg.setFlag(flagV, ((uint16(x)^result16)&^(uint16(x)^uint16(y)))&0x80 != 0)
	s.reg.setFlag(flagH, (x&0x0F)+(y&0x0F)+s.reg.carry() > 0x0F)
	s.reg.setFlag(flagC, result16 > 0xFF)
	s.setNZ(result)

	return result
}

// sub8 inverts the operand and reuses the addition path.
func (s *Spc700) sub8(x, y uint8) uint8 {
	y = ^y
	result16 := uint16(x) + uint16(y) + uint16(s.reg.carry())
	result := uint8(result16)

	s.reg.setFlag(flagV, ((uint16(x)^result16)&^(uint16(x)^uint16(y)))&0x80 != 0)
	s.reg.setFlag(flagH, (x&0x0F)+(y&0x0F)+s.reg.carry() > 0x0F)
	s.reg.setFlag(flagC, result16 > 0xFF)
	s.setNZ(result)

	return result
}

func (s *Spc700) compare(x, y uint8) {
	result := x - y
	s.reg.setFlag(flagC, x >= y)
	s.setNZ(result)
}

func (s *Spc700) push(value uint8) {
	s.bus.Write8(bit.Combine(0x01, s.reg.sp), value)
	s.reg.sp--
}

func (s *Spc700) pop() uint8 {
	s.reg.sp++
	return s.bus.Read8(bit.Combine(0x01, s.reg.sp))
}

// branch adds a signed 8 bit offset to PC when taken.
func (s *Spc700) branch(offset uint8, taken bool) {
	if taken {
		s.reg.pc += uint16(int16(int8(offset)))
	}
}

// ProcessOpCode dispatches one instruction.
func (s *Spc700) ProcessOpCode() {
	opcode := s.ReadPC8Bit()
	s.opcode = opcode

	switch opcode {

	// ------------------------------------------------------------------
	// MOV memory to register
	// ------------------------------------------------------------------

	case 0xE4, // MOV A, Direct
		0xE5, // MOV A, !Absolute
		0xE6, // MOV A, (X)
		0xE7, // MOV A, [d+X]
		0xE8, // MOV A, Immediate
		0xF4, // MOV A, Direct,X
		0xF5, // MOV A, !Absolute,X
		0xF6, // MOV A, !Absolute,Y
		0xF7: // MOV A, [d]+Y
		op := s.loadMode(addressModes[opcode&0x1F])
		s.loadRegister(&s.reg.a, s.read8(op))

	case 0xBF: // MOV A, (X)+
		op := s.loadMode(modeIndirectX)
		s.loadRegister(&s.reg.a, s.read8(op))
		s.reg.x++

	case 0xCD, // MOV X, Immediate
		0xE9, // MOV X, !Absolute
		0xF8, // MOV X, Direct
		0xF9: // MOV X, Direct,Y
		op := s.loadMode(addressModesMovXY[opcode&0x1F])
		s.loadRegister(&s.reg.x, s.read8(op))

	case 0x8D, // MOV Y, Immediate
		0xEB, // MOV Y, Direct
		0xEC, // MOV Y, !Absolute
		0xFB: // MOV Y, Direct,X
		op := s.loadMode(addressModesMovXY[opcode&0x1F])
		s.loadRegister(&s.reg.y, s.read8(op))

	case 0xBA: // MOVW YA, Direct
		op := s.loadMode(modeDirect)
		value := s.read16(op)
		s.reg.setYA(value)
		s.setNZ16(value)

	// ------------------------------------------------------------------
	// MOV register to memory
	// ------------------------------------------------------------------

	case 0xC4, // MOV Direct, A
		0xC5, // MOV !Absolute, A
		0xC6, // MOV (X), A
		0xC7, // MOV [d+X], A
		0xD4, // MOV Direct,X, A
		0xD5, // MOV !Absolute,X, A
		0xD6, // MOV !Absolute,Y, A
		0xD7: // MOV [d]+Y, A
		op := s.loadMode(addressModes[opcode&0x1F])
		s.write8(op, s.reg.a)

	case 0xAF: // MOV (X)+, A
		op := s.loadMode(modeIndirectX)
		s.write8(op, s.reg.a)
		s.reg.x++

	case 0xC9, // MOV !Absolute, X
		0xD8, // MOV Direct, X
		0xD9: // MOV Direct,Y, X
		op := s.loadMode(addressModesMovXY[opcode&0x1F])
		s.write8(op, s.reg.x)

	case 0xCB, // MOV Direct, Y
		0xCC, // MOV !Absolute, Y
		0xDB: // MOV Direct,X, Y
		op := s.loadMode(addressModesMovXY[opcode&0x1F])
		s.write8(op, s.reg.y)

	case 0xDA: // MOVW Direct, YA
		op := s.loadMode(modeDirect)
		s.write16(op, s.reg.ya())

	// ------------------------------------------------------------------
	// MOV register to register, memory to memory
	// ------------------------------------------------------------------

	case 0x7D: // MOV A, X
		s.loadRegister(&s.reg.a, s.reg.x)

	case 0xDD: // MOV A, Y
		s.loadRegister(&s.reg.a, s.reg.y)

	case 0x5D: // MOV X, A
		s.loadRegister(&s.reg.x, s.reg.a)

	case 0xFD: // MOV Y, A
		s.loadRegister(&s.reg.y, s.reg.a)

	case 0x9D: // MOV X, SP
		s.loadRegister(&s.reg.x, s.reg.sp)

	case 0xBD: // MOV SP, X
		// No flags.
		s.reg.sp = s.reg.x

	case 0xFA: // MOV Direct, Direct
		src := s.loadMode(modeDirect)
		dest := s.loadMode(modeDirect)
		s.write8(dest, s.read8(src))

	case 0x8F: // MOV Direct, Immediate
		value := s.ReadPC8Bit()
		op := s.loadMode(modeDirect)
		s.write8(op, value)

	// ------------------------------------------------------------------
	// Arithmetic
	// ------------------------------------------------------------------

	case 0x84, 0x85, 0x86, 0x87, 0x88, 0x94, 0x95, 0x96, 0x97: // ADC A, n
		op := s.loadMode(addressModes[opcode&0x1F])
		s.reg.a = s.add8(s.reg.a, s.read8(op))

	case 0x99: // ADC (X), (Y)
		dest := s.loadMode(modeIndirectX)
		src := s.loadMode(modeIndirectY)
		s.write8(dest, s.add8(s.read8(dest), s.read8(src)))

	case 0x89: // ADC Direct, Direct
		src := s.loadMode(modeDirect)
		dest := s.loadMode(modeDirect)
		s.write8(dest, s.add8(s.read8(dest), s.read8(src)))

	case 0x98: // ADC Direct, Immediate
		value := s.ReadPC8Bit()
		op := s.loadMode(modeDirect)
		s.write8(op, s.add8(s.read8(op), value))

	case 0x7A: // ADDW YA, Direct
		op := s.loadMode(modeDirect)
		operandValue := s.read16(op)
		ya := s.reg.ya()
		result32 := uint32(ya) + uint32(operandValue)
		result := uint16(result32)

		s.reg.setFlag(flagV, ((uint32(ya)^result32)&^(uint32(ya)^uint32(operandValue)))&0x8000 != 0)
		s.reg.setFlag(flagH, (ya&0x0FFF)+(operandValue&0x0FFF) > 0x0FFF)
		s.reg.setFlag(flagC, result32 > 0xFFFF)
		s.setNZ16(result)
		s.reg.setYA(result)

	case 0xA4, 0xA5, 0xA6, 0xA7, 0xA8, 0xB4, 0xB5, 0xB6, 0xB7: // SBC A, n
		op := s.loadMode(addressModes[opcode&0x1F])
		s.reg.a = s.sub8(s.reg.a, s.read8(op))

	case 0xB9: // SBC (X), (Y)
		dest := s.loadMode(modeIndirectX)
		src := s.loadMode(modeIndirectY)
		s.write8(dest, s.sub8(s.read8(dest), s.read8(src)))

	case 0xA9: // SBC Direct, Direct
		src := s.loadMode(modeDirect)
		dest := s.loadMode(modeDirect)
		s.write8(dest, s.sub8(s.read8(dest), s.read8(src)))

	case 0xB8: // SBC Direct, Immediate
		value := s.ReadPC8Bit()
		op := s.loadMode(modeDirect)
		s.write8(op, s.sub8(s.read8(op), value))

	case 0x9A: // SUBW YA, Direct
		op := s.loadMode(modeDirect)
		operandValue := ^s.read16(op) + 1
		ya := s.reg.ya()
		result32 := uint32(ya) + uint32(operandValue)
		result := uint16(result32)

		s.reg.setFlag(flagV, ((uint32(ya)^result32)&^(uint32(ya)^uint32(operandValue)))&0x8000 != 0)
		s.reg.setFlag(flagH, (ya&0x0FFF)+(operandValue&0x0FFF) > 0x0FFF)
		s.reg.setFlag(flagC, result32 > 0xFFFF)
		s.setNZ16(result)
		s.reg.setYA(result)

	// ------------------------------------------------------------------
	// Compare
	// ------------------------------------------------------------------

	case 0x64, 0x65, 0x66, 0x67, 0x68, 0x74, 0x75, 0x76, 0x77: // CMP A, n
		op := s.loadMode(addressModes[opcode&0x1F])
		s.compare(s.reg.a, s.read8(op))

	case 0x79: // CMP (X), (Y)
		dest := s.loadMode(modeIndirectX)
		src := s.loadMode(modeIndirectY)
		s.compare(s.read8(dest), s.read8(src))

	case 0x69: // CMP Direct, Direct
		src := s.loadMode(modeDirect)
		dest := s.loadMode(modeDirect)
		s.compare(s.read8(dest), s.read8(src))

	case 0x78: // CMP Direct, Immediate
		value := s.ReadPC8Bit()
		op := s.loadMode(modeDirect)
		s.compare(s.read8(op), value)

	case 0xC8: // CMP X, Immediate
		s.compare(s.reg.x, s.ReadPC8Bit())

	case 0x3E: // CMP X, Direct
		op := s.loadMode(modeDirect)
		s.compare(s.reg.x, s.read8(op))

	case 0x1E: // CMP X, !Absolute
		op := s.loadMode(modeAbsolute)
		s.compare(s.reg.x, s.read8(op))

	case 0xAD: // CMP Y, Immediate
		s.compare(s.reg.y, s.ReadPC8Bit())

	case 0x7E: // CMP Y, Direct
		op := s.loadMode(modeDirect)
		s.compare(s.reg.y, s.read8(op))

	case 0x5E: // CMP Y, !Absolute
		op := s.loadMode(modeAbsolute)
		s.compare(s.reg.y, s.read8(op))

	case 0x5A: // CMPW YA, Direct
		op := s.loadMode(modeDirect)
		operandValue := s.read16(op)
		ya := s.reg.ya()
		result := ya - operandValue
		s.reg.setFlag(flagC, ya >= operandValue)
		s.setNZ16(result)

	// ------------------------------------------------------------------
	// Multiply / Divide
	// ------------------------------------------------------------------

	case 0xCF: // MUL YA
		s.reg.setYA(uint16(s.reg.y) * uint16(s.reg.a))
		s.setNZ(s.reg.y)

	case 0x9E: // DIV YA, X
		ya := uint32(s.reg.ya())
		x := uint32(s.reg.x) << 9

		for i := 0; i < 9; i++ {
			carry := ya >> 16
			ya = ((ya << 1) | carry) & 0x1FFFF
			if ya >= x {
				ya ^= 1
			}
			if ya&0x01 != 0 {
				ya = (ya - x) & 0x1FFFF
			}
		}

		s.reg.setFlag(flagH, s.reg.x&0x0F <= s.reg.y&0x0F)
		s.reg.setFlag(flagV, ya&0x0100 != 0)

		s.reg.a = uint8(ya)
		s.reg.y = uint8(ya >> 9)
		s.setNZ(s.reg.a)

	// ------------------------------------------------------------------
	// Logical
	// ------------------------------------------------------------------

	case 0x24, 0x25, 0x26, 0x27, 0x28, 0x34, 0x35, 0x36, 0x37: // AND A, n
		op := s.loadMode(addressModes[opcode&0x1F])
		s.loadRegister(&s.reg.a, s.reg.a&s.read8(op))

	case 0x39: // AND (X), (Y)
		dest := s.loadMode(modeIndirectX)
		src := s.loadMode(modeIndirectY)
		result := s.read8(dest) & s.read8(src)
		s.setNZ(result)
		s.write8(dest, result)

	case 0x29: // AND Direct, Direct
		src := s.loadMode(modeDirect)
		dest := s.loadMode(modeDirect)
		result := s.read8(dest) & s.read8(src)
		s.setNZ(result)
		s.write8(dest, result)

	case 0x38: // AND Direct, Immediate
		value := s.ReadPC8Bit()
		op := s.loadMode(modeDirect)
		result := s.read8(op) & value
		s.setNZ(result)
		s.write8(op, result)

	case 0x04, 0x05, 0x06, 0x07, 0x08, 0x14, 0x15, 0x16, 0x17: // OR A, n
		op := s.loadMode(addressModes[opcode&0x1F])
		s.loadRegister(&s.reg.a, s.reg.a|s.read8(op))

	case 0x19: // OR (X), (Y)
		dest := s.loadMode(modeIndirectX)
		src := s.loadMode(modeIndirectY)
		result := s.read8(dest) | s.read8(src)
		s.setNZ(result)
		s.write8(dest, result)

	case 0x09: // OR Direct, Direct
		src := s.loadMode(modeDirect)
		dest := s.loadMode(modeDirect)
		result := s.read8(dest) | s.read8(src)
		s.setNZ(result)
		s.write8(dest, result)

	case 0x18: // OR Direct, Immediate
		value := s.ReadPC8Bit()
		op := s.loadMode(modeDirect)
		result := s.read8(op) | value
		s.setNZ(result)
		s.write8(op, result)

	case 0x44, 0x45, 0x46, 0x47, 0x48, 0x54, 0x55, 0x56, 0x57: // EOR A, n
		op := s.loadMode(addressModes[opcode&0x1F])
		s.loadRegister(&s.reg.a, s.reg.a^s.read8(op))

	case 0x59: // EOR (X), (Y)
		dest := s.loadMode(modeIndirectX)
		src := s.loadMode(modeIndirectY)
		result := s.read8(dest) ^ s.read8(src)
		s.setNZ(result)
		s.write8(dest, result)

	case 0x49: // EOR Direct, Direct
		src := s.loadMode(modeDirect)
		dest := s.loadMode(modeDirect)
		result := s.read8(dest) ^ s.read8(src)
		s.setNZ(result)
		s.write8(dest, result)

	case 0x58: // EOR Direct, Immediate
		value := s.ReadPC8Bit()
		op := s.loadMode(modeDirect)
		result := s.read8(op) ^ value
		s.setNZ(result)
		s.write8(op, result)

	// ------------------------------------------------------------------
	// Single-bit operations
	// ------------------------------------------------------------------

	case 0x02, 0x22, 0x42, 0x62, 0x82, 0xA2, 0xC2, 0xE2: // SET1 Direct, bit
		op := s.loadMode(modeDirect)
		s.write8(op, s.read8(op)|(1<<(opcode>>5)))

	case 0x12, 0x32, 0x52, 0x72, 0x92, 0xB2, 0xD2, 0xF2: // CLR1 Direct, bit
		op := s.loadMode(modeDirect)
		s.write8(op, s.read8(op)&^(1<<(opcode>>5)))

	case 0x0E: // TSET1 !Absolute
		op := s.loadMode(modeAbsolute)
		value := s.read8(op)
		s.write8(op, value|s.reg.a)
		s.setNZ(s.reg.a - value)

	case 0x4E: // TCLR1 !Absolute
		op := s.loadMode(modeAbsolute)
		value := s.read8(op)
		s.write8(op, value&^s.reg.a)
		s.setNZ(s.reg.a - value)

	case 0x4A: // AND1 C, m.b
		target, bitIndex := s.bitOperand()
		s.reg.setFlag(flagC, s.reg.flagSet(flagC) && bit.IsSet(bitIndex, s.bus.Read8(target)))

	case 0x6A: // AND1 C, /m.b
		target, bitIndex := s.bitOperand()
		s.reg.setFlag(flagC, s.reg.flagSet(flagC) && !bit.IsSet(bitIndex, s.bus.Read8(target)))

	case 0x0A: // OR1 C, m.b
		target, bitIndex := s.bitOperand()
		s.reg.setFlag(flagC, s.reg.flagSet(flagC) || bit.IsSet(bitIndex, s.bus.Read8(target)))

	case 0x2A: // OR1 C, /m.b
		target, bitIndex := s.bitOperand()
		s.reg.setFlag(flagC, s.reg.flagSet(flagC) || !bit.IsSet(bitIndex, s.bus.Read8(target)))

	case 0x8A: // EOR1 C, m.b
		target, bitIndex := s.bitOperand()
		s.reg.setFlag(flagC, s.reg.flagSet(flagC) != bit.IsSet(bitIndex, s.bus.Read8(target)))

	case 0xEA: // NOT1 m.b
		target, bitIndex := s.bitOperand()
		s.bus.Write8(target, s.bus.Read8(target)^(1<<bitIndex))

	case 0xAA: // MOV1 C, m.b
		target, bitIndex := s.bitOperand()
		s.reg.setFlag(flagC, bit.IsSet(bitIndex, s.bus.Read8(target)))

	case 0xCA: // MOV1 m.b, C
		target, bitIndex := s.bitOperand()
		value := s.bus.Read8(target) &^ (1 << bitIndex)
		value |= s.reg.carry() << bitIndex
		s.bus.Write8(target, value)

	// ------------------------------------------------------------------
	// Increment / Decrement
	// ------------------------------------------------------------------

	case 0xBC, // INC A
		0xAB, // INC Direct
		0xBB, // INC Direct,X
		0xAC: // INC !Absolute
		op := s.loadMode(addressModes[opcode&0x1F])
		result := s.read8(op) + 1
		s.setNZ(result)
		s.write8(op, result)

	case 0x3D: // INC X
		s.loadRegister(&s.reg.x, s.reg.x+1)

	case 0xFC: // INC Y
		s.loadRegister(&s.reg.y, s.reg.y+1)

	case 0x3A: // INCW Direct
		op := s.loadMode(modeDirect)
		value := s.read16(op) + 1
		s.setNZ16(value)
		s.write16(op, value)

	case 0x9C, // DEC A
		0x8B, // DEC Direct
		0x9B, // DEC Direct,X
		0x8C: // DEC !Absolute
		op := s.loadMode(addressModes[opcode&0x1F])
		result := s.read8(op) - 1
		s.setNZ(result)
		s.write8(op, result)

	case 0x1D: // DEC X
		s.loadRegister(&s.reg.x, s.reg.x-1)

	case 0xDC: // DEC Y
		s.loadRegister(&s.reg.y, s.reg.y-1)

	case 0x1A: // DECW Direct
		op := s.loadMode(modeDirect)
		value := s.read16(op) - 1
		s.setNZ16(value)
		s.write16(op, value)

	// ------------------------------------------------------------------
	// Shift / Rotate
	// ------------------------------------------------------------------

	case 0x1C, 0x0B, 0x1B, 0x0C: // ASL
		op := s.loadMode(addressModes[opcode&0x1F])
		value := s.read8(op)
		result := value << 1
		s.reg.setFlag(flagC, value&0x80 != 0)
		s.setNZ(result)
		s.write8(op, result)

	case 0x5C, 0x4B, 0x5B, 0x4C: // LSR
		op := s.loadMode(addressModes[opcode&0x1F])
		value := s.read8(op)
		result := value >> 1
		s.reg.setFlag(flagC, value&0x01 != 0)
		s.setNZ(result)
		s.write8(op, result)

	case 0x3C, 0x2B, 0x3B, 0x2C: // ROL
		op := s.loadMode(addressModes[opcode&0x1F])
		value := s.read8(op)
		result := (value << 1) | s.reg.carry()
		s.reg.setFlag(flagC, value&0x80 != 0)
		s.setNZ(result)
		s.write8(op, result)

	case 0x7C, 0x6B, 0x7B, 0x6C: // ROR
		op := s.loadMode(addressModes[opcode&0x1F])
		value := s.read8(op)
		result := (value >> 1) | (s.reg.carry() << 7)
		s.reg.setFlag(flagC, value&0x01 != 0)
		s.setNZ(result)
		s.write8(op, result)

	case 0x9F: // XCN A
		s.reg.a = (s.reg.a >> 4) | (s.reg.a << 4)
		s.setNZ(s.reg.a)

	// ------------------------------------------------------------------
	// Push / Pop
	// ------------------------------------------------------------------

	case 0x2D: // PUSH A
		s.push(s.reg.a)

	case 0x4D: // PUSH X
		s.push(s.reg.x)

	case 0x6D: // PUSH Y
		s.push(s.reg.y)

	case 0x0D: // PUSH PSW
		s.push(s.reg.p)

	case 0xAE: // POP A
		s.reg.a = s.pop()

	case 0xCE: // POP X
		s.reg.x = s.pop()

	case 0xEE: // POP Y
		s.reg.y = s.pop()

	case 0x8E: // POP PSW
		s.reg.p = s.pop()

	// ------------------------------------------------------------------
	// Branches
	// ------------------------------------------------------------------

	case 0x2F: // BRA
		s.branch(s.ReadPC8Bit(), true)

	case 0x10: // BPL
		s.branch(s.ReadPC8Bit(), !s.reg.flagSet(flagN))

	case 0x30: // BMI
		s.branch(s.ReadPC8Bit(), s.reg.flagSet(flagN))

	case 0x50: // BVC
		s.branch(s.ReadPC8Bit(), !s.reg.flagSet(flagV))

	case 0x70: // BVS
		s.branch(s.ReadPC8Bit(), s.reg.flagSet(flagV))

	case 0x90: // BCC
		s.branch(s.ReadPC8Bit(), !s.reg.flagSet(flagC))

	case 0xB0: // BCS
		s.branch(s.ReadPC8Bit(), s.reg.flagSet(flagC))

	case 0xD0: // BNE
		s.branch(s.ReadPC8Bit(), !s.reg.flagSet(flagZ))

	case 0xF0: // BEQ
		s.branch(s.ReadPC8Bit(), s.reg.flagSet(flagZ))

	case 0x03, 0x23, 0x43, 0x63, 0x83, 0xA3, 0xC3, 0xE3: // BBS Direct.bit
		op := s.loadMode(modeDirect)
		offset := s.ReadPC8Bit()
		s.branch(offset, bit.IsSet(opcode>>5, s.read8(op)))

	case 0x13, 0x33, 0x53, 0x73, 0x93, 0xB3, 0xD3, 0xF3: // BBC Direct.bit
		op := s.loadMode(modeDirect)
		offset := s.ReadPC8Bit()
		s.branch(offset, !bit.IsSet(opcode>>5, s.read8(op)))

	case 0x2E: // CBNE Direct
		op := s.loadMode(modeDirect)
		offset := s.ReadPC8Bit()
		s.branch(offset, s.reg.a != s.read8(op))

	case 0xDE: // CBNE Direct,X
		op := s.loadMode(modeDirectX)
		offset := s.ReadPC8Bit()
		s.branch(offset, s.reg.a != s.read8(op))

	case 0x6E: // DBNZ Direct
		op := s.loadMode(modeDirect)
		offset := s.ReadPC8Bit()
		value := s.read8(op) - 1
		s.write8(op, value)
		s.branch(offset, value != 0)

	case 0xFE: // DBNZ Y
		offset := s.ReadPC8Bit()
		s.reg.y--
		s.branch(offset, s.reg.y != 0)

	case 0x5F: // JMP !Absolute
		op := s.loadMode(modeAbsolute)
		s.reg.pc = op.addr

	case 0x1F: // JMP [!Absolute+X]
		op := s.loadMode(modeAbsoluteX)
		s.reg.pc = s.bus.Read16(op.addr)

	// ------------------------------------------------------------------
	// Subroutines
	// ------------------------------------------------------------------

	case 0x3F: // CALL !Absolute
		op := s.loadMode(modeAbsolute)
		s.push(bit.High(s.reg.pc))
		s.push(bit.Low(s.reg.pc))
		s.reg.pc = op.addr

	case 0x4F: // PCALL
		target := s.ReadPC8Bit()
		s.push(bit.High(s.reg.pc))
		s.push(bit.Low(s.reg.pc))
		s.reg.pc = 0xFF00 | uint16(target)

	case 0x01, 0x11, 0x21, 0x31, 0x41, 0x51, 0x61, 0x71,
		0x81, 0x91, 0xA1, 0xB1, 0xC1, 0xD1, 0xE1, 0xF1: // TCALL n
		n := uint16(opcode >> 4)
		s.push(bit.High(s.reg.pc))
		s.push(bit.Low(s.reg.pc))
		s.reg.pc = s.bus.Read16(0xFFDE - 2*n)

	case 0x0F: // BRK
		s.push(bit.High(s.reg.pc))
		s.push(bit.Low(s.reg.pc))
		s.push(s.reg.p)
		s.reg.setFlag(flagB, true)
		s.reg.setFlag(flagI, false)
		s.reg.pc = s.bus.Read16(0xFFDE)

	case 0x6F: // RET
		pcl := s.pop()
		pch := s.pop()
		s.reg.pc = bit.Combine(pch, pcl)

	case 0x7F: // RETI
		s.reg.p = s.pop()
		pcl := s.pop()
		pch := s.pop()
		s.reg.pc = bit.Combine(pch, pcl)

	// ------------------------------------------------------------------
	// Flags
	// ------------------------------------------------------------------

	case 0x60: // CLRC
		s.reg.setFlag(flagC, false)

	case 0x80: // SETC
		s.reg.setFlag(flagC, true)

	case 0xED: // NOTC
		s.reg.p ^= flagC

	case 0xE0: // CLRV
		s.reg.setFlag(flagV, false)
		s.reg.setFlag(flagH, false)

	case 0x20: // CLRP
		s.reg.setFlag(flagP, false)

	case 0x40: // SETP
		s.reg.setFlag(flagP, true)

	case 0xA0: // EI
		s.reg.setFlag(flagI, true)

	case 0xC0: // DI
		s.reg.setFlag(flagI, false)

	// ------------------------------------------------------------------
	// Decimal adjust
	// ------------------------------------------------------------------

	case 0xDF: // DAA
		if s.reg.a > 0x99 || s.reg.flagSet(flagC) {
			s.reg.a += 0x60
			s.reg.setFlag(flagC, true)
		}
		if s.reg.a&0x0F > 0x09 || s.reg.flagSet(flagH) {
			s.reg.a += 0x06
		}
		s.setNZ(s.reg.a)

	case 0xBE: // DAS
		if s.reg.a > 0x99 || !s.reg.flagSet(flagC) {
			s.reg.a -= 0x60
			s.reg.setFlag(flagC, false)
		}
		if s.reg.a&0x0F > 0x09 || !s.reg.flagSet(flagH) {
			s.reg.a -= 0x06
		}
		s.setNZ(s.reg.a)

	// ------------------------------------------------------------------
	// Misc
	// ------------------------------------------------------------------

	case 0x00: // NOP

	case 0xEF, 0xFF: // SLEEP, STOP
		s.waiting = true

	default:
		panic(&IllegalDecodeError{Opcode: opcode, PC: s.reg.pc - 1})
	}
}
