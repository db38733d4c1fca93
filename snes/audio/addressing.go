package audio

import "fmt"

// addrMode identifies one of the SPC700's addressing modes.
type addrMode uint8

const (
	modeNone addrMode = iota
	modeAbsolute
	modeAbsoluteX
	modeAbsoluteY
	modeAccumulator
	modeDirect
	modeDirectX
	modeDirectY
	modeImmediate
	modeIndirectX        // (X)
	modeIndirectY        // (Y)
	modeIndirectIndexedX // [d+X]
	modeIndirectIndexedY // [d]+Y
)

// operandKind says where an operand lives once the mode is resolved.
type operandKind uint8

const (
	operandMemory operandKind = iota
	operandAccumulator
	operandImmediate
)

// operand is a resolved addressing mode: either a bus address (optionally
// with direct-page wrapping for 16 bit accesses), the accumulator, or an
// immediate byte already consumed from the instruction stream.
type operand struct {
	kind     operandKind
	addr     uint16
	wrapPage bool
	imm      uint8
}

// Mode table shared by most ALU opcodes, indexed by opcode & 0x1F.
var addressModes = [32]addrMode{
	0x04: modeDirect,
	0x05: modeAbsolute,
	0x06: modeIndirectX,
	0x07: modeIndirectIndexedX,
	0x08: modeImmediate,
	0x0B: modeDirect,
	0x0C: modeAbsolute,
	0x0D: modeImmediate,
	0x14: modeDirectX,
	0x15: modeAbsoluteX,
	0x16: modeAbsoluteY,
	0x17: modeIndirectIndexedY,
	0x1A: modeDirect,
	0x1B: modeDirectX,
	0x1C: modeAccumulator,
}

// Mode table for the MOV X/Y opcode groups, whose low-five-bit patterns
// collide with the shared table.
var addressModesMovXY = [32]addrMode{
	0x09: modeAbsolute,
	0x0B: modeDirect,
	0x0C: modeAbsolute,
	0x0D: modeImmediate,
	0x18: modeDirect,
	0x19: modeDirectY,
	0x1B: modeDirectX,
}

// directPage returns the base of the zero page selected by the p flag.
func (s *Spc700) directPage() uint16 {
	if s.reg.flagSet(flagP) {
		return 0x0100
	}
	return 0
}

// loadMode resolves one addressing mode, consuming operand bytes from the
// instruction stream as needed.
func (s *Spc700) loadMode(mode addrMode) operand {
	switch mode {
	case modeAbsolute:
		return operand{addr: s.ReadPC16Bit()}
	case modeAbsoluteX:
		return operand{addr: s.ReadPC16Bit() + uint16(s.reg.x)}
	case modeAbsoluteY:
		return operand{addr: s.ReadPC16Bit() + uint16(s.reg.y)}
	case modeAccumulator:
		return operand{kind: operandAccumulator}
	case modeDirect:
		return operand{addr: s.directPage() | uint16(s.ReadPC8Bit()), wrapPage: true}
	case modeDirectX:
		// The index add wraps within the page; no carry into the selector.
		return operand{addr: s.directPage() | uint16(s.ReadPC8Bit()+s.reg.x), wrapPage: true}
	case modeDirectY:
		return operand{addr: s.directPage() | uint16(s.ReadPC8Bit()+s.reg.y), wrapPage: true}
	case modeImmediate:
		return operand{kind: operandImmediate, imm: s.ReadPC8Bit()}
	case modeIndirectX:
		return operand{addr: s.directPage() | uint16(s.reg.x)}
	case modeIndirectY:
		return operand{addr: s.directPage() | uint16(s.reg.y)}
	case modeIndirectIndexedX:
		ptr := s.directPage() | uint16(s.ReadPC8Bit()+s.reg.x)
		return operand{addr: s.bus.Read16WrapPage(ptr)}
	case modeIndirectIndexedY:
		ptr := s.directPage() | uint16(s.ReadPC8Bit())
		return operand{addr: s.bus.Read16WrapPage(ptr) + uint16(s.reg.y)}
	default:
		panic(&IllegalDecodeError{Opcode: s.opcode, PC: s.reg.pc})
	}
}

func (s *Spc700) read8(op operand) uint8 {
	switch op.kind {
	case operandAccumulator:
		return s.reg.a
	case operandImmediate:
		return op.imm
	default:
		return s.bus.Read8(op.addr)
	}
}

func (s *Spc700) read16(op operand) uint16 {
	if op.kind != operandMemory {
		panic(&IllegalDecodeError{Opcode: s.opcode, PC: s.reg.pc})
	}
	if op.wrapPage {
		return s.bus.Read16WrapPage(op.addr)
	}
	return s.bus.Read16(op.addr)
}

func (s *Spc700) write8(op operand, value uint8) {
	switch op.kind {
	case operandAccumulator:
		s.reg.a = value
	case operandImmediate:
		panic(&IllegalDecodeError{Opcode: s.opcode, PC: s.reg.pc})
	default:
		s.bus.Write8(op.addr, value)
	}
}

func (s *Spc700) write16(op operand, value uint16) {
	if op.kind != operandMemory {
		panic(&IllegalDecodeError{Opcode: s.opcode, PC: s.reg.pc})
	}
	if op.wrapPage {
		s.bus.Write16WrapPage(op.addr, value)
	} else {
		s.bus.Write16(op.addr, value)
	}
}

// bitOperand splits the 16 bit operand of the absolute-bit opcodes into a
// 13 bit address and a bit index in the top 3 bits.
func (s *Spc700) bitOperand() (uint16, uint8) {
	raw := s.ReadPC16Bit()
	return raw & 0x1FFF, uint8(raw >> 13)
}

// IllegalDecodeError is raised for undecodable opcode/mode combinations.
type IllegalDecodeError struct {
	Opcode uint8
	PC     uint16
}

func (e *IllegalDecodeError) Error() string {
	return fmt.Sprintf("illegal SPC700 decode: opcode 0x%02X near PC 0x%04X", e.Opcode, e.PC)
}
