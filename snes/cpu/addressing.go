package cpu

import (
	"github.com/valerio/go-snes/snes/bit"
	"github.com/valerio/go-snes/snes/memory"
)

// addrMode identifies one of the 65C816 addressing modes. The polymorphic
// mode objects of a classic implementation become one resolver switch; each
// resolved operand carries only the data it needs.
type addrMode uint8

const (
	modeNone addrMode = iota
	modeImmediate
	modeAccumulator
	modeAbsolute                     // a
	modeAbsoluteIndexedX             // a,x
	modeAbsoluteIndexedY             // a,y
	modeAbsoluteLong                 // al
	modeAbsoluteLongIndexedX         // al,x
	modeAbsoluteIndirect             // (a)
	modeAbsoluteIndirectLong         // [a]
	modeAbsoluteIndexedIndirect      // (a,x)
	modeDirect                       // d
	modeDirectIndexedX               // d,x
	modeDirectIndexedY               // d,y
	modeDirectIndirect               // (d)
	modeDirectIndirectLong           // [d]
	modeDirectIndexedIndirect        // (d,x)
	modeDirectIndirectIndexed        // (d),y
	modeDirectIndirectLongIndexed    // [d],y
	modeStackRelative                // d,s
	modeStackRelativeIndirectIndexed // (d,s),y
)

// Shared mode table indexed by opcode & 0x1F, matching the column layout of
// the opcode matrix.
var addressModes = [32]addrMode{
	0x00: modeImmediate,
	0x01: modeDirectIndexedIndirect,
	0x02: modeImmediate,
	0x03: modeStackRelative,
	0x04: modeDirect,
	0x05: modeDirect,
	0x06: modeDirect,
	0x07: modeDirectIndirectLong,
	0x09: modeImmediate,
	0x0A: modeAccumulator,
	0x0C: modeAbsolute,
	0x0D: modeAbsolute,
	0x0E: modeAbsolute,
	0x0F: modeAbsoluteLong,
	0x11: modeDirectIndirectIndexed,
	0x12: modeDirectIndirect,
	0x13: modeStackRelativeIndirectIndexed,
	0x14: modeDirectIndexedX,
	0x15: modeDirectIndexedX,
	0x16: modeDirectIndexedX,
	0x17: modeDirectIndirectLongIndexed,
	0x19: modeAbsoluteIndexedY,
	0x1A: modeAccumulator,
	0x1C: modeAbsoluteIndexedX,
	0x1D: modeAbsoluteIndexedX,
	0x1E: modeAbsoluteIndexedX,
	0x1F: modeAbsoluteLongIndexedX,
}

// Special cases for certain opcodes of LDX, STX, STZ.
var addressModeAlternate = [32]addrMode{
	0x16: modeDirectIndexedY, // LDX, STX
	0x1C: modeAbsolute,       // STZ
	0x1E: modeAbsoluteIndexedY, // LDX
}

// Jump targets use their own table, indexed by opcode >> 4.
var jmpAddressModes = [16]addrMode{
	0x02: modeAbsolute,                // JSR 0x20
	0x04: modeAbsolute,                // JMP 0x4C
	0x05: modeAbsoluteLong,            // JMP 0x5C
	0x06: modeAbsoluteIndirect,        // JMP 0x6C
	0x07: modeAbsoluteIndexedIndirect, // JMP 0x7C
	0x0D: modeAbsoluteIndirectLong,    // JMP 0xDC
	0x0F: modeAbsoluteIndexedIndirect, // JSR 0xFC
}

type operandKind uint8

const (
	operandMemory operandKind = iota
	operandAccumulator
	operandImmediate
	operandAddressOnly // jump targets: resolved but not readable
)

// operand is a resolved addressing mode.
type operand struct {
	kind operandKind
	addr memory.Address
	// wrapBank: 16 bit composite accesses stay within the bank (direct and
	// stack-relative modes).
	wrapBank bool
	imm      uint16
	imm16    bool
}

// directBase computes the direct-page operand address, honoring the
// emulation-mode page wrap: when the direct-page low byte is zero the index
// add wraps within the page.
func (c *CPU) directBase(data8 uint8, index uint16) uint16 {
	if c.reg.emulationMode && c.reg.dl() == 0 {
		return bit.Combine(c.reg.dh(), data8+uint8(index))
	}
	return uint16(data8) + c.reg.d + index
}

// loadMode resolves one addressing mode, consuming operand bytes from the
// instruction stream and indirecting through the bus as needed.
func (c *CPU) loadMode(mode addrMode) operand {
	switch mode {
	case modeImmediate:
		return c.loadImmediate()

	case modeAccumulator:
		return operand{kind: operandAccumulator}

	case modeAbsolute:
		data16 := c.ReadPC16Bit()
		return operand{addr: memory.MakeAddress(c.reg.db, data16)}

	case modeAbsoluteIndexedX:
		data16 := c.ReadPC16Bit()
		return operand{addr: memory.MakeAddress(c.reg.db, data16).AddOffset(c.reg.x)}

	case modeAbsoluteIndexedY:
		data16 := c.ReadPC16Bit()
		return operand{addr: memory.MakeAddress(c.reg.db, data16).AddOffset(c.reg.y)}

	case modeAbsoluteLong:
		return operand{addr: memory.Address(c.ReadPC24Bit())}

	case modeAbsoluteLongIndexedX:
		data24 := c.ReadPC24Bit()
		return operand{addr: memory.Address(data24).AddOffset(c.reg.x)}

	case modeAbsoluteIndirect:
		data16 := c.ReadPC16Bit()
		target := c.bus.Read16WrapBank(memory.MakeAddress(0, data16))
		return operand{kind: operandAddressOnly, addr: memory.MakeAddress(0, target)}

	case modeAbsoluteIndirectLong:
		data16 := c.ReadPC16Bit()
		target := c.bus.Read24WrapBank(memory.MakeAddress(0, data16))
		return operand{kind: operandAddressOnly, addr: memory.Address(target)}

	case modeAbsoluteIndexedIndirect:
		data16 := c.ReadPC16Bit()
		target := c.bus.Read16WrapBank(memory.MakeAddress(c.reg.pb, data16+c.reg.x))
		return operand{kind: operandAddressOnly, addr: memory.MakeAddress(c.reg.pb, target)}

	case modeDirect:
		data8 := c.ReadPC8Bit()
		return operand{addr: memory.MakeAddress(0, c.directBase(data8, 0)), wrapBank: true}

	case modeDirectIndexedX:
		data8 := c.ReadPC8Bit()
		return operand{addr: memory.MakeAddress(0, c.directBase(data8, c.reg.x)), wrapBank: true}

	case modeDirectIndexedY:
		data8 := c.ReadPC8Bit()
		return operand{addr: memory.MakeAddress(0, c.directBase(data8, c.reg.y)), wrapBank: true}

	case modeDirectIndirect:
		data8 := c.ReadPC8Bit()
		pointer := c.bus.Read16WrapBank(memory.MakeAddress(0, c.directBase(data8, 0)))
		return operand{addr: memory.MakeAddress(c.reg.db, pointer)}

	case modeDirectIndirectLong:
		data8 := c.ReadPC8Bit()
		return operand{addr: memory.Address(c.bus.Read24WrapBank(memory.MakeAddress(0, c.directBase(data8, 0))))}

	case modeDirectIndexedIndirect:
		data8 := c.ReadPC8Bit()
		pointer := c.bus.Read16WrapBank(memory.MakeAddress(0, c.directBase(data8, c.reg.x)))
		return operand{addr: memory.MakeAddress(c.reg.db, pointer)}

	case modeDirectIndirectIndexed:
		data8 := c.ReadPC8Bit()
		pointer := c.bus.Read16WrapBank(memory.MakeAddress(0, c.directBase(data8, 0)))
		return operand{addr: memory.MakeAddress(c.reg.db, pointer).AddOffset(c.reg.y)}

	case modeDirectIndirectLongIndexed:
		data8 := c.ReadPC8Bit()
		target := c.bus.Read24WrapBank(memory.MakeAddress(0, c.directBase(data8, 0)))
		return operand{addr: memory.Address(target).AddOffset(c.reg.y)}

	case modeStackRelative:
		data8 := c.ReadPC8Bit()
		return operand{addr: memory.MakeAddress(0, uint16(data8)+c.reg.sp), wrapBank: true}

	case modeStackRelativeIndirectIndexed:
		data8 := c.ReadPC8Bit()
		pointer := c.bus.Read16WrapBank(memory.MakeAddress(0, uint16(data8)+c.reg.sp))
		return operand{addr: memory.MakeAddress(c.reg.db, pointer).AddOffset(c.reg.y)}

	default:
		panic(&IllegalDecodeError{Opcode: c.opcode, Addr: c.FullPC()})
	}
}

// loadImmediate reads one or two bytes depending on the register width the
// opcode targets: the accumulator column (0x[02468ACE]9) consults m, the
// LDX/LDY/CPX/CPY immediates (0xA2, 0x[ACE]0) consult x.
func (c *CPU) loadImmediate() operand {
	wide := (c.opcode&0x1F == 0x09 && !c.reg.flagSet(flagM)) ||
		((c.opcode&0x9F == 0x80 || c.opcode == 0xA2) && !c.reg.flagSet(flagX))

	if wide {
		return operand{kind: operandImmediate, imm: c.ReadPC16Bit(), imm16: true}
	}
	return operand{kind: operandImmediate, imm: uint16(c.ReadPC8Bit())}
}

func (c *CPU) read8(op operand) uint8 {
	switch op.kind {
	case operandAccumulator:
		return c.reg.al()
	case operandImmediate:
		return uint8(op.imm)
	case operandMemory:
		return c.bus.Read8(op.addr)
	default:
		panic(&IllegalDecodeError{Opcode: c.opcode, Addr: c.FullPC()})
	}
}

func (c *CPU) read16(op operand) uint16 {
	switch op.kind {
	case operandAccumulator:
		return c.reg.a
	case operandImmediate:
		return op.imm
	case operandMemory:
		if op.wrapBank {
			return c.bus.Read16WrapBank(op.addr)
		}
		return c.bus.Read16(op.addr)
	default:
		panic(&IllegalDecodeError{Opcode: c.opcode, Addr: c.FullPC()})
	}
}

func (c *CPU) write8(op operand, value uint8) {
	switch op.kind {
	case operandAccumulator:
		c.reg.setAL(value)
	case operandMemory:
		c.bus.Write8(op.addr, value)
	default:
		panic(&IllegalDecodeError{Opcode: c.opcode, Addr: c.FullPC()})
	}
}

func (c *CPU) write16(op operand, value uint16) {
	switch op.kind {
	case operandAccumulator:
		c.reg.a = value
	case operandMemory:
		if op.wrapBank {
			c.bus.Write16WrapBank(op.addr, value)
		} else {
			c.bus.Write16(op.addr, value)
		}
	default:
		panic(&IllegalDecodeError{Opcode: c.opcode, Addr: c.FullPC()})
	}
}
