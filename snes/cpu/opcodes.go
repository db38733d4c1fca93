package cpu

import (
	"github.com/valerio/go-snes/snes/addr"
	"github.com/valerio/go-snes/snes/bit"
	"github.com/valerio/go-snes/snes/memory"
)

// branch adds a signed 8 bit offset to PC when taken.
func (c *CPU) branch(offset uint8, taken bool) {
	if taken {
		c.reg.pc += uint16(int16(int8(offset)))
	}
}

// ProcessOpCode decodes and executes one instruction.
func (c *CPU) ProcessOpCode() {
	opcode := c.ReadPC8Bit()
	c.opcode = opcode

	switch opcode {

	// ------------------------------------------------------------------
	// Register to register transfers
	// ------------------------------------------------------------------

	case 0xAA: // TAX
		if c.isIndex16Bit() {
			c.loadRegister16(&c.reg.x, c.reg.a)
		} else {
			c.loadRegisterLow(&c.reg.x, c.reg.al())
		}

	case 0xA8: // TAY
		if c.isIndex16Bit() {
			c.loadRegister16(&c.reg.y, c.reg.a)
		} else {
			c.loadRegisterLow(&c.reg.y, c.reg.al())
		}

	case 0xBA: // TSX
		if c.isIndex16Bit() {
			c.loadRegister16(&c.reg.x, c.reg.sp)
		} else {
			c.loadRegisterLow(&c.reg.x, c.reg.sl())
		}

	case 0x8A: // TXA
		if c.isAccumulator16Bit() {
			c.loadRegister16(&c.reg.a, c.reg.x)
		} else {
			c.loadRegisterLow(&c.reg.a, c.reg.xl())
		}

	case 0x9A: // TXS
		// No flags. The stack page is pinned to 0x01 in emulation mode.
		if c.reg.emulationMode {
			c.reg.sp = 0x0100 | uint16(c.reg.xl())
		} else {
			c.reg.sp = c.reg.x
		}

	case 0x9B: // TXY
		if c.isIndex16Bit() {
			c.loadRegister16(&c.reg.y, c.reg.x)
		} else {
			c.loadRegisterLow(&c.reg.y, c.reg.xl())
		}

	case 0x98: // TYA
		if c.isAccumulator16Bit() {
			c.loadRegister16(&c.reg.a, c.reg.y)
		} else {
			c.loadRegisterLow(&c.reg.a, c.reg.yl())
		}

	case 0xBB: // TYX
		if c.isIndex16Bit() {
			c.loadRegister16(&c.reg.x, c.reg.y)
		} else {
			c.loadRegisterLow(&c.reg.x, c.reg.yl())
		}

	case 0x5B: // TCD
		c.loadRegister16(&c.reg.d, c.reg.a)

	case 0x1B: // TCS
		// No flags. The stack page is pinned to 0x01 in emulation mode.
		if c.reg.emulationMode {
			c.reg.sp = 0x0100 | uint16(c.reg.al())
		} else {
			c.reg.sp = c.reg.a
		}

	case 0x7B: // TDC
		c.loadRegister16(&c.reg.a, c.reg.d)

	case 0x3B: // TSC
		c.loadRegister16(&c.reg.a, c.reg.sp)

	case 0xEB: // XBA - swap accumulator halves; N/Z follow the new low byte
		al, ah := c.reg.al(), c.reg.ah()
		c.reg.setAL(ah)
		c.reg.setAH(al)
		c.setNZ8(c.reg.al())

	// ------------------------------------------------------------------
	// Loads
	// ------------------------------------------------------------------

	case 0xA1, 0xA3, 0xA5, 0xA7, 0xA9, 0xAD, 0xAF,
		0xB1, 0xB2, 0xB3, 0xB5, 0xB7, 0xB9, 0xBD, 0xBF: // LDA
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			c.loadRegister16(&c.reg.a, c.read16(op))
		} else {
			c.loadRegisterLow(&c.reg.a, c.read8(op))
		}

	case 0xA2, 0xA6, 0xAE, 0xB6, 0xBE: // LDX
		// Opcodes 0xB6 and 0xBE index by Y instead of X.
		mode := addressModes[opcode&0x1F]
		if opcode&0x10 != 0 {
			mode = addressModeAlternate[opcode&0x1F]
		}
		op := c.loadMode(mode)
		if c.isIndex16Bit() {
			c.loadRegister16(&c.reg.x, c.read16(op))
		} else {
			c.loadRegisterLow(&c.reg.x, c.read8(op))
		}

	case 0xA0, 0xA4, 0xAC, 0xB4, 0xBC: // LDY
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isIndex16Bit() {
			c.loadRegister16(&c.reg.y, c.read16(op))
		} else {
			c.loadRegisterLow(&c.reg.y, c.read8(op))
		}

	// ------------------------------------------------------------------
	// Stores
	// ------------------------------------------------------------------

	case 0x81, 0x83, 0x85, 0x87, 0x8D, 0x8F,
		0x91, 0x92, 0x93, 0x95, 0x97, 0x99, 0x9D, 0x9F: // STA
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			c.write16(op, c.reg.a)
		} else {
			c.write8(op, c.reg.al())
		}

	case 0x86, 0x8E, 0x96: // STX
		mode := addressModes[opcode&0x1F]
		if opcode == 0x96 {
			mode = addressModeAlternate[opcode&0x1F]
		}
		op := c.loadMode(mode)
		if c.isIndex16Bit() {
			c.write16(op, c.reg.x)
		} else {
			c.write8(op, c.reg.xl())
		}

	case 0x84, 0x8C, 0x94: // STY
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isIndex16Bit() {
			c.write16(op, c.reg.y)
		} else {
			c.write8(op, c.reg.yl())
		}

	case 0x64, 0x74, 0x9C, 0x9E: // STZ
		mode := addressModes[opcode&0x1F]
		if opcode == 0x9C {
			mode = addressModeAlternate[opcode&0x1F]
		}
		op := c.loadMode(mode)
		if c.isAccumulator16Bit() {
			c.write16(op, 0)
		} else {
			c.write8(op, 0)
		}

	// ------------------------------------------------------------------
	// Stack
	// ------------------------------------------------------------------

	case 0x48: // PHA
		if c.isAccumulator16Bit() {
			c.push16(c.reg.a)
		} else {
			c.push8(c.reg.al())
		}

	case 0xDA: // PHX
		if c.isIndex16Bit() {
			c.push16(c.reg.x)
		} else {
			c.push8(c.reg.xl())
		}

	case 0x5A: // PHY
		if c.isIndex16Bit() {
			c.push16(c.reg.y)
		} else {
			c.push8(c.reg.yl())
		}

	case 0x8B: // PHB
		c.push8(c.reg.db)

	case 0x0B: // PHD
		c.push16(c.reg.d)

	case 0x4B: // PHK
		c.push8(c.reg.pb)

	case 0x08: // PHP
		c.push8(c.reg.p)

	case 0xF4: // PEA
		c.push16(c.ReadPC16Bit())

	case 0xD4: // PEI
		op := c.loadMode(modeDirect)
		c.push16(c.read16(op))

	case 0x62: // PER
		offset := int16(c.ReadPC16Bit())
		c.push16(c.reg.pc + uint16(offset))

	case 0x68: // PLA
		if c.isAccumulator16Bit() {
			c.reg.a = c.pop16()
			c.setNZ16(c.reg.a)
		} else {
			c.reg.setAL(c.pop8())
			c.setNZ8(c.reg.al())
		}

	case 0xFA: // PLX
		if c.isIndex16Bit() {
			c.reg.x = c.pop16()
			c.setNZ16(c.reg.x)
		} else {
			c.reg.setXL(c.pop8())
			c.setNZ8(c.reg.xl())
		}

	case 0x7A: // PLY
		if c.isIndex16Bit() {
			c.reg.y = c.pop16()
			c.setNZ16(c.reg.y)
		} else {
			c.reg.setYL(c.pop8())
			c.setNZ8(c.reg.yl())
		}

	case 0xAB: // PLB
		c.reg.db = c.pop8()
		c.setNZ8(c.reg.db)

	case 0x2B: // PLD
		c.reg.d = c.pop16()
		c.setNZ16(c.reg.d)

	case 0x28: // PLP
		c.reg.p = c.pop8()
		c.updateRegistersAfterFlagChange()

	// ------------------------------------------------------------------
	// Logical
	// ------------------------------------------------------------------

	case 0x21, 0x23, 0x25, 0x27, 0x29, 0x2D, 0x2F,
		0x31, 0x32, 0x33, 0x35, 0x37, 0x39, 0x3D, 0x3F: // AND
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			c.reg.a &= c.read16(op)
			c.setNZ16(c.reg.a)
		} else {
			c.reg.setAL(c.reg.al() & c.read8(op))
			c.setNZ8(c.reg.al())
		}

	case 0x41, 0x43, 0x45, 0x47, 0x49, 0x4D, 0x4F,
		0x51, 0x52, 0x53, 0x55, 0x57, 0x59, 0x5D, 0x5F: // EOR
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			c.reg.a ^= c.read16(op)
			c.setNZ16(c.reg.a)
		} else {
			c.reg.setAL(c.reg.al() ^ c.read8(op))
			c.setNZ8(c.reg.al())
		}

	case 0x01, 0x03, 0x05, 0x07, 0x09, 0x0D, 0x0F,
		0x11, 0x12, 0x13, 0x15, 0x17, 0x19, 0x1D, 0x1F: // ORA
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			c.reg.a |= c.read16(op)
			c.setNZ16(c.reg.a)
		} else {
			c.reg.setAL(c.reg.al() | c.read8(op))
			c.setNZ8(c.reg.al())
		}

	// ------------------------------------------------------------------
	// Arithmetic
	// ------------------------------------------------------------------

	case 0x61, 0x63, 0x65, 0x67, 0x69, 0x6D, 0x6F,
		0x71, 0x72, 0x73, 0x75, 0x77, 0x79, 0x7D, 0x7F: // ADC
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			c.adc16(c.read16(op))
		} else {
			c.adc8(c.read8(op))
		}

	case 0xE1, 0xE3, 0xE5, 0xE7, 0xE9, 0xED, 0xEF,
		0xF1, 0xF2, 0xF3, 0xF5, 0xF7, 0xF9, 0xFD, 0xFF: // SBC
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			c.sbc16(c.read16(op))
		} else {
			c.sbc8(c.read8(op))
		}

	case 0x3A, 0xC6, 0xCE, 0xD6, 0xDE: // DEC
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			value := c.read16(op) - 1
			c.write16(op, value)
			c.setNZ16(value)
		} else {
			value := c.read8(op) - 1
			c.write8(op, value)
			c.setNZ8(value)
		}

	case 0xCA: // DEX
		if c.isIndex16Bit() {
			c.reg.x--
			c.setNZ16(c.reg.x)
		} else {
			c.reg.setXL(c.reg.xl() - 1)
			c.setNZ8(c.reg.xl())
		}

	case 0x88: // DEY
		if c.isIndex16Bit() {
			c.reg.y--
			c.setNZ16(c.reg.y)
		} else {
			c.reg.setYL(c.reg.yl() - 1)
			c.setNZ8(c.reg.yl())
		}

	case 0x1A, 0xE6, 0xEE, 0xF6, 0xFE: // INC
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			value := c.read16(op) + 1
			c.write16(op, value)
			c.setNZ16(value)
		} else {
			value := c.read8(op) + 1
			c.write8(op, value)
			c.setNZ8(value)
		}

	case 0xE8: // INX
		if c.isIndex16Bit() {
			c.reg.x++
			c.setNZ16(c.reg.x)
		} else {
			c.reg.setXL(c.reg.xl() + 1)
			c.setNZ8(c.reg.xl())
		}

	case 0xC8: // INY
		if c.isIndex16Bit() {
			c.reg.y++
			c.setNZ16(c.reg.y)
		} else {
			c.reg.setYL(c.reg.yl() + 1)
			c.setNZ8(c.reg.yl())
		}

	// ------------------------------------------------------------------
	// Compares
	// ------------------------------------------------------------------

	case 0xC1, 0xC3, 0xC5, 0xC7, 0xC9, 0xCD, 0xCF,
		0xD1, 0xD2, 0xD3, 0xD5, 0xD7, 0xD9, 0xDD, 0xDF: // CMP
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			c.compare16(c.reg.a, c.read16(op))
		} else {
			c.compare8(c.reg.al(), c.read8(op))
		}

	case 0xE0, 0xE4, 0xEC: // CPX
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isIndex16Bit() {
			c.compare16(c.reg.x, c.read16(op))
		} else {
			c.compare8(c.reg.xl(), c.read8(op))
		}

	case 0xC0, 0xC4, 0xCC: // CPY
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isIndex16Bit() {
			c.compare16(c.reg.y, c.read16(op))
		} else {
			c.compare8(c.reg.yl(), c.read8(op))
		}

	// ------------------------------------------------------------------
	// Bit test/set/reset
	// ------------------------------------------------------------------

	case 0x24, 0x2C, 0x34, 0x3C: // BIT
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			value := c.read16(op)
			// N and V reflect the operand, not the AND result.
			c.reg.setFlag(flagN, value&0x8000 != 0)
			c.reg.setFlag(flagV, value&0x4000 != 0)
			c.reg.setFlag(flagZ, c.reg.a&value == 0)
		} else {
			value := c.read8(op)
			c.reg.setFlag(flagN, value&0x80 != 0)
			c.reg.setFlag(flagV, value&0x40 != 0)
			c.reg.setFlag(flagZ, c.reg.al()&value == 0)
		}

	case 0x89: // BIT Immediate - only Z changes
		op := c.loadMode(modeImmediate)
		if c.isAccumulator16Bit() {
			c.reg.setFlag(flagZ, c.reg.a&c.read16(op) == 0)
		} else {
			c.reg.setFlag(flagZ, c.reg.al()&c.read8(op) == 0)
		}

	case 0x14, 0x1C: // TRB
		// The TRB column collides with the shared table; mask with 0x0F.
		op := c.loadMode(addressModes[opcode&0x0F])
		if c.isAccumulator16Bit() {
			value := c.read16(op)
			c.reg.setFlag(flagZ, c.reg.a&value == 0)
			c.write16(op, ^c.reg.a&value)
		} else {
			value := c.read8(op)
			c.reg.setFlag(flagZ, c.reg.al()&value == 0)
			c.write8(op, ^c.reg.al()&value)
		}

	case 0x04, 0x0C: // TSB
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			value := c.read16(op)
			c.reg.setFlag(flagZ, c.reg.a&value == 0)
			c.write16(op, c.reg.a|value)
		} else {
			value := c.read8(op)
			c.reg.setFlag(flagZ, c.reg.al()&value == 0)
			c.write8(op, c.reg.al()|value)
		}

	// ------------------------------------------------------------------
	// Shifts and rotates
	// ------------------------------------------------------------------

	case 0x06, 0x0A, 0x0E, 0x16, 0x1E: // ASL
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			value := c.read16(op)
			result := value << 1
			c.reg.setFlag(flagC, value&0x8000 != 0)
			c.setNZ16(result)
			c.write16(op, result)
		} else {
			value := c.read8(op)
			result := value << 1
			c.reg.setFlag(flagC, value&0x80 != 0)
			c.setNZ8(result)
			c.write8(op, result)
		}

	case 0x46, 0x4A, 0x4E, 0x56, 0x5E: // LSR
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			value := c.read16(op)
			result := value >> 1
			c.reg.setFlag(flagC, value&0x01 != 0)
			c.setNZ16(result)
			c.write16(op, result)
		} else {
			value := c.read8(op)
			result := value >> 1
			c.reg.setFlag(flagC, value&0x01 != 0)
			c.setNZ8(result)
			c.write8(op, result)
		}

	case 0x26, 0x2A, 0x2E, 0x36, 0x3E: // ROL
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			value := c.read16(op)
			result := (value << 1) | c.reg.carry()
			c.reg.setFlag(flagC, value&0x8000 != 0)
			c.setNZ16(result)
			c.write16(op, result)
		} else {
			value := c.read8(op)
			result := (value << 1) | uint8(c.reg.carry())
			c.reg.setFlag(flagC, value&0x80 != 0)
			c.setNZ8(result)
			c.write8(op, result)
		}

	case 0x66, 0x6A, 0x6E, 0x76, 0x7E: // ROR
		op := c.loadMode(addressModes[opcode&0x1F])
		if c.isAccumulator16Bit() {
			value := c.read16(op)
			result := (value >> 1) | (c.reg.carry() << 15)
			c.reg.setFlag(flagC, value&0x01 != 0)
			c.setNZ16(result)
			c.write16(op, result)
		} else {
			value := c.read8(op)
			result := (value >> 1) | (uint8(c.reg.carry()) << 7)
			c.reg.setFlag(flagC, value&0x01 != 0)
			c.setNZ8(result)
			c.write8(op, result)
		}

	// ------------------------------------------------------------------
	// Branches
	// ------------------------------------------------------------------

	case 0x80: // BRA
		c.branch(c.ReadPC8Bit(), true)

	case 0x82: // BRL
		offset := int16(c.ReadPC16Bit())
		c.reg.pc += uint16(offset)

	case 0x10: // BPL
		c.branch(c.ReadPC8Bit(), !c.reg.flagSet(flagN))

	case 0x30: // BMI
		c.branch(c.ReadPC8Bit(), c.reg.flagSet(flagN))

	case 0x50: // BVC
		c.branch(c.ReadPC8Bit(), !c.reg.flagSet(flagV))

	case 0x70: // BVS
		c.branch(c.ReadPC8Bit(), c.reg.flagSet(flagV))

	case 0x90: // BCC
		c.branch(c.ReadPC8Bit(), !c.reg.flagSet(flagC))

	case 0xB0: // BCS
		c.branch(c.ReadPC8Bit(), c.reg.flagSet(flagC))

	case 0xD0: // BNE
		c.branch(c.ReadPC8Bit(), !c.reg.flagSet(flagZ))

	case 0xF0: // BEQ
		c.branch(c.ReadPC8Bit(), c.reg.flagSet(flagZ))

	// ------------------------------------------------------------------
	// Jumps and returns
	// ------------------------------------------------------------------

	case 0x4C, 0x6C, 0x7C: // JMP (short)
		op := c.loadMode(jmpAddressModes[opcode>>4])
		c.reg.pc = op.addr.Offset()

	case 0x5C, 0xDC: // JMP (long)
		op := c.loadMode(jmpAddressModes[opcode>>4])
		c.reg.pb = op.addr.Bank()
		c.reg.pc = op.addr.Offset()

	case 0x20, 0xFC: // JSR
		op := c.loadMode(jmpAddressModes[opcode>>4])
		c.push16(c.reg.pc - 1)
		c.reg.pc = op.addr.Offset()

	case 0x22: // JSL
		op := c.loadMode(modeAbsoluteLong)
		c.push8(c.reg.pb)
		c.push16(c.reg.pc - 1)
		c.reg.pb = op.addr.Bank()
		c.reg.pc = op.addr.Offset()

	case 0x60: // RTS
		c.reg.pc = c.pop16() + 1

	case 0x6B: // RTL
		c.reg.pc = c.pop16() + 1
		c.reg.pb = c.pop8()

	// ------------------------------------------------------------------
	// Software interrupts
	// ------------------------------------------------------------------

	case 0x00, 0x02: // BRK, COP
		if c.reg.emulationMode {
			vectors := [2]uint32{addr.VectorEmulationIRQ, addr.VectorEmulationCOP}
			c.push16(c.reg.pc + 1)
			c.push8(c.reg.p | flagX)
			c.reg.pb = 0
			c.reg.pc = c.bus.Read16(memory.Address(vectors[opcode>>1]))
		} else {
			vectors := [2]uint32{addr.VectorNativeBRK, addr.VectorNativeCOP}
			c.push8(c.reg.pb)
			c.push16(c.reg.pc + 1)
			c.push8(c.reg.p)
			c.reg.pb = 0
			c.reg.pc = c.bus.Read16(memory.Address(vectors[opcode>>1]))
		}
		c.reg.setFlag(flagI, true)
		c.reg.setFlag(flagD, false)

	case 0x40: // RTI
		c.reg.p = c.pop8()
		c.updateRegistersAfterFlagChange()
		c.reg.pc = c.pop16()
		if !c.reg.emulationMode {
			c.reg.pb = c.pop8()
		}

	// ------------------------------------------------------------------
	// Flag operations
	// ------------------------------------------------------------------

	case 0x18: // CLC
		c.reg.setFlag(flagC, false)

	case 0x38: // SEC
		c.reg.setFlag(flagC, true)

	case 0x58: // CLI
		c.reg.setFlag(flagI, false)

	case 0x78: // SEI
		c.reg.setFlag(flagI, true)

	case 0xB8: // CLV
		c.reg.setFlag(flagV, false)

	case 0xD8: // CLD
		c.reg.setFlag(flagD, false)

	case 0xF8: // SED
		c.reg.setFlag(flagD, true)

	case 0xC2: // REP
		c.reg.p &^= c.ReadPC8Bit()
		c.updateRegistersAfterFlagChange()

	case 0xE2: // SEP
		c.reg.p |= c.ReadPC8Bit()
		c.updateRegistersAfterFlagChange()

	case 0xFB: // XCE - exchange carry and emulation latch
		carry := c.reg.flagSet(flagC)
		c.reg.setFlag(flagC, c.reg.emulationMode)
		c.setEmulationMode(carry)

	// ------------------------------------------------------------------
	// Block moves
	// ------------------------------------------------------------------

	case 0x44: // MVP
		c.blockMove(true)

	case 0x54: // MVN
		c.blockMove(false)

	// ------------------------------------------------------------------
	// NOPs
	// ------------------------------------------------------------------

	case 0xEA: // NOP
		c.bus.AddInternalCycles()

	case 0x42: // WDM - two byte NOP
		c.ReadPC8Bit()

	// ------------------------------------------------------------------
	// Stop and wait
	// ------------------------------------------------------------------

	case 0xCB: // WAI - idle until an interrupt is pending
		c.waiting = true

	case 0xDB: // STP - halt until reset
		c.stopped = true

	default:
		panic(&IllegalDecodeError{Opcode: opcode, Addr: c.FullPC()})
	}
}

// blockMove copies one byte per dispatch, then rewinds PC so the instruction
// re-executes until A underflows. Interrupts can be taken between iterations
// because each byte is a full instruction dispatch.
func (c *CPU) blockMove(positive bool) {
	banks := c.ReadPC16Bit()
	dstBank := bit.Byte(0, uint32(banks))
	srcBank := bit.Byte(1, uint32(banks))

	src := memory.MakeAddress(srcBank, c.reg.x)
	dst := memory.MakeAddress(dstBank, c.reg.y)
	c.bus.Write8(dst, c.bus.Read8(src))

	c.reg.db = dstBank
	c.reg.a--
	if positive { // MVP
		c.reg.x--
		c.reg.y--
	} else { // MVN
		c.reg.x++
		c.reg.y++
	}
	if c.isIndex8Bit() {
		c.reg.x &= 0x00FF
		c.reg.y &= 0x00FF
	}

	if c.reg.a != 0xFFFF {
		c.reg.pc -= 3
	}
}

// adc8 adds with carry at 8 bit width. Decimal mode adjusts nibble by
// nibble; overflow is computed before the final adjustment.
func (c *CPU) adc8(operand uint8) {
	al := uint16(c.reg.al())
	op := uint16(operand)
	var result uint16

	if !c.reg.flagSet(flagD) {
		result = al + c.reg.carry() + op
		c.reg.setFlag(flagV, ((al^result)&^(al^op))&0x80 != 0)
	} else {
		result = (al & 0x0F) + (op & 0x0F) + c.reg.carry()
		if result >= 0x0A {
			result = ((result + 0x06) & 0x0F) + 0x10
		}
		result = (al & 0xF0) + (op & 0xF0) + result

		c.reg.setFlag(flagV, ((al^result)&^(al^op))&0x80 != 0)

		if result >= 0xA0 {
			result += 0x60
		}
	}

	c.reg.setFlag(flagC, result > 0xFF)
	c.reg.setAL(uint8(result))
	c.setNZ8(c.reg.al())
}

func (c *CPU) adc16(operand uint16) {
	a := uint32(c.reg.a)
	op := uint32(operand)
	var result uint32

	if !c.reg.flagSet(flagD) {
		result = a + uint32(c.reg.carry()) + op
		c.reg.setFlag(flagV, ((a^result)&^(a^op))&0x8000 != 0)
	} else {
		result = (a & 0x000F) + (op & 0x000F) + uint32(c.reg.carry())
		if result >= 0x0A {
			result = ((result + 0x06) & 0x0F) + 0x10
		}
		result = (a & 0x00F0) + (op & 0x00F0) + result
		if result >= 0xA0 {
			result = ((result + 0x60) & 0xFF) + 0x100
		}
		result = (a & 0x0F00) + (op & 0x0F00) + result
		if result >= 0x0A00 {
			result = ((result + 0x600) & 0x0FFF) + 0x1000
		}
		result = (a & 0xF000) + (op & 0xF000) + result

		c.reg.setFlag(flagV, ((a^result)&^(a^op))&0x8000 != 0)

		if result >= 0xA000 {
			result += 0x6000
		}
	}

	c.reg.setFlag(flagC, result > 0xFFFF)
	c.reg.a = uint16(result)
	c.setNZ16(c.reg.a)
}

// sbc8 pre-inverts the operand and reuses the addition path. The decimal
// carry uses a signed test of the high byte after adjustment, which differs
// from the binary path when the adjustment borrows.
func (c *CPU) sbc8(operand uint8) {
	al := uint16(c.reg.al())
	op := uint16(^operand)
	var result uint16

	if !c.reg.flagSet(flagD) {
		result = al + c.reg.carry() + op
		c.reg.setFlag(flagV, ((al^result)&^(al^op))&0x80 != 0)
	} else {
		result = (al & 0x0F) + (op & 0x0F) + c.reg.carry()
		if result <= 0x0F {
			result = (result - 0x06) & 0x0F
		}
		result = (al & 0xF0) + (op & 0xF0) + result

		c.reg.setFlag(flagV, ((al^result)&^(al^op))&0x80 != 0)

		if result <= 0xFF {
			result -= 0x60
		}
	}

	c.reg.setFlag(flagC, int8(result>>8) > 0)
	c.reg.setAL(uint8(result))
	c.setNZ8(c.reg.al())
}

func (c *CPU) sbc16(operand uint16) {
	a := uint32(c.reg.a)
	op := uint32(^operand)
	var result uint32

	if !c.reg.flagSet(flagD) {
		result = a + uint32(c.reg.carry()) + op
		c.reg.setFlag(flagV, ((a^result)&^(a^op))&0x8000 != 0)
	} else {
		result = (a & 0x000F) + (op & 0x000F) + uint32(c.reg.carry())
		if result <= 0x0F {
			result = (result - 0x06) & 0x0F
		}
		result = (a & 0x00F0) + (op & 0x00F0) + result
		if result <= 0xFF {
			result = (result - 0x60) & 0xFF
		}
		result = (a & 0x0F00) + (op & 0x0F00) + result
		if result <= 0x0FFF {
			result = (result - 0x0600) & 0x0FFF
		}
		result = (a & 0xF000) + (op & 0xF000) + result

		c.reg.setFlag(flagV, ((a^result)&^(a^op))&0x8000 != 0)

		if result <= 0xFFFF {
			result -= 0x6000
		}
	}

	c.reg.setFlag(flagC, int8(result>>16) > 0)
	c.reg.a = uint16(result)
	c.setNZ16(c.reg.a)
}
