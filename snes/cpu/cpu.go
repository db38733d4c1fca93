// Package cpu implements the 65C816 main processor: instruction dispatch,
// the 24 addressing modes, native/emulation mode transitions, and interrupt
// acceptance at instruction boundaries.
package cpu

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-snes/snes/addr"
	"github.com/valerio/go-snes/snes/bit"
	"github.com/valerio/go-snes/snes/interrupt"
	"github.com/valerio/go-snes/snes/memory"
)

// IllegalDecodeError is raised for undecodable opcode/mode combinations.
// Every 65C816 opcode is defined, so hitting this means corrupted dispatch.
type IllegalDecodeError struct {
	Opcode uint8
	Addr   memory.Address
}

func (e *IllegalDecodeError) Error() string {
	return fmt.Sprintf("illegal decode: opcode 0x%02X at 0x%06X", e.Opcode, uint32(e.Addr))
}

type CPU struct {
	reg    Registers
	opcode uint8

	bus        *memory.Bus
	interrupts *interrupt.Flags

	// WAI idles until an interrupt is pending; STP halts until reset.
	waiting bool
	stopped bool
}

func New(bus *memory.Bus, interrupts *interrupt.Flags) *CPU {
	return &CPU{
		reg:        newRegisters(),
		bus:        bus,
		interrupts: interrupts,
	}
}

// Reg exposes the register file for the debugger and tests.
func (c *CPU) Reg() *Registers {
	return &c.reg
}

// Reset loads PC through the reset vector and reasserts the power-on state.
func (c *CPU) Reset() {
	c.reg = newRegisters()
	c.waiting = false
	c.stopped = false
	c.reg.pc = c.bus.Read16(memory.Address(addr.VectorReset))
	slog.Info("CPU reset", "pc", fmt.Sprintf("0x%04X", c.reg.pc))
}

// FullPC returns the 24 bit address of the next instruction.
func (c *CPU) FullPC() memory.Address {
	return memory.MakeAddress(c.reg.pb, c.reg.pc)
}

// Stopped reports whether STP halted the processor.
func (c *CPU) Stopped() bool {
	return c.stopped
}

func (c *CPU) ReadPC8Bit() uint8 {
	value := c.bus.Read8(memory.MakeAddress(c.reg.pb, c.reg.pc))
	c.reg.pc++
	return value
}

func (c *CPU) ReadPC16Bit() uint16 {
	low := c.ReadPC8Bit()
	high := c.ReadPC8Bit()
	return bit.Combine(high, low)
}

func (c *CPU) ReadPC24Bit() uint32 {
	low := c.ReadPC8Bit()
	mid := c.ReadPC8Bit()
	high := c.ReadPC8Bit()
	return bit.Combine24Bytes(high, mid, low)
}

// Step dispatches one instruction, accepting a pending interrupt first.
func (c *CPU) Step() {
	if c.stopped {
		c.bus.AddInternalCycles()
		return
	}

	if c.interrupts.IsNMI() {
		c.interrupts.ClearNMI()
		c.waiting = false
		c.processInterrupt(true)
	} else if c.interrupts.IsIRQ() {
		c.waiting = false
		if !c.reg.flagSet(flagI) {
			c.interrupts.ClearIRQ()
			c.processInterrupt(false)
		}
	}

	if c.waiting {
		c.bus.AddInternalCycles()
		return
	}

	c.ProcessOpCode()
}

// processInterrupt runs the interrupt sequence: push PB (native only), push
// PC and P, set I, clear D, then jump through the vector.
func (c *CPU) processInterrupt(nmi bool) {
	if c.reg.emulationMode {
		c.push16(c.reg.pc)
		// Bit 4 distinguishes BRK from hardware interrupts on the stack.
		c.push8(c.reg.p &^ flagX)
	} else {
		c.push8(c.reg.pb)
		c.push16(c.reg.pc)
		c.push8(c.reg.p &^ flagX)
	}

	c.reg.setFlag(flagI, true)
	c.reg.setFlag(flagD, false)
	c.reg.pb = 0

	vector := c.interruptVector(nmi)
	c.reg.pc = c.bus.Read16(memory.Address(vector))
}

func (c *CPU) interruptVector(nmi bool) uint32 {
	if c.reg.emulationMode {
		// Emulation mode shares the IRQ/BRK vector.
		return addr.VectorEmulationIRQ
	}
	if nmi {
		return addr.VectorNativeNMI
	}
	return addr.VectorNativeIRQ
}

func (c *CPU) isAccumulator16Bit() bool {
	return !c.reg.emulationMode && !c.reg.flagSet(flagM)
}

func (c *CPU) isIndex16Bit() bool {
	return !c.reg.emulationMode && !c.reg.flagSet(flagX)
}

func (c *CPU) isIndex8Bit() bool {
	return !c.isIndex16Bit()
}

// setEmulationMode flips the emulation latch and reasserts its invariants.
func (c *CPU) setEmulationMode(value bool) {
	c.reg.emulationMode = value
	c.updateRegistersAfterFlagChange()
}

// updateRegistersAfterFlagChange reapplies the width invariants whenever P
// or the emulation latch may have changed: emulation forces m=1, x=1 and the
// stack page to 0x01; 8 bit indexes keep zero high bytes.
func (c *CPU) updateRegistersAfterFlagChange() {
	if c.reg.emulationMode {
		c.reg.p |= flagM | flagX
		c.reg.sp = 0x0100 | uint16(c.reg.sl())
	}

	if c.isIndex8Bit() {
		c.reg.x &= 0x00FF
		c.reg.y &= 0x00FF
	}
}

func (c *CPU) setNZ8(value uint8) {
	c.reg.setFlag(flagN, value&0x80 != 0)
	c.reg.setFlag(flagZ, value == 0)
}

func (c *CPU) setNZ16(value uint16) {
	c.reg.setFlag(flagN, value&0x8000 != 0)
	c.reg.setFlag(flagZ, value == 0)
}

func (c *CPU) loadRegister16(dest *uint16, value uint16) {
	*dest = value
	c.setNZ16(value)
}

// loadRegisterLow writes the low byte of a 16 bit register, leaving the high
// byte untouched, and sets N/Z from the byte.
func (c *CPU) loadRegisterLow(dest *uint16, value uint8) {
	*dest = (*dest & 0xFF00) | uint16(value)
	c.setNZ8(value)
}

// Stack access. Pushes write then decrement; in emulation mode the pointer
// stays pinned to page 0x01 with the low byte wrapping.
func (c *CPU) push8(value uint8) {
	c.bus.Write8(memory.MakeAddress(0, c.reg.sp), value)
	c.reg.sp--
	if c.reg.emulationMode && c.reg.sp < 0x0100 {
		c.reg.sp = 0x01FF
	}
}

func (c *CPU) push16(value uint16) {
	c.push8(bit.High(value))
	c.push8(bit.Low(value))
}

func (c *CPU) pop8() uint8 {
	c.reg.sp++
	if c.reg.emulationMode && c.reg.sp > 0x01FF {
		c.reg.sp = 0x0100
	}
	return c.bus.Read8(memory.MakeAddress(0, c.reg.sp))
}

func (c *CPU) pop16() uint16 {
	low := c.pop8()
	high := c.pop8()
	return bit.Combine(high, low)
}

func (c *CPU) compare16(a, b uint16) {
	result := a - b
	c.reg.setFlag(flagC, a >= b)
	c.setNZ16(result)
}

func (c *CPU) compare8(a, b uint8) {
	result := a - b
	c.reg.setFlag(flagC, a >= b)
	c.setNZ8(result)
}
