// Package audio implements the sound half of the core: the SPC700 CPU, its
// 64 KiB address space, and the three hardware timers. Sample synthesis (the
// DSP proper) is an external collaborator; only its register file is modeled.
package audio

import (
	"fmt"

	"github.com/valerio/go-snes/snes/bit"
)

// Audio-side register addresses, all within page 0.
const (
	RegTEST    uint8 = 0xF0
	RegCONTROL uint8 = 0xF1
	RegDSPADDR uint8 = 0xF2
	RegDSPDATA uint8 = 0xF3
	RegCPUIO0  uint8 = 0xF4
	RegCPUIO1  uint8 = 0xF5
	RegCPUIO2  uint8 = 0xF6
	RegCPUIO3  uint8 = 0xF7
	RegAUXIO4  uint8 = 0xF8
	RegAUXIO5  uint8 = 0xF9
	RegT0DIV   uint8 = 0xFA
	RegT1DIV   uint8 = 0xFB
	RegT2DIV   uint8 = 0xFC
	RegT0OUT   uint8 = 0xFD
	RegT1OUT   uint8 = 0xFE
	RegT2OUT   uint8 = 0xFF
)

// RegisterOwner handles one of the 0xF0-0xFF hardware registers.
type RegisterOwner interface {
	ReadRegister(reg uint8) uint8
	WriteRegister(reg uint8, value uint8) bool
}

// TimerControl is how CONTROL writes reach the timer unit.
type TimerControl interface {
	EnableTimer(n int, enabled bool)
}

// PortClearer is how CONTROL writes clear the mailbox input ports.
type PortClearer interface {
	ClearPorts(pair int)
}

// Bus is the SPC700's 64 KiB address space: flat audio RAM with the
// hardware registers at 0x00F0-0x00FF. Every access costs one SPC cycle,
// charged to the cycle counter the catch-up loop drains.
type Bus struct {
	ram    [0x10000]byte
	owners map[uint8]RegisterOwner

	timer TimerControl
	ports PortClearer

	cycles func(n uint32)

	// TEST latch and the DSP register file (address/data port pair).
	test    uint8
	control uint8
	dspAddr uint8
	dspRegs [128]byte
}

func NewBus() *Bus {
	return &Bus{
		owners: make(map[uint8]RegisterOwner),
		cycles: func(uint32) {},
	}
}

// SetCycleSink attaches the per-access cycle counter (the audio timer).
func (b *Bus) SetCycleSink(sink func(n uint32)) {
	b.cycles = sink
}

// SetTimerControl attaches the timer unit driven by CONTROL bits 0-2.
func (b *Bus) SetTimerControl(timer TimerControl) {
	b.timer = timer
}

// SetPortClearer attaches the mailbox cleared by CONTROL bits 4-5.
func (b *Bus) SetPortClearer(ports PortClearer) {
	b.ports = ports
}

// RequestOwnership registers owner for one hardware register.
func (b *Bus) RequestOwnership(reg uint8, owner RegisterOwner) error {
	if _, taken := b.owners[reg]; taken {
		return fmt.Errorf("audio register 0x%02X is already owned", reg)
	}
	b.owners[reg] = owner
	return nil
}

func isRegister(addr uint16) bool {
	return addr >= 0x00F0 && addr <= 0x00FF
}

func (b *Bus) Read8(addr uint16) uint8 {
	b.cycles(1)

	if isRegister(addr) {
		reg := uint8(addr)
		if owner, ok := b.owners[reg]; ok {
			return owner.ReadRegister(reg)
		}
		switch reg {
		case RegTEST:
			return b.test
		case RegCONTROL:
			return b.control
		case RegDSPADDR:
			return b.dspAddr
		case RegDSPDATA:
			return b.dspRegs[b.dspAddr&0x7F]
		case RegAUXIO4, RegAUXIO5:
			return b.ram[addr]
		}
		panic(fmt.Sprintf("read from unowned audio register 0x%02X", reg))
	}

	return b.ram[addr]
}

func (b *Bus) Write8(addr uint16, value uint8) {
	b.cycles(1)

	if isRegister(addr) {
		reg := uint8(addr)
		if owner, ok := b.owners[reg]; ok {
			owner.WriteRegister(reg, value)
			return
		}
		switch reg {
		case RegTEST:
			b.test = value
			return
		case RegCONTROL:
			b.writeControl(value)
			return
		case RegDSPADDR:
			b.dspAddr = value
			return
		case RegDSPDATA:
			// Addresses 0x80-0xFF are a read-only mirror.
			if b.dspAddr < 0x80 {
				b.dspRegs[b.dspAddr] = value
			}
			return
		case RegAUXIO4, RegAUXIO5:
			b.ram[addr] = value
			return
		}
		panic(fmt.Sprintf("write to unowned audio register 0x%02X", reg))
	}

	b.ram[addr] = value
}

// writeControl dispatches the CONTROL register: timer enables in bits 0-2,
// mailbox port clears in bits 4-5.
func (b *Bus) writeControl(value uint8) {
	b.control = value

	if b.timer != nil {
		for n := 0; n < 3; n++ {
			b.timer.EnableTimer(n, bit.IsSet(uint8(n), value))
		}
	}
	if b.ports != nil {
		if bit.IsSet(4, value) {
			b.ports.ClearPorts(0)
		}
		if bit.IsSet(5, value) {
			b.ports.ClearPorts(1)
		}
	}
}

func (b *Bus) Read16(addr uint16) uint16 {
	low := b.Read8(addr)
	high := b.Read8(addr + 1)
	return bit.Combine(high, low)
}

// Read16WrapPage reads a 16 bit value whose bytes both come from the same
// 256 byte page, wrapping the low byte of the address.
func (b *Bus) Read16WrapPage(addr uint16) uint16 {
	low := b.Read8(addr)
	high := b.Read8((addr & 0xFF00) | uint16(uint8(addr)+1))
	return bit.Combine(high, low)
}

func (b *Bus) Write16(addr uint16, value uint16) {
	b.Write8(addr, bit.Low(value))
	b.Write8(addr+1, bit.High(value))
}

// Write16WrapPage writes a 16 bit value within one 256 byte page.
func (b *Bus) Write16WrapPage(addr uint16, value uint16) {
	b.Write8(addr, bit.Low(value))
	b.Write8((addr&0xFF00)|uint16(uint8(addr)+1), bit.High(value))
}

// RawRead8 bypasses registers and cycle counting, for the debugger.
func (b *Bus) RawRead8(addr uint16) uint8 {
	return b.ram[addr]
}

// RawWrite8 pokes RAM directly, for tests and boot setup.
func (b *Bus) RawWrite8(addr uint16, value uint8) {
	b.ram[addr] = value
}
