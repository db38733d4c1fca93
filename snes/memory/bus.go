package memory

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-snes/snes/addr"
	"github.com/valerio/go-snes/snes/bit"
)

// ClockSpeed is the number of master clocks charged for one bus access.
type ClockSpeed uint8

const (
	ClockFastROM  ClockSpeed = 6
	ClockIoReg    ClockSpeed = 6
	ClockInternal ClockSpeed = 6
	ClockSlowROM  ClockSpeed = 8
	ClockWRAM     ClockSpeed = 8
	ClockDMA      ClockSpeed = 8
	ClockOther    ClockSpeed = 12
)

// CycleSink receives the master clock cost of every bus access. The timer
// implements this; components hold the bus, the bus holds the sink.
type CycleSink interface {
	AddCycles(clocks ClockSpeed)
}

// RegisterOwner handles reads and writes for I/O registers it has claimed
// through RequestOwnership. Exactly one owner exists per register.
//
// WriteRegister returns false when the register is read-only; the bus drops
// the write. ReadRegister panics for registers the owner never claimed.
type RegisterOwner interface {
	ReadRegister(reg uint16) uint8
	WriteRegister(reg uint16, value uint8) bool
}

// Observer is notified of memory mutations so a debugger view can refresh.
type Observer interface {
	MemoryChanged(a Address, length int)
}

// Bus is the main-CPU address space: 128 KiB WRAM, the cartridge ROM window,
// and the memory-mapped I/O pages. It routes I/O accesses to the registered
// owner, keeps the debugger shadow of each I/O page, tracks the open-bus
// latch, and charges master clocks for every access.
type Bus struct {
	wram [0x20000]byte

	// Shadow copies of the I/O pages, holding the last value written (or
	// synced by an owner) so the debugger can inspect registers without
	// triggering read side effects.
	ioPorts21 [256]byte
	ioPorts40 [256]byte
	ioPorts42 [256]byte
	ioPorts43 [256]byte

	cart     *Cartridge
	timer    CycleSink
	owners   map[uint16]RegisterOwner
	observer Observer

	openBus byte

	// 17 bit WRAM cursor used by the WMDATA/WMADD port registers.
	wramCursor uint32

	// MEMSEL bit 0: fast ROM access in banks 0x80-0xFF.
	fastROM bool
}

// nullSink lets the bus run before a timer is attached (unit tests mostly).
type nullSink struct{}

func (nullSink) AddCycles(clocks ClockSpeed) {}

func NewBus() *Bus {
	return &Bus{
		timer:  nullSink{},
		owners: make(map[uint16]RegisterOwner),
	}
}

// SetCartridge attaches the ROM image. The bus keeps a non-owning reference.
func (b *Bus) SetCartridge(cart *Cartridge) {
	b.cart = cart
}

// SetCycleSink attaches the timer that accumulates access costs.
func (b *Bus) SetCycleSink(sink CycleSink) {
	b.timer = sink
}

// SetObserver attaches the debugger memory observer.
func (b *Bus) SetObserver(observer Observer) {
	b.observer = observer
}

// RequestOwnership registers owner as the exclusive handler for one I/O
// register. Registering an already-owned register is a wiring bug.
func (b *Bus) RequestOwnership(reg uint16, owner RegisterOwner) error {
	if _, taken := b.owners[reg]; taken {
		return &OwnershipError{Reg: reg}
	}
	b.owners[reg] = owner
	return nil
}

// RequestOwnershipBlock registers owner for a contiguous run of registers.
func (b *Bus) RequestOwnershipBlock(base uint16, count int, owner RegisterOwner) error {
	for i := 0; i < count; i++ {
		if err := b.RequestOwnership(base+uint16(i), owner); err != nil {
			return err
		}
	}
	return nil
}

// OpenBus returns the last value driven onto the data bus by a WRAM or ROM
// read. Registers with open-bus bits mix this into their read value.
func (b *Bus) OpenBus() byte {
	return b.openBus
}

// SetOpenBus is for tests that need a known residue on the bus.
func (b *Bus) SetOpenBus(value byte) {
	b.openBus = value
}

func (b *Bus) isSystemArea(a Address) bool {
	// Bank in 0x00-0x3F or 0x80-0xBF, offset below 0x8000.
	return uint32(a)&0x408000 == 0
}

func (b *Bus) isWRAMBank(a Address) bool {
	return uint32(a)&0xFE0000 == 0x7E0000
}

func (b *Bus) romClock(a Address) ClockSpeed {
	if b.fastROM && a.Bank() >= 0x80 {
		return ClockFastROM
	}
	return ClockSlowROM
}

// Read8 reads one byte, charging master clocks and routing I/O reads to the
// registered owner. Only WRAM and ROM reads update the open-bus latch; I/O
// registers are never part of the instruction stream.
func (b *Bus) Read8(a Address) uint8 {
	if b.isSystemArea(a) {
		reg := a.Offset()
		if owner, ok := b.owners[reg]; ok {
			b.timer.AddCycles(ClockIoReg)
			return owner.ReadRegister(reg)
		}

		switch reg >> 8 {
		case 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
			0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
			0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17,
			0x18, 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E, 0x1F:
			b.timer.AddCycles(ClockWRAM)
			b.openBus = b.wram[reg&0x1FFF]
			return b.openBus
		case 0x21:
			if reg == addr.WMDATA {
				b.timer.AddCycles(ClockIoReg)
				value := b.wram[b.wramCursor]
				b.wramCursor = (b.wramCursor + 1) & 0x1FFFF
				return value
			}
		}

		panic(&UnmappedAccessError{Addr: a})
	}

	if b.isWRAMBank(a) {
		b.timer.AddCycles(ClockWRAM)
		b.openBus = b.wram[uint32(a)&0x1FFFF]
		return b.openBus
	}

	b.timer.AddCycles(b.romClock(a))
	if b.cart == nil {
		slog.Warn("ROM read with no cartridge", "addr", fmt.Sprintf("0x%06X", uint32(a)))
		return 0xFF
	}
	b.openBus = b.cart.ReadByte(uint32(a))
	return b.openBus
}

// Write8 writes one byte, dispatching I/O writes to the registered owner and
// mirroring the written value into the debugger shadow.
func (b *Bus) Write8(a Address, value uint8) {
	if b.isSystemArea(a) {
		reg := a.Offset()
		if owner, ok := b.owners[reg]; ok {
			b.timer.AddCycles(ClockIoReg)
			if owner.WriteRegister(reg, value) {
				b.WriteShadow(reg, value)
			}
			return
		}

		switch reg >> 8 {
		case 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
			0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
			0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17,
			0x18, 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E, 0x1F:
			b.timer.AddCycles(ClockWRAM)
			b.wram[reg&0x1FFF] = value
			b.notify(MakeAddress(0x7E, reg&0x1FFF), 1)
			return
		case 0x21:
			if b.writeWRAMPort(reg, value) {
				return
			}
		case 0x40:
			// Unclaimed joypad-port writes just latch for the debugger.
			b.timer.AddCycles(ClockOther)
			b.WriteShadow(reg, value)
			return
		case 0x42:
			if reg == addr.MEMSEL {
				b.timer.AddCycles(ClockIoReg)
				b.fastROM = bit.IsSet(0, value)
				b.WriteShadow(reg, value)
				return
			}
		}

		slog.Warn("Dropped write to unowned I/O register",
			"addr", fmt.Sprintf("0x%06X", uint32(a)),
			"value", fmt.Sprintf("0x%02X", value))
		return
	}

	if b.isWRAMBank(a) {
		b.timer.AddCycles(ClockWRAM)
		b.wram[uint32(a)&0x1FFFF] = value
		b.notify(a, 1)
		return
	}

	panic(&ReadOnlyError{Addr: a})
}

// writeWRAMPort handles the WMDATA/WMADD registers the bus owns itself.
func (b *Bus) writeWRAMPort(reg uint16, value uint8) bool {
	switch reg {
	case addr.WMDATA:
		b.timer.AddCycles(ClockIoReg)
		b.wram[b.wramCursor] = value
		b.notify(Address(0x7E0000|b.wramCursor), 1)
		b.wramCursor = (b.wramCursor + 1) & 0x1FFFF
	case addr.WMADDL:
		b.timer.AddCycles(ClockIoReg)
		b.ioPorts21[reg&0xFF] = value
		b.wramCursor = uint32(bit.Combine24Bytes(b.ioPorts21[addr.WMADDH&0xFF]&0x01, b.ioPorts21[addr.WMADDM&0xFF], value))
		b.notify(MakeAddress(0, reg), 1)
	case addr.WMADDM:
		b.timer.AddCycles(ClockIoReg)
		b.ioPorts21[reg&0xFF] = value
		b.wramCursor = uint32(bit.Combine24Bytes(b.ioPorts21[addr.WMADDH&0xFF]&0x01, value, b.ioPorts21[addr.WMADDL&0xFF]))
		b.notify(MakeAddress(0, reg), 1)
	case addr.WMADDH:
		b.timer.AddCycles(ClockIoReg)
		b.ioPorts21[reg&0xFF] = value
		b.wramCursor = uint32(bit.Combine24Bytes(value&0x01, b.ioPorts21[addr.WMADDM&0xFF], b.ioPorts21[addr.WMADDL&0xFF]))
		b.notify(MakeAddress(0, reg), 1)
	default:
		return false
	}
	return true
}

// Read16 reads a 16 bit value; the second byte may cross into the next bank.
func (b *Bus) Read16(a Address) uint16 {
	low := b.Read8(a)
	high := b.Read8(a.AddOffset(1))
	return bit.Combine(high, low)
}

// Read24 reads a 24 bit value; later bytes may cross into the next bank.
func (b *Bus) Read24(a Address) uint32 {
	low := b.Read8(a)
	mid := b.Read8(a.AddOffset(1))
	high := b.Read8(a.AddOffset(2))
	return bit.Combine24Bytes(high, mid, low)
}

// Read16WrapBank reads a 16 bit value whose bytes both come from the same
// bank, wrapping the offset at the bank boundary.
func (b *Bus) Read16WrapBank(a Address) uint16 {
	low := b.Read8(a)
	high := b.Read8(a.AddOffsetWrapBank(1))
	return bit.Combine(high, low)
}

// Read24WrapBank reads a 24 bit value wholly within one bank.
func (b *Bus) Read24WrapBank(a Address) uint32 {
	low := b.Read8(a)
	mid := b.Read8(a.AddOffsetWrapBank(1))
	high := b.Read8(a.AddOffsetWrapBank(2))
	return bit.Combine24Bytes(high, mid, low)
}

func (b *Bus) Write16(a Address, value uint16) {
	b.Write8(a, bit.Low(value))
	b.Write8(a.AddOffset(1), bit.High(value))
}

func (b *Bus) Write16WrapBank(a Address, value uint16) {
	b.Write8(a, bit.Low(value))
	b.Write8(a.AddOffsetWrapBank(1), bit.High(value))
}

// AddInternalCycles charges one internal (no bus traffic) operation.
func (b *Bus) AddInternalCycles() {
	b.timer.AddCycles(ClockInternal)
}

// AddDMACycles charges the fixed per-byte DMA overhead.
func (b *Bus) AddDMACycles() {
	b.timer.AddCycles(ClockDMA)
}

// RawRead8 bypasses owners, cycle charging and the open-bus latch. Used by
// the debugger and by the DMA engine's A-bus side.
func (b *Bus) RawRead8(a Address) uint8 {
	if b.isSystemArea(a) {
		reg := a.Offset()
		switch reg >> 8 {
		case 0x21:
			return b.ioPorts21[reg&0xFF]
		case 0x40:
			return b.ioPorts40[reg&0xFF]
		case 0x42:
			return b.ioPorts42[reg&0xFF]
		case 0x43:
			return b.ioPorts43[reg&0xFF]
		default:
			if reg < 0x2000 {
				return b.wram[reg]
			}
			return 0
		}
	}
	if b.isWRAMBank(a) {
		return b.wram[uint32(a)&0x1FFFF]
	}
	if b.cart == nil {
		return 0xFF
	}
	return b.cart.ReadByte(uint32(a))
}

// RawWrite8 pokes WRAM without side effects. Used by tests and the debugger.
func (b *Bus) RawWrite8(a Address, value uint8) {
	if b.isWRAMBank(a) {
		b.wram[uint32(a)&0x1FFFF] = value
		return
	}
	if b.isSystemArea(a) && a.Offset() < 0x2000 {
		b.wram[a.Offset()] = value
	}
}

// WriteShadow updates the debugger shadow for one I/O register without
// touching the owner. Owners call this after internal state changes so the
// debugger sees live values.
func (b *Bus) WriteShadow(reg uint16, value uint8) {
	switch reg >> 8 {
	case 0x21:
		b.ioPorts21[reg&0xFF] = value
	case 0x40:
		b.ioPorts40[reg&0xFF] = value
	case 0x42:
		b.ioPorts42[reg&0xFF] = value
	case 0x43:
		b.ioPorts43[reg&0xFF] = value
	default:
		panic(fmt.Sprintf("invalid I/O register 0x%04X", reg))
	}
	b.notify(MakeAddress(0, reg), 1)
}

// ReadShadow returns the debugger shadow value for one I/O register.
func (b *Bus) ReadShadow(reg uint16) uint8 {
	switch reg >> 8 {
	case 0x21:
		return b.ioPorts21[reg&0xFF]
	case 0x40:
		return b.ioPorts40[reg&0xFF]
	case 0x42:
		return b.ioPorts42[reg&0xFF]
	case 0x43:
		return b.ioPorts43[reg&0xFF]
	default:
		panic(fmt.Sprintf("invalid I/O register 0x%04X", reg))
	}
}

func (b *Bus) notify(a Address, length int) {
	if b.observer != nil {
		b.observer.MemoryChanged(a, length)
	}
}
