// Package video implements the PPU's bus-facing half: the register file on
// the 0x21xx page and the VRAM/OAM/CGRAM data ports that DMA feeds. The
// pixel pipeline itself is an external collaborator; the core only publishes
// a framebuffer through the backend contract.
package video

import (
	"fmt"

	"github.com/valerio/go-snes/snes/addr"
	"github.com/valerio/go-snes/snes/bit"
	"github.com/valerio/go-snes/snes/memory"
)

// Word step per VRAM address increment, indexed by VMAIN bits 0-1.
var vramSteps = [4]uint16{1, 32, 128, 128}

type Ppu struct {
	bus *memory.Bus

	vram  [0x10000]byte
	oam   [544]byte
	cgram [512]byte

	// Latched write-only register values, indexed by register low byte.
	regs [0x40]byte

	vramAddr uint16 // word address
	vmain    uint8

	oamAddr     uint16
	cgramAddr   uint16
	cgramLatch  uint8
	cgramToggle bool

	// Signed multiply fed by M7A/M7B writes, read back at MPYL/M/H. Mode 7
	// parameters share one write latch holding the previous byte.
	m7a     int16
	m7b     int8
	m7Latch uint8
}

func New(bus *memory.Bus) (*Ppu, error) {
	p := &Ppu{bus: bus}

	if err := bus.RequestOwnershipBlock(addr.INIDISP, 0x40, p); err != nil {
		return nil, err
	}

	return p, nil
}

// vramStep returns how many words the VRAM address advances by.
func (p *Ppu) vramStep() uint16 {
	return vramSteps[p.vmain&0x03]
}

// vramIndex returns the byte index of the current VRAM word. VRAM holds 32K
// words, so the word address wraps at 15 bits; auto-increment past 0x7FFF
// rolls over instead of running off the array.
func (p *Ppu) vramIndex() uint32 {
	return uint32(p.vramAddr&0x7FFF) << 1
}

// incrementOnHigh reports whether the VRAM address advances after the high
// byte access (VMAIN bit 7 set) or after the low byte.
func (p *Ppu) incrementOnHigh() bool {
	return bit.IsSet(7, p.vmain)
}

// ReadRegister implements memory.RegisterOwner.
func (p *Ppu) ReadRegister(reg uint16) uint8 {
	switch reg {
	case addr.MPYL:
		return uint8(p.multiplyResult())
	case addr.MPYM:
		return uint8(p.multiplyResult() >> 8)
	case addr.MPYH:
		return uint8(p.multiplyResult() >> 16)
	case addr.SLHV:
		// Counter latching needs the timer, which lives outside the PPU's
		// half of the pipeline. Reads return open bus.
		return p.bus.OpenBus()
	case addr.RDOAM:
		value := p.oam[p.oamAddr%544]
		p.oamAddr++
		return value
	case addr.RDVRAML:
		value := p.vram[p.vramIndex()]
		if !p.incrementOnHigh() {
			p.vramAddr += p.vramStep()
		}
		return value
	case addr.RDVRAMH:
		value := p.vram[p.vramIndex()|1]
		if p.incrementOnHigh() {
			p.vramAddr += p.vramStep()
		}
		return value
	case addr.RDCGRAM:
		value := p.cgram[p.cgramAddr%512]
		p.cgramAddr++
		return value
	case addr.OPHCT, addr.OPVCT:
		return 0
	case addr.STAT77:
		return 0x01 // 5C77 version
	case addr.STAT78:
		return 0x01 // 5C78 version
	default:
		panic(fmt.Sprintf("ppu doesn't handle reads to 0x%04X", reg))
	}
}

// WriteRegister implements memory.RegisterOwner.
func (p *Ppu) WriteRegister(reg uint16, value uint8) bool {
	switch reg {
	case addr.OAMADDL:
		p.oamAddr = (p.oamAddr & 0x0100) | uint16(value)
	case addr.OAMADDH:
		p.oamAddr = (uint16(value&0x01) << 8) | (p.oamAddr & 0xFF)
	case addr.OAMDATA:
		p.oam[p.oamAddr%544] = value
		p.oamAddr++
	case addr.VMAIN:
		p.vmain = value
	case addr.VMADDL:
		p.vramAddr = (p.vramAddr & 0xFF00) | uint16(value)
	case addr.VMADDH:
		// Only 15 bits of word address exist.
		p.vramAddr = (uint16(value&0x7F) << 8) | (p.vramAddr & 0x00FF)
	case addr.VMDATAL:
		p.vram[p.vramIndex()] = value
		if !p.incrementOnHigh() {
			p.vramAddr += p.vramStep()
		}
	case addr.VMDATAH:
		p.vram[p.vramIndex()|1] = value
		if p.incrementOnHigh() {
			p.vramAddr += p.vramStep()
		}
	case addr.CGADD:
		p.cgramAddr = uint16(value) << 1
		p.cgramToggle = false
	case addr.CGDATA:
		// Two writes make one 15 bit palette entry; the first byte latches.
		if p.cgramToggle {
			p.cgram[p.cgramAddr%512] = p.cgramLatch
			p.cgram[(p.cgramAddr+1)%512] = value & 0x7F
			p.cgramAddr += 2
		} else {
			p.cgramLatch = value
		}
		p.cgramToggle = !p.cgramToggle
	case addr.M7A:
		p.m7a = int16(uint16(value)<<8 | uint16(p.m7Latch))
		p.m7Latch = value
	case addr.M7B:
		p.m7b = int8(value)
		p.m7Latch = value
	}

	if reg-addr.INIDISP < uint16(len(p.regs)) {
		p.regs[reg&0x3F] = value
		return true
	}

	panic(fmt.Sprintf("ppu doesn't handle writes to 0x%04X", reg))
}

func (p *Ppu) multiplyResult() uint32 {
	return uint32(int32(p.m7a)*int32(p.m7b)) & 0xFFFFFF
}

// VRAM exposes the raw VRAM array for the debugger and tests. The word
// address wraps at 15 bits like the data ports.
func (p *Ppu) VRAM(wordAddr uint16) uint16 {
	index := uint32(wordAddr&0x7FFF) << 1
	return bit.Combine(p.vram[index|1], p.vram[index])
}
