// Package dma implements the eight-channel DMA controller in both its
// general-purpose (byte-count driven) and H-blank (per-scanline table
// driven) transfer modes.
package dma

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-snes/snes/addr"
	"github.com/valerio/go-snes/snes/bit"
	"github.com/valerio/go-snes/snes/memory"
	"github.com/valerio/go-snes/snes/timer"
)

// B-bus offset relative to the channel port, indexed by write mode and step.
var bBusStep = [8][4]uint8{
	{0, 0, 0, 0}, // mode = 0
	{0, 1, 0, 1}, // mode = 1
	{0, 0, 0, 0}, // mode = 2
	{0, 0, 1, 1}, // mode = 3
	{0, 1, 2, 3}, // mode = 4
	{0, 1, 0, 1}, // mode = 5
	{0, 0, 0, 0}, // mode = 6
	{0, 0, 1, 1}, // mode = 7
}

// Bytes transferred per HDMA line, indexed by write mode.
var hdmaBytes = [8]uint8{1, 2, 2, 4, 4, 4, 2, 4}

// channel is the live state of one DMA channel. The bus shadow is synced
// after every internal update so the debugger observes current values.
type channel struct {
	id uint8

	// 0x43n0 parameter byte, decoded on demand:
	// bit 7 direction B->A, bit 6 HDMA indirect, bit 4 A-bus decrement,
	// bit 3 A-bus fixed, bits 0-2 write mode.
	parameters uint8

	bBusPort     uint8  // 0x43n1, the upper byte of the B-bus address is 0x21
	aBusOffset   uint16 // 0x43n2-3
	aBusBank     uint8  // 0x43n4
	byteCount    uint16 // 0x43n5-6, doubles as the HDMA indirect offset
	indirectBank uint8  // 0x43n7
	directOffset uint16 // 0x43n8-9, the HDMA table cursor
	lineCount    uint8  // 0x43nA

	doTransfer   bool
	isTerminated bool
}

func (c *channel) bToA() bool      { return bit.IsSet(7, c.parameters) }
func (c *channel) indirect() bool  { return bit.IsSet(6, c.parameters) }
func (c *channel) decrement() bool { return bit.IsSet(4, c.parameters) }
func (c *channel) fixed() bool     { return bit.IsSet(3, c.parameters) }
func (c *channel) mode() uint8     { return c.parameters & 0x07 }

// aBusStep is the per-byte A-bus offset delta: 0 when fixed, otherwise
// +1 or -1 depending on the decrement bit.
func (c *channel) aBusStep() int {
	if c.fixed() {
		return 0
	}
	if c.decrement() {
		return -1
	}
	return 1
}

// Dma owns the whole 0x4300 page plus the MDMAEN/HDMAEN enables, and hooks
// the timer's H-blank-start and V-blank edges for HDMA pacing.
type Dma struct {
	bus *memory.Bus

	regMDMAEN uint8
	regHDMAEN uint8

	channels [8]channel
}

func New(bus *memory.Bus, clock *timer.Timer) (*Dma, error) {
	d := &Dma{bus: bus}

	for i := range d.channels {
		d.channels[i].id = uint8(i)
		d.channels[i].isTerminated = true
	}

	if err := bus.RequestOwnershipBlock(0x4300, 0x100, d); err != nil {
		return nil, err
	}
	if err := bus.RequestOwnership(addr.MDMAEN, d); err != nil {
		return nil, err
	}
	if err := bus.RequestOwnership(addr.HDMAEN, d); err != nil {
		return nil, err
	}

	// Channel registers power up as 0xFF.
	for i := 0; i < 0x100; i++ {
		bus.WriteShadow(0x4300+uint16(i), 0xFF)
	}
	bus.WriteShadow(addr.MDMAEN, 0)
	bus.WriteShadow(addr.HDMAEN, 0)

	clock.AttachHBlankObserver(d)
	clock.AttachVBlankObserver(d)

	return d, nil
}

// syncToShadow writes the channel fields that change during transfers back
// to the bus shadow.
func (d *Dma) syncToShadow(c *channel) {
	base := 0x4300 | (uint16(c.id) << 4)
	d.bus.WriteShadow(base|addr.DmaABusL, bit.Low(c.aBusOffset))
	d.bus.WriteShadow(base|addr.DmaABusH, bit.High(c.aBusOffset))
	d.bus.WriteShadow(base|addr.DmaCountL, bit.Low(c.byteCount))
	d.bus.WriteShadow(base|addr.DmaCountH, bit.High(c.byteCount))
	d.bus.WriteShadow(base|addr.DmaTableL, bit.Low(c.directOffset))
	d.bus.WriteShadow(base|addr.DmaTableH, bit.High(c.directOffset))
	d.bus.WriteShadow(base|addr.DmaLineCount, c.lineCount)
}

// ReadRegister implements memory.RegisterOwner.
func (d *Dma) ReadRegister(reg uint16) uint8 {
	if reg>>8 == 0x43 {
		return d.bus.ReadShadow(reg)
	}

	switch reg {
	case addr.MDMAEN:
		return d.regMDMAEN
	case addr.HDMAEN:
		return d.regHDMAEN
	default:
		panic(fmt.Sprintf("dma doesn't handle reads to 0x%04X", reg))
	}
}

// WriteRegister implements memory.RegisterOwner.
func (d *Dma) WriteRegister(reg uint16, value uint8) bool {
	if reg>>8 == 0x43 {
		c := &d.channels[(reg>>4)&0x07]
		switch reg & 0x0F {
		case addr.DmaParam:
			c.parameters = value
		case addr.DmaBBusPort:
			c.bBusPort = value
		case addr.DmaABusL:
			c.aBusOffset = (c.aBusOffset & 0xFF00) | uint16(value)
		case addr.DmaABusH:
			c.aBusOffset = (uint16(value) << 8) | (c.aBusOffset & 0x00FF)
		case addr.DmaABusBank:
			c.aBusBank = value
		case addr.DmaCountL:
			c.byteCount = (c.byteCount & 0xFF00) | uint16(value)
		case addr.DmaCountH:
			c.byteCount = (uint16(value) << 8) | (c.byteCount & 0x00FF)
		case addr.DmaIndirectBank:
			c.indirectBank = value
		case addr.DmaTableL:
			c.directOffset = (c.directOffset & 0xFF00) | uint16(value)
		case addr.DmaTableH:
			c.directOffset = (uint16(value) << 8) | (c.directOffset & 0x00FF)
		case addr.DmaLineCount:
			c.lineCount = value
		default:
			// 0x43nB-0x43nF have no function; the write still lands in the
			// shadow below.
		}
		return true
	}

	switch reg {
	case addr.MDMAEN:
		d.regMDMAEN = value
		slog.Debug("MDMAEN", "value", fmt.Sprintf("0x%02X", value))
		d.runGPDMA()
		return true
	case addr.HDMAEN:
		d.regHDMAEN = value
		slog.Debug("HDMAEN", "value", fmt.Sprintf("0x%02X", value))
		return true
	default:
		panic(fmt.Sprintf("dma doesn't handle writes to 0x%04X", reg))
	}
}

// ProcessHBlankStart implements timer.HBlankObserver. HDMA transfers run on
// visible scanlines only.
func (d *Dma) ProcessHBlankStart(scanline uint16) {
	if d.regHDMAEN != 0 && scanline <= 224 {
		d.runHDMA()
	}
}

// ProcessVBlankStart implements timer.VBlankObserver.
func (d *Dma) ProcessVBlankStart() {}

// ProcessVBlankEnd implements timer.VBlankObserver. A new frame starts, so
// reload every enabled channel's HDMA table.
func (d *Dma) ProcessVBlankEnd() {
	d.setupHDMA()
}

// bBusAddress computes the B-bus address for one transfer step.
func (c *channel) bBusAddress(step int) memory.Address {
	return memory.MakeAddress(0, bit.Combine(0x21, c.bBusPort+bBusStep[c.mode()][step]))
}

// runGPDMA performs the general-purpose transfer for every channel whose
// MDMAEN bit is set. Channels enabled for HDMA are skipped; a channel never
// does both at once.
func (d *Dma) runGPDMA() {
	dmaEnable := d.regMDMAEN
	hdmaEnable := d.regHDMAEN

	for i := 0; i < 8; i, dmaEnable, hdmaEnable = i+1, dmaEnable>>1, hdmaEnable>>1 {
		if dmaEnable&0x01 == 0 || hdmaEnable&0x01 == 1 {
			continue
		}

		c := &d.channels[i]
		slog.Debug("GPDMA",
			"channel", i,
			"params", fmt.Sprintf("0x%02X", c.parameters),
			"aBus", fmt.Sprintf("0x%02X%04X", c.aBusBank, c.aBusOffset),
			"bBus", fmt.Sprintf("0x21%02X", c.bBusPort),
			"count", c.byteCount)

		step := 0
		aStep := c.aBusStep()

		// A byte count of 0 means 65536, since the counter underflows
		// through zero before the loop condition is tested.
		for {
			aAddr := memory.MakeAddress(c.aBusBank, c.aBusOffset)
			bAddr := c.bBusAddress(step)

			// The A-bus side bypasses register dispatch; a ROM-mapped
			// target just absorbs the byte.
			if c.bToA() {
				d.bus.RawWrite8(aAddr, d.bus.Read8(bAddr))
			} else {
				d.bus.Write8(bAddr, d.bus.RawRead8(aAddr))
			}
			d.bus.AddDMACycles()

			step = (step + 1) & 3
			c.aBusOffset += uint16(aStep)
			c.byteCount--
			d.syncToShadow(c)

			if c.byteCount == 0 {
				break
			}
		}

		// The channel's enable bit clears itself when the transfer is done.
		d.regMDMAEN = bit.Reset(uint8(i), d.regMDMAEN)
		d.bus.WriteShadow(addr.MDMAEN, d.regMDMAEN)
	}
}

// setupHDMA reloads the table state of every HDMA-enabled channel at the
// start of a new frame.
func (d *Dma) setupHDMA() {
	for i := range d.channels {
		c := &d.channels[i]
		c.doTransfer = false

		if !bit.IsSet(uint8(i), d.regHDMAEN) {
			continue
		}

		c.isTerminated = false
		c.directOffset = c.aBusOffset
		c.lineCount = 0

		d.loadNextHDMA(c)
	}
}

// loadNextHDMA fetches the next table entry when the repeat portion of the
// line counter has run out. A zero line counter terminates the channel for
// the rest of the frame.
func (d *Dma) loadNextHDMA(c *channel) {
	newLineCount := d.bus.Read8(memory.MakeAddress(c.aBusBank, c.directOffset))

	if c.lineCount&0x7F == 0 {
		c.lineCount = newLineCount
		c.directOffset++

		c.doTransfer = c.lineCount != 0
		c.isTerminated = c.lineCount == 0

		if c.indirect() {
			c.byteCount = d.bus.Read16(memory.MakeAddress(c.aBusBank, c.directOffset))
			c.directOffset += 2
		}
	}

	d.syncToShadow(c)
}

// runHDMA performs one scanline's worth of transfers on each enabled,
// unterminated channel.
func (d *Dma) runHDMA() {
	hdmaEnable := d.regHDMAEN

	for i := 0; i < 8; i, hdmaEnable = i+1, hdmaEnable>>1 {
		c := &d.channels[i]
		if hdmaEnable&0x01 == 0 || c.isTerminated {
			continue
		}

		if c.doTransfer {
			aBank := c.aBusBank
			aOffset := &c.directOffset
			if c.indirect() {
				aBank = c.indirectBank
				aOffset = &c.byteCount
			}

			for step := 0; step < int(hdmaBytes[c.mode()]); step++ {
				aAddr := memory.MakeAddress(aBank, *aOffset)
				bAddr := c.bBusAddress(step)

				if c.bToA() {
					d.bus.Write8(aAddr, d.bus.Read8(bAddr))
				} else {
					d.bus.Write8(bAddr, d.bus.Read8(aAddr))
				}
				d.bus.AddDMACycles()

				*aOffset++
			}
		}

		c.lineCount--
		c.doTransfer = bit.IsSet(7, c.lineCount)
		if c.lineCount&0x7F == 0 {
			d.loadNextHDMA(c)
		} else {
			d.syncToShadow(c)
		}
	}
}
