// Package timer is the sole authority on elapsed master clocks. Every bus
// access charges cycles here; the timer derives the H/V counters, fires
// H/V-blank edges to observers, and raises NMI/IRQ through the interrupt
// flags.
package timer

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-snes/snes/addr"
	"github.com/valerio/go-snes/snes/bit"
	"github.com/valerio/go-snes/snes/interrupt"
	"github.com/valerio/go-snes/snes/memory"
)

const (
	ClocksPerH        = 4
	ClocksPerScanline = 1364
	HPerScanline      = ClocksPerScanline / ClocksPerH // 341

	hBlankStartH   = 274
	vBlankStartV   = 225
	autoJoyDoneV   = 228
	ScanlinesPerFrame = 262

	// Low nibble of RDNMI reads.
	cpuVersion = 2
)

// HBlankObserver is notified when a scanline enters H-blank. The DMA engine
// uses this to run per-line HDMA transfers.
type HBlankObserver interface {
	ProcessHBlankStart(scanline uint16)
}

// VBlankObserver is notified at the V-blank boundaries. The DMA engine sets
// up HDMA tables at V-blank end; input snapshots the pads at V-blank start.
type VBlankObserver interface {
	ProcessVBlankStart()
	ProcessVBlankEnd()
}

type Timer struct {
	// Master clocks within the current scanline; resets every 1364.
	clockCounter uint32
	hCount       uint16
	vCount       uint16

	isHBlank bool
	isVBlank bool

	// Monotonic count of all clocks ever charged, for the APU catch-up.
	masterClocks uint64

	bus        *memory.Bus
	interrupts *interrupt.Flags

	hBlankObservers []HBlankObserver
	vBlankObservers []VBlankObserver

	// Register state. The shadow in the bus is synced after every change.
	nmitimen    uint8
	htime       uint16
	vtime       uint16
	vBlankFlag  bool // RDNMI bit 7
	timeupFlag  bool // TIMEUP bit 7
	autoJoyBusy bool // HVBJOY bit 0
}

func New(bus *memory.Bus, interrupts *interrupt.Flags) (*Timer, error) {
	t := &Timer{
		isHBlank:   true,
		bus:        bus,
		interrupts: interrupts,
	}

	regs := []uint16{
		addr.NMITIMEN, addr.HTIMEL, addr.HTIMEH, addr.VTIMEL, addr.VTIMEH,
		addr.RDNMI, addr.TIMEUP, addr.HVBJOY,
	}
	for _, reg := range regs {
		if err := bus.RequestOwnership(reg, t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Timer) AttachHBlankObserver(observer HBlankObserver) {
	t.hBlankObservers = append(t.hBlankObservers, observer)
}

func (t *Timer) AttachVBlankObserver(observer VBlankObserver) {
	t.vBlankObservers = append(t.vBlankObservers, observer)
}

func (t *Timer) HCount() uint16 { return t.hCount }
func (t *Timer) VCount() uint16 { return t.vCount }
func (t *Timer) IsHBlank() bool { return t.isHBlank }
func (t *Timer) IsVBlank() bool { return t.isVBlank }

// MasterClocks returns the monotonic master clock count. The orchestrator
// diffs it across instructions to pace the audio CPU.
func (t *Timer) MasterClocks() uint64 {
	return t.masterClocks
}

// AddCycles implements memory.CycleSink.
func (t *Timer) AddCycles(clocks memory.ClockSpeed) {
	t.AddClocks(uint32(clocks))
}

// AddClocks accumulates master clocks and fires every H/V edge the charge
// crossed. A single charge can cross several edges (H-blank entry, scanline
// roll, V-blank entry); each fires exactly once, in order.
func (t *Timer) AddClocks(clocks uint32) {
	t.masterClocks += uint64(clocks)
	t.clockCounter += clocks

	for {
		prevH := t.hCount
		h := uint16(t.clockCounter / ClocksPerH)
		if h > HPerScanline {
			h = HPerScanline
		}
		t.hCount = h

		t.checkHTimerIRQ(prevH, h)

		// A line's H-blank carries over past the wrap; it clears once H
		// passes 1 and starts again at 274. A charge spanning the whole
		// visible region fires both edges, in order.
		if t.isHBlank && h > 1 && h < hBlankStartH {
			t.leaveHBlank()
		}
		if h >= hBlankStartH {
			if t.isHBlank && prevH <= 1 {
				t.leaveHBlank()
			}
			if !t.isHBlank {
				t.enterHBlank()
			}
		}

		if t.clockCounter < ClocksPerScanline {
			return
		}

		t.clockCounter -= ClocksPerScanline
		t.hCount = 0
		t.advanceScanline()
	}
}

func (t *Timer) enterHBlank() {
	t.isHBlank = true
	t.syncHVBJOY()
	for _, observer := range t.hBlankObservers {
		observer.ProcessHBlankStart(t.vCount)
	}
}

func (t *Timer) leaveHBlank() {
	t.isHBlank = false
	t.syncHVBJOY()
}

func (t *Timer) advanceScanline() {
	t.vCount++

	switch t.vCount {
	case vBlankStartV:
		t.isVBlank = true
		t.vBlankFlag = true
		if bit.IsSet(7, t.nmitimen) {
			t.interrupts.RequestNMI()
		}
		if bit.IsSet(0, t.nmitimen) {
			t.autoJoyBusy = true
		}
		t.syncRDNMI()
		t.syncHVBJOY()
		for _, observer := range t.vBlankObservers {
			observer.ProcessVBlankStart()
		}
	case autoJoyDoneV:
		if bit.IsSet(0, t.nmitimen) {
			t.autoJoyBusy = false
			t.syncHVBJOY()
		}
	case ScanlinesPerFrame:
		t.vCount = 0
		t.isVBlank = false
		t.vBlankFlag = false
		t.syncRDNMI()
		t.syncHVBJOY()
		for _, observer := range t.vBlankObservers {
			observer.ProcessVBlankEnd()
		}
	}

	t.checkVTimerIRQ()
}

// checkHTimerIRQ fires the H/V-timer IRQ when the H counter crosses HTIME
// with H-IRQ enabled (NMITIMEN bit 4). When V-IRQ is also enabled (bit 5)
// the scanline must match VTIME too.
func (t *Timer) checkHTimerIRQ(prevH, h uint16) {
	if !bit.IsSet(4, t.nmitimen) {
		return
	}
	if bit.IsSet(5, t.nmitimen) && t.vCount != t.vtime {
		return
	}
	if prevH < t.htime && h >= t.htime {
		t.fireTimerIRQ()
	}
}

// checkVTimerIRQ fires the V-only timer IRQ at the start of the matching
// scanline (NMITIMEN bit 5 set, bit 4 clear).
func (t *Timer) checkVTimerIRQ() {
	if !bit.IsSet(5, t.nmitimen) || bit.IsSet(4, t.nmitimen) {
		return
	}
	if t.vCount == t.vtime {
		t.fireTimerIRQ()
	}
}

func (t *Timer) fireTimerIRQ() {
	t.timeupFlag = true
	t.interrupts.RequestIRQ()
	t.bus.WriteShadow(addr.TIMEUP, t.timeupValue())
}

func (t *Timer) hvbjoyValue() uint8 {
	var value uint8
	if t.isVBlank {
		value |= 0x80
	}
	if t.isHBlank {
		value |= 0x40
	}
	if t.autoJoyBusy {
		value |= 0x01
	}
	return value
}

func (t *Timer) rdnmiValue() uint8 {
	value := uint8(cpuVersion)
	if t.vBlankFlag {
		value |= 0x80
	}
	return value
}

func (t *Timer) timeupValue() uint8 {
	if t.timeupFlag {
		return 0x80
	}
	return 0
}

func (t *Timer) syncHVBJOY() {
	t.bus.WriteShadow(addr.HVBJOY, t.hvbjoyValue())
}

func (t *Timer) syncRDNMI() {
	t.bus.WriteShadow(addr.RDNMI, t.rdnmiValue())
}

// ReadRegister implements memory.RegisterOwner.
func (t *Timer) ReadRegister(reg uint16) uint8 {
	switch reg {
	case addr.NMITIMEN, addr.HTIMEL, addr.HTIMEH, addr.VTIMEL, addr.VTIMEH:
		// Write-only registers read back as open bus.
		return t.bus.OpenBus()
	case addr.RDNMI:
		// The V-blank flag resets after reads. Bits 4-6 are open bus.
		value := t.rdnmiValue() | (t.bus.OpenBus() & 0x70)
		if t.vBlankFlag {
			t.vBlankFlag = false
			t.syncRDNMI()
		}
		return value
	case addr.TIMEUP:
		// Reading acknowledges the timer IRQ.
		value := t.timeupValue()
		if t.timeupFlag {
			t.timeupFlag = false
			t.interrupts.ClearIRQ()
			t.bus.WriteShadow(addr.TIMEUP, 0)
		}
		return value
	case addr.HVBJOY:
		return t.hvbjoyValue()
	default:
		panic(fmt.Sprintf("timer doesn't handle reads to 0x%04X", reg))
	}
}

// WriteRegister implements memory.RegisterOwner.
func (t *Timer) WriteRegister(reg uint16, value uint8) bool {
	switch reg {
	case addr.NMITIMEN:
		// Enabling the NMI while the V-blank flag is already up raises the
		// NMI immediately.
		if !bit.IsSet(7, t.nmitimen) && bit.IsSet(7, value) && t.vBlankFlag {
			t.interrupts.RequestNMI()
		}
		t.nmitimen = value
		slog.Debug("NMITIMEN", "value", fmt.Sprintf("0x%02X", value))
		return true
	case addr.HTIMEL:
		t.htime = (t.htime & 0x0100) | uint16(value)
		return true
	case addr.HTIMEH:
		t.htime = (uint16(value&0x01) << 8) | (t.htime & 0xFF)
		return true
	case addr.VTIMEL:
		t.vtime = (t.vtime & 0x0100) | uint16(value)
		return true
	case addr.VTIMEH:
		t.vtime = (uint16(value&0x01) << 8) | (t.vtime & 0xFF)
		return true
	case addr.RDNMI, addr.TIMEUP, addr.HVBJOY:
		// Read-only.
		return false
	default:
		panic(fmt.Sprintf("timer doesn't handle writes to 0x%04X", reg))
	}
}
