// Package input owns the controller I/O registers and performs the
// auto-joypad read during the V-blank window.
package input

import (
	"fmt"

	"github.com/valerio/go-snes/snes/addr"
	"github.com/valerio/go-snes/snes/bit"
	"github.com/valerio/go-snes/snes/memory"
	"github.com/valerio/go-snes/snes/timer"
)

// Button bits in the 16 bit pad word, matching the JOY1H/JOY1L layout.
type Button uint16

const (
	ButtonR      Button = 0x0010
	ButtonL      Button = 0x0020
	ButtonX      Button = 0x0040
	ButtonA      Button = 0x0080
	ButtonRight  Button = 0x0100
	ButtonLeft   Button = 0x0200
	ButtonDown   Button = 0x0400
	ButtonUp     Button = 0x0800
	ButtonStart  Button = 0x1000
	ButtonSelect Button = 0x2000
	ButtonY      Button = 0x4000
	ButtonB      Button = 0x8000
)

type Input struct {
	bus   *memory.Bus
	clock *timer.Timer

	buttons Button

	// Auto-joypad result registers; refreshed at V-blank start.
	joy1 uint16
	joy2 uint16

	// Serial shift state for manual JOYA reads.
	latch    bool
	shiftPos uint8
}

func New(bus *memory.Bus, clock *timer.Timer) (*Input, error) {
	in := &Input{bus: bus, clock: clock}

	regs := []uint16{
		addr.JOYA, addr.JOYB,
		addr.JOY1L, addr.JOY1H, addr.JOY2L, addr.JOY2H,
		addr.JOY3L, addr.JOY3H, addr.JOY4L, addr.JOY4H,
	}
	for _, reg := range regs {
		if err := bus.RequestOwnership(reg, in); err != nil {
			return nil, err
		}
	}

	clock.AttachVBlankObserver(in)

	return in, nil
}

// SetButtons replaces the pad state with the given bit set.
func (in *Input) SetButtons(buttons Button) {
	in.buttons = buttons
}

// Press adds a button to the pad state.
func (in *Input) Press(button Button) {
	in.buttons |= button
}

// Release removes a button from the pad state.
func (in *Input) Release(button Button) {
	in.buttons &^= button
}

// ProcessVBlankStart implements timer.VBlankObserver: when auto-joypad read
// is enabled, the hardware snapshots the pads into JOY1-JOY4 during the
// V-blank busy window.
func (in *Input) ProcessVBlankStart() {
	if !bit.IsSet16(0, uint16(in.bus.ReadShadow(addr.NMITIMEN))) {
		return
	}

	in.joy1 = uint16(in.buttons)
	in.joy2 = 0
	in.bus.WriteShadow(addr.JOY1L, bit.Low(in.joy1))
	in.bus.WriteShadow(addr.JOY1H, bit.High(in.joy1))
	in.shiftPos = 0
}

// ProcessVBlankEnd implements timer.VBlankObserver.
func (in *Input) ProcessVBlankEnd() {}

// ReadRegister implements memory.RegisterOwner.
func (in *Input) ReadRegister(reg uint16) uint8 {
	switch reg {
	case addr.JOYA:
		// Serial pad read; these are slow ports, so charge the difference
		// between the generic I/O cost already added and the real cost.
		in.clock.AddCycles(memory.ClockOther - memory.ClockIoReg)
		return in.serialBit() | (in.bus.OpenBus() & 0xFC)
	case addr.JOYB:
		in.clock.AddCycles(memory.ClockOther - memory.ClockIoReg)
		return 0x1C | (in.bus.OpenBus() & 0xE0)
	case addr.JOY1L:
		return bit.Low(in.joy1)
	case addr.JOY1H:
		return bit.High(in.joy1)
	case addr.JOY2L:
		return bit.Low(in.joy2)
	case addr.JOY2H:
		return bit.High(in.joy2)
	case addr.JOY3L, addr.JOY3H, addr.JOY4L, addr.JOY4H:
		return 0
	default:
		panic(fmt.Sprintf("input doesn't handle reads to 0x%04X", reg))
	}
}

// serialBit clocks out one button bit per JOYA read while the latch is low,
// B first, matching the controller's shift register.
func (in *Input) serialBit() uint8 {
	if in.latch {
		return uint8(in.buttons>>15) & 0x01
	}
	if in.shiftPos >= 16 {
		return 1
	}
	value := uint8(in.buttons>>(15-in.shiftPos)) & 0x01
	in.shiftPos++
	return value
}

// WriteRegister implements memory.RegisterOwner.
func (in *Input) WriteRegister(reg uint16, value uint8) bool {
	switch reg {
	case addr.JOYWR:
		in.clock.AddCycles(memory.ClockOther - memory.ClockIoReg)
		wasLatched := in.latch
		in.latch = bit.IsSet(0, value)
		if wasLatched && !in.latch {
			in.shiftPos = 0
		}
		return true
	default:
		// The result registers are read-only.
		return false
	}
}
