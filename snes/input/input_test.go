package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-snes/snes/addr"
	"github.com/valerio/go-snes/snes/interrupt"
	"github.com/valerio/go-snes/snes/memory"
	"github.com/valerio/go-snes/snes/timer"
)

func newTestInput(t *testing.T) (*Input, *memory.Bus, *timer.Timer) {
	t.Helper()
	bus := memory.NewBus()
	clock, err := timer.New(bus, interrupt.New())
	require.NoError(t, err)
	bus.SetCycleSink(clock)

	in, err := New(bus, clock)
	require.NoError(t, err)
	return in, bus, clock
}

func TestInput_AutoJoypadRead(t *testing.T) {
	in, bus, _ := newTestInput(t)

	bus.Write8(memory.MakeAddress(0, addr.NMITIMEN), 0x01)
	in.SetButtons(ButtonStart | ButtonA)

	in.ProcessVBlankStart()

	assert.Equal(t, uint8(0x10), in.ReadRegister(addr.JOY1H))
	assert.Equal(t, uint8(0x80), in.ReadRegister(addr.JOY1L))

	// The shadow is refreshed for the debugger.
	assert.Equal(t, uint8(0x10), bus.ReadShadow(addr.JOY1H))
}

func TestInput_AutoJoypadDisabled(t *testing.T) {
	in, bus, _ := newTestInput(t)

	bus.Write8(memory.MakeAddress(0, addr.NMITIMEN), 0x00)
	in.SetButtons(ButtonB)

	in.ProcessVBlankStart()

	assert.Equal(t, uint8(0x00), in.ReadRegister(addr.JOY1H))
}

func TestInput_SerialRead(t *testing.T) {
	in, bus, _ := newTestInput(t)
	bus.SetOpenBus(0x00)

	in.SetButtons(ButtonB | ButtonStart) // bits 15 and 12

	// Latch, release, then clock out bits, B first.
	in.WriteRegister(addr.JOYWR, 0x01)
	in.WriteRegister(addr.JOYWR, 0x00)

	bits := make([]uint8, 16)
	for i := range bits {
		bits[i] = in.ReadRegister(addr.JOYA) & 0x01
	}

	assert.Equal(t, uint8(1), bits[0])  // B
	assert.Equal(t, uint8(0), bits[1])  // Y
	assert.Equal(t, uint8(1), bits[3])  // Start
	assert.Equal(t, uint8(0), bits[15]) // unused

	// Past the 16th bit the line reads high.
	assert.Equal(t, uint8(1), in.ReadRegister(addr.JOYA)&0x01)
}

func TestInput_PressRelease(t *testing.T) {
	in, _, _ := newTestInput(t)

	in.Press(ButtonUp)
	in.Press(ButtonA)
	assert.Equal(t, ButtonUp|ButtonA, in.buttons)

	in.Release(ButtonUp)
	assert.Equal(t, ButtonA, in.buttons)
}

func TestInput_ResultRegistersAreReadOnly(t *testing.T) {
	in, _, _ := newTestInput(t)
	assert.False(t, in.WriteRegister(addr.JOY1L, 0xFF))
}
