package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTimer(t *testing.T) (*Timer, *Bus) {
	t.Helper()
	bus := NewBus()
	timer, err := NewTimer(bus)
	require.NoError(t, err)
	return timer, bus
}

func TestAudioTimer_CycleCounter(t *testing.T) {
	timer, bus := newTestTimer(t)

	bus.Read8(0x1000)
	bus.Read8(0x1001)
	assert.Equal(t, uint32(2), timer.Counter())

	timer.ResetCounter()
	assert.Equal(t, uint32(0), timer.Counter())
}

func TestAudioTimer_T0Division(t *testing.T) {
	timer, bus := newTestTimer(t)

	// T0DIV = 2, enable T0 through CONTROL.
	bus.Write8(0x00FA, 0x02)
	bus.Write8(0x00F1, 0x01)

	// The 8 kHz base ticks every 128 cycles; two ticks reach the divisor.
	timer.AddCycles(128)
	assert.Equal(t, uint8(0), timer.outputs[0])

	timer.AddCycles(128)
	assert.Equal(t, uint8(1), timer.outputs[0])

	// The output counter wraps modulo 16.
	for i := 0; i < 32; i++ {
		timer.AddCycles(128)
	}
	assert.Equal(t, uint8(1), timer.outputs[0])
}

func TestAudioTimer_T2RunsAt64kHz(t *testing.T) {
	timer, bus := newTestTimer(t)

	bus.Write8(0x00FC, 0x01)
	bus.Write8(0x00F1, 0x04)

	timer.AddCycles(16)
	assert.Equal(t, uint8(1), timer.outputs[2])
}

func TestAudioTimer_OutputReadClears(t *testing.T) {
	timer, bus := newTestTimer(t)

	bus.Write8(0x00FA, 0x01)
	bus.Write8(0x00F1, 0x01)
	timer.AddCycles(128)

	assert.Equal(t, uint8(1), bus.Read8(0x00FD))
	assert.Equal(t, uint8(0), bus.Read8(0x00FD))
}

func TestAudioTimer_EnableResetsCounters(t *testing.T) {
	timer, bus := newTestTimer(t)

	bus.Write8(0x00FA, 0x04)
	bus.Write8(0x00F1, 0x01)
	timer.AddCycles(128)
	assert.Equal(t, uint8(1), timer.counters[0])

	// Disable and re-enable: both the stage and the output reset.
	bus.Write8(0x00F1, 0x00)
	timer.outputs[0] = 5
	bus.Write8(0x00F1, 0x01)

	assert.Equal(t, uint8(0), timer.counters[0])
	assert.Equal(t, uint8(0), timer.outputs[0])
}

func TestAudioTimer_DisabledTimerHolds(t *testing.T) {
	timer, bus := newTestTimer(t)

	bus.Write8(0x00FA, 0x01)
	timer.AddCycles(128 * 4)
	assert.Equal(t, uint8(0), timer.outputs[0])
}

func TestAudioBus_DSPRegisterFile(t *testing.T) {
	_, bus := newTestTimer(t)

	bus.Write8(0x00F2, 0x10)
	bus.Write8(0x00F3, 0x5A)
	assert.Equal(t, uint8(0x5A), bus.Read8(0x00F3))

	// Addresses 0x80+ mirror 0x00-0x7F read-only: the write is dropped and
	// the read at 0x90 returns register 0x10.
	bus.Write8(0x00F2, 0x90)
	bus.Write8(0x00F3, 0x77)
	assert.Equal(t, uint8(0x5A), bus.Read8(0x00F3))
}

func TestAudioBus_WrapPageReads(t *testing.T) {
	_, bus := newTestTimer(t)

	bus.RawWrite8(0x02FF, 0x34)
	bus.RawWrite8(0x0200, 0x12)
	bus.RawWrite8(0x0300, 0x99)

	assert.Equal(t, uint16(0x1234), bus.Read16WrapPage(0x02FF))
	assert.Equal(t, uint16(0x9934), bus.Read16(0x02FF))
}
