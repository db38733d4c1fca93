package apu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-snes/snes/addr"
	"github.com/valerio/go-snes/snes/memory"
)

func newTestApu(t *testing.T) (*Apu, *memory.Bus) {
	t.Helper()
	bus := memory.NewBus()
	a, err := New(bus)
	require.NoError(t, err)
	return a, bus
}

func TestApu_BootSignature(t *testing.T) {
	a, _ := newTestApu(t)

	// Before the handshake the IPL ready bytes appear on ports 0 and 1.
	assert.Equal(t, uint8(0xAA), a.ReadRegister(addr.APUI00))
	assert.Equal(t, uint8(0xBB), a.ReadRegister(addr.APUI01))
}

func TestApu_HandshakeStages(t *testing.T) {
	a, _ := newTestApu(t)

	// 0xCC to port 0 enters stage 2: reads now see the transfer ports.
	a.WriteRegister(addr.APUI00, 0xCC)
	assert.Equal(t, uint8(0x00), a.ReadRegister(addr.APUI00))

	// Audio-side reply becomes visible to the main CPU.
	a.AudioBus().Write8(0x00F4, 0xCC)
	assert.Equal(t, uint8(0xCC), a.ReadRegister(addr.APUI00))

	// 0xFF to port 1 while every port latch is zero returns to stage 1.
	a.WriteRegister(addr.APUI00, 0x00)
	a.WriteRegister(addr.APUI01, 0x00)
	a.WriteRegister(addr.APUI02, 0x00)
	a.WriteRegister(addr.APUI03, 0x00)
	a.WriteRegister(addr.APUI01, 0xFF)

	assert.Equal(t, uint8(0xAA), a.ReadRegister(addr.APUI00))
	assert.Equal(t, uint8(0xBB), a.ReadRegister(addr.APUI01))
}

func TestApu_PortMirroring(t *testing.T) {
	a, _ := newTestApu(t)

	// Main CPU writes surface at 0x00F4-0x00F7 on the audio side.
	a.WriteRegister(addr.APUI02, 0x12)
	a.WriteRegister(addr.APUI03, 0x34)
	assert.Equal(t, uint8(0x12), a.AudioBus().Read8(0x00F6))
	assert.Equal(t, uint8(0x34), a.AudioBus().Read8(0x00F7))

	// Audio CPU writes flow the other way.
	a.AudioBus().Write8(0x00F6, 0x56)
	assert.Equal(t, uint8(0x56), a.ReadRegister(addr.APUI02))
}

func TestApu_ControlClearsInputPorts(t *testing.T) {
	a, _ := newTestApu(t)

	a.WriteRegister(addr.APUI00, 0x11)
	a.WriteRegister(addr.APUI01, 0x22)
	a.WriteRegister(addr.APUI02, 0x33)

	// CONTROL bit 4 clears the pair 0-1, bit 5 the pair 2-3.
	a.AudioBus().Write8(0x00F1, 0x10)
	assert.Equal(t, uint8(0x00), a.AudioBus().Read8(0x00F4))
	assert.Equal(t, uint8(0x00), a.AudioBus().Read8(0x00F5))
	assert.Equal(t, uint8(0x33), a.AudioBus().Read8(0x00F6))

	a.AudioBus().Write8(0x00F1, 0x20)
	assert.Equal(t, uint8(0x00), a.AudioBus().Read8(0x00F6))
}

func TestApu_StepConvertsMasterClocks(t *testing.T) {
	a, _ := newTestApu(t)
	cpu := a.Cpu()
	start := cpu.Reg().PC()

	// 21 master clocks buy one SPC cycle; the NOP at the reset PC runs.
	a.AudioBus().RawWrite8(start, 0x00)
	a.Step(ClocksPerSpcCycle)
	assert.Equal(t, start+1, cpu.Reg().PC())

	// Remainders carry across calls.
	a.AudioBus().RawWrite8(start+1, 0x00)
	for i := 0; i < ClocksPerSpcCycle; i++ {
		a.Step(1)
	}
	assert.Equal(t, start+2, cpu.Reg().PC())
}

func TestApu_OwnsMainBusPorts(t *testing.T) {
	a, bus := newTestApu(t)

	bus.Write8(memory.MakeAddress(0, addr.APUI00), 0x7F)
	assert.Equal(t, uint8(0x7F), a.AudioBus().Read8(0x00F4))
	assert.Equal(t, uint8(0xAA), bus.Read8(memory.MakeAddress(0, addr.APUI00)))
}
