package snes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-snes/snes/addr"
	"github.com/valerio/go-snes/snes/memory"
	"github.com/valerio/go-snes/snes/timing"
)

// testROM builds a minimal LoROM image: reset vector at 0x8000, which holds
// a tight JMP-to-self loop.
func testROM(t *testing.T) *memory.Cartridge {
	t.Helper()
	data := make([]byte, 0x10000)
	copy(data[0x7FC0:], []byte("ORCHESTRATOR TEST    "))
	data[0x7FC0+0x15] = 0x20
	data[0x7FC0+0x1E] = 0xFF
	data[0x7FC0+0x1F] = 0xFF

	// Reset vector -> 0x8000.
	data[0x7FFC] = 0x00
	data[0x7FFD] = 0x80

	// JMP $8000.
	data[0x0000] = 0x4C
	data[0x0001] = 0x00
	data[0x0002] = 0x80

	cart, err := memory.NewCartridge(data)
	require.NoError(t, err)
	return cart
}

func TestSnes_BootsThroughResetVector(t *testing.T) {
	s, err := New(testROM(t))
	require.NoError(t, err)

	assert.Equal(t, uint16(0x8000), s.CPU().Reg().PC())
	assert.True(t, s.CPU().Reg().EmulationMode())
}

func TestSnes_RunFrame(t *testing.T) {
	s, err := New(testROM(t))
	require.NoError(t, err)

	s.RunFrame()

	assert.Equal(t, uint64(1), s.FrameCount())
	assert.Greater(t, s.InstructionCount(), uint64(1000))
	assert.GreaterOrEqual(t, s.Timer().MasterClocks(), uint64(timing.ClocksPerFrame))
}

func TestSnes_VBlankFlagsDuringFrame(t *testing.T) {
	s, err := New(testROM(t))
	require.NoError(t, err)

	// Run to the middle of V-blank.
	for s.Timer().VCount() < 226 {
		require.True(t, s.StepInstruction())
	}

	assert.True(t, s.Timer().IsVBlank())
	assert.Equal(t, uint8(0x80), s.Bus().ReadShadow(addr.RDNMI)&0x80)
}

func TestSnes_AudioCPUKeepsPace(t *testing.T) {
	s, err := New(testROM(t))
	require.NoError(t, err)

	s.RunFrame()

	// The SPC700 boots at 0xFFC0 in empty RAM (a NOP sled) and must have
	// executed a meaningful share of the frame.
	assert.NotEqual(t, uint16(0xFFC0), s.APU().Cpu().Reg().PC())
}

func TestSnes_SnapshotReflectsState(t *testing.T) {
	s, err := New(testROM(t))
	require.NoError(t, err)
	s.RunFrame()

	snap := s.Snapshot()
	assert.Equal(t, s.CPU().Reg().PC(), snap.MainCPU.PC)
	assert.Equal(t, uint64(1), snap.Frames)
	assert.Equal(t, s.Timer().VCount(), snap.VCount)
}

func TestSnes_ResetRebuildsGraph(t *testing.T) {
	s, err := New(testROM(t))
	require.NoError(t, err)
	s.RunFrame()

	require.NoError(t, s.Reset())

	assert.Equal(t, uint64(0), s.FrameCount())
	assert.Equal(t, uint16(0x8000), s.CPU().Reg().PC())
	// Only the reset vector fetch has been charged.
	assert.Less(t, s.Timer().MasterClocks(), uint64(timing.ClocksPerLine))
}

func TestSnes_FatalConditionsSurfaceAsErrors(t *testing.T) {
	s, err := New(testROM(t))
	require.NoError(t, err)

	// Reading an unowned I/O register is an unmapped access.
	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = r.(error)
			}
		}()
		s.Bus().Read8(memory.MakeAddress(0, 0x21FF))
		return nil
	}()

	var unmapped *memory.UnmappedAccessError
	assert.ErrorAs(t, err, &unmapped)
}
