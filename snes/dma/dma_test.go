package dma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-snes/snes/addr"
	"github.com/valerio/go-snes/snes/interrupt"
	"github.com/valerio/go-snes/snes/memory"
	"github.com/valerio/go-snes/snes/timer"
)

// portRecorder owns a span of B-bus registers and records traffic.
type portRecorder struct {
	writes   map[uint16][]uint8
	readByte uint8
}

func newPortRecorder() *portRecorder {
	return &portRecorder{writes: make(map[uint16][]uint8)}
}

func (p *portRecorder) ReadRegister(reg uint16) uint8 {
	return p.readByte
}

func (p *portRecorder) WriteRegister(reg uint16, value uint8) bool {
	p.writes[reg] = append(p.writes[reg], value)
	return true
}

func newTestDma(t *testing.T) (*Dma, *memory.Bus, *portRecorder) {
	t.Helper()
	bus := memory.NewBus()
	clock, err := timer.New(bus, interrupt.New())
	require.NoError(t, err)
	bus.SetCycleSink(clock)

	d, err := New(bus, clock)
	require.NoError(t, err)

	ports := newPortRecorder()
	require.NoError(t, bus.RequestOwnershipBlock(0x2118, 2, ports))

	return d, bus, ports
}

// program writes one channel register through the bus.
func program(bus *memory.Bus, channel uint16, reg uint16, value uint8) {
	bus.Write8(memory.MakeAddress(0, 0x4300|channel<<4|reg), value)
}

func TestDma_GPDMAMode1(t *testing.T) {
	d, bus, ports := newTestDma(t)

	// Alternating 0x11/0x22 in WRAM feeds the word port at 0x2118/0x2119.
	for i := uint16(0); i < 8; i += 2 {
		bus.RawWrite8(memory.MakeAddress(0x7E, 0x1234+i), 0x11)
		bus.RawWrite8(memory.MakeAddress(0x7E, 0x1235+i), 0x22)
	}

	program(bus, 0, addr.DmaParam, 0x01)
	program(bus, 0, addr.DmaBBusPort, 0x18)
	program(bus, 0, addr.DmaABusL, 0x34)
	program(bus, 0, addr.DmaABusH, 0x12)
	program(bus, 0, addr.DmaABusBank, 0x7E)
	program(bus, 0, addr.DmaCountL, 0x08)
	program(bus, 0, addr.DmaCountH, 0x00)

	bus.Write8(memory.MakeAddress(0, addr.MDMAEN), 0x01)

	assert.Equal(t, []uint8{0x11, 0x11, 0x11, 0x11}, ports.writes[0x2118])
	assert.Equal(t, []uint8{0x22, 0x22, 0x22, 0x22}, ports.writes[0x2119])

	// The live channel state is synced to the shadow for the debugger.
	assert.Equal(t, uint8(0x00), bus.ReadShadow(0x4305))
	assert.Equal(t, uint8(0x00), bus.ReadShadow(0x4306))
	assert.Equal(t, uint8(0x3C), bus.ReadShadow(0x4302))
	assert.Equal(t, uint8(0x12), bus.ReadShadow(0x4303))

	// The enable bit cleared itself.
	assert.Equal(t, uint8(0x00), d.ReadRegister(addr.MDMAEN))
}

func TestDma_GPDMAFixedAndDecrement(t *testing.T) {
	t.Run("fixed A address", func(t *testing.T) {
		_, bus, ports := newTestDma(t)
		bus.RawWrite8(memory.MakeAddress(0x7E, 0x0100), 0x77)

		program(bus, 0, addr.DmaParam, 0x08) // mode 0, fixed
		program(bus, 0, addr.DmaBBusPort, 0x18)
		program(bus, 0, addr.DmaABusL, 0x00)
		program(bus, 0, addr.DmaABusH, 0x01)
		program(bus, 0, addr.DmaABusBank, 0x7E)
		program(bus, 0, addr.DmaCountL, 0x03)

		bus.Write8(memory.MakeAddress(0, addr.MDMAEN), 0x01)

		assert.Equal(t, []uint8{0x77, 0x77, 0x77}, ports.writes[0x2118])
		assert.Equal(t, uint8(0x00), bus.ReadShadow(0x4302))
		assert.Equal(t, uint8(0x01), bus.ReadShadow(0x4303))
	})

	t.Run("decrementing A address", func(t *testing.T) {
		_, bus, ports := newTestDma(t)
		bus.RawWrite8(memory.MakeAddress(0x7E, 0x0100), 0x01)
		bus.RawWrite8(memory.MakeAddress(0x7E, 0x00FF), 0x02)

		program(bus, 0, addr.DmaParam, 0x10) // mode 0, decrement
		program(bus, 0, addr.DmaBBusPort, 0x18)
		program(bus, 0, addr.DmaABusL, 0x00)
		program(bus, 0, addr.DmaABusH, 0x01)
		program(bus, 0, addr.DmaABusBank, 0x7E)
		program(bus, 0, addr.DmaCountL, 0x02)

		bus.Write8(memory.MakeAddress(0, addr.MDMAEN), 0x01)

		assert.Equal(t, []uint8{0x01, 0x02}, ports.writes[0x2118])
	})
}

func TestDma_GPDMABToA(t *testing.T) {
	_, bus, ports := newTestDma(t)
	ports.readByte = 0xE7

	program(bus, 0, addr.DmaParam, 0x80) // B to A, mode 0
	program(bus, 0, addr.DmaBBusPort, 0x18)
	program(bus, 0, addr.DmaABusL, 0x00)
	program(bus, 0, addr.DmaABusH, 0x10)
	program(bus, 0, addr.DmaABusBank, 0x7E)
	program(bus, 0, addr.DmaCountL, 0x02)

	bus.Write8(memory.MakeAddress(0, addr.MDMAEN), 0x01)

	assert.Equal(t, uint8(0xE7), bus.RawRead8(memory.MakeAddress(0x7E, 0x1000)))
	assert.Equal(t, uint8(0xE7), bus.RawRead8(memory.MakeAddress(0x7E, 0x1001)))
}

// testCartridge builds a minimal valid LoROM image for ROM-target cases.
func testCartridge(t *testing.T) *memory.Cartridge {
	t.Helper()
	data := make([]byte, 0x10000)
	copy(data[0x7FC0:], []byte("DMA TEST CART        "))
	data[0x7FC0+0x15] = 0x20
	data[0x7FC0+0x1E] = 0xFF
	data[0x7FC0+0x1F] = 0xFF
	data[0x0000] = 0x3C // bus 0x00:8000

	cart, err := memory.NewCartridge(data)
	require.NoError(t, err)
	return cart
}

func TestDma_GPDMABToAROMTarget(t *testing.T) {
	d, bus, ports := newTestDma(t)
	bus.SetCartridge(testCartridge(t))
	ports.readByte = 0x99

	// A B->A transfer aimed at ROM must complete as a no-op on the A-bus
	// side instead of faulting the run.
	program(bus, 0, addr.DmaParam, 0x80)
	program(bus, 0, addr.DmaBBusPort, 0x18)
	program(bus, 0, addr.DmaABusL, 0x00)
	program(bus, 0, addr.DmaABusH, 0x80)
	program(bus, 0, addr.DmaABusBank, 0x00)
	program(bus, 0, addr.DmaCountL, 0x02)

	assert.NotPanics(t, func() {
		bus.Write8(memory.MakeAddress(0, addr.MDMAEN), 0x01)
	})

	assert.Equal(t, uint8(0x3C), bus.RawRead8(memory.MakeAddress(0x00, 0x8000)))
	assert.Equal(t, uint8(0x00), d.ReadRegister(addr.MDMAEN))
}

func TestDma_GPDMASkipsHDMAChannels(t *testing.T) {
	d, bus, ports := newTestDma(t)

	program(bus, 0, addr.DmaParam, 0x00)
	program(bus, 0, addr.DmaBBusPort, 0x18)
	program(bus, 0, addr.DmaABusBank, 0x7E)
	program(bus, 0, addr.DmaCountL, 0x01)

	bus.Write8(memory.MakeAddress(0, addr.HDMAEN), 0x01)
	bus.Write8(memory.MakeAddress(0, addr.MDMAEN), 0x01)

	assert.Empty(t, ports.writes[0x2118])
	// The channel stays requested but untouched.
	assert.Equal(t, uint8(0x01), d.ReadRegister(addr.MDMAEN))
}

// setupHDMATable writes a direct-mode HDMA table for channel 0 at
// 0x7E:0400: entries of (line count, payload bytes...).
func setupHDMATable(bus *memory.Bus, entries []uint8) {
	for i, b := range entries {
		bus.RawWrite8(memory.MakeAddress(0x7E, 0x0400+uint16(i)), b)
	}
}

func hdmaChannel(bus *memory.Bus, params uint8) {
	program(bus, 0, addr.DmaParam, params)
	program(bus, 0, addr.DmaBBusPort, 0x18)
	program(bus, 0, addr.DmaABusL, 0x00)
	program(bus, 0, addr.DmaABusH, 0x04)
	program(bus, 0, addr.DmaABusBank, 0x7E)
	bus.Write8(memory.MakeAddress(0, addr.HDMAEN), 0x01)
}

func TestDma_HDMADirect(t *testing.T) {
	d, bus, ports := newTestDma(t)

	// Two lines without the repeat flag: one byte (mode 0) is written on the
	// first line only, then terminator.
	setupHDMATable(bus, []uint8{0x02, 0xAB, 0x00})
	hdmaChannel(bus, 0x00)

	d.ProcessVBlankEnd()
	assert.False(t, d.channels[0].isTerminated)
	assert.True(t, d.channels[0].doTransfer)

	d.ProcessHBlankStart(0)
	assert.Equal(t, []uint8{0xAB}, ports.writes[0x2118])

	// The repeat flag is down, so the second line transfers nothing, then
	// the terminator ends the channel.
	d.ProcessHBlankStart(1)
	assert.True(t, d.channels[0].isTerminated)

	d.ProcessHBlankStart(2)
	assert.Equal(t, []uint8{0xAB}, ports.writes[0x2118])
}

func TestDma_HDMARepeat(t *testing.T) {
	d, bus, ports := newTestDma(t)

	// Repeat entry (bit 7): three lines, each transferring a fresh byte.
	setupHDMATable(bus, []uint8{0x83, 0x10, 0x20, 0x30, 0x00})
	hdmaChannel(bus, 0x00)

	d.ProcessVBlankEnd()
	d.ProcessHBlankStart(0)
	d.ProcessHBlankStart(1)
	d.ProcessHBlankStart(2)

	assert.Equal(t, []uint8{0x10, 0x20, 0x30}, ports.writes[0x2118])
	assert.True(t, d.channels[0].isTerminated)
}

func TestDma_HDMAZeroLineCountTerminatesImmediately(t *testing.T) {
	d, bus, ports := newTestDma(t)

	setupHDMATable(bus, []uint8{0x00})
	hdmaChannel(bus, 0x00)

	d.ProcessVBlankEnd()
	assert.True(t, d.channels[0].isTerminated)
	assert.False(t, d.channels[0].doTransfer)

	d.ProcessHBlankStart(0)
	assert.Empty(t, ports.writes[0x2118])

	// The enable bit survives; only the channel state terminates.
	assert.Equal(t, uint8(0x01), d.ReadRegister(addr.HDMAEN))
}

func TestDma_HDMAIndirect(t *testing.T) {
	d, bus, ports := newTestDma(t)

	// Table: one line, indirect pointer 0x0500. Payload lives there.
	setupHDMATable(bus, []uint8{0x01, 0x00, 0x05, 0x00})
	bus.RawWrite8(memory.MakeAddress(0x7E, 0x0500), 0x42)
	bus.RawWrite8(memory.MakeAddress(0x7E, 0x0501), 0x43)

	hdmaChannel(bus, 0x41) // indirect, mode 1 (two bytes per line)
	program(bus, 0, addr.DmaIndirectBank, 0x7E)
	bus.Write8(memory.MakeAddress(0, addr.HDMAEN), 0x01)

	d.ProcessVBlankEnd()
	assert.Equal(t, uint16(0x0500), d.channels[0].byteCount)

	d.ProcessHBlankStart(0)
	assert.Equal(t, []uint8{0x42}, ports.writes[0x2118])
	assert.Equal(t, []uint8{0x43}, ports.writes[0x2119])
	assert.True(t, d.channels[0].isTerminated)
}

func TestDma_WritePatternTable(t *testing.T) {
	// Mode x step -> B-bus offset, straight from the transfer unit table.
	testCases := []struct {
		mode uint8
		want [4]uint8
	}{
		{mode: 0, want: [4]uint8{0, 0, 0, 0}},
		{mode: 1, want: [4]uint8{0, 1, 0, 1}},
		{mode: 2, want: [4]uint8{0, 0, 0, 0}},
		{mode: 3, want: [4]uint8{0, 0, 1, 1}},
		{mode: 4, want: [4]uint8{0, 1, 2, 3}},
		{mode: 5, want: [4]uint8{0, 1, 0, 1}},
		{mode: 6, want: [4]uint8{0, 0, 0, 0}},
		{mode: 7, want: [4]uint8{0, 0, 1, 1}},
	}
	for _, tC := range testCases {
		assert.Equal(t, tC.want, bBusStep[tC.mode])
	}

	assert.Equal(t, [8]uint8{1, 2, 2, 4, 4, 4, 2, 4}, hdmaBytes)
}

func TestDma_RegisterReadback(t *testing.T) {
	d, bus, _ := newTestDma(t)

	program(bus, 3, addr.DmaParam, 0x42)
	assert.Equal(t, uint8(0x42), d.ReadRegister(0x4330))
	assert.Equal(t, uint8(0x42), bus.Read8(memory.MakeAddress(0, 0x4330)))
}
