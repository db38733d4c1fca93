package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-snes/snes/interrupt"
	"github.com/valerio/go-snes/snes/memory"
)

// newTestCPU builds a CPU on a bare bus, in native mode with 8 bit widths.
func newTestCPU(t *testing.T) (*CPU, *memory.Bus, *interrupt.Flags) {
	t.Helper()
	bus := memory.NewBus()
	flags := interrupt.New()
	c := New(bus, flags)
	c.reg.emulationMode = false
	c.reg.p = flagM | flagX
	c.reg.pc = 0x1000
	return c, bus, flags
}

// loadProgram writes code into bank 0 WRAM at the CPU's current PC.
func loadProgram(c *CPU, bus *memory.Bus, code ...uint8) {
	for i, b := range code {
		bus.RawWrite8(memory.MakeAddress(0, c.reg.pc+uint16(i)), b)
	}
}

// vectorROM builds a cartridge whose interrupt vectors point at the given
// 16 bit targets (keyed by vector address). Each target holds a NOP.
func vectorROM(t *testing.T, vectors map[uint32]uint16) *memory.Cartridge {
	t.Helper()
	data := make([]byte, 0x10000)
	copy(data[0x7FC0:], []byte("CPU TEST CART        "))
	data[0x7FC0+0x15] = 0x20
	data[0x7FC0+0x1C] = 0x00
	data[0x7FC0+0x1D] = 0x00
	data[0x7FC0+0x1E] = 0xFF
	data[0x7FC0+0x1F] = 0xFF

	for vector, target := range vectors {
		offset := vector & 0x7FFF
		data[offset] = uint8(target)
		data[offset+1] = uint8(target >> 8)
		data[target&0x7FFF] = 0xEA
	}

	cart, err := memory.NewCartridge(data)
	require.NoError(t, err)
	return cart
}

func TestCPU_StackPushPop(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	c.reg.sp = 0x01FF

	c.push16(0x1234)
	assert.Equal(t, uint16(0x01FD), c.reg.sp)
	assert.Equal(t, uint8(0x12), bus.RawRead8(memory.MakeAddress(0, 0x01FF)))
	assert.Equal(t, uint8(0x34), bus.RawRead8(memory.MakeAddress(0, 0x01FE)))

	assert.Equal(t, uint16(0x1234), c.pop16())
	assert.Equal(t, uint16(0x01FF), c.reg.sp)
}

func TestCPU_StackWrapInEmulationMode(t *testing.T) {
	// Spec scenario: push at SP=0x0100 lands there and wraps to 0x01FF.
	c, bus, _ := newTestCPU(t)
	c.reg.emulationMode = true
	c.reg.sp = 0x0100

	c.push8(0xAA)

	assert.Equal(t, uint8(0xAA), bus.RawRead8(memory.MakeAddress(0, 0x0100)))
	assert.Equal(t, uint16(0x01FF), c.reg.sp)

	assert.Equal(t, uint8(0xAA), c.pop8())
	assert.Equal(t, uint16(0x0100), c.reg.sp)
}

func TestCPU_LDAImmediate16(t *testing.T) {
	// Spec scenario: native, m=0, A9 34 12 loads 0x1234.
	c, bus, _ := newTestCPU(t)
	c.reg.setFlag(flagM, false)
	loadProgram(c, bus, 0xA9, 0x34, 0x12)

	c.Step()

	assert.Equal(t, uint16(0x1234), c.reg.a)
	assert.False(t, c.reg.flagSet(flagN))
	assert.False(t, c.reg.flagSet(flagZ))
	assert.Equal(t, uint16(0x1003), c.reg.pc)
}

func TestCPU_TXSInEmulationMode(t *testing.T) {
	// Spec scenario: TXS pins the stack page regardless of XH.
	c, bus, _ := newTestCPU(t)
	c.reg.emulationMode = true
	c.reg.x = 0x00AB
	loadProgram(c, bus, 0x9A)

	c.Step()

	assert.Equal(t, uint16(0x01AB), c.reg.sp)
}

func TestCPU_BCDAdd(t *testing.T) {
	// Spec scenario: 0x15 + 0x27 in decimal mode gives 0x42.
	c, bus, _ := newTestCPU(t)
	c.reg.setFlag(flagD, true)
	c.reg.a = 0x0015
	loadProgram(c, bus, 0x69, 0x27)

	c.Step()

	assert.Equal(t, uint8(0x42), c.reg.al())
	assert.False(t, c.reg.flagSet(flagC))
	assert.False(t, c.reg.flagSet(flagN))
	assert.False(t, c.reg.flagSet(flagZ))
	assert.False(t, c.reg.flagSet(flagV))
}

func TestCPU_EmulationModeInvariants(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	c.reg.setFlag(flagM, false)
	c.reg.setFlag(flagX, false)
	c.reg.x = 0x1234
	c.reg.y = 0x5678
	c.reg.sp = 0x1FF0
	c.reg.setFlag(flagC, true)

	// XCE with carry set enters emulation mode.
	loadProgram(c, bus, 0xFB)
	c.Step()

	assert.True(t, c.reg.emulationMode)
	assert.False(t, c.reg.flagSet(flagC))
	assert.True(t, c.reg.flagSet(flagM))
	assert.True(t, c.reg.flagSet(flagX))
	assert.Equal(t, uint16(0x0034), c.reg.x)
	assert.Equal(t, uint16(0x0078), c.reg.y)
	assert.Equal(t, uint16(0x01F0), c.reg.sp)
}

func TestCPU_XCERoundTrip(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	c.reg.setFlag(flagC, true)
	emulation := c.reg.emulationMode

	loadProgram(c, bus, 0xFB, 0xFB)
	c.Step()
	c.Step()

	assert.True(t, c.reg.flagSet(flagC))
	assert.Equal(t, emulation, c.reg.emulationMode)
}

func TestCPU_REPSEPRoundTrip(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	original := c.reg.p

	loadProgram(c, bus, 0xC2, 0x30, 0xE2, 0x30)
	c.Step()
	assert.False(t, c.reg.flagSet(flagM))
	assert.False(t, c.reg.flagSet(flagX))

	c.Step()
	assert.Equal(t, original, c.reg.p)
}

func TestCPU_PLPRenormalizesIndexWidth(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	c.reg.setFlag(flagX, false)
	c.reg.x = 0x1234
	c.reg.y = 0xABCD

	// Push a P with x=1, then PLP: the high index bytes must clear.
	c.push8(flagM | flagX)
	loadProgram(c, bus, 0x28)
	c.Step()

	assert.Equal(t, uint16(0x0034), c.reg.x)
	assert.Equal(t, uint16(0x00CD), c.reg.y)
}

func TestCPU_PHAPLAIdentity(t *testing.T) {
	testCases := []struct {
		desc  string
		wide  bool
		value uint16
	}{
		{desc: "8 bit", wide: false, value: 0x0042},
		{desc: "16 bit", wide: true, value: 0xBEEF},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, bus, _ := newTestCPU(t)
			c.reg.setFlag(flagM, !tC.wide)
			c.reg.a = tC.value
			sp := c.reg.sp

			loadProgram(c, bus, 0x48, 0x68)
			c.Step()
			c.Step()

			assert.Equal(t, tC.value, c.reg.a)
			assert.Equal(t, sp, c.reg.sp)
		})
	}
}

func TestCPU_NMIDispatch(t *testing.T) {
	c, bus, flags := newTestCPU(t)
	bus.SetCartridge(vectorROM(t, map[uint32]uint16{0xFFEA: 0x9000}))
	c.reg.pb = 0
	c.reg.setFlag(flagD, true)
	p := c.reg.p

	flags.RequestNMI()
	c.Step() // interrupt accepted, then the handler's first instruction (NOP) runs

	assert.Equal(t, uint16(0x9001), c.reg.pc)
	assert.Equal(t, uint8(0), c.reg.pb)
	assert.True(t, c.reg.flagSet(flagI))
	assert.False(t, c.reg.flagSet(flagD))
	assert.False(t, flags.IsNMI())

	// Stack holds PB, PC and the pre-interrupt P (bit 4 cleared).
	assert.Equal(t, uint8(p&^flagX), c.pop8())
	assert.Equal(t, uint16(0x1000), c.pop16())
	assert.Equal(t, uint8(0), c.pop8())
}

func TestCPU_IRQMaskedByIFlag(t *testing.T) {
	c, bus, flags := newTestCPU(t)
	bus.SetCartridge(vectorROM(t, map[uint32]uint16{0xFFEE: 0x9000}))
	c.reg.setFlag(flagI, true)
	loadProgram(c, bus, 0xEA)

	flags.RequestIRQ()
	c.Step()

	// The IRQ stays pending; the NOP ran instead.
	assert.Equal(t, uint16(0x1001), c.reg.pc)
	assert.True(t, flags.IsIRQ())

	c.reg.setFlag(flagI, false)
	c.Step()
	assert.Equal(t, uint16(0x9001), c.reg.pc)
	assert.False(t, flags.IsIRQ())
}

func TestCPU_WAIWakesOnInterrupt(t *testing.T) {
	c, bus, flags := newTestCPU(t)
	bus.SetCartridge(vectorROM(t, map[uint32]uint16{0xFFEA: 0x9000}))
	loadProgram(c, bus, 0xCB)

	c.Step()
	assert.True(t, c.waiting)

	// Idle steps make no progress.
	pc := c.reg.pc
	c.Step()
	assert.Equal(t, pc, c.reg.pc)

	flags.RequestNMI()
	c.Step()
	assert.False(t, c.waiting)
	assert.Equal(t, uint16(0x9001), c.reg.pc)
}

func TestCPU_STPHaltsUntilReset(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	bus.SetCartridge(vectorROM(t, map[uint32]uint16{0xFFFC: 0x8123}))
	loadProgram(c, bus, 0xDB, 0xEA)

	c.Step()
	assert.True(t, c.Stopped())

	pc := c.reg.pc
	c.Step()
	assert.Equal(t, pc, c.reg.pc)

	c.Reset()
	assert.False(t, c.Stopped())
	assert.Equal(t, uint16(0x8123), c.reg.pc)
}

func TestCPU_BRKEmulationMode(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	bus.SetCartridge(vectorROM(t, map[uint32]uint16{0xFFFE: 0x9000}))
	c.reg.emulationMode = true
	c.updateRegistersAfterFlagChange()
	p := c.reg.p
	loadProgram(c, bus, 0x00, 0xFF)

	c.Step()

	assert.Equal(t, uint16(0x9000), c.reg.pc)
	assert.True(t, c.reg.flagSet(flagI))
	assert.False(t, c.reg.flagSet(flagD))

	// P is pushed with the break bit set, after PC+1.
	assert.Equal(t, uint8(p|flagX), c.pop8())
	assert.Equal(t, uint16(0x1002), c.pop16())
}

func TestCPU_BRKNativeMode(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	bus.SetCartridge(vectorROM(t, map[uint32]uint16{0xFFE6: 0x9000}))
	c.reg.pb = 0
	loadProgram(c, bus, 0x00, 0xFF)

	c.Step()

	assert.Equal(t, uint16(0x9000), c.reg.pc)
	assert.Equal(t, uint8(0), c.reg.pb)
}

func TestCPU_RTIRestoresState(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	c.push8(0x12)      // PB
	c.push16(0x3456)   // PC
	c.push8(flagM | flagX | flagC)

	loadProgram(c, bus, 0x40)
	c.Step()

	assert.Equal(t, uint16(0x3456), c.reg.pc)
	assert.Equal(t, uint8(0x12), c.reg.pb)
	assert.True(t, c.reg.flagSet(flagC))
}
