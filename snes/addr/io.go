package addr

// PPU registers (B bus, 0x21xx page).
const (
	// Display Control 1 register.
	INIDISP uint16 = 0x2100
	// Object Size and Base register.
	OBSEL uint16 = 0x2101
	// OAM Address registers.
	OAMADDL uint16 = 0x2102
	OAMADDH uint16 = 0x2103
	// OAM Data Write register.
	OAMDATA uint16 = 0x2104
	// BG Mode and Character Size register.
	BGMODE uint16 = 0x2105
	// Mosaic register.
	MOSAIC uint16 = 0x2106
	// BG Tilemap Base registers.
	BG1SC uint16 = 0x2107
	BG2SC uint16 = 0x2108
	BG3SC uint16 = 0x2109
	BG4SC uint16 = 0x210A
	// BG Character Base registers.
	BG12NBA uint16 = 0x210B
	BG34NBA uint16 = 0x210C
	// BG Scroll registers.
	BG1HOFS uint16 = 0x210D
	BG1VOFS uint16 = 0x210E
	BG2HOFS uint16 = 0x210F
	BG2VOFS uint16 = 0x2110
	BG3HOFS uint16 = 0x2111
	BG3VOFS uint16 = 0x2112
	BG4HOFS uint16 = 0x2113
	BG4VOFS uint16 = 0x2114
	// VRAM Address Increment Mode register.
	VMAIN uint16 = 0x2115
	// VRAM Address registers.
	VMADDL uint16 = 0x2116
	VMADDH uint16 = 0x2117
	// VRAM Data Write registers.
	VMDATAL uint16 = 0x2118
	VMDATAH uint16 = 0x2119
	// Mode 7 registers.
	M7SEL uint16 = 0x211A
	M7A   uint16 = 0x211B
	M7B   uint16 = 0x211C
	M7C   uint16 = 0x211D
	M7D   uint16 = 0x211E
	M7X   uint16 = 0x211F
	M7Y   uint16 = 0x2120
	// CGRAM Address and Data Write registers.
	CGADD  uint16 = 0x2121
	CGDATA uint16 = 0x2122
	// Window registers.
	W12SEL  uint16 = 0x2123
	W34SEL  uint16 = 0x2124
	WOBJSEL uint16 = 0x2125
	WH0     uint16 = 0x2126
	WH1     uint16 = 0x2127
	WH2     uint16 = 0x2128
	WH3     uint16 = 0x2129
	WBGLOG  uint16 = 0x212A
	WOBJLOG uint16 = 0x212B
	// Main/Sub Screen Designation registers.
	TM uint16 = 0x212C
	TS uint16 = 0x212D
	// Window Mask Designation registers.
	TMW uint16 = 0x212E
	TSW uint16 = 0x212F
	// Color Math registers.
	CGWSEL  uint16 = 0x2130
	CGADSUB uint16 = 0x2131
	COLDATA uint16 = 0x2132
	// Display Control 2 register.
	SETINI uint16 = 0x2133
	// Multiplication Result registers (read-only).
	MPYL uint16 = 0x2134
	MPYM uint16 = 0x2135
	MPYH uint16 = 0x2136
	// Software Latch register.
	SLHV uint16 = 0x2137
	// OAM Data Read register.
	RDOAM uint16 = 0x2138
	// VRAM Data Read registers.
	RDVRAML uint16 = 0x2139
	RDVRAMH uint16 = 0x213A
	// CGRAM Data Read register.
	RDCGRAM uint16 = 0x213B
	// H/V Counter Latch registers.
	OPHCT uint16 = 0x213C
	OPVCT uint16 = 0x213D
	// PPU Status registers.
	STAT77 uint16 = 0x213E
	STAT78 uint16 = 0x213F
)

// APU mailbox ports on the main bus.
const (
	APUI00 uint16 = 0x2140
	APUI01 uint16 = 0x2141
	APUI02 uint16 = 0x2142
	APUI03 uint16 = 0x2143
)

// WRAM access ports.
const (
	// WRAM Data Read/Write register.
	WMDATA uint16 = 0x2180
	// WRAM Address registers.
	WMADDL uint16 = 0x2181
	WMADDM uint16 = 0x2182
	WMADDH uint16 = 0x2183
)

// Joypad I/O ports (0x40xx page).
const (
	// Joypad Output register.
	JOYWR uint16 = 0x4016
	// Joypad Serial Read registers.
	JOYA uint16 = 0x4016
	JOYB uint16 = 0x4017
)

// CPU control registers (0x42xx page).
const (
	// Interrupt Enable and Joypad Request register.
	NMITIMEN uint16 = 0x4200
	// Programmable I/O Port register.
	WRIO uint16 = 0x4201
	// Multiplication/Division registers.
	WRMPYA uint16 = 0x4202
	WRMPYB uint16 = 0x4203
	WRDIVL uint16 = 0x4204
	WRDIVH uint16 = 0x4205
	WRDIVB uint16 = 0x4206
	// H/V Timer Compare registers.
	HTIMEL uint16 = 0x4207
	HTIMEH uint16 = 0x4208
	VTIMEL uint16 = 0x4209
	VTIMEH uint16 = 0x420A
	// DMA Enable registers.
	MDMAEN uint16 = 0x420B
	HDMAEN uint16 = 0x420C
	// Memory-2 Waitstate Control register.
	MEMSEL uint16 = 0x420D
	// V-Blank NMI Flag and CPU Version register (read-only).
	RDNMI uint16 = 0x4210
	// H/V Timer IRQ Flag register (read-only).
	TIMEUP uint16 = 0x4211
	// H/V-Blank and Joypad Busy Flag register (read-only).
	HVBJOY uint16 = 0x4212
	// Programmable I/O Port Read register.
	RDIO uint16 = 0x4213
	// Division/Multiplication Result registers (read-only).
	RDDIVL uint16 = 0x4214
	RDDIVH uint16 = 0x4215
	RDMPYL uint16 = 0x4216
	RDMPYH uint16 = 0x4217
	// Auto-Joypad Result registers (read-only).
	JOY1L uint16 = 0x4218
	JOY1H uint16 = 0x4219
	JOY2L uint16 = 0x421A
	JOY2H uint16 = 0x421B
	JOY3L uint16 = 0x421C
	JOY3H uint16 = 0x421D
	JOY4L uint16 = 0x421E
	JOY4H uint16 = 0x421F
)

// DMA channel register offsets within 0x43n0-0x43nA. Add (channel << 4) to
// the base of the 0x4300 page to address a specific channel.
const (
	// DMA/HDMA Parameters.
	DmaParam uint16 = 0x00
	// B-Bus Port.
	DmaBBusPort uint16 = 0x01
	// A-Bus Offset (low/high) and Bank.
	DmaABusL    uint16 = 0x02
	DmaABusH    uint16 = 0x03
	DmaABusBank uint16 = 0x04
	// Byte Count (GPDMA) / Indirect Offset (HDMA) low/high.
	DmaCountL uint16 = 0x05
	DmaCountH uint16 = 0x06
	// HDMA Indirect Bank.
	DmaIndirectBank uint16 = 0x07
	// HDMA Table Cursor low/high.
	DmaTableL uint16 = 0x08
	DmaTableH uint16 = 0x09
	// HDMA Line Counter.
	DmaLineCount uint16 = 0x0A
)

// Main CPU interrupt vectors. In emulation mode NMI, IRQ and BRK all share
// the 0xFFFE vector.
const (
	VectorNativeCOP    uint32 = 0xFFE4
	VectorNativeBRK    uint32 = 0xFFE6
	VectorNativeNMI    uint32 = 0xFFEA
	VectorNativeIRQ    uint32 = 0xFFEE
	VectorEmulationCOP uint32 = 0xFFF4
	VectorReset        uint32 = 0xFFFC
	VectorEmulationIRQ uint32 = 0xFFFE
)
