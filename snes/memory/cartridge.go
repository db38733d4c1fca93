package memory

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/valerio/go-snes/snes/bit"
)

// RomType is the low nibble of the header mode byte.
type RomType uint8

const (
	LoROM     RomType = 0x00
	HiROM     RomType = 0x01
	LoROMSDD1 RomType = 0x02
	LoROMSA1  RomType = 0x03
	ExHiROM   RomType = 0x05
)

// Header candidate offsets within the (de-headered) ROM image.
const (
	loROMHeaderOffset   = 0x007FC0
	hiROMHeaderOffset   = 0x00FFC0
	exHiROMHeaderOffset = 0x40FFC0
)

// Field offsets relative to the header start.
const (
	modeOffset       = 0x15
	chipsetOffset    = 0x16
	romSizeOffset    = 0x17
	ramSizeOffset    = 0x18
	countryOffset    = 0x19
	devIDOffset      = 0x1A
	romVersionOffset = 0x1B
	checksumOffset   = 0x1C
)

var (
	// ErrInvalidROM means no candidate header validated.
	ErrInvalidROM = errors.New("not a valid ROM image")
	// ErrUnsupportedROM means the image needs features outside the core:
	// interleaved layout or an expansion chip.
	ErrUnsupportedROM = errors.New("unsupported ROM image")
)

// Header is the 32 byte cartridge header plus the extended fields present
// when the developer ID is 0x33.
type Header struct {
	Title      string
	Mode       uint8
	Chipset    uint8
	RomSize    uint8
	RamSize    uint8
	Country    uint8
	DevID      uint8
	RomVersion uint8

	ChecksumComplement uint16
	Checksum           uint16

	MakerCode          string
	GameCode           string
	ExpansionFlashSize uint8
	ExpansionRamSize   uint8
	SpecialVersion     uint8
	ChipsetSubtype     uint8
}

// Cartridge holds the immutable ROM image and the header-derived address map.
type Cartridge struct {
	rom []byte

	header    Header
	romType   RomType
	isLoROM   bool
	fastSpeed bool
}

// NewCartridge validates data as a ROM image and builds the address map.
// A copier header (file length not a multiple of 1024) is stripped first.
func NewCartridge(data []byte) (*Cartridge, error) {
	if copierLen := len(data) % 1024; copierLen != 0 {
		slog.Info("Stripping copier header", "length", copierLen)
		data = data[copierLen:]
	}

	// Large enough to check both the LoROM and HiROM candidates.
	if len(data) < 0x10000 {
		return nil, fmt.Errorf("%w: file too small (%d bytes)", ErrInvalidROM, len(data))
	}

	c := &Cartridge{rom: data}

	offset := -1
	for _, candidate := range []int{loROMHeaderOffset, hiROMHeaderOffset, exHiROMHeaderOffset} {
		if candidate+0x20 <= len(data) && findHeader(data, candidate) {
			offset = candidate
			break
		}
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: unable to locate cartridge header", ErrInvalidROM)
	}

	if err := c.parseHeader(offset); err != nil {
		return nil, err
	}

	slog.Info("Loaded cartridge",
		"title", c.header.Title,
		"mode", fmt.Sprintf("0x%02X", c.header.Mode),
		"loROM", c.isLoROM,
		"fast", c.fastSpeed,
		"size", len(c.rom))

	return c, nil
}

func (c *Cartridge) parseHeader(offset int) error {
	data := c.rom
	h := &c.header

	h.Title = string(data[offset : offset+21])
	h.Mode = data[offset+modeOffset]
	h.Chipset = data[offset+chipsetOffset]
	h.RomSize = data[offset+romSizeOffset]
	h.RamSize = data[offset+ramSizeOffset]
	h.Country = data[offset+countryOffset]
	h.DevID = data[offset+devIDOffset]
	h.RomVersion = data[offset+romVersionOffset]
	h.ChecksumComplement = bit.Combine(data[offset+checksumOffset+1], data[offset+checksumOffset])
	h.Checksum = bit.Combine(data[offset+checksumOffset+3], data[offset+checksumOffset+2])

	if h.DevID == 0x33 && offset >= 0x10 {
		h.MakerCode = string(data[offset-0x10 : offset-0x0E])
		h.GameCode = string(data[offset-0x0E : offset-0x0A])
		h.ExpansionFlashSize = data[offset-0x04]
		h.ExpansionRamSize = data[offset-0x03]
		h.SpecialVersion = data[offset-0x02]
		h.ChipsetSubtype = data[offset-0x01]
	}

	c.romType = RomType(h.Mode & 0x0F)
	c.isLoROM = c.romType == LoROM || c.romType == LoROMSA1 || c.romType == LoROMSDD1
	c.fastSpeed = (h.Mode>>4)&1 == 1

	if c.romType == LoROMSA1 || c.romType == LoROMSDD1 {
		return fmt.Errorf("%w: expansion chipset 0x%02X", ErrUnsupportedROM, h.Mode)
	}

	// Interleaved ROMs are HiROM images with the header at the LoROM file
	// offset.
	if offset == loROMHeaderOffset && !c.isLoROM {
		return fmt.Errorf("%w: interleaved image", ErrUnsupportedROM)
	}

	return nil
}

// findHeader checks the three validity conditions at one candidate offset:
// ASCII title, known mode nibble, and complementary checksum words.
func findHeader(data []byte, offset int) bool {
	// The 21st title byte may be null, so only the first 20 are checked.
	for i := 0; i < 20; i++ {
		if data[offset+i] < 0x20 || data[offset+i] > 0x7E {
			return false
		}
	}

	switch RomType(data[offset+modeOffset] & 0x0F) {
	case LoROM, HiROM, LoROMSDD1, LoROMSA1, ExHiROM:
	default:
		return false
	}

	complement := bit.Combine(data[offset+checksumOffset+1], data[offset+checksumOffset])
	checksum := bit.Combine(data[offset+checksumOffset+3], data[offset+checksumOffset+2])
	return checksum^complement == 0xFFFF
}

// Header returns the parsed cartridge header.
func (c *Cartridge) Header() Header {
	return c.header
}

func (c *Cartridge) RomType() RomType {
	return c.romType
}

func (c *Cartridge) IsLoROM() bool {
	return c.isLoROM
}

// IsFastSpeed reports whether the header advertises fast-ROM timing.
func (c *Cartridge) IsFastSpeed() bool {
	return c.fastSpeed
}

// ReadByte maps a 24 bit bus address into the ROM image and returns the byte.
func (c *Cartridge) ReadByte(busAddr uint32) uint8 {
	return c.rom[c.mapAddress(busAddr)%uint32(len(c.rom))]
}

// mapAddress converts a bus address in a ROM region to a ROM image offset.
//
// LoROM: drop the high bit of the offset and shift the bank right one, so the
// bank LSB becomes the offset MSB. HiROM: the offset indexes directly within
// a 64 KiB bank.
func (c *Cartridge) mapAddress(busAddr uint32) uint32 {
	if c.isLoROM {
		return ((busAddr & 0xFF0000) >> 1) | (busAddr & 0x7FFF)
	}
	return busAddr & 0x3FFFFF
}
