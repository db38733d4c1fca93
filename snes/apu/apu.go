// Package apu contains the audio unit as seen from the main bus: the four
// mailbox ports at 0x2140-0x2143 with the boot handshake, plus ownership of
// the SPC700, its bus and its timers. The same ports appear on the audio bus
// at 0x00F4-0x00F7.
package apu

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-snes/snes/addr"
	"github.com/valerio/go-snes/snes/audio"
	"github.com/valerio/go-snes/snes/memory"
)

// Master clocks per SPC700 cycle: 21.477 MHz main against 1.024 MHz audio.
const ClocksPerSpcCycle = 21

type Apu struct {
	cpu      *audio.Spc700
	audioBus *audio.Bus
	timer    *audio.Timer

	// Mailbox latches. toAudio is written by the main CPU and read by the
	// SPC700; toMain flows the other way.
	toAudio [4]uint8
	toMain  [4]uint8

	// Until the boot handshake completes, the audio side presents the IPL
	// ready signature on ports 0 and 1.
	isInit bool

	// Master clocks not yet converted into whole SPC cycles.
	clockRemainder uint64
}

func New(bus *memory.Bus) (*Apu, error) {
	a := &Apu{}

	a.audioBus = audio.NewBus()

	var err error
	a.timer, err = audio.NewTimer(a.audioBus)
	if err != nil {
		return nil, err
	}

	a.cpu = audio.NewSpc700(a.audioBus, a.timer)

	for reg := addr.APUI00; reg <= addr.APUI03; reg++ {
		if err := bus.RequestOwnership(reg, a); err != nil {
			return nil, err
		}
	}

	for reg := audio.RegCPUIO0; reg <= audio.RegCPUIO3; reg++ {
		if err := a.audioBus.RequestOwnership(reg, (*audioPorts)(a)); err != nil {
			return nil, err
		}
	}
	a.audioBus.SetPortClearer(a)

	return a, nil
}

// Cpu exposes the SPC700 for the debugger and tests.
func (a *Apu) Cpu() *audio.Spc700 {
	return a.cpu
}

// AudioBus exposes the 64 KiB audio address space.
func (a *Apu) AudioBus() *audio.Bus {
	return a.audioBus
}

// Step runs the SPC700 to catch up with the given master clock budget. The
// division remainder carries over so no clocks are lost between calls.
func (a *Apu) Step(masterClocks uint64) {
	a.clockRemainder += masterClocks
	spcCycles := a.clockRemainder / ClocksPerSpcCycle
	a.clockRemainder %= ClocksPerSpcCycle
	a.cpu.Step(uint32(spcCycles))
}

// ReadRegister implements memory.RegisterOwner for the main-bus side.
func (a *Apu) ReadRegister(reg uint16) uint8 {
	switch reg {
	case addr.APUI00:
		if !a.isInit {
			return 0xAA
		}
		return a.toMain[0]
	case addr.APUI01:
		if !a.isInit {
			return 0xBB
		}
		return a.toMain[1]
	case addr.APUI02:
		return a.toMain[2]
	case addr.APUI03:
		return a.toMain[3]
	default:
		panic(fmt.Sprintf("apu doesn't handle reads to 0x%04X", reg))
	}
}

// WriteRegister implements memory.RegisterOwner for the main-bus side. Two
// writes steer the handshake: 0xCC to port 0 enters stage 2; 0xFF to port 1
// with all ports clear returns to stage 1.
func (a *Apu) WriteRegister(reg uint16, value uint8) bool {
	switch reg {
	case addr.APUI00:
		if value == 0xCC && !a.isInit {
			slog.Debug("APU handshake stage 2")
			a.isInit = true
		}
		a.toAudio[0] = value
		return true
	case addr.APUI01:
		if value == 0xFF && a.toAudio[0] == 0 && a.toAudio[1] == 0 && a.toAudio[2] == 0 && a.toAudio[3] == 0 {
			slog.Debug("APU handshake stage 1")
			a.isInit = false
		}
		a.toAudio[1] = value
		return true
	case addr.APUI02:
		a.toAudio[2] = value
		return true
	case addr.APUI03:
		a.toAudio[3] = value
		return true
	default:
		panic(fmt.Sprintf("apu doesn't handle writes to 0x%04X", reg))
	}
}

// ClearPorts implements audio.PortClearer: CONTROL bits 4-5 clear the
// main-to-audio latches in pairs.
func (a *Apu) ClearPorts(pair int) {
	a.toAudio[pair*2] = 0
	a.toAudio[pair*2+1] = 0
}

// audioPorts is the audio-bus face of the mailbox: reads see the bytes the
// main CPU wrote, writes surface bytes back to the main CPU.
type audioPorts Apu

// ReadRegister implements audio.RegisterOwner.
func (p *audioPorts) ReadRegister(reg uint8) uint8 {
	return p.toAudio[reg-audio.RegCPUIO0]
}

// WriteRegister implements audio.RegisterOwner.
func (p *audioPorts) WriteRegister(reg uint8, value uint8) bool {
	p.toMain[reg-audio.RegCPUIO0] = value
	return true
}
