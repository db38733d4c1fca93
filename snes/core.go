// Package snes wires the emulator core together: bus, timer, interrupts,
// DMA, PPU registers, APU, input and the main CPU, and runs the worker loop
// that steps them in lockstep.
package snes

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/valerio/go-snes/snes/apu"
	"github.com/valerio/go-snes/snes/backend"
	"github.com/valerio/go-snes/snes/cpu"
	"github.com/valerio/go-snes/snes/debug"
	"github.com/valerio/go-snes/snes/dma"
	"github.com/valerio/go-snes/snes/input"
	"github.com/valerio/go-snes/snes/interrupt"
	"github.com/valerio/go-snes/snes/memory"
	"github.com/valerio/go-snes/snes/timer"
	"github.com/valerio/go-snes/snes/timing"
	"github.com/valerio/go-snes/snes/video"
)

// MessageBoxer receives fatal-condition reports for the user. The UI
// implements it; the core only calls it.
type MessageBoxer interface {
	RequestMessageBox(message string)
}

type logMessageBoxer struct{}

func (logMessageBoxer) RequestMessageBox(message string) {
	slog.Error("Emulation stopped", "reason", message)
}

// Snes is the orchestrator. It owns every core component and runs the main
// loop: one CPU instruction, then the audio catch-up, then interrupt
// sampling at the next instruction boundary.
type Snes struct {
	bus        *memory.Bus
	cart       *memory.Cartridge
	interrupts *interrupt.Flags
	clock      *timer.Timer
	ppu        *video.Ppu
	apu        *apu.Apu
	dma        *dma.Dma
	pads       *input.Input
	cpu        *cpu.CPU

	debugger debug.Debugger
	messages MessageBoxer
	limiter  timing.Limiter

	frame *video.FrameBuffer

	// The worker holds runMutex while stepping; debugger queries take it to
	// see a consistent snapshot.
	runMutex sync.Mutex
	paused   bool
	quit     bool

	lastMasterClocks uint64
	instructionCount uint64
	frameCount       uint64
}

// New builds the component graph around a loaded cartridge.
func New(cart *memory.Cartridge) (*Snes, error) {
	s := &Snes{
		cart:     cart,
		debugger: debug.NopDebugger{},
		messages: logMessageBoxer{},
		limiter:  timing.NewNoOpLimiter(),
		frame:    video.NewFrameBuffer(),
	}

	if err := s.buildGraph(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithFile loads a ROM image from disk and builds an emulator around it.
func NewWithFile(path string) (*Snes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded ROM data", "size", len(data))

	cart, err := memory.NewCartridge(data)
	if err != nil {
		return nil, err
	}

	return New(cart)
}

// buildGraph constructs every component and wires the ownership and
// observer relationships. Reset tears the old graph down and calls this
// again.
func (s *Snes) buildGraph() error {
	s.bus = memory.NewBus()
	s.bus.SetCartridge(s.cart)

	s.interrupts = interrupt.New()

	var err error
	if s.clock, err = timer.New(s.bus, s.interrupts); err != nil {
		return err
	}
	s.bus.SetCycleSink(s.clock)

	if s.ppu, err = video.New(s.bus); err != nil {
		return err
	}
	if s.apu, err = apu.New(s.bus); err != nil {
		return err
	}
	if s.dma, err = dma.New(s.bus, s.clock); err != nil {
		return err
	}
	if s.pads, err = input.New(s.bus, s.clock); err != nil {
		return err
	}

	s.cpu = cpu.New(s.bus, s.interrupts)
	s.cpu.Reset()

	s.lastMasterClocks = 0
	s.instructionCount = 0
	s.frameCount = 0

	return nil
}

// SetDebugger attaches an external debugger.
func (s *Snes) SetDebugger(d debug.Debugger) {
	if d == nil {
		d = debug.NopDebugger{}
	}
	s.debugger = d
}

// SetMemoryObserver attaches the debugger's memory-change listener.
func (s *Snes) SetMemoryObserver(o memory.Observer) {
	s.bus.SetObserver(o)
}

// SetMessageBoxer attaches the UI's fatal-report channel.
func (s *Snes) SetMessageBoxer(m MessageBoxer) {
	s.messages = m
}

// SetFrameLimiter replaces the frame pacing policy.
func (s *Snes) SetFrameLimiter(limiter timing.Limiter) {
	s.limiter = limiter
}

// Bus exposes the bus for the debugger's memory reader.
func (s *Snes) Bus() *memory.Bus {
	return s.bus
}

// CPU exposes the main processor for the debugger and tests.
func (s *Snes) CPU() *cpu.CPU {
	return s.cpu
}

// APU exposes the audio unit for the debugger and tests.
func (s *Snes) APU() *apu.Apu {
	return s.apu
}

// Timer exposes the master-clock timer.
func (s *Snes) Timer() *timer.Timer {
	return s.clock
}

// StepInstruction runs one main-CPU instruction and the audio catch-up.
// Returns false when the debugger is holding execution.
func (s *Snes) StepInstruction() bool {
	pc := s.cpu.FullPC()
	if !s.debugger.ShouldRun(pc) {
		return false
	}

	s.cpu.Step()

	// Convert the instruction's master clocks into the SPC700 budget so the
	// audio CPU never lags more than one instruction behind.
	clocks := s.clock.MasterClocks()
	s.apu.Step(clocks - s.lastMasterClocks)
	s.lastMasterClocks = clocks

	s.debugger.SetCurrentOp(s.cpu.FullPC())
	s.instructionCount++

	return true
}

// RunFrame steps instructions until a frame's worth of master clocks has
// elapsed.
func (s *Snes) RunFrame() {
	target := (s.frameCount + 1) * timing.ClocksPerFrame

	for s.clock.MasterClocks() < target {
		if !s.StepInstruction() {
			// The debugger is holding execution; don't spin the CPU hot.
			time.Sleep(time.Millisecond)
			return
		}
	}
	s.frameCount++
}

// runFrameSafe converts core panics (illegal decode, unmapped access, ROM
// writes) into errors for the worker loop.
func (s *Snes) runFrameSafe() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", r)
			}
		}
	}()

	s.RunFrame()
	return nil
}

// Run is the worker loop: frames are executed until a quit is requested or
// a fatal condition surfaces, which is reported through the message box.
func (s *Snes) Run(b backend.Backend) error {
	if err := b.Init(backend.Config{Title: s.cart.Header().Title, ShowDebug: true, SnapshotProvider: s}); err != nil {
		return err
	}
	defer b.Cleanup()

	for {
		s.runMutex.Lock()
		quit, paused := s.quit, s.paused
		s.runMutex.Unlock()

		if quit {
			return nil
		}

		if paused {
			time.Sleep(time.Millisecond)
		} else {
			s.runMutex.Lock()
			err := s.runFrameSafe()
			s.runMutex.Unlock()

			if err != nil {
				s.messages.RequestMessageBox(err.Error())
				return err
			}
		}

		events, err := b.Update(s.frame)
		if err != nil {
			return err
		}
		for _, ev := range events {
			s.HandleAction(ev.Action, ev.Type == backend.Press)
		}

		s.limiter.WaitForNextFrame()
	}
}

// HandleAction applies one input event to the emulator.
func (s *Snes) HandleAction(act backend.Action, pressed bool) {
	if button, ok := backend.ButtonFor(act); ok {
		if pressed {
			s.pads.Press(button)
		} else {
			s.pads.Release(button)
		}
		return
	}

	if !pressed {
		return
	}

	switch act {
	case backend.ActionQuit:
		s.Shutdown()
	case backend.ActionPause:
		s.runMutex.Lock()
		s.paused = !s.paused
		s.runMutex.Unlock()
		s.limiter.Reset()
	case backend.ActionReset:
		if err := s.Reset(); err != nil {
			s.messages.RequestMessageBox(err.Error())
		}
	}
}

// Pause suspends the worker loop.
func (s *Snes) Pause(pause bool) {
	s.runMutex.Lock()
	s.paused = pause
	s.runMutex.Unlock()
}

// Shutdown asks the worker loop to exit after the current frame.
func (s *Snes) Shutdown() {
	s.runMutex.Lock()
	s.quit = true
	s.runMutex.Unlock()
}

// Reset rebuilds the whole component graph around the same cartridge.
func (s *Snes) Reset() error {
	s.runMutex.Lock()
	defer s.runMutex.Unlock()
	slog.Info("Resetting emulation")
	return s.buildGraph()
}

// Input exposes the pad state for UIs driving input directly.
func (s *Snes) Input() *input.Input {
	return s.pads
}

// InstructionCount returns the number of instructions dispatched.
func (s *Snes) InstructionCount() uint64 {
	return s.instructionCount
}

// FrameCount returns the number of completed frames.
func (s *Snes) FrameCount() uint64 {
	return s.frameCount
}

// Snapshot implements backend.SnapshotProvider with a consistent,
// side-effect-free view of both CPUs and the timer.
func (s *Snes) Snapshot() debug.Snapshot {
	reg := s.cpu.Reg()
	audioReg := s.apu.Cpu().Reg()

	return debug.Snapshot{
		MainCPU: debug.CPUState{
			A: reg.A(), X: reg.X(), Y: reg.Y(), D: reg.D(), SP: reg.SP(),
			DB: reg.DB(), PB: reg.PB(), PC: reg.PC(), P: reg.P(),
			EmulationMode: reg.EmulationMode(),
		},
		AudioCPU: debug.AudioCPUState{
			A: audioReg.A(), X: audioReg.X(), Y: audioReg.Y(),
			SP: audioReg.SP(), PC: audioReg.PC(), P: audioReg.P(),
		},
		HCount:       s.clock.HCount(),
		VCount:       s.clock.VCount(),
		IsHBlank:     s.clock.IsHBlank(),
		IsVBlank:     s.clock.IsVBlank(),
		Instructions: s.instructionCount,
		Frames:       s.frameCount,
	}
}
