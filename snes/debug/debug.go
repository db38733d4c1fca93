// Package debug defines the contracts the core exposes to an external
// debugger: a gatekeeper consulted before each instruction, change
// notifications for memory views, and side-effect-free state snapshots.
package debug

import "github.com/valerio/go-snes/snes/memory"

// Debugger gates and observes instruction execution. The orchestrator asks
// ShouldRun before every step and reports the new location afterwards.
type Debugger interface {
	ShouldRun(pc memory.Address) bool
	SetCurrentOp(pc memory.Address)
}

// NopDebugger always runs; the orchestrator uses it when no debugger is
// attached.
type NopDebugger struct{}

func (NopDebugger) ShouldRun(pc memory.Address) bool { return true }
func (NopDebugger) SetCurrentOp(pc memory.Address)   {}

// MemoryReader provides read-only, side-effect-free access to bus memory
// for debug views. The bus shadow backs I/O register reads so inspecting a
// register never triggers its read behavior.
type MemoryReader interface {
	RawRead8(a memory.Address) uint8
	ReadShadow(reg uint16) uint8
}

// CPUState is a register snapshot of the main CPU.
type CPUState struct {
	A, X, Y, D, SP uint16
	DB, PB         uint8
	PC             uint16
	P              uint8
	EmulationMode  bool
}

// AudioCPUState is a register snapshot of the SPC700.
type AudioCPUState struct {
	A, X, Y, SP uint8
	PC          uint16
	P           uint8
}

// Snapshot bundles the state a debugger UI renders between steps.
type Snapshot struct {
	MainCPU  CPUState
	AudioCPU AudioCPUState

	HCount, VCount   uint16
	IsHBlank, IsVBlank bool

	Instructions uint64
	Frames       uint64
}
