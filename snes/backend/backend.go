// Package backend defines the presentation contract: something that renders
// published frames and surfaces platform input as emulator actions.
package backend

import (
	"github.com/valerio/go-snes/snes/debug"
	"github.com/valerio/go-snes/snes/input"
	"github.com/valerio/go-snes/snes/video"
)

// Action is an emulator-level input action.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionPause
	ActionReset

	ActionButtonUp
	ActionButtonDown
	ActionButtonLeft
	ActionButtonRight
	ActionButtonA
	ActionButtonB
	ActionButtonX
	ActionButtonY
	ActionButtonL
	ActionButtonR
	ActionButtonStart
	ActionButtonSelect
)

// ButtonFor maps a button action to its pad bit; ok is false for non-button
// actions.
func ButtonFor(a Action) (input.Button, bool) {
	switch a {
	case ActionButtonUp:
		return input.ButtonUp, true
	case ActionButtonDown:
		return input.ButtonDown, true
	case ActionButtonLeft:
		return input.ButtonLeft, true
	case ActionButtonRight:
		return input.ButtonRight, true
	case ActionButtonA:
		return input.ButtonA, true
	case ActionButtonB:
		return input.ButtonB, true
	case ActionButtonX:
		return input.ButtonX, true
	case ActionButtonY:
		return input.ButtonY, true
	case ActionButtonL:
		return input.ButtonL, true
	case ActionButtonR:
		return input.ButtonR, true
	case ActionButtonStart:
		return input.ButtonStart, true
	case ActionButtonSelect:
		return input.ButtonSelect, true
	default:
		return 0, false
	}
}

// EventType distinguishes presses from releases.
type EventType int

const (
	Press EventType = iota
	Release
)

// InputEvent is one input action collected by a backend during Update.
type InputEvent struct {
	Action Action
	Type   EventType
}

// SnapshotProvider lets backends with status displays pull debugger-grade
// state without exposing the whole orchestrator.
type SnapshotProvider interface {
	Snapshot() debug.Snapshot
}

// Config holds backend configuration.
type Config struct {
	Title            string
	ShowDebug        bool
	SnapshotProvider SnapshotProvider
}

// Backend represents a complete presentation platform (rendering + input).
type Backend interface {
	// Init configures the backend; required before Update.
	Init(config Config) error

	// Update renders the published frame and returns the input events that
	// occurred since the last call.
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup releases platform resources.
	Cleanup() error
}
