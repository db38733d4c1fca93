// Package terminal renders the published framebuffer into a tcell screen,
// two pixels per character cell, with an optional register status pane.
package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-snes/snes/backend"
	"github.com/valerio/go-snes/snes/video"
)

// Two vertically stacked pixels share one cell via the half-block glyph.
const halfBlock = '▀'

type Backend struct {
	screen  tcell.Screen
	config  backend.Config
	events  []backend.InputEvent
	running bool
}

func New() *Backend {
	return &Backend{}
}

func (t *Backend) Init(config backend.Config) error {
	t.config = config

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}

	t.screen = screen
	t.running = true

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	return nil
}

func (t *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	t.events = t.events[:0]

	t.pollEvents()
	t.renderFrame(frame)
	t.renderStatus()
	t.screen.Show()

	return t.events, nil
}

func (t *Backend) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

func (t *Backend) pollEvents() {
	for t.screen.HasPendingEvent() {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			t.handleKey(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func (t *Backend) handleKey(ev *tcell.EventKey) {
	var act backend.Action

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		act = backend.ActionQuit
	case tcell.KeyUp:
		act = backend.ActionButtonUp
	case tcell.KeyDown:
		act = backend.ActionButtonDown
	case tcell.KeyLeft:
		act = backend.ActionButtonLeft
	case tcell.KeyRight:
		act = backend.ActionButtonRight
	case tcell.KeyEnter:
		act = backend.ActionButtonStart
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			act = backend.ActionQuit
		case 'p':
			act = backend.ActionPause
		case 'z':
			act = backend.ActionButtonB
		case 'x':
			act = backend.ActionButtonA
		case 'a':
			act = backend.ActionButtonY
		case 's':
			act = backend.ActionButtonX
		case 'd':
			act = backend.ActionButtonL
		case 'f':
			act = backend.ActionButtonR
		case ' ':
			act = backend.ActionButtonSelect
		}
	}

	if act != backend.ActionNone {
		// Terminals don't deliver key releases, so only press events are
		// queued; no release follows and the button stays held in the pad.
		t.events = append(t.events, backend.InputEvent{Action: act, Type: backend.Press})
	}
}

func (t *Backend) renderFrame(frame *video.FrameBuffer) {
	termW, termH := t.screen.Size()

	maxW := video.FramebufferWidth
	if maxW > termW {
		maxW = termW
	}
	maxH := (video.FramebufferHeight + 1) / 2
	if maxH > termH-2 {
		maxH = termH - 2
	}

	for y := 0; y < maxH; y++ {
		for x := 0; x < maxW; x++ {
			top := frame.At(x, y*2)
			bottom := top
			if y*2+1 < video.FramebufferHeight {
				bottom = frame.At(x, y*2+1)
			}
			style := tcell.StyleDefault.
				Foreground(tcell.NewHexColor(int32(top >> 8))).
				Background(tcell.NewHexColor(int32(bottom >> 8)))
			t.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}
}

func (t *Backend) renderStatus() {
	if !t.config.ShowDebug || t.config.SnapshotProvider == nil {
		return
	}

	snap := t.config.SnapshotProvider.Snapshot()
	_, termH := t.screen.Size()
	line := fmt.Sprintf("PC %02X:%04X A=%04X X=%04X Y=%04X SP=%04X P=%02X | SPC PC=%04X | V=%d H=%d",
		snap.MainCPU.PB, snap.MainCPU.PC, snap.MainCPU.A, snap.MainCPU.X, snap.MainCPU.Y,
		snap.MainCPU.SP, snap.MainCPU.P, snap.AudioCPU.PC, snap.VCount, snap.HCount)

	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	for i, r := range line {
		t.screen.SetContent(i, termH-1, r, nil, style)
	}
}
