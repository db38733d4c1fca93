// Package headless is the backend used by tests, CI and batch runs: no
// rendering, quits after a fixed number of frames.
package headless

import (
	"log/slog"

	"github.com/valerio/go-snes/snes/backend"
	"github.com/valerio/go-snes/snes/video"
)

type Backend struct {
	config     backend.Config
	frameCount int
	maxFrames  int
}

// New creates a headless backend that requests a quit after maxFrames.
func New(maxFrames int) *Backend {
	return &Backend{maxFrames: maxFrames}
}

func (h *Backend) Init(config backend.Config) error {
	h.config = config
	slog.Info("Running headless", "frames", h.maxFrames)
	return nil
}

func (h *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	h.frameCount++

	if h.frameCount%60 == 0 {
		slog.Debug("Headless progress", "frame", h.frameCount)
	}

	if h.frameCount >= h.maxFrames {
		return []backend.InputEvent{{Action: backend.ActionQuit, Type: backend.Press}}, nil
	}
	return nil, nil
}

func (h *Backend) Cleanup() error {
	return nil
}
