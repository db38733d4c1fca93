package video

const (
	FramebufferWidth  = 256
	FramebufferHeight = 224
	FramebufferSize   = FramebufferWidth * FramebufferHeight
)

// FrameBuffer is the RGBA frame published to the presentation backend. The
// core hands it over by value each frame boundary: the backend reads, the
// worker overwrites on the next frame.
type FrameBuffer struct {
	pixels []uint32
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{pixels: make([]uint32, FramebufferSize)}
}

// At returns the RGBA pixel at x, y.
func (fb *FrameBuffer) At(x, y int) uint32 {
	return fb.pixels[y*FramebufferWidth+x]
}

// Set stores one RGBA pixel.
func (fb *FrameBuffer) Set(x, y int, color uint32) {
	fb.pixels[y*FramebufferWidth+x] = color
}

// Pixels exposes the raw pixel slice, row-major.
func (fb *FrameBuffer) Pixels() []uint32 {
	return fb.pixels
}

// CopyFrom replaces the contents with those of another buffer.
func (fb *FrameBuffer) CopyFrom(other *FrameBuffer) {
	copy(fb.pixels, other.pixels)
}
