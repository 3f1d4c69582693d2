package video

const (
	// FramebufferWidth and FramebufferHeight are the LCD dimensions.
	FramebufferWidth  = 160
	FramebufferHeight = 144
)

// Framebuffer holds one frame of RGBA pixels, packed 0xRRGGBBAA.
type Framebuffer struct {
	buffer [FramebufferWidth * FramebufferHeight]uint32
}

// NewFramebuffer returns a framebuffer cleared to white.
func NewFramebuffer() *Framebuffer {
	fb := &Framebuffer{}
	fb.Clear(dmgShades[0])
	return fb
}

// GetPixel returns the pixel at (x, y).
func (fb *Framebuffer) GetPixel(x, y int) uint32 {
	return fb.buffer[y*FramebufferWidth+x]
}

// SetPixel sets the pixel at (x, y).
func (fb *Framebuffer) SetPixel(x, y int, color uint32) {
	fb.buffer[y*FramebufferWidth+x] = color
}

// Clear fills the whole frame with one color.
func (fb *Framebuffer) Clear(color uint32) {
	for i := range fb.buffer {
		fb.buffer[i] = color
	}
}

// ToSlice exposes the raw pixel slice, row major from the top left.
func (fb *Framebuffer) ToSlice() []uint32 {
	return fb.buffer[:]
}
