// Package render contains the presentation backends: a tcell terminal
// renderer, an optional SDL2 window behind the sdl2 build tag, and a
// headless sink for batch runs.
package render

import (
	"github.com/averna/dotmatrix/dotmatrix/memory"
	"github.com/averna/dotmatrix/dotmatrix/video"
)

// Config is shared backend configuration.
type Config struct {
	// Title is the window or session title, usually the ROM title.
	Title string
	// Scale multiplies the LCD size on backends that support it.
	Scale int
	// Joypad receives the input events the backend collects.
	Joypad *memory.Joypad
}

// Backend displays completed frames and feeds input into the joypad.
type Backend interface {
	Init(cfg Config) error
	// Update presents one frame and polls input. It returns false
	// when the session should end.
	Update(fb *video.Framebuffer) (bool, error)
	Cleanup() error
}
