//go:build !sdl2

package render

import (
	"fmt"

	"github.com/averna/dotmatrix/dotmatrix/video"
)

// SDL2 stub for builds without the sdl2 tag.
type SDL2 struct{}

func NewSDL2() *SDL2 {
	return &SDL2{}
}

func (s *SDL2) Init(cfg Config) error {
	return fmt.Errorf("SDL2 backend not available, build with -tags sdl2")
}

func (s *SDL2) Update(fb *video.Framebuffer) (bool, error) {
	return false, fmt.Errorf("SDL2 backend not available")
}

func (s *SDL2) Cleanup() error {
	return nil
}
