//go:build sdl2

package render

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/averna/dotmatrix/dotmatrix/memory"
	"github.com/averna/dotmatrix/dotmatrix/video"
)

const bytesPerPixel = 4

// SDL2 opens a native window. Building it needs the SDL2 development
// libraries; default builds use the stub instead, see the sdl2 build
// tag.
type SDL2 struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	joypad   *memory.Joypad
	pixels   []byte
	running  bool
}

// NewSDL2 returns an uninitialized SDL2 backend.
func NewSDL2() *SDL2 {
	return &SDL2{}
}

func (s *SDL2) Init(cfg Config) error {
	s.joypad = cfg.Joypad
	scale := cfg.Scale
	if scale < 1 {
		scale = 1
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("initializing SDL2: %w", err)
	}

	window, err := sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(video.FramebufferWidth*scale),
		int32(video.FramebufferHeight*scale),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("creating window: %w", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("creating renderer: %w", err)
	}
	s.renderer = renderer

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_RGBA8888,
		sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth,
		video.FramebufferHeight,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("creating texture: %w", err)
	}
	s.texture = texture

	s.pixels = make([]byte, video.FramebufferWidth*video.FramebufferHeight*bytesPerPixel)
	s.running = true
	slog.Info("SDL2 backend initialized", "scale", scale)
	return nil
}

func (s *SDL2) Update(fb *video.Framebuffer) (bool, error) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		s.handleEvent(event)
	}
	if !s.running {
		return false, nil
	}

	frame := fb.ToSlice()
	for i, pixel := range frame {
		// RGBA8888 wants ABGR byte order on little-endian hosts
		s.pixels[i*bytesPerPixel] = byte(pixel)
		s.pixels[i*bytesPerPixel+1] = byte(pixel >> 8)
		s.pixels[i*bytesPerPixel+2] = byte(pixel >> 16)
		s.pixels[i*bytesPerPixel+3] = byte(pixel >> 24)
	}
	s.texture.Update(nil, unsafe.Pointer(&s.pixels[0]), video.FramebufferWidth*bytesPerPixel)

	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
	return true, nil
}

func (s *SDL2) Cleanup() error {
	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()
	return nil
}

func (s *SDL2) handleEvent(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		s.running = false
	case *sdl.KeyboardEvent:
		if e.Keysym.Sym == sdl.K_ESCAPE {
			s.running = false
			return
		}
		button, ok := keycodeToButton(e.Keysym.Sym)
		if !ok {
			return
		}
		if e.Type == sdl.KEYDOWN {
			s.joypad.Press(button)
		} else if e.Type == sdl.KEYUP {
			s.joypad.Release(button)
		}
	}
}

func keycodeToButton(key sdl.Keycode) (memory.Button, bool) {
	switch key {
	case sdl.K_UP:
		return memory.BtnUp, true
	case sdl.K_DOWN:
		return memory.BtnDown, true
	case sdl.K_LEFT:
		return memory.BtnLeft, true
	case sdl.K_RIGHT:
		return memory.BtnRight, true
	case sdl.K_RETURN:
		return memory.BtnStart, true
	case sdl.K_BACKSPACE:
		return memory.BtnSelect, true
	case sdl.K_z:
		return memory.BtnB, true
	case sdl.K_x:
		return memory.BtnA, true
	}
	return 0, false
}
