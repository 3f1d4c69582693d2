package render

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/averna/dotmatrix/dotmatrix/memory"
	"github.com/averna/dotmatrix/dotmatrix/video"
)

// Terminals report key presses but not releases, so held buttons are
// expired after a repeat-sized timeout.
const keyHoldTimeout = 150 * time.Millisecond

// Terminal renders into the terminal with tcell, two pixels per cell
// using the half block glyph.
type Terminal struct {
	screen tcell.Screen
	joypad *memory.Joypad
	held   map[memory.Button]time.Time
	quit   bool
}

// NewTerminal returns an uninitialized terminal backend.
func NewTerminal() *Terminal {
	return &Terminal{held: make(map[memory.Button]time.Time)}
}

// Init takes over the terminal.
func (t *Terminal) Init(cfg Config) error {
	t.joypad = cfg.Joypad

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack))
	screen.Clear()
	t.screen = screen
	return nil
}

// Update draws the frame and drains pending key events.
func (t *Terminal) Update(fb *video.Framebuffer) (bool, error) {
	t.pollEvents()
	t.expireKeys()
	if t.quit {
		return false, nil
	}

	// one cell covers a 1x2 pixel column pair: foreground is the
	// upper pixel, background the lower
	for y := 0; y < video.FramebufferHeight; y += 2 {
		for x := 0; x < video.FramebufferWidth; x++ {
			upper := cellColor(fb.GetPixel(x, y))
			lower := cellColor(fb.GetPixel(x, y+1))
			style := tcell.StyleDefault.Foreground(upper).Background(lower)
			t.screen.SetContent(x, y/2, '▀', nil, style)
		}
	}
	t.screen.Show()
	return true, nil
}

// Cleanup restores the terminal.
func (t *Terminal) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

func cellColor(pixel uint32) tcell.Color {
	r := int32(pixel >> 24 & 0xFF)
	g := int32(pixel >> 16 & 0xFF)
	b := int32(pixel >> 8 & 0xFF)
	return tcell.NewRGBColor(r, g, b)
}

func (t *Terminal) pollEvents() {
	for t.screen.HasPendingEvent() {
		event := t.screen.PollEvent()
		switch ev := event.(type) {
		case *tcell.EventResize:
			t.screen.Sync()
		case *tcell.EventKey:
			t.handleKey(ev)
		}
	}
}

func (t *Terminal) handleKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		t.quit = true
		return
	}

	button, ok := keyToButton(ev)
	if !ok {
		return
	}
	if _, holding := t.held[button]; !holding {
		t.joypad.Press(button)
	}
	t.held[button] = time.Now()
}

// expireKeys releases buttons that have not repeated recently.
func (t *Terminal) expireKeys() {
	now := time.Now()
	for button, last := range t.held {
		if now.Sub(last) > keyHoldTimeout {
			t.joypad.Release(button)
			delete(t.held, button)
		}
	}
}

func keyToButton(ev *tcell.EventKey) (memory.Button, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return memory.BtnUp, true
	case tcell.KeyDown:
		return memory.BtnDown, true
	case tcell.KeyLeft:
		return memory.BtnLeft, true
	case tcell.KeyRight:
		return memory.BtnRight, true
	case tcell.KeyEnter:
		return memory.BtnStart, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return memory.BtnSelect, true
	}
	if ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case 'z', 'Z':
			return memory.BtnB, true
		case 'x', 'X':
			return memory.BtnA, true
		}
	}
	return 0, false
}
