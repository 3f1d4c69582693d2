// Package dotmatrix wires the emulated components into a complete
// machine: CPU, bus, timer, interrupt controller and PPU stepped in
// lockstep against the master clock.
package dotmatrix

import (
	"fmt"
	"log/slog"

	"github.com/averna/dotmatrix/dotmatrix/addr"
	"github.com/averna/dotmatrix/dotmatrix/cart"
	"github.com/averna/dotmatrix/dotmatrix/cpu"
	"github.com/averna/dotmatrix/dotmatrix/interrupt"
	"github.com/averna/dotmatrix/dotmatrix/memory"
	"github.com/averna/dotmatrix/dotmatrix/timer"
	"github.com/averna/dotmatrix/dotmatrix/timing"
	"github.com/averna/dotmatrix/dotmatrix/video"
)

// Variant selects the emulated hardware model.
type Variant int

const (
	// AutoDetect picks CGB when the cartridge header asks for it.
	AutoDetect Variant = iota
	DMG
	CGB
)

func (v Variant) String() string {
	switch v {
	case DMG:
		return "dmg"
	case CGB:
		return "cgb"
	}
	return "auto"
}

// Machine is one emulated Game Boy.
type Machine struct {
	variant Variant

	cart  *cart.Cartridge
	irq   *interrupt.Controller
	timer *timer.Timer
	ppu   *video.PPU
	bus   *memory.Bus
	cpu   *cpu.CPU

	savePath   string
	frames     uint64
	frameReady bool
}

// New loads a ROM from disk and builds a machine around it. Battery
// RAM is restored from the ROM's save file when present.
func New(romPath string, variant Variant) (*Machine, error) {
	c, err := cart.Open(romPath)
	if err != nil {
		return nil, err
	}
	m := build(c, variant)
	m.savePath = cart.SavePath(romPath)
	if err := c.LoadSave(m.savePath); err != nil {
		// degraded: RAM starts empty, emulation continues
		slog.Warn("starting without battery save", "error", err)
	}
	return m, nil
}

// NewFromData builds a machine from an in-memory ROM image. No battery
// persistence is attached.
func NewFromData(rom []byte, variant Variant) (*Machine, error) {
	c, err := cart.New(rom)
	if err != nil {
		return nil, err
	}
	return build(c, variant), nil
}

func build(c *cart.Cartridge, variant Variant) *Machine {
	if variant == AutoDetect {
		variant = DMG
		if c.CGB() {
			variant = CGB
		}
	}
	cgb := variant == CGB

	irq := interrupt.New()
	tm := timer.New(func() { irq.Request(addr.Timer) })
	ppu := video.New(cgb, func(i addr.Interrupt) { irq.Request(i) })
	bus := memory.New(c, ppu, tm, irq, cgb)
	core := cpu.New(bus, irq, bus, cgb)

	m := &Machine{
		variant: variant,
		cart:    c,
		irq:     irq,
		timer:   tm,
		ppu:     ppu,
		bus:     bus,
		cpu:     core,
	}
	ppu.OnFrame(func(*video.Framebuffer) {
		m.frames++
		m.frameReady = true
	})

	slog.Info("machine ready",
		"title", c.Title(),
		"mbc", c.Kind().String(),
		"battery", c.HasBattery(),
		"variant", variant.String())
	return m
}

// Step runs one CPU instruction (or interrupt dispatch) and advances
// the rest of the machine by the elapsed cycles. In double speed mode
// the CPU runs twice as fast relative to the timer and PPU, so both
// receive half the cycle count.
func (m *Machine) Step() int {
	cycles := m.cpu.Step()
	if m.bus.DoubleSpeed() {
		cycles /= 2
	}
	m.timer.Tick(cycles)
	m.ppu.Tick(cycles)
	return cycles
}

// RunFrame steps the machine until the PPU completes a frame. With the
// LCD off it runs one frame's worth of cycles instead, so callers can
// rely on it always making progress.
func (m *Machine) RunFrame() {
	m.frameReady = false
	budget := timing.CyclesPerFrame
	for !m.frameReady && budget > 0 {
		budget -= m.Step()
	}
}

// Frames returns the number of frames completed since power on.
func (m *Machine) Frames() uint64 {
	return m.frames
}

// Framebuffer returns the PPU's output buffer.
func (m *Machine) Framebuffer() *video.Framebuffer {
	return m.ppu.Framebuffer()
}

// Joypad returns the joypad for input injection.
func (m *Machine) Joypad() *memory.Joypad {
	return m.bus.Joypad()
}

// UseSaveFile points battery persistence at a different path and
// reloads RAM from it.
func (m *Machine) UseSaveFile(path string) error {
	m.savePath = path
	return m.cart.LoadSave(path)
}

// Title returns the cartridge header title.
func (m *Machine) Title() string {
	return m.cart.Title()
}

// Variant returns the emulated hardware model.
func (m *Machine) Variant() Variant {
	return m.variant
}

// Bus exposes the memory bus, mainly for tests and debug tooling.
func (m *Machine) Bus() *memory.Bus {
	return m.bus
}

// FlushSave writes battery RAM to the save file, if the machine was
// loaded from disk and the cartridge has a battery.
func (m *Machine) FlushSave() error {
	if m.savePath == "" {
		return nil
	}
	if err := m.cart.FlushSave(m.savePath); err != nil {
		return fmt.Errorf("flushing battery save: %w", err)
	}
	return nil
}
