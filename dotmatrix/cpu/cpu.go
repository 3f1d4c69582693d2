// Package cpu implements the SM83 core: registers, the fetch/execute
// loop, interrupt dispatch and the halt/stop states.
package cpu

import (
	"github.com/averna/dotmatrix/dotmatrix/bit"
	"github.com/averna/dotmatrix/dotmatrix/interrupt"
)

// Bus is the memory the CPU executes against.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// SpeedSwitcher is implemented by buses that support the CGB speed
// switch. STOP consults it before parking the core.
type SpeedSwitcher interface {
	TrySpeedSwitch() bool
}

// Flag register bits.
const (
	flagZ uint8 = 1 << 7
	flagN uint8 = 1 << 6
	flagH uint8 = 1 << 5
	flagC uint8 = 1 << 4
)

const interruptDispatchCycles = 20

// CPU is the SM83 core.
type CPU struct {
	a, f uint8
	b, c uint8
	d, e uint8
	h, l uint8
	sp   uint16
	pc   uint16

	ime        bool
	imePending bool
	halted     bool
	stopped    bool
	haltBug    bool

	bus   Bus
	irq   *interrupt.Controller
	speed SpeedSwitcher
}

// New returns a core with post-boot register values for the given
// machine variant. speed may be nil on machines without a switchable
// clock.
func New(bus Bus, irq *interrupt.Controller, speed SpeedSwitcher, cgb bool) *CPU {
	c := &CPU{
		bus:   bus,
		irq:   irq,
		speed: speed,
		sp:    0xFFFE,
		pc:    0x0100,
	}
	if cgb {
		c.a, c.f = 0x11, 0x80
		c.b, c.c = 0x00, 0x00
		c.d, c.e = 0xFF, 0x56
		c.h, c.l = 0x00, 0x0D
	} else {
		c.a, c.f = 0x01, 0xB0
		c.b, c.c = 0x00, 0x13
		c.d, c.e = 0x00, 0xD8
		c.h, c.l = 0x01, 0x4D
	}
	return c
}

// Step services one pending interrupt or executes one instruction and
// returns the elapsed clock cycles.
func (c *CPU) Step() int {
	// EI takes effect after the instruction that follows it
	enableIME := c.imePending

	if cycles := c.dispatchInterrupt(); cycles > 0 {
		return cycles
	}

	if c.halted || c.stopped {
		if c.irq.Pending() {
			c.halted = false
			c.stopped = false
		} else {
			return 4
		}
	}

	opcode := c.bus.Read(c.pc)
	if c.haltBug {
		// PC fails to advance, so the byte executes twice
		c.haltBug = false
	} else {
		c.pc++
	}

	cycles := c.execute(opcode)

	// a DI in the executed instruction cancels the pending enable
	if enableIME && c.imePending {
		c.ime = true
		c.imePending = false
	}
	return cycles
}

// dispatchInterrupt services the highest priority pending interrupt
// when IME is set. Returns 0 when nothing was dispatched.
func (c *CPU) dispatchInterrupt() int {
	if !c.ime {
		return 0
	}
	next, ok := c.irq.Next()
	if !ok {
		return 0
	}

	c.ime = false
	c.halted = false
	c.stopped = false
	c.irq.Acknowledge(next)
	c.push16(c.pc)
	c.pc = next.Vector()
	return interruptDispatchCycles
}

// Halted reports whether the core is parked in HALT or STOP.
func (c *CPU) Halted() bool {
	return c.halted || c.stopped
}

// PC returns the program counter, for debugging and tracing.
func (c *CPU) PC() uint16 {
	return c.pc
}

// register pair accessors

func (c *CPU) af() uint16 { return bit.Join(c.a, c.f) }
func (c *CPU) bc() uint16 { return bit.Join(c.b, c.c) }
func (c *CPU) de() uint16 { return bit.Join(c.d, c.e) }
func (c *CPU) hl() uint16 { return bit.Join(c.h, c.l) }

func (c *CPU) setAF(v uint16) { c.a, c.f = bit.High(v), bit.Low(v)&0xF0 }
func (c *CPU) setBC(v uint16) { c.b, c.c = bit.High(v), bit.Low(v) }
func (c *CPU) setDE(v uint16) { c.d, c.e = bit.High(v), bit.Low(v) }
func (c *CPU) setHL(v uint16) { c.h, c.l = bit.High(v), bit.Low(v) }

// getReg reads the 8 bit register selected by a 3 bit opcode field;
// index 6 is memory at HL.
func (c *CPU) getReg(index uint8) uint8 {
	switch index {
	case 0:
		return c.b
	case 1:
		return c.c
	case 2:
		return c.d
	case 3:
		return c.e
	case 4:
		return c.h
	case 5:
		return c.l
	case 6:
		return c.bus.Read(c.hl())
	default:
		return c.a
	}
}

func (c *CPU) setReg(index uint8, value uint8) {
	switch index {
	case 0:
		c.b = value
	case 1:
		c.c = value
	case 2:
		c.d = value
	case 3:
		c.e = value
	case 4:
		c.h = value
	case 5:
		c.l = value
	case 6:
		c.bus.Write(c.hl(), value)
	default:
		c.a = value
	}
}

// immediate operand fetches

func (c *CPU) fetch8() uint8 {
	v := c.bus.Read(c.pc)
	c.pc++
	return v
}

func (c *CPU) fetch16() uint16 {
	low := c.fetch8()
	high := c.fetch8()
	return bit.Join(high, low)
}

// stack

func (c *CPU) push16(v uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(v))
	c.sp--
	c.bus.Write(c.sp, bit.Low(v))
}

func (c *CPU) pop16() uint16 {
	low := c.bus.Read(c.sp)
	c.sp++
	high := c.bus.Read(c.sp)
	c.sp++
	return bit.Join(high, low)
}

// flags

func (c *CPU) flag(f uint8) bool {
	return c.f&f != 0
}

func (c *CPU) setFlags(z, n, h, carry bool) {
	c.f = 0
	if z {
		c.f |= flagZ
	}
	if n {
		c.f |= flagN
	}
	if h {
		c.f |= flagH
	}
	if carry {
		c.f |= flagC
	}
}

// State is the serializable core state.
type State struct {
	A, F, B, C, D, E, H, L uint8
	SP, PC                 uint16

	IME        bool
	IMEPending bool
	Halted     bool
	Stopped    bool
	HaltBug    bool
}

// State captures the register file and execution flags.
func (c *CPU) State() State {
	return State{
		A: c.a, F: c.f, B: c.b, C: c.c,
		D: c.d, E: c.e, H: c.h, L: c.l,
		SP: c.sp, PC: c.pc,
		IME: c.ime, IMEPending: c.imePending,
		Halted: c.halted, Stopped: c.stopped, HaltBug: c.haltBug,
	}
}

// SetState restores a captured state.
func (c *CPU) SetState(s State) {
	c.a, c.f, c.b, c.c = s.A, s.F, s.B, s.C
	c.d, c.e, c.h, c.l = s.D, s.E, s.H, s.L
	c.sp, c.pc = s.SP, s.PC
	c.ime, c.imePending = s.IME, s.IMEPending
	c.halted, c.stopped, c.haltBug = s.Halted, s.Stopped, s.HaltBug
}
