package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/averna/dotmatrix/dotmatrix/addr"
	"github.com/averna/dotmatrix/dotmatrix/interrupt"
)

// ramBus is a flat 64 KiB memory with no mapped hardware.
type ramBus struct {
	mem [0x10000]uint8
}

func (r *ramBus) Read(address uint16) uint8         { return r.mem[address] }
func (r *ramBus) Write(address uint16, value uint8) { r.mem[address] = value }

// newTestCPU returns a DMG core with the program loaded at 0x0100 and
// interrupts quiesced.
func newTestCPU(program ...uint8) (*CPU, *ramBus, *interrupt.Controller) {
	bus := &ramBus{}
	copy(bus.mem[0x0100:], program)
	irq := interrupt.New()
	irq.WriteIF(0)
	c := New(bus, irq, nil, false)
	return c, bus, irq
}

func TestPowerOnRegisters(t *testing.T) {
	c, _, _ := newTestCPU()
	assert.Equal(t, uint16(0x01B0), c.af())
	assert.Equal(t, uint16(0x0013), c.bc())
	assert.Equal(t, uint16(0x00D8), c.de())
	assert.Equal(t, uint16(0x014D), c.hl())
	assert.Equal(t, uint16(0xFFFE), c.sp)
	assert.Equal(t, uint16(0x0100), c.pc)

	cgb := New(&ramBus{}, interrupt.New(), nil, true)
	assert.Equal(t, uint8(0x11), cgb.a)
}

func TestNOP(t *testing.T) {
	c, _, _ := newTestCPU(0x00)
	cycles := c.Step()
	assert.Equal(t, 4, cycles)
	assert.Equal(t, uint16(0x0101), c.pc)
}

func TestInterruptDispatch(t *testing.T) {
	c, bus, irq := newTestCPU(0x00)
	c.ime = true
	irq.WriteIE(0xFF)
	irq.Request(addr.Timer)

	cycles := c.Step()
	assert.Equal(t, 20, cycles)
	assert.Equal(t, uint16(0x0050), c.pc)
	assert.False(t, c.ime)
	assert.Zero(t, irq.ReadIF()&addr.Timer.Mask(), "IF bit acknowledged")

	// return address 0x0100 on the stack
	assert.Equal(t, uint8(0x01), bus.mem[0xFFFD])
	assert.Equal(t, uint8(0x00), bus.mem[0xFFFC])
}

func TestInterruptPriority(t *testing.T) {
	c, _, irq := newTestCPU(0x00)
	c.ime = true
	irq.WriteIE(0xFF)
	irq.Request(addr.Joypad)
	irq.Request(addr.VBlank)

	c.Step()
	assert.Equal(t, uint16(0x0040), c.pc, "vblank dispatched first")

	c.ime = true
	c.Step()
	assert.Equal(t, uint16(0x0060), c.pc)
}

func TestInterruptIgnoredWithoutIME(t *testing.T) {
	c, _, irq := newTestCPU(0x00)
	irq.WriteIE(0xFF)
	irq.Request(addr.Timer)

	c.Step()
	assert.Equal(t, uint16(0x0101), c.pc, "NOP executed, no dispatch")
	assert.NotZero(t, irq.ReadIF()&addr.Timer.Mask())
}

func TestEIDelay(t *testing.T) {
	// EI; NOP; NOP with a pending interrupt: dispatch happens after
	// the instruction that follows EI
	c, _, irq := newTestCPU(0xFB, 0x00, 0x00)
	irq.WriteIE(0xFF)
	irq.Request(addr.VBlank)

	c.Step() // EI
	assert.False(t, c.ime)
	c.Step() // NOP, IME turns on after it
	assert.True(t, c.ime)
	assert.Equal(t, uint16(0x0102), c.pc)

	c.Step()
	assert.Equal(t, uint16(0x0040), c.pc, "dispatch on the third step")
}

func TestDICancelsPendingEI(t *testing.T) {
	c, _, _ := newTestCPU(0xFB, 0xF3, 0x00)
	c.Step() // EI
	c.Step() // DI
	c.Step() // NOP
	assert.False(t, c.ime)
}

func TestRETIEnablesIME(t *testing.T) {
	c, bus, _ := newTestCPU(0xD9)
	bus.mem[0xFFFC] = 0x34
	bus.mem[0xFFFD] = 0x12
	c.sp = 0xFFFC

	cycles := c.Step()
	assert.Equal(t, 16, cycles)
	assert.Equal(t, uint16(0x1234), c.pc)
	assert.True(t, c.ime)
}

func TestHALTWaitsForInterrupt(t *testing.T) {
	c, _, irq := newTestCPU(0x76, 0x00)
	c.ime = true
	irq.WriteIE(0xFF)

	c.Step()
	assert.True(t, c.Halted())

	cycles := c.Step()
	assert.Equal(t, 4, cycles, "idle while halted")
	assert.True(t, c.Halted())

	irq.Request(addr.Timer)
	c.Step()
	assert.False(t, c.Halted())
	assert.Equal(t, uint16(0x0050), c.pc, "woke straight into dispatch")
}

func TestHALTWakesWithoutIME(t *testing.T) {
	c, _, irq := newTestCPU(0x76, 0x00)
	irq.WriteIE(0xFF)

	c.Step()
	assert.True(t, c.Halted())

	irq.Request(addr.Timer)
	c.Step() // wakes and runs the NOP, no dispatch
	assert.False(t, c.Halted())
	assert.Equal(t, uint16(0x0102), c.pc)
	assert.NotZero(t, irq.ReadIF()&addr.Timer.Mask())
}

func TestHALTBug(t *testing.T) {
	// HALT with IME clear and an interrupt pending: the next opcode
	// byte executes twice
	c, _, irq := newTestCPU(0x76, 0x3C) // HALT; INC A
	irq.WriteIE(0xFF)
	irq.Request(addr.Timer)
	c.a = 0

	c.Step() // HALT does not halt, arms the bug
	assert.False(t, c.Halted())

	c.Step() // INC A, PC stuck
	assert.Equal(t, uint8(1), c.a)
	assert.Equal(t, uint16(0x0101), c.pc)

	c.Step() // INC A again
	assert.Equal(t, uint8(2), c.a)
	assert.Equal(t, uint16(0x0102), c.pc)
}

func TestSTOPParksWithoutSpeedSwitcher(t *testing.T) {
	c, _, irq := newTestCPU(0x10, 0x00, 0x00)
	c.Step()
	assert.True(t, c.Halted())
	assert.Equal(t, uint16(0x0102), c.pc, "operand byte consumed")

	irq.WriteIE(0xFF)
	irq.Request(addr.Joypad)
	c.Step()
	assert.False(t, c.Halted())
}

type fakeSpeedSwitch struct {
	armed    bool
	switched int
}

func (f *fakeSpeedSwitch) TrySpeedSwitch() bool {
	if f.armed {
		f.armed = false
		f.switched++
		return true
	}
	return false
}

func TestSTOPPerformsSpeedSwitch(t *testing.T) {
	bus := &ramBus{}
	bus.mem[0x0100] = 0x10
	irq := interrupt.New()
	irq.WriteIF(0)
	speed := &fakeSpeedSwitch{armed: true}
	c := New(bus, irq, speed, true)

	c.Step()
	assert.Equal(t, 1, speed.switched)
	assert.False(t, c.Halted(), "speed switch STOP does not park")
}

func TestUndefinedOpcodeLocks(t *testing.T) {
	c, _, _ := newTestCPU(0xD3)
	c.Step()
	assert.True(t, c.Halted())
}

func TestStateRoundTrip(t *testing.T) {
	c, _, _ := newTestCPU(0xFB, 0x00)
	c.Step() // EI pending

	s := c.State()
	fresh, _, _ := newTestCPU(0xFB, 0x00)
	fresh.SetState(s)

	assert.Equal(t, c.pc, fresh.pc)
	assert.Equal(t, c.imePending, fresh.imePending)

	c.Step()
	fresh.Step()
	assert.Equal(t, c.ime, fresh.ime)
}
