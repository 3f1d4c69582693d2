// Package timer implements the DIV/TIMA timer circuit.
//
// The hardware drives TIMA from a falling edge on one bit of a 16 bit
// divider that increments every cycle. DIV is just the high byte of
// that divider, which is why writing DIV (resetting the divider) can
// tick TIMA. TIMA overflow does not reload immediately: for four
// cycles the register reads 0, then it is reloaded from TMA and the
// interrupt is requested.
package timer

import "github.com/averna/dotmatrix/dotmatrix/bit"

// divider bit watched for each TAC clock select.
var tacBit = [4]uint{9, 3, 5, 7}

const overflowDelay = 4

// Timer is the timer circuit. The irq callback is invoked when the
// delayed TIMA reload fires.
type Timer struct {
	counter uint16 // internal divider, DIV is the high byte
	tima    uint8
	tma     uint8
	tac     uint8

	// cycles left in the post-overflow window, 0 when inactive
	overflow uint8

	irq func()
}

// New returns a timer with post-boot values. irq is called on timer
// interrupt and must not be nil.
func New(irq func()) *Timer {
	return &Timer{counter: 0xABCC, irq: irq}
}

// Tick advances the timer by the given number of machine cycles.
func (t *Timer) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		t.step()
	}
}

func (t *Timer) step() {
	if t.overflow > 0 {
		t.overflow--
		if t.overflow == 0 {
			t.tima = t.tma
			t.irq()
		}
	}

	old := t.counter
	t.counter++
	t.detectEdge(old, t.counter)
}

// detectEdge increments TIMA when the watched divider bit falls while
// the timer is enabled.
func (t *Timer) detectEdge(before, after uint16) {
	if !bit.Test(2, t.tac) {
		return
	}
	watched := tacBit[t.tac&0x03]
	if bit.Test16(watched, before) && !bit.Test16(watched, after) {
		t.increment()
	}
}

func (t *Timer) increment() {
	t.tima++
	if t.tima == 0 {
		// reload and interrupt are delayed; TIMA reads 0 meanwhile
		t.overflow = overflowDelay
	}
}

// ReadDIV returns the visible divider byte.
func (t *Timer) ReadDIV() uint8 {
	return bit.High(t.counter)
}

// WriteDIV resets the whole internal divider. The falling edge this
// causes can increment TIMA.
func (t *Timer) WriteDIV() {
	old := t.counter
	t.counter = 0
	t.detectEdge(old, 0)
}

// ReadTIMA returns the counter, or 0 inside the overflow window.
func (t *Timer) ReadTIMA() uint8 {
	return t.tima
}

// WriteTIMA sets the counter. A write during the overflow window
// cancels the pending reload.
func (t *Timer) WriteTIMA(value uint8) {
	t.tima = value
	t.overflow = 0
}

// ReadTMA returns the modulo register.
func (t *Timer) ReadTMA() uint8 {
	return t.tma
}

// WriteTMA sets the modulo register.
func (t *Timer) WriteTMA(value uint8) {
	t.tma = value
}

// ReadTAC returns the control register. The unused upper bits read 1.
func (t *Timer) ReadTAC() uint8 {
	return t.tac | 0xF8
}

// WriteTAC sets the control register.
func (t *Timer) WriteTAC(value uint8) {
	t.tac = value & 0x07
}

// State is the serializable timer state.
type State struct {
	Counter  uint16
	TIMA     uint8
	TMA      uint8
	TAC      uint8
	Overflow uint8
}

// State captures the timer registers and overflow window.
func (t *Timer) State() State {
	return State{
		Counter:  t.counter,
		TIMA:     t.tima,
		TMA:      t.tma,
		TAC:      t.tac,
		Overflow: t.overflow,
	}
}

// SetState restores a captured state.
func (t *Timer) SetState(s State) {
	t.counter = s.Counter
	t.tima = s.TIMA
	t.tma = s.TMA
	t.tac = s.TAC
	t.overflow = s.Overflow
}
