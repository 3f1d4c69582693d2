// Package interrupt implements the interrupt controller: the IF and IE
// registers and the fixed-priority selection of the next interrupt to
// service.
package interrupt

import "github.com/averna/dotmatrix/dotmatrix/addr"

// Controller holds the request (IF) and enable (IE) registers.
type Controller struct {
	requested uint8
	enabled   uint8
}

// New returns a controller with the post-boot register values.
func New() *Controller {
	return &Controller{requested: 0x01}
}

// Request raises the request bit for the interrupt. The bit stays set
// until acknowledged or overwritten through IF.
func (c *Controller) Request(i addr.Interrupt) {
	c.requested |= i.Mask()
}

// Acknowledge clears the request bit for the interrupt, as the CPU does
// when it starts dispatching it.
func (c *Controller) Acknowledge(i addr.Interrupt) {
	c.requested &^= i.Mask()
}

// Pending reports whether any enabled interrupt is requested. This is
// independent of IME; it is what wakes the CPU from HALT.
func (c *Controller) Pending() bool {
	return c.enabled&c.requested&0x1F != 0
}

// Next returns the highest priority interrupt that is both requested
// and enabled. The second result is false when nothing is pending.
func (c *Controller) Next() (addr.Interrupt, bool) {
	pending := c.enabled & c.requested & 0x1F
	if pending == 0 {
		return 0, false
	}
	for i := addr.VBlank; i <= addr.Joypad; i++ {
		if pending&i.Mask() != 0 {
			return i, true
		}
	}
	return 0, false
}

// ReadIF returns the IF register. The upper three bits are unwired and
// read as 1.
func (c *Controller) ReadIF() uint8 {
	return c.requested | 0xE0
}

// WriteIF replaces the request bits.
func (c *Controller) WriteIF(value uint8) {
	c.requested = value & 0x1F
}

// ReadIE returns the IE register.
func (c *Controller) ReadIE() uint8 {
	return c.enabled
}

// WriteIE replaces the enable bits. All eight bits are writable on
// hardware but only the low five matter.
func (c *Controller) WriteIE(value uint8) {
	c.enabled = value
}

// State is the serializable controller state.
type State struct {
	Requested uint8
	Enabled   uint8
}

// State captures the controller registers.
func (c *Controller) State() State {
	return State{Requested: c.requested, Enabled: c.enabled}
}

// SetState restores captured registers.
func (c *Controller) SetState(s State) {
	c.requested = s.Requested
	c.enabled = s.Enabled
}
