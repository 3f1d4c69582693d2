package memory

// Button is one of the eight joypad inputs.
type Button uint8

const (
	BtnA Button = iota
	BtnB
	BtnSelect
	BtnStart
	BtnRight
	BtnLeft
	BtnUp
	BtnDown
)

func (b Button) String() string {
	names := [8]string{"a", "b", "select", "start", "right", "left", "up", "down"}
	if int(b) < len(names) {
		return names[b]
	}
	return "unknown"
}

// Joypad implements the P1 register: two button groups selected by
// bits 4-5, active low on both the select and the button bits.
type Joypad struct {
	pressed uint8 // one bit per Button, 1 while held
	sel     uint8 // select bits as written (bits 4-5)
	irq     func()
}

func newJoypad(irq func()) Joypad {
	return Joypad{sel: 0x30, irq: irq}
}

// Press marks a button held and raises the joypad interrupt when its
// group is currently selected.
func (j *Joypad) Press(b Button) {
	already := j.pressed&(1<<b) != 0
	j.pressed |= 1 << b
	if !already && j.groupSelected(b) {
		j.irq()
	}
}

// Release marks a button no longer held.
func (j *Joypad) Release(b Button) {
	j.pressed &^= 1 << b
}

func (j *Joypad) groupSelected(b Button) bool {
	if b <= BtnStart {
		return j.sel&0x20 == 0
	}
	return j.sel&0x10 == 0
}

// Read returns P1: unused bits high, selected group's held buttons low.
func (j *Joypad) Read() uint8 {
	result := 0xC0 | j.sel | 0x0F
	if j.sel&0x20 == 0 {
		result &^= j.pressed & 0x0F
	}
	if j.sel&0x10 == 0 {
		result &^= j.pressed >> 4
	}
	return result
}

// Write stores the group select bits; the rest of P1 is read only.
func (j *Joypad) Write(value uint8) {
	j.sel = value & 0x30
}
