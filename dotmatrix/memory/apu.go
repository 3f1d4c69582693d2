package memory

// apu is a register file standing in for the audio unit: writes stick,
// reads come back, no sound is synthesized. NR52 bit 7 gates writes to
// the rest of the block like real hardware does.
type apu struct {
	regs [0x30]uint8 // 0xFF10-0xFF3F
}

const nr52Offset = 0x16

func (a *apu) enabled() bool {
	return a.regs[nr52Offset]&0x80 != 0
}

func (a *apu) read(address uint16) uint8 {
	return a.regs[address-0xFF10]
}

func (a *apu) write(address uint16, value uint8) {
	offset := address - 0xFF10
	if offset == nr52Offset {
		a.regs[offset] = value & 0x80
		if value&0x80 == 0 {
			// powering off clears every channel register
			for i := range a.regs[:nr52Offset] {
				a.regs[i] = 0
			}
		}
		return
	}
	// wave RAM stays writable with the APU off
	if !a.enabled() && offset < 0x20 {
		return
	}
	a.regs[offset] = value
}
