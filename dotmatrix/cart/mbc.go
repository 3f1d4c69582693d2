package cart

// Bank controller register and mapping logic. One switch per access
// path, keyed on the controller kind; the state lives on Cartridge.

// Read returns the byte mapped at addr in the 0x0000-0x7FFF ROM window
// or the 0xA000-0xBFFF external RAM window.
func (c *Cartridge) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		return c.rom[c.lowROMOffset(addr)%len(c.rom)]
	case addr < 0x8000:
		return c.rom[c.highROMOffset(addr)%len(c.rom)]
	case addr >= 0xA000 && addr < 0xC000:
		return c.readRAM(addr)
	}
	return 0xFF
}

// Write handles stores into the ROM window (bank controller registers)
// and the external RAM window.
func (c *Cartridge) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x8000:
		c.writeRegister(addr, value)
	case addr >= 0xA000 && addr < 0xC000:
		c.writeRAM(addr, value)
	}
}

// lowROMOffset maps the fixed 0x0000-0x3FFF window. Only MBC1 in
// advanced banking mode remaps it.
func (c *Cartridge) lowROMOffset(addr uint16) int {
	if c.kind == MBC1 && c.bankMode == 1 {
		return int(c.ramBank)<<5*romBankSize + int(addr)
	}
	return int(addr)
}

// highROMOffset maps the switchable 0x4000-0x7FFF window.
func (c *Cartridge) highROMOffset(addr uint16) int {
	bank := int(c.romBank)
	if c.kind == MBC1 {
		bank |= int(c.ramBank) << 5
	}
	return bank*romBankSize + int(addr-0x4000)
}

func (c *Cartridge) writeRegister(addr uint16, value uint8) {
	switch c.kind {
	case None:
		// no registers
	case MBC1:
		c.writeMBC1(addr, value)
	case MBC2:
		c.writeMBC2(addr, value)
	case MBC3:
		c.writeMBC3(addr, value)
	case MBC5:
		c.writeMBC5(addr, value)
	}
}

func (c *Cartridge) writeMBC1(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		c.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		bank := uint16(value & 0x1F)
		if bank == 0 {
			bank = 1
		}
		c.romBank = bank
	case addr < 0x6000:
		c.ramBank = value & 0x03
	default:
		c.bankMode = value & 0x01
	}
}

func (c *Cartridge) writeMBC2(addr uint16, value uint8) {
	if addr >= 0x4000 {
		return
	}
	// address bit 8 routes the write: clear selects RAM enable,
	// set selects the ROM bank register
	if addr&0x0100 == 0 {
		c.ramEnabled = value&0x0F == 0x0A
		return
	}
	bank := uint16(value & 0x0F)
	if bank == 0 {
		bank = 1
	}
	c.romBank = bank
}

func (c *Cartridge) writeMBC3(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		c.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		bank := uint16(value & 0x7F)
		if bank == 0 {
			bank = 1
		}
		c.romBank = bank
	case addr < 0x6000:
		if value >= 0x08 && value <= 0x0C {
			c.rtcSelect = value
		} else {
			c.rtcSelect = 0
			c.ramBank = value & 0x03
		}
	default:
		// writing 0 then 1 latches the clock registers
		if c.rtcLatch == 0 && value == 1 {
			c.latchRTC()
		}
		c.rtcLatch = value
	}
}

func (c *Cartridge) writeMBC5(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		c.ramEnabled = value&0x0F == 0x0A
	case addr < 0x3000:
		c.romBank = c.romBank&0x100 | uint16(value)
	case addr < 0x4000:
		c.romBank = c.romBank&0x0FF | uint16(value&0x01)<<8
	case addr < 0x6000:
		c.ramBank = value & 0x0F
	}
}

func (c *Cartridge) readRAM(addr uint16) uint8 {
	if !c.ramEnabled || len(c.ram) == 0 {
		return 0xFF
	}
	switch c.kind {
	case MBC2:
		// 512 half bytes, upper nibble unwired
		return c.ram[int(addr-0xA000)%len(c.ram)] | 0xF0
	case MBC3:
		if c.rtcSelect != 0 {
			return c.rtcRegs[c.rtcSelect-0x08]
		}
	}
	return c.ram[c.ramOffset(addr)%len(c.ram)]
}

func (c *Cartridge) writeRAM(addr uint16, value uint8) {
	if !c.ramEnabled || len(c.ram) == 0 {
		return
	}
	switch c.kind {
	case MBC2:
		c.ram[int(addr-0xA000)%len(c.ram)] = value & 0x0F
	case MBC3:
		if c.rtcSelect != 0 {
			c.rtcRegs[c.rtcSelect-0x08] = value
			return
		}
		c.ram[c.ramOffset(addr)%len(c.ram)] = value
	default:
		c.ram[c.ramOffset(addr)%len(c.ram)] = value
	}
	c.dirty = true
}

func (c *Cartridge) ramOffset(addr uint16) int {
	bank := int(c.ramBank)
	if c.kind == MBC1 && c.bankMode == 0 {
		bank = 0
	}
	return bank*ramBankSize + int(addr-0xA000)
}

// latchRTC would copy the live clock into the latched registers. The
// clock does not advance in this core, so the registers latch as
// written.
func (c *Cartridge) latchRTC() {}
