package cpu

import (
	"log/slog"

	"github.com/averna/dotmatrix/dotmatrix/bit"
)

// execute runs one instruction and returns its cycle count.
//
// The two regular quadrants (LD r,r' and the accumulator ALU block)
// decode through register index fields; everything else is a direct
// case.
func (c *CPU) execute(opcode uint8) int {
	if opcode >= 0x40 && opcode <= 0x7F {
		if opcode == 0x76 {
			return c.halt()
		}
		dst := bit.Field(opcode, 5, 3)
		src := bit.Field(opcode, 2, 0)
		c.setReg(dst, c.getReg(src))
		if dst == 6 || src == 6 {
			return 8
		}
		return 4
	}

	if opcode >= 0x80 && opcode <= 0xBF {
		src := bit.Field(opcode, 2, 0)
		c.alu(bit.Field(opcode, 5, 3), c.getReg(src))
		if src == 6 {
			return 8
		}
		return 4
	}

	switch opcode {
	case 0x00: // NOP
		return 4
	case 0x10: // STOP
		return c.stop()

	// 16 bit loads
	case 0x01:
		c.setBC(c.fetch16())
		return 12
	case 0x11:
		c.setDE(c.fetch16())
		return 12
	case 0x21:
		c.setHL(c.fetch16())
		return 12
	case 0x31:
		c.sp = c.fetch16()
		return 12
	case 0x08: // LD (nn),SP
		address := c.fetch16()
		c.bus.Write(address, uint8(c.sp))
		c.bus.Write(address+1, uint8(c.sp>>8))
		return 20
	case 0xF8: // LD HL,SP+e
		c.setHL(c.addSPe())
		return 12
	case 0xF9: // LD SP,HL
		c.sp = c.hl()
		return 8

	// accumulator loads through register pairs
	case 0x02:
		c.bus.Write(c.bc(), c.a)
		return 8
	case 0x12:
		c.bus.Write(c.de(), c.a)
		return 8
	case 0x22: // LD (HL+),A
		c.bus.Write(c.hl(), c.a)
		c.setHL(c.hl() + 1)
		return 8
	case 0x32: // LD (HL-),A
		c.bus.Write(c.hl(), c.a)
		c.setHL(c.hl() - 1)
		return 8
	case 0x0A:
		c.a = c.bus.Read(c.bc())
		return 8
	case 0x1A:
		c.a = c.bus.Read(c.de())
		return 8
	case 0x2A: // LD A,(HL+)
		c.a = c.bus.Read(c.hl())
		c.setHL(c.hl() + 1)
		return 8
	case 0x3A: // LD A,(HL-)
		c.a = c.bus.Read(c.hl())
		c.setHL(c.hl() - 1)
		return 8

	// immediate 8 bit loads
	case 0x06:
		c.b = c.fetch8()
		return 8
	case 0x0E:
		c.c = c.fetch8()
		return 8
	case 0x16:
		c.d = c.fetch8()
		return 8
	case 0x1E:
		c.e = c.fetch8()
		return 8
	case 0x26:
		c.h = c.fetch8()
		return 8
	case 0x2E:
		c.l = c.fetch8()
		return 8
	case 0x36: // LD (HL),n
		c.bus.Write(c.hl(), c.fetch8())
		return 12
	case 0x3E:
		c.a = c.fetch8()
		return 8

	// high memory and absolute accumulator loads
	case 0xE0: // LDH (n),A
		c.bus.Write(0xFF00+uint16(c.fetch8()), c.a)
		return 12
	case 0xF0: // LDH A,(n)
		c.a = c.bus.Read(0xFF00 + uint16(c.fetch8()))
		return 12
	case 0xE2: // LD (C),A
		c.bus.Write(0xFF00+uint16(c.c), c.a)
		return 8
	case 0xF2: // LD A,(C)
		c.a = c.bus.Read(0xFF00 + uint16(c.c))
		return 8
	case 0xEA: // LD (nn),A
		c.bus.Write(c.fetch16(), c.a)
		return 16
	case 0xFA: // LD A,(nn)
		c.a = c.bus.Read(c.fetch16())
		return 16

	// 16 bit arithmetic
	case 0x03:
		c.setBC(c.bc() + 1)
		return 8
	case 0x13:
		c.setDE(c.de() + 1)
		return 8
	case 0x23:
		c.setHL(c.hl() + 1)
		return 8
	case 0x33:
		c.sp++
		return 8
	case 0x0B:
		c.setBC(c.bc() - 1)
		return 8
	case 0x1B:
		c.setDE(c.de() - 1)
		return 8
	case 0x2B:
		c.setHL(c.hl() - 1)
		return 8
	case 0x3B:
		c.sp--
		return 8
	case 0x09:
		c.addHL(c.bc())
		return 8
	case 0x19:
		c.addHL(c.de())
		return 8
	case 0x29:
		c.addHL(c.hl())
		return 8
	case 0x39:
		c.addHL(c.sp)
		return 8
	case 0xE8: // ADD SP,e
		c.sp = c.addSPe()
		return 16

	// 8 bit inc/dec
	case 0x04:
		c.b = c.inc8(c.b)
		return 4
	case 0x0C:
		c.c = c.inc8(c.c)
		return 4
	case 0x14:
		c.d = c.inc8(c.d)
		return 4
	case 0x1C:
		c.e = c.inc8(c.e)
		return 4
	case 0x24:
		c.h = c.inc8(c.h)
		return 4
	case 0x2C:
		c.l = c.inc8(c.l)
		return 4
	case 0x34:
		c.bus.Write(c.hl(), c.inc8(c.bus.Read(c.hl())))
		return 12
	case 0x3C:
		c.a = c.inc8(c.a)
		return 4
	case 0x05:
		c.b = c.dec8(c.b)
		return 4
	case 0x0D:
		c.c = c.dec8(c.c)
		return 4
	case 0x15:
		c.d = c.dec8(c.d)
		return 4
	case 0x1D:
		c.e = c.dec8(c.e)
		return 4
	case 0x25:
		c.h = c.dec8(c.h)
		return 4
	case 0x2D:
		c.l = c.dec8(c.l)
		return 4
	case 0x35:
		c.bus.Write(c.hl(), c.dec8(c.bus.Read(c.hl())))
		return 12
	case 0x3D:
		c.a = c.dec8(c.a)
		return 4

	// immediate ALU
	case 0xC6:
		c.add8(c.fetch8())
		return 8
	case 0xCE:
		c.adc8(c.fetch8())
		return 8
	case 0xD6:
		c.sub8(c.fetch8())
		return 8
	case 0xDE:
		c.sbc8(c.fetch8())
		return 8
	case 0xE6:
		c.and8(c.fetch8())
		return 8
	case 0xEE:
		c.xor8(c.fetch8())
		return 8
	case 0xF6:
		c.or8(c.fetch8())
		return 8
	case 0xFE:
		c.cp8(c.fetch8())
		return 8

	// accumulator rotates, always clearing Z
	case 0x07: // RLCA
		c.a = c.rlc(c.a)
		c.f &^= flagZ
		return 4
	case 0x0F: // RRCA
		c.a = c.rrc(c.a)
		c.f &^= flagZ
		return 4
	case 0x17: // RLA
		c.a = c.rl(c.a)
		c.f &^= flagZ
		return 4
	case 0x1F: // RRA
		c.a = c.rr(c.a)
		c.f &^= flagZ
		return 4

	case 0x27: // DAA
		c.daa()
		return 4
	case 0x2F: // CPL
		c.a = ^c.a
		c.f |= flagN | flagH
		return 4
	case 0x37: // SCF
		c.f = c.f&flagZ | flagC
		return 4
	case 0x3F: // CCF
		c.f = c.f&flagZ | (c.f&flagC ^ flagC)
		return 4

	// jumps
	case 0xC3: // JP nn
		c.pc = c.fetch16()
		return 16
	case 0xE9: // JP HL
		c.pc = c.hl()
		return 4
	case 0xC2, 0xCA, 0xD2, 0xDA: // JP cc,nn
		target := c.fetch16()
		if c.condition(bit.Field(opcode, 4, 3)) {
			c.pc = target
			return 16
		}
		return 12
	case 0x18: // JR e
		offset := int8(c.fetch8())
		c.pc = uint16(int32(c.pc) + int32(offset))
		return 12
	case 0x20, 0x28, 0x30, 0x38: // JR cc,e
		offset := int8(c.fetch8())
		if c.condition(bit.Field(opcode, 4, 3)) {
			c.pc = uint16(int32(c.pc) + int32(offset))
			return 12
		}
		return 8

	// calls and returns
	case 0xCD: // CALL nn
		target := c.fetch16()
		c.push16(c.pc)
		c.pc = target
		return 24
	case 0xC4, 0xCC, 0xD4, 0xDC: // CALL cc,nn
		target := c.fetch16()
		if c.condition(bit.Field(opcode, 4, 3)) {
			c.push16(c.pc)
			c.pc = target
			return 24
		}
		return 12
	case 0xC9: // RET
		c.pc = c.pop16()
		return 16
	case 0xC0, 0xC8, 0xD0, 0xD8: // RET cc
		if c.condition(bit.Field(opcode, 4, 3)) {
			c.pc = c.pop16()
			return 20
		}
		return 8
	case 0xD9: // RETI
		c.pc = c.pop16()
		c.ime = true
		return 16
	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF: // RST
		c.push16(c.pc)
		c.pc = uint16(opcode & 0x38)
		return 16

	// stack
	case 0xC5:
		c.push16(c.bc())
		return 16
	case 0xD5:
		c.push16(c.de())
		return 16
	case 0xE5:
		c.push16(c.hl())
		return 16
	case 0xF5:
		c.push16(c.af())
		return 16
	case 0xC1:
		c.setBC(c.pop16())
		return 12
	case 0xD1:
		c.setDE(c.pop16())
		return 12
	case 0xE1:
		c.setHL(c.pop16())
		return 12
	case 0xF1:
		c.setAF(c.pop16())
		return 12

	// interrupt master enable
	case 0xF3: // DI
		c.ime = false
		c.imePending = false
		return 4
	case 0xFB: // EI
		c.imePending = true
		return 4

	case 0xCB:
		return c.executeCB()
	}

	// undefined opcodes hard lock the CPU
	slog.Warn("undefined opcode, locking core", "opcode", opcode, "pc", c.pc-1)
	c.halted = true
	return 4
}

func (c *CPU) halt() int {
	// with IME clear and an interrupt already pending, HALT falls
	// through and the next opcode byte is fetched twice
	if !c.ime && c.irq.Pending() {
		c.haltBug = true
	} else {
		c.halted = true
	}
	return 4
}

func (c *CPU) stop() int {
	// STOP is two bytes; the operand is skipped
	c.fetch8()
	if c.speed != nil && c.speed.TrySpeedSwitch() {
		return 4
	}
	c.stopped = true
	return 4
}

func (c *CPU) condition(index uint8) bool {
	switch index {
	case 0:
		return !c.flag(flagZ)
	case 1:
		return c.flag(flagZ)
	case 2:
		return !c.flag(flagC)
	default:
		return c.flag(flagC)
	}
}

func (c *CPU) alu(op uint8, v uint8) {
	switch op {
	case 0:
		c.add8(v)
	case 1:
		c.adc8(v)
	case 2:
		c.sub8(v)
	case 3:
		c.sbc8(v)
	case 4:
		c.and8(v)
	case 5:
		c.xor8(v)
	case 6:
		c.or8(v)
	default:
		c.cp8(v)
	}
}

func (c *CPU) add8(v uint8) {
	result := uint16(c.a) + uint16(v)
	half := c.a&0x0F+v&0x0F > 0x0F
	c.a = uint8(result)
	c.setFlags(c.a == 0, false, half, result > 0xFF)
}

func (c *CPU) adc8(v uint8) {
	var carry uint16
	if c.flag(flagC) {
		carry = 1
	}
	result := uint16(c.a) + uint16(v) + carry
	half := uint16(c.a&0x0F)+uint16(v&0x0F)+carry > 0x0F
	c.a = uint8(result)
	c.setFlags(c.a == 0, false, half, result > 0xFF)
}

func (c *CPU) sub8(v uint8) {
	half := c.a&0x0F < v&0x0F
	carry := c.a < v
	c.a -= v
	c.setFlags(c.a == 0, true, half, carry)
}

func (c *CPU) sbc8(v uint8) {
	var carry int
	if c.flag(flagC) {
		carry = 1
	}
	result := int(c.a) - int(v) - carry
	half := int(c.a&0x0F)-int(v&0x0F)-carry < 0
	c.a = uint8(result)
	c.setFlags(c.a == 0, true, half, result < 0)
}

func (c *CPU) and8(v uint8) {
	c.a &= v
	c.setFlags(c.a == 0, false, true, false)
}

func (c *CPU) xor8(v uint8) {
	c.a ^= v
	c.setFlags(c.a == 0, false, false, false)
}

func (c *CPU) or8(v uint8) {
	c.a |= v
	c.setFlags(c.a == 0, false, false, false)
}

func (c *CPU) cp8(v uint8) {
	c.setFlags(c.a == v, true, c.a&0x0F < v&0x0F, c.a < v)
}

func (c *CPU) inc8(v uint8) uint8 {
	result := v + 1
	c.f = c.f & flagC
	if result == 0 {
		c.f |= flagZ
	}
	if v&0x0F == 0x0F {
		c.f |= flagH
	}
	return result
}

func (c *CPU) dec8(v uint8) uint8 {
	result := v - 1
	c.f = c.f&flagC | flagN
	if result == 0 {
		c.f |= flagZ
	}
	if v&0x0F == 0 {
		c.f |= flagH
	}
	return result
}

func (c *CPU) addHL(v uint16) {
	hl := c.hl()
	result := uint32(hl) + uint32(v)
	c.f = c.f & flagZ
	if hl&0x0FFF+v&0x0FFF > 0x0FFF {
		c.f |= flagH
	}
	if result > 0xFFFF {
		c.f |= flagC
	}
	c.setHL(uint16(result))
}

// addSPe computes SP plus a signed immediate. Flags come from
// unsigned byte arithmetic on the low bytes, carry semantics shared by
// ADD SP,e and LD HL,SP+e.
func (c *CPU) addSPe() uint16 {
	offset := c.fetch8()
	half := c.sp&0x0F+uint16(offset&0x0F) > 0x0F
	carry := c.sp&0xFF+uint16(offset) > 0xFF
	c.setFlags(false, false, half, carry)
	return uint16(int32(c.sp) + int32(int8(offset)))
}

func (c *CPU) daa() {
	a := c.a
	carry := c.flag(flagC)

	if c.flag(flagN) {
		if c.flag(flagH) {
			a -= 0x06
		}
		if carry {
			a -= 0x60
		}
	} else {
		if c.flag(flagH) || a&0x0F > 0x09 {
			a += 0x06
		}
		if carry || c.a > 0x99 {
			a += 0x60
			carry = true
		}
	}

	c.a = a
	c.f = c.f & flagN
	if a == 0 {
		c.f |= flagZ
	}
	if carry {
		c.f |= flagC
	}
}
