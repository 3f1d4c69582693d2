package cpu

import "github.com/averna/dotmatrix/dotmatrix/bit"

// executeCB runs one 0xCB-prefixed instruction. The whole page decodes
// through bit fields: bits 7-6 pick the group, bits 5-3 the operation
// or bit number, bits 2-0 the register.
func (c *CPU) executeCB() int {
	opcode := c.fetch8()
	reg := bit.Field(opcode, 2, 0)
	n := bit.Field(opcode, 5, 3)
	value := c.getReg(reg)

	cycles := 8
	if reg == 6 {
		cycles = 16
	}

	switch opcode >> 6 {
	case 0: // rotates and shifts
		var result uint8
		switch n {
		case 0:
			result = c.rlc(value)
		case 1:
			result = c.rrc(value)
		case 2:
			result = c.rl(value)
		case 3:
			result = c.rr(value)
		case 4:
			result = c.sla(value)
		case 5:
			result = c.sra(value)
		case 6:
			result = c.swap(value)
		default:
			result = c.srl(value)
		}
		c.setReg(reg, result)

	case 1: // BIT n,r
		zero := value&(1<<n) == 0
		c.f = c.f&flagC | flagH
		if zero {
			c.f |= flagZ
		}
		if reg == 6 {
			cycles = 12
		}

	case 2: // RES n,r
		c.setReg(reg, value&^(1<<n))

	default: // SET n,r
		c.setReg(reg, value|1<<n)
	}

	return cycles
}

// rotate and shift helpers, all setting ZNHC from the result

func (c *CPU) rlc(v uint8) uint8 {
	result := v<<1 | v>>7
	c.setFlags(result == 0, false, false, v&0x80 != 0)
	return result
}

func (c *CPU) rrc(v uint8) uint8 {
	result := v>>1 | v<<7
	c.setFlags(result == 0, false, false, v&0x01 != 0)
	return result
}

func (c *CPU) rl(v uint8) uint8 {
	result := v << 1
	if c.flag(flagC) {
		result |= 0x01
	}
	c.setFlags(result == 0, false, false, v&0x80 != 0)
	return result
}

func (c *CPU) rr(v uint8) uint8 {
	result := v >> 1
	if c.flag(flagC) {
		result |= 0x80
	}
	c.setFlags(result == 0, false, false, v&0x01 != 0)
	return result
}

func (c *CPU) sla(v uint8) uint8 {
	result := v << 1
	c.setFlags(result == 0, false, false, v&0x80 != 0)
	return result
}

func (c *CPU) sra(v uint8) uint8 {
	result := v>>1 | v&0x80
	c.setFlags(result == 0, false, false, v&0x01 != 0)
	return result
}

func (c *CPU) swap(v uint8) uint8 {
	result := v<<4 | v>>4
	c.setFlags(result == 0, false, false, false)
	return result
}

func (c *CPU) srl(v uint8) uint8 {
	result := v >> 1
	c.setFlags(result == 0, false, false, v&0x01 != 0)
	return result
}
