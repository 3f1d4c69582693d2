package video

// dmgShades maps a 2 bit color index to a grayscale RGBA pixel, from
// white down to black.
var dmgShades = [4]uint32{
	0xFFFFFFFF,
	0xAAAAAAFF,
	0x555555FF,
	0x000000FF,
}

// dmgColor resolves a color index through a DMG palette register
// (BGP, OBP0 or OBP1): two bits per index, index 0 in the low bits.
func dmgColor(palette uint8, index uint8) uint32 {
	return dmgShades[palette>>(index*2)&0x03]
}

// colorRAM is one of the two CGB palette memories: 8 palettes of 4
// colors, each color 2 bytes of little-endian RGB555.
type colorRAM struct {
	data [64]uint8
	// index register: bits 5-0 address a byte, bit 7 enables
	// auto-increment on data writes
	index uint8
}

func (c *colorRAM) writeIndex(value uint8) {
	c.index = value & 0xBF
}

func (c *colorRAM) readIndex() uint8 {
	return c.index | 0x40
}

func (c *colorRAM) writeData(value uint8) {
	c.data[c.index&0x3F] = value
	c.advance()
}

func (c *colorRAM) readData() uint8 {
	return c.data[c.index&0x3F]
}

func (c *colorRAM) advance() {
	if c.index&0x80 != 0 {
		c.index = c.index&0x80 | (c.index+1)&0x3F
	}
}

// color resolves palette number (0-7) and color index (0-3) to an
// RGBA pixel. Each 5 bit channel is widened to 8 bits by repeating
// its top bits.
func (c *colorRAM) color(palette, index uint8) uint32 {
	offset := int(palette)*8 + int(index)*2
	low := c.data[offset]
	high := c.data[offset+1]

	r := low & 0x1F
	g := low>>5 | (high&0x03)<<3
	b := high >> 2 & 0x1F

	return uint32(expand5(r))<<24 | uint32(expand5(g))<<16 | uint32(expand5(b))<<8 | 0xFF
}

func expand5(c uint8) uint8 {
	return c<<3 | c>>2
}
