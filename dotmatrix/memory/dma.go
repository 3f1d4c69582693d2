package memory

import "github.com/averna/dotmatrix/dotmatrix/addr"

// startOAMDMA copies 160 bytes from value<<8 into OAM. The copy is
// performed at once; the bus conflict window while the transfer runs
// is not modeled.
func (b *Bus) startOAMDMA(value uint8) {
	b.dmaReg = value
	source := uint16(value) << 8
	for i := uint8(0); i < 160; i++ {
		b.ppu.WriteOAMDMA(i, b.Read(source+uint16(i)))
	}
}

// hdma is the CGB VRAM DMA engine. General purpose transfers copy the
// whole block when HDMA5 is written; HBlank transfers move 16 bytes at
// each HBlank until done or cancelled.
type hdma struct {
	source uint16
	dest   uint16 // offset into VRAM
	length uint16 // bytes remaining
	active bool   // HBlank mode transfer in flight
}

type hdmaState struct {
	Source uint16
	Dest   uint16
	Length uint16
	Active bool
}

func (h *hdma) state() hdmaState {
	return hdmaState{Source: h.source, Dest: h.dest, Length: h.length, Active: h.active}
}

func (h *hdma) setState(s hdmaState) {
	h.source = s.Source
	h.dest = s.Dest
	h.length = s.Length
	h.active = s.Active
}

func (b *Bus) readHDMA(address uint16) uint8 {
	if !b.cgb {
		return 0xFF
	}
	if address == addr.HDMA5 {
		if !b.hdma.active {
			return 0xFF
		}
		return uint8(b.hdma.length/16 - 1)
	}
	// the source and destination registers are write only
	return 0xFF
}

func (b *Bus) writeHDMA(address uint16, value uint8) {
	if !b.cgb {
		return
	}
	h := &b.hdma
	switch address {
	case addr.HDMA1:
		h.source = h.source&0x00FF | uint16(value)<<8
	case addr.HDMA2:
		h.source = h.source&0xFF00 | uint16(value&0xF0)
	case addr.HDMA3:
		h.dest = h.dest&0x00FF | uint16(value&0x1F)<<8
	case addr.HDMA4:
		h.dest = h.dest&0xFF00 | uint16(value&0xF0)
	case addr.HDMA5:
		b.startVRAMDMA(value)
	}
}

func (b *Bus) startVRAMDMA(value uint8) {
	h := &b.hdma
	length := (uint16(value&0x7F) + 1) * 16

	if value&0x80 == 0 {
		if h.active {
			// writing with bit 7 clear cancels an HBlank transfer
			h.active = false
			return
		}
		for i := uint16(0); i < length; i++ {
			b.ppu.WriteVRAMDMA(h.dest+i, b.Read(h.source+i))
		}
		h.source += length
		h.dest += length
		return
	}

	h.length = length
	h.active = true
}

// hdmaHBlank moves one 16 byte block of an active HBlank transfer.
// Registered as the PPU's HBlank callback.
func (b *Bus) hdmaHBlank() {
	h := &b.hdma
	if !h.active {
		return
	}
	for i := uint16(0); i < 16; i++ {
		b.ppu.WriteVRAMDMA(h.dest+i, b.Read(h.source+i))
	}
	h.source += 16
	h.dest += 16
	h.length -= 16
	if h.length == 0 {
		h.active = false
	}
}
