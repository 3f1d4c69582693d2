// Package video implements the pixel processing unit: the mode state
// machine, scanline rendering for background, window and sprites, DMG
// shade palettes and CGB color RAM.
package video

import (
	"github.com/averna/dotmatrix/dotmatrix/addr"
	"github.com/averna/dotmatrix/dotmatrix/bit"
)

// Mode is the PPU mode as encoded in the low two bits of STAT.
type Mode uint8

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAMScan
	ModePixelTransfer
)

const (
	oamScanDots  = 80
	transferDots = 172
	hblankDots   = 204
	lineDots     = oamScanDots + transferDots + hblankDots
	totalLines   = 154
)

// PPU owns video memory and the LCD register file. It advances with
// the machine clock and renders one scanline at a time, at the end of
// pixel transfer.
type PPU struct {
	cgb bool

	vram [2][0x2000]uint8
	oam  [160]uint8

	lcdc uint8
	stat uint8
	scy  uint8
	scx  uint8
	ly   uint8
	lyc  uint8
	bgp  uint8
	obp0 uint8
	obp1 uint8
	wy   uint8
	wx   uint8
	vbk  uint8
	opri uint8

	bgPal  colorRAM
	objPal colorRAM

	mode       Mode
	dots       int
	windowLine int
	statLine   bool

	fb            *Framebuffer
	spriteScratch spriteLine

	irq      func(addr.Interrupt)
	onFrame  func(*Framebuffer)
	onHBlank func()
}

// New returns a PPU with post-boot register values. irq must not be
// nil; it receives VBlank and LCDStat requests.
func New(cgb bool, irq func(addr.Interrupt)) *PPU {
	p := &PPU{
		cgb:  cgb,
		lcdc: 0x91,
		stat: uint8(ModeOAMScan) | 0x04, // LY == LYC == 0 at power on
		mode: ModeOAMScan,
		bgp:  0xFC,
		opri: 0x01,
		fb:   NewFramebuffer(),
		irq:  irq,
	}
	if !cgb {
		p.obp0 = 0xFF
		p.obp1 = 0xFF
	}
	return p
}

// OnFrame registers a callback invoked with the completed framebuffer
// at the start of each VBlank.
func (p *PPU) OnFrame(fn func(*Framebuffer)) {
	p.onFrame = fn
}

// OnHBlank registers a callback invoked at each mode 0 entry on
// visible lines. The bus uses it to clock HBlank VRAM DMA.
func (p *PPU) OnHBlank(fn func()) {
	p.onHBlank = fn
}

// Framebuffer returns the frame being rendered into.
func (p *PPU) Framebuffer() *Framebuffer {
	return p.fb
}

// Mode returns the current PPU mode.
func (p *PPU) Mode() Mode {
	return p.mode
}

// LY returns the current scanline register.
func (p *PPU) LY() uint8 {
	return p.ly
}

// Tick advances the PPU by the given number of dots.
func (p *PPU) Tick(dots int) {
	if !bit.Test(7, p.lcdc) {
		return
	}

	p.dots += dots
	for {
		switch p.mode {
		case ModeOAMScan:
			if p.dots < oamScanDots {
				return
			}
			p.dots -= oamScanDots
			p.setMode(ModePixelTransfer)

		case ModePixelTransfer:
			if p.dots < transferDots {
				return
			}
			p.dots -= transferDots
			p.renderScanline()
			p.setMode(ModeHBlank)
			if p.onHBlank != nil {
				p.onHBlank()
			}

		case ModeHBlank:
			if p.dots < hblankDots {
				return
			}
			p.dots -= hblankDots
			p.setLY(p.ly + 1)
			if p.ly == FramebufferHeight {
				p.setMode(ModeVBlank)
				p.irq(addr.VBlank)
				if p.onFrame != nil {
					p.onFrame(p.fb)
				}
			} else {
				p.setMode(ModeOAMScan)
			}

		case ModeVBlank:
			if p.dots < lineDots {
				return
			}
			p.dots -= lineDots
			p.setLY(p.ly + 1)
			if p.ly == totalLines {
				p.setLY(0)
				p.windowLine = 0
				p.setMode(ModeOAMScan)
			}
		}
	}
}

// setMode updates the STAT mode bits and recomputes the interrupt line.
func (p *PPU) setMode(mode Mode) {
	p.mode = mode
	p.stat = p.stat&0xFC | uint8(mode)
	p.updateStatLine()
}

// setLY writes LY and refreshes the LYC coincidence flag.
func (p *PPU) setLY(line uint8) {
	p.ly = line
	p.compareLYC()
}

func (p *PPU) compareLYC() {
	if p.ly == p.lyc {
		p.stat = bit.Set(2, p.stat)
	} else {
		p.stat = bit.Clear(2, p.stat)
	}
	p.updateStatLine()
}

// updateStatLine recomputes the shared STAT interrupt line from the
// enabled sources and requests an interrupt on its rising edge. While
// the line stays high, further conditions are swallowed.
func (p *PPU) updateStatLine() {
	line := false
	switch p.mode {
	case ModeHBlank:
		line = bit.Test(3, p.stat)
	case ModeVBlank:
		line = bit.Test(4, p.stat)
	case ModeOAMScan:
		line = bit.Test(5, p.stat)
	}
	if bit.Test(6, p.stat) && bit.Test(2, p.stat) {
		line = true
	}

	if line && !p.statLine {
		p.irq(addr.LCDStat)
	}
	p.statLine = line
}

// ReadVRAM services a bus read in 0x8000-0x9FFF. VRAM is inaccessible
// during pixel transfer.
func (p *PPU) ReadVRAM(address uint16) uint8 {
	if p.mode == ModePixelTransfer && bit.Test(7, p.lcdc) {
		return 0xFF
	}
	return p.vram[p.vbk][address-addr.VRAMStart]
}

// WriteVRAM services a bus write in 0x8000-0x9FFF.
func (p *PPU) WriteVRAM(address uint16, value uint8) {
	if p.mode == ModePixelTransfer && bit.Test(7, p.lcdc) {
		return
	}
	p.vram[p.vbk][address-addr.VRAMStart] = value
}

// ReadOAM services a bus read in 0xFE00-0xFE9F. OAM is inaccessible
// during OAM scan and pixel transfer.
func (p *PPU) ReadOAM(address uint16) uint8 {
	if p.oamBlocked() {
		return 0xFF
	}
	return p.oam[address-addr.OAMStart]
}

// WriteOAM services a bus write in 0xFE00-0xFE9F.
func (p *PPU) WriteOAM(address uint16, value uint8) {
	if p.oamBlocked() {
		return
	}
	p.oam[address-addr.OAMStart] = value
}

// WriteOAMDMA stores a byte at an OAM offset, bypassing access
// blocking. Used by the DMA engines.
func (p *PPU) WriteOAMDMA(offset uint8, value uint8) {
	p.oam[offset] = value
}

// WriteVRAMDMA stores a byte at a VRAM offset in the current bank,
// bypassing access blocking. Used by the CGB VRAM DMA engine.
func (p *PPU) WriteVRAMDMA(offset uint16, value uint8) {
	p.vram[p.vbk][offset&0x1FFF] = value
}

func (p *PPU) oamBlocked() bool {
	if !bit.Test(7, p.lcdc) {
		return false
	}
	return p.mode == ModeOAMScan || p.mode == ModePixelTransfer
}

// ReadRegister services a bus read of an LCD register.
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case addr.LCDC:
		return p.lcdc
	case addr.STAT:
		return p.stat | 0x80
	case addr.SCY:
		return p.scy
	case addr.SCX:
		return p.scx
	case addr.LY:
		return p.ly
	case addr.LYC:
		return p.lyc
	case addr.BGP:
		return p.bgp
	case addr.OBP0:
		return p.obp0
	case addr.OBP1:
		return p.obp1
	case addr.WY:
		return p.wy
	case addr.WX:
		return p.wx
	case addr.VBK:
		if !p.cgb {
			return 0xFF
		}
		return 0xFE | p.vbk
	case addr.BCPS:
		if !p.cgb {
			return 0xFF
		}
		return p.bgPal.readIndex()
	case addr.BCPD:
		if !p.cgb || p.cramBlocked() {
			return 0xFF
		}
		return p.bgPal.readData()
	case addr.OCPS:
		if !p.cgb {
			return 0xFF
		}
		return p.objPal.readIndex()
	case addr.OCPD:
		if !p.cgb || p.cramBlocked() {
			return 0xFF
		}
		return p.objPal.readData()
	case addr.OPRI:
		if !p.cgb {
			return 0xFF
		}
		return p.opri | 0xFE
	}
	return 0xFF
}

// WriteRegister services a bus write of an LCD register.
func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address {
	case addr.LCDC:
		p.writeLCDC(value)
	case addr.STAT:
		// mode and coincidence bits are read only
		p.stat = p.stat&0x07 | value&0x78
		p.updateStatLine()
	case addr.SCY:
		p.scy = value
	case addr.SCX:
		p.scx = value
	case addr.LY:
		// read only
	case addr.LYC:
		p.lyc = value
		p.compareLYC()
	case addr.BGP:
		p.bgp = value
	case addr.OBP0:
		p.obp0 = value
	case addr.OBP1:
		p.obp1 = value
	case addr.WY:
		p.wy = value
	case addr.WX:
		p.wx = value
	case addr.VBK:
		if p.cgb {
			p.vbk = value & 0x01
		}
	case addr.BCPS:
		if p.cgb {
			p.bgPal.writeIndex(value)
		}
	case addr.BCPD:
		if p.cgb && !p.cramBlocked() {
			p.bgPal.writeData(value)
		}
	case addr.OCPS:
		if p.cgb {
			p.objPal.writeIndex(value)
		}
	case addr.OCPD:
		if p.cgb && !p.cramBlocked() {
			p.objPal.writeData(value)
		}
	case addr.OPRI:
		if p.cgb {
			p.opri = value & 0x01
		}
	}
}

// cramBlocked reports whether palette memory is held by the PPU.
func (p *PPU) cramBlocked() bool {
	return p.mode == ModePixelTransfer && bit.Test(7, p.lcdc)
}

// writeLCDC handles LCD enable transitions. Turning the LCD off
// resets the scanline counter and parks the PPU in HBlank; turning it
// on restarts from a fresh OAM scan.
func (p *PPU) writeLCDC(value uint8) {
	wasOn := bit.Test(7, p.lcdc)
	isOn := bit.Test(7, value)
	p.lcdc = value

	if wasOn && !isOn {
		p.ly = 0
		p.dots = 0
		p.windowLine = 0
		p.setMode(ModeHBlank)
		p.compareLYC()
	}
	if !wasOn && isOn {
		p.dots = 0
		p.setMode(ModeOAMScan)
		p.compareLYC()
	}
}

// State is the serializable PPU state.
type State struct {
	VRAM [2][0x2000]uint8
	OAM  [160]uint8

	LCDC, STAT, SCY, SCX, LY, LYC uint8
	BGP, OBP0, OBP1, WY, WX       uint8
	VBK, OPRI                     uint8

	BGPalette  [64]uint8
	OBJPalette [64]uint8
	BGPalIdx   uint8
	OBJPalIdx  uint8

	Mode       uint8
	Dots       int
	WindowLine int
	StatLine   bool
}

// State captures video memory and the register file.
func (p *PPU) State() State {
	return State{
		VRAM:       p.vram,
		OAM:        p.oam,
		LCDC:       p.lcdc,
		STAT:       p.stat,
		SCY:        p.scy,
		SCX:        p.scx,
		LY:         p.ly,
		LYC:        p.lyc,
		BGP:        p.bgp,
		OBP0:       p.obp0,
		OBP1:       p.obp1,
		WY:         p.wy,
		WX:         p.wx,
		VBK:        p.vbk,
		OPRI:       p.opri,
		BGPalette:  p.bgPal.data,
		OBJPalette: p.objPal.data,
		BGPalIdx:   p.bgPal.index,
		OBJPalIdx:  p.objPal.index,
		Mode:       uint8(p.mode),
		Dots:       p.dots,
		WindowLine: p.windowLine,
		StatLine:   p.statLine,
	}
}

// SetState restores captured video memory and registers.
func (p *PPU) SetState(s State) {
	p.vram = s.VRAM
	p.oam = s.OAM
	p.lcdc = s.LCDC
	p.stat = s.STAT
	p.scy = s.SCY
	p.scx = s.SCX
	p.ly = s.LY
	p.lyc = s.LYC
	p.bgp = s.BGP
	p.obp0 = s.OBP0
	p.obp1 = s.OBP1
	p.wy = s.WY
	p.wx = s.WX
	p.vbk = s.VBK
	p.opri = s.OPRI
	p.bgPal.data = s.BGPalette
	p.objPal.data = s.OBJPalette
	p.bgPal.index = s.BGPalIdx
	p.objPal.index = s.OBJPalIdx
	p.mode = Mode(s.Mode)
	p.dots = s.Dots
	p.windowLine = s.WindowLine
	p.statLine = s.StatLine
}
