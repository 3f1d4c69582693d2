package video

import (
	"github.com/averna/dotmatrix/dotmatrix/addr"
	"github.com/averna/dotmatrix/dotmatrix/bit"
)

// renderScanline composes one line into the framebuffer: background,
// then window, then sprites. It runs once per line, when pixel
// transfer completes.
func (p *PPU) renderScanline() {
	line := int(p.ly)

	// color index and CGB tile priority per pixel, consulted by the
	// sprite pass
	var index [FramebufferWidth]uint8
	var priority [FramebufferWidth]bool

	// on CGB, LCDC bit 0 only demotes background priority; the
	// background itself always draws
	if p.cgb || bit.Test(0, p.lcdc) {
		p.renderBackground(line, &index, &priority)
		if p.windowVisible(line) {
			p.renderWindow(line, &index, &priority)
			p.windowLine++
		}
	} else {
		for x := 0; x < FramebufferWidth; x++ {
			p.fb.SetPixel(x, line, dmgShades[0])
		}
	}

	if bit.Test(1, p.lcdc) {
		p.renderSprites(line, &index, &priority)
	}
}

func (p *PPU) windowVisible(line int) bool {
	return bit.Test(5, p.lcdc) && int(p.wy) <= line && p.wx <= 166
}

func (p *PPU) renderBackground(line int, index *[FramebufferWidth]uint8, priority *[FramebufferWidth]bool) {
	mapBase := p.tileMapBase(bit.Test(3, p.lcdc))

	y := uint8(line) + p.scy
	mapRow := uint16(y/8) * 32

	for x := 0; x < FramebufferWidth; x++ {
		bx := uint8(x) + p.scx
		mapOffset := mapBase + mapRow + uint16(bx/8)
		p.drawTilePixel(x, line, mapOffset, int(y%8), int(bx%8), index, priority)
	}
}

func (p *PPU) renderWindow(line int, index *[FramebufferWidth]uint8, priority *[FramebufferWidth]bool) {
	mapBase := p.tileMapBase(bit.Test(6, p.lcdc))

	// the window keeps its own line counter so that hiding it
	// mid-frame does not skip rows
	y := uint8(p.windowLine)
	mapRow := uint16(y/8) * 32

	startX := int(p.wx) - 7
	for x := max(startX, 0); x < FramebufferWidth; x++ {
		wx := uint8(x - startX)
		mapOffset := mapBase + mapRow + uint16(wx/8)
		p.drawTilePixel(x, line, mapOffset, int(y%8), int(wx%8), index, priority)
	}
}

// drawTilePixel resolves one background or window pixel through the
// tile map entry at mapOffset and writes it out.
func (p *PPU) drawTilePixel(x, line int, mapOffset uint16, row, col int, index *[FramebufferWidth]uint8, priority *[FramebufferWidth]bool) {
	tileNum := p.vram[0][mapOffset]

	var attrs uint8
	if p.cgb {
		attrs = p.vram[1][mapOffset]
	}
	if bit.Test(6, attrs) {
		row = 7 - row
	}

	tr := p.fetchBGTileRow(attrs>>3&0x01, tileNum, row)
	ci := tr.pixel(col, bit.Test(5, attrs))

	index[x] = ci
	priority[x] = bit.Test(7, attrs)

	if p.cgb {
		p.fb.SetPixel(x, line, p.bgPal.color(attrs&0x07, ci))
	} else {
		p.fb.SetPixel(x, line, dmgColor(p.bgp, ci))
	}
}

func (p *PPU) tileMapBase(high bool) uint16 {
	if high {
		return addr.TileMap1 - addr.VRAMStart
	}
	return addr.TileMap0 - addr.VRAMStart
}

// fetchBGTileRow reads two bytes of tile data using the addressing
// mode from LCDC bit 4: unsigned from 0x8000 or signed from 0x9000.
func (p *PPU) fetchBGTileRow(bank, tileNum uint8, row int) tileRow {
	var offset int
	if bit.Test(4, p.lcdc) {
		offset = int(tileNum) * 16
	} else {
		offset = 0x1000 + int(int8(tileNum))*16
	}
	offset += row * 2
	return tileRow{low: p.vram[bank][offset], high: p.vram[bank][offset+1]}
}

func (p *PPU) renderSprites(line int, index *[FramebufferWidth]uint8, priority *[FramebufferWidth]bool) {
	// DMG orders sprites by X; CGB uses OAM order unless OPRI
	// requests the old behavior
	byX := !p.cgb || p.opri&0x01 == 1
	sl := p.collectSprites(line, byX)
	if sl.count == 0 {
		return
	}

	height := 8
	if bit.Test(2, p.lcdc) {
		height = 16
	}
	// on CGB a cleared LCDC bit 0 lifts every sprite above the
	// background regardless of the per-tile and per-sprite flags
	bgHoldsPriority := bit.Test(0, p.lcdc)

	for x := 0; x < FramebufferWidth; x++ {
		owner := sl.owner[x]
		if owner == -1 {
			continue
		}
		s := sl.sprites[owner]

		row := line - s.y
		if s.flipY() {
			row = height - 1 - row
		}
		tile := s.tile
		if height == 16 {
			// rows 8-15 fall through into the adjacent tile
			tile &= 0xFE
		}

		var bank uint8
		if p.cgb {
			bank = s.vramBank()
		}
		offset := int(tile)*16 + row*2
		tr := tileRow{low: p.vram[bank][offset], high: p.vram[bank][offset+1]}

		ci := tr.pixel(x-s.x, s.flipX())
		if ci == 0 {
			continue
		}

		if p.cgb {
			if bgHoldsPriority && index[x] != 0 && (priority[x] || s.behindBG()) {
				continue
			}
			p.fb.SetPixel(x, line, p.objPal.color(s.cgbPalette(), ci))
			continue
		}

		if s.behindBG() && index[x] != 0 {
			continue
		}
		palette := p.obp0
		if s.dmgOBP1() {
			palette = p.obp1
		}
		p.fb.SetPixel(x, line, dmgColor(palette, ci))
	}
}
