package video

import "github.com/averna/dotmatrix/dotmatrix/bit"

// sprite is one OAM entry selected for the current scanline, with the
// hardware position offsets already removed.
type sprite struct {
	y        int
	x        int
	tile     uint8
	flags    uint8
	oamIndex int
}

func (s sprite) behindBG() bool    { return bit.Test(7, s.flags) }
func (s sprite) flipY() bool       { return bit.Test(6, s.flags) }
func (s sprite) flipX() bool       { return bit.Test(5, s.flags) }
func (s sprite) dmgOBP1() bool     { return bit.Test(4, s.flags) }
func (s sprite) vramBank() uint8   { return s.flags >> 3 & 0x01 }
func (s sprite) cgbPalette() uint8 { return s.flags & 0x07 }

// spriteLine holds the up-to-10 sprites selected for a scanline and a
// per-pixel ownership table that resolves sprite-to-sprite priority.
// A pixel is drawn from a sprite only if that sprite owns it; transparent
// sprite pixels still own their slot, matching hardware.
type spriteLine struct {
	sprites [10]sprite
	count   int
	owner   [FramebufferWidth]int
}

// collectSprites scans OAM in order and selects the first ten sprites
// overlapping the scanline, then resolves per-pixel ownership.
//
// With byX set (DMG behavior, or CGB with OPRI bit 0), a sprite with a
// lower X coordinate steals pixels from a later claimant; ties keep the
// earlier OAM entry. Without it (CGB default) OAM order alone decides,
// so the first claimant always keeps the pixel.
func (p *PPU) collectSprites(line int, byX bool) *spriteLine {
	sl := &p.spriteScratch
	sl.count = 0
	for i := range sl.owner {
		sl.owner[i] = -1
	}

	height := 8
	if bit.Test(2, p.lcdc) {
		height = 16
	}

	for i := 0; i < 40 && sl.count < 10; i++ {
		base := i * 4
		y := int(p.oam[base]) - 16
		if line < y || line >= y+height {
			continue
		}

		s := sprite{
			y:        y,
			x:        int(p.oam[base+1]) - 8,
			tile:     p.oam[base+2],
			flags:    p.oam[base+3],
			oamIndex: i,
		}
		index := sl.count
		sl.sprites[index] = s
		sl.count++

		for px := 0; px < 8; px++ {
			x := s.x + px
			if x < 0 || x >= FramebufferWidth {
				continue
			}
			current := sl.owner[x]
			if current == -1 {
				sl.owner[x] = index
				continue
			}
			if byX && s.x < sl.sprites[current].x {
				sl.owner[x] = index
			}
		}
	}

	return sl
}
