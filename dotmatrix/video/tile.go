package video

import "github.com/averna/dotmatrix/dotmatrix/bit"

// tileRow is one row of a tile pattern in the two byte bit-plane
// format: the low byte provides bit 0 of each pixel's color index, the
// high byte bit 1. Bit 7 is the leftmost pixel.
type tileRow struct {
	low  uint8
	high uint8
}

// pixel returns the color index (0-3) at x, optionally mirrored.
func (t tileRow) pixel(x int, flip bool) uint8 {
	index := uint8(7 - x)
	if flip {
		index = uint8(x)
	}

	var color uint8
	if bit.Test(index, t.low) {
		color |= 1
	}
	if bit.Test(index, t.high) {
		color |= 2
	}
	return color
}
