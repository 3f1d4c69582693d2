// Package bit holds small helpers for the byte/word twiddling the
// emulator does everywhere.
package bit

// Join combines a high and a low byte into a 16 bit word.
func Join(high, low uint8) uint16 {
	return uint16(high)<<8 | uint16(low)
}

// High returns the most significant byte of a word.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// Low returns the least significant byte of a word.
func Low(value uint16) uint8 {
	return uint8(value)
}

// Test reports whether the bit at index is set.
func Test(index, value uint8) bool {
	return value>>index&1 == 1
}

// Test16 reports whether the bit at index is set in a 16 bit word.
func Test16(index uint, value uint16) bool {
	return value>>index&1 == 1
}

// Set returns value with the bit at index set to 1.
func Set(index, value uint8) uint8 {
	return value | 1<<index
}

// Clear returns value with the bit at index set to 0.
func Clear(index, value uint8) uint8 {
	return value &^ (1 << index)
}

// Field extracts the bits from high down to low, inclusive.
// Field(0b1101_0110, 6, 4) == 0b101.
func Field(value, high, low uint8) uint8 {
	width := high - low + 1
	return value >> low & (1<<width - 1)
}
