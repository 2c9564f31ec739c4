// Package bits provides bit-level helpers for smart card payloads.
//
// Two numbering schemes coexist here, each following its source document:
//   - Byte helpers (Bit, IsSet, GetRange, Set) number bits 1 to 8 the way ISO 7816
//     tables do, bit 8 being the most significant.
//   - ReadBits addresses a whole buffer as a bit stream, offset 0 being the most
//     significant bit of byte 0. Transit formats are documented this way.
package bits

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet checks if the n-th bit is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// GetRange extracts the value held by bits high..low of b.
// Example: GetRange(0b00001100, 4, 3) returns 3 (0b11)
func GetRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}

	width := high - low + 1
	mask := byte((1 << width) - 1)

	return (b >> (low - 1)) & mask
}

// Set returns b with the n-th bit set.
func Set(b byte, n uint) byte {
	return b | Bit(n)
}
