package bits

import (
	"errors"
	"fmt"
)

// MaxFieldLength is the widest field ReadBits accepts. Keeping one bit of
// headroom lets callers convert results to int64 without overflow.
const MaxFieldLength = 63

// ErrOutOfRange is returned when a field does not fit in the buffer.
var ErrOutOfRange = errors.New("bit field out of range")

// RangeError describes a field read that fell outside its buffer.
type RangeError struct {
	Offset uint
	Length uint
	Size   int // buffer size in bytes
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: bits [%d, %d) in a %d-bit buffer",
		ErrOutOfRange, e.Offset, e.Offset+e.Length, e.Size*8)
}

// Is reports whether target is ErrOutOfRange.
func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// CheckRange verifies that length bits starting at offset lie inside buf.
func CheckRange(buf []byte, offset, length uint) error {
	total := uint64(len(buf)) * 8
	if uint64(length) > total || uint64(offset) > total-uint64(length) {
		return &RangeError{Offset: offset, Length: length, Size: len(buf)}
	}
	return nil
}

// ReadBits extracts an unsigned big-endian field of length bits starting at
// the given bit offset. Offset 0 is the most significant bit of buf[0].
//
// A zero length yields 0. Lengths above MaxFieldLength and fields crossing the
// end of buf fail with an error matching ErrOutOfRange.
func ReadBits(buf []byte, offset, length uint) (uint64, error) {
	if length > MaxFieldLength {
		return 0, &RangeError{Offset: offset, Length: length, Size: len(buf)}
	}
	if err := CheckRange(buf, offset, length); err != nil {
		return 0, err
	}

	var v uint64
	for i := offset; i < offset+length; i++ {
		bit := (buf[i/8] >> (7 - i%8)) & 1
		v = v<<1 | uint64(bit)
	}
	return v, nil
}
