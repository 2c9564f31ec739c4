package record

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"
)

// BINARY CONTAINER:
// A record is stored as one BER-TLV SEQUENCE (tag 30) whose children keep the
// field order:
//   - 02 INTEGER: two's complement, minimal length (1 to 8 bytes)
//   - 0C UTF8String: the string bytes
const (
	tagSequence = "30"
	tagInteger  = "02"
	tagString   = "0C"
)

// MarshalBinary encodes the record as a BER-TLV sequence.
func (r Record) MarshalBinary() ([]byte, error) {
	children := make([]bertlv.TLV, 0, len(r))
	for i, f := range r {
		switch f.Kind {
		case KindInt:
			children = append(children, bertlv.TLV{Tag: tagInteger, Value: encodeInteger(f.Int)})
		case KindString:
			children = append(children, bertlv.TLV{Tag: tagString, Value: []byte(f.Str)})
		default:
			return nil, fmt.Errorf("field %d: %w: %s", i, ErrFieldKind, f.Kind)
		}
	}

	data, err := bertlv.Encode([]bertlv.TLV{{Tag: tagSequence, TLVs: children}})
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

// UnmarshalBinary decodes a BER-TLV sequence produced by MarshalBinary.
func (r *Record) UnmarshalBinary(data []byte) error {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return fmt.Errorf("BER-TLV decode failed: %w", err)
	}
	if len(packets) != 1 || !strings.EqualFold(packets[0].Tag, tagSequence) {
		return fmt.Errorf("record must be a single SEQUENCE (Tag %s)", tagSequence)
	}

	out := make(Record, 0, len(packets[0].TLVs))
	for i, p := range packets[0].TLVs {
		switch strings.ToUpper(p.Tag) {
		case tagInteger:
			v, err := decodeInteger(p.Value)
			if err != nil {
				return fmt.Errorf("field %d: %w", i, err)
			}
			out = append(out, Int(v))
		case tagString:
			out = append(out, String(string(p.Value)))
		default:
			return fmt.Errorf("field %d: %w: tag %s", i, ErrFieldKind, p.Tag)
		}
	}

	*r = out
	return nil
}

func encodeInteger(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))

	// Drop leading bytes that only repeat the sign bit.
	for len(b) > 1 {
		if (b[0] == 0x00 && b[1]&0x80 == 0) || (b[0] == 0xFF && b[1]&0x80 != 0) {
			b = b[1:]
			continue
		}
		break
	}
	return b
}

func decodeInteger(b []byte) (int64, error) {
	if len(b) == 0 || len(b) > 8 {
		return 0, fmt.Errorf("invalid INTEGER length %d", len(b))
	}
	v := int64(int8(b[0]))
	for _, c := range b[1:] {
		v = v<<8 | int64(c)
	}
	return v, nil
}
