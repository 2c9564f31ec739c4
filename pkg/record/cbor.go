package record

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR encoding/decoding modes
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder: %v", err))
	}

	// Integers always come back as int64, whatever their sign.
	decMode, err = cbor.DecOptions{
		IntDec: cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder: %v", err))
	}
}

// MarshalCBOR encodes the record as a CBOR array of integers and text strings.
func (r Record) MarshalCBOR() ([]byte, error) {
	values := make([]interface{}, len(r))
	for i, f := range r {
		switch f.Kind {
		case KindInt:
			values[i] = f.Int
		case KindString:
			values[i] = f.Str
		default:
			return nil, fmt.Errorf("field %d: %w: %s", i, ErrFieldKind, f.Kind)
		}
	}
	return encMode.Marshal(values)
}

// UnmarshalCBOR decodes a CBOR array produced by MarshalCBOR.
func (r *Record) UnmarshalCBOR(data []byte) error {
	var values []interface{}
	if err := decMode.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("CBOR decode failed: %w", err)
	}

	out := make(Record, 0, len(values))
	for i, v := range values {
		switch tv := v.(type) {
		case int64:
			out = append(out, Int(tv))
		case string:
			out = append(out, String(tv))
		default:
			return fmt.Errorf("field %d: %w: %T", i, ErrFieldKind, v)
		}
	}

	*r = out
	return nil
}
