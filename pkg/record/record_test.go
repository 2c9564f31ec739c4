package record

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/gregLibert/transit-card/pkg/tlv"
)

func sampleRecord() Record {
	var w Writer
	w.String("924620001234567890")
	w.Int(1500)
	w.Bool(true)
	w.Int(-1)
	w.Int(math.MaxInt64)
	w.Int(math.MinInt64)
	w.String("")
	w.Int(0)
	return w.Record()
}

func TestReader_Sequence(t *testing.T) {
	r := NewReader(sampleRecord())

	if got := r.String(); got != "924620001234567890" {
		t.Errorf("String() = %q", got)
	}
	if got := r.Int(); got != 1500 {
		t.Errorf("Int() = %d, want 1500", got)
	}
	if !r.Bool() {
		t.Error("Bool() = false, want true")
	}
	if got := r.Int(); got != -1 {
		t.Errorf("Int() = %d, want -1", got)
	}
	r.Int()
	r.Int()
	if r.Remaining() != 2 {
		t.Errorf("Remaining() = %d, want 2", r.Remaining())
	}
	if !errors.Is(r.Done(), ErrTrailingFields) {
		t.Errorf("Done() = %v, want ErrTrailingFields", r.Done())
	}
	r.String()
	r.Int()
	if err := r.Done(); err != nil {
		t.Errorf("Done() = %v, want nil", err)
	}
}

func TestReader_Errors(t *testing.T) {
	t.Run("Short record", func(t *testing.T) {
		r := NewReader(Record{Int(1)})
		r.Int()
		if got := r.Int(); got != 0 {
			t.Errorf("Int() past end = %d, want 0", got)
		}
		if !errors.Is(r.Err(), ErrShortRecord) {
			t.Errorf("Err() = %v, want ErrShortRecord", r.Err())
		}
	})

	t.Run("Kind mismatch is sticky", func(t *testing.T) {
		r := NewReader(Record{Int(1), String("x")})
		r.String()
		first := r.Err()
		if !errors.Is(first, ErrFieldKind) {
			t.Fatalf("Err() = %v, want ErrFieldKind", first)
		}
		r.Int()
		if r.Err() != first {
			t.Errorf("Err() changed from %v to %v", first, r.Err())
		}
	})

	t.Run("Count larger than record", func(t *testing.T) {
		r := NewReader(Record{Int(3), Int(1), Int(2)})
		if n := r.Count(1); n != 0 {
			t.Errorf("Count() = %d, want 0", n)
		}
		if !errors.Is(r.Err(), ErrShortRecord) {
			t.Errorf("Err() = %v, want ErrShortRecord", r.Err())
		}
	})

	t.Run("Negative count", func(t *testing.T) {
		r := NewReader(Record{Int(-1)})
		r.Count(1)
		if !errors.Is(r.Err(), ErrShortRecord) {
			t.Errorf("Err() = %v, want ErrShortRecord", r.Err())
		}
	})
}

func TestContainers_RoundTrip(t *testing.T) {
	containers := []struct {
		name   string
		encode func(Record) ([]byte, error)
		decode func([]byte) (Record, error)
	}{
		{
			name:   "BER-TLV",
			encode: Record.MarshalBinary,
			decode: func(b []byte) (Record, error) {
				var r Record
				err := r.UnmarshalBinary(b)
				return r, err
			},
		},
		{
			name:   "CBOR",
			encode: Record.MarshalCBOR,
			decode: func(b []byte) (Record, error) {
				var r Record
				err := r.UnmarshalCBOR(b)
				return r, err
			},
		},
	}

	records := map[string]Record{
		"Sample": sampleRecord(),
		"Empty":  {},
	}

	for _, c := range containers {
		for name, want := range records {
			t.Run(c.name+"/"+name, func(t *testing.T) {
				raw, err := c.encode(want)
				if err != nil {
					t.Fatalf("encode failed: %v", err)
				}
				got, err := c.decode(raw)
				if err != nil {
					t.Fatalf("decode failed: %v", err)
				}
				if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
					t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestMarshalBinary_Layout(t *testing.T) {
	got, err := Record{String("AB"), Int(0), Int(127), Int(128), Int(-129)}.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	want := tlv.Hex(
		"30 12",
		"   0C 02 4142",
		"   02 01 00",
		"   02 01 7F",
		"   02 02 0080",
		"   02 02 FF7F",
	)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Layout mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshal_Errors(t *testing.T) {
	t.Run("BER-TLV not a sequence", func(t *testing.T) {
		var r Record
		if err := r.UnmarshalBinary(tlv.Hex("02 01 00")); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("BER-TLV unknown field tag", func(t *testing.T) {
		var r Record
		err := r.UnmarshalBinary(tlv.Hex("30 03 04 01 00"))
		if !errors.Is(err, ErrFieldKind) {
			t.Errorf("UnmarshalBinary() = %v, want ErrFieldKind", err)
		}
	})

	t.Run("BER-TLV oversized integer", func(t *testing.T) {
		var r Record
		if err := r.UnmarshalBinary(tlv.Hex("30 0B 02 09 010203040506070809")); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("CBOR non scalar element", func(t *testing.T) {
		var r Record
		// [[1]]
		err := r.UnmarshalCBOR(tlv.Hex("81 81 01"))
		if !errors.Is(err, ErrFieldKind) {
			t.Errorf("UnmarshalCBOR() = %v, want ErrFieldKind", err)
		}
	})
}
