package card

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/transit-card/pkg/tlv"
)

func TestDump_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		card func(t *testing.T) *Card
	}{
		{
			name: "DESFire with standard and record files",
			card: sampleCard,
		},
		{
			name: "Empty files and records",
			card: func(t *testing.T) *Card {
				c, err := New(TypeDESFire, tlv.Hex("0102"), time.UnixMilli(0).UTC(),
					mustApp(t, 0xFFFFFF,
						NewStandardFile(0x00, nil),
						NewRecordFile(0x01, nil),
						NewRecordFile(0x02, [][]byte{nil, tlv.Hex("01")}),
					))
				if err != nil {
					t.Fatal(err)
				}
				return c
			},
		},
		{
			name: "Card without applications",
			card: func(t *testing.T) *Card {
				c, err := New(TypeMifareUltralight, tlv.Hex("04112233445566"), time.Time{})
				if err != nil {
					t.Fatal(err)
				}
				return c
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := tt.card(t)

			raw, err := want.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary failed: %v", err)
			}

			got, err := UnmarshalDump(raw)
			if err != nil {
				t.Fatalf("UnmarshalDump failed: %v", err)
			}

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Round trip mismatch (-want +got):\n%s\n%s\n%s", diff, want.Describe(), got.Describe())
			}
		})
	}
}

func TestDump_Layout(t *testing.T) {
	c, err := New(TypeDESFire, tlv.Hex("AB"), time.UnixMilli(1).UTC(),
		mustApp(t, 0x1120EF, NewStandardFile(0x02, tlv.Hex("0102"))))
	if err != nil {
		t.Fatal(err)
	}

	got, err := c.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	want := tlv.Hex(
		"E0 23",
		"   80 01 03",
		"   81 01 AB",
		"   82 08 0000000000000001",
		"   E1 11",
		"      83 03 1120EF",
		"      E2 0A",
		"         84 01 02",
		"         85 01 00",
		"         86 02 0102",
	)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Layout mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalDump_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr string
	}{
		{"Empty", nil, "empty"},
		{"Wrong template", tlv.Hex("E1 03 83 01 01"), "Card Template"},
		{"Truncated", tlv.Hex("E0 05 80 01"), "decode"},
		{"Unknown file kind", tlv.Hex("E0 0F E1 0D 83 03 000001 E2 06 84 01 01 85 01 07"), "unknown file kind"},
		{"Duplicate applications", tlv.Hex("E0 0A E1 03 83 01 01 E1 03 83 01 01"), "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalDump(tt.data)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("UnmarshalDump() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
