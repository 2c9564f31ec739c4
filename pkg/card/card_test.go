package card

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/transit-card/pkg/tlv"
)

func mustApp(t *testing.T, id uint32, files ...*File) *Application {
	t.Helper()
	app, err := NewApplication(id, files...)
	if err != nil {
		t.Fatalf("NewApplication(%06X) failed: %v", id, err)
	}
	return app
}

func sampleCard(t *testing.T) *Card {
	t.Helper()
	c, err := New(TypeDESFire, tlv.Hex("04 5A 1B 2C 3D 4E 80"), time.UnixMilli(1700000000123).UTC(),
		mustApp(t, 0x1120EF,
			NewStandardFile(0x08, tlv.Hex("00 92 46 20 00 12 34 56 78 90 00")),
			NewRecordFile(0x04, [][]byte{tlv.Hex("AABB"), tlv.Hex("CCDD")}),
		),
		mustApp(t, 0x000001),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	app := func(id uint32) *Application { return mustApp(t, id) }

	tests := []struct {
		name    string
		apps    []*Application
		wantErr string
	}{
		{name: "No applications"},
		{name: "Distinct IDs", apps: []*Application{app(1), app(2)}},
		{name: "Duplicate IDs", apps: []*Application{app(1), app(1)}, wantErr: "duplicate"},
		{name: "ID over 24 bits", apps: []*Application{app(0x1000000)}, wantErr: "24 bits"},
		{name: "Nil application", apps: []*Application{nil}, wantErr: "nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(TypeDESFire, nil, time.Time{}, tt.apps...)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("New() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewApplication_DuplicateFile(t *testing.T) {
	_, err := NewApplication(1, NewStandardFile(1, nil), NewRecordFile(1, nil))
	if err == nil || !strings.Contains(err.Error(), "duplicate file ID 01") {
		t.Errorf("NewApplication() error = %v, want duplicate file error", err)
	}
}

func TestCard_Lookups(t *testing.T) {
	c := sampleCard(t)

	if c.Serial() != "045A1B2C3D4E80" {
		t.Errorf("Serial() = %s, want 045A1B2C3D4E80", c.Serial())
	}
	if !c.HasApplication(0x1120EF) || c.HasApplication(0x1120EE) {
		t.Error("HasApplication() gives wrong answers")
	}

	t.Run("Missing application", func(t *testing.T) {
		_, err := c.Application(0x123456)
		if !errors.Is(err, ErrMissingApplication) {
			t.Errorf("Application() error = %v, want ErrMissingApplication", err)
		}
		_, err = c.File(0x123456, 1)
		if !errors.Is(err, ErrMissingApplication) {
			t.Errorf("File() error = %v, want ErrMissingApplication", err)
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := c.File(0x1120EF, 0x02)
		if !errors.Is(err, ErrMissingFile) {
			t.Errorf("File() error = %v, want ErrMissingFile", err)
		}
		if !strings.Contains(err.Error(), "1120EF") {
			t.Errorf("File() error %q should name the application", err)
		}
	})

	t.Run("Standard file", func(t *testing.T) {
		f, err := c.File(0x1120EF, 0x08)
		if err != nil {
			t.Fatalf("File() failed: %v", err)
		}
		if f.Kind() != KindStandard || len(f.Data()) != 11 {
			t.Errorf("File 08 = %s with %d bytes, want Standard with 11", f.Kind(), len(f.Data()))
		}
		if _, err := f.Records(); !errors.Is(err, ErrNotRecordFile) {
			t.Errorf("Records() on standard file error = %v, want ErrNotRecordFile", err)
		}
	})

	t.Run("Record file", func(t *testing.T) {
		f, err := c.File(0x1120EF, 0x04)
		if err != nil {
			t.Fatalf("File() failed: %v", err)
		}
		records, err := f.Records()
		if err != nil {
			t.Fatalf("Records() failed: %v", err)
		}
		if diff := cmp.Diff([][]byte{{0xAA, 0xBB}, {0xCC, 0xDD}}, records); diff != "" {
			t.Errorf("Records() mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(tlv.Hex("AABBCCDD"), f.Data()); diff != "" {
			t.Errorf("Data() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestCard_Immutable(t *testing.T) {
	tagID := tlv.Hex("01 02 03 04")
	payload := tlv.Hex("DEADBEEF")
	record := tlv.Hex("CAFE")

	c, err := New(TypeDESFire, tagID, time.Time{},
		mustApp(t, 1, NewStandardFile(1, payload), NewRecordFile(2, [][]byte{record})))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tagID[0], payload[0], record[0] = 0xFF, 0xFF, 0xFF

	f, _ := c.File(1, 1)
	got := f.Data()
	got[1] = 0xFF

	if c.Serial() != "01020304" {
		t.Errorf("tag ID changed through caller slice: %s", c.Serial())
	}
	if diff := cmp.Diff(tlv.Hex("DEADBEEF"), f.Data()); diff != "" {
		t.Errorf("payload changed through caller slice (-want +got):\n%s", diff)
	}
	rf, _ := c.File(1, 2)
	records, _ := rf.Records()
	if diff := cmp.Diff([][]byte{tlv.Hex("CAFE")}, records); diff != "" {
		t.Errorf("record changed through caller slice (-want +got):\n%s", diff)
	}
}

func TestCard_Describe(t *testing.T) {
	report := sampleCard(t).Describe()

	want := []string{
		"=== CARD DUMP ===",
		"    + Type:    MifareDesfire",
		"    + Tag ID:  045A1B2C3D4E80",
		"    + Scanned: 2023-11-14 22:13:20 UTC",
		"[App 1120EF] 2 file(s)",
		"    - File[08] Standard (11 bytes): 0092462000123456789000",
		`      ASCII: "..F ..4Vx.."`,
		"    - File[04] Record (2 records)",
		"      #1: AABB",
		"      #2: CCDD",
		"[App 000001] 0 file(s)",
	}

	if diff := cmp.Diff(want, strings.Split(report, "\n")); diff != "" {
		t.Errorf("Describe mismatch (-want +got):\n%s", diff)
	}
}
