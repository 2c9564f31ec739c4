// Package card holds the in-memory model of a scanned contactless card: an
// ordered set of applications, each holding files with raw byte payloads.
//
// A Card is built once from reader output and never mutated afterwards.
// Constructors copy their inputs and accessors return copies, so a Card can be
// shared between goroutines without synchronisation.
package card

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxApplicationID is the largest application ID (24 bits).
const MaxApplicationID = 0xFFFFFF

var (
	// ErrMissingApplication is returned when a card has no application with the requested ID.
	ErrMissingApplication = errors.New("application not found")
	// ErrMissingFile is returned when an application has no file with the requested ID.
	ErrMissingFile = errors.New("file not found")
	// ErrNotRecordFile is returned when records are requested from a fixed file.
	ErrNotRecordFile = errors.New("not a record file")
)

// Type identifies the card family reported by the reader.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeMifareClassic
	TypeMifareUltralight
	TypeDESFire
	TypeCEPAS
	TypeFeliCa
)

func (t Type) String() string {
	switch t {
	case TypeMifareClassic:
		return "MifareClassic"
	case TypeMifareUltralight:
		return "MifareUltralight"
	case TypeDESFire:
		return "MifareDesfire"
	case TypeCEPAS:
		return "CEPAS"
	case TypeFeliCa:
		return "FeliCa"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Card is a scanned card.
type Card struct {
	typ          Type
	tagID        []byte
	scannedAt    time.Time
	applications []*Application
}

// New builds a Card. Application IDs must be unique and fit in 24 bits.
func New(typ Type, tagID []byte, scannedAt time.Time, apps ...*Application) (*Card, error) {
	seen := make(map[uint32]bool, len(apps))
	for _, app := range apps {
		if app == nil {
			return nil, fmt.Errorf("nil application")
		}
		if app.id > MaxApplicationID {
			return nil, fmt.Errorf("application ID %#x exceeds 24 bits", app.id)
		}
		if seen[app.id] {
			return nil, fmt.Errorf("duplicate application ID %06X", app.id)
		}
		seen[app.id] = true
	}

	return &Card{
		typ:          typ,
		tagID:        cloneBytes(tagID),
		scannedAt:    scannedAt,
		applications: append([]*Application(nil), apps...),
	}, nil
}

// Type returns the card family.
func (c *Card) Type() Type { return c.typ }

// TagID returns the raw tag identifier (UID).
func (c *Card) TagID() []byte { return cloneBytes(c.tagID) }

// Serial returns the tag identifier as upper-case hex.
func (c *Card) Serial() string { return strings.ToUpper(hex.EncodeToString(c.tagID)) }

// ScannedAt returns the time the card was read.
func (c *Card) ScannedAt() time.Time { return c.scannedAt }

// Applications returns the applications in the order they were read.
func (c *Card) Applications() []*Application {
	return append([]*Application(nil), c.applications...)
}

// Application returns the application with the given ID.
func (c *Card) Application(id uint32) (*Application, error) {
	for _, app := range c.applications {
		if app.id == id {
			return app, nil
		}
	}
	return nil, fmt.Errorf("%w: %06X", ErrMissingApplication, id)
}

// HasApplication reports whether the card exposes the given application.
func (c *Card) HasApplication(id uint32) bool {
	_, err := c.Application(id)
	return err == nil
}

// File returns file fileID of application appID.
func (c *Card) File(appID uint32, fileID byte) (*File, error) {
	app, err := c.Application(appID)
	if err != nil {
		return nil, err
	}
	f, err := app.File(fileID)
	if err != nil {
		return nil, fmt.Errorf("application %06X: %w", appID, err)
	}
	return f, nil
}

// Application is a partition of the card file system.
type Application struct {
	id    uint32
	files []*File
}

// NewApplication builds an Application. File IDs must be unique.
func NewApplication(id uint32, files ...*File) (*Application, error) {
	seen := make(map[byte]bool, len(files))
	for _, f := range files {
		if f == nil {
			return nil, fmt.Errorf("application %06X: nil file", id)
		}
		if seen[f.id] {
			return nil, fmt.Errorf("application %06X: duplicate file ID %02X", id, f.id)
		}
		seen[f.id] = true
	}
	return &Application{id: id, files: append([]*File(nil), files...)}, nil
}

// ID returns the application identifier.
func (a *Application) ID() uint32 { return a.id }

// Files returns the files in the order they were read.
func (a *Application) Files() []*File {
	return append([]*File(nil), a.files...)
}

// File returns the file with the given ID.
func (a *Application) File(id byte) (*File, error) {
	for _, f := range a.files {
		if f.id == id {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %02X", ErrMissingFile, id)
}

// FileKind distinguishes single-payload files from record files.
type FileKind uint8

const (
	// KindStandard files hold one opaque payload.
	KindStandard FileKind = iota
	// KindRecord files hold a sequence of same-shaped records.
	KindRecord
)

func (k FileKind) String() string {
	switch k {
	case KindStandard:
		return "Standard"
	case KindRecord:
		return "Record"
	default:
		return fmt.Sprintf("FileKind(%d)", uint8(k))
	}
}

// File is either a standard file (one payload) or a record file.
type File struct {
	id      byte
	kind    FileKind
	data    []byte
	records [][]byte
}

// NewStandardFile builds a file holding a single payload.
func NewStandardFile(id byte, data []byte) *File {
	return &File{id: id, kind: KindStandard, data: cloneBytes(data)}
}

// NewRecordFile builds a file holding the given records, oldest first as read.
func NewRecordFile(id byte, records [][]byte) *File {
	f := &File{id: id, kind: KindRecord}
	for _, r := range records {
		f.records = append(f.records, cloneBytes(r))
	}
	return f
}

// ID returns the file identifier.
func (f *File) ID() byte { return f.id }

// Kind returns the file kind.
func (f *File) Kind() FileKind { return f.kind }

// Data returns the payload of a standard file. For a record file it returns
// the concatenation of all records.
func (f *File) Data() []byte {
	if f.kind == KindRecord {
		var out []byte
		for _, r := range f.records {
			out = append(out, r...)
		}
		return out
	}
	return cloneBytes(f.data)
}

// Records returns the records of a record file.
func (f *File) Records() ([][]byte, error) {
	if f.kind != KindRecord {
		return nil, fmt.Errorf("file %02X: %w", f.id, ErrNotRecordFile)
	}
	out := make([][]byte, len(f.records))
	for i, r := range f.records {
		out[i] = cloneBytes(r)
	}
	return out, nil
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
