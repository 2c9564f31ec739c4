// Package record implements the flat, ordered field sequence used to persist
// and transmit decoded transit data.
//
// A Record carries no field names: its meaning comes entirely from the order
// in which an operator writes and reads fields. Writers and readers for one
// layout must therefore stay in lock step.
package record

import (
	"errors"
	"fmt"
)

var (
	// ErrShortRecord is returned when a read runs past the last field.
	ErrShortRecord = errors.New("record exhausted")
	// ErrFieldKind is returned when a field has a different kind than requested.
	ErrFieldKind = errors.New("unexpected field kind")
	// ErrTrailingFields is returned when a layout leaves fields unread.
	ErrTrailingFields = errors.New("unread trailing fields")
)

// Kind is the type of a field value.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Field is one value of a record.
type Field struct {
	Kind Kind
	Int  int64
	Str  string
}

// Int returns an integer field.
func Int(v int64) Field { return Field{Kind: KindInt, Int: v} }

// String returns a string field.
func String(v string) Field { return Field{Kind: KindString, Str: v} }

// Record is an ordered sequence of fields.
type Record []Field

// Writer appends fields to a record.
type Writer struct {
	rec Record
}

// String appends a string field.
func (w *Writer) String(v string) { w.rec = append(w.rec, String(v)) }

// Int appends an integer field.
func (w *Writer) Int(v int64) { w.rec = append(w.rec, Int(v)) }

// Bool appends a boolean as the integer 0 or 1.
func (w *Writer) Bool(v bool) {
	if v {
		w.Int(1)
		return
	}
	w.Int(0)
}

// Record returns the fields written so far.
func (w *Writer) Record() Record {
	return append(Record(nil), w.rec...)
}

// Reader consumes a record field by field.
//
// The first failure is sticky: later reads return zero values and Err keeps
// reporting the original error, so a layout can be read straight through and
// checked once at the end.
type Reader struct {
	rec Record
	pos int
	err error
}

// NewReader returns a Reader positioned on the first field of r.
func NewReader(r Record) *Reader {
	return &Reader{rec: r}
}

func (r *Reader) next(kind Kind) (Field, bool) {
	if r.err != nil {
		return Field{}, false
	}
	if r.pos >= len(r.rec) {
		r.err = fmt.Errorf("%w: field %d of %d", ErrShortRecord, r.pos, len(r.rec))
		return Field{}, false
	}
	f := r.rec[r.pos]
	if f.Kind != kind {
		r.err = fmt.Errorf("%w: field %d is %s, want %s", ErrFieldKind, r.pos, f.Kind, kind)
		return Field{}, false
	}
	r.pos++
	return f, true
}

// String reads a string field.
func (r *Reader) String() string {
	f, _ := r.next(KindString)
	return f.Str
}

// Int reads an integer field.
func (r *Reader) Int() int64 {
	f, _ := r.next(KindInt)
	return f.Int
}

// Bool reads an integer field as a boolean; any value other than 0 is true.
func (r *Reader) Bool() bool {
	return r.Int() != 0
}

// Count reads an integer field used as an element count and checks it
// against the number of fields left, each element taking perElement fields.
func (r *Reader) Count(perElement int) int {
	n := r.Int()
	if r.err != nil {
		return 0
	}
	if n < 0 || (perElement > 0 && n > int64(r.Remaining()/perElement)) {
		r.err = fmt.Errorf("%w: count %d at field %d exceeds remaining %d fields",
			ErrShortRecord, n, r.pos-1, r.Remaining())
		return 0
	}
	return int(n)
}

// Remaining returns the number of unread fields.
func (r *Reader) Remaining() int {
	return len(r.rec) - r.pos
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}

// Done returns Err, or ErrTrailingFields when fields are left unread.
func (r *Reader) Done() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != len(r.rec) {
		return fmt.Errorf("%w: %d", ErrTrailingFields, len(r.rec)-r.pos)
	}
	return nil
}
