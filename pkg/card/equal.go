package card

import "bytes"

// Equal reports whether two cards hold the same identity and contents.
// Applications and files must appear in the same order.
func (c *Card) Equal(o *Card) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.typ != o.typ || !bytes.Equal(c.tagID, o.tagID) || !c.scannedAt.Equal(o.scannedAt) {
		return false
	}
	if len(c.applications) != len(o.applications) {
		return false
	}
	for i := range c.applications {
		if !c.applications[i].Equal(o.applications[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two applications hold the same files in the same order.
func (a *Application) Equal(o *Application) bool {
	if a == nil || o == nil {
		return a == o
	}
	if a.id != o.id || len(a.files) != len(o.files) {
		return false
	}
	for i := range a.files {
		if !a.files[i].Equal(o.files[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two files have the same ID, kind and payload.
func (f *File) Equal(o *File) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.id != o.id || f.kind != o.kind || !bytes.Equal(f.data, o.data) {
		return false
	}
	if len(f.records) != len(o.records) {
		return false
	}
	for i := range f.records {
		if !bytes.Equal(f.records[i], o.records[i]) {
			return false
		}
	}
	return true
}
