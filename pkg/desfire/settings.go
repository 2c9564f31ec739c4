package desfire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrUnsupportedFile is returned for file types this package cannot read.
var ErrUnsupportedFile = errors.New("unsupported file type")

// FileType is the DESFire file organisation reported by GET FILE SETTINGS.
type FileType byte

const (
	FileStandard     FileType = 0x00
	FileBackup       FileType = 0x01
	FileValue        FileType = 0x02
	FileLinearRecord FileType = 0x03
	FileCyclicRecord FileType = 0x04
)

func (t FileType) String() string {
	switch t {
	case FileStandard:
		return "standard"
	case FileBackup:
		return "backup"
	case FileValue:
		return "value"
	case FileLinearRecord:
		return "linear-record"
	case FileCyclicRecord:
		return "cyclic-record"
	default:
		return fmt.Sprintf("FileType(0x%02X)", byte(t))
	}
}

// IsRecord reports whether files of this type hold a list of records.
func (t FileType) IsRecord() bool {
	return t == FileLinearRecord || t == FileCyclicRecord
}

// FileSettings is the decoded GET FILE SETTINGS response.
//
// Layout (multi-byte integers little-endian):
//
//	type(1) comm(1) access(2), then per type:
//	standard, backup: size(3)
//	value:            lower(4) upper(4) limitedCredit(4) limitedCreditEnabled(1)
//	record:           recordSize(3) maxRecords(3) currentRecords(3)
type FileSettings struct {
	Type         FileType
	CommSettings byte
	AccessRights uint16

	Size uint32

	LowerLimit           int32
	UpperLimit           int32
	LimitedCredit        int32
	LimitedCreditEnabled bool

	RecordSize     uint32
	MaxRecords     uint32
	CurrentRecords uint32
}

// ParseFileSettings decodes a GET FILE SETTINGS response.
func ParseFileSettings(data []byte) (FileSettings, error) {
	if len(data) < 4 {
		return FileSettings{}, fmt.Errorf("file settings too short: %d bytes", len(data))
	}

	s := FileSettings{
		Type:         FileType(data[0]),
		CommSettings: data[1],
		AccessRights: binary.LittleEndian.Uint16(data[2:4]),
	}
	body := data[4:]

	need := 0
	switch {
	case s.Type == FileStandard || s.Type == FileBackup:
		need = 3
	case s.Type == FileValue:
		need = 13
	case s.Type.IsRecord():
		need = 9
	default:
		return FileSettings{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, s.Type)
	}
	if len(body) < need {
		return FileSettings{}, fmt.Errorf("%s file settings too short: %d bytes", s.Type, len(data))
	}

	switch {
	case s.Type == FileValue:
		s.LowerLimit = int32(binary.LittleEndian.Uint32(body[0:4]))
		s.UpperLimit = int32(binary.LittleEndian.Uint32(body[4:8]))
		s.LimitedCredit = int32(binary.LittleEndian.Uint32(body[8:12]))
		s.LimitedCreditEnabled = body[12] != 0
	case s.Type.IsRecord():
		s.RecordSize = uint24(body[0:3])
		s.MaxRecords = uint24(body[3:6])
		s.CurrentRecords = uint24(body[6:9])
	default:
		s.Size = uint24(body[0:3])
	}

	return s, nil
}

func uint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}
