package iso7816

import (
	"fmt"

	"github.com/gregLibert/transit-card/pkg/bits"
)

// Class Byte (CLA) according to ISO/IEC 7816-4 and PC/SC part 3.
//
// Bit 8 set marks a proprietary class. The value FF, reserved by ISO for
// PPS, is used by PC/SC for commands addressed to the reader rather than
// the card.
//
// First interindustry classes (000x xxxx) carry:
//   - Bit 5: Command Chaining (1 = more commands follow).
//   - Bits 4-3: Secure Messaging indicator.
//   - Bits 2-1: Logical channel (0-3).

// ClassKind tells who interprets a command.
type ClassKind int

const (
	// Interindustry commands follow ISO 7816-4.
	Interindustry ClassKind = iota
	// Proprietary commands follow a vendor's own command set.
	Proprietary
	// Reader commands are answered by the PC/SC reader, not the card.
	Reader
)

func (k ClassKind) String() string {
	switch k {
	case Interindustry:
		return "Interindustry"
	case Proprietary:
		return "Proprietary"
	case Reader:
		return "Reader"
	default:
		return fmt.Sprintf("ClassKind(%d)", int(k))
	}
}

// Class represents a decoded CLA byte.
type Class struct {
	Raw             byte
	Kind            ClassKind
	IsChained       bool
	SecureMessaging uint8
	Channel         uint8
}

// Classes used by the transit card readers.
var (
	ClassISO     = mustClass(0x00)
	ClassDESFire = mustClass(0x90)
	ClassPCSC    = mustClass(0xFF)
)

// NewClass decodes a raw CLA byte. Further interindustry classes (01xx xxxx)
// address logical channels 4-19, which contactless transit cards never open,
// and are rejected.
func NewClass(cla byte) (Class, error) {
	c := Class{Raw: cla}

	switch {
	case cla == 0xFF:
		c.Kind = Reader
	case bits.IsSet(cla, 8):
		c.Kind = Proprietary
	case bits.IsSet(cla, 7):
		return Class{}, fmt.Errorf("unsupported CLA 0x%02X: further interindustry class", cla)
	default:
		c.Kind = Interindustry
		c.IsChained = bits.IsSet(cla, 5)
		c.SecureMessaging = bits.GetRange(cla, 4, 3)
		c.Channel = bits.GetRange(cla, 2, 1)
	}

	return c, nil
}

func mustClass(cla byte) Class {
	c, err := NewClass(cla)
	if err != nil {
		panic(err)
	}
	return c
}

// Encode returns the CLA byte. Interindustry classes are rebuilt from their
// fields so that toggling IsChained takes effect.
func (c Class) Encode() (byte, error) {
	if c.Kind != Interindustry {
		return c.Raw, nil
	}
	if c.Channel > 3 || c.SecureMessaging > 3 {
		return 0, fmt.Errorf("class out of range: channel %d, secure messaging %d", c.Channel, c.SecureMessaging)
	}

	var res byte
	if c.IsChained {
		res = bits.Set(res, 5)
	}
	res |= c.SecureMessaging << 2
	res |= c.Channel
	return res, nil
}

func (c Class) String() string {
	if c.Kind != Interindustry {
		return fmt.Sprintf("%s (0x%02X)", c.Kind, c.Raw)
	}
	return fmt.Sprintf("Interindustry (channel %d, SM %d, chained %t)", c.Channel, c.SecureMessaging, c.IsChained)
}
