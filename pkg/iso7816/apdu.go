package iso7816

import (
	"bytes"
	"fmt"
)

// COMMAND APDU (C-APDU):
// Header CLA INS P1 P2, then an optional body Lc Data Le.
//
// ENCODING CASES (ISO 7816-3):
// - Case 1: Header only.
// - Case 2: Header + Le.
// - Case 3: Header + Lc + Data.
// - Case 4: Header + Lc + Data + Le.
//
// Lc and Le use one byte each (short length) unless Nc > 255 or Ne > 256, in
// which case both switch to extended length. DESFire frames always fit the
// short form; wrapped commands send Le = 00 to accept up to 256 bytes.
//
// RESPONSE APDU (R-APDU):
// Optional data followed by the mandatory trailer SW1 SW2.

// APDU length limits according to ISO 7816-3.
const (
	// MaxShortLc is the largest Nc encodable on one byte.
	MaxShortLc = 255
	// MaxShortLe is the largest Ne encodable on one byte; 0x00 encodes 256.
	MaxShortLe = 256
	// MaxExtendedLc is the largest Nc encodable on two bytes.
	MaxExtendedLc = 65535
	// MaxExtendedLe is the largest Ne encodable on two bytes; 0x0000 encodes 65536.
	MaxExtendedLe = 65536
)

// CommandAPDU represents a command sent to the card.
type CommandAPDU struct {
	Class       Class
	Instruction InsCode
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length (0 means none)
}

// NewCommandAPDU creates a command.
func NewCommandAPDU(cla Class, ins InsCode, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// NewDESFireCommand wraps a native DESFire command and its parameters.
func NewDESFireCommand(ins InsCode, params ...byte) *CommandAPDU {
	return NewCommandAPDU(ClassDESFire, ins, 0x00, 0x00, params, MaxShortLe)
}

// Bytes encodes the command, choosing short or extended length from Nc and Ne.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc := len(c.Data)
	ne := c.Ne

	if nc > MaxExtendedLc || ne > MaxExtendedLe || ne < 0 {
		return nil, fmt.Errorf("length out of range: Nc=%d, Ne=%d", nc, ne)
	}
	if err := c.Instruction.ValidFor(c.Class); err != nil {
		return nil, err
	}

	class, err := c.Class.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode Class: %w", err)
	}

	buf := new(bytes.Buffer)
	buf.Write([]byte{class, byte(c.Instruction), c.P1, c.P2})

	extended := nc > MaxShortLc || ne > MaxShortLe

	if nc > 0 {
		if extended {
			buf.Write([]byte{0x00, byte(nc >> 8), byte(nc)})
		} else {
			buf.WriteByte(byte(nc))
		}
		buf.Write(c.Data)
	}

	if ne > 0 {
		switch {
		case !extended:
			// 256 wraps to 0x00.
			buf.WriteByte(byte(ne))
		default:
			// Without Lc, a leading 00 tells extended Le from short Lc.
			if nc == 0 {
				buf.WriteByte(0x00)
			}
			// 65536 wraps to 0x0000.
			buf.Write([]byte{byte(ne >> 8), byte(ne)})
		}
	}

	return buf.Bytes(), nil
}

func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | CLA: %02X | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction, c.Class.Raw, c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU splits a raw response into its data and status word.
// The input must contain at least SW1 and SW2.
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}

	n := len(raw) - 2
	data := make([]byte, n)
	copy(data, raw[:n])

	return &ResponseAPDU{
		Data:   data,
		Status: NewStatusWord(raw[n], raw[n+1]),
	}, nil
}

func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
