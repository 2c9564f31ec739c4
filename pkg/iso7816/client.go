package iso7816

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// CLIENT & PROTOCOL LOGIC:
// The Client drives one card connection and hides the continuation
// procedures from callers:
//
// 1. "61 XX": XX bytes are waiting. The client sends GET RESPONSE.
// 2. "6C XX": Le was wrong. The client resends the command with Le = XX.
// 3. "91 AF": A DESFire response continues. The client sends ADDITIONAL FRAME.
//
// Send returns every transaction performed as a Trace.

// maxFrames bounds the continuations followed for one command, so that a
// card answering 61XX or 91AF forever cannot stall the reader.
const maxFrames = 64

// Transmitter abstracts the physical card connection.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the communication with one card.
type Client struct {
	Card Transmitter
	// Log receives one debug entry per transaction. Nil disables tracing.
	Log logrus.FieldLogger
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card}
}

// Send transmits a command and follows 61XX, 6CXX and 91AF continuations.
// The returned trace is valid even when err is not nil.
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	var trace Trace

	for next := cmd; next != nil; {
		if len(trace) == maxFrames {
			return trace, fmt.Errorf("%s: more than %d frames", cmd.Instruction, maxFrames)
		}

		resp, err := c.transmit(next)
		if err != nil {
			return trace, err
		}
		trace = append(trace, Transaction{Command: next, Response: resp})
		next = continuation(next, resp.Status)
	}

	return trace, nil
}

// Exchange sends cmd and returns the reassembled response data. A final
// non-success status is reported as a *StatusError.
func (c *Client) Exchange(cmd *CommandAPDU) ([]byte, error) {
	trace, err := c.Send(cmd)
	if err != nil {
		return nil, err
	}
	if err := trace.Err(); err != nil {
		return nil, err
	}
	return trace.Data(), nil
}

func (c *Client) transmit(cmd *CommandAPDU) (*ResponseAPDU, error) {
	rawCmd, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	rawResp, err := c.Card.Transmit(rawCmd)
	if err != nil {
		return nil, fmt.Errorf("transmission error: %w", err)
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return nil, err
	}

	if c.Log != nil {
		c.Log.WithFields(logrus.Fields{
			"ins":    cmd.Instruction.String(),
			"c_apdu": strings.ToUpper(hex.EncodeToString(rawCmd)),
			"sw":     fmt.Sprintf("%04X", uint16(resp.Status)),
			"len":    len(resp.Data),
		}).Debug("apdu")
	}
	return resp, nil
}

// continuation returns the command that follows a response with status sw,
// or nil when the exchange is complete.
func continuation(cmd *CommandAPDU, sw StatusWord) *CommandAPDU {
	switch {
	case sw.SW1() == 0x61:
		// GET RESPONSE stays on the logical channel of the original command.
		cls := cmd.Class
		if cls.Kind != Interindustry {
			cls = ClassISO
		}
		cls.IsChained = false
		ne := int(sw.SW2())
		if ne == 0 {
			ne = MaxShortLe
		}
		return NewCommandAPDU(cls, INS_GET_RESPONSE, 0x00, 0x00, nil, ne)

	case sw.SW1() == 0x6C:
		resend := *cmd
		resend.Ne = int(sw.SW2())
		if resend.Ne == 0 {
			resend.Ne = MaxShortLe
		}
		return &resend

	case sw.HasMoreFrames():
		return NewDESFireCommand(INS_DESFIRE_ADDITIONAL_FRAME)
	}
	return nil
}
