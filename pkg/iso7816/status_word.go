package iso7816

import (
	"fmt"

	"github.com/gregLibert/transit-card/pkg/bits"
)

// Dynamic Status Words:
//
// 1. '61XX': Process completed, XX more bytes available (GET RESPONSE).
// 2. '6CXX': Wrong length, XX is the correct Le.
// 3. '63CX': Counter, the low nibble is a value such as remaining retries.
// 4. '91XX': Native DESFire status XX for a wrapped command. 9100 is
//    success and 91AF announces another frame.

// StatusWord represents the two-byte status response (SW1-SW2) returned by the card.
type StatusWord uint16

// NewStatusWord creates a StatusWord instance from two separate bytes.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(uint16(sw1)<<8 | uint16(sw2))
}

// SW1 returns the high byte of the status word.
func (sw StatusWord) SW1() byte {
	return byte(sw >> 8)
}

// SW2 returns the low byte of the status word.
func (sw StatusWord) SW2() byte {
	return byte(sw)
}

// IsDESFire reports whether sw carries a native DESFire status.
func (sw StatusWord) IsDESFire() bool {
	return sw.SW1() == 0x91
}

// HasMoreFrames reports whether a DESFire command has further response frames.
func (sw StatusWord) HasMoreFrames() bool {
	return sw == SW_DESFIRE_ADDITIONAL_FRAME
}

// IsCounter checks if the status carries a counter in its low nibble.
func (sw StatusWord) IsCounter() bool {
	return sw.SW1() == 0x63 && bits.GetRange(sw.SW2(), 8, 5) == 0x0C
}

// IsSuccess returns true for 9000, 9100 and 61XX.
func (sw StatusWord) IsSuccess() bool {
	return sw == SW_NO_ERROR || sw == SW_DESFIRE_OPERATION_OK || sw.SW1() == 0x61
}

// IsWarning returns true if the status indicates a warning (62XX or 63XX).
func (sw StatusWord) IsWarning() bool {
	sw1 := sw.SW1()
	return sw1 == 0x62 || sw1 == 0x63
}

// IsError returns true for execution and checking errors (64XX to 6FXX) and
// for DESFire statuses other than success and additional frame.
func (sw StatusWord) IsError() bool {
	sw1 := sw.SW1()
	if sw.IsDESFire() {
		return !sw.IsSuccess() && !sw.HasMoreFrames()
	}
	return sw1 >= 0x64 && sw1 <= 0x6F
}

func (sw StatusWord) String() string {
	if name, ok := swNames[sw]; ok {
		return name
	}
	return fmt.Sprintf("StatusWord(0x%04X)", uint16(sw))
}

// Verbose returns a human-readable description of the status word.
func (sw StatusWord) Verbose() string {
	sw2 := sw.SW2()

	switch {
	case sw.SW1() == 0x61:
		return fmt.Sprintf("Process completed, %d bytes available", sw2)
	case sw.SW1() == 0x6C:
		return fmt.Sprintf("Wrong length, correct Le is %d", sw2)
	case sw.IsCounter():
		return fmt.Sprintf("Warning: State changed, counter = %d", bits.GetRange(sw2, 4, 1))
	}

	if name, ok := swNames[sw]; ok {
		return fmt.Sprintf("[%04X] %s", uint16(sw), name)
	}
	return fmt.Sprintf("[%04X] %s", uint16(sw), sw.category())
}

func (sw StatusWord) category() string {
	switch sw.SW1() {
	case 0x62:
		return "Warning: NV memory unchanged"
	case 0x63:
		return "Warning: NV memory changed"
	case 0x64:
		return "Execution Error: NV memory unchanged"
	case 0x65:
		return "Execution Error: NV memory changed"
	case 0x68:
		return "Checking Error: Function not supported"
	case 0x69:
		return "Checking Error: Command not allowed"
	case 0x6A:
		return "Checking Error: Wrong parameters"
	case 0x91:
		return "DESFire: Unknown status"
	default:
		return "Unknown Status"
	}
}

// ISO/IEC 7816-4 status words seen on transit readers.
const (
	SW_NO_ERROR StatusWord = 0x9000

	SW_WARN_EOF_REACHED StatusWord = 0x6282

	SW_ERR_WRONG_LENGTH            StatusWord = 0x6700
	SW_ERR_SECURITY_STATUS_NOT_SAT StatusWord = 0x6982
	SW_ERR_FUNC_NOT_SUPPORTED      StatusWord = 0x6A81
	SW_ERR_FILE_NOT_FOUND          StatusWord = 0x6A82
	SW_ERR_INCORRECT_PARAMS_P1P2   StatusWord = 0x6A86
	SW_ERR_INS_INVALID             StatusWord = 0x6D00
	SW_ERR_CLA_NOT_SUPPORTED       StatusWord = 0x6E00
	SW_ERR_UNKNOWN                 StatusWord = 0x6F00
)

// Native DESFire statuses, returned as SW1=91.
const (
	SW_DESFIRE_OPERATION_OK          StatusWord = 0x9100
	SW_DESFIRE_NO_CHANGES            StatusWord = 0x910C
	SW_DESFIRE_OUT_OF_MEMORY         StatusWord = 0x910E
	SW_DESFIRE_ILLEGAL_COMMAND       StatusWord = 0x911C
	SW_DESFIRE_INTEGRITY_ERROR       StatusWord = 0x911E
	SW_DESFIRE_NO_SUCH_KEY           StatusWord = 0x9140
	SW_DESFIRE_LENGTH_ERROR          StatusWord = 0x917E
	SW_DESFIRE_PERMISSION_DENIED     StatusWord = 0x919D
	SW_DESFIRE_PARAMETER_ERROR       StatusWord = 0x919E
	SW_DESFIRE_APPLICATION_NOT_FOUND StatusWord = 0x91A0
	SW_DESFIRE_AUTHENTICATION_ERROR  StatusWord = 0x91AE
	SW_DESFIRE_ADDITIONAL_FRAME      StatusWord = 0x91AF
	SW_DESFIRE_BOUNDARY_ERROR        StatusWord = 0x91BE
	SW_DESFIRE_COMMAND_ABORTED       StatusWord = 0x91CA
	SW_DESFIRE_DUPLICATE_ERROR       StatusWord = 0x91DE
	SW_DESFIRE_FILE_NOT_FOUND        StatusWord = 0x91F0
)

var swNames = map[StatusWord]string{
	SW_NO_ERROR:                    "No error",
	SW_WARN_EOF_REACHED:            "Warning: End of file reached",
	SW_ERR_WRONG_LENGTH:            "Wrong length",
	SW_ERR_SECURITY_STATUS_NOT_SAT: "Security status not satisfied",
	SW_ERR_FUNC_NOT_SUPPORTED:      "Function not supported",
	SW_ERR_FILE_NOT_FOUND:          "File not found",
	SW_ERR_INCORRECT_PARAMS_P1P2:   "Incorrect parameters P1-P2",
	SW_ERR_INS_INVALID:             "Instruction not supported",
	SW_ERR_CLA_NOT_SUPPORTED:       "Class not supported",
	SW_ERR_UNKNOWN:                 "No precise diagnosis",

	SW_DESFIRE_OPERATION_OK:          "DESFire: Operation OK",
	SW_DESFIRE_NO_CHANGES:            "DESFire: No changes",
	SW_DESFIRE_OUT_OF_MEMORY:         "DESFire: Out of EEPROM",
	SW_DESFIRE_ILLEGAL_COMMAND:       "DESFire: Illegal command",
	SW_DESFIRE_INTEGRITY_ERROR:       "DESFire: Integrity error",
	SW_DESFIRE_NO_SUCH_KEY:           "DESFire: No such key",
	SW_DESFIRE_LENGTH_ERROR:          "DESFire: Length error",
	SW_DESFIRE_PERMISSION_DENIED:     "DESFire: Permission denied",
	SW_DESFIRE_PARAMETER_ERROR:       "DESFire: Parameter error",
	SW_DESFIRE_APPLICATION_NOT_FOUND: "DESFire: Application not found",
	SW_DESFIRE_AUTHENTICATION_ERROR:  "DESFire: Authentication error",
	SW_DESFIRE_ADDITIONAL_FRAME:      "DESFire: Additional frame",
	SW_DESFIRE_BOUNDARY_ERROR:        "DESFire: Boundary error",
	SW_DESFIRE_COMMAND_ABORTED:       "DESFire: Command aborted",
	SW_DESFIRE_DUPLICATE_ERROR:       "DESFire: Duplicate error",
	SW_DESFIRE_FILE_NOT_FOUND:        "DESFire: File not found",
}

// StatusError is returned when a command completes with a non-success status.
type StatusError struct {
	Instruction InsCode
	Status      StatusWord
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Instruction, e.Status.Verbose())
}

// IsAccessDenied reports whether the card refused the command for lack of
// authentication rather than because of a malformed request.
func (e *StatusError) IsAccessDenied() bool {
	switch e.Status {
	case SW_DESFIRE_AUTHENTICATION_ERROR, SW_DESFIRE_PERMISSION_DENIED, SW_ERR_SECURITY_STATUS_NOT_SAT:
		return true
	}
	return false
}
