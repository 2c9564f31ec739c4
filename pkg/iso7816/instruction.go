package iso7816

import (
	"fmt"
)

// Instruction Byte (INS).
//
// Under an interindustry class, INS values whose upper nibble is 6 or 9 are
// invalid: ISO/IEC 7816-3 reserves them for procedure bytes and SW1. Native
// DESFire commands wrapped under CLA 90 use their own code space, where 6X
// codes are ordinary commands (GET APPLICATION IDS is 6A).

// InsCode is the instruction byte.
type InsCode byte

// Interindustry and PC/SC reader instructions.
const (
	INS_GET_RESPONSE InsCode = 0xC0
	INS_GET_DATA     InsCode = 0xCA
)

// Native DESFire command codes.
const (
	INS_DESFIRE_GET_VERSION         InsCode = 0x60
	INS_DESFIRE_GET_APPLICATION_IDS InsCode = 0x6A
	INS_DESFIRE_GET_VALUE           InsCode = 0x6C
	INS_DESFIRE_GET_FILE_IDS        InsCode = 0x6F
	INS_DESFIRE_SELECT_APPLICATION  InsCode = 0x5A
	INS_DESFIRE_READ_RECORDS        InsCode = 0xBB
	INS_DESFIRE_READ_DATA           InsCode = 0xBD
	INS_DESFIRE_GET_FILE_SETTINGS   InsCode = 0xF5
	INS_DESFIRE_ADDITIONAL_FRAME    InsCode = 0xAF
)

var insNames = map[InsCode]string{
	INS_GET_RESPONSE:                "GET RESPONSE",
	INS_GET_DATA:                    "GET DATA",
	INS_DESFIRE_GET_VERSION:         "GET VERSION",
	INS_DESFIRE_GET_APPLICATION_IDS: "GET APPLICATION IDS",
	INS_DESFIRE_GET_VALUE:           "GET VALUE",
	INS_DESFIRE_GET_FILE_IDS:        "GET FILE IDS",
	INS_DESFIRE_SELECT_APPLICATION:  "SELECT APPLICATION",
	INS_DESFIRE_READ_RECORDS:        "READ RECORDS",
	INS_DESFIRE_READ_DATA:           "READ DATA",
	INS_DESFIRE_GET_FILE_SETTINGS:   "GET FILE SETTINGS",
	INS_DESFIRE_ADDITIONAL_FRAME:    "ADDITIONAL FRAME",
}

func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("InsCode(0x%02X)", byte(i))
}

// ValidFor checks that i may be sent under class c.
func (i InsCode) ValidFor(c Class) error {
	if c.Kind != Interindustry {
		return nil
	}
	highNibble := byte(i) & 0xF0
	if highNibble == 0x60 || highNibble == 0x90 {
		return fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", byte(i))
	}
	return nil
}
