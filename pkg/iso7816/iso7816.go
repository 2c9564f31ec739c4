/*
Package iso7816 implements the APDU exchange used to talk to contactless
transit cards through a PC/SC reader.

Three command families travel over the same transport:

  - Interindustry commands (CLA 00), such as GET RESPONSE.
  - Reader pseudo-APDUs (CLA FF), answered by the PC/SC reader itself, such
    as GET DATA for the tag UID.
  - Native DESFire commands wrapped in ISO framing (CLA 90). The native
    command code travels in INS, its parameters in the data field, and the
    native status comes back as SW1=91, SW2=status.

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000, 0x9100: Success.
  - 0x61XX: Success, XX more bytes waiting for GET RESPONSE.
  - 0x6CXX: Wrong Le, XX is the correct one.
  - 0x91AF: DESFire has another frame; send ADDITIONAL FRAME.
  - Other: Various error conditions.

Client.Send follows the three continuation cases automatically and returns
the whole conversation as a Trace.

# Usage Example: Reading a DESFire file

	client := iso7816.NewClient(card)

	cmd := iso7816.NewCommandAPDU(iso7816.ClassDESFire, iso7816.INS_DESFIRE_READ_DATA,
		0x00, 0x00, []byte{0x08, 0, 0, 0, 0, 0, 0}, iso7816.MaxShortLe)

	data, err := client.Exchange(cmd)
	var swErr *iso7816.StatusError
	if errors.As(err, &swErr) && swErr.Status == iso7816.SW_DESFIRE_AUTHENTICATION_ERROR {
	    // file needs a key
	}
*/
package iso7816
