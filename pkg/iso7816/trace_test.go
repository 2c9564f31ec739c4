package iso7816

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func makeTx(sw StatusWord, data ...byte) Transaction {
	return Transaction{
		Command:  NewDESFireCommand(INS_DESFIRE_READ_DATA),
		Response: &ResponseAPDU{Data: data, Status: sw},
	}
}

func TestTransaction_IsSuccess(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want bool
	}{
		{"Successful Transaction (9000)", makeTx(SW_NO_ERROR), true},
		{"DESFire OK (9100)", makeTx(SW_DESFIRE_OPERATION_OK), true},
		{"Process Completed (6110)", makeTx(NewStatusWord(0x61, 0x10)), true},
		{"Error Transaction (6A82)", makeTx(SW_ERR_FILE_NOT_FOUND), false},
		{"Nil Response", Transaction{Command: &CommandAPDU{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tx.IsSuccess(); got != tt.want {
				t.Errorf("Transaction.IsSuccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrace_Logic(t *testing.T) {
	t.Run("Empty Trace", func(t *testing.T) {
		var tr Trace
		if tr.Last() != nil {
			t.Error("Empty trace Last() should be nil")
		}
		if tr.IsSuccess() {
			t.Error("Empty trace IsSuccess() should be false")
		}
		if tr.Err() == nil {
			t.Error("Empty trace Err() should not be nil")
		}
	})

	t.Run("Frames then success", func(t *testing.T) {
		tr := Trace{
			makeTx(SW_DESFIRE_ADDITIONAL_FRAME, 0x01, 0x02),
			makeTx(SW_DESFIRE_ADDITIONAL_FRAME, 0x03),
			makeTx(SW_DESFIRE_OPERATION_OK, 0x04),
		}

		if !tr.IsSuccess() {
			t.Error("Trace should be successful if the last frame succeeded")
		}
		if err := tr.Err(); err != nil {
			t.Errorf("Err() = %v", err)
		}
		if diff := cmp.Diff([]byte{1, 2, 3, 4}, tr.Data()); diff != "" {
			t.Errorf("Data mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Failure at the end", func(t *testing.T) {
		tr := Trace{
			makeTx(SW_DESFIRE_ADDITIONAL_FRAME, 0x01),
			makeTx(SW_DESFIRE_BOUNDARY_ERROR),
		}

		if tr.IsSuccess() {
			t.Error("Trace should fail if the last action failed")
		}
		var swErr *StatusError
		if !errors.As(tr.Err(), &swErr) || swErr.Status != SW_DESFIRE_BOUNDARY_ERROR {
			t.Errorf("Err() = %v, want boundary error", tr.Err())
		}
		if swErr.Instruction != INS_DESFIRE_READ_DATA {
			t.Errorf("Err().Instruction = %s", swErr.Instruction)
		}
	})
}
