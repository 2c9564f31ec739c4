package iso7816

import (
	"testing"
)

func TestInsCode_ValidFor(t *testing.T) {
	tests := []struct {
		name    string
		ins     InsCode
		cla     Class
		wantErr bool
	}{
		{"GET RESPONSE interindustry", INS_GET_RESPONSE, ClassISO, false},
		{"6X under interindustry", 0x6A, ClassISO, true},
		{"9X under interindustry", 0x90, ClassISO, true},
		{"GET APPLICATION IDS under DESFire", INS_DESFIRE_GET_APPLICATION_IDS, ClassDESFire, false},
		{"GET DATA under reader class", INS_GET_DATA, ClassPCSC, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ins.ValidFor(tt.cla)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidFor() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInsCode_String(t *testing.T) {
	tests := []struct {
		ins  InsCode
		want string
	}{
		{INS_DESFIRE_READ_DATA, "READ DATA"},
		{INS_DESFIRE_ADDITIONAL_FRAME, "ADDITIONAL FRAME"},
		{INS_GET_RESPONSE, "GET RESPONSE"},
		{0x01, "InsCode(0x01)"},
	}

	for _, tt := range tests {
		if got := tt.ins.String(); got != tt.want {
			t.Errorf("InsCode(0x%02X).String() = %q, want %q", byte(tt.ins), got, tt.want)
		}
	}
}
