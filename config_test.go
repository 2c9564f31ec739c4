package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		for _, key := range []string{"TRANSIT_READER", "TRANSIT_LOG_LEVEL", "TRANSIT_DUMP_IN", "TRANSIT_DUMP_OUT", "TRANSIT_RECORD_OUT"} {
			t.Setenv(key, "")
		}

		want := Config{LogLevel: logrus.InfoLevel}
		if diff := cmp.Diff(want, LoadConfig()); diff != "" {
			t.Errorf("LoadConfig mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("From environment", func(t *testing.T) {
		t.Setenv("TRANSIT_READER", "ACS ACR122U PICC Interface 00 00")
		t.Setenv("TRANSIT_LOG_LEVEL", "debug")
		t.Setenv("TRANSIT_DUMP_IN", "in.tlv")
		t.Setenv("TRANSIT_DUMP_OUT", "out.tlv")
		t.Setenv("TRANSIT_RECORD_OUT", "record.cbor")

		want := Config{
			Reader:    "ACS ACR122U PICC Interface 00 00",
			LogLevel:  logrus.DebugLevel,
			DumpIn:    "in.tlv",
			DumpOut:   "out.tlv",
			RecordOut: "record.cbor",
		}
		if diff := cmp.Diff(want, LoadConfig()); diff != "" {
			t.Errorf("LoadConfig mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Invalid level", func(t *testing.T) {
		t.Setenv("TRANSIT_LOG_LEVEL", "chatty")
		if got := LoadConfig().LogLevel; got != logrus.InfoLevel {
			t.Errorf("LogLevel = %s, want info", got)
		}
	})
}
