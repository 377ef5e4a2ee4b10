package meter_test

import (
	"errors"
	"testing"

	"github.com/afi0204/electric-porta1/internal/meter"
)

func TestParseFrame_SixFields(t *testing.T) {
	frame, err := meter.ParseFrame("#,S,DEV1,@,95,1000")
	if err != nil {
		t.Fatalf("Failed to parse frame: %v", err)
	}

	if frame.StatusFlag != "S" {
		t.Errorf("Expected status flag S, got %s", frame.StatusFlag)
	}
	if frame.DeviceID != "DEV1" {
		t.Errorf("Expected device id DEV1, got %s", frame.DeviceID)
	}
	if frame.Signal != 95 {
		t.Errorf("Expected signal 95, got %d", frame.Signal)
	}
	if frame.Volume != 1000 {
		t.Errorf("Expected volume 1000, got %d", frame.Volume)
	}
	if frame.BatteryVoltage != nil {
		t.Errorf("Expected no battery voltage, got %d", *frame.BatteryVoltage)
	}
}

func TestParseFrame_SevenFields(t *testing.T) {
	frame, err := meter.ParseFrame("##,co,MTR-42,8,-70,204800,3600")
	if err != nil {
		t.Fatalf("Failed to parse frame: %v", err)
	}

	if frame.StatusFlag != "CO" {
		t.Errorf("Expected uppercased status flag CO, got %s", frame.StatusFlag)
	}
	if frame.DeviceID != "MTR-42" {
		t.Errorf("Expected device id MTR-42, got %s", frame.DeviceID)
	}
	if frame.Signal != -70 {
		t.Errorf("Expected signal -70, got %d", frame.Signal)
	}
	if frame.BatteryVoltage == nil || *frame.BatteryVoltage != 3600 {
		t.Errorf("Expected battery voltage 3600, got %v", frame.BatteryVoltage)
	}
}

func TestParseFrame_AlternateMarker(t *testing.T) {
	if _, err := meter.ParseFrame("1,D,DEV2,8,80,500"); err != nil {
		t.Errorf("Expected marker 8 to be accepted, got %v", err)
	}
}

func TestParseFrame_BadFieldCount(t *testing.T) {
	cases := []string{
		"#,S,DEV1,@,95",
		"#,S,DEV1,@,95,1000,3600,extra",
		"",
		"#",
	}

	for _, raw := range cases {
		_, err := meter.ParseFrame(raw)
		var formatErr *meter.FormatError
		if !errors.As(err, &formatErr) {
			t.Errorf("Expected FormatError for %q, got %v", raw, err)
		}
	}
}

func TestParseFrame_BadMarker(t *testing.T) {
	_, err := meter.ParseFrame("#,S,DEV1,x,95,1000")
	var formatErr *meter.FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Expected FormatError for bad marker, got %v", err)
	}
	if formatErr.Raw != "#,S,DEV1,x,95,1000" {
		t.Errorf("Expected raw input in error, got %q", formatErr.Raw)
	}
}

func TestParseFrame_NonNumericFields(t *testing.T) {
	cases := []struct {
		raw   string
		field string
	}{
		{"#,S,DEV1,@,high,1000", "signal"},
		{"#,S,DEV1,@,95,lots", "volume"},
		{"#,S,DEV1,@,95,1000,full", "batteryVoltage"},
	}

	for _, tc := range cases {
		_, err := meter.ParseFrame(tc.raw)
		var numErr *meter.NumericParseError
		if !errors.As(err, &numErr) {
			t.Errorf("Expected NumericParseError for %q, got %v", tc.raw, err)
			continue
		}
		if numErr.Field != tc.field {
			t.Errorf("Expected offending field %s for %q, got %s", tc.field, tc.raw, numErr.Field)
		}
	}
}
