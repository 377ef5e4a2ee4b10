package meter

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatError indicates a raw frame that does not match the meter wire format.
type FormatError struct {
	Raw    string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid frame format: %s (raw: %q)", e.Reason, e.Raw)
}

// NumericParseError indicates a frame field that should be numeric but is not.
type NumericParseError struct {
	Raw   string
	Field string
	Value string
}

func (e *NumericParseError) Error() string {
	return fmt.Sprintf("invalid numeric field %s=%q (raw: %q)", e.Field, e.Value, e.Raw)
}

// ParsedFrame is the decoded form of a raw meter frame.
type ParsedFrame struct {
	StatusFlag     string
	DeviceID       string
	Signal         int
	Volume         int64
	BatteryVoltage *int
}

// Frame field layout: groupFlag,statusFlag,deviceId,marker,signal,volume[,batteryVoltage]
const (
	fieldStatusFlag = 1
	fieldDeviceID   = 2
	fieldMarker     = 3
	fieldSignal     = 4
	fieldVolume     = 5
	fieldBattery    = 6
)

// ParseFrame decodes a raw telemetry frame. The frame may be prefixed with one
// or more '#' characters and must contain exactly 6 or 7 comma-separated
// fields with a marker of "@" or "8".
func ParseFrame(raw string) (ParsedFrame, error) {
	clean := strings.TrimLeft(raw, "#")
	parts := strings.Split(clean, ",")

	if len(parts) != 6 && len(parts) != 7 {
		return ParsedFrame{}, &FormatError{Raw: raw, Reason: fmt.Sprintf("expected 6 or 7 fields, got %d", len(parts))}
	}
	if parts[fieldMarker] != "@" && parts[fieldMarker] != "8" {
		return ParsedFrame{}, &FormatError{Raw: raw, Reason: fmt.Sprintf("unexpected marker %q", parts[fieldMarker])}
	}

	signal, err := strconv.Atoi(parts[fieldSignal])
	if err != nil {
		return ParsedFrame{}, &NumericParseError{Raw: raw, Field: "signal", Value: parts[fieldSignal]}
	}

	volume, err := strconv.ParseInt(parts[fieldVolume], 10, 64)
	if err != nil {
		return ParsedFrame{}, &NumericParseError{Raw: raw, Field: "volume", Value: parts[fieldVolume]}
	}

	frame := ParsedFrame{
		StatusFlag: strings.ToUpper(parts[fieldStatusFlag]),
		DeviceID:   parts[fieldDeviceID],
		Signal:     signal,
		Volume:     volume,
	}

	if len(parts) == 7 {
		battery, err := strconv.Atoi(parts[fieldBattery])
		if err != nil {
			return ParsedFrame{}, &NumericParseError{Raw: raw, Field: "batteryVoltage", Value: parts[fieldBattery]}
		}
		frame.BatteryVoltage = &battery
	}

	return frame, nil
}
