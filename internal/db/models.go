package db

import (
	"time"

	"github.com/afi0204/electric-porta1/internal/meter"
	"github.com/google/uuid"
)

// Device represents an electric meter in the database. The device row is the
// authoritative per-meter state: status, last counter value and last contact.
type Device struct {
	DeviceID             string
	Name                 string
	Location             *string
	Status               meter.Status
	NetworkSignal        *int
	LastKnownVolume      *int64
	LastReadingTimestamp *time.Time
	InstallationDate     *time.Time
}

// Reading is an append-only consumption fact. Timestamp is the ingestion
// time, not the meter clock.
type Reading struct {
	ID             uuid.UUID
	DeviceID       string
	Timestamp      time.Time
	Volume         int64
	Consumption    int64
	NetworkSignal  int
	BatteryVoltage *int
}

// DeviceLog is an append-only administrative annotation on a device.
type DeviceLog struct {
	ID        uuid.UUID
	DeviceID  string
	Timestamp time.Time
	Author    string
	Comment   string
	NewStatus meter.Status
}

// ReportReading is a reading joined with its device, as consumed by the
// report aggregator.
type ReportReading struct {
	DeviceID    string
	DeviceName  string
	Location    *string
	Timestamp   time.Time
	Consumption int64
}
