// Package stats buckets a device snapshot into status-category counts for the
// dashboard stat cards.
package stats

import (
	"github.com/afi0204/electric-porta1/internal/db"
	"github.com/afi0204/electric-porta1/internal/meter"
)

// Stats holds the status-bucket counts of a device snapshot.
type Stats struct {
	TotalCount       int
	ActiveCount      int
	MaintenanceCount int
	AlertCount       int
	OtherCount       int
}

// Summarize counts devices per status category. Other is whatever is neither
// active, maintenance nor an alert state (in practice: inactive).
func Summarize(devices []db.Device) Stats {
	s := Stats{TotalCount: len(devices)}
	for _, device := range devices {
		switch {
		case device.Status == meter.StatusActive:
			s.ActiveCount++
		case device.Status == meter.StatusMaintenance:
			s.MaintenanceCount++
		case device.Status.IsAlert():
			s.AlertCount++
		}
	}
	s.OtherCount = s.TotalCount - s.ActiveCount - s.MaintenanceCount - s.AlertCount
	return s
}
