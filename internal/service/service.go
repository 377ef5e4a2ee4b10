package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/afi0204/electric-porta1/internal/db"
	"github.com/afi0204/electric-porta1/internal/meter"
	"github.com/afi0204/electric-porta1/internal/mq"
	"github.com/afi0204/electric-porta1/internal/query"
	"github.com/afi0204/electric-porta1/internal/report"
	"github.com/afi0204/electric-porta1/internal/repository"
	"github.com/afi0204/electric-porta1/internal/stats"
	"github.com/afi0204/electric-porta1/tools/timeparser"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the persistence surface the service depends on. The pgx
// repository is the production implementation; tests use an in-memory fake.
type Store interface {
	GetDevice(ctx context.Context, deviceID string) (*db.Device, error)
	ListDevices(ctx context.Context) ([]db.Device, error)
	SaveIngest(ctx context.Context, device *db.Device, reading *db.Reading) error
	UpdateDevice(ctx context.Context, device *db.Device) error
	UpdateDeviceStatus(ctx context.Context, deviceID string, status meter.Status) error
	AppendDeviceLog(ctx context.Context, log *db.DeviceLog) error
	ListReadingsSince(ctx context.Context, since time.Time) ([]db.Reading, error)
	ListDeviceReadingsSince(ctx context.Context, deviceID string, since time.Time) ([]db.Reading, error)
	ListDeviceReadingsBetween(ctx context.Context, deviceID string, start, end time.Time) ([]db.Reading, error)
	ListReportReadings(ctx context.Context, from, toExclusive time.Time, location *string) ([]db.ReportReading, error)
	ListDeviceLogs(ctx context.Context, deviceID string) ([]db.DeviceLog, error)
}

// EventPublisher publishes accepted-reading events after a frame commits.
type EventPublisher interface {
	PublishReadingAccepted(ctx context.Context, event mq.ReadingAcceptedEvent) error
}

// MeterService implements the operations exposed to the transport layer.
type MeterService struct {
	store       Store
	accumulator *meter.Accumulator
	engine      *query.Engine
	publisher   EventPublisher
	logger      *zap.Logger
	ingestLocks *keyedMutex
}

// NewMeterService creates a new meter service
func NewMeterService(
	store Store,
	accumulator *meter.Accumulator,
	engine *query.Engine,
	publisher EventPublisher,
	logger *zap.Logger,
) *MeterService {
	return &MeterService{
		store:       store,
		accumulator: accumulator,
		engine:      engine,
		publisher:   publisher,
		logger:      logger,
		ingestLocks: newKeyedMutex(),
	}
}

// ListDevices returns one page of the filtered, sorted device listing.
func (s *MeterService) ListDevices(ctx context.Context, params query.Params) (query.Page, error) {
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return query.Page{}, fmt.Errorf("failed to list devices: %w", err)
	}
	return s.engine.ListDevices(devices, params), nil
}

// GetDeviceStats buckets the current device snapshot into status categories.
func (s *MeterService) GetDeviceStats(ctx context.Context) (stats.Stats, error) {
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return stats.Stats{}, fmt.Errorf("failed to list devices: %w", err)
	}
	return stats.Summarize(devices), nil
}

// GetReadingsSummary returns all readings inside the trailing period window.
// Unknown period values fall back to the default 30d window.
func (s *MeterService) GetReadingsSummary(ctx context.Context, period string) ([]db.Reading, error) {
	window, known := timeparser.ParsePeriod(period)
	if !known {
		s.logger.Debug("unknown summary period, using default", zap.String("period", period))
	}
	return s.store.ListReadingsSince(ctx, time.Now().UTC().Add(-window))
}

// GetDeviceByID retrieves one device.
func (s *MeterService) GetDeviceByID(ctx context.Context, deviceID string) (*db.Device, error) {
	device, err := s.store.GetDevice(ctx, deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
		}
		return nil, err
	}
	return device, nil
}

// UpdateDevice replaces a device record. The path id must match the record's
// id and the status must be a legal enum value; violations reject the request
// before anything is written.
func (s *MeterService) UpdateDevice(ctx context.Context, deviceID string, device *db.Device) (*db.Device, error) {
	if deviceID != device.DeviceID {
		return nil, fmt.Errorf("%w: path id %q, body id %q", ErrDeviceIDMismatch, deviceID, device.DeviceID)
	}
	if _, err := meter.ParseStatus(string(device.Status)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.store.UpdateDevice(ctx, device); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
		}
		return nil, fmt.Errorf("failed to update device: %w", err)
	}
	return device, nil
}

// ResolveDeviceAlert forces a device back to active regardless of its current
// status. This is the only way out of an alert state.
func (s *MeterService) ResolveDeviceAlert(ctx context.Context, deviceID string) (*db.Device, error) {
	if err := s.store.UpdateDeviceStatus(ctx, deviceID, meter.StatusActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
		}
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}

	s.logger.Info("device alert resolved", zap.String("device_id", deviceID))
	return s.GetDeviceByID(ctx, deviceID)
}

// GetDeviceReadings returns one device's readings inside the trailing period
// window.
func (s *MeterService) GetDeviceReadings(ctx context.Context, deviceID string, period string) ([]db.Reading, error) {
	window, _ := timeparser.ParsePeriod(period)
	return s.store.ListDeviceReadingsSince(ctx, deviceID, time.Now().UTC().Add(-window))
}

// GetDeviceDailyDetail returns one device's readings on a calendar day,
// newest first.
func (s *MeterService) GetDeviceDailyDetail(ctx context.Context, deviceID string, date string) ([]db.Reading, error) {
	day, err := timeparser.ParseDay(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	start, end := timeparser.DayBounds(day)
	return s.store.ListDeviceReadingsBetween(ctx, deviceID, start, end)
}

// GetDeviceLogs returns the administrative log entries for a device, newest
// first.
func (s *MeterService) GetDeviceLogs(ctx context.Context, deviceID string) ([]db.DeviceLog, error) {
	return s.store.ListDeviceLogs(ctx, deviceID)
}

// AddDeviceLog appends an administrative annotation and overwrites the
// device's status with the annotation's status.
func (s *MeterService) AddDeviceLog(ctx context.Context, deviceID, author, comment, newStatus string) (*db.DeviceLog, error) {
	status, err := meter.ParseStatus(newStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	log := &db.DeviceLog{
		ID:        uuid.New(),
		DeviceID:  deviceID,
		Timestamp: time.Now().UTC(),
		Author:    author,
		Comment:   comment,
		NewStatus: status,
	}

	if err := s.store.AppendDeviceLog(ctx, log); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
		}
		return nil, fmt.Errorf("failed to append device log: %w", err)
	}

	s.logger.Info("device log added",
		zap.String("device_id", deviceID),
		zap.String("new_status", string(status)))
	return log, nil
}

// ReportLocationAll is the sentinel location meaning "no location filter".
const ReportLocationAll = query.LocationAll

// GenerateReport aggregates consumption between two calendar dates,
// inclusive of the entire toDate day, optionally restricted to one location.
func (s *MeterService) GenerateReport(ctx context.Context, fromDate, toDate, location string) ([]report.Item, error) {
	from, err := timeparser.ParseDay(fromDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	to, err := timeparser.ParseDay(toDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var locationFilter *string
	if location != "" && location != ReportLocationAll {
		locationFilter = &location
	}

	rows, err := s.store.ListReportReadings(ctx, from, to.AddDate(0, 0, 1), locationFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to query report readings: %w", err)
	}

	readings := make([]report.Reading, 0, len(rows))
	for _, row := range rows {
		readings = append(readings, report.Reading{
			DeviceID:    row.DeviceID,
			DeviceName:  row.DeviceName,
			Location:    row.Location,
			Timestamp:   row.Timestamp,
			Consumption: row.Consumption,
		})
	}
	return report.Aggregate(readings), nil
}
