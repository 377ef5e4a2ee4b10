package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/afi0204/electric-porta1/internal/db"
	"github.com/afi0204/electric-porta1/internal/meter"
	"github.com/afi0204/electric-porta1/internal/mq"
	"github.com/afi0204/electric-porta1/internal/query"
	"github.com/afi0204/electric-porta1/internal/repository"
	"github.com/afi0204/electric-porta1/internal/service"
	"go.uber.org/zap"
)

// memStore is an in-memory Store used to exercise the service without
// PostgreSQL. Readings and logs are kept in insertion order.
type memStore struct {
	mu       sync.Mutex
	devices  map[string]db.Device
	readings []db.Reading
	logs     []db.DeviceLog
}

func newMemStore() *memStore {
	return &memStore{devices: make(map[string]db.Device)}
}

func (m *memStore) GetDevice(_ context.Context, deviceID string) (*db.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	device, ok := m.devices[deviceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := device
	return &copied, nil
}

func (m *memStore) ListDevices(_ context.Context) ([]db.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]db.Device, 0, len(m.devices))
	for _, device := range m.devices {
		out = append(out, device)
	}
	return out, nil
}

func (m *memStore) SaveIngest(_ context.Context, device *db.Device, reading *db.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[device.DeviceID] = *device
	m.readings = append(m.readings, *reading)
	return nil
}

func (m *memStore) UpdateDevice(_ context.Context, device *db.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[device.DeviceID]; !ok {
		return repository.ErrNotFound
	}
	m.devices[device.DeviceID] = *device
	return nil
}

func (m *memStore) UpdateDeviceStatus(_ context.Context, deviceID string, status meter.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	device, ok := m.devices[deviceID]
	if !ok {
		return repository.ErrNotFound
	}
	device.Status = status
	m.devices[deviceID] = device
	return nil
}

func (m *memStore) AppendDeviceLog(_ context.Context, log *db.DeviceLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	device, ok := m.devices[log.DeviceID]
	if !ok {
		return repository.ErrNotFound
	}
	device.Status = log.NewStatus
	m.devices[log.DeviceID] = device
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memStore) ListReadingsSince(_ context.Context, since time.Time) ([]db.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Reading
	for _, reading := range m.readings {
		if !reading.Timestamp.Before(since) {
			out = append(out, reading)
		}
	}
	return out, nil
}

func (m *memStore) ListDeviceReadingsSince(_ context.Context, deviceID string, since time.Time) ([]db.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Reading
	for _, reading := range m.readings {
		if reading.DeviceID == deviceID && !reading.Timestamp.Before(since) {
			out = append(out, reading)
		}
	}
	return out, nil
}

func (m *memStore) ListDeviceReadingsBetween(_ context.Context, deviceID string, start, end time.Time) ([]db.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Reading
	for i := len(m.readings) - 1; i >= 0; i-- {
		reading := m.readings[i]
		if reading.DeviceID == deviceID && !reading.Timestamp.Before(start) && reading.Timestamp.Before(end) {
			out = append(out, reading)
		}
	}
	return out, nil
}

func (m *memStore) ListReportReadings(_ context.Context, from, toExclusive time.Time, location *string) ([]db.ReportReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.ReportReading
	for _, reading := range m.readings {
		if reading.Timestamp.Before(from) || !reading.Timestamp.Before(toExclusive) {
			continue
		}
		device := m.devices[reading.DeviceID]
		if location != nil && (device.Location == nil || *device.Location != *location) {
			continue
		}
		out = append(out, db.ReportReading{
			DeviceID:    reading.DeviceID,
			DeviceName:  device.Name,
			Location:    device.Location,
			Timestamp:   reading.Timestamp,
			Consumption: reading.Consumption,
		})
	}
	return out, nil
}

func (m *memStore) ListDeviceLogs(_ context.Context, deviceID string) ([]db.DeviceLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.DeviceLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].DeviceID == deviceID {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

// memPublisher records published events.
type memPublisher struct {
	mu     sync.Mutex
	events []mq.ReadingAcceptedEvent
}

func (p *memPublisher) PublishReadingAccepted(_ context.Context, event mq.ReadingAcceptedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func newTestService(store *memStore, policy meter.RolloverPolicy) (*service.MeterService, *memPublisher) {
	publisher := &memPublisher{}
	svc := service.NewMeterService(
		store,
		meter.NewAccumulator(policy),
		query.NewEngine(10, 50),
		publisher,
		zap.NewNop(),
	)
	return svc, publisher
}
