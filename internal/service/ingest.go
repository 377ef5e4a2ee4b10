package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/afi0204/electric-porta1/internal/db"
	"github.com/afi0204/electric-porta1/internal/logging"
	"github.com/afi0204/electric-porta1/internal/meter"
	"github.com/afi0204/electric-porta1/internal/mq"
	"github.com/afi0204/electric-porta1/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitResult describes an accepted frame.
type SubmitResult struct {
	DeviceID    string
	Status      meter.Status
	Consumption int64
	ReadingID   uuid.UUID
}

// SubmitReading decodes a raw frame and applies it to the owning device:
// status transition, consumption delta, counter update and an appended
// reading, committed together. The whole read-modify-write cycle runs under
// the device's ingest lock, so concurrent frames for one meter serialize
// while distinct meters proceed in parallel.
func (s *MeterService) SubmitReading(ctx context.Context, raw string) (*SubmitResult, error) {
	frame, err := meter.ParseFrame(raw)
	if err != nil {
		return nil, err
	}

	unlock := s.ingestLocks.Lock(frame.DeviceID)
	defer unlock()

	device, err := s.store.GetDevice(ctx, frame.DeviceID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to load device: %w", err)
		}
		device = &db.Device{
			DeviceID: frame.DeviceID,
			Name:     fmt.Sprintf("New Meter %s", frame.DeviceID),
			Status:   meter.StatusInactive,
		}
	}

	delta, rolledOver := s.accumulator.Delta(device.LastKnownVolume, frame.Volume)
	if rolledOver {
		s.logger.Warn("meter counter regressed, rollover policy applied",
			zap.String("device_id", frame.DeviceID),
			zap.Int64p("previous_volume", device.LastKnownVolume),
			zap.Int64("new_volume", frame.Volume))
	}

	now := time.Now().UTC()
	volume := frame.Volume
	signal := frame.Signal

	device.Status = meter.Transition(device.Status, frame.StatusFlag)
	device.NetworkSignal = &signal
	device.LastKnownVolume = &volume
	device.LastReadingTimestamp = &now

	reading := &db.Reading{
		ID:             uuid.New(),
		DeviceID:       frame.DeviceID,
		Timestamp:      now,
		Volume:         frame.Volume,
		Consumption:    delta,
		NetworkSignal:  frame.Signal,
		BatteryVoltage: frame.BatteryVoltage,
	}

	if err := s.store.SaveIngest(ctx, device, reading); err != nil {
		return nil, fmt.Errorf("failed to save reading: %w", err)
	}

	// The frame is durable at this point; a failed publish is logged, not
	// surfaced, so the broker does not redeliver an already-applied frame.
	event := mq.ReadingAcceptedEvent{
		DeviceID:    frame.DeviceID,
		ReadingID:   reading.ID.String(),
		Status:      string(device.Status),
		Volume:      frame.Volume,
		Consumption: delta,
		Timestamp:   now.Format(time.RFC3339),
	}
	if err := s.publisher.PublishReadingAccepted(ctx, event); err != nil {
		s.logger.Error("failed to publish reading accepted event",
			zap.Error(err),
			zap.String("device_id", frame.DeviceID))
	}

	s.logger.Info("frame accepted",
		zap.String("device_id", frame.DeviceID),
		zap.String("status", string(device.Status)),
		zap.Int64("consumption", delta))

	return &SubmitResult{
		DeviceID:    frame.DeviceID,
		Status:      device.Status,
		Consumption: delta,
		ReadingID:   reading.ID,
	}, nil
}

// IngestMessage is the envelope carried on the ingest queue.
type IngestMessage struct {
	RequestID  string    `json:"request_id"`
	RawFrame   string    `json:"raw_frame"`
	ReceivedAt time.Time `json:"received_at"`
}

// ProcessMessage is the queue-facing entry point: it unwraps the envelope and
// submits the raw frame. Any returned error sends the delivery to the DLQ.
func (s *MeterService) ProcessMessage(ctx context.Context, body []byte) error {
	var msg IngestMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal ingest message: %w", err)
	}

	reqLogger := logging.WithRequestID(s.logger, msg.RequestID)
	reqLogger.Info("processing frame", zap.Int("frame_size", len(msg.RawFrame)))

	result, err := s.SubmitReading(ctx, msg.RawFrame)
	if err != nil {
		reqLogger.Error("frame rejected", zap.Error(err), zap.String("raw_frame", msg.RawFrame))
		return err
	}

	reqLogger.Info("frame processed",
		zap.String("device_id", result.DeviceID),
		zap.String("status", string(result.Status)))
	return nil
}
