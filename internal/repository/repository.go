package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/afi0204/electric-porta1/internal/db"
	"github.com/afi0204/electric-porta1/internal/meter"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a device id has no row.
var ErrNotFound = errors.New("device not found")

// Repository handles database operations for devices, readings and logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const deviceColumns = `device_id, name, location, status, network_signal, last_known_volume, last_reading_timestamp, installation_date`

func scanDevice(row pgx.Row) (*db.Device, error) {
	var device db.Device
	var status string
	err := row.Scan(
		&device.DeviceID,
		&device.Name,
		&device.Location,
		&status,
		&device.NetworkSignal,
		&device.LastKnownVolume,
		&device.LastReadingTimestamp,
		&device.InstallationDate,
	)
	if err != nil {
		return nil, err
	}
	device.Status = meter.Status(status)
	return &device, nil
}

// GetDevice retrieves a device by id.
func (r *Repository) GetDevice(ctx context.Context, deviceID string) (*db.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM electric_devices
		WHERE device_id = $1
	`

	device, err := scanDevice(r.pool.QueryRow(ctx, query, deviceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query device: %w", err)
	}
	return device, nil
}

// GetDeviceForUpdateTx retrieves a device inside a transaction, taking a row
// lock so concurrent ingest cycles for the same device serialize at the
// database as well.
func (r *Repository) GetDeviceForUpdateTx(ctx context.Context, tx pgx.Tx, deviceID string) (*db.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM electric_devices
		WHERE device_id = $1
		FOR UPDATE
	`

	device, err := scanDevice(tx.QueryRow(ctx, query, deviceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query device for update: %w", err)
	}
	return device, nil
}

// InsertDeviceTx inserts a new device within a transaction.
func (r *Repository) InsertDeviceTx(ctx context.Context, tx pgx.Tx, device *db.Device) error {
	query := `
		INSERT INTO electric_devices (` + deviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(ctx, query,
		device.DeviceID,
		device.Name,
		device.Location,
		string(device.Status),
		device.NetworkSignal,
		device.LastKnownVolume,
		device.LastReadingTimestamp,
		device.InstallationDate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert device: %w", err)
	}
	return nil
}

// UpdateDeviceTx updates every mutable device field within a transaction.
func (r *Repository) UpdateDeviceTx(ctx context.Context, tx pgx.Tx, device *db.Device) error {
	query := `
		UPDATE electric_devices
		SET name = $2, location = $3, status = $4, network_signal = $5,
		    last_known_volume = $6, last_reading_timestamp = $7, installation_date = $8
		WHERE device_id = $1
	`

	tag, err := tx.Exec(ctx, query,
		device.DeviceID,
		device.Name,
		device.Location,
		string(device.Status),
		device.NetworkSignal,
		device.LastKnownVolume,
		device.LastReadingTimestamp,
		device.InstallationDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDevice updates every mutable device field.
func (r *Repository) UpdateDevice(ctx context.Context, device *db.Device) error {
	query := `
		UPDATE electric_devices
		SET name = $2, location = $3, status = $4, network_signal = $5,
		    last_known_volume = $6, last_reading_timestamp = $7, installation_date = $8
		WHERE device_id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		device.DeviceID,
		device.Name,
		device.Location,
		string(device.Status),
		device.NetworkSignal,
		device.LastKnownVolume,
		device.LastReadingTimestamp,
		device.InstallationDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDeviceStatus overwrites the status of a device.
func (r *Repository) UpdateDeviceStatus(ctx context.Context, deviceID string, status meter.Status) error {
	query := `
		UPDATE electric_devices
		SET status = $2
		WHERE device_id = $1
	`

	tag, err := r.pool.Exec(ctx, query, deviceID, string(status))
	if err != nil {
		return fmt.Errorf("failed to update device status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDeviceStatusTx overwrites the status of a device within a transaction.
func (r *Repository) UpdateDeviceStatusTx(ctx context.Context, tx pgx.Tx, deviceID string, status meter.Status) error {
	query := `
		UPDATE electric_devices
		SET status = $2
		WHERE device_id = $1
	`

	tag, err := tx.Exec(ctx, query, deviceID, string(status))
	if err != nil {
		return fmt.Errorf("failed to update device status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDevices returns the full device snapshot for the query engine and the
// stats summarizer.
func (r *Repository) ListDevices(ctx context.Context) ([]db.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM electric_devices
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []db.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return devices, nil
}

const readingColumns = `id, device_id, timestamp, volume, consumption, network_signal, battery_voltage`

// InsertReadingTx appends a reading within a transaction.
func (r *Repository) InsertReadingTx(ctx context.Context, tx pgx.Tx, reading *db.Reading) error {
	query := `
		INSERT INTO electric_readings (` + readingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.Exec(ctx, query,
		reading.ID,
		reading.DeviceID,
		reading.Timestamp,
		reading.Volume,
		reading.Consumption,
		reading.NetworkSignal,
		reading.BatteryVoltage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

func (r *Repository) queryReadings(ctx context.Context, query string, args ...any) ([]db.Reading, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []db.Reading
	for rows.Next() {
		var reading db.Reading
		err := rows.Scan(
			&reading.ID,
			&reading.DeviceID,
			&reading.Timestamp,
			&reading.Volume,
			&reading.Consumption,
			&reading.NetworkSignal,
			&reading.BatteryVoltage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return readings, nil
}

// ListReadingsSince returns readings across all devices with timestamp >= since.
func (r *Repository) ListReadingsSince(ctx context.Context, since time.Time) ([]db.Reading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM electric_readings
		WHERE timestamp >= $1
	`
	return r.queryReadings(ctx, query, since)
}

// ListDeviceReadingsSince returns readings for one device with timestamp >= since.
func (r *Repository) ListDeviceReadingsSince(ctx context.Context, deviceID string, since time.Time) ([]db.Reading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM electric_readings
		WHERE device_id = $1 AND timestamp >= $2
	`
	return r.queryReadings(ctx, query, deviceID, since)
}

// ListDeviceReadingsBetween returns readings for one device within
// [start, end), newest first.
func (r *Repository) ListDeviceReadingsBetween(ctx context.Context, deviceID string, start, end time.Time) ([]db.Reading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM electric_readings
		WHERE device_id = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp DESC
	`
	return r.queryReadings(ctx, query, deviceID, start, end)
}

// ListReportReadings returns readings joined with their device within
// [from, toExclusive), optionally restricted to one location.
func (r *Repository) ListReportReadings(ctx context.Context, from, toExclusive time.Time, location *string) ([]db.ReportReading, error) {
	query := `
		SELECT r.device_id, d.name, d.location, r.timestamp, r.consumption
		FROM electric_readings r
		JOIN electric_devices d ON d.device_id = r.device_id
		WHERE r.timestamp >= $1 AND r.timestamp < $2
	`
	args := []any{from, toExclusive}
	if location != nil {
		query += ` AND d.location = $3`
		args = append(args, *location)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query report readings: %w", err)
	}
	defer rows.Close()

	var readings []db.ReportReading
	for rows.Next() {
		var reading db.ReportReading
		err := rows.Scan(
			&reading.DeviceID,
			&reading.DeviceName,
			&reading.Location,
			&reading.Timestamp,
			&reading.Consumption,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report reading: %w", err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return readings, nil
}

// InsertDeviceLogTx appends a device log within a transaction.
func (r *Repository) InsertDeviceLogTx(ctx context.Context, tx pgx.Tx, log *db.DeviceLog) error {
	query := `
		INSERT INTO device_logs (id, device_id, timestamp, author, comment, new_status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query,
		log.ID,
		log.DeviceID,
		log.Timestamp,
		log.Author,
		log.Comment,
		string(log.NewStatus),
	)
	if err != nil {
		return fmt.Errorf("failed to insert device log: %w", err)
	}
	return nil
}

// ListDeviceLogs returns the logs for a device, newest first.
func (r *Repository) ListDeviceLogs(ctx context.Context, deviceID string) ([]db.DeviceLog, error) {
	query := `
		SELECT id, device_id, timestamp, author, comment, new_status
		FROM device_logs
		WHERE device_id = $1
		ORDER BY timestamp DESC
	`

	rows, err := r.pool.Query(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device logs: %w", err)
	}
	defer rows.Close()

	var logs []db.DeviceLog
	for rows.Next() {
		var log db.DeviceLog
		var status string
		err := rows.Scan(&log.ID, &log.DeviceID, &log.Timestamp, &log.Author, &log.Comment, &status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device log: %w", err)
		}
		log.NewStatus = meter.Status(status)
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return logs, nil
}

// SaveIngest commits one accepted frame: the device upsert and the appended
// reading in a single transaction. The device row is locked for the duration
// so the upsert cannot race a concurrent ingest cycle on another instance.
func (r *Repository) SaveIngest(ctx context.Context, device *db.Device, reading *db.Reading) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = r.GetDeviceForUpdateTx(ctx, tx, device.DeviceID)
	switch {
	case errors.Is(err, ErrNotFound):
		if err := r.InsertDeviceTx(ctx, tx, device); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := r.UpdateDeviceTx(ctx, tx, device); err != nil {
			return err
		}
	}

	if err := r.InsertReadingTx(ctx, tx, reading); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AppendDeviceLog inserts an administrative log entry and overwrites the
// device's status in the same transaction.
func (r *Repository) AppendDeviceLog(ctx context.Context, log *db.DeviceLog) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.UpdateDeviceStatusTx(ctx, tx, log.DeviceID, log.NewStatus); err != nil {
		return err
	}
	if err := r.InsertDeviceLogTx(ctx, tx, log); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
