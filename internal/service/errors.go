package service

import "errors"

var (
	// ErrDeviceNotFound is returned when an operation targets a device id
	// absent from the repository.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrDeviceIDMismatch is returned when an update's path id and body id
	// disagree. The request is rejected before any mutation.
	ErrDeviceIDMismatch = errors.New("device id mismatch")

	// ErrInvalidInput is returned for malformed caller input such as
	// unparseable dates or statuses outside the closed enum.
	ErrInvalidInput = errors.New("invalid input")
)
