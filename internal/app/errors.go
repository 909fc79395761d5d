package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotOrganizer      = errors.New("caller is not the event organizer")
	ErrInvalidAttendance = errors.New("actual attendance must be non-negative")
	ErrNotStarted        = errors.New("service not started")
)
