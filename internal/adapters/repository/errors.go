package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEventNotFound         = errors.New("event not found")
	ErrEventAlreadyCompleted = errors.New("event already completed")
	ErrInvalidLimit          = errors.New("invalid limit")
)
