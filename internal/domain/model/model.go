// Package model contains domain records passed between layers.
package model

import "time"

// EventStatus tracks an event through its lifecycle.
type EventStatus string

// Event lifecycle states.
const (
	StatusDraft     EventStatus = "draft"
	StatusPublished EventStatus = "published"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

// Event is an organizer-owned event record. Persistence belongs to the
// repository layer; the domain only reads these fields.
type Event struct {
	ID               string
	OrganizerID      string
	Title            string
	Description      string
	Capacity         int
	TicketPrice      float64
	IsFree           bool
	Status           EventStatus
	StartAt          time.Time
	EndAt            time.Time
	CreatedAt        time.Time
	ActualAttendance int // set when the event completes
}

// User is the slice of the platform user the engine consumes: fan base,
// gamification state, and subscription plan identifier.
type User struct {
	ID           string
	DisplayName  string
	FanCount     int
	Subscription string // raw plan identifier; resolved by the plan package
	TotalExp     int
	CurrentLevel int
}

// ExpAward is an audit record of a single EXP grant. It flows through the
// audit queue and is appended to the audit log by workers.
type ExpAward struct {
	ID            string
	UserID        string
	PreviousLevel int
	NewLevel      int
	PreviousExp   int
	NewExp        int
	ExpGained     int
	LeveledUp     bool
	Reason        string
	AwardedAt     time.Time
}
