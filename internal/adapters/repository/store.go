// Package repository defines the record store interfaces and errors for
// users, events, and the EXP audit log.
package repository

import (
	"context"
	"time"

	"github.com/miyabi-lab/encore/internal/domain/exp"
	"github.com/miyabi-lab/encore/internal/domain/model"
)

// AwardTransform is a pure state transition produced by the exp package.
// Implementations apply it under a per-user atomic update so concurrent
// awards cannot lose writes.
type AwardTransform func(exp.State) (exp.State, exp.AwardResult)

// UserStore provides access to user records and their EXP state.
type UserStore interface {
	// PutUser creates or replaces a user's profile. When the user already
	// exists, the stored EXP fields win over the ones passed in:
	// ApplyExpAward is the only mutator of a user's exp/level state.
	PutUser(ctx context.Context, u model.User) error

	// User returns a user by id. Returns ErrUserNotFound if unknown.
	User(ctx context.Context, id string) (model.User, error)

	// ApplyExpAward runs transform against the user's current EXP state and
	// persists the result as one atomic read-modify-write. This is the only
	// mutator of a user's exp/level fields.
	ApplyExpAward(ctx context.Context, userID string, transform AwardTransform) (exp.AwardResult, error)

	// TopByExp returns up to n users ordered by total EXP descending.
	TopByExp(ctx context.Context, n int) ([]model.User, error)

	// CountUsers returns the number of users tracked.
	CountUsers(ctx context.Context) int
}

// EventStore provides access to event records.
type EventStore interface {
	// PutEvent creates or replaces an event record.
	PutEvent(ctx context.Context, e model.Event) error

	// Event returns an event by id. Returns ErrEventNotFound if unknown.
	Event(ctx context.Context, id string) (model.Event, error)

	// CountEventsInMonth counts events the organizer created in the calendar
	// month containing at. The count is a point-in-time snapshot.
	CountEventsInMonth(ctx context.Context, organizerID string, at time.Time) (int, error)

	// CountPublishedBefore counts the organizer's published events that
	// started before the given time. Feeds the experience bonus.
	CountPublishedBefore(ctx context.Context, organizerID string, before time.Time) (int, error)

	// CompleteEvent transitions an event to completed, recording actual
	// attendance. Returns ErrEventAlreadyCompleted if it already is.
	CompleteEvent(ctx context.Context, id string, actualAttendance int) (model.Event, error)
}

// AuditLog records issued EXP awards.
type AuditLog interface {
	// AppendAward appends one award entry.
	AppendAward(ctx context.Context, award model.ExpAward) error

	// AwardsForUser returns a user's most recent award entries, newest first.
	AwardsForUser(ctx context.Context, userID string, limit int) ([]model.ExpAward, error)
}

// Store is the full persistence surface the service wires against.
type Store interface {
	UserStore
	EventStore
	AuditLog
}
