package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miyabi-lab/encore/internal/domain/exp"
	"github.com/miyabi-lab/encore/internal/domain/model"
	"github.com/miyabi-lab/encore/pkg/metrics"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore implements Store on Postgres via pgx. The per-user atomic
// read-modify-write of EXP state is a row lock inside a transaction.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool, verifies the connection, and applies the
// embedded schema (all statements are IF NOT EXISTS, so reconnects are safe).
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	// Simple protocol: the schema file holds multiple statements.
	if _, err := pool.Exec(ctx, schemaSQL, pgx.QueryExecModeSimpleProtocol); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// PutUser creates or replaces a user's profile. The EXP columns are written
// on insert only; the conflict path leaves them alone so a profile upsert can
// never race ApplyExpAward.
func (s *PostgresStore) PutUser(ctx context.Context, u model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, display_name, fan_count, subscription, total_exp, current_level)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			fan_count = EXCLUDED.fan_count,
			subscription = EXCLUDED.subscription`,
		u.ID, u.DisplayName, u.FanCount, u.Subscription, u.TotalExp, u.CurrentLevel)
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// User returns a user by id.
func (s *PostgresStore) User(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, display_name, fan_count, subscription, total_exp, current_level
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.DisplayName, &u.FanCount, &u.Subscription, &u.TotalExp, &u.CurrentLevel)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ApplyExpAward locks the user's row for the duration of the transform so
// concurrent awards serialize instead of overwriting each other.
func (s *PostgresStore) ApplyExpAward(ctx context.Context, userID string, transform AwardTransform) (exp.AwardResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return exp.AwardResult{}, fmt.Errorf("begin award tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var state exp.State
	err = tx.QueryRow(ctx, `
		SELECT total_exp, current_level FROM users WHERE id = $1 FOR UPDATE`, userID).
		Scan(&state.TotalExp, &state.CurrentLevel)
	if errors.Is(err, pgx.ErrNoRows) {
		return exp.AwardResult{}, ErrUserNotFound
	}
	if err != nil {
		return exp.AwardResult{}, fmt.Errorf("lock user row: %w", err)
	}

	next, result := transform(state)

	if _, err := tx.Exec(ctx, `
		UPDATE users SET total_exp = $2, current_level = $3 WHERE id = $1`,
		userID, next.TotalExp, next.CurrentLevel); err != nil {
		return exp.AwardResult{}, fmt.Errorf("update exp state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return exp.AwardResult{}, fmt.Errorf("commit award tx: %w", err)
	}
	return result, nil
}

// TopByExp returns up to n users ordered by total EXP descending.
func (s *PostgresStore) TopByExp(ctx context.Context, n int) ([]model.User, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, display_name, fan_count, subscription, total_exp, current_level
		FROM users ORDER BY total_exp DESC, id ASC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("top by exp: %w", err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.FanCount, &u.Subscription, &u.TotalExp, &u.CurrentLevel); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top by exp rows: %w", err)
	}
	return out, nil
}

// CountUsers returns the number of users tracked.
func (s *PostgresStore) CountUsers(ctx context.Context) int {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return 0
	}
	return count
}

// PutEvent creates or replaces an event record.
func (s *PostgresStore) PutEvent(ctx context.Context, e model.Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO events (id, organizer_id, title, description, capacity, ticket_price,
			is_free, status, start_at, end_at, created_at, actual_attendance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			capacity = EXCLUDED.capacity,
			ticket_price = EXCLUDED.ticket_price,
			is_free = EXCLUDED.is_free,
			status = EXCLUDED.status,
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			actual_attendance = EXCLUDED.actual_attendance`,
		e.ID, e.OrganizerID, e.Title, e.Description, e.Capacity, e.TicketPrice,
		e.IsFree, e.Status, e.StartAt, e.EndAt, e.CreatedAt, e.ActualAttendance)
	if err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

// Event returns an event by id.
func (s *PostgresStore) Event(ctx context.Context, id string) (model.Event, error) {
	var e model.Event
	err := s.pool.QueryRow(ctx, `
		SELECT id, organizer_id, title, description, capacity, ticket_price,
			is_free, status, start_at, end_at, created_at, actual_attendance
		FROM events WHERE id = $1`, id).
		Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Capacity, &e.TicketPrice,
			&e.IsFree, &e.Status, &e.StartAt, &e.EndAt, &e.CreatedAt, &e.ActualAttendance)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// CountEventsInMonth counts the organizer's events created in the calendar
// month containing at.
func (s *PostgresStore) CountEventsInMonth(ctx context.Context, organizerID string, at time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM events
		WHERE organizer_id = $1 AND date_trunc('month', created_at) = date_trunc('month', $2::timestamptz)`,
		organizerID, at).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events in month: %w", err)
	}
	return count, nil
}

// CountPublishedBefore counts the organizer's published events that started
// before the given time.
func (s *PostgresStore) CountPublishedBefore(ctx context.Context, organizerID string, before time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM events
		WHERE organizer_id = $1 AND status = $2 AND start_at < $3`,
		organizerID, model.StatusPublished, before).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count published: %w", err)
	}
	return count, nil
}

// CompleteEvent transitions an event to completed and records attendance.
func (s *PostgresStore) CompleteEvent(ctx context.Context, id string, actualAttendance int) (model.Event, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE events SET status = $2, actual_attendance = $3
		WHERE id = $1 AND status <> $2`,
		id, model.StatusCompleted, actualAttendance)
	if err != nil {
		return model.Event{}, fmt.Errorf("complete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either missing or already completed; look it up to tell which.
		e, lookupErr := s.Event(ctx, id)
		if lookupErr != nil {
			return model.Event{}, lookupErr
		}
		if e.Status == model.StatusCompleted {
			return model.Event{}, ErrEventAlreadyCompleted
		}
		return model.Event{}, ErrEventNotFound
	}
	return s.Event(ctx, id)
}

// AppendAward appends one award entry.
func (s *PostgresStore) AppendAward(ctx context.Context, award model.ExpAward) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO exp_awards (id, user_id, previous_level, new_level, previous_exp,
			new_exp, exp_gained, leveled_up, reason, awarded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		award.ID, award.UserID, award.PreviousLevel, award.NewLevel, award.PreviousExp,
		award.NewExp, award.ExpGained, award.LeveledUp, award.Reason, award.AwardedAt)
	if err != nil {
		return fmt.Errorf("append award: %w", err)
	}
	metrics.RecordAuditAppend()
	return nil
}

// AwardsForUser returns a user's most recent award entries.
func (s *PostgresStore) AwardsForUser(ctx context.Context, userID string, limit int) ([]model.ExpAward, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, previous_level, new_level, previous_exp,
			new_exp, exp_gained, leveled_up, reason, awarded_at
		FROM exp_awards WHERE user_id = $1
		ORDER BY awarded_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("awards for user: %w", err)
	}
	defer rows.Close()

	var out []model.ExpAward
	for rows.Next() {
		var a model.ExpAward
		if err := rows.Scan(&a.ID, &a.UserID, &a.PreviousLevel, &a.NewLevel, &a.PreviousExp,
			&a.NewExp, &a.ExpGained, &a.LeveledUp, &a.Reason, &a.AwardedAt); err != nil {
			return nil, fmt.Errorf("scan award: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("awards rows: %w", err)
	}
	return out, nil
}
