package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/miyabi-lab/encore/internal/domain/exp"
	"github.com/miyabi-lab/encore/internal/domain/model"
	"github.com/miyabi-lab/encore/pkg/metrics"
)

// Default in-memory store configuration constants.
const (
	defaultShardCount = 8
)

// userShard holds a slice of the user population behind one lock. The shard
// lock is what makes ApplyExpAward a single atomic read-modify-write per
// user.
type userShard struct {
	mu    sync.RWMutex
	users map[string]model.User
}

// MemStore implements Store fully in memory. Users are sharded by id hash;
// events and the audit log sit behind their own locks.
type MemStore struct {
	shardCount int
	shards     []*userShard

	eventsMu sync.RWMutex
	events   map[string]model.Event

	auditMu sync.RWMutex
	audit   map[string][]model.ExpAward // userID -> newest first
}

// NewMemStore creates an in-memory store with configuration options.
func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{
		shardCount: defaultShardCount,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*userShard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &userShard{users: make(map[string]model.User)}
	}
	s.events = make(map[string]model.Event)
	s.audit = make(map[string][]model.ExpAward)

	metrics.UpdateStoreShardCount(s.shardCount)

	return s
}

// shardFor picks the shard owning a user id.
func (s *MemStore) shardFor(userID string) *userShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return s.shards[int(h.Sum32())&(s.shardCount-1)]
}

// PutUser creates or replaces a user's profile. On update the stored EXP
// fields are preserved; ApplyExpAward is the only EXP mutator.
func (s *MemStore) PutUser(_ context.Context, u model.User) error {
	shard := s.shardFor(u.ID)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if existing, ok := shard.users[u.ID]; ok {
		u.TotalExp = existing.TotalExp
		u.CurrentLevel = existing.CurrentLevel
	}
	shard.users[u.ID] = u
	return nil
}

// User returns a user by id.
func (s *MemStore) User(_ context.Context, id string) (model.User, error) {
	shard := s.shardFor(id)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	u, ok := shard.users[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

// ApplyExpAward applies transform under the user's shard lock so two
// concurrent awards cannot lose an update.
func (s *MemStore) ApplyExpAward(_ context.Context, userID string, transform AwardTransform) (exp.AwardResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	shard := s.shardFor(userID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	u, ok := shard.users[userID]
	if !ok {
		return exp.AwardResult{}, ErrUserNotFound
	}

	next, result := transform(exp.State{TotalExp: u.TotalExp, CurrentLevel: u.CurrentLevel})
	u.TotalExp = next.TotalExp
	u.CurrentLevel = next.CurrentLevel
	shard.users[userID] = u

	return result, nil
}

// TopByExp returns up to n users ordered by total EXP descending, ties broken
// by user id for a stable order. A full scan is fine at the cardinality this
// store is meant for.
func (s *MemStore) TopByExp(_ context.Context, n int) ([]model.User, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	var all []model.User
	for _, shard := range s.shards {
		shard.mu.RLock()
		for _, u := range shard.users {
			all = append(all, u)
		}
		shard.mu.RUnlock()
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].TotalExp != all[j].TotalExp {
			return all[i].TotalExp > all[j].TotalExp
		}
		return all[i].ID < all[j].ID
	})

	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// CountUsers returns the number of users tracked.
func (s *MemStore) CountUsers(_ context.Context) int {
	total := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		total += len(shard.users)
		shard.mu.RUnlock()
	}
	return total
}

// PutEvent creates or replaces an event record.
func (s *MemStore) PutEvent(_ context.Context, e model.Event) error {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	s.events[e.ID] = e
	return nil
}

// Event returns an event by id.
func (s *MemStore) Event(_ context.Context, id string) (model.Event, error) {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	return e, nil
}

// CountEventsInMonth counts the organizer's events created in the calendar
// month containing at.
func (s *MemStore) CountEventsInMonth(_ context.Context, organizerID string, at time.Time) (int, error) {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()

	year, month, _ := at.Date()
	count := 0
	for _, e := range s.events {
		if e.OrganizerID != organizerID {
			continue
		}
		ey, em, _ := e.CreatedAt.Date()
		if ey == year && em == month {
			count++
		}
	}
	return count, nil
}

// CountPublishedBefore counts the organizer's published events that started
// before the given time.
func (s *MemStore) CountPublishedBefore(_ context.Context, organizerID string, before time.Time) (int, error) {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()

	count := 0
	for _, e := range s.events {
		if e.OrganizerID == organizerID && e.Status == model.StatusPublished && e.StartAt.Before(before) {
			count++
		}
	}
	return count, nil
}

// CompleteEvent transitions an event to completed and records attendance.
func (s *MemStore) CompleteEvent(_ context.Context, id string, actualAttendance int) (model.Event, error) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	if e.Status == model.StatusCompleted {
		return model.Event{}, ErrEventAlreadyCompleted
	}

	e.Status = model.StatusCompleted
	e.ActualAttendance = actualAttendance
	s.events[id] = e
	return e, nil
}

// AppendAward appends one award entry, newest first.
func (s *MemStore) AppendAward(_ context.Context, award model.ExpAward) error {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	s.audit[award.UserID] = append([]model.ExpAward{award}, s.audit[award.UserID]...)
	metrics.RecordAuditAppend()
	return nil
}

// AwardsForUser returns a user's most recent award entries.
func (s *MemStore) AwardsForUser(_ context.Context, userID string, limit int) ([]model.ExpAward, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	s.auditMu.RLock()
	defer s.auditMu.RUnlock()

	entries := s.audit[userID]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]model.ExpAward, len(entries))
	copy(out, entries)
	return out, nil
}
