// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	auditqueue "github.com/miyabi-lab/encore/internal/adapters/mq/queue"
	auditworker "github.com/miyabi-lab/encore/internal/adapters/mq/worker"
	"github.com/miyabi-lab/encore/internal/adapters/repository"
	"github.com/miyabi-lab/encore/internal/domain/exp"
	"github.com/miyabi-lab/encore/internal/domain/model"
	"github.com/miyabi-lab/encore/internal/domain/once"
	"github.com/miyabi-lab/encore/internal/domain/plan"
	"github.com/miyabi-lab/encore/internal/domain/prediction"
	"github.com/miyabi-lab/encore/internal/domain/projection"
	"github.com/miyabi-lab/encore/internal/domain/types"
	"github.com/miyabi-lab/encore/pkg/logger"
	"github.com/miyabi-lab/encore/pkg/metrics"

	"github.com/google/uuid"
)

// recentAwardsLimit bounds the history returned by UserExp.
const recentAwardsLimit = 10

// Service implements the API dependencies for the projection and reward
// engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	guard      once.Guard
	auditQueue auditqueue.Queue
	writerPool *auditworker.Pool
	attendance *projection.AttendanceProjector

	// Configuration
	storeBackend     string
	postgresDSN      string
	shardCount       int
	auditQueueSize   int
	auditWriterCount int
	guardSize        int

	// State
	started bool
	now     func() time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a pre-built store, overriding the configured backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPostgres selects the postgres backend with the given DSN.
func WithPostgres(dsn string) Option {
	return func(s *Service) {
		if dsn != "" {
			s.storeBackend = "postgres"
			s.postgresDSN = dsn
		}
	}
}

// WithShardCount sets the user shard count of the in-memory store.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithAuditQueueSize sets the capacity of the audit queue.
func WithAuditQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.auditQueueSize = size
		}
	}
}

// WithAuditWriterCount sets the number of audit writer goroutines.
func WithAuditWriterCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.auditWriterCount = count
		}
	}
}

// WithGuardSize sets the size of the completion idempotency guard.
func WithGuardSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.guardSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock injects the time source. Tests pin this for deterministic
// month boundaries and lead times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeBackend:     "memory",
		shardCount:       8,
		auditQueueSize:   10_000,
		auditWriterCount: max(2, runtime.NumCPU()/2),
		guardSize:        50_000,
		now:              time.Now,
		logger:           nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting projection service...")

	if s.store == nil {
		switch s.storeBackend {
		case "postgres":
			store, err := repository.NewPostgresStore(ctx, s.postgresDSN)
			if err != nil {
				return err
			}
			s.store = store
			s.logger.Info(ctx, "using postgres store")
		default:
			s.store = repository.NewMemStore(
				repository.WithShardCount(s.shardCount),
			)
			s.logger.Info(ctx, "using in-memory store")
		}
	}

	s.guard = once.NewInMemoryGuard(
		once.WithMaxSize(s.guardSize),
	)
	s.attendance = projection.NewAttendanceProjector()
	s.auditQueue = auditqueue.NewInMemoryQueue(
		auditqueue.WithCapacity(s.auditQueueSize),
	)

	recorder := auditworker.NewRecorder(s.store)
	s.writerPool = auditworker.NewPool(s.auditWriterCount, s.auditQueue, recorder)
	s.writerPool.Start(ctx)
	metrics.UpdateWorkerCount(s.auditWriterCount)

	s.started = true
	s.logger.Info(ctx, "projection service started",
		logger.String("store", s.storeBackend),
		logger.Int("auditWriters", s.auditWriterCount),
		logger.Int("auditQueueSize", s.auditQueueSize),
		logger.Int("guardSize", s.guardSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping projection service...")

	// Close the queue first so writers can drain the remaining entries.
	if q, ok := s.auditQueue.(*auditqueue.InMemoryQueue); ok {
		_ = q.Close()
	}
	if s.writerPool != nil {
		s.writerPool.Stop()
	}
	metrics.UpdateWorkerCount(0)

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "projection service stopped")
}

// ClaimOnce claims an idempotency key. Returns false if it was already held.
func (s *Service) ClaimOnce(ctx context.Context, key string) bool {
	return s.guard.ClaimOnce(ctx, key)
}

// Release frees an idempotency key so the operation can be retried.
func (s *Service) Release(ctx context.Context, key string) {
	s.guard.Release(ctx, key)
}

// Size returns the number of held idempotency keys.
func (s *Service) Size() int64 {
	if s.guard == nil {
		return 0
	}
	return s.guard.Size()
}

// CreateEvent gates the draft against the organizer's plan, stores it as a
// published event, and grants the creation EXP.
func (s *Service) CreateEvent(ctx context.Context, draft types.EventDraft) (types.EventCreation, error) {
	organizer, err := s.store.User(ctx, draft.OrganizerID)
	if err != nil {
		return types.EventCreation{}, err
	}

	tier := plan.Resolve(organizer.Subscription)
	created, err := s.store.CountEventsInMonth(ctx, draft.OrganizerID, s.now())
	if err != nil {
		return types.EventCreation{}, err
	}

	capacity := draft.Capacity
	if err := plan.CheckCreation(plan.CreationRequest{
		Tier:              tier,
		EventsThisMonth:   created,
		RequestedCapacity: &capacity,
		IsFree:            draft.IsFree,
	}); err != nil {
		var denied *plan.DeniedError
		if errors.As(err, &denied) {
			metrics.RecordCreationDenied(string(denied.Reason))
			s.logger.Info(ctx, "event creation denied",
				logger.String("organizerID", draft.OrganizerID),
				logger.String("tier", string(tier)),
				logger.String("reason", string(denied.Reason)),
			)
		}
		return types.EventCreation{}, err
	}

	past, err := s.store.CountPublishedBefore(ctx, draft.OrganizerID, s.now())
	if err != nil {
		return types.EventCreation{}, err
	}

	attendance := s.attendance.Project(projection.AttendanceInput{
		FanCount:        organizer.FanCount,
		Capacity:        draft.Capacity,
		PastEventsCount: past,
	})
	metrics.RecordProjection("attendance")

	financial := projection.ProjectFinancials(projection.FinancialInput{
		Capacity:           draft.Capacity,
		TicketPrice:        draft.TicketPrice,
		VenueCost:          draft.VenueCost,
		MarketingCost:      draft.MarketingCost,
		OtherCosts:         draft.OtherCosts,
		IsFree:             draft.IsFree,
		ExpectedAttendance: attendance.ExpectedAttendance,
	})
	metrics.RecordProjection("financial")

	event := model.Event{
		ID:          uuid.NewString(),
		OrganizerID: draft.OrganizerID,
		Title:       draft.Title,
		Description: draft.Description,
		Capacity:    draft.Capacity,
		TicketPrice: draft.TicketPrice,
		IsFree:      draft.IsFree,
		Status:      model.StatusPublished,
		StartAt:     draft.StartAt,
		EndAt:       draft.EndAt,
		CreatedAt:   s.now(),
	}
	if err := s.store.PutEvent(ctx, event); err != nil {
		return types.EventCreation{}, err
	}
	metrics.RecordEventCreated()

	award, err := s.store.ApplyExpAward(ctx, organizer.ID, exp.AwardCreation)
	if err != nil {
		return types.EventCreation{}, err
	}
	metrics.RecordExpAwarded(award.ExpGained, award.LeveledUp)
	s.enqueueAudit(ctx, organizer.ID, award)

	s.logger.Debug(ctx, "event created",
		logger.String("eventID", event.ID),
		logger.String("organizerID", organizer.ID),
		logger.Int("expectedAttendance", attendance.ExpectedAttendance),
	)

	return types.EventCreation{
		Event:              toEventSummary(event),
		Attendance:         toAttendanceProjection(attendance),
		Financial:          toFinancialProjection(financial, attendance.ExpectedAttendance),
		ExpAward:           toExpAwardResult(award),
		RemainingThisMonth: plan.RemainingThisMonth(tier, created+1),
	}, nil
}

// CompleteEvent closes out an event, records actual attendance, and awards
// success EXP based on the fill rate.
func (s *Service) CompleteEvent(ctx context.Context, eventID, organizerID string, actualAttendance int) (types.EventCompletion, error) {
	if actualAttendance < 0 {
		return types.EventCompletion{}, ErrInvalidAttendance
	}

	event, err := s.store.Event(ctx, eventID)
	if err != nil {
		return types.EventCompletion{}, err
	}
	if event.OrganizerID != organizerID {
		return types.EventCompletion{}, ErrNotOrganizer
	}

	completed, err := s.store.CompleteEvent(ctx, eventID, actualAttendance)
	if err != nil {
		return types.EventCompletion{}, err
	}
	metrics.RecordEventCompleted()

	capacity := completed.Capacity
	if capacity < 1 {
		capacity = 1
	}
	rate := float64(actualAttendance) / float64(capacity)

	award, err := s.store.ApplyExpAward(ctx, organizerID, func(state exp.State) (exp.State, exp.AwardResult) {
		return exp.AwardSuccess(state, rate)
	})
	if err != nil {
		return types.EventCompletion{}, err
	}
	metrics.RecordExpAwarded(award.ExpGained, award.LeveledUp)
	s.enqueueAudit(ctx, organizerID, award)

	s.logger.Debug(ctx, "event completed",
		logger.String("eventID", eventID),
		logger.Float64("attendanceRate", rate),
		logger.Int("expGained", award.ExpGained),
	)

	return types.EventCompletion{
		EventID:          eventID,
		ActualAttendance: actualAttendance,
		Capacity:         completed.Capacity,
		AttendanceRate:   rate,
		ExpAward:         toExpAwardResult(award),
	}, nil
}

// ProjectFinancials computes a standalone forecast. When the query does not
// state an expected attendance it is derived from the organizer's audience.
func (s *Service) ProjectFinancials(ctx context.Context, q types.FinancialQuery) (types.FinancialProjection, error) {
	var expected int
	if q.ExpectedAttendance != nil {
		expected = *q.ExpectedAttendance
	} else {
		organizer, err := s.store.User(ctx, q.OrganizerID)
		if err != nil {
			return types.FinancialProjection{}, err
		}
		past, err := s.store.CountPublishedBefore(ctx, q.OrganizerID, s.now())
		if err != nil {
			return types.FinancialProjection{}, err
		}
		attendance := s.attendance.Project(projection.AttendanceInput{
			FanCount:        organizer.FanCount,
			Capacity:        q.Capacity,
			PastEventsCount: past,
		})
		metrics.RecordProjection("attendance")
		expected = attendance.ExpectedAttendance
	}

	financial := projection.ProjectFinancials(projection.FinancialInput{
		Capacity:           q.Capacity,
		TicketPrice:        q.TicketPrice,
		VenueCost:          q.VenueCost,
		MarketingCost:      q.MarketingCost,
		OtherCosts:         q.OtherCosts,
		IsFree:             q.IsFree,
		ExpectedAttendance: expected,
	})
	metrics.RecordProjection("financial")

	return toFinancialProjection(financial, expected), nil
}

// PredictSuccess scores a prospective listing.
func (s *Service) PredictSuccess(ctx context.Context, in prediction.Input) (prediction.Result, error) {
	if in.Now.IsZero() {
		in.Now = s.now()
	}
	metrics.RecordProjection("prediction")
	return prediction.Predict(in), nil
}

// PlanInfo describes a subscription tier's limits. Unknown tiers resolve to
// the free plan.
func (s *Service) PlanInfo(_ context.Context, rawTier string) (types.PlanInfo, error) {
	tier := plan.Resolve(rawTier)
	limits := plan.LimitsFor(tier)
	return types.PlanInfo{
		Tier:                   string(tier),
		MaxEventsPerMonth:      limits.MaxEventsPerMonth,
		MaxCapacity:            limits.MaxCapacity,
		CanUsePaidEvents:       limits.CanUsePaidEvents,
		CanUseAdvancedFeatures: limits.CanUseAdvancedFeatures,
		Description:            limits.Description,
	}, nil
}

// RegisterUser upserts the user slice the engine tracks. EXP state survives
// re-registration; only profile fields are replaced.
func (s *Service) RegisterUser(ctx context.Context, reg types.UserRegistration) (types.UserExp, error) {
	id := reg.ID
	if id == "" {
		id = uuid.NewString()
	}

	// Seed values apply on first insert only; the store preserves existing
	// EXP state on update, so a re-registration cannot clobber awards.
	seed := exp.NewState()
	user := model.User{
		ID:           id,
		DisplayName:  reg.DisplayName,
		FanCount:     reg.FanCount,
		Subscription: reg.Subscription,
		TotalExp:     seed.TotalExp,
		CurrentLevel: seed.CurrentLevel,
	}
	if err := s.store.PutUser(ctx, user); err != nil {
		return types.UserExp{}, err
	}

	stored, err := s.store.User(ctx, id)
	if err != nil {
		return types.UserExp{}, err
	}
	return types.UserExp{
		UserID:       id,
		DisplayName:  stored.DisplayName,
		TotalExp:     stored.TotalExp,
		CurrentLevel: stored.CurrentLevel,
		NextLevelExp: exp.NextLevelRequirement(stored.CurrentLevel),
	}, nil
}

// UserExp returns a user's gamification state plus recent award history.
func (s *Service) UserExp(ctx context.Context, userID string) (types.UserExp, error) {
	user, err := s.store.User(ctx, userID)
	if err != nil {
		return types.UserExp{}, err
	}
	awards, err := s.store.AwardsForUser(ctx, userID, recentAwardsLimit)
	if err != nil {
		return types.UserExp{}, err
	}

	records := make([]types.AwardRecord, len(awards))
	for i, a := range awards {
		records[i] = types.AwardRecord{
			ExpGained: a.ExpGained,
			Reason:    a.Reason,
			LeveledUp: a.LeveledUp,
			AwardedAt: a.AwardedAt,
		}
	}

	return types.UserExp{
		UserID:       user.ID,
		DisplayName:  user.DisplayName,
		TotalExp:     user.TotalExp,
		CurrentLevel: user.CurrentLevel,
		NextLevelExp: exp.NextLevelRequirement(user.CurrentLevel),
		RecentAwards: records,
	}, nil
}

// Leaderboard returns up to limit creators ordered by total EXP.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]types.LeaderboardEntry, error) {
	users, err := s.store.TopByExp(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]types.LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = types.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      u.ID,
			DisplayName: u.DisplayName,
			TotalExp:    u.TotalExp,
			Level:       u.CurrentLevel,
		}
	}
	return entries, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"storeBackend":     s.storeBackend,
		"auditWriterCount": s.auditWriterCount,
		"auditQueueSize":   s.auditQueueSize,
		"guardSize":        s.guardSize,
	}

	if s.started {
		queueLen := s.auditQueue.Len(ctx)
		totalUsers := s.store.CountUsers(ctx)

		stats["auditQueueLength"] = queueLen
		stats["totalUsers"] = totalUsers
		stats["claimedKeys"] = s.guard.Size()

		metrics.UpdateAuditQueueSize(queueLen)
	}

	return stats
}

// enqueueAudit hands an award off to the async audit pipeline. Drops are
// counted by the queue; the award itself has already been applied.
func (s *Service) enqueueAudit(ctx context.Context, userID string, award exp.AwardResult) {
	entry := model.ExpAward{
		ID:            uuid.NewString(),
		UserID:        userID,
		PreviousLevel: award.PreviousLevel,
		NewLevel:      award.NewLevel,
		PreviousExp:   award.PreviousExp,
		NewExp:        award.NewExp,
		ExpGained:     award.ExpGained,
		LeveledUp:     award.LeveledUp,
		Reason:        award.Reason,
		AwardedAt:     s.now(),
	}
	if !s.auditQueue.Enqueue(ctx, entry) {
		s.logger.Warn(ctx, "audit queue full; dropping award entry",
			logger.String("userID", userID),
			logger.String("reason", award.Reason),
		)
	}
}

func toEventSummary(e model.Event) types.EventSummary {
	return types.EventSummary{
		ID:          e.ID,
		OrganizerID: e.OrganizerID,
		Title:       e.Title,
		Capacity:    e.Capacity,
		TicketPrice: e.TicketPrice,
		IsFree:      e.IsFree,
		Status:      string(e.Status),
		StartAt:     e.StartAt,
		CreatedAt:   e.CreatedAt,
	}
}

func toAttendanceProjection(a projection.Attendance) types.AttendanceProjection {
	return types.AttendanceProjection{
		ExpectedAttendance: a.ExpectedAttendance,
		ParticipationRate:  a.ParticipationRate,
		ExperienceBonus:    a.ExperienceBonus,
		Method:             a.Method,
		CapacityClamped:    a.CapacityClamped,
	}
}

func toFinancialProjection(f projection.Financial, expected int) types.FinancialProjection {
	return types.FinancialProjection{
		TotalRevenue:        f.TotalRevenue,
		TotalCosts:          f.TotalCosts,
		Profit:              f.Profit,
		ProfitMargin:        f.ProfitMargin,
		BreakEvenAttendance: f.BreakEvenAttendance,
		ExpectedAttendance:  expected,
		Warnings:            f.Warnings,
	}
}

func toExpAwardResult(a exp.AwardResult) types.ExpAwardResult {
	return types.ExpAwardResult{
		PreviousLevel: a.PreviousLevel,
		NewLevel:      a.NewLevel,
		PreviousExp:   a.PreviousExp,
		NewExp:        a.NewExp,
		ExpGained:     a.ExpGained,
		LeveledUp:     a.LeveledUp,
		Reason:        a.Reason,
	}
}
