package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repository "github.com/miyabi-lab/encore/internal/adapters/repository"
	service "github.com/miyabi-lab/encore/internal/app"
	"github.com/miyabi-lab/encore/internal/domain/model"
	"github.com/miyabi-lab/encore/internal/domain/plan"
	"github.com/miyabi-lab/encore/internal/domain/prediction"
	"github.com/miyabi-lab/encore/internal/domain/types"
	"github.com/miyabi-lab/encore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// waitFor polls cond until it holds or the deadline passes. The audit
// pipeline is asynchronous, so history assertions need it.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func startService(t *testing.T, users ...model.User) *service.Service {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemStore()
	for _, u := range users {
		if err := store.PutUser(ctx, u); err != nil {
			t.Fatalf("seed user %s: %v", u.ID, err)
		}
	}
	svc := service.New(
		service.WithStore(store),
		service.WithAuditWriterCount(2),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func freeDraft(organizerID string) types.EventDraft {
	return types.EventDraft{
		OrganizerID: organizerID,
		Title:       "Acoustic Night",
		Capacity:    30,
		IsFree:      true,
		StartAt:     time.Now().Add(45 * 24 * time.Hour),
	}
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := startService(t)

		Convey("Then starting again is a no-op", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
		})

		Convey("Then stats report the running state", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["storeBackend"], ShouldEqual, "memory")
			So(stats["totalUsers"], ShouldEqual, 0)
		})

		Convey("Then stopping twice is safe", func() {
			svc.Stop()
			svc.Stop()
		})
	})
}

func TestCreateEvent(t *testing.T) {
	Convey("Given a free-tier organizer with no fans", t, func() {
		svc := startService(t, model.User{
			ID:           "org-free",
			DisplayName:  "Mio",
			Subscription: "free",
			CurrentLevel: 1,
		})
		ctx := context.Background()

		Convey("When creating a free event", func() {
			created, err := svc.CreateEvent(ctx, freeDraft("org-free"))

			Convey("Then the event is published with projections and EXP", func() {
				So(err, ShouldBeNil)
				So(created.Event.ID, ShouldNotBeEmpty)
				So(created.Event.Status, ShouldEqual, "published")

				// No fans: 30% of capacity.
				So(created.Attendance.ExpectedAttendance, ShouldEqual, 9)

				// Free event: no revenue, no costs entered.
				So(created.Financial.TotalRevenue, ShouldEqual, 0)

				So(created.ExpAward.ExpGained, ShouldEqual, 50)
				So(created.ExpAward.NewLevel, ShouldEqual, 1)
				So(created.ExpAward.LeveledUp, ShouldBeFalse)

				So(created.RemainingThisMonth, ShouldNotBeNil)
				So(*created.RemainingThisMonth, ShouldEqual, 1)
			})
		})

		Convey("When the monthly quota is exhausted", func() {
			_, err := svc.CreateEvent(ctx, freeDraft("org-free"))
			So(err, ShouldBeNil)
			_, err = svc.CreateEvent(ctx, freeDraft("org-free"))
			So(err, ShouldBeNil)

			_, err = svc.CreateEvent(ctx, freeDraft("org-free"))

			Convey("Then the third create is denied for quota", func() {
				var denied *plan.DeniedError
				So(errors.As(err, &denied), ShouldBeTrue)
				So(denied.Reason, ShouldEqual, plan.ReasonQuotaExceeded)
			})
		})

		Convey("When the capacity exceeds the free cap", func() {
			draft := freeDraft("org-free")
			draft.Capacity = 51

			_, err := svc.CreateEvent(ctx, draft)

			Convey("Then the create is denied for capacity", func() {
				var denied *plan.DeniedError
				So(errors.As(err, &denied), ShouldBeTrue)
				So(denied.Reason, ShouldEqual, plan.ReasonCapacityExceeded)
			})
		})

		Convey("When a free-tier organizer tries a paid event", func() {
			draft := freeDraft("org-free")
			draft.IsFree = false
			draft.TicketPrice = 25

			_, err := svc.CreateEvent(ctx, draft)

			Convey("Then the create is denied for paid access", func() {
				var denied *plan.DeniedError
				So(errors.As(err, &denied), ShouldBeTrue)
				So(denied.Reason, ShouldEqual, plan.ReasonPaidNotAllowed)
			})
		})

		Convey("When the organizer is unknown", func() {
			_, err := svc.CreateEvent(ctx, freeDraft("ghost"))

			So(errors.Is(err, repository.ErrUserNotFound), ShouldBeTrue)
		})
	})

	Convey("Given an organizer with an established audience", t, func() {
		svc := startService(t, model.User{
			ID:           "org-pro",
			DisplayName:  "Rin",
			FanCount:     500,
			Subscription: "pro",
			CurrentLevel: 1,
		})
		ctx := context.Background()

		Convey("When creating a paid event", func() {
			draft := types.EventDraft{
				OrganizerID: "org-pro",
				Title:       "Studio Live Session",
				Capacity:    100,
				TicketPrice: 40,
				StartAt:     time.Now().Add(45 * 24 * time.Hour),
				VenueCost:   800,
			}

			created, err := svc.CreateEvent(ctx, draft)

			Convey("Then attendance uses the mid-community rate", func() {
				So(err, ShouldBeNil)
				// 500 fans, no past events: int(500 * 0.10) = 50.
				So(created.Attendance.ExpectedAttendance, ShouldEqual, 50)
				So(created.Financial.TotalRevenue, ShouldEqual, 2000)
				So(created.RemainingThisMonth, ShouldBeNil)
			})
		})
	})
}

func TestCompleteEvent(t *testing.T) {
	Convey("Given a premium organizer with a published event", t, func() {
		svc := startService(t, model.User{
			ID:           "org-1",
			DisplayName:  "Yui",
			FanCount:     50,
			Subscription: "premium",
			CurrentLevel: 1,
		})
		ctx := context.Background()
		created, err := svc.CreateEvent(ctx, types.EventDraft{
			OrganizerID: "org-1",
			Title:       "Fan Meetup",
			Capacity:    50,
			IsFree:      true,
			StartAt:     time.Now().Add(10 * 24 * time.Hour),
		})
		So(err, ShouldBeNil)
		eventID := created.Event.ID

		Convey("When the event sells out", func() {
			completed, err := svc.CompleteEvent(ctx, eventID, "org-1", 50)

			Convey("Then the sold-out reward applies and levels the organizer up", func() {
				So(err, ShouldBeNil)
				So(completed.AttendanceRate, ShouldEqual, 1.0)
				So(completed.ExpAward.ExpGained, ShouldEqual, 500)
				// 50 creation + 500 success = 550 total, level 3.
				So(completed.ExpAward.NewExp, ShouldEqual, 550)
				So(completed.ExpAward.NewLevel, ShouldEqual, 3)
				So(completed.ExpAward.LeveledUp, ShouldBeTrue)
			})

			Convey("And completing again fails", func() {
				_, err := svc.CompleteEvent(ctx, eventID, "org-1", 50)

				So(errors.Is(err, repository.ErrEventAlreadyCompleted), ShouldBeTrue)
			})
		})

		Convey("When attendance lands under ten percent", func() {
			completed, err := svc.CompleteEvent(ctx, eventID, "org-1", 4)

			Convey("Then no EXP is granted but the completion succeeds", func() {
				So(err, ShouldBeNil)
				So(completed.ExpAward.ExpGained, ShouldEqual, 0)
				So(completed.ExpAward.NewExp, ShouldEqual, 50)
				So(completed.ExpAward.LeveledUp, ShouldBeFalse)
			})
		})

		Convey("When someone else tries to complete it", func() {
			_, err := svc.CompleteEvent(ctx, eventID, "org-2", 50)

			So(errors.Is(err, service.ErrNotOrganizer), ShouldBeTrue)
		})

		Convey("When the attendance is negative", func() {
			_, err := svc.CompleteEvent(ctx, eventID, "org-1", -1)

			So(errors.Is(err, service.ErrInvalidAttendance), ShouldBeTrue)
		})

		Convey("When the event does not exist", func() {
			_, err := svc.CompleteEvent(ctx, "ghost", "org-1", 10)

			So(errors.Is(err, repository.ErrEventNotFound), ShouldBeTrue)
		})
	})
}

func TestUserExpAndAuditTrail(t *testing.T) {
	Convey("Given an organizer who created an event", t, func() {
		svc := startService(t, model.User{
			ID:           "org-1",
			DisplayName:  "Yui",
			Subscription: "free",
			CurrentLevel: 1,
		})
		ctx := context.Background()
		_, err := svc.CreateEvent(ctx, freeDraft("org-1"))
		So(err, ShouldBeNil)

		Convey("When reading the user's EXP state", func() {
			state, err := svc.UserExp(ctx, "org-1")

			Convey("Then the state reflects the creation grant", func() {
				So(err, ShouldBeNil)
				So(state.TotalExp, ShouldEqual, 50)
				So(state.CurrentLevel, ShouldEqual, 1)
				So(state.NextLevelExp, ShouldEqual, 100)
			})

			Convey("And the audit trail catches up asynchronously", func() {
				ok := waitFor(func() bool {
					s, err := svc.UserExp(ctx, "org-1")
					return err == nil && len(s.RecentAwards) == 1
				})
				So(ok, ShouldBeTrue)

				s, err := svc.UserExp(ctx, "org-1")
				So(err, ShouldBeNil)
				So(s.RecentAwards[0].ExpGained, ShouldEqual, 50)
				So(s.RecentAwards[0].Reason, ShouldEqual, "event created")
			})
		})

		Convey("When reading an unknown user", func() {
			_, err := svc.UserExp(ctx, "ghost")

			So(errors.Is(err, repository.ErrUserNotFound), ShouldBeTrue)
		})
	})
}

func TestLeaderboard(t *testing.T) {
	Convey("Given organizers with different EXP totals", t, func() {
		svc := startService(t,
			model.User{ID: "org-a", DisplayName: "A", Subscription: "pro", CurrentLevel: 1},
			model.User{ID: "org-b", DisplayName: "B", Subscription: "free", CurrentLevel: 1},
		)
		ctx := context.Background()

		// org-a creates two events, org-b one.
		for i := 0; i < 2; i++ {
			_, err := svc.CreateEvent(ctx, freeDraft("org-a"))
			So(err, ShouldBeNil)
		}
		_, err := svc.CreateEvent(ctx, freeDraft("org-b"))
		So(err, ShouldBeNil)

		Convey("When reading the leaderboard", func() {
			entries, err := svc.Leaderboard(ctx, 10)

			Convey("Then creators are ranked by total EXP", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].UserID, ShouldEqual, "org-a")
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].TotalExp, ShouldEqual, 100)
				So(entries[1].UserID, ShouldEqual, "org-b")
				So(entries[1].TotalExp, ShouldEqual, 50)
			})
		})
	})
}

func TestProjectFinancials(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := startService(t, model.User{
			ID:           "org-1",
			FanCount:     0,
			Subscription: "free",
			CurrentLevel: 1,
		})
		ctx := context.Background()

		Convey("When forecasting with explicit attendance", func() {
			expected := 20
			forecast, err := svc.ProjectFinancials(ctx, types.FinancialQuery{
				Capacity:           50,
				TicketPrice:        50,
				VenueCost:          500,
				ExpectedAttendance: &expected,
			})

			Convey("Then the numbers follow the pricing", func() {
				So(err, ShouldBeNil)
				So(forecast.TotalRevenue, ShouldEqual, 1000)
				So(forecast.Profit, ShouldEqual, 500)
				So(forecast.ProfitMargin, ShouldEqual, 50)
				So(forecast.BreakEvenAttendance, ShouldEqual, 11)
			})
		})

		Convey("When attendance is derived from the organizer", func() {
			forecast, err := svc.ProjectFinancials(ctx, types.FinancialQuery{
				OrganizerID: "org-1",
				Capacity:    40,
				IsFree:      true,
			})

			Convey("Then the no-fans default applies", func() {
				So(err, ShouldBeNil)
				// 30% of capacity for an organizer without fans.
				So(forecast.ExpectedAttendance, ShouldEqual, 12)
				So(forecast.TotalRevenue, ShouldEqual, 0)
			})
		})

		Convey("When the organizer is unknown", func() {
			_, err := svc.ProjectFinancials(ctx, types.FinancialQuery{
				OrganizerID: "ghost",
				Capacity:    40,
			})

			So(errors.Is(err, repository.ErrUserNotFound), ShouldBeTrue)
		})
	})
}

func TestPredictAndPlanInfo(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := startService(t)
		ctx := context.Background()

		Convey("When predicting success without a clock", func() {
			result, err := svc.PredictSuccess(ctx, prediction.Input{
				Title:    "Unplugged Rooftop Session",
				Capacity: 40,
				StartAt:  time.Now().Add(60 * 24 * time.Hour),
				IsFree:   true,
			})

			Convey("Then the service injects one and returns a bounded score", func() {
				So(err, ShouldBeNil)
				So(result.SuccessRate, ShouldBeBetweenOrEqual, 20, 95)
			})
		})

		Convey("When asking for a known plan", func() {
			info, err := svc.PlanInfo(ctx, "premium")

			So(err, ShouldBeNil)
			So(info.Tier, ShouldEqual, "premium")
			So(*info.MaxEventsPerMonth, ShouldEqual, 10)
			So(info.CanUsePaidEvents, ShouldBeTrue)
		})

		Convey("When asking for an unknown plan", func() {
			info, err := svc.PlanInfo(ctx, "platinum")

			So(err, ShouldBeNil)
			So(info.Tier, ShouldEqual, "free")
		})
	})
}

func TestRegisterUser(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := startService(t)
		ctx := context.Background()

		Convey("When registering without an id", func() {
			user, err := svc.RegisterUser(ctx, types.UserRegistration{
				DisplayName:  "Mio",
				Subscription: "free",
			})

			Convey("Then an id is minted and the state starts fresh", func() {
				So(err, ShouldBeNil)
				So(user.UserID, ShouldNotBeEmpty)
				So(user.TotalExp, ShouldEqual, 0)
				So(user.CurrentLevel, ShouldEqual, 1)
			})
		})

		Convey("When re-registering an organizer with earned EXP", func() {
			_, err := svc.RegisterUser(ctx, types.UserRegistration{
				ID:           "org-1",
				DisplayName:  "Mio",
				Subscription: "free",
			})
			So(err, ShouldBeNil)
			_, err = svc.CreateEvent(ctx, freeDraft("org-1"))
			So(err, ShouldBeNil)

			updated, err := svc.RegisterUser(ctx, types.UserRegistration{
				ID:           "org-1",
				DisplayName:  "Mio Official",
				FanCount:     250,
				Subscription: "premium",
			})

			Convey("Then profile fields change but EXP survives", func() {
				So(err, ShouldBeNil)
				So(updated.DisplayName, ShouldEqual, "Mio Official")
				So(updated.TotalExp, ShouldEqual, 50)
			})
		})
	})
}

func TestIdempotencyGuard(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := startService(t)
		ctx := context.Background()

		Convey("When claiming the same key twice", func() {
			So(svc.ClaimOnce(ctx, "complete:evt-1"), ShouldBeTrue)
			So(svc.ClaimOnce(ctx, "complete:evt-1"), ShouldBeFalse)

			Convey("And releasing lets it be claimed again", func() {
				svc.Release(ctx, "complete:evt-1")
				So(svc.ClaimOnce(ctx, "complete:evt-1"), ShouldBeTrue)
			})
		})
	})
}
