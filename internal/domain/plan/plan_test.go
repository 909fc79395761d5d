package plan_test

import (
	"errors"
	"testing"

	"github.com/miyabi-lab/encore/internal/domain/plan"
	. "github.com/smartystreets/goconvey/convey"
)

func capOf(v int) *int { return &v }

func TestResolve(t *testing.T) {
	Convey("Given raw subscription identifiers", t, func() {
		Convey("Then known tiers resolve to themselves", func() {
			So(plan.Resolve("free"), ShouldEqual, plan.TierFree)
			So(plan.Resolve("premium"), ShouldEqual, plan.TierPremium)
			So(plan.Resolve("pro"), ShouldEqual, plan.TierPro)
		})

		Convey("And anything else falls back to free", func() {
			So(plan.Resolve(""), ShouldEqual, plan.TierFree)
			So(plan.Resolve("enterprise"), ShouldEqual, plan.TierFree)
			So(plan.Resolve("PRO"), ShouldEqual, plan.TierFree)
		})
	})
}

func TestLimitsFor(t *testing.T) {
	Convey("Given the plan limits table", t, func() {
		Convey("Then the free tier allows 2 events and 50 attendees", func() {
			limits := plan.LimitsFor(plan.TierFree)
			So(*limits.MaxEventsPerMonth, ShouldEqual, 2)
			So(*limits.MaxCapacity, ShouldEqual, 50)
			So(limits.CanUsePaidEvents, ShouldBeFalse)
			So(limits.CanUseAdvancedFeatures, ShouldBeFalse)
		})

		Convey("Then the premium tier allows 10 events and 200 attendees", func() {
			limits := plan.LimitsFor(plan.TierPremium)
			So(*limits.MaxEventsPerMonth, ShouldEqual, 10)
			So(*limits.MaxCapacity, ShouldEqual, 200)
			So(limits.CanUsePaidEvents, ShouldBeTrue)
		})

		Convey("Then the pro tier is unlimited", func() {
			limits := plan.LimitsFor(plan.TierPro)
			So(limits.MaxEventsPerMonth, ShouldBeNil)
			So(limits.MaxCapacity, ShouldBeNil)
			So(limits.CanUsePaidEvents, ShouldBeTrue)
		})

		Convey("And unknown tiers get free limits", func() {
			limits := plan.LimitsFor(plan.Tier("gold"))
			So(*limits.MaxEventsPerMonth, ShouldEqual, 2)
		})
	})
}

func TestRemainingThisMonth(t *testing.T) {
	Convey("Given a tier with a finite monthly quota", t, func() {
		Convey("Then remaining counts down and clamps at zero", func() {
			So(*plan.RemainingThisMonth(plan.TierFree, 0), ShouldEqual, 2)
			So(*plan.RemainingThisMonth(plan.TierFree, 1), ShouldEqual, 1)
			So(*plan.RemainingThisMonth(plan.TierFree, 2), ShouldEqual, 0)
			So(*plan.RemainingThisMonth(plan.TierFree, 5), ShouldEqual, 0)
		})
	})

	Convey("Given an unlimited tier", t, func() {
		Convey("Then remaining is nil", func() {
			So(plan.RemainingThisMonth(plan.TierPro, 1000), ShouldBeNil)
		})
	})
}

func TestCheckCreation(t *testing.T) {
	Convey("Given a free-tier organizer", t, func() {
		Convey("When they are under the monthly quota", func() {
			err := plan.CheckCreation(plan.CreationRequest{
				Tier:            plan.TierFree,
				EventsThisMonth: 1,
				IsFree:          true,
			})

			Convey("Then the creation is allowed", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When they hit the monthly quota exactly", func() {
			err := plan.CheckCreation(plan.CreationRequest{
				Tier:            plan.TierFree,
				EventsThisMonth: 2,
				IsFree:          true,
			})

			Convey("Then the creation is denied for quota", func() {
				var denied *plan.DeniedError
				So(errors.As(err, &denied), ShouldBeTrue)
				So(denied.Reason, ShouldEqual, plan.ReasonQuotaExceeded)
				So(denied.Message, ShouldContainSubstring, "Free plan")
			})
		})

		Convey("When they request capacity beyond the plan cap", func() {
			err := plan.CheckCreation(plan.CreationRequest{
				Tier:              plan.TierFree,
				EventsThisMonth:   0,
				RequestedCapacity: capOf(51),
				IsFree:            true,
			})

			Convey("Then the creation is denied for capacity", func() {
				var denied *plan.DeniedError
				So(errors.As(err, &denied), ShouldBeTrue)
				So(denied.Reason, ShouldEqual, plan.ReasonCapacityExceeded)
			})
		})

		Convey("When the capacity is exactly at the cap", func() {
			err := plan.CheckCreation(plan.CreationRequest{
				Tier:              plan.TierFree,
				EventsThisMonth:   0,
				RequestedCapacity: capOf(50),
				IsFree:            true,
			})

			Convey("Then the creation is allowed", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When they try to create a paid event", func() {
			err := plan.CheckCreation(plan.CreationRequest{
				Tier:            plan.TierFree,
				EventsThisMonth: 0,
				IsFree:          false,
			})

			Convey("Then the creation is denied for paid access", func() {
				var denied *plan.DeniedError
				So(errors.As(err, &denied), ShouldBeTrue)
				So(denied.Reason, ShouldEqual, plan.ReasonPaidNotAllowed)
			})
		})

		Convey("When quota and paid access both fail", func() {
			err := plan.CheckCreation(plan.CreationRequest{
				Tier:            plan.TierFree,
				EventsThisMonth: 2,
				IsFree:          false,
			})

			Convey("Then the quota check wins (first failing check)", func() {
				var denied *plan.DeniedError
				So(errors.As(err, &denied), ShouldBeTrue)
				So(denied.Reason, ShouldEqual, plan.ReasonQuotaExceeded)
			})
		})
	})

	Convey("Given a premium organizer", t, func() {
		Convey("When they create a paid event under quota", func() {
			err := plan.CheckCreation(plan.CreationRequest{
				Tier:              plan.TierPremium,
				EventsThisMonth:   9,
				RequestedCapacity: capOf(200),
				IsFree:            false,
			})

			Convey("Then the creation is allowed", func() {
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given a pro organizer", t, func() {
		Convey("When they create a huge paid event with many prior events", func() {
			err := plan.CheckCreation(plan.CreationRequest{
				Tier:              plan.TierPro,
				EventsThisMonth:   10_000,
				RequestedCapacity: capOf(1_000_000),
				IsFree:            false,
			})

			Convey("Then no limit applies", func() {
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given an unrecognized tier", t, func() {
		Convey("Then free limits apply", func() {
			err := plan.CheckCreation(plan.CreationRequest{
				Tier:            plan.Resolve("mystery"),
				EventsThisMonth: 2,
				IsFree:          true,
			})
			var denied *plan.DeniedError
			So(errors.As(err, &denied), ShouldBeTrue)
			So(denied.Reason, ShouldEqual, plan.ReasonQuotaExceeded)
		})
	})
}
