package projection_test

import (
	"testing"

	"github.com/miyabi-lab/encore/internal/domain/projection"
	. "github.com/smartystreets/goconvey/convey"
)

func TestProjectFinancials_Basics(t *testing.T) {
	Convey("Given a paid event with healthy numbers", t, func() {
		out := projection.ProjectFinancials(projection.FinancialInput{
			Capacity:           100,
			TicketPrice:        20,
			VenueCost:          300,
			MarketingCost:      100,
			OtherCosts:         100,
			IsFree:             false,
			ExpectedAttendance: 50,
		})

		Convey("Then revenue, costs, and profit line up", func() {
			So(out.TotalRevenue, ShouldEqual, 1000) // 50 * 20
			So(out.TotalCosts, ShouldEqual, 500)
			So(out.Profit, ShouldEqual, 500)
			So(out.ProfitMargin, ShouldEqual, 50)
		})

		Convey("And the break-even point is one past covering costs", func() {
			So(out.BreakEvenAttendance, ShouldEqual, 26) // floor(500/20) + 1
		})

		Convey("And a single confirmation message is returned", func() {
			So(out.Warnings, ShouldResemble, []string{projection.NoteHealthyPlan})
		})
	})

	Convey("Given a free event", t, func() {
		out := projection.ProjectFinancials(projection.FinancialInput{
			Capacity:           100,
			TicketPrice:        20,
			VenueCost:          100,
			IsFree:             true,
			ExpectedAttendance: 80,
		})

		Convey("Then revenue is zero regardless of price", func() {
			So(out.TotalRevenue, ShouldEqual, 0)
			So(out.Profit, ShouldEqual, -100)
			So(out.ProfitMargin, ShouldEqual, 0)
		})

		Convey("And the deficit warning leads the list", func() {
			So(out.Warnings[0], ShouldEqual, projection.WarnDeficit)
		})
	})
}

func TestProjectFinancials_Warnings(t *testing.T) {
	Convey("Given a paid event with no price and no costs", t, func() {
		out := projection.ProjectFinancials(projection.FinancialInput{
			Capacity:           100,
			TicketPrice:        0,
			IsFree:             false,
			ExpectedAttendance: 50,
		})

		Convey("Then both informational notes appear, in order", func() {
			So(out.Warnings, ShouldResemble, []string{
				projection.NoteNoCosts,
				projection.NoteZeroPrice,
			})
		})

		Convey("And profit is exactly zero with no deficit warning", func() {
			So(out.Profit, ShouldEqual, 0)
			So(out.BreakEvenAttendance, ShouldEqual, 0)
		})
	})

	Convey("Given costs that can never be recovered", t, func() {
		out := projection.ProjectFinancials(projection.FinancialInput{
			Capacity:           10,
			TicketPrice:        5,
			VenueCost:          500,
			IsFree:             false,
			ExpectedAttendance: 10,
		})

		Convey("Then deficit and break-even warnings stack in order", func() {
			So(out.BreakEvenAttendance, ShouldEqual, 101)
			So(out.Warnings, ShouldResemble, []string{
				projection.WarnDeficit,
				projection.WarnBreakEven,
			})
		})
	})

	Convey("Given a break-even exactly at capacity", t, func() {
		// costs 95, price 1 -> break-even 96 on a 96-capacity venue
		out := projection.ProjectFinancials(projection.FinancialInput{
			Capacity:           96,
			TicketPrice:        1,
			VenueCost:          95,
			IsFree:             false,
			ExpectedAttendance: 96,
		})

		Convey("Then no break-even warning fires", func() {
			So(out.BreakEvenAttendance, ShouldEqual, 96)
			So(out.Warnings, ShouldResemble, []string{projection.NoteHealthyPlan})
		})
	})
}

func TestProjectFinancials_Deterministic(t *testing.T) {
	Convey("Given identical inputs", t, func() {
		in := projection.FinancialInput{
			Capacity:           250,
			TicketPrice:        12.5,
			VenueCost:          800,
			MarketingCost:      150.25,
			OtherCosts:         49.75,
			IsFree:             false,
			ExpectedAttendance: 90,
		}

		Convey("Then two forecasts are identical", func() {
			first := projection.ProjectFinancials(in)
			second := projection.ProjectFinancials(in)
			So(second, ShouldResemble, first)
		})
	})
}
