package projection

// Warning messages appended to a financial forecast. Order and multiplicity
// are part of the observable contract.
const (
	WarnDeficit     = "Warning: a deficit is projected. Reduce costs or revisit the ticket price."
	WarnBreakEven   = "Warning: the break-even point exceeds capacity. Revisit your pricing."
	NoteNoCosts     = "Note: no costs entered. Enter costs for an accurate forecast."
	NoteZeroPrice   = "Note: ticket price is 0. Mark the event as free if it has no admission fee."
	NoteHealthyPlan = "Your financial plan looks healthy."
)

// FinancialInput carries costs, pricing, and the attendance figure to
// forecast against (projected or actual).
type FinancialInput struct {
	Capacity           int
	TicketPrice        float64
	VenueCost          float64
	MarketingCost      float64
	OtherCosts         float64
	IsFree             bool
	ExpectedAttendance int
}

// Financial is the forecast: revenue, costs, profit, margin, break-even, and
// an ordered list of warnings.
type Financial struct {
	TotalRevenue        float64
	TotalCosts          float64
	Profit              float64
	ProfitMargin        float64 // percent of revenue
	BreakEvenAttendance int
	Warnings            []string
}

// ProjectFinancials computes the forecast for in. Pure arithmetic; identical
// inputs produce identical outputs.
func ProjectFinancials(in FinancialInput) Financial {
	revenue := 0.0
	if !in.IsFree {
		revenue = float64(in.ExpectedAttendance) * in.TicketPrice
	}

	costs := in.VenueCost + in.MarketingCost + in.OtherCosts
	profit := revenue - costs

	breakEven := 0
	if in.TicketPrice > 0 {
		breakEven = int(costs/in.TicketPrice) + 1
	}

	margin := 0.0
	if revenue > 0 {
		margin = (profit / revenue) * 100
	}

	// Each warning is evaluated independently; several can apply at once.
	var warnings []string
	if profit < 0 {
		warnings = append(warnings, WarnDeficit)
	}
	if breakEven > in.Capacity {
		warnings = append(warnings, WarnBreakEven)
	}
	if costs == 0 {
		warnings = append(warnings, NoteNoCosts)
	}
	if !in.IsFree && in.TicketPrice == 0 {
		warnings = append(warnings, NoteZeroPrice)
	}
	if len(warnings) == 0 {
		warnings = append(warnings, NoteHealthyPlan)
	}

	return Financial{
		TotalRevenue:        revenue,
		TotalCosts:          costs,
		Profit:              profit,
		ProfitMargin:        margin,
		BreakEvenAttendance: breakEven,
		Warnings:            warnings,
	}
}
