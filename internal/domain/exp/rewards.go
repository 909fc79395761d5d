package exp

import "fmt"

// Reward amounts. The creation reward is flat; success rewards come from the
// attendance-rate schedule below.
const (
	creationReward = 50

	// ReasonEventCreated is the audit reason for the creation grant.
	ReasonEventCreated = "event created"
)

// successTier is one row of the attendance-rate reward schedule.
type successTier struct {
	minRatePercent float64
	amount         int
	label          string
}

// successTiers is evaluated top to bottom; the first row whose threshold the
// rate meets wins. The zero row is a valid outcome, not an error.
var successTiers = []successTier{
	{100, 500, "sold out immediately"},
	{95, 400, "near sellout (95-99%)"},
	{90, 300, "90% reached"},
	{80, 250, "80% reached"},
	{70, 200, "70% reached"},
	{60, 150, "60% reached"},
	{50, 100, "50% reached"},
	{40, 80, "40% reached"},
	{30, 60, "30% reached"},
	{20, 40, "20% reached"},
	{10, 20, "10% reached"},
}

// lowAttendanceLabel is used when no tier is reached.
const lowAttendanceLabel = "low attendance"

// SuccessReward maps an attendance rate (0.0-1.0, may exceed 1.0 on
// oversubscription) to a reward amount and rank label.
func SuccessReward(attendanceRate float64) (int, string) {
	ratePercent := attendanceRate * 100
	for _, tier := range successTiers {
		if ratePercent >= tier.minRatePercent {
			return tier.amount, tier.label
		}
	}
	return 0, lowAttendanceLabel
}

// AwardCreation grants the flat event-creation reward. Plan gating happens
// upstream; this always awards.
func AwardCreation(state State) (State, AwardResult) {
	return Award(state, creationReward, ReasonEventCreated)
}

// AwardSuccess grants the attendance-rate reward for a completed event. A
// rate below the lowest tier leaves the state unchanged and reports a
// zero-amount result, distinguishable from a real grant only by ExpGained.
func AwardSuccess(state State, attendanceRate float64) (State, AwardResult) {
	amount, rank := SuccessReward(attendanceRate)
	if amount > 0 {
		return Award(state, amount, fmt.Sprintf("event success (%s)", rank))
	}

	return state, AwardResult{
		PreviousLevel: state.CurrentLevel,
		NewLevel:      state.CurrentLevel,
		PreviousExp:   state.TotalExp,
		NewExp:        state.TotalExp,
		ExpGained:     0,
		LeveledUp:     false,
		Reason:        fmt.Sprintf("event success (%s) - no exp awarded", rank),
	}
}
