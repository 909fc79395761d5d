// Package exp maintains a user's experience-point state: level progression,
// award arithmetic, and the attendance-based reward schedule.
package exp

// Level progression constants. The step to go from level L to L+1 costs
// L*expPerLevelStep points. maxLevel is a safety bound on the derivation
// loop, not a business rule.
const (
	expPerLevelStep = 100
	maxLevel        = 10_000
)

// State is a user's cumulative experience. TotalExp never decreases and
// CurrentLevel is always derived from it.
type State struct {
	TotalExp     int
	CurrentLevel int
}

// NewState returns the state every user starts with.
func NewState() State {
	return State{TotalExp: 0, CurrentLevel: 1}
}

// AwardResult reports a single grant: the before/after snapshot plus the
// reason, also used as an audit log entry.
type AwardResult struct {
	PreviousLevel int
	NewLevel      int
	PreviousExp   int
	NewExp        int
	ExpGained     int
	LeveledUp     bool
	Reason        string
}

// LevelFromExp derives the level for a cumulative total. The schedule is a
// strictly increasing step function: reaching level L+1 requires L*100 more
// points on top of what level L required. Negative totals clamp to level 1.
func LevelFromExp(totalExp int) int {
	if totalExp < 0 {
		return 1
	}

	level := 1
	accumulated := 0
	for level < maxLevel {
		step := level * expPerLevelStep
		if accumulated+step > totalExp {
			break
		}
		accumulated += step
		level++
	}
	return level
}

// NextLevelRequirement returns the cumulative EXP needed to reach the next
// level from the given one.
func NextLevelRequirement(level int) int {
	if level < 1 {
		level = 1
	}
	return expPerLevelStep * level * (level + 1) / 2
}

// Award adds amount to the state and recomputes the level. It is the only
// way state changes; applying the returned state atomically per user is the
// storage layer's contract.
func Award(state State, amount int, reason string) (State, AwardResult) {
	newTotal := state.TotalExp + amount
	newLevel := LevelFromExp(newTotal)

	next := State{TotalExp: newTotal, CurrentLevel: newLevel}
	return next, AwardResult{
		PreviousLevel: state.CurrentLevel,
		NewLevel:      newLevel,
		PreviousExp:   state.TotalExp,
		NewExp:        newTotal,
		ExpGained:     amount,
		LeveledUp:     newLevel > state.CurrentLevel,
		Reason:        reason,
	}
}
