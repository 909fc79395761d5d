// Package types contains common read shapes shared between the service layer
// and the HTTP API.
package types

// AttendanceProjection is the result of estimating an event's draw from the
// organizer's fan base and history.
type AttendanceProjection struct {
	ExpectedAttendance int     `json:"expected_attendance"`
	ParticipationRate  float64 `json:"participation_rate_used"`
	ExperienceBonus    float64 `json:"experience_bonus_applied"`
	Method             string  `json:"calculation_method"`
	CapacityClamped    bool    `json:"capacity_clamped"`
}

// FinancialProjection is the forecast shown to an organizer before creating
// an event. Warnings are ordered and their exact contents are contractual.
type FinancialProjection struct {
	TotalRevenue        float64  `json:"total_revenue"`
	TotalCosts          float64  `json:"total_costs"`
	Profit              float64  `json:"profit"`
	ProfitMargin        float64  `json:"profit_margin"`
	BreakEvenAttendance int      `json:"break_even_attendance"`
	ExpectedAttendance  int      `json:"expected_attendance"`
	Warnings            []string `json:"warnings"`
}

// ExpAwardResult reports a single EXP grant back to the caller. A zero
// ExpGained is a valid outcome, not an error.
type ExpAwardResult struct {
	PreviousLevel int    `json:"previous_level"`
	NewLevel      int    `json:"new_level"`
	PreviousExp   int    `json:"previous_exp"`
	NewExp        int    `json:"new_exp"`
	ExpGained     int    `json:"exp_gained"`
	LeveledUp     bool   `json:"leveled_up"`
	Reason        string `json:"reason"`
}

// LeaderboardEntry is a row of the creator leaderboard ordered by total EXP.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	TotalExp    int    `json:"total_exp"`
	Level       int    `json:"level"`
}
