package types

import "time"

// EventDraft is a validated event-creation command handed from the HTTP
// layer to the service. Cost fields feed the financial forecast returned
// alongside the created event.
type EventDraft struct {
	OrganizerID   string
	Title         string
	Description   string
	Capacity      int
	TicketPrice   float64
	IsFree        bool
	StartAt       time.Time
	EndAt         time.Time
	VenueCost     float64
	MarketingCost float64
	OtherCosts    float64
}

// UserRegistration upserts the slice of a platform user the engine tracks.
// An empty ID asks the service to mint one.
type UserRegistration struct {
	ID           string
	DisplayName  string
	FanCount     int
	Subscription string
}

// EventSummary is the read shape of a stored event.
type EventSummary struct {
	ID          string    `json:"id"`
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	Capacity    int       `json:"capacity"`
	TicketPrice float64   `json:"ticket_price"`
	IsFree      bool      `json:"is_free"`
	Status      string    `json:"status"`
	StartAt     time.Time `json:"start_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventCreation is everything a successful create returns: the stored event,
// both projections, the creation EXP grant, and the organizer's remaining
// monthly quota (nil means unlimited).
type EventCreation struct {
	Event              EventSummary         `json:"event"`
	Attendance         AttendanceProjection `json:"attendance_projection"`
	Financial          FinancialProjection  `json:"financial_projection"`
	ExpAward           ExpAwardResult       `json:"exp_award"`
	RemainingThisMonth *int                 `json:"remaining_events_this_month"`
}

// EventCompletion reports the outcome of closing out an event.
type EventCompletion struct {
	EventID          string         `json:"event_id"`
	ActualAttendance int            `json:"actual_attendance"`
	Capacity         int            `json:"capacity"`
	AttendanceRate   float64        `json:"attendance_rate"`
	ExpAward         ExpAwardResult `json:"exp_award"`
}

// FinancialQuery asks for a standalone financial forecast. When
// ExpectedAttendance is nil the service derives it from the organizer's
// audience, so OrganizerID must be set in that case.
type FinancialQuery struct {
	OrganizerID        string
	Capacity           int
	TicketPrice        float64
	VenueCost          float64
	MarketingCost      float64
	OtherCosts         float64
	IsFree             bool
	ExpectedAttendance *int
}

// PlanInfo is the read shape of a subscription tier's limits. Nil pointer
// fields mean unlimited.
type PlanInfo struct {
	Tier                   string `json:"tier"`
	MaxEventsPerMonth      *int   `json:"max_events_per_month"`
	MaxCapacity            *int   `json:"max_capacity"`
	CanUsePaidEvents       bool   `json:"can_use_paid_events"`
	CanUseAdvancedFeatures bool   `json:"can_use_advanced_features"`
	Description            string `json:"description"`
}

// AwardRecord is one row of a user's EXP history, newest first.
type AwardRecord struct {
	ExpGained int       `json:"exp_gained"`
	Reason    string    `json:"reason"`
	LeveledUp bool      `json:"leveled_up"`
	AwardedAt time.Time `json:"awarded_at"`
}

// UserExp is a user's gamification state plus recent history.
type UserExp struct {
	UserID       string        `json:"user_id"`
	DisplayName  string        `json:"display_name"`
	TotalExp     int           `json:"total_exp"`
	CurrentLevel int           `json:"current_level"`
	NextLevelExp int           `json:"next_level_exp"`
	RecentAwards []AwardRecord `json:"recent_awards"`
}
