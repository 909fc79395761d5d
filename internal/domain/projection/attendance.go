// Package projection estimates event attendance from an organizer's fan base
// and turns attendance into a financial forecast.
package projection

import "fmt"

// Default attendance model constants. These rates are product-tuned; change
// them via options, not inline.
const (
	defaultOpenRegistrationRate = 0.30 // fan_count == 0: share of capacity
	defaultSmallCommunityRate   = 0.15 // 1-99 fans
	defaultMidCommunityRate     = 0.10 // 100-999 fans
	defaultLargeCommunityRate   = 0.05 // >= 1000 fans
	defaultSmallCommunityMax    = 100  // exclusive upper bound of the small bucket
	defaultMidCommunityMax      = 1000 // exclusive upper bound of the mid bucket
	defaultBonusPerEvent        = 0.01 // experience bonus per past published event
	defaultBonusCap             = 0.05 // experience bonus ceiling
)

// AttendanceInput is what the attendance model needs. Capacity must be
// positive; validating it is the caller's contract.
type AttendanceInput struct {
	FanCount        int
	Capacity        int
	PastEventsCount int // past published events by the organizer
}

// Attendance is the model output. ExpectedAttendance is always in
// [1, Capacity]. Method is a human-readable trace of the bucket and rate
// used, kept for auditability only.
type Attendance struct {
	ExpectedAttendance int
	ParticipationRate  float64
	ExperienceBonus    float64
	Method             string
	CapacityClamped    bool
}

// AttendanceProjector estimates expected attendance with a bucketed
// participation-rate model.
type AttendanceProjector struct {
	openRegistrationRate float64
	smallCommunityRate   float64
	midCommunityRate     float64
	largeCommunityRate   float64
	smallCommunityMax    int
	midCommunityMax      int
	bonusPerEvent        float64
	bonusCap             float64
}

// NewAttendanceProjector creates a projector with default rates, adjustable
// through options.
func NewAttendanceProjector(opts ...AttendanceOption) *AttendanceProjector {
	p := &AttendanceProjector{
		openRegistrationRate: defaultOpenRegistrationRate,
		smallCommunityRate:   defaultSmallCommunityRate,
		midCommunityRate:     defaultMidCommunityRate,
		largeCommunityRate:   defaultLargeCommunityRate,
		smallCommunityMax:    defaultSmallCommunityMax,
		midCommunityMax:      defaultMidCommunityMax,
		bonusPerEvent:        defaultBonusPerEvent,
		bonusCap:             defaultBonusCap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Project estimates attendance for in. Buckets are evaluated top to bottom
// and the first match wins; the result is clamped to capacity and floored to
// at least one attendee.
func (p *AttendanceProjector) Project(in AttendanceInput) Attendance {
	bonus := 0.0
	if in.PastEventsCount > 0 {
		bonus = float64(in.PastEventsCount) * p.bonusPerEvent
		if bonus > p.bonusCap {
			bonus = p.bonusCap
		}
	}

	var (
		expected int
		rate     float64
		method   string
	)

	switch {
	case in.FanCount == 0:
		// No fan base: assume open registration filling a share of capacity.
		rate = p.openRegistrationRate
		bonus = 0
		expected = int(float64(in.Capacity) * rate)
		method = fmt.Sprintf("no fans: assuming open registration at %d%% of capacity", int(rate*100))
	case in.FanCount < p.smallCommunityMax:
		rate = p.smallCommunityRate + bonus
		expected = int(float64(in.FanCount) * rate)
		method = fmt.Sprintf("small community (%d fans): participation rate %d%%", in.FanCount, int(rate*100))
	case in.FanCount < p.midCommunityMax:
		rate = p.midCommunityRate + bonus
		expected = int(float64(in.FanCount) * rate)
		method = fmt.Sprintf("mid-size community (%d fans): participation rate %d%%", in.FanCount, int(rate*100))
	default:
		rate = p.largeCommunityRate + bonus
		expected = int(float64(in.FanCount) * rate)
		method = fmt.Sprintf("large community (%d fans): participation rate %d%%", in.FanCount, int(rate*100))
	}

	if in.FanCount > 0 && in.PastEventsCount > 0 {
		method += fmt.Sprintf(" + experience bonus %d%% (%d past events)", int(bonus*100), in.PastEventsCount)
	}

	clamped := false
	if expected > in.Capacity {
		expected = in.Capacity
		clamped = true
		method += fmt.Sprintf(" -> capped at capacity of %d", in.Capacity)
	}

	// Always plan for at least one attendee.
	if expected < 1 {
		expected = 1
	}

	return Attendance{
		ExpectedAttendance: expected,
		ParticipationRate:  rate,
		ExperienceBonus:    bonus,
		Method:             method,
		CapacityClamped:    clamped,
	}
}
