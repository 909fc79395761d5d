package projection

// AttendanceOption applies a configuration option to the AttendanceProjector.
type AttendanceOption func(*AttendanceProjector)

// WithParticipationRates overrides the per-bucket base participation rates.
// Non-positive rates are ignored.
func WithParticipationRates(openRegistration, small, mid, large float64) AttendanceOption {
	return func(p *AttendanceProjector) {
		if openRegistration > 0 {
			p.openRegistrationRate = openRegistration
		}
		if small > 0 {
			p.smallCommunityRate = small
		}
		if mid > 0 {
			p.midCommunityRate = mid
		}
		if large > 0 {
			p.largeCommunityRate = large
		}
	}
}

// WithCommunityThresholds overrides the fan-count bucket boundaries. Both
// bounds are exclusive upper limits and must keep small < mid.
func WithCommunityThresholds(smallMax, midMax int) AttendanceOption {
	return func(p *AttendanceProjector) {
		if smallMax > 0 && midMax > smallMax {
			p.smallCommunityMax = smallMax
			p.midCommunityMax = midMax
		}
	}
}

// WithExperienceBonus overrides the per-event bonus and its ceiling.
func WithExperienceBonus(perEvent, cap float64) AttendanceOption {
	return func(p *AttendanceProjector) {
		if perEvent > 0 && cap >= perEvent {
			p.bonusPerEvent = perEvent
			p.bonusCap = cap
		}
	}
}
