// Package plan gates event creation by subscription tier: monthly quotas,
// capacity caps, and paid-event access.
package plan

import "fmt"

// Tier identifies a subscription level.
type Tier string

// Known tiers. Anything else resolves to TierFree.
const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierPro     Tier = "pro"
)

// Limits describes what a tier allows. Nil pointer fields mean unlimited.
type Limits struct {
	MaxEventsPerMonth      *int   `json:"max_events_per_month"`
	MaxCapacity            *int   `json:"max_capacity"`
	CanUsePaidEvents       bool   `json:"can_use_paid_events"`
	CanUseAdvancedFeatures bool   `json:"can_use_advanced_features"`
	Description            string `json:"description"`
}

// Static per-tier limits. These are product-tuned values; revisit with intent,
// not in passing.
var planLimits = map[Tier]Limits{
	TierFree: {
		MaxEventsPerMonth:      intPtr(2),
		MaxCapacity:            intPtr(50),
		CanUsePaidEvents:       false,
		CanUseAdvancedFeatures: false,
		Description:            "Free plan: up to 2 events per month, free events only, max 50 attendees",
	},
	TierPremium: {
		MaxEventsPerMonth:      intPtr(10),
		MaxCapacity:            intPtr(200),
		CanUsePaidEvents:       true,
		CanUseAdvancedFeatures: true,
		Description:            "Premium plan: up to 10 events per month, paid events allowed, max 200 attendees",
	},
	TierPro: {
		MaxEventsPerMonth:      nil, // unlimited
		MaxCapacity:            nil, // unlimited
		CanUsePaidEvents:       true,
		CanUseAdvancedFeatures: true,
		Description:            "Pro plan: unlimited events, all features available",
	},
}

func intPtr(v int) *int { return &v }

// Resolve maps a raw subscription identifier to a known tier. Unknown or
// empty identifiers fall back to the free tier so that fallback logic lives
// here and nowhere else.
func Resolve(raw string) Tier {
	switch Tier(raw) {
	case TierFree, TierPremium, TierPro:
		return Tier(raw)
	default:
		return TierFree
	}
}

// LimitsFor returns the limits table entry for tier, falling back to free
// limits for unknown tiers.
func LimitsFor(tier Tier) Limits {
	if l, ok := planLimits[tier]; ok {
		return l
	}
	return planLimits[TierFree]
}

// RemainingThisMonth reports how many more events the tier allows this month.
// Nil means unlimited.
func RemainingThisMonth(tier Tier, createdThisMonth int) *int {
	limits := LimitsFor(tier)
	if limits.MaxEventsPerMonth == nil {
		return nil
	}
	remaining := *limits.MaxEventsPerMonth - createdThisMonth
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// CreationRequest carries everything needed to decide whether an organizer
// may create an event. The monthly count is a point-in-time snapshot read by
// the caller; it is not required to be linearizable with concurrent creates.
type CreationRequest struct {
	Tier              Tier
	EventsThisMonth   int
	RequestedCapacity *int // nil when the request does not state a capacity
	IsFree            bool
}

// CheckCreation applies the tier's limits to a creation request. Checks run
// in a fixed order and the first failing check wins; there are no side
// effects. A nil error means the creation is allowed.
func CheckCreation(req CreationRequest) error {
	limits := LimitsFor(req.Tier)

	if limits.MaxEventsPerMonth != nil && req.EventsThisMonth >= *limits.MaxEventsPerMonth {
		return &DeniedError{
			Reason: ReasonQuotaExceeded,
			Message: fmt.Sprintf("%s. Monthly event limit reached; consider upgrading your plan.",
				limits.Description),
		}
	}

	if req.RequestedCapacity != nil && limits.MaxCapacity != nil && *req.RequestedCapacity > *limits.MaxCapacity {
		return &DeniedError{
			Reason: ReasonCapacityExceeded,
			Message: fmt.Sprintf("Capacity is limited to %d attendees on your plan; consider upgrading.",
				*limits.MaxCapacity),
		}
	}

	if !req.IsFree && !limits.CanUsePaidEvents {
		return &DeniedError{
			Reason: ReasonPaidNotAllowed,
			Message: fmt.Sprintf("%s. Paid events require a plan upgrade.",
				limits.Description),
		}
	}

	return nil
}
