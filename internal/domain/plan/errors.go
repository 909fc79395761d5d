package plan

// DenialReason classifies why a creation request was denied.
type DenialReason string

// Denial reasons surfaced to the caller. These are business-rule denials,
// never retried.
const (
	ReasonQuotaExceeded    DenialReason = "monthly_quota_exceeded"
	ReasonCapacityExceeded DenialReason = "capacity_exceeds_plan_limit"
	ReasonPaidNotAllowed   DenialReason = "paid_events_require_upgrade"
)

// DeniedError carries the denial reason plus a user-facing message embedding
// the tier description.
type DeniedError struct {
	Reason  DenialReason
	Message string
}

func (e *DeniedError) Error() string { return e.Message }
