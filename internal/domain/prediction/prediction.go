// Package prediction scores a prospective event's chance of success from
// listing heuristics: title, capacity, lead time, description, pricing.
package prediction

import (
	"time"
	"unicode/utf8"
)

// Heuristic constants. The score starts at the base and each factor shifts
// it; the final score is clamped to [minScore, maxScore].
const (
	baseScore = 60
	minScore  = 20
	maxScore  = 95

	titleMinLen        = 10
	titleMaxLen        = 50
	goodCapacityMin    = 20
	goodCapacityMax    = 100
	largeCapacity      = 200
	staffedCapacity    = 150
	longLeadDays       = 30
	shortLeadDays      = 7
	richDescriptionLen = 100
	thinDescriptionLen = 50
	lowScoreThreshold  = 60
)

// Impact marks whether a factor helped or hurt the score.
type Impact string

// Factor impacts.
const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
)

// Factor explains one contribution to the score.
type Factor struct {
	Name        string `json:"name"`
	Impact      Impact `json:"impact"`
	Description string `json:"description"`
}

// Input describes the prospective event listing.
type Input struct {
	Title       string
	Description string
	Capacity    int
	StartAt     time.Time
	IsFree      bool
	Now         time.Time // injected clock for lead-time scoring
}

// Result is the score plus the factors behind it and follow-up advice.
type Result struct {
	SuccessRate     int      `json:"success_rate"`
	Factors         []Factor `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

// Predict scores the listing. Deterministic for a fixed Now.
func Predict(in Input) Result {
	score := baseScore
	var factors []Factor

	// Lengths are in runes so multibyte listings score the same as ASCII.
	titleLen := utf8.RuneCountInString(in.Title)
	descLen := utf8.RuneCountInString(in.Description)

	// Title length.
	switch {
	case titleLen > titleMinLen && titleLen < titleMaxLen:
		score += 10
		factors = append(factors, Factor{
			Name:        "title length",
			Impact:      ImpactPositive,
			Description: "A well-sized title draws attention",
		})
	case titleLen < titleMinLen:
		score -= 5
		factors = append(factors, Factor{
			Name:        "title length",
			Impact:      ImpactNegative,
			Description: "The title is too short",
		})
	}

	// Capacity sweet spot.
	switch {
	case in.Capacity > goodCapacityMin && in.Capacity < goodCapacityMax:
		score += 5
		factors = append(factors, Factor{
			Name:        "capacity",
			Impact:      ImpactPositive,
			Description: "A manageable venue size",
		})
	case in.Capacity > largeCapacity:
		score -= 5
		factors = append(factors, Factor{
			Name:        "capacity",
			Impact:      ImpactNegative,
			Description: "Large events are harder to run",
		})
	}

	// Lead time until the event starts.
	if !in.StartAt.IsZero() {
		leadDays := int(in.StartAt.Sub(in.Now).Hours() / 24)
		switch {
		case leadDays > longLeadDays:
			score += 10
			factors = append(factors, Factor{
				Name:        "preparation time",
				Impact:      ImpactPositive,
				Description: "There is plenty of time to prepare",
			})
		case leadDays < shortLeadDays:
			score -= 10
			factors = append(factors, Factor{
				Name:        "preparation time",
				Impact:      ImpactNegative,
				Description: "The preparation window is very short",
			})
		}
	}

	// Description richness.
	switch {
	case descLen > richDescriptionLen:
		score += 5
		factors = append(factors, Factor{
			Name:        "description detail",
			Impact:      ImpactPositive,
			Description: "A detailed description builds trust",
		})
	case descLen < thinDescriptionLen:
		score -= 3
		factors = append(factors, Factor{
			Name:        "description detail",
			Impact:      ImpactNegative,
			Description: "The description is thin",
		})
	}

	// Free events are easier to join.
	if in.IsFree {
		score += 8
		factors = append(factors, Factor{
			Name:        "admission",
			Impact:      ImpactPositive,
			Description: "Free events lower the barrier to attend",
		})
	}

	if score > maxScore {
		score = maxScore
	}
	if score < minScore {
		score = minScore
	}

	return Result{
		SuccessRate:     score,
		Factors:         factors,
		Recommendations: recommend(in, score),
	}
}

// recommend produces follow-up advice for weak listings, with a positive
// fallback when nothing stands out.
func recommend(in Input, score int) []string {
	var recs []string
	if score < lowScoreThreshold {
		recs = append(recs,
			"Consider postponing to secure more preparation time",
			"Flesh out the event description",
		)
	}
	if in.Capacity > staffedCapacity {
		recs = append(recs, "Plan for extra staff at this venue size")
	}
	if utf8.RuneCountInString(in.Description) < thinDescriptionLen {
		recs = append(recs, "Add a detailed description that sells the event")
	}
	if len(recs) == 0 {
		recs = append(recs, "The current setup looks good!")
	}
	return recs
}
