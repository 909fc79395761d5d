package loadtest

import "time"

// Config holds configuration for the load run.
type Config struct {
	BaseURL            string        // Base URL of the service
	Organizers         int           // Number of organizers to register
	EventsPerOrganizer int           // Events each pro organizer creates
	CompleteRatio      float64       // Fraction of created events to complete
	TopN               int           // Leaderboard size to fetch
	Workers            int           // Number of concurrent workers
	Timeout            time.Duration // HTTP request timeout
	Verbose            bool          // Enable verbose logging
}

// organizer is a registered creator plus the events it produced.
type organizer struct {
	ID           string
	Subscription string
	FanCount     int
}

// createdEvent tracks what completion needs.
type createdEvent struct {
	ID          string
	OrganizerID string
	Capacity    int
}

// Stats holds run statistics.
type Stats struct {
	OrganizersRegistered int64
	EventsCreated        int64
	EventsDenied         int64
	EventsCompleted      int64
	RequestsFailed       int64
	LeaderboardEntries   int
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}
