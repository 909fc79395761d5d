// Package loadtest drives a running service through the full creator
// journey: register organizers, create events under their plans, complete a
// slice of them, and verify the leaderboard ordering at the end.
package loadtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/miyabi-lab/encore/pkg/logger"
)

// Plan mix and sizing for generated organizers.
const (
	tierRotation     = 3 // free, premium, pro round-robin
	freeTierQuota    = 2
	premiumTierQuota = 10
	freeCapacityCap  = 50
	smallFanPool     = 90
	midFanPool       = 800
	largeFanPool     = 5000
	minCapacity      = 10
	capacityRange    = 90
	ticketPriceMin   = 10
	ticketPriceRange = 40
	settleDelay      = 2 * time.Second
	leadTimeDays     = 40
	hoursPerDay      = 24
	randomDivisor    = 1_000_000
)

// randomFloat returns a random float64 in [0, 1) using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomDivisor))
	return float64(n.Int64()) / float64(randomDivisor)
}

func randomInt(max int) int {
	if max <= 0 {
		return 0
	}
	return int(randomFloat() * float64(max))
}

// Run executes the complete load run against a live service.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(config.Timeout)

	logger.Get().Info(ctx, "starting load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("organizers", config.Organizers),
		logger.Int("eventsPerOrganizer", config.EventsPerOrganizer),
		logger.Int("workers", config.Workers),
		logger.Int("topN", config.TopN),
	)

	if err := checkServiceHealth(config, client); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	organizers, err := registerOrganizers(ctx, config, client, stats)
	if err != nil {
		return fmt.Errorf("organizer registration failed: %w", err)
	}

	events := createEvents(ctx, config, client, organizers, stats)

	completeEvents(ctx, config, client, events, stats)

	// Give the audit writers a moment to drain.
	logger.Get().Info(ctx, "waiting for the audit pipeline to settle")
	time.Sleep(settleDelay)

	if err := verifyLeaderboard(ctx, config, client, stats); err != nil {
		return fmt.Errorf("leaderboard verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "load run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(config *Config, client *httpClient) error {
	return client.get(config.BaseURL+"/healthz", 200, nil)
}

// registerOrganizers seeds creators across the plan tiers with fan pools
// that exercise every attendance bucket.
func registerOrganizers(ctx context.Context, config *Config, client *httpClient, stats *Stats) ([]organizer, error) {
	organizers := make([]organizer, 0, config.Organizers)

	for i := 0; i < config.Organizers; i++ {
		var subscription string
		var fanPool int
		switch i % tierRotation {
		case 0:
			subscription = "free"
			fanPool = smallFanPool
		case 1:
			subscription = "premium"
			fanPool = midFanPool
		default:
			subscription = "pro"
			fanPool = largeFanPool
		}

		org := organizer{
			ID:           uuid.New().String(),
			Subscription: subscription,
			FanCount:     randomInt(fanPool),
		}

		status, err := client.post(config.BaseURL+"/users", map[string]any{
			"id":           org.ID,
			"display_name": fmt.Sprintf("organizer-%04d", i),
			"fan_count":    org.FanCount,
			"subscription": org.Subscription,
		}, 201, nil)
		if err != nil || status != 201 {
			atomic.AddInt64(&stats.RequestsFailed, 1)
			if err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("register organizer: status %d", status)
		}

		atomic.AddInt64(&stats.OrganizersRegistered, 1)
		organizers = append(organizers, org)
	}

	logger.Get().Info(ctx, "organizers registered", logger.Int("count", len(organizers)))
	return organizers, nil
}

// createEvents has each organizer create as many events as its plan allows,
// spread over a worker pool.
func createEvents(ctx context.Context, config *Config, client *httpClient, organizers []organizer, stats *Stats) []createdEvent {
	var mu sync.Mutex
	var events []createdEvent

	jobs := make(chan organizer)
	var wg sync.WaitGroup

	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for org := range jobs {
				for _, ev := range createForOrganizer(ctx, config, client, org, stats) {
					mu.Lock()
					events = append(events, ev)
					mu.Unlock()
				}
			}
		}()
	}

	for _, org := range organizers {
		jobs <- org
	}
	close(jobs)
	wg.Wait()

	logger.Get().Info(ctx, "events created",
		logger.Int("created", int(atomic.LoadInt64(&stats.EventsCreated))),
		logger.Int("denied", int(atomic.LoadInt64(&stats.EventsDenied))),
	)
	return events
}

func createForOrganizer(ctx context.Context, config *Config, client *httpClient, org organizer, stats *Stats) []createdEvent {
	quota := config.EventsPerOrganizer
	switch org.Subscription {
	case "free":
		if quota > freeTierQuota {
			quota = freeTierQuota
		}
	case "premium":
		if quota > premiumTierQuota {
			quota = premiumTierQuota
		}
	}

	var events []createdEvent
	for i := 0; i < quota; i++ {
		capacity := minCapacity + randomInt(capacityRange)
		isFree := org.Subscription == "free" || randomFloat() < 0.5
		if org.Subscription == "free" && capacity > freeCapacityCap {
			capacity = freeCapacityCap
		}
		price := 0.0
		if !isFree {
			price = float64(ticketPriceMin + randomInt(ticketPriceRange))
		}

		var created struct {
			Event struct {
				ID       string `json:"id"`
				Capacity int    `json:"capacity"`
			} `json:"event"`
		}
		status, err := client.post(config.BaseURL+"/events", map[string]any{
			"organizer_id": org.ID,
			"title":        fmt.Sprintf("Live Session %s", uuid.New().String()[:8]),
			"description":  "A generated event used to exercise the projection and reward pipeline end to end.",
			"capacity":     capacity,
			"ticket_price": price,
			"is_free":      isFree,
			"start_at":     time.Now().Add(leadTimeDays * hoursPerDay * time.Hour).Format(time.RFC3339),
		}, 201, &created)
		switch {
		case err != nil:
			atomic.AddInt64(&stats.RequestsFailed, 1)
			if config.Verbose {
				logger.Get().Warn(ctx, "event creation failed", logger.Error(err))
			}
		case status == 201:
			atomic.AddInt64(&stats.EventsCreated, 1)
			events = append(events, createdEvent{
				ID:          created.Event.ID,
				OrganizerID: org.ID,
				Capacity:    created.Event.Capacity,
			})
		case status == 403:
			// Plan denial; expected for over-quota tiers.
			atomic.AddInt64(&stats.EventsDenied, 1)
		default:
			atomic.AddInt64(&stats.RequestsFailed, 1)
		}
	}
	return events
}

// completeEvents closes out a fraction of the created events with random
// attendance, concurrently.
func completeEvents(ctx context.Context, config *Config, client *httpClient, events []createdEvent, stats *Stats) {
	jobs := make(chan createdEvent)
	var wg sync.WaitGroup

	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range jobs {
				url := fmt.Sprintf("%s/events/%s/complete", config.BaseURL, ev.ID)
				status, err := client.post(url, map[string]any{
					"organizer_id":      ev.OrganizerID,
					"actual_attendance": randomInt(ev.Capacity + 1),
				}, 200, nil)
				if err != nil || status != 200 {
					atomic.AddInt64(&stats.RequestsFailed, 1)
					if config.Verbose && err != nil {
						logger.Get().Warn(ctx, "event completion failed", logger.Error(err))
					}
					continue
				}
				atomic.AddInt64(&stats.EventsCompleted, 1)
			}
		}()
	}

	for _, ev := range events {
		if randomFloat() < config.CompleteRatio {
			jobs <- ev
		}
	}
	close(jobs)
	wg.Wait()

	logger.Get().Info(ctx, "events completed",
		logger.Int("completed", int(atomic.LoadInt64(&stats.EventsCompleted))),
	)
}

// verifyLeaderboard fetches the top creators and checks the EXP ordering.
func verifyLeaderboard(ctx context.Context, config *Config, client *httpClient, stats *Stats) error {
	var entries []struct {
		Rank     int    `json:"rank"`
		UserID   string `json:"user_id"`
		TotalExp int    `json:"total_exp"`
	}
	url := fmt.Sprintf("%s/leaderboard?limit=%d", config.BaseURL, config.TopN)
	if err := client.get(url, 200, &entries); err != nil {
		return err
	}
	stats.LeaderboardEntries = len(entries)

	if len(entries) == 0 {
		return fmt.Errorf("leaderboard is empty after %d creations", atomic.LoadInt64(&stats.EventsCreated))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].TotalExp > entries[i-1].TotalExp {
			return fmt.Errorf("leaderboard out of order at rank %d: %d exp after %d exp",
				entries[i].Rank, entries[i].TotalExp, entries[i-1].TotalExp)
		}
	}
	if entries[0].TotalExp == 0 {
		return fmt.Errorf("top creator has zero exp")
	}

	logger.Get().Info(ctx, "leaderboard verified",
		logger.Int("entries", len(entries)),
		logger.Int("topExp", entries[0].TotalExp),
	)
	return nil
}

// displayFinalStats logs the run summary.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "load run summary",
		logger.Int64("organizersRegistered", stats.OrganizersRegistered),
		logger.Int64("eventsCreated", stats.EventsCreated),
		logger.Int64("eventsDenied", stats.EventsDenied),
		logger.Int64("eventsCompleted", stats.EventsCompleted),
		logger.Int64("requestsFailed", stats.RequestsFailed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
	)
}
