package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/miyabi-lab/encore/internal/loadtest"
	"github.com/miyabi-lab/encore/pkg/logger"
)

// Default configuration constants.
const (
	defaultOrganizers    = 30
	defaultEventsPerOrg  = 10
	defaultCompleteRatio = 0.7
	defaultTopN          = 20
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultRunTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:9080", "Base URL of the service")
		organizers    = flag.Int("organizers", defaultOrganizers, "Number of organizers to register")
		eventsPerOrg  = flag.Int("events-per-organizer", defaultEventsPerOrg, "Events each organizer attempts, capped by its plan")
		completeRatio = flag.Float64("complete-ratio", defaultCompleteRatio, "Fraction of created events to complete")
		topN          = flag.Int("top", defaultTopN, "Number of leaderboard entries to fetch and verify")
		workers       = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout       = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &loadtest.Config{
		BaseURL:            *baseURL,
		Organizers:         *organizers,
		EventsPerOrganizer: *eventsPerOrg,
		CompleteRatio:      *completeRatio,
		TopN:               *topN,
		Workers:            *workers,
		Timeout:            *timeout,
		Verbose:            *verbose,
	}

	if err := loadtest.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		os.Exit(1)
	}
}
