package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sweeper removes expired entries and reports how many were removed.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// CleanupConfig holds configuration for the cleanup scheduler.
type CleanupConfig struct {
	// Interval is how often the sweep runs.
	// Default: 1 minute
	Interval time.Duration

	// Name labels log lines.
	Name string
}

// CleanupScheduler periodically sweeps a target: the in-memory cache
// (expired revocations and listings) or the login rate limiter (idle
// clients). Redis expires keys on its own and needs no scheduler.
type CleanupScheduler struct {
	target    Sweeper
	config    CleanupConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewCleanupScheduler creates a new cleanup scheduler.
func NewCleanupScheduler(target Sweeper, config CleanupConfig) *CleanupScheduler {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.Name == "" {
		config.Name = "cache"
	}

	return &CleanupScheduler{
		target: target,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins the cleanup scheduler.
func (s *CleanupScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	log.Printf("[CleanupScheduler] Started - target: %s, interval: %v", s.config.Name, s.config.Interval)

	go s.run()
}

// run is the main cleanup loop.
func (s *CleanupScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runCleanup()
		case <-s.stopCh:
			log.Printf("[CleanupScheduler] Stopped")
			return
		}
	}
}

func (s *CleanupScheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.target.Sweep(ctx)
	if err != nil {
		log.Printf("[CleanupScheduler] Error sweeping %s: %v", s.config.Name, err)
		return
	}

	if removed > 0 {
		log.Printf("[CleanupScheduler] Removed %d expired %s entries", removed, s.config.Name)
	}
}

// Stop stops the cleanup scheduler.
func (s *CleanupScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}

// RunNow triggers an immediate sweep.
func (s *CleanupScheduler) RunNow(ctx context.Context) (int64, error) {
	return s.target.Sweep(ctx)
}
