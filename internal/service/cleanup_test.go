package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingSweeper struct {
	calls int32
	err   error
}

func (s *countingSweeper) Sweep(ctx context.Context) (int64, error) {
	atomic.AddInt32(&s.calls, 1)
	return 1, s.err
}

func TestCleanupScheduler_RunsPeriodically(t *testing.T) {
	target := &countingSweeper{}
	s := NewCleanupScheduler(target, CleanupConfig{Interval: 10 * time.Millisecond, Name: "test"})
	s.Start()
	s.Start() // second start is a no-op

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&target.calls) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	s.Stop() // idempotent

	if got := atomic.LoadInt32(&target.calls); got < 2 {
		t.Errorf("expected at least 2 sweeps, got %d", got)
	}
}

func TestCleanupScheduler_RunNow(t *testing.T) {
	target := &countingSweeper{err: errors.New("boom")}
	s := NewCleanupScheduler(target, CleanupConfig{})

	if s.config.Interval != time.Minute {
		t.Errorf("default interval = %v, want 1m", s.config.Interval)
	}

	removed, err := s.RunNow(context.Background())
	if removed != 1 || err == nil {
		t.Errorf("RunNow = %d, %v", removed, err)
	}
}
