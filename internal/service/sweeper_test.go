package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type sweepRecorder struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (r *sweepRecorder) ledger() *mockLedger {
	return &mockLedger{
		DeleteExpiredFn: func(before time.Time) (int64, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.cutoffs = append(r.cutoffs, before)
			return 2, r.err
		},
	}
}

func (r *sweepRecorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cutoffs)
}

func TestSweeper_SweepUsesNowAsCutoff(t *testing.T) {
	rec := &sweepRecorder{}
	svc := NewSweeperService(rec.ledger(), nil)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if n := svc.sweep(context.Background()); n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
	if len(rec.cutoffs) != 1 || !rec.cutoffs[0].Equal(now) {
		t.Fatalf("unexpected cutoffs: %v", rec.cutoffs)
	}
}

func TestSweeper_SweepError(t *testing.T) {
	rec := &sweepRecorder{err: errors.New("db down")}
	svc := NewSweeperService(rec.ledger(), nil)

	if n := svc.sweep(context.Background()); n != 0 {
		t.Fatalf("expected 0 on error, got %d", n)
	}
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	rec := &sweepRecorder{}
	svc := NewSweeperService(rec.ledger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for rec.calls() < 2 {
		select {
		case <-deadline:
			t.Fatalf("sweeper did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestSweeper_DisabledWithZeroTick(t *testing.T) {
	rec := &sweepRecorder{}
	svc := NewSweeperService(rec.ledger(), nil)

	done := make(chan struct{})
	go func() {
		svc.Run(context.Background(), 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run with zero tick should return immediately")
	}
	if rec.calls() != 0 {
		t.Fatalf("expected no sweeps, got %d", rec.calls())
	}
}
