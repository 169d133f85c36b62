package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"raydium-swap-monitor/internal/logger"
)

func newTestDelayQueue(target *SignatureQueue) *DelayQueue {
	return NewDelayQueue(DelayQueueOptions{
		Target: target,
		Logger: logger.Discard().WithComponent("delay-queue"),
	})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestDelayQueue_ReleasesInDueOrder(t *testing.T) {
	target := NewSignatureQueue()
	dq := newTestDelayQueue(target)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dq.Run(ctx)

	now := time.Now()
	dq.Schedule("late", now.Add(120*time.Millisecond))
	dq.Schedule("early", now.Add(30*time.Millisecond))
	dq.Schedule("middle", now.Add(60*time.Millisecond))

	waitFor(t, 2*time.Second, func() bool { return target.Len() == 3 })

	got := target.Drain(10)
	want := []string{"early", "middle", "late"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if dq.Len() != 0 {
		t.Errorf("expected empty delay queue, got %d", dq.Len())
	}
}

func TestDelayQueue_HoldsUntilDue(t *testing.T) {
	target := NewSignatureQueue()
	dq := newTestDelayQueue(target)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dq.Run(ctx)

	dq.Schedule("sig", time.Now().Add(150*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	if target.Len() != 0 {
		t.Fatal("signature released before due time")
	}
	waitFor(t, 2*time.Second, func() bool { return target.Len() == 1 })
}

func TestDelayQueue_PastDueReleasedImmediately(t *testing.T) {
	target := NewSignatureQueue()
	dq := newTestDelayQueue(target)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dq.Run(ctx)

	dq.Schedule("a", time.Now().Add(-time.Second))
	dq.Schedule("b", time.Now().Add(-time.Second))

	waitFor(t, time.Second, func() bool { return target.Len() == 2 })
	if got := target.Drain(10); got[0] != "a" || got[1] != "b" {
		t.Errorf("expected scheduling order for equal due times, got %v", got)
	}
}

func TestDelayQueue_StopDropsPending(t *testing.T) {
	target := NewSignatureQueue()
	dq := newTestDelayQueue(target)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- dq.Run(ctx) }()

	dq.Schedule("x", time.Now().Add(time.Hour))
	dq.Schedule("y", time.Now().Add(time.Hour))
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("delay queue did not stop")
	}

	if dq.Len() != 0 {
		t.Errorf("expected pending signatures dropped, got %d", dq.Len())
	}
	if target.Len() != 0 {
		t.Errorf("expected nothing released, got %d", target.Len())
	}
	if dq.Schedule("z", time.Now()) {
		t.Error("expected Schedule to be rejected after stop")
	}
}
