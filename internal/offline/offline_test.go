package offline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"portal/authgate/internal/model"
)

func TestQueuedActionRunsOnceOnReconnect(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, 0)
	m.SetOnline(ctx, false)

	var runs atomic.Int32
	m.QueueRetry(func(context.Context) error {
		runs.Add(1)
		return nil
	})

	if runs.Load() != 0 {
		t.Fatal("action must not run while offline")
	}

	m.SetOnline(ctx, true)
	if got := runs.Load(); got != 1 {
		t.Fatalf("expected exactly 1 execution, got %d", got)
	}
	if m.QueueLen() != 0 {
		t.Fatalf("expected empty queue, got %d", m.QueueLen())
	}

	// A second reconnection event must not replay it.
	m.SetOnline(ctx, false)
	m.SetOnline(ctx, true)
	if got := runs.Load(); got != 1 {
		t.Fatalf("expected no replay, got %d", got)
	}
}

func TestDrainPreservesOrder(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, 0)
	m.SetOnline(ctx, false)

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		m.QueueRetry(func(context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	m.SetOnline(ctx, true)
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected front-to-back order, got %v", order)
	}
}

func TestNetworkFailureRequeuesAtFrontAndStops(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, 0)
	m.SetOnline(ctx, false)

	var firstRuns, secondRuns atomic.Int32
	netErr := model.NewFault(model.FaultTransient, errors.New("still down"))
	m.QueueRetry(func(context.Context) error {
		firstRuns.Add(1)
		if firstRuns.Load() == 1 {
			return netErr
		}
		return nil
	})
	m.QueueRetry(func(context.Context) error {
		secondRuns.Add(1)
		return nil
	})

	m.SetOnline(ctx, true)
	if firstRuns.Load() != 1 {
		t.Fatalf("expected first action attempted once, got %d", firstRuns.Load())
	}
	if secondRuns.Load() != 0 {
		t.Fatal("draining must stop at the first network failure")
	}
	if m.QueueLen() != 2 {
		t.Fatalf("expected failed action re-queued at front, queue len %d", m.QueueLen())
	}
	if m.Online() {
		t.Fatal("a network failure during drain means we are offline again")
	}

	// Next reconnection cycle replays front-to-back.
	m.SetOnline(ctx, true)
	if firstRuns.Load() != 2 || secondRuns.Load() != 1 {
		t.Fatalf("expected full drain on next cycle, got %d/%d", firstRuns.Load(), secondRuns.Load())
	}
}

func TestNonNetworkFailureIsDropped(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, 0)
	m.SetOnline(ctx, false)

	var badRuns, goodRuns atomic.Int32
	m.QueueRetry(func(context.Context) error {
		badRuns.Add(1)
		return errors.New("constraint violation")
	})
	m.QueueRetry(func(context.Context) error {
		goodRuns.Add(1)
		return nil
	})

	m.SetOnline(ctx, true)
	if badRuns.Load() != 1 || goodRuns.Load() != 1 {
		t.Fatalf("expected one attempt each, got %d/%d", badRuns.Load(), goodRuns.Load())
	}
	if m.QueueLen() != 0 {
		t.Fatal("logic failures must not be re-queued")
	}

	m.SetOnline(ctx, false)
	m.SetOnline(ctx, true)
	if badRuns.Load() != 1 {
		t.Fatal("dropped action must not replay")
	}
}

func TestWaitForConnection(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, 0)

	if !m.WaitForConnection(ctx, 10*time.Millisecond) {
		t.Fatal("expected immediate true while online")
	}

	m.SetOnline(ctx, false)
	if m.WaitForConnection(ctx, 20*time.Millisecond) {
		t.Fatal("expected timeout while offline")
	}

	done := make(chan bool, 1)
	go func() { done <- m.WaitForConnection(ctx, time.Second) }()
	time.Sleep(20 * time.Millisecond)
	m.SetOnline(ctx, true)

	select {
	case ok := <-done:
		if !ok {
			t.Fatal("expected true on reconnection")
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never woke up")
	}
}

func TestHealthPollDrivesTransitions(t *testing.T) {
	var healthy atomic.Bool
	health := func(context.Context) error {
		if healthy.Load() {
			return nil
		}
		return model.NewFault(model.FaultTransient, errors.New("unreachable"))
	}

	m := NewManager(health, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	deadline := time.Now().Add(time.Second)
	for m.Online() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if m.Online() {
		t.Fatal("expected poll to mark offline")
	}

	healthy.Store(true)
	for !m.Online() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !m.Online() {
		t.Fatal("expected poll to mark online again")
	}
}
