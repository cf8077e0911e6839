package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
	"github.com/stampwise/loyalty-platform/internal/core/ports"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []ports.CodeDelivery
	err  error
	done chan struct{}
}

func (r *recordingSender) Send(_ context.Context, d ports.CodeDelivery) error {
	r.mu.Lock()
	r.sent = append(r.sent, d)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return r.err
}

func waitFor(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d deliveries", i, n)
		}
	}
}

func TestShardIndex_Deterministic(t *testing.T) {
	d := NewDispatcher(8, 1, &recordingSender{}, zerolog.Nop())

	for _, target := range []string{"ana@example.com", "+525512345678", ""} {
		first := d.shardIndex(target)
		if first < 0 || first >= 8 {
			t.Fatalf("index %d out of range", first)
		}
		if again := d.shardIndex(target); again != first {
			t.Errorf("shard for %q changed: %d then %d", target, first, again)
		}
	}
}

func TestDispatcher_PreservesOrderPerTarget(t *testing.T) {
	sender := &recordingSender{done: make(chan struct{}, 16)}
	d := NewDispatcher(4, 16, sender, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	codes := []string{"111111", "222222", "333333"}
	for _, code := range codes {
		d.Enqueue(ports.CodeDelivery{Method: domain.RecoveryEmail, Target: "ana@example.com", Code: code})
	}
	waitFor(t, sender.done, len(codes))

	cancel()
	d.Wait()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	for i, code := range codes {
		if sender.sent[i].Code != code {
			t.Errorf("delivery %d: expected %s, got %s", i, code, sender.sent[i].Code)
		}
	}
}

func TestDispatcher_SenderErrorDoesNotStopWorker(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down"), done: make(chan struct{}, 4)}
	d := NewDispatcher(1, 4, sender, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(ports.CodeDelivery{Method: domain.RecoveryPhone, Target: "+52551"})
	d.Enqueue(ports.CodeDelivery{Method: domain.RecoveryPhone, Target: "+52551"})
	waitFor(t, sender.done, 2)
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	d := NewDispatcher(1, 1, &recordingSender{}, zerolog.Nop())

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			d.Enqueue(ports.CodeDelivery{Method: domain.RecoveryEmail, Target: "x@example.com"})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}
