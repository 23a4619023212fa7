package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyed_SerializesSameKey(t *testing.T) {
	t.Parallel()

	keyed := NewKeyed()

	var inFlight atomic.Int32
	var maxInFlight atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = keyed.Do(context.Background(), "field-1", func() error {
				current := inFlight.Add(1)
				if current > maxInFlight.Load() {
					maxInFlight.Store(current)
				}
				time.Sleep(time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	if got := maxInFlight.Load(); got != 1 {
		t.Fatalf("expected exclusive section, saw %d concurrent holders", got)
	}
}

func TestKeyed_DifferentKeysRunInParallel(t *testing.T) {
	t.Parallel()

	keyed := NewKeyed()
	release := make(chan struct{})
	holding := make(chan struct{})

	go func() {
		_ = keyed.Do(context.Background(), "field-1", func() error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	done := make(chan struct{})
	go func() {
		_ = keyed.Do(context.Background(), "field-2", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("operation on a different key was blocked")
	}
	close(release)
}

func TestKeyed_ContextCancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	keyed := NewKeyed()
	release := make(chan struct{})
	holding := make(chan struct{})

	go func() {
		_ = keyed.Do(context.Background(), "field-1", func() error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := keyed.Do(ctx, "field-1", func() error {
		t.Fatal("fn must not run after cancelled wait")
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	close(release)
}

func TestKeyed_ErrorPropagatesAndLockIsFreed(t *testing.T) {
	t.Parallel()

	keyed := NewKeyed()
	wantErr := errors.New("boom")

	if err := keyed.Do(context.Background(), "field-1", func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped fn error, got %v", err)
	}

	done := make(chan struct{})
	go func() {
		_ = keyed.Do(context.Background(), "field-1", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock was not released after fn error")
	}
}
