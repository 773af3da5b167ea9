package ratelimit

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leofalp/researchagent/providers/observability"
	"github.com/leofalp/researchagent/providers/observability/slogobs"
)

func TestNew_Defaults(t *testing.T) {
	g := New(0, 0)
	if g.Limit() != DefaultPerSecond {
		t.Errorf("Limit() = %v, want %v", g.Limit(), DefaultPerSecond)
	}
}

func TestShared_IsSingleton(t *testing.T) {
	if Shared() != Shared() {
		t.Fatal("Shared should return the same gate")
	}
	if Shared().Limit() != 1 {
		t.Errorf("shared gate limit = %v, want 1", Shared().Limit())
	}
}

func TestWait_SpacesEvents(t *testing.T) {
	g := New(10, 1) // 100ms between events
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := g.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	// First event is immediate, the next two wait ~100ms each.
	if elapsed := time.Since(start); elapsed < 180*time.Millisecond {
		t.Errorf("3 events took %v, expected at least ~200ms", elapsed)
	}
}

func TestWait_ConcurrentCallersAreSerialized(t *testing.T) {
	g := New(20, 1)
	ctx := context.Background()

	var (
		mu    sync.Mutex
		times []time.Time
		wg    sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Wait(ctx); err != nil {
				t.Errorf("Wait: %v", err)
				return
			}
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	first, last := times[0], times[0]
	for _, ts := range times {
		if ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	if spread := last.Sub(first); spread < 120*time.Millisecond {
		t.Errorf("4 admissions spread over %v, expected ~150ms", spread)
	}
}

func TestWait_Cancelled(t *testing.T) {
	g := New(0.5, 1)
	ctx, cancel := context.WithCancel(context.Background())

	if err := g.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	cancel()

	err := g.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait after cancel = %v, want context.Canceled", err)
	}
}

func TestWait_DeadlineTooShort(t *testing.T) {
	g := New(0.5, 1)
	_ = g.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := g.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait = %v, want context.DeadlineExceeded", err)
	}
}

func TestWait_RecordsHistogram(t *testing.T) {
	var buf bytes.Buffer
	observer := slogobs.New(slogobs.WithLevel(slogobs.LevelTrace), slogobs.WithOutput(&buf))
	g := New(100, 1, WithObserver(observer), WithName("test"))

	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("ratelimit.wait.seconds")) {
		t.Errorf("wait histogram not recorded: %s", buf.String())
	}
}

func TestWait_UsesObserverFromContext(t *testing.T) {
	var buf bytes.Buffer
	observer := slogobs.New(slogobs.WithLevel(slogobs.LevelTrace), slogobs.WithOutput(&buf))
	g := New(100, 1, WithName("ctx-gate"))

	ctx := observability.ContextWithObserver(context.Background(), observer)
	if err := g.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("ratelimit.wait.seconds")) || !bytes.Contains(buf.Bytes(), []byte("ctx-gate")) {
		t.Errorf("wait histogram not recorded on the context observer: %s", buf.String())
	}
}
