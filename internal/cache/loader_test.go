// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}

func (brokenStore) Set(context.Context, string, []byte) error { return errors.New("backend down") }

func (brokenStore) InvalidatePrefix(context.Context, string) (int, error) {
	return 0, errors.New("backend down")
}

func TestLoaderFillsOnceAndHits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewLoader(NewMemoryStore(NewLRUCache(16, time.Minute)), zerolog.Nop())
	var calls atomic.Int32
	fill := func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("slate"), nil
	}

	v, hit, err := l.Load(ctx, "k", fill)
	if err != nil || hit || string(v) != "slate" {
		t.Fatalf("first Load = %q, %v, %v", v, hit, err)
	}
	v, hit, err = l.Load(ctx, "k", fill)
	if err != nil || !hit || string(v) != "slate" {
		t.Fatalf("second Load = %q, %v, %v", v, hit, err)
	}
	if calls.Load() != 1 {
		t.Errorf("fill ran %d times, want 1", calls.Load())
	}
}

func TestLoaderCollapsesConcurrentMisses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewLoader(NewMemoryStore(NewLRUCache(16, time.Minute)), zerolog.Nop())

	release := make(chan struct{})
	var calls atomic.Int32
	fill := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("slate"), nil
	}

	const callers = 8
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer done.Done()
			started.Done()
			if v, _, err := l.Load(ctx, "k", fill); err != nil || string(v) != "slate" {
				t.Errorf("Load = %q, %v", v, err)
			}
		}()
	}
	started.Wait()
	// Give the callers time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	if calls.Load() != 1 {
		t.Errorf("fill ran %d times, want 1", calls.Load())
	}
}

func TestLoaderDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewLoader(NewMemoryStore(NewLRUCache(16, time.Minute)), zerolog.Nop())
	boom := errors.New("rank failed")

	if _, _, err := l.Load(ctx, "k", func(context.Context) ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	v, hit, err := l.Load(ctx, "k", func(context.Context) ([]byte, error) { return []byte("ok"), nil })
	if err != nil || hit || string(v) != "ok" {
		t.Errorf("Load after error = %q, %v, %v", v, hit, err)
	}
}

func TestLoaderSurvivesBrokenBackend(t *testing.T) {
	t.Parallel()

	l := NewLoader(brokenStore{}, zerolog.Nop())
	v, hit, err := l.Load(context.Background(), "k", func(context.Context) ([]byte, error) { return []byte("ok"), nil })
	if err != nil || hit || string(v) != "ok" {
		t.Errorf("Load = %q, %v, %v", v, hit, err)
	}
	if _, err := l.InvalidateHousehold(context.Background(), "h1"); err == nil {
		t.Error("expected invalidation error")
	}
}

func TestLoaderInvalidateHousehold(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewLoader(NewMemoryStore(NewLRUCache(16, time.Minute)), zerolog.Nop())
	fill := func(context.Context) ([]byte, error) { return []byte("x"), nil }
	_, _, _ = l.Load(ctx, Key("h1", "p1", "default", "", nil), fill)
	_, _, _ = l.Load(ctx, Key("h1", "p2", "default", "", nil), fill)

	n, err := l.InvalidateHousehold(ctx, "h1")
	if err != nil || n != 2 {
		t.Errorf("InvalidateHousehold = %d, %v; want 2", n, err)
	}
	if _, hit, _ := l.Load(ctx, Key("h1", "p1", "default", "", nil), fill); hit {
		t.Error("slate still cached after invalidation")
	}
}

func TestLoaderDropsFillStartedBeforeInvalidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewLoader(NewMemoryStore(NewLRUCache(16, time.Minute)), zerolog.Nop())
	key := Key("h1", "p1", "default", "", nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		v, _, err := l.Load(ctx, key, func(context.Context) ([]byte, error) {
			close(entered)
			<-release
			return []byte("before-write"), nil
		})
		if err != nil || string(v) != "before-write" {
			t.Errorf("in-flight Load = %q, %v", v, err)
		}
	}()

	<-entered
	if _, err := l.InvalidateHousehold(ctx, "h1"); err != nil {
		t.Fatalf("InvalidateHousehold: %v", err)
	}

	// A caller arriving after the write must not join the older fill.
	v, hit, err := l.Load(ctx, key, func(context.Context) ([]byte, error) { return []byte("after-write"), nil })
	if err != nil || hit || string(v) != "after-write" {
		t.Errorf("Load after invalidation = %q, %v, %v", v, hit, err)
	}

	close(release)
	<-done

	v, hit, err = l.Load(ctx, key, func(context.Context) ([]byte, error) { return []byte("refill"), nil })
	if err != nil || !hit || string(v) != "after-write" {
		t.Errorf("cached value = %q, hit %v, err %v; want after-write", v, hit, err)
	}
}

func TestLoaderInvalidationIsPerHousehold(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewLoader(NewMemoryStore(NewLRUCache(16, time.Minute)), zerolog.Nop())
	if _, err := l.InvalidateHousehold(ctx, "h2"); err != nil {
		t.Fatalf("InvalidateHousehold: %v", err)
	}

	key := Key("h1", "household", "default", "", nil)
	fill := func(context.Context) ([]byte, error) { return []byte("x"), nil }
	_, _, _ = l.Load(ctx, key, fill)
	if _, hit, _ := l.Load(ctx, key, fill); !hit {
		t.Error("h1 slate not cached after an h2 invalidation")
	}
}

func TestHouseholdOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key, want string
	}{
		{Key("h1", "p1", "comfort", "", nil), "h1"},
		{Key("house-9", "household", "default", "a1", nil), "house-9"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := householdOf(tt.key); got != tt.want {
			t.Errorf("householdOf(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
