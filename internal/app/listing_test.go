package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"qc_restaurants/internal/app"
	"qc_restaurants/internal/domain"
)

// ---- fakes ----

type fakeSource struct {
	batch domain.Batch
	err   error
	calls int
}

func (f *fakeSource) LoadRows(ctx context.Context) (domain.Batch, error) {
	f.calls++
	return f.batch, f.err
}

type fakeCache struct {
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	*dst.(*domain.Batch) = v.(domain.Batch)
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func fixedClock() time.Time { return monday10 }

// ---- tests ----

func TestList_CacheMissThenHit(t *testing.T) {
	src := &fakeSource{batch: domain.Batch{Rows: []domain.RawRow{row("Ana's", "4", "10", "", "")}}}
	cache := &fakeCache{}
	s := app.NewListingService(src, cache, time.Minute, fixedClock)

	l, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(l.Restaurants) != 1 || l.BatchID == "" || !l.EvaluatedAt.Equal(monday10) {
		t.Fatalf("unexpected listing: %+v", l)
	}

	// second read comes from the cache
	src.batch = domain.Batch{}
	l2, _ := s.List(context.Background())
	if len(l2.Restaurants) != 1 || src.calls != 1 {
		t.Fatalf("expected cached rows, calls=%d", src.calls)
	}
	if l2.BatchID == l.BatchID {
		t.Fatalf("each call is its own batch")
	}
}

func TestList_ZeroTTLAlwaysReadsSource(t *testing.T) {
	src := &fakeSource{}
	s := app.NewListingService(src, &fakeCache{}, 0, fixedClock)
	_, _ = s.List(context.Background())
	_, _ = s.List(context.Background())
	if src.calls != 2 {
		t.Fatalf("calls=%d", src.calls)
	}
}

func TestList_SourceFailureIsEmpty(t *testing.T) {
	src := &fakeSource{err: errors.New("disk gone")}
	var observed bool
	s := app.NewListingService(src, nil, 0, fixedClock).
		WithObserver(func(int, int, map[string]int) { observed = true })

	l, err := s.List(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("err: %v", err)
	}
	if len(l.Restaurants) != 0 || l.Cuisines == nil {
		t.Fatalf("listing: %+v", l)
	}
	if observed {
		t.Fatalf("failed loads are not observed as batches")
	}
}

func TestFind(t *testing.T) {
	src := &fakeSource{batch: domain.Batch{Rows: []domain.RawRow{
		row("Mang Inasal", "4", "10", "", ""),
		row("Max's Restaurant", "4", "20", "", ""),
	}}}
	s := app.NewListingService(src, nil, 0, fixedClock)

	r, err := s.Find(context.Background(), "maxs-restaurant")
	if err != nil || r.Name != "Max's Restaurant" {
		t.Fatalf("got %+v %v", r, err)
	}
	if _, err := s.Find(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err: %v", err)
	}
}
