package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"qc_restaurants/internal/domain"
)

const batchCacheKey = "rows:batch:v1"

// BatchObserver receives per-batch counters (rows, records open now, degradations by kind).
type BatchObserver func(rows, openNow int, degradations map[string]int)

// ListingService loads a fresh batch per call and normalizes it. Raw rows
// may be cached; records and availability are always recomputed.
type ListingService struct {
	src     domain.RowSource
	cache   domain.Cache
	ttl     time.Duration
	clock   func() time.Time
	observe BatchObserver
}

// NewListingService wires a source with an optional cache; a nil cache or a
// zero ttl reads the source on every call. A nil clock means time.Now.
func NewListingService(src domain.RowSource, cache domain.Cache, ttl time.Duration, clock func() time.Time) *ListingService {
	if clock == nil {
		clock = time.Now
	}
	return &ListingService{src: src, cache: cache, ttl: ttl, clock: clock}
}

// WithObserver attaches a per-batch metrics hook.
func (s *ListingService) WithObserver(o BatchObserver) *ListingService {
	s.observe = o
	return s
}

// List returns the normalized listing. When the source fails the listing is
// empty and the error wraps domain.ErrSourceUnavailable.
func (s *ListingService) List(ctx context.Context) (domain.Listing, error) {
	start := time.Now()
	now := s.clock()
	id := uuid.NewString()

	b, err := s.rows(ctx)
	if err != nil {
		log.Warn().Err(err).Str("batch_id", id).Msg("row source failed; serving empty listing")
		empty := Process(domain.Batch{}, now)
		empty.BatchID, empty.EvaluatedAt = id, now
		return empty, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	l := Process(b, now)
	l.BatchID, l.EvaluatedAt = id, now

	deg := make(map[string]int, len(l.Degradations))
	for k, n := range l.Degradations {
		deg[string(k)] = n
	}
	open := OpenCount(l.Restaurants)
	if s.observe != nil {
		s.observe(len(b.Rows), open, deg)
	}

	ev := log.Info().
		Str("batch_id", id).
		Int("rows", len(b.Rows)).
		Int("records", len(l.Restaurants)).
		Int("open_now", open).
		Dur("took", time.Since(start))
	if len(deg) > 0 {
		ev = ev.Interface("degradations", deg)
	}
	if len(l.MissingFields) > 0 {
		ev = ev.Strs("missing_fields", l.MissingFields)
	}
	ev.Msg("batch normalized")
	return l, nil
}

// Find returns the record with the given slug, or domain.ErrNotFound.
func (s *ListingService) Find(ctx context.Context, slug string) (domain.Restaurant, error) {
	l, err := s.List(ctx)
	if err != nil {
		return domain.Restaurant{}, err
	}
	for _, r := range l.Restaurants {
		if r.Slug == slug {
			return r, nil
		}
	}
	return domain.Restaurant{}, fmt.Errorf("restaurant %q: %w", slug, domain.ErrNotFound)
}

// rows is cache-aside over the source. Cache errors never fail a request.
func (s *ListingService) rows(ctx context.Context) (domain.Batch, error) {
	caching := s.cache != nil && s.ttl > 0
	if caching {
		var b domain.Batch
		if ok, _ := s.cache.Get(ctx, batchCacheKey, &b); ok {
			return b, nil
		}
	}
	b, err := s.src.LoadRows(ctx)
	if err != nil {
		return domain.Batch{}, err
	}
	if caching {
		if err := s.cache.Set(ctx, batchCacheKey, b, int(s.ttl.Seconds())); err != nil {
			log.Warn().Err(err).Msg("batch cache set failed")
		}
	}
	return b, nil
}
