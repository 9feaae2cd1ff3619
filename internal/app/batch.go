package app

import (
	"sort"
	"time"

	"qc_restaurants/internal/attrs"
	"qc_restaurants/internal/domain"
	"qc_restaurants/internal/schema"
)

// Process normalizes every row of b against now, orders the records by
// score (highest first, input order on ties) and derives the facets.
// An empty batch yields an empty listing.
func Process(b domain.Batch, now time.Time) domain.Listing {
	cols := schema.Resolve(b.ColumnSet())
	n := NewNormalizer(cols, now)

	out := domain.Listing{
		Restaurants:  make([]domain.Restaurant, 0, len(b.Rows)),
		Degradations: map[domain.IssueKind]int{},
	}
	for _, row := range b.Rows {
		r := n.Normalize(row)
		for _, is := range r.Issues {
			out.Degradations[is.Kind]++
		}
		out.Restaurants = append(out.Restaurants, r)
	}
	if len(b.Rows) > 0 {
		for _, f := range cols.Missing() {
			out.MissingFields = append(out.MissingFields, string(f))
			out.Degradations[domain.IssueMissingColumn]++
		}
	}

	sort.SliceStable(out.Restaurants, func(i, j int) bool {
		return out.Restaurants[i].Score > out.Restaurants[j].Score
	})

	out.Cuisines = facet(out.Restaurants, func(r domain.Restaurant) *string { return r.Cuisine })
	out.Areas = facet(out.Restaurants, func(r domain.Restaurant) *string { return r.Area })
	return out
}

// facet counts non-null, non-generic labels. Labels that differ only in
// case or spacing share a bucket named after the first spelling seen.
func facet(rs []domain.Restaurant, label func(domain.Restaurant) *string) domain.Facet {
	out := domain.Facet{}
	names := map[string]string{}
	for _, r := range rs {
		p := label(r)
		if p == nil {
			continue
		}
		l := cleanLabel(*p)
		if l == "" || attrs.IsGeneric(l) {
			continue
		}
		k := labelKey(l)
		name, ok := names[k]
		if !ok {
			name = l
			names[k] = l
		}
		out[name]++
	}
	return out
}

// OpenCount reports how many records are open at the evaluation instant.
func OpenCount(rs []domain.Restaurant) int {
	n := 0
	for _, r := range rs {
		if r.IsOpenNow {
			n++
		}
	}
	return n
}
