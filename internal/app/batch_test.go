package app_test

import (
	"testing"

	"qc_restaurants/internal/app"
	"qc_restaurants/internal/domain"
)

func row(name, rating, reviews, subtypes, area string) domain.RawRow {
	return domain.RawRow{
		"name":     str(name),
		"rating":   str(rating),
		"reviews":  str(reviews),
		"subtypes": str(subtypes),
		"SEO Area": str(area),
	}
}

func TestProcess_StableSortByScore(t *testing.T) {
	b := domain.Batch{Rows: []domain.RawRow{
		row("Low", "3.0", "10", "", ""),
		row("First tie", "4.5", "100", "", ""),
		row("Second tie", "4.0", "200", "", ""),
		row("Top", "5.0", "1000", "", ""),
	}}
	l := app.Process(b, monday10)

	var names []string
	for _, r := range l.Restaurants {
		names = append(names, r.Name)
	}
	want := []string{"Top", "First tie", "Second tie", "Low"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order: got %v want %v", names, want)
		}
	}
}

func TestProcess_Facets(t *testing.T) {
	b := domain.Batch{Rows: []domain.RawRow{
		row("A", "4", "1", `["Filipino Restaurant"]`, "Cubao"),
		row("B", "4", "1", `["filipino restaurant"]`, "cubao "),
		row("C", "4", "1", `["Restaurant"]`, "Restaurant"),
		row("D", "4", "1", `["Korean restaurant"]`, ""),
	}}
	l := app.Process(b, monday10)

	if len(l.Cuisines) != 2 || l.Cuisines["Filipino"] != 2 || l.Cuisines["Korean"] != 1 {
		t.Fatalf("cuisines: %v", l.Cuisines)
	}
	if len(l.Areas) != 1 || l.Areas["Cubao"] != 2 {
		t.Fatalf("areas: %v", l.Areas)
	}
}

func TestProcess_EmptyBatch(t *testing.T) {
	l := app.Process(domain.Batch{}, monday10)
	if len(l.Restaurants) != 0 || len(l.Cuisines) != 0 || len(l.Areas) != 0 || len(l.MissingFields) != 0 {
		t.Fatalf("got %+v", l)
	}
}

func TestProcess_CountsDegradations(t *testing.T) {
	b := domain.Batch{
		Columns: []string{"name", "about", "working_hours"},
		Rows: []domain.RawRow{
			{"name": str("A"), "about": str("{oops"), "working_hours": str(`{"Monday": "9AM-5PM, later"}`)},
			{"name": str("B"), "about": str("[1]"), "working_hours": str("not hours")},
		},
	}
	l := app.Process(b, monday10)

	if got := l.Degradations[domain.IssueMalformedAttributes]; got != 2 {
		t.Fatalf("attributes: %d", got)
	}
	if got := l.Degradations[domain.IssueMalformedHoursToken]; got != 1 {
		t.Fatalf("tokens: %d", got)
	}
	if got := l.Degradations[domain.IssueMalformedHours]; got != 1 {
		t.Fatalf("hours: %d", got)
	}
	if got := l.Degradations[domain.IssueMissingColumn]; got == 0 || got != len(l.MissingFields) {
		t.Fatalf("missing columns: %d %v", got, l.MissingFields)
	}
	if app.OpenCount(l.Restaurants) != 1 {
		t.Fatalf("open count")
	}
}
