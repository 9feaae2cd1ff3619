package domain

import (
	"sort"
	"strings"
	"time"
)

// Feature is a service option offered by a restaurant.
type Feature string

const (
	FeatureDelivery Feature = "Delivery"
	FeatureTakeout  Feature = "Takeout"
	FeatureDineIn   Feature = "Dine-in"
)

// Features lists every service option in display order.
var Features = []Feature{FeatureDelivery, FeatureTakeout, FeatureDineIn}

// OpenNowLabel is shown instead of a wait time while a restaurant is open.
const OpenNowLabel = "Open Now"

// Restaurant is the canonical record built from one source row.
type Restaurant struct {
	Name      string   `json:"name"`
	Slug      string   `json:"slug"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Street    *string  `json:"street"`
	Phone     *string  `json:"phone"`
	Site      *string  `json:"site"`
	Photo     *string  `json:"photo"`
	Area      *string  `json:"area"`

	Cuisine              *string   `json:"cuisine"`
	PriceTier            int       `json:"price_tier"`
	Features             []Feature `json:"features"`
	WheelchairAccessible bool      `json:"wheelchair_accessible"`
	GoodForKids          bool      `json:"good_for_kids"`
	HasWiFi              bool      `json:"has_wifi"`
	HasHighChairs        bool      `json:"has_high_chairs"`
	Highlights           []string  `json:"highlights"`

	Rating  float64 `json:"rating"`
	Reviews int     `json:"reviews"`
	Score   float64 `json:"score"`

	Hours             WeeklySchedule `json:"hours"`
	HoursToday        string         `json:"hours_today"`
	IsOpenNow         bool           `json:"is_open_now"`
	TimeUntilNextOpen *string        `json:"time_until_next_open"`
	OpenLabel         string         `json:"open_label"`
	BusinessStatus    *string        `json:"business_status"`
	TopPick           bool           `json:"top_pick"`

	// Issues lists the degradations applied while normalizing this row.
	Issues []Issue `json:"-"`
}

// LabelFor is "Open Now" while open, the wait time when known, else "".
func LabelFor(open bool, wait *string) string {
	if open {
		return OpenNowLabel
	}
	if wait != nil {
		return "Opens in " + *wait
	}
	return ""
}

// HasFeature reports whether f is among the record's service options.
func (r Restaurant) HasFeature(f Feature) bool {
	for _, x := range r.Features {
		if x == f {
			return true
		}
	}
	return false
}

// IssueKind classifies a recovered normalization failure.
type IssueKind string

const (
	IssueMalformedAttributes IssueKind = "malformed_attributes"
	IssueMalformedHours      IssueKind = "malformed_hours"
	IssueMalformedHoursToken IssueKind = "malformed_hours_token"
	IssueMissingColumn       IssueKind = "missing_column"
	IssueEvaluationFailure   IssueKind = "evaluation_failure"
)

// Issue is one recovered failure and the detail that caused it.
type Issue struct {
	Kind   IssueKind
	Detail string
}

// Facet counts records per normalized label.
type Facet map[string]int

// Labels returns the facet labels sorted alphabetically.
func (f Facet) Labels() []string {
	out := make([]string, 0, len(f))
	for k, n := range f {
		if n > 0 {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

// Listing is a normalized batch plus its aggregates.
type Listing struct {
	BatchID     string
	EvaluatedAt time.Time

	Restaurants []Restaurant
	Cuisines    Facet
	Areas       Facet
	// Degradations counts recovered failures by kind across the batch.
	Degradations map[IssueKind]int
	// MissingFields names logical fields no source column served.
	MissingFields []string
}
