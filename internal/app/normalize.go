package app

import (
	"errors"
	"strings"
	"time"

	"qc_restaurants/internal/attrs"
	"qc_restaurants/internal/domain"
	"qc_restaurants/internal/hours"
	"qc_restaurants/internal/schema"
)

// closedStatuses override any schedule: nothing opens until the status changes.
var closedStatuses = map[string]struct{}{
	"CLOSED_PERMANENTLY": {},
	"CLOSED_TEMPORARILY": {},
}

// Normalizer turns raw rows of one batch into Restaurant records. It holds
// the batch's column mapping and evaluation instant and nothing else.
type Normalizer struct {
	cols *schema.Mapper
	now  time.Time
}

func NewNormalizer(cols *schema.Mapper, now time.Time) *Normalizer {
	return &Normalizer{cols: cols, now: now}
}

// Normalize builds one record. It never fails; every recovered problem is
// recorded in the record's Issues.
func (n *Normalizer) Normalize(row domain.RawRow) domain.Restaurant {
	m := n.cols
	var issues []domain.Issue

	// attribute blob + facts
	blob, err := attrs.Parse(m.Value(row, schema.About))
	if err != nil {
		issues = append(issues, domain.Issue{Kind: domain.IssueMalformedAttributes, Detail: err.Error()})
	}
	freeText := m.String(row, schema.Description)
	if len(blob) == 0 {
		// an unreadable blob is still searched as plain text
		freeText = joinNonEmpty(m.String(row, schema.About), freeText)
	}
	facts := attrs.Extract(blob, freeText)

	subtypes, typ := m.Value(row, schema.Subtypes), m.Value(row, schema.Type)

	// schedule + availability
	schedule, herrs := hours.Parse(m.Value(row, schema.WorkingHours))
	for _, e := range herrs {
		kind := domain.IssueMalformedHours
		if errors.Is(e, hours.ErrMalformedHoursToken) {
			kind = domain.IssueMalformedHoursToken
		}
		issues = append(issues, domain.Issue{Kind: kind, Detail: e.Error()})
	}
	avail, err := hours.Evaluate(schedule, n.now)
	if err != nil {
		issues = append(issues, domain.Issue{Kind: domain.IssueEvaluationFailure, Detail: err.Error()})
	}

	status := m.OptString(row, schema.BusinessStatus)
	if status != nil {
		if _, closed := closedStatuses[strings.ToUpper(*status)]; closed {
			avail = hours.Availability{}
		}
	}

	// popularity
	rating, ok := m.Float(row, schema.Rating)
	if !ok || rating < 0 {
		rating = 0
	}
	reviews := m.Count(row, schema.Reviews)

	lat, latOK := m.Float(row, schema.Latitude)
	lon, lonOK := m.Float(row, schema.Longitude)
	name := m.String(row, schema.Name)
	wait := avail.Wait()

	return domain.Restaurant{
		Name:      name,
		Slug:      Slugify(name),
		Latitude:  ptrFloat(lat, latOK),
		Longitude: ptrFloat(lon, lonOK),
		Street:    m.OptString(row, schema.Street),
		Phone:     NormalizePhone(m.String(row, schema.Phone)),
		Site:      NormalizeSite(m.String(row, schema.Site)),
		Photo:     m.OptString(row, schema.Photo),
		Area:      m.OptString(row, schema.Area),

		Cuisine:              attrs.Cuisine(subtypes, typ),
		PriceTier:            attrs.PriceTier(m.Value(row, schema.Price), blob, attrs.CategoryText(subtypes, typ)),
		Features:             facts.Features,
		WheelchairAccessible: facts.WheelchairAccessible,
		GoodForKids:          facts.GoodForKids,
		HasWiFi:              facts.HasWiFi,
		HasHighChairs:        facts.HasHighChairs,
		Highlights:           facts.Highlights,

		Rating:  rating,
		Reviews: reviews,
		Score:   rating * float64(reviews),

		Hours:             schedule,
		HoursToday:        hours.Today(schedule, n.now),
		IsOpenNow:         avail.Open,
		TimeUntilNextOpen: wait,
		OpenLabel:         domain.LabelFor(avail.Open, wait),
		BusinessStatus:    status,
		TopPick:           m.Bool(row, schema.TopPick),

		Issues: issues,
	}
}
