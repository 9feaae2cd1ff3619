package attrs

import (
	"sort"
	"strings"

	"qc_restaurants/internal/domain"
)

// Blob category and key names as the provider spells them.
const (
	catServiceOptions = "Service options"
	catAccessibility  = "Accessibility"
	catChildren       = "Children"
	catAmenities      = "Amenities"
	catPopularFor     = "Popular for"
	catPrice          = "Price"
)

// Facts are the typed attributes derived from a blob and free text.
type Facts struct {
	Features             []domain.Feature
	WheelchairAccessible bool
	GoodForKids          bool
	HasWiFi              bool
	HasHighChairs        bool
	Highlights           []string
}

// DefaultFeatures is assumed for a restaurant nobody described.
var DefaultFeatures = []domain.Feature{domain.FeatureTakeout, domain.FeatureDineIn}

// serviceKeys maps each feature to the blob keys that imply it.
var serviceKeys = map[domain.Feature][]string{
	domain.FeatureDelivery: {"Delivery", "No-contact delivery"},
	domain.FeatureTakeout:  {"Takeout"},
	domain.FeatureDineIn:   {"Dine-in", "Onsite services"},
}

// serviceWords maps each feature to the free-text words that imply it.
var serviceWords = map[domain.Feature][]string{
	domain.FeatureDelivery: {"delivery"},
	domain.FeatureTakeout:  {"takeout", "take out", "take-out"},
	domain.FeatureDineIn:   {"dine in", "dine-in", "dining"},
}

// highlightWords is checked in order; the first three matches are kept.
var highlightWords = []struct {
	label string
	terms []string
}{
	{"Breakfast", []string{"breakfast", "brunch"}},
	{"Lunch", []string{"lunch"}},
	{"Dinner", []string{"dinner"}},
	{"Groups", []string{"groups", "group dining"}},
	{"Family", []string{"family", "families"}},
	{"Kids", []string{"kids", "children"}},
	{"Solo Dining", []string{"solo dining", "alone"}},
}

const maxHighlights = 3

// Extract derives Facts. It never fails: absent data yields the documented defaults.
func Extract(blob Blob, freeText string) Facts {
	return Facts{
		Features: serviceOptions(blob, freeText),
		// a partial accommodation does not count
		WheelchairAccessible: blob.Flag(catAccessibility, "Wheelchair accessible entrance") &&
			blob.Flag(catAccessibility, "Wheelchair accessible seating"),
		GoodForKids:   blob.Flag(catChildren, "Good for kids"),
		HasHighChairs: blob.Flag(catChildren, "High chairs"),
		HasWiFi:       blob.Flag(catAmenities, "Wi-Fi"),
		Highlights:    highlights(blob, freeText),
	}
}

func serviceOptions(blob Blob, text string) []domain.Feature {
	if so, ok := blob.Category(catServiceOptions); ok {
		out := []domain.Feature{}
		for _, f := range domain.Features {
			for _, k := range serviceKeys[f] {
				if flag(so, k) {
					out = append(out, f)
					break
				}
			}
		}
		return out
	}

	lower := strings.ToLower(text)
	var out []domain.Feature
	for _, f := range domain.Features {
		for _, w := range serviceWords[f] {
			if strings.Contains(lower, w) {
				out = append(out, f)
				break
			}
		}
	}
	if len(out) == 0 {
		return append([]domain.Feature(nil), DefaultFeatures...)
	}
	return out
}

func highlights(blob Blob, text string) []string {
	if pf, ok := blob.Category(catPopularFor); ok {
		if m, ok := pf.Map(); ok {
			var keys []string
			for k, v := range m {
				if v.Truthy() {
					keys = append(keys, k)
				}
			}
			sort.Strings(keys)
			if len(keys) > maxHighlights {
				keys = keys[:maxHighlights]
			}
			if len(keys) > 0 {
				return keys
			}
		}
	}

	lower := strings.ToLower(text)
	out := []string{}
	for _, h := range highlightWords {
		for _, term := range h.terms {
			if strings.Contains(lower, term) {
				out = append(out, h.label)
				break
			}
		}
		if len(out) == maxHighlights {
			break
		}
	}
	return out
}
