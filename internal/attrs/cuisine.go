package attrs

import (
	"regexp"
	"strings"

	"qc_restaurants/internal/domain"
)

const genericLabel = "restaurant"

var trailingRestaurant = regexp.MustCompile(`(?i)(^|\s+)restaurant\s*$`)

// Subtypes lists category labels from a subtypes cell: a list value, a JSON
// array literal, or a comma separated string, in that order of preference.
func Subtypes(v domain.Value) []string {
	if items, ok := v.Items(); ok {
		return texts(items)
	}
	s := v.Text()
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") {
		if parsed, err := DecodeAny(s); err == nil {
			if items, ok := parsed.Items(); ok {
				return texts(items)
			}
		}
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func texts(items []domain.Value) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if t := it.Text(); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Cuisine picks the first specific label from subtypes (falling back to the
// single type field) and strips a trailing "Restaurant" token. Generic or
// empty labels yield nil.
func Cuisine(subtypes, typ domain.Value) *string {
	labels := Subtypes(subtypes)
	if len(labels) == 0 {
		if t := typ.Text(); t != "" {
			labels = []string{t}
		}
	}
	for _, l := range labels {
		if IsGeneric(l) {
			continue
		}
		c := strings.Join(strings.Fields(trailingRestaurant.ReplaceAllString(l, "")), " ")
		if c == "" || IsGeneric(c) {
			return nil
		}
		return &c
	}
	return nil
}

// IsGeneric reports whether label is the bare word "restaurant".
func IsGeneric(label string) bool {
	return strings.EqualFold(strings.TrimSpace(label), genericLabel)
}

// CategoryText joins the type field and subtypes for keyword checks such as "fast food".
func CategoryText(subtypes, typ domain.Value) string {
	parts := Subtypes(subtypes)
	if t := typ.Text(); t != "" {
		parts = append([]string{t}, parts...)
	}
	return strings.Join(parts, ", ")
}
