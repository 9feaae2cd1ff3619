// Package schema resolves which source columns carry each logical restaurant
// field in a batch and exposes typed accessors with documented defaults.
package schema

import (
	"math"
	"strings"

	"qc_restaurants/internal/domain"
)

// Field is a logical field of a restaurant row.
type Field string

const (
	Name           Field = "name"
	Phone          Field = "phone"
	Site           Field = "site"
	Reviews        Field = "reviews"
	Rating         Field = "rating"
	Latitude       Field = "latitude"
	Longitude      Field = "longitude"
	About          Field = "about"
	Description    Field = "description"
	Subtypes       Field = "subtypes"
	Type           Field = "type"
	WorkingHours   Field = "working_hours"
	Photo          Field = "photo"
	Price          Field = "price"
	TopPick        Field = "top_pick"
	Area           Field = "area_label"
	Street         Field = "street"
	BusinessStatus Field = "business_status"
)

/********** alias registry (single source of truth) **********/

// aliases lists candidate column names per field, highest priority first.
var aliases = map[Field][]string{
	Name:           {"name", "name_for_emails", "title"},
	Phone:          {"+63", "phone", "phone_1", "phone_number"},
	Site:           {"site", "website", "url"},
	Reviews:        {"reviews", "reviews_count", "review_count"},
	Rating:         {"rating", "stars"},
	Latitude:       {"latitude", "lat"},
	Longitude:      {"longitude", "lng", "lon"},
	About:          {"about", "attributes"},
	Description:    {"description"},
	Subtypes:       {"subtypes"},
	Type:           {"type", "category"},
	WorkingHours:   {"working_hours", "hours", "opening_hours"},
	Photo:          {"photo", "photo_url", "image"},
	Price:          {"range", "price", "prices", "price_range"},
	TopPick:        {"top pick", "top_pick"},
	Area:           {"SEO Area", "seo_area", "area"},
	Street:         {"street", "address", "full_address"},
	BusinessStatus: {"business_status", "status"},
}

// Fields lists every logical field in a stable order.
var Fields = []Field{
	Name, Phone, Site, Reviews, Rating, Latitude, Longitude, About, Description,
	Subtypes, Type, WorkingHours, Photo, Price, TopPick, Area, Street, BusinessStatus,
}

// Aliases returns the priority-ordered column names accepted for f.
func Aliases(f Field) []string { return append([]string(nil), aliases[f]...) }

// Mapper is the per-batch lookup table from logical field to source column.
// It is built once per batch and is safe for concurrent reads.
type Mapper struct {
	cols map[Field]string
}

// Resolve picks, for every field, the first alias present among columns.
// Exact names win over case/whitespace-insensitive matches.
func Resolve(columns []string) *Mapper {
	exact := make(map[string]struct{}, len(columns))
	folded := make(map[string]string, len(columns))
	for _, c := range columns {
		exact[c] = struct{}{}
		k := foldColumn(c)
		if _, dup := folded[k]; !dup {
			folded[k] = c
		}
	}

	m := &Mapper{cols: make(map[Field]string, len(aliases))}
	for f, names := range aliases {
		if col, ok := pick(names, exact, folded); ok {
			m.cols[f] = col
		}
	}
	return m
}

func pick(names []string, exact map[string]struct{}, folded map[string]string) (string, bool) {
	for _, n := range names {
		if _, ok := exact[n]; ok {
			return n, true
		}
	}
	for _, n := range names {
		if c, ok := folded[foldColumn(n)]; ok {
			return c, true
		}
	}
	return "", false
}

func foldColumn(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Column returns the source column resolved for f.
func (m *Mapper) Column(f Field) (string, bool) {
	if m == nil {
		return "", false
	}
	c, ok := m.cols[f]
	return c, ok
}

// Missing lists the fields no source column could serve, in Fields order.
func (m *Mapper) Missing() []Field {
	var out []Field
	for _, f := range Fields {
		if _, ok := m.Column(f); !ok {
			out = append(out, f)
		}
	}
	return out
}

/********** typed accessors with defaults **********/

// Value returns the raw cell for f, Missing when unmapped.
func (m *Mapper) Value(row domain.RawRow, f Field) domain.Value {
	c, ok := m.Column(f)
	if !ok || row == nil {
		return domain.Missing()
	}
	return row[c]
}

// String returns trimmed text for f, "" by default.
func (m *Mapper) String(row domain.RawRow, f Field) string {
	return m.Value(row, f).Text()
}

// OptString returns text for f or nil when blank or a null marker.
func (m *Mapper) OptString(row domain.RawRow, f Field) *string {
	if s := m.String(row, f); s != "" {
		return &s
	}
	return nil
}

// Float returns a number for f; ok is false when absent or unparseable.
func (m *Mapper) Float(row domain.RawRow, f Field) (float64, bool) {
	return m.Value(row, f).Float()
}

// Count returns a non-negative integer for f, 0 by default.
func (m *Mapper) Count(row domain.RawRow, f Field) int {
	raw := m.Value(row, f)
	if s, ok := raw.Str(); ok {
		// "1,234" is a thousands separator here, not a decimal comma
		raw = domain.String(thousands.Replace(s))
	}
	v, ok := raw.Float()
	if !ok || v <= 0 {
		return 0
	}
	return int(math.Floor(v))
}

var thousands = strings.NewReplacer(",", "", " ", "", "_", "")

// Bool returns a boolean-ish flag for f, false by default.
func (m *Mapper) Bool(row domain.RawRow, f Field) bool {
	return m.Value(row, f).Truthy()
}
