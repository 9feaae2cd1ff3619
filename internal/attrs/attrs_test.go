package attrs_test

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"qc_restaurants/internal/attrs"
	"qc_restaurants/internal/domain"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      domain.Value
		wantLen int
		wantErr bool
	}{
		{"missing", domain.Missing(), 0, false},
		{"nan marker", domain.String("nan"), 0, false},
		{"nan number", domain.Number(nanValue()), 0, false},
		{"double quoted", domain.String(`{"Amenities": {"Wi-Fi": true}}`), 1, false},
		{"single quoted python", domain.String(`{'Amenities': {'Wi-Fi': True}, 'Children': {}}`), 2, false},
		{"native mapping", domain.Mapping(map[string]domain.Value{"Price": domain.Mapping(nil)}), 1, false},
		{"malformed", domain.String("{bad json"), 0, true},
		{"array is not an object", domain.String(`["a"]`), 0, true},
		{"number", domain.Number(12), 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := attrs.Parse(tc.in)
			if got == nil {
				t.Fatalf("Parse must always return a blob")
			}
			if len(got) != tc.wantLen {
				t.Fatalf("len: got %d want %d (%v)", len(got), tc.wantLen, got)
			}
			if tc.wantErr != (err != nil) {
				t.Fatalf("err: %v", err)
			}
			if err != nil && !errors.Is(err, attrs.ErrMalformedAttributes) {
				t.Fatalf("error should wrap ErrMalformedAttributes: %v", err)
			}
		})
	}
}

func TestNormalizeLiteral_KeepsApostrophesInDoubleQuotes(t *testing.T) {
	in := `{'Offerings': {"Kids' menu": True, 'Say "hi"': None}}`
	want := `{"Offerings": {"Kids' menu": true, "Say \"hi\"": null}}`
	if got := attrs.NormalizeLiteral(in); got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestExtract_ServiceOptionsAndSynonyms(t *testing.T) {
	blob, err := attrs.Parse(domain.String(`{'Service options': {'No-contact delivery': True, 'Takeout': False, 'Onsite services': True}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := attrs.Extract(blob, "").Features
	want := []domain.Feature{domain.FeatureDelivery, domain.FeatureDineIn}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestExtract_TextFallbackAndDefault(t *testing.T) {
	got := attrs.Extract(attrs.Blob{}, "Great for take-out and DELIVERY").Features
	want := []domain.Feature{domain.FeatureDelivery, domain.FeatureTakeout}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("text fallback: got %v want %v", got, want)
	}

	got = attrs.Extract(attrs.Blob{}, "").Features
	if !reflect.DeepEqual(got, attrs.DefaultFeatures) {
		t.Fatalf("default: got %v", got)
	}
}

func TestExtract_BlobWithoutServiceOptionsUsesTextThenDefault(t *testing.T) {
	blob, err := attrs.Parse(domain.String(`{'Amenities': {'Wi-Fi': True}}`))
	if err != nil || len(blob) == 0 {
		t.Fatalf("parse: %v %v", blob, err)
	}
	if got := attrs.Extract(blob, "").Features; !reflect.DeepEqual(got, attrs.DefaultFeatures) {
		t.Fatalf("default: got %v", got)
	}
	got := attrs.Extract(blob, "Free DELIVERY within Cubao").Features
	if want := []domain.Feature{domain.FeatureDelivery}; !reflect.DeepEqual(got, want) {
		t.Fatalf("text: got %v want %v", got, want)
	}
}

func TestExtract_WheelchairIsConjunction(t *testing.T) {
	partial, _ := attrs.Parse(domain.String(`{"Accessibility": {"Wheelchair accessible entrance": true, "Wheelchair accessible seating": false}}`))
	if attrs.Extract(partial, "").WheelchairAccessible {
		t.Fatalf("partial accommodation must not count")
	}
	full, _ := attrs.Parse(domain.String(`{"Accessibility": {"Wheelchair accessible entrance": true, "Wheelchair accessible seating": true}}`))
	if !attrs.Extract(full, "").WheelchairAccessible {
		t.Fatalf("both flags should count")
	}
}

func TestExtract_ChildrenAndAmenities(t *testing.T) {
	blob, _ := attrs.Parse(domain.String(`{'Children': {'Good for kids': True, 'High chairs': True}, 'Amenities': {'Wi-Fi': True}}`))
	f := attrs.Extract(blob, "")
	if !f.GoodForKids || !f.HasHighChairs || !f.HasWiFi {
		t.Fatalf("unexpected facts: %+v", f)
	}
}

func TestExtract_MalformedBlobYieldsDefaults(t *testing.T) {
	raw := "{bad json"
	blob, err := attrs.Parse(domain.String(raw))
	if err == nil {
		t.Fatalf("expected error")
	}
	f := attrs.Extract(blob, raw)
	if !reflect.DeepEqual(f.Features, attrs.DefaultFeatures) {
		t.Fatalf("features: %v", f.Features)
	}
	if f.WheelchairAccessible || f.GoodForKids || f.HasWiFi || f.HasHighChairs {
		t.Fatalf("flags should default false: %+v", f)
	}
}

func TestExtract_Highlights(t *testing.T) {
	blob, _ := attrs.Parse(domain.String(`{"Popular for": {"Solo dining": true, "Lunch": true, "Dinner": false}}`))
	if got := attrs.Extract(blob, "").Highlights; !reflect.DeepEqual(got, []string{"Lunch", "Solo dining"}) {
		t.Fatalf("blob highlights: %v", got)
	}
	got := attrs.Extract(attrs.Blob{}, "brunch spot, dinner, big groups and families").Highlights
	if !reflect.DeepEqual(got, []string{"Breakfast", "Dinner", "Groups"}) {
		t.Fatalf("keyword highlights: %v", got)
	}
}

func TestPriceTier(t *testing.T) {
	priceBlob, _ := attrs.Parse(domain.String(`{"Price": {"₱": true, "₱₱": true, "₱₱₱": false}}`))
	tests := []struct {
		name     string
		field    domain.Value
		blob     attrs.Blob
		category string
		want     int
	}{
		{"dedicated field", domain.String("₱₱₱"), attrs.Blob{}, "", 3},
		{"dedicated field capped", domain.String("₱₱₱₱₱"), attrs.Blob{}, "", 4},
		{"dollar fallback", domain.String("$$"), attrs.Blob{}, "", 2},
		{"blob price keys", domain.Missing(), priceBlob, "", 2},
		{"field beats blob", domain.String("₱"), priceBlob, "", 1},
		{"fast food forces one", domain.String("₱₱₱"), attrs.Blob{}, "Fast food restaurant", 1},
		{"empty blob fast food", domain.Missing(), attrs.Blob{}, "fast food", 1},
		{"no signal", domain.Missing(), attrs.Blob{}, "", 1},
		{"range without symbols", domain.String("200-400"), attrs.Blob{}, "", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := attrs.PriceTier(tc.field, tc.blob, tc.category); got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}
}

func TestCuisine(t *testing.T) {
	tests := []struct {
		name     string
		subtypes domain.Value
		typ      domain.Value
		want     string // "" means nil
	}{
		{"generic only", domain.String(`["Restaurant"]`), domain.Missing(), ""},
		{"strip suffix", domain.String(`["Filipino Restaurant"]`), domain.Missing(), "Filipino"},
		{"skip generic first", domain.String(`['Restaurant', 'Korean restaurant']`), domain.Missing(), "Korean"},
		{"comma split", domain.String("Japanese restaurant, Ramen restaurant"), domain.Missing(), "Japanese"},
		{"list value", domain.List(domain.String("Cafe")), domain.Missing(), "Cafe"},
		{"type fallback", domain.Missing(), domain.String("Chinese Restaurant"), "Chinese"},
		{"nothing", domain.Missing(), domain.Missing(), ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := attrs.Cuisine(tc.subtypes, tc.typ)
			switch {
			case tc.want == "" && got != nil:
				t.Fatalf("want nil, got %q", *got)
			case tc.want != "" && (got == nil || *got != tc.want):
				t.Fatalf("want %q, got %v", tc.want, got)
			}
		})
	}
}

func nanValue() float64 { return math.NaN() }
