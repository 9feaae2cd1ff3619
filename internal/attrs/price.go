package attrs

import (
	"strings"

	"qc_restaurants/internal/domain"
)

const (
	MinTier = 1 // budget-friendly
	MaxTier = 4 // fine dining
)

// currencySymbols are tried in order; the first one found in a text sets the tier.
var currencySymbols = []string{"₱", "$"}

// PriceTier derives the 1..4 tier. A fast-food category forces tier 1; otherwise
// the dedicated price field wins, then the blob's price_level text, then the
// blob's Price sub-mapping. With no signal the tier is MinTier.
func PriceTier(priceField domain.Value, blob Blob, category string) int {
	if strings.Contains(strings.ToLower(category), "fast food") {
		return MinTier
	}
	if n := symbolCount(priceField.Text()); n > 0 {
		return clampTier(n)
	}
	if lvl, ok := blob.Category("price_level"); ok {
		if n := symbolCount(lvl.Text()); n > 0 {
			return clampTier(n)
		}
	}
	if p, ok := blob.Category(catPrice); ok {
		if m, ok := p.Map(); ok {
			n := 0
			for k, v := range m {
				if symbolCount(k) > 0 && v.Truthy() {
					n++
				}
			}
			if n > 0 {
				return clampTier(n)
			}
		}
	}
	return MinTier
}

func symbolCount(s string) int {
	for _, sym := range currencySymbols {
		if n := strings.Count(s, sym); n > 0 {
			return n
		}
	}
	return 0
}

func clampTier(n int) int {
	if n < MinTier {
		return MinTier
	}
	if n > MaxTier {
		return MaxTier
	}
	return n
}
