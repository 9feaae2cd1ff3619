package app

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

/********** text folding (x/text chains, pooled) **********/

// slugChain decomposes, drops accents and recomposes: "Café Ñora" → "Cafe Nora".
var slugChain = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
			width.Fold,
		)
	},
}

// labelChain is the grouping key for facet labels.
var labelChain = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFKC, cases.Fold(), runes.Remove(runes.In(unicode.Cf)))
	},
}

func fold(pool *sync.Pool, s string) string {
	tr := pool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	pool.Put(tr)
	if err != nil {
		return s
	}
	return out
}

// Slugify builds the URL slug for a restaurant name: lowercase ASCII
// letters and digits joined by single hyphens.
func Slugify(name string) string {
	s := strings.ToLower(fold(&slugChain, strings.ToValidUTF8(name, "")))

	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return b.String()
}

// labelKey folds a facet label so "Filipino" and "FILIPINO " count together.
func labelKey(label string) string {
	return strings.Join(strings.Fields(fold(&labelChain, label)), " ")
}

// cleanLabel trims and collapses inner whitespace for display.
func cleanLabel(label string) string {
	return strings.Join(strings.Fields(label), " ")
}

/********** contact fields **********/

// NormalizePhone rewrites Philippine numbers to local format. Mobile numbers
// become "0917 123 4567", Metro Manila landlines "(02) 8123 4567". Anything
// else is returned trimmed. Blank input yields nil.
func NormalizePhone(raw string) *string {
	s := strings.TrimSpace(raw)
	// spreadsheets hand numbers back as floats
	s = strings.TrimSuffix(s, ".0")
	if s == "" {
		return nil
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	switch {
	case strings.HasPrefix(digits, "63") && (strings.HasPrefix(s, "+") || len(digits) == 12 || len(digits) == 11):
		digits = "0" + digits[2:]
	case len(digits) == 10 && digits[0] == '9':
		digits = "0" + digits
	case len(digits) == 9 && digits[0] == '2':
		digits = "0" + digits
	}

	var out string
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "09"):
		out = digits[:4] + " " + digits[4:7] + " " + digits[7:]
	case len(digits) == 10 && strings.HasPrefix(digits, "02"):
		out = "(02) " + digits[2:6] + " " + digits[6:]
	default:
		out = s
	}
	return &out
}

// NormalizeSite returns a URL with a scheme, or nil when blank.
func NormalizeSite(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	low := strings.ToLower(s)
	if !strings.HasPrefix(low, "http://") && !strings.HasPrefix(low, "https://") {
		s = "https://" + s
	}
	return &s
}

func ptrFloat(f float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &f
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, " ")
}
