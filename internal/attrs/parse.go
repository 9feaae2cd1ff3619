// Package attrs parses the provider's "about" attribute blob and derives
// typed facts (service options, amenities, accessibility, price, cuisine).
package attrs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"qc_restaurants/internal/domain"
)

// ErrMalformedAttributes marks a blob that could not be read as a mapping.
var ErrMalformedAttributes = errors.New("attrs: malformed attribute data")

// Blob is the parsed about payload: category → nested mapping or scalar.
type Blob map[string]domain.Value

// Parse reads an about cell. It always returns a usable Blob: on failure the
// Blob is empty and the error wraps ErrMalformedAttributes.
func Parse(v domain.Value) (Blob, error) {
	switch v.Kind() {
	case domain.KindMissing:
		return Blob{}, nil
	case domain.KindMapping:
		m, _ := v.Map()
		return Blob(m), nil
	case domain.KindString:
		s, _ := v.Str()
		if domain.IsAbsentText(s) {
			return Blob{}, nil
		}
		m, err := DecodeObject(s)
		if err != nil {
			return Blob{}, err
		}
		return Blob(m), nil
	default:
		return Blob{}, fmt.Errorf("%w: unexpected %s value", ErrMalformedAttributes, v.Kind())
	}
}

// DecodeObject parses a JSON-like object that may use single quotes or
// Python literals (True/False/None) into a mapping.
func DecodeObject(s string) (map[string]domain.Value, error) {
	var raw any
	if err := json.Unmarshal([]byte(NormalizeLiteral(s)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAttributes, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedAttributes)
	}
	m, _ := domain.FromAny(obj).Map()
	return m, nil
}

// DecodeAny parses any JSON-like literal with the same tolerance as DecodeObject.
func DecodeAny(s string) (domain.Value, error) {
	var raw any
	if err := json.Unmarshal([]byte(NormalizeLiteral(s)), &raw); err != nil {
		return domain.Missing(), fmt.Errorf("%w: %v", ErrMalformedAttributes, err)
	}
	return domain.FromAny(raw), nil
}

// NormalizeLiteral rewrites single-quoted strings as double-quoted ones
// (escaping embedded double quotes) and maps bare True/False/None outside
// strings to their JSON spellings. Everything else passes through untouched.
func NormalizeLiteral(s string) string {
	const (
		outside = iota
		inDouble
		inSingle
	)
	var b strings.Builder
	b.Grow(len(s) + 8)
	state := outside
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case inDouble:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
				continue
			}
			if c == '"' {
				state = outside
			}
		case inSingle:
			switch c {
			case '\\':
				if i+1 < len(s) {
					i++
					if s[i] == '\'' {
						b.WriteByte('\'')
					} else {
						b.WriteByte('\\')
						b.WriteByte(s[i])
					}
				}
			case '"':
				b.WriteString(`\"`)
			case '\'':
				b.WriteByte('"')
				state = outside
			default:
				b.WriteByte(c)
			}
		default:
			switch {
			case c == '"':
				state = inDouble
				b.WriteByte(c)
			case c == '\'':
				state = inSingle
				b.WriteByte('"')
			case isWordByte(c):
				j := i
				for j < len(s) && isWordByte(s[j]) {
					j++
				}
				switch w := s[i:j]; w {
				case "True":
					b.WriteString("true")
				case "False":
					b.WriteString("false")
				case "None":
					b.WriteString("null")
				default:
					b.WriteString(w)
				}
				i = j - 1
			default:
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

/********** lookups **********/

// Category returns the nested value stored under name. Keys are compared
// exactly first, then case-insensitively with '_' read as a space, so the
// older "service_options" spelling resolves too.
func (b Blob) Category(name string) (domain.Value, bool) {
	if v, ok := b[name]; ok {
		return v, true
	}
	want := foldKey(name)
	for k, v := range b {
		if foldKey(k) == want {
			return v, true
		}
	}
	return domain.Missing(), false
}

// Flag reports whether category.key is set to a truthy value.
func (b Blob) Flag(category, key string) bool {
	c, ok := b.Category(category)
	if !ok {
		return false
	}
	return flag(c, key)
}

func flag(category domain.Value, key string) bool {
	m, ok := category.Map()
	if !ok {
		return false
	}
	if v, ok := m[key]; ok {
		return v.Truthy()
	}
	want := foldKey(key)
	for k, v := range m {
		if foldKey(k) == want {
			return v.Truthy()
		}
	}
	return false
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "_", " ")))
}
