package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the shape of a raw Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindString
	KindNumber
	KindBool
	KindMapping
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindMapping:
		return "mapping"
	case KindList:
		return "list"
	default:
		return "missing"
	}
}

// Value is a raw scalar or nested structure as delivered by a row source.
// The zero Value is Missing.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	m    map[string]Value
	list []Value
}

func Missing() Value         { return Value{} }
func String(s string) Value  { return Value{kind: KindString, str: s} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func List(vs ...Value) Value { return Value{kind: KindList, list: vs} }

func Mapping(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMapping, m: m}
}

// Number wraps f; NaN and ±Inf are treated as Missing, the way spreadsheet exports mark blanks.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// FromAny converts JSON-decoded data into a Value.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Missing()
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return String(t.String())
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromAny(e)
		}
		return Mapping(m)
	case []any:
		out := make([]Value, 0, len(t))
		for _, e := range t {
			out = append(out, FromAny(e))
		}
		return List(out...)
	case []string:
		out := make([]Value, 0, len(t))
		for _, e := range t {
			out = append(out, String(e))
		}
		return List(out...)
	default:
		return String(fmt.Sprint(t))
	}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Str returns the string payload; ok is false for non-string kinds.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the number payload; ok is false for non-number kinds.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Boolean returns the bool payload; ok is false for non-bool kinds.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// Map returns the mapping payload; ok is false for non-mapping kinds.
func (v Value) Map() (map[string]Value, bool) { return v.m, v.kind == KindMapping }

// Items returns the list payload; ok is false for non-list kinds.
func (v Value) Items() ([]Value, bool) { return v.list, v.kind == KindList }

// Get returns the child at key of a mapping, Missing otherwise.
func (v Value) Get(key string) Value {
	if v.kind != KindMapping {
		return Missing()
	}
	return v.m[key]
}

// absentMarkers are the textual placeholders spreadsheet/pandas exports use for blank cells.
var absentMarkers = map[string]struct{}{
	"": {}, "nan": {}, "none": {}, "null": {}, "nat": {},
}

// IsAbsentText reports whether s is blank or one of the textual null markers.
func IsAbsentText(s string) bool {
	_, ok := absentMarkers[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Text renders a scalar as trimmed text. Missing, absent markers and structured values yield "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		if IsAbsentText(v.str) {
			return ""
		}
		return strings.TrimSpace(v.str)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Float returns a number from a number or numeric string (comma decimals accepted).
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		s := strings.TrimSpace(strings.ReplaceAll(v.str, ",", "."))
		if IsAbsentText(s) {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Truthy interprets boolean-ish values: true, "true"/"yes"/"y"/"1"/"x", non-zero numbers.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num != 0
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.str)) {
		case "true", "yes", "y", "1", "x", "✓", "✔":
			return true
		}
	}
	return false
}

// MarshalJSON renders Missing as null and the other kinds natively.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindMapping:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			eb, err := v.m[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(eb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// RawRow maps a source column name to its raw cell.
type RawRow map[string]Value

// Batch is one load of rows from a source. Columns keeps the source header order.
type Batch struct {
	Columns []string `json:"columns"`
	Rows    []RawRow `json:"rows"`
}

// ColumnSet returns Columns, or the sorted union of row keys when no header was supplied.
func (b Batch) ColumnSet() []string {
	if len(b.Columns) > 0 {
		return b.Columns
	}
	seen := map[string]struct{}{}
	var out []string
	for _, r := range b.Rows {
		for k := range r {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
