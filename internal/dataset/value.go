package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind tags the scalar type held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Value is a single cell: a string, a number, or a date-like string.
// Dates keep their original text so they round-trip unchanged.
type Value struct {
	kind Kind
	str  string
	num  float64
	date time.Time
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f, str: strconv.FormatFloat(f, 'f', -1, 64)}
}

// Date returns a date Value carrying the original cell text.
func Date(raw string, t time.Time) Value {
	return Value{kind: KindDate, str: raw, date: t}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
}

// Parse types raw cell text: finite integers and decimals become numbers,
// ISO-like dates become dates, everything else (NaN and Inf included) stays a
// string.
func Parse(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return String(raw)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Number(float64(i))
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Number(f)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date(raw, t)
		}
	}
	return String(raw)
}

func (v Value) Kind() Kind { return v.kind }

// Text returns the cell as display text.
func (v Value) Text() string { return v.str }

// Float returns the numeric value. Strings that parse as numbers are converted;
// ok is false for anything else.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Time returns the parsed date for date values.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

// Interface returns the value as a plain Go value (float64 or string), the
// form used by expression environments.
func (v Value) Interface() any {
	if v.kind == KindNumber {
		return v.num
	}
	return v.str
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindNumber {
		return v.num == o.num
	}
	return v.str == o.str
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && !math.IsNaN(v.num) && !math.IsInf(v.num, 0) {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case float64:
		*v = Number(x)
	case string:
		*v = Parse(x)
		if v.kind == KindNumber {
			// Quoted numbers stay strings; only JSON numbers are numeric.
			*v = String(x)
		}
	case nil:
		*v = String("")
	case bool:
		*v = String(strconv.FormatBool(x))
	default:
		*v = String(string(b))
	}
	return nil
}
