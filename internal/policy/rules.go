package policy

import (
	"fmt"
	"math"
	"strconv"
)

// RuleKind is the closed set of extra-field matcher kinds.
type RuleKind string

const (
	RulePresence     RuleKind = "presence"
	RuleBoolean      RuleKind = "boolean"
	RuleNumericRange RuleKind = "numeric_range"
	RuleStringIn     RuleKind = "string_in"
)

// Rule scores one field of the request's extra signal map.
// Min/Max apply to numeric_range (nil means unbounded); In applies to
// string_in. Unknown kinds never match.
type Rule struct {
	Field  string   `json:"field"`
	Kind   RuleKind `json:"type"`
	Weight int      `json:"weight"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	In     []string `json:"in,omitempty"`
}

func (r Rule) clone() Rule {
	out := r
	if r.Min != nil {
		v := *r.Min
		out.Min = &v
	}
	if r.Max != nil {
		v := *r.Max
		out.Max = &v
	}
	if r.In != nil {
		out.In = make([]string, len(r.In))
		copy(out.In, r.In)
	}
	return out
}

// Matches reports whether the rule matches the given signal value.
// A missing field is passed as nil.
func (r Rule) Matches(value any) bool {
	switch r.Kind {
	case RulePresence:
		return value != nil && value != ""
	case RuleBoolean:
		b, ok := value.(bool)
		return ok && b
	case RuleNumericRange:
		v, ok := toNumber(value)
		if !ok {
			return false
		}
		min := math.Inf(-1)
		max := math.Inf(1)
		if r.Min != nil {
			min = *r.Min
		}
		if r.Max != nil {
			max = *r.Max
		}
		return v >= min && v <= max
	case RuleStringIn:
		s := stringify(value)
		for _, candidate := range r.In {
			if s == candidate {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// toNumber coerces JSON scalar values into a float64.
func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	// Match JSON number formatting for whole floats ("3", not "3.000000").
	if f, ok := value.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprint(value)
}
