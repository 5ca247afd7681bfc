// Package tailoring resolves the effective configuration of a channel: the
// channel's base settings overlaid with the first per-title override rule that
// matches the message title.
package tailoring

import (
	"fmt"
	"maps"
	"strconv"
)

const (
	// Key is the config field holding the ordered override rules.
	Key = "tailoring"

	titleKey = "title"
	matchKey = "match"
)

// Values is one channel's configuration as loaded from the config file.
type Values map[string]any

// Clone returns a shallow copy of v.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	return maps.Clone(v)
}

// Resolve returns the effective configuration for a message titled title.
//
// Rules are scanned in order and the first whose title (or match) field equals
// title, or lists it, wins. Its non-null fields overlay a copy of base; fields
// the rule omits or sets to null keep their base value. Without a tailoring
// field or a matching rule, base is returned unchanged.
func Resolve(base Values, title string) Values {
	rules, ok := base[Key].([]any)
	if !ok {
		return base
	}

	for _, raw := range rules {
		rule, ok := asValues(raw)
		if !ok || !matches(rule, title) {
			continue
		}

		out := base.Clone()
		for k, val := range rule {
			if k == titleKey || k == matchKey || val == nil {
				continue
			}
			out[k] = val
		}
		return out
	}

	return base
}

func matches(rule Values, title string) bool {
	pattern, ok := rule[titleKey]
	if !ok {
		pattern, ok = rule[matchKey]
	}
	if !ok {
		return false
	}

	switch p := pattern.(type) {
	case []any:
		for _, candidate := range p {
			if s, ok := scalarString(candidate); ok && s == title {
				return true
			}
		}
		return false
	case []string:
		for _, candidate := range p {
			if candidate == title {
				return true
			}
		}
		return false
	default:
		s, ok := scalarString(p)
		return ok && s == title
	}
}

func asValues(raw any) (Values, bool) {
	switch m := raw.(type) {
	case Values:
		return m, true
	case map[string]any:
		return Values(m), true
	default:
		return nil, false
	}
}

// scalarString renders YAML scalars the way they were written, so a rule
// titled 2024 still matches the title "2024".
func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case uint64:
		return strconv.FormatUint(s, 10), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return fmt.Sprint(v), false
	}
}
