package pocket

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// decimalNumberPattern recognizes strings that look like decimal
// numbers (with optional thousands separators) for string-to-bool
// conversion.
var decimalNumberPattern = regexp.MustCompile(`^-?\d+(,\d+)*(\.\d+(e\d+)?)?$`)

// GetString returns the value at key rendered as a string. Numbers
// keep their exact text form and bools render as "true"/"false".
// The default is returned when the key is absent or the value has no
// string form (lists, sub-pockets, nil).
func (p *Pocket) GetString(key, def string) string {
	v, ok := p.entries[key]
	if !ok {
		return def
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return def
	}
}

// GetInt returns the value at key as an integer. Numbers with a
// fractional part are truncated, bools convert to 0/1, and strings
// must parse as integers. The default is returned on absence or cast
// failure.
func (p *Pocket) GetInt(key string, def int64) int64 {
	v, ok := p.entries[key]
	if !ok {
		return def
	}
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return int64(f)
		}
		return def
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
		return def
	default:
		return def
	}
}

// GetFloat returns the value at key as a float. Bools convert to
// 0/1 and strings must parse as floats. The default is returned on
// absence or cast failure.
func (p *Pocket) GetFloat(key string, def float64) float64 {
	v, ok := p.entries[key]
	if !ok {
		return def
	}
	switch val := v.(type) {
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return def
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		return def
	default:
		return def
	}
}

// GetBool returns the value at key as a boolean. Numbers are true
// when non-zero. Strings follow the legacy conversion table:
// "no"/"false"/"0" (case-insensitive) are false, decimal-looking
// strings are true when non-zero, any other non-empty string is true.
// The default is returned on absence or for valueless types.
func (p *Pocket) GetBool(key string, def bool) bool {
	v, ok := p.entries[key]
	if !ok {
		return def
	}
	switch val := v.(type) {
	case bool:
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f != 0
		}
		return def
	case string:
		return stringToBool(val, def)
	default:
		return def
	}
}

// GetList returns a copy of the list stored at key, or the default
// when the key is absent or holds a non-list value.
func (p *Pocket) GetList(key string, def []any) []any {
	v, ok := p.entries[key]
	if !ok {
		return def
	}
	if list, ok := v.([]any); ok {
		return copyValue(list).([]any)
	}
	return def
}

// stringToBool applies the legacy string-to-bool conversion rules.
func stringToBool(s string, def bool) bool {
	switch strings.ToLower(s) {
	case "":
		return def
	case "no", "false", "0":
		return false
	}
	if decimalNumberPattern.MatchString(s) {
		cleaned := strings.ReplaceAll(s, ",", "")
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f != 0
		}
	}
	return true
}
