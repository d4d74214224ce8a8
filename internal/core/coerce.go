package core

// Coercion helpers for loosely typed JSON values.
//
// Import files are decoded with json.Decoder.UseNumber, so a raw value is one of
// nil, bool, string, json.Number, []any or map[string]any. These helpers turn such
// values into strings and numbers with the same rules the browser ledger used when
// it wrote the files, so old exports keep importing the same way.

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numericLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// stringify converts a raw value to its string form.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case json.Number:
		f, ok := toNumber(val)
		if !ok {
			return "NaN"
		}
		return formatNumber(f)
	case float64:
		return formatNumber(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			if item != nil {
				parts[i] = stringify(item)
			}
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	default:
		return ""
	}
}

// toNumber converts a raw value to a finite float64. The second result is false
// when the value has no numeric reading or is not finite.
func toNumber(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case json.Number:
		return parseNumber(val.String())
	case float64:
		f = val
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		return parseNumber(val)
	case []any:
		return parseNumber(stringify(val))
	default:
		return 0, false
	}
	return f, !math.IsNaN(f) && !math.IsInf(f, 0)
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	if !numericLiteral.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// formatNumber renders f the shortest way that reads back to the same value.
// Very large and very small magnitudes use exponent notation.
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		// Exponents carry an explicit sign and no leading zeros: 1e-7, 1e+21.
		s := strconv.FormatFloat(f, 'e', -1, 64)
		i := strings.IndexByte(s, 'e')
		digits := strings.TrimLeft(s[i+2:], "0")
		return s[:i+2] + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
