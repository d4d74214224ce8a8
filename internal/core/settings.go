package core

import "strings"

// NormalizeSettings reconciles a raw settings value against base.
//
// A raw value that is not a JSON object yields a copy of base. Otherwise the
// currency symbol and unit label are trimmed and fall back to base when empty,
// and categories are trimmed, stripped of empties and deduplicated keeping the
// first occurrence. The result is idempotent: normalizing it again with the same
// base returns an equal value.
func NormalizeSettings(raw any, base Settings) (Settings, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return base.Clone(), nil
	}

	symbol := strings.TrimSpace(stringOr(obj, "currencySymbol", base.CurrencySymbol))
	if symbol == "" {
		symbol = base.CurrencySymbol
	}
	unit := strings.TrimSpace(stringOr(obj, "unitLabel", base.UnitLabel))
	if unit == "" {
		unit = base.UnitLabel
	}

	var source []string
	if list, ok := obj["categories"].([]any); ok {
		source = make([]string, len(list))
		for i, v := range list {
			source[i] = stringify(v)
		}
	} else {
		source = base.Categories
	}

	categories := dedupeCategories(source)
	if len(categories) == 0 {
		return Settings{}, ErrNoCategories
	}
	for _, c := range categories {
		if !Validate(FieldCategory, c) {
			return Settings{}, &InvalidCategoryError{Value: c}
		}
	}

	return Settings{
		CurrencySymbol: symbol,
		UnitLabel:      unit,
		Categories:     categories,
	}, nil
}

// SettingsInput builds the raw form NormalizeSettings expects from typed values.
func SettingsInput(symbol, unit string, categories []string) map[string]any {
	list := make([]any, len(categories))
	for i, c := range categories {
		list[i] = c
	}
	return map[string]any{
		"currencySymbol": symbol,
		"unitLabel":      unit,
		"categories":     list,
	}
}

// SplitCategories splits a comma separated category list as typed by a user.
func SplitCategories(s string) []string {
	return strings.Split(s, ",")
}

func dedupeCategories(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// stringOr reads key from obj as a string, using def when the key is missing or null.
func stringOr(obj map[string]any, key, def string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return def
	}
	return stringify(v)
}
