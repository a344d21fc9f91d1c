package extract

import (
	"encoding/json"
	"unicode/utf8"
)

// lookup returns the value of the first name present in obj.
// A present key wins even when its value is null.
func lookup(obj map[string]any, names ...string) (any, bool) {
	for _, name := range names {
		if v, ok := obj[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// stringField returns obj[name] when it is a string, otherwise def
func stringField(obj map[string]any, name, def string) string {
	if s, ok := obj[name].(string); ok {
		return s
	}
	return def
}

// identifier converts a scalar JSON value to an identifier string.
// Strings are used verbatim and numbers keep their literal text;
// anything else yields false.
func identifier(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, val != ""
	case json.Number:
		return val.String(), true
	default:
		return "", false
	}
}

// firstIdentifier returns the first non-empty identifier among names
func firstIdentifier(obj map[string]any, names ...string) (string, bool) {
	for _, name := range names {
		if id, ok := identifier(obj[name]); ok {
			return id, true
		}
	}
	return "", false
}

// objects returns the JSON objects held in a list value, skipping other kinds
func objects(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// truncate returns at most n runes of s
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// snippet truncates s to n runes and always appends an ellipsis marker
func snippet(s string, n int) string {
	return truncate(s, n) + "..."
}
