// Package evidence pulls typed facts out of captured logs and JSON
// snapshots. Sources are adversarial by accident: truncated logs, tool
// output that changed shape across versions, half-written JSON. Every
// function here degrades to a safe default instead of erroring; callers
// treat absence as "check failed", never as "check errored".
package evidence

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// MatchAny reports whether any pattern matches the source. Patterns are
// case-insensitive regular expressions; a pattern that fails to compile is
// demoted to a case-insensitive substring search rather than dropped, so a
// bad pattern loosens a check instead of silently disabling it.
func MatchAny(src string, patterns []string) bool {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			if strings.Contains(strings.ToLower(src), strings.ToLower(p)) {
				return true
			}
			continue
		}
		if re.MatchString(src) {
			return true
		}
	}
	return false
}

// Count returns the number of non-overlapping matches of pattern in src,
// case-insensitively. 0 on absence or on an uncompilable pattern that also
// fails substring counting.
func Count(src, pattern string) int {
	if pattern == "" {
		return 0
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return strings.Count(strings.ToLower(src), strings.ToLower(pattern))
	}
	return len(re.FindAllStringIndex(src, -1))
}

// Field navigates doc by a dot path ("status", "mission.status",
// "tasks.0.id") and returns the value found, or def when the document is
// missing, malformed, or the path does not resolve. Numeric segments index
// arrays.
func Field(doc []byte, path string, def any) any {
	if len(doc) == 0 {
		return def
	}
	var root any
	if err := json.Unmarshal(doc, &root); err != nil {
		return def
	}
	cur := root
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return def
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return def
			}
			cur = node[idx]
		default:
			return def
		}
	}
	return cur
}

// Str is Field narrowed to a string result.
func Str(doc []byte, path, def string) string {
	if v, ok := Field(doc, path, def).(string); ok {
		return v
	}
	return def
}

// Items normalizes the two top-level shapes the collaborator tools have
// emitted (a bare array, or an object wrapping one under a known key) into
// a flat slice of objects. Returns nil, never errors. This is the single
// place the array-vs-wrapped union is resolved; downstream code only sees the
// normalized sequence.
func Items(doc []byte, keys ...string) []map[string]any {
	if len(doc) == 0 {
		return nil
	}
	var arr []any
	if err := json.Unmarshal(doc, &arr); err != nil {
		var obj map[string]any
		if err := json.Unmarshal(doc, &obj); err != nil {
			return nil
		}
		for _, k := range keys {
			if inner, ok := obj[k].([]any); ok {
				arr = inner
				break
			}
		}
	}
	var items []map[string]any
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items
}
