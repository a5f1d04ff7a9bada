package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

	// A syntactically plausible number, thousands separators included.
	numberRe = regexp.MustCompile(`-?\d{1,3}(?:,\d{3})+(?:\.\d+)?|-?\d+(?:\.\d+)?`)
)

// StripCodeFence removes a surrounding markdown code fence, if any, and
// trims whitespace.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "```") {
		if m := fenceRe.FindStringSubmatch(s); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return s
}

// JSONObject attempts to interpret text as a single JSON object. It tries
// the whole (fence-stripped) response first, then the span from the first
// "{" through the last "}".
func JSONObject(text string) (map[string]any, bool) {
	stripped := StripCodeFence(text)
	if strings.HasPrefix(stripped, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(stripped), &obj); err == nil {
			return obj, true
		}
	}
	start := strings.Index(stripped, "{")
	end := strings.LastIndex(stripped, "}")
	if start >= 0 && end > start {
		var obj map[string]any
		if err := json.Unmarshal([]byte(stripped[start:end+1]), &obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

// JSONObjectWithKey is JSONObject restricted to objects that contain the
// given key. When the outer span does not parse, it falls back to the
// smallest embedded object mentioning the key.
func JSONObjectWithKey(text, key string) (map[string]any, bool) {
	if obj, ok := JSONObject(text); ok {
		if _, present := obj[key]; present {
			return obj, true
		}
	}
	// Look for an embedded {...} containing the quoted key.
	embedded := regexp.MustCompile(`(?s)\{[^{}]*"` + regexp.QuoteMeta(key) + `"[^{}]*\}`)
	if m := embedded.FindString(text); m != "" {
		var obj map[string]any
		if err := json.Unmarshal([]byte(m), &obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

// LabelValue finds the first case-insensitive occurrence of any of the
// labels followed by a colon and returns the remainder of that line. When
// the model ran several labels together on one line, the value is truncated
// at the next label from known.
func LabelValue(text string, labels []string, known []string) (string, bool) {
	for _, label := range labels {
		re := labelRe(label)
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		rest := text[loc[1]:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		rest = truncateAtLabel(rest, label, known)
		rest = strings.TrimSpace(rest)
		if rest != "" {
			return rest, true
		}
	}
	return "", false
}

func labelRe(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `\s*:\s*`)
}

// truncateAtLabel cuts s at the earliest occurrence of any known label
// other than current.
func truncateAtLabel(s, current string, known []string) string {
	cut := len(s)
	for _, label := range known {
		if strings.EqualFold(label, current) {
			continue
		}
		if loc := labelRe(label).FindStringIndex(s); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	return s[:cut]
}

// Section slices the body of the section introduced by header, bounded by
// the next known header or end of text.
func Section(text, header string, known []string) (string, bool) {
	loc := labelRe(header).FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	body := text[loc[1]:]
	cut := len(body)
	for _, other := range known {
		if strings.EqualFold(other, header) {
			continue
		}
		if l := labelRe(other).FindStringIndex(body); l != nil && l[0] < cut {
			cut = l[0]
		}
	}
	return strings.TrimSpace(body[:cut]), true
}

var enumeratorRe = regexp.MustCompile(`^(?:\d+[.)]\s*|[-*•]\s*)`)

// ListItems extracts numbered or bulleted lines from a section body,
// leading enumerators stripped. Lines without an enumerator are ignored.
func ListItems(section string) []string {
	var items []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		stripped := enumeratorRe.ReplaceAllString(line, "")
		if stripped == line {
			continue // not a list item
		}
		stripped = strings.TrimSpace(stripped)
		if stripped != "" {
			items = append(items, stripped)
		}
	}
	return items
}

// LastNumber returns the last syntactically plausible number in the text,
// thousands separators removed. The scan runs from the end so the final
// stated number wins over intermediate computations.
func LastNumber(text string) (string, bool) {
	matches := numberRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	return strings.ReplaceAll(matches[len(matches)-1], ",", ""), true
}

// Number parses a numeric string, tolerating thousands separators and a
// trailing period.
func Number(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimSuffix(s, ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Confidence coerces a confidence value from a bare float or a percentage
// string ("85%" becomes 0.85). Unparseable or out-of-range input yields the
// stage-defined fallback.
func Confidence(s string, fallback float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if strings.HasSuffix(s, "%") {
		f, ok := Number(strings.TrimSuffix(s, "%"))
		if !ok || f < 0 || f > 100 {
			return fallback
		}
		return f / 100
	}
	f, ok := Number(s)
	if !ok || f < 0 || f > 1 {
		return fallback
	}
	return f
}

// ConfidenceValue coerces a confidence from a decoded JSON value, which may
// be a number or a percentage string.
func ConfidenceValue(v any, fallback float64) float64 {
	switch t := v.(type) {
	case float64:
		if t < 0 || t > 1 {
			return fallback
		}
		return t
	case string:
		return Confidence(t, fallback)
	case json.Number:
		return Confidence(t.String(), fallback)
	}
	return fallback
}

// StringValue renders a decoded JSON value as a field string.
func StringValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// StringList renders a decoded JSON value as a list of strings, skipping
// entries that have no sensible string form.
func StringList(v any) ([]string, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	var out []string
	for _, item := range arr {
		switch t := item.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		case float64:
			out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
		case map[string]any:
			b, err := json.Marshal(t)
			if err == nil {
				out = append(out, string(b))
			}
		default:
			out = append(out, fmt.Sprintf("%v", t))
		}
	}
	return out, len(out) > 0
}
