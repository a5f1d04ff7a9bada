package extract

import (
	"go.uber.org/zap"
)

// Kind is the target type of a schema field.
type Kind int

const (
	KindString Kind = iota
	// KindNumber is a confidence-style number: percentage strings coerce to
	// fractions and values outside [0,1] count as not found, so the caller's
	// stage default applies.
	KindNumber
	KindList
)

// Field describes one labeled field to pull out of a response.
type Field struct {
	// Name is the canonical field name and its primary JSON key.
	Name string
	Kind Kind
	// Keys lists additional JSON keys accepted for this field.
	Keys []string
	// Labels lists the inline "Label:" forms accepted for this field, in
	// preference order (e.g. "Final Answer", "Answer", "Result").
	Labels []string
	// Section names the plain-text section header for list fields
	// (e.g. "Reasoning Steps").
	Section string
	// NumericFallback enables the last-plausible-number scan when every
	// other strategy came up empty. Used for answer fields.
	NumericFallback bool
}

// Schema is an ordered set of fields to extract from one response.
type Schema struct {
	Fields []Field
}

// knownLabels collects every label and section header in the schema. Label
// values are truncated at these so run-together responses still split.
func (s Schema) knownLabels() []string {
	var known []string
	for _, f := range s.Fields {
		known = append(known, f.Labels...)
		if f.Section != "" {
			known = append(known, f.Section)
		}
	}
	return known
}

// Result holds the extracted values plus, per field, whether the value was
// explicitly found or left to default.
type Result struct {
	strings map[string]string
	numbers map[string]float64
	lists   map[string][]string
	found   map[string]bool
}

// String returns the extracted string for the field and whether it was
// explicitly found.
func (r Result) String(name string) (string, bool) {
	return r.strings[name], r.found[name]
}

// Number returns the extracted number for the field and whether it was
// explicitly found.
func (r Result) Number(name string) (float64, bool) {
	return r.numbers[name], r.found[name]
}

// List returns the extracted list for the field and whether it was
// explicitly found.
func (r Result) List(name string) ([]string, bool) {
	return r.lists[name], r.found[name]
}

// Found reports whether the field was explicitly found (vs. defaulted).
func (r Result) Found(name string) bool { return r.found[name] }

// Extractor applies a schema to raw responses. The zero value is not
// usable; construct with New.
type Extractor struct {
	logger *zap.Logger
}

// New creates an Extractor. A nil logger is replaced with a no-op logger.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger.With(zap.String("component", "extract"))}
}

// Extract pulls every schema field out of text. It never fails: a panic in
// any strategy is swallowed, logged, and the affected fields stay at their
// defaults.
func (e *Extractor) Extract(text string, schema Schema) (result Result) {
	result = Result{
		strings: make(map[string]string),
		numbers: make(map[string]float64),
		lists:   make(map[string][]string),
		found:   make(map[string]bool),
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("extraction panicked, degrading to defaults",
				zap.Any("panic", r))
		}
	}()

	known := schema.knownLabels()
	obj, hasJSON := JSONObject(text)

	for _, f := range schema.Fields {
		if hasJSON && e.fromJSON(obj, f, &result) {
			continue
		}
		if e.fromText(text, f, known, &result) {
			continue
		}
		if f.NumericFallback {
			if num, ok := LastNumber(text); ok {
				result.strings[f.Name] = num
				result.found[f.Name] = true
			}
		}
	}
	return result
}

// fromJSON fills the field from a decoded JSON object, trying the primary
// key then the aliases.
func (e *Extractor) fromJSON(obj map[string]any, f Field, result *Result) bool {
	keys := append([]string{f.Name}, f.Keys...)
	for _, key := range keys {
		v, present := obj[key]
		if !present {
			continue
		}
		switch f.Kind {
		case KindString:
			if s, ok := StringValue(v); ok {
				result.strings[f.Name] = s
				result.found[f.Name] = true
				return true
			}
		case KindNumber:
			if n := ConfidenceValue(v, -1); n >= 0 {
				result.numbers[f.Name] = n
				result.found[f.Name] = true
				return true
			}
		case KindList:
			if list, ok := StringList(v); ok {
				result.lists[f.Name] = list
				result.found[f.Name] = true
				return true
			}
		}
	}
	return false
}

// fromText fills the field from label or section matching on the raw text.
func (e *Extractor) fromText(text string, f Field, known []string, result *Result) bool {
	switch f.Kind {
	case KindString:
		if v, ok := LabelValue(text, f.Labels, known); ok {
			result.strings[f.Name] = v
			result.found[f.Name] = true
			return true
		}
	case KindNumber:
		if v, ok := LabelValue(text, f.Labels, known); ok {
			if n := Confidence(v, -1); n >= 0 {
				result.numbers[f.Name] = n
				result.found[f.Name] = true
				return true
			}
		}
	case KindList:
		if f.Section == "" {
			return false
		}
		body, ok := Section(text, f.Section, known)
		if !ok {
			return false
		}
		items := ListItems(body)
		if len(items) == 0 {
			return false
		}
		result.lists[f.Name] = items
		result.found[f.Name] = true
		return true
	}
	return false
}
