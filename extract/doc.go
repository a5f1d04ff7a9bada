// Package extract pulls labeled, schema-conformant fields out of free-form
// model responses. Every stage of the debate pipeline parses through this
// package so the fallback behavior is defined in exactly one place.
//
// Extraction applies an ordered list of strategies per field, first success
// wins: whole-response JSON parse (with code-fence stripping), a brace-span
// JSON scan, case-insensitive "Label:" matching, section-bounded list
// parsing, and finally a last-plausible-number scan for answer fields.
// Extraction never fails: an unrecoverable field keeps its zero value and is
// reported as not found, so callers substitute stage-specific defaults.
package extract
