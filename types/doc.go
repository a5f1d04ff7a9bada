// Package types defines the shared data model for the debate pipeline:
// problems, role preferences, solutions, peer reviews, refined solutions,
// judgments, and the terminal DebateResult record, plus the structured
// error type used across the framework.
package types
