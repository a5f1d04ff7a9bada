// Package debate orchestrates multi-agent debates over a shared problem.
//
// A debate runs as a fixed sequence of stages with a barrier between each:
// role assignment, independent solution generation, all-pairs peer review,
// critique-driven refinement, and a final judgment by the assigned judge.
// Within a stage the per-participant work fans out concurrently; a stage
// never starts before the previous one has fully finished.
//
// Stages are resilient by construction. Model output is parsed through the
// extract package's layered strategies, and a participant whose output is
// malformed still contributes a structurally valid default record, so a
// debate always runs to completion. The single exception is the judgment,
// where an unusable verdict is recorded as an explicit soft failure rather
// than papered over with a default winner.
package debate
