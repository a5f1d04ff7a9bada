package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Role names used in preference elicitation and assignment.
const (
	RoleSolver = "Solver"
	RoleJudge  = "Judge"
)

// SolverCount is the number of solvers in every debate. Together with the
// single judge this fixes the minimum pool size at four participants.
const SolverCount = 3

// Problem is one debate problem. Immutable once loaded.
type Problem struct {
	ID       int    `json:"id"`
	Category string `json:"category"`
	Question string `json:"question"`
	// Answer is the verifiable ground truth, typed loosely: a number or a
	// string depending on the problem category.
	Answer     any    `json:"verifiable_answer"`
	Difficulty string `json:"difficulty,omitempty"`
}

// RolePreference is a participant's self-reported role preference for one
// problem.
type RolePreference struct {
	PreferredRoles   []string           `json:"preferred_roles"`
	ConfidenceByRole map[string]float64 `json:"confidence_by_role"`
	Reasoning        string             `json:"reasoning"`
	SelfAssessment   string             `json:"self_assessment,omitempty"`
}

// RolePartition is the outcome of role assignment: exactly one judge and
// exactly SolverCount solvers drawn from the participant pool.
type RolePartition struct {
	Judge   string   `json:"judge"`
	Solvers []string `json:"solvers"`
}

// Validate checks the partition invariants: judge set, three solvers, and
// the judge not among the solvers.
func (p RolePartition) Validate() error {
	if p.Judge == "" {
		return NewError(ErrConfiguration, "role partition has no judge")
	}
	if len(p.Solvers) != SolverCount {
		return NewError(ErrConfiguration,
			fmt.Sprintf("role partition needs %d solvers, got %d", SolverCount, len(p.Solvers)))
	}
	for _, s := range p.Solvers {
		if s == p.Judge {
			return NewError(ErrConfiguration,
				fmt.Sprintf("judge %q is also listed as a solver", p.Judge))
		}
	}
	return nil
}

// HasSolver reports whether id is one of the assigned solvers.
func (p RolePartition) HasSolver(id string) bool {
	for _, s := range p.Solvers {
		if s == id {
			return true
		}
	}
	return false
}

// Solution is one solver's structured answer to a problem.
type Solution struct {
	SolverID     string   `json:"solver_id"`
	SolutionText string   `json:"solution_text"`
	FinalAnswer  string   `json:"final_answer"`
	Confidence   float64  `json:"confidence"`
	// ReasoningSteps is never empty: when no steps could be recovered the
	// whole response text becomes the single step.
	ReasoningSteps []string `json:"reasoning_steps"`
	Assumptions    []string `json:"assumptions"`
}

// ErrorKind classifies an error found during peer review.
type ErrorKind string

const (
	ErrorLogical     ErrorKind = "logical_error"
	ErrorCalculation ErrorKind = "calculation_error"
	ErrorAssumption  ErrorKind = "assumption_error"
	ErrorMissingCase ErrorKind = "missing_case"
)

// ParseErrorKind normalizes a free-form kind string. Unknown values default
// to ErrorLogical.
func ParseErrorKind(s string) ErrorKind {
	switch ErrorKind(strings.ToLower(strings.TrimSpace(s))) {
	case ErrorLogical, ErrorCalculation, ErrorAssumption, ErrorMissingCase:
		return ErrorKind(strings.ToLower(strings.TrimSpace(s)))
	}
	return ErrorLogical
}

// Severity grades how damaging a reviewed error is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// ParseSeverity normalizes a free-form severity string. Unknown values
// default to SeverityMedium.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(strings.ToLower(strings.TrimSpace(s)))
	}
	return SeverityMedium
}

// ReviewError is a single error a reviewer identified in a solution.
type ReviewError struct {
	Location     string    `json:"location"`
	Kind         ErrorKind `json:"error_type"`
	Description  string    `json:"description"`
	Severity     Severity  `json:"severity"`
	SuggestedFix string    `json:"suggested_fix,omitempty"`
}

// Assessment is a reviewer's overall verdict on a solution.
type Assessment string

const (
	AssessmentCorrect             Assessment = "correct"
	AssessmentPromisingButFlawed  Assessment = "promising_but_flawed"
	AssessmentFundamentallyFlawed Assessment = "fundamentally_flawed"
	AssessmentIncomplete          Assessment = "incomplete"
)

// ParseAssessment normalizes a free-form assessment string. Unknown values
// default to AssessmentPromisingButFlawed rather than failing.
func ParseAssessment(s string) Assessment {
	switch Assessment(strings.ToLower(strings.TrimSpace(s))) {
	case AssessmentCorrect, AssessmentPromisingButFlawed,
		AssessmentFundamentallyFlawed, AssessmentIncomplete:
		return Assessment(strings.ToLower(strings.TrimSpace(s)))
	}
	return AssessmentPromisingButFlawed
}

// PeerReview is one reviewer's structured critique of one solution.
// Reviewer and solution ids are always distinct.
type PeerReview struct {
	ReviewerID        string        `json:"reviewer_id"`
	SolutionID        string        `json:"solution_id"`
	Strengths         []string      `json:"strengths"`
	Weaknesses        []string      `json:"weaknesses"`
	Errors            []ReviewError `json:"errors"`
	SuggestedChanges  []string      `json:"suggested_changes"`
	OverallAssessment Assessment    `json:"overall_assessment"`
	Confidence        float64       `json:"confidence"`
}

// CritiqueResponse records how a solver responded to a single critique
// during refinement.
type CritiqueResponse struct {
	CritiqueID  string `json:"critique_id"`
	Accepted    bool   `json:"accepted"`
	Response    string `json:"response"`
	ChangesMade string `json:"changes_made"`
}

// RefinedSolution is a solver's revised solution after peer review.
// ChangesMade always contains at least one entry; a default response is
// synthesized when the solver's text had no parseable "Changes Made"
// section.
type RefinedSolution struct {
	OriginalSolutionID string             `json:"original_solution_id"`
	ChangesMade        []CritiqueResponse `json:"changes_made"`
	RefinedText        string             `json:"refined_solution"`
	RefinedAnswer      string             `json:"refined_answer"`
	Confidence         float64            `json:"confidence"`
}

// Judgment is the judge's final verdict. On a soft failure Winner is empty,
// Warning is true, and Err carries the reason; the raw response is kept for
// offline inspection. Confidence and Reasoning are left absent rather than
// fabricated when the judge did not supply them.
type Judgment struct {
	Winner             string             `json:"winner"`
	Confidence         *float64           `json:"confidence,omitempty"`
	Reasoning          string             `json:"reasoning,omitempty"`
	EvaluationCriteria map[string]float64 `json:"evaluation_criteria,omitempty"`
	Ranking            map[string]int     `json:"ranking,omitempty"`
	Warning            bool               `json:"warning,omitempty"`
	Err                string             `json:"error,omitempty"`
	RawResponse        string             `json:"raw_response,omitempty"`
}

// DebateResult is the terminal, immutable artifact of one debate run.
type DebateResult struct {
	DebateID    string                     `json:"debate_id"`
	Problem     Problem                    `json:"problem"`
	Roles       RolePartition              `json:"roles"`
	Preferences map[string]RolePreference  `json:"role_preferences"`
	Solutions   map[string]Solution        `json:"original_solutions"`
	Reviews     map[string][]PeerReview    `json:"peer_reviews"`
	Refined     map[string]RefinedSolution `json:"refined_solutions"`
	Judgment    Judgment                   `json:"judgment"`
	Answer      any                        `json:"verifiable_answer"`
	StartedAt   time.Time                  `json:"started_at"`
	CompletedAt time.Time                  `json:"completed_at"`
}

// WinnerAnswer returns the refined answer of the judged winner, or "" when
// the judgment carries a soft failure or the winner has no refined solution.
func (r *DebateResult) WinnerAnswer() string {
	if r.Judgment.Winner == "" {
		return ""
	}
	refined, ok := r.Refined[r.Judgment.Winner]
	if !ok {
		return ""
	}
	return refined.RefinedAnswer
}

// SortedSolverIDs returns the solver ids in ascending order, for
// deterministic iteration when building prompts and reports.
func (r *DebateResult) SortedSolverIDs() []string {
	ids := append([]string(nil), r.Roles.Solvers...)
	sort.Strings(ids)
	return ids
}
