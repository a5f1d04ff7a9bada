package debate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/debateflow/types"
)

func TestParseReview_LabeledText(t *testing.T) {
	t.Parallel()
	r := NewPeerReviewer(Options{})

	review := r.parseReview("claude-2", "gpt-1", `Strengths:
- Clear derivation
- Explicit assumptions

Weaknesses:
- No verification step

Errors:
- Location: step 3, Type: calculation_error, Description: dropped a factor of two, Severity: high, Fix: recompute the product

Suggested Changes:
- Verify the arithmetic

Overall Assessment: promising_but_flawed
Confidence in Review: 0.75`)

	assert.Equal(t, "claude-2", review.ReviewerID)
	assert.Equal(t, "gpt-1", review.SolutionID)
	assert.Equal(t, []string{"Clear derivation", "Explicit assumptions"}, review.Strengths)
	assert.Equal(t, []string{"No verification step"}, review.Weaknesses)
	require.Len(t, review.Errors, 1)
	assert.Equal(t, "step 3", review.Errors[0].Location)
	assert.Equal(t, types.ErrorCalculation, review.Errors[0].Kind)
	assert.Equal(t, "dropped a factor of two", review.Errors[0].Description)
	assert.Equal(t, types.SeverityHigh, review.Errors[0].Severity)
	assert.Equal(t, "recompute the product", review.Errors[0].SuggestedFix)
	assert.Equal(t, []string{"Verify the arithmetic"}, review.SuggestedChanges)
	assert.Equal(t, types.AssessmentPromisingButFlawed, review.OverallAssessment)
	assert.Equal(t, 0.75, review.Confidence)
}

func TestParseReview_JSONResponse(t *testing.T) {
	t.Parallel()
	r := NewPeerReviewer(Options{})

	review := r.parseReview("claude-2", "gpt-1", `{
		"strengths": ["rigorous"],
		"weaknesses": ["verbose"],
		"errors": [{"location": "step 1", "error_type": "wrong_assumption", "description": "assumes independence", "severity": "medium"}],
		"suggested_changes": ["state the dependence"],
		"overall_assessment": "correct",
		"confidence": 0.9
	}`)

	assert.Equal(t, []string{"rigorous"}, review.Strengths)
	require.Len(t, review.Errors, 1)
	assert.Equal(t, "step 1", review.Errors[0].Location)
	assert.Equal(t, types.AssessmentCorrect, review.OverallAssessment)
	assert.Equal(t, 0.9, review.Confidence)
}

func TestParseReview_GarbageYieldsDefaults(t *testing.T) {
	t.Parallel()
	r := NewPeerReviewer(Options{})

	review := r.parseReview("claude-2", "gpt-1", "looks fine to me")

	assert.Empty(t, review.Strengths)
	assert.Empty(t, review.Weaknesses)
	assert.Empty(t, review.Errors)
	assert.Equal(t, types.AssessmentPromisingButFlawed, review.OverallAssessment)
	assert.Equal(t, DefaultReviewConfidence, review.Confidence)
}

func TestReviewPrompt_VocabularySurvivesParsing(t *testing.T) {
	t.Parallel()
	r := NewPeerReviewer(Options{})

	prompt := reviewPrompt(types.Problem{Question: "2+2?"}, types.Solution{SolverID: "gpt-1"})

	// Every assessment the prompt offers must come back unchanged, not
	// collapsed to the lenient default.
	for _, a := range []types.Assessment{
		types.AssessmentCorrect,
		types.AssessmentPromisingButFlawed,
		types.AssessmentFundamentallyFlawed,
		types.AssessmentIncomplete,
	} {
		assert.Contains(t, prompt, string(a))
		review := r.parseReview("claude-2", "gpt-1", "Overall Assessment: "+string(a))
		assert.Equal(t, a, review.OverallAssessment)
	}

	for _, k := range []types.ErrorKind{
		types.ErrorLogical,
		types.ErrorCalculation,
		types.ErrorAssumption,
		types.ErrorMissingCase,
	} {
		assert.Contains(t, prompt, string(k))
		re, ok := parseErrorItem("Location: step 1, Type: " + string(k) + ", Description: wrong")
		require.True(t, ok)
		assert.Equal(t, k, re.Kind)
	}

	for _, s := range []types.Severity{
		types.SeverityCritical,
		types.SeverityHigh,
		types.SeverityMedium,
		types.SeverityLow,
	} {
		assert.Contains(t, prompt, string(s))
		re, ok := parseErrorItem("Description: wrong, Severity: " + string(s))
		require.True(t, ok)
		assert.Equal(t, s, re.Severity)
	}
}

func TestParseErrorItem_DropsEntryWithoutSubstance(t *testing.T) {
	t.Parallel()

	_, ok := parseErrorItem("Severity: high")
	assert.False(t, ok)

	re, ok := parseErrorItem("Description: off by one")
	require.True(t, ok)
	assert.Equal(t, "off by one", re.Description)
	assert.Equal(t, types.ErrorLogical, re.Kind, "unknown kind defaults")
	assert.Equal(t, types.SeverityMedium, re.Severity, "unknown severity defaults")
}

func TestReviewAll_AllOrderedPairs(t *testing.T) {
	t.Parallel()
	r := NewPeerReviewer(Options{Invoker: scriptedInvoker()})

	solutions := map[string]types.Solution{
		"gpt-1":    {SolverID: "gpt-1", FinalAnswer: "4"},
		"claude-2": {SolverID: "claude-2", FinalAnswer: "4"},
		"gemini-3": {SolverID: "gemini-3", FinalAnswer: "5"},
	}
	reviews := r.ReviewAll(context.Background(), types.Problem{Question: "2+2?"}, solutions)

	require.Len(t, reviews, 3)
	for solverID, rs := range reviews {
		require.Len(t, rs, 2, "each solution gets one review per other solver")
		for _, review := range rs {
			assert.Equal(t, solverID, review.SolutionID)
			assert.NotEqual(t, review.ReviewerID, review.SolutionID, "no self-review")
		}
	}
}

func TestReviewAll_InvocationErrorsStillYieldReviews(t *testing.T) {
	t.Parallel()
	r := NewPeerReviewer(Options{Invoker: failingInvoker(errors.New("down"))})

	solutions := map[string]types.Solution{
		"a": {SolverID: "a"},
		"b": {SolverID: "b"},
		"c": {SolverID: "c"},
	}
	reviews := r.ReviewAll(context.Background(), types.Problem{}, solutions)

	require.Len(t, reviews, 3)
	for _, rs := range reviews {
		require.Len(t, rs, 2)
		for _, review := range rs {
			assert.Equal(t, types.AssessmentPromisingButFlawed, review.OverallAssessment)
			assert.Equal(t, DefaultReviewConfidence, review.Confidence)
		}
	}
}
