package debate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/debateflow/types"
)

func TestParseRefinement_LabeledText(t *testing.T) {
	t.Parallel()
	f := NewRefiner(Options{})

	rs := f.parseRefinement("gpt-1", `Changes Made:
- Critique: no verification step
  Response: added a verification pass
  Accepted: true
  Changes: appended a check of each product

Refined Solution: Same derivation, now with each step verified.
Refined Answer: 120
Confidence: 0.9`)

	assert.Equal(t, "gpt-1", rs.OriginalSolutionID)
	assert.Equal(t, "120", rs.RefinedAnswer)
	assert.Equal(t, "Same derivation, now with each step verified.", rs.RefinedText)
	assert.Equal(t, 0.9, rs.Confidence)
	require.Len(t, rs.ChangesMade, 1)
	assert.Equal(t, "no verification step", rs.ChangesMade[0].CritiqueID)
	assert.Equal(t, "added a verification pass", rs.ChangesMade[0].Response)
	assert.True(t, rs.ChangesMade[0].Accepted)
	assert.Equal(t, "appended a check of each product", rs.ChangesMade[0].ChangesMade)
}

func TestParseRefinement_AnswerLabelPriority(t *testing.T) {
	t.Parallel()
	f := NewRefiner(Options{})

	// "Refined Answer" outranks a plain "Answer" wherever it appears.
	rs := f.parseRefinement("gpt-1", "Answer: 7\nRefined Answer: 9")
	assert.Equal(t, "9", rs.RefinedAnswer)
}

func TestParseRefinement_RejectedCritique(t *testing.T) {
	t.Parallel()
	f := NewRefiner(Options{})

	rs := f.parseRefinement("gpt-1", `Changes Made:
- Critique: the answer should be negative
  Response: the quantity is a probability and cannot be negative
  Accepted: false

Refined Answer: 0.25`)

	require.Len(t, rs.ChangesMade, 1)
	assert.False(t, rs.ChangesMade[0].Accepted)
}

func TestParseRefinement_FreeFormFallsBackToLastNumber(t *testing.T) {
	t.Parallel()
	f := NewRefiner(Options{})

	rs := f.parseRefinement("gpt-1", "After reconsidering the critiques I get 15, not 10. Going with 15")

	assert.Equal(t, "15", rs.RefinedAnswer)
	assert.Equal(t, DefaultRefinementConfidence, rs.Confidence)
	require.Len(t, rs.ChangesMade, 1, "a default critique response is synthesized")
	assert.True(t, rs.ChangesMade[0].Accepted)
}

func TestParseRefinement_JSONResponse(t *testing.T) {
	t.Parallel()
	f := NewRefiner(Options{})

	rs := f.parseRefinement("gpt-1", `{
		"refined_solution": "verified derivation",
		"refined_answer": "42",
		"confidence": 0.85,
		"changes_made": [{"critique": "unverified", "response": "verified now", "accepted": true, "changes_made": "added checks"}]
	}`)

	assert.Equal(t, "verified derivation", rs.RefinedText)
	assert.Equal(t, "42", rs.RefinedAnswer)
	assert.Equal(t, 0.85, rs.Confidence)
	require.Len(t, rs.ChangesMade, 1)
	assert.Equal(t, "unverified", rs.ChangesMade[0].CritiqueID)
}

func TestRefine_InvocationErrorKeepsOriginalAnswer(t *testing.T) {
	t.Parallel()
	f := NewRefiner(Options{Invoker: failingInvoker(errors.New("timeout"))})

	sol := types.Solution{SolverID: "gpt-1", SolutionText: "the derivation", FinalAnswer: "42"}
	rs := f.Refine(context.Background(), types.Problem{}, sol, nil)

	assert.Equal(t, "gpt-1", rs.OriginalSolutionID)
	assert.Equal(t, "42", rs.RefinedAnswer)
	assert.Equal(t, "the derivation", rs.RefinedText)
	assert.Equal(t, DefaultRefinementConfidence, rs.Confidence)
	require.Len(t, rs.ChangesMade, 1)
}

func TestRefineAll_EverySolverRefined(t *testing.T) {
	t.Parallel()
	f := NewRefiner(Options{Invoker: scriptedInvoker()})

	solutions := map[string]types.Solution{
		"gpt-1":    {SolverID: "gpt-1", FinalAnswer: "4"},
		"claude-2": {SolverID: "claude-2", FinalAnswer: "4"},
		"gemini-3": {SolverID: "gemini-3", FinalAnswer: "4"},
	}
	reviews := map[string][]types.PeerReview{
		"gpt-1": {{ReviewerID: "claude-2", SolutionID: "gpt-1", Weaknesses: []string{"no check"}}},
	}

	refined := f.RefineAll(context.Background(), types.Problem{Question: "2+2?"}, solutions, reviews)

	require.Len(t, refined, 3)
	for id, rs := range refined {
		assert.Equal(t, id, rs.OriginalSolutionID)
		assert.NotEmpty(t, rs.RefinedAnswer)
		assert.NotEmpty(t, rs.ChangesMade)
	}
}
