package debate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/debateflow/types"
)

func TestParseSolution_LabeledText(t *testing.T) {
	t.Parallel()
	g := NewSolutionGenerator(Options{})

	sol := g.parseSolution("gpt-1", `Reasoning Steps:
1. Split the flips into heads and tails
2. Solve 3T = 10 over the integers
3. No integer solution exists

Assumptions:
- Coin is fair

Final Answer: 0.0000
Confidence: 0.95`)

	assert.Equal(t, "gpt-1", sol.SolverID)
	assert.Equal(t, "0.0000", sol.FinalAnswer)
	assert.Equal(t, 0.95, sol.Confidence)
	assert.Len(t, sol.ReasoningSteps, 3)
	assert.Equal(t, []string{"Coin is fair"}, sol.Assumptions)
}

func TestParseSolution_JSONResponse(t *testing.T) {
	t.Parallel()
	g := NewSolutionGenerator(Options{})

	sol := g.parseSolution("gpt-1", "```json\n"+`{"final_answer": "120", "confidence": "85%", "reasoning_steps": ["factorial of 5"], "assumptions": ["n is small"]}`+"\n```")

	assert.Equal(t, "120", sol.FinalAnswer)
	assert.Equal(t, 0.85, sol.Confidence)
	assert.Equal(t, []string{"factorial of 5"}, sol.ReasoningSteps)
	assert.Equal(t, []string{"n is small"}, sol.Assumptions)
}

func TestParseSolution_FreeFormFallsBackToLastNumber(t *testing.T) {
	t.Parallel()
	g := NewSolutionGenerator(Options{})

	sol := g.parseSolution("gpt-1", "Well, first I computed 10, then refined it to 12, so I will go with 12")

	assert.Equal(t, "12", sol.FinalAnswer)
	assert.Equal(t, DefaultSolutionConfidence, sol.Confidence)
	require.Len(t, sol.ReasoningSteps, 1, "whole text becomes the single step")
}

func TestParseSolution_OutOfRangeConfidenceDefaults(t *testing.T) {
	t.Parallel()
	g := NewSolutionGenerator(Options{})

	sol := g.parseSolution("gpt-1", "Final Answer: 42\nConfidence: 1.5\n")
	assert.Equal(t, "42", sol.FinalAnswer)
	assert.Equal(t, DefaultSolutionConfidence, sol.Confidence)

	sol = g.parseSolution("gpt-1", `{"final_answer": "42", "confidence": 85}`)
	assert.Equal(t, "42", sol.FinalAnswer)
	assert.Equal(t, DefaultSolutionConfidence, sol.Confidence)
}

func TestParseSolution_EmptyResponse(t *testing.T) {
	t.Parallel()
	g := NewSolutionGenerator(Options{})

	sol := g.parseSolution("gpt-1", "")

	assert.Empty(t, sol.FinalAnswer)
	assert.Equal(t, DefaultSolutionConfidence, sol.Confidence)
	assert.Equal(t, []string{""}, sol.ReasoningSteps)
	assert.Empty(t, sol.Assumptions)
}

func TestGenerate_InvocationErrorYieldsDefaultRecord(t *testing.T) {
	t.Parallel()
	g := NewSolutionGenerator(Options{Invoker: failingInvoker(errors.New("rate limited"))})

	sol := g.Generate(context.Background(), types.Problem{Question: "2+2?"}, "gpt-1")

	assert.Equal(t, "gpt-1", sol.SolverID)
	assert.Equal(t, DefaultSolutionConfidence, sol.Confidence)
	assert.Len(t, sol.ReasoningSteps, 1)
}

func TestGenerateAll_OneSolutionPerSolver(t *testing.T) {
	t.Parallel()
	g := NewSolutionGenerator(Options{Invoker: scriptedInvoker()})

	problem := types.Problem{
		ID:       7,
		Category: "probability",
		Question: "A fair coin is flipped 10 times. What is the probability of exactly twice as many heads as tails?",
	}
	solutions := g.GenerateAll(context.Background(), problem, []string{"gpt-1", "claude-2", "gemini-3"})

	require.Len(t, solutions, 3)
	for id, sol := range solutions {
		assert.Equal(t, id, sol.SolverID)
		assert.Equal(t, "0.0000", sol.FinalAnswer)
		assert.Equal(t, 0.95, sol.Confidence)
		assert.NotEmpty(t, sol.ReasoningSteps)
	}
}
