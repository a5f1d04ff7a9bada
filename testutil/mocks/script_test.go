package mocks

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/debateflow/llm"
)

func TestDebateScript_StageDispatch(t *testing.T) {
	t.Parallel()

	assert.Contains(t, DebateScript("Which role would you prefer for this problem?"), "Preferred roles")
	assert.Contains(t, DebateScript("Write a structured critique of a peer's solution."), "Overall Assessment")
	assert.Contains(t, DebateScript("Refine your solution using the reviews below."), "Refined Answer")
	assert.Contains(t, DebateScript("Solve the following problem step by step."), "Final Answer")
}

func TestDebateScript_JudgmentUsesListedWinners(t *testing.T) {
	t.Parallel()

	raw := DebateScript("Evaluate the solutions.\nValid winners: claude-2, gemini-3, gpt-1\nRespond with JSON.")

	var verdict map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &verdict))
	assert.Equal(t, "claude-2", verdict["winner"])
	ranking, ok := verdict["ranking"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, ranking, 3)
}

func TestDebateScript_CoinProblemAnswer(t *testing.T) {
	t.Parallel()

	solution := DebateScript("Solve the following problem: a fair coin is flipped 10 times.")
	assert.Contains(t, solution, "Final Answer: 0.0000")

	refinement := DebateScript("Refine your solution. Problem: a fair coin is flipped 10 times.")
	assert.Contains(t, refinement, "Refined Answer: 0.0000")
}

func TestScriptedProvider_RecordsCalls(t *testing.T) {
	t.Parallel()

	p := ScriptedProvider("gpt-1")
	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Solve the following problem step by step."}},
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(resp.Text(), "Final Answer"))
	assert.Equal(t, 1, p.CallCount())
	assert.Equal(t, "gpt-1", p.Name())
}
