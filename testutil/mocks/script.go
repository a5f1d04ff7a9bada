package mocks

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var validWinnersRe = regexp.MustCompile(`(?i)valid winners:\s*([^\n]+)`)

// DebateScript returns a plausible stage-appropriate response for a debate
// prompt, keyed off the prompt's fixed section labels. It lets pipeline
// tests and mock mode run a full debate without a model.
func DebateScript(prompt string) string {
	lower := strings.ToLower(prompt)

	switch {
	case strings.Contains(lower, "valid winners:"):
		return scriptJudgment(prompt)
	case strings.Contains(lower, "refine your solution"):
		return scriptRefinement(lower)
	case strings.Contains(lower, "structured critique"):
		return scriptReview()
	case strings.Contains(lower, "which role would you prefer"):
		return scriptPreference()
	default:
		return scriptSolution(lower)
	}
}

// ScriptedProvider creates a MockProvider wired to DebateScript.
func ScriptedProvider(name string) *MockProvider {
	return NewMockProvider().WithName(name).WithResponseFunc(DebateScript)
}

func scriptPreference() string {
	return `Preferred roles (in order): ["Solver", "Judge"]
Confidence by role: {"Solver": 0.85, "Judge": 0.65}
Reasoning: I am best suited as a Solver for mathematical problems.
Self-assessment: Strong at logical reasoning and calculations.`
}

func scriptSolution(lower string) string {
	if strings.Contains(lower, "fair coin") || strings.Contains(lower, "probability") {
		return `Reasoning Steps:
1. Let H = number of heads, T = number of tails
2. We have H + T = 10 (total flips)
3. Condition: H = 2T, so 3T = 10 and T = 10/3
4. T must be an integer, so no outcome satisfies the condition
5. Therefore the probability is 0

Assumptions:
- Coin is fair
- Flips are independent

Final Answer: 0.0000
Confidence: 0.95`
	}
	return `Reasoning Steps:
1. Analyze the problem statement
2. Apply relevant formulas
3. Perform calculations
4. Verify the result

Assumptions:
- Standard mathematical assumptions apply

Final Answer: 42
Confidence: 0.8`
}

func scriptReview() string {
	return `Strengths:
- Clear step-by-step reasoning
- States its assumptions explicitly

Weaknesses:
- Does not verify the result independently
- Edge cases are not discussed

Errors:
- Location: step 4, Type: calculation_error, Description: arithmetic not double-checked, Severity: low

Suggested Changes:
- Add a verification step
- Discuss boundary conditions

Overall Assessment: promising_but_flawed
Confidence in Review: 0.75`
}

func scriptRefinement(lower string) string {
	answer := "42"
	if strings.Contains(lower, "fair coin") || strings.Contains(lower, "probability") {
		answer = "0.0000"
	}
	return fmt.Sprintf(`Changes Made:
- Critique: Does not verify the result independently
  Response: Added a verification pass over the arithmetic
  Accepted: true
  Changes: Appended a verification step

Refined Solution: The refined solution keeps the original argument and adds verification of each step.
Refined Answer: %s
Confidence: 0.9`, answer)
}

func scriptJudgment(prompt string) string {
	solvers := winnersFromPrompt(prompt)
	if len(solvers) == 0 {
		solvers = []string{"solver-1", "solver-2", "solver-3"}
	}

	ranking := make(map[string]int, len(solvers))
	for i, s := range solvers {
		ranking[s] = i + 1
	}
	payload := map[string]any{
		"winner":     solvers[0],
		"confidence": 0.85,
		"reasoning":  solvers[0] + "'s solution was the most complete and accurate.",
		"evaluation_criteria": map[string]float64{
			"Logical Soundness":       9.0,
			"Completeness":            8.5,
			"Error Handling":          8.0,
			"Peer Review Integration": 8.0,
		},
		"ranking": ranking,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return `{"winner": "` + solvers[0] + `"}`
	}
	return string(b)
}

// winnersFromPrompt parses the enumerated candidate list out of a judgment
// prompt ("Valid winners: a, b, c").
func winnersFromPrompt(prompt string) []string {
	m := validWinnersRe.FindStringSubmatch(prompt)
	if len(m) < 2 {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(m[1], ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
