package debate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BaSui01/debateflow/types"
)

// Prompt construction for every stage. The section labels here form the wire
// contract with the parsers in this package: a response is expected, but not
// required, to follow them. Changing a label means changing the matching
// parser and the scripted mock responses together.

func preferencePrompt(problem types.Problem) string {
	var b strings.Builder
	b.WriteString("You are a participant in a multi-agent debate. Which role would you prefer for the following problem?\n\n")
	writeProblem(&b, problem)
	b.WriteString(`Available roles:
- Solver: independently solve the problem, then defend and refine your solution under peer review.
- Judge: evaluate the refined solutions and pick a winner.

Respond using exactly this format:
Preferred roles (in order): ["Solver", "Judge"]
Confidence by role: {"Solver": 0.8, "Judge": 0.5}
Reasoning: <one or two sentences>
Self-assessment: <your relevant strengths>
`)
	return b.String()
}

func solutionPrompt(problem types.Problem) string {
	var b strings.Builder
	b.WriteString("Solve the following problem step by step.\n\n")
	writeProblem(&b, problem)
	b.WriteString(`Respond using exactly this format:
Reasoning Steps:
1. <first step>
2. <next step>

Assumptions:
- <assumption>

Final Answer: <the answer alone, no units or commentary>
Confidence: <0.0 to 1.0>
`)
	return b.String()
}

func reviewPrompt(problem types.Problem, sol types.Solution) string {
	var b strings.Builder
	b.WriteString("Write a structured critique of a peer's solution to the following problem.\n\n")
	writeProblem(&b, problem)
	fmt.Fprintf(&b, "Solution by %s:\n%s\n\nFinal Answer: %s\nConfidence: %.2f\n\n",
		sol.SolverID, sol.SolutionText, sol.FinalAnswer, sol.Confidence)
	b.WriteString(`Respond using exactly this format:
Strengths:
- <strength>

Weaknesses:
- <weakness>

Errors:
- Location: <where>, Type: <logical_error|calculation_error|assumption_error|missing_case>, Description: <what is wrong>, Severity: <critical|high|medium|low>, Fix: <suggested fix>

Suggested Changes:
- <concrete change>

Overall Assessment: <correct|promising_but_flawed|fundamentally_flawed|incomplete>
Confidence in Review: <0.0 to 1.0>
`)
	return b.String()
}

func refinementPrompt(problem types.Problem, sol types.Solution, reviews []types.PeerReview) string {
	var b strings.Builder
	b.WriteString("Refine your solution to the following problem using the peer reviews below. Address each critique: accept it and change your solution, or explain why you reject it.\n\n")
	writeProblem(&b, problem)
	fmt.Fprintf(&b, "Your original solution:\n%s\n\nYour original answer: %s\n\n", sol.SolutionText, sol.FinalAnswer)

	for i, r := range reviews {
		fmt.Fprintf(&b, "Review %d (by %s, assessment: %s):\n", i+1, r.ReviewerID, r.OverallAssessment)
		writeList(&b, "Strengths", r.Strengths)
		writeList(&b, "Weaknesses", r.Weaknesses)
		writeList(&b, "Suggested changes", r.SuggestedChanges)
		b.WriteString("\n")
	}

	b.WriteString(`Respond using exactly this format:
Changes Made:
- Critique: <the critique>
  Response: <how you addressed it>
  Accepted: <true|false>
  Changes: <what changed>

Refined Solution: <the full refined solution>
Refined Answer: <the answer alone>
Confidence: <0.0 to 1.0>
`)
	return b.String()
}

func judgmentPrompt(problem types.Problem, refined map[string]types.RefinedSolution, solverIDs []string) string {
	ids := make([]string, len(solverIDs))
	copy(ids, solverIDs)
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("You are the judge of a multi-agent debate. Evaluate the refined solutions below and pick a single winner.\n\n")
	writeProblem(&b, problem)

	for _, id := range ids {
		r, ok := refined[id]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "Solution by %s:\n%s\n\nAnswer: %s\nConfidence: %.2f\n\n",
			id, r.RefinedText, r.RefinedAnswer, r.Confidence)
	}

	fmt.Fprintf(&b, "Valid winners: %s\n\n", strings.Join(ids, ", "))
	b.WriteString(`Respond with a single JSON object and nothing else:
{
  "winner": "<one of the valid winners, exactly as listed>",
  "confidence": <0.0 to 1.0>,
  "reasoning": "<why this solution wins>",
  "evaluation_criteria": {"Logical Soundness": <0-10>, "Completeness": <0-10>, "Error Handling": <0-10>, "Peer Review Integration": <0-10>},
  "ranking": {"<participant>": <rank starting at 1>}
}
`)
	return b.String()
}

func writeProblem(b *strings.Builder, problem types.Problem) {
	fmt.Fprintf(b, "Problem (%s, difficulty: %s):\n%s\n\n", problem.Category, problem.Difficulty, problem.Question)
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}
