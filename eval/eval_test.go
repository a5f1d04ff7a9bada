package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/debateflow/types"
)

func TestIsCorrect_NumericTolerance(t *testing.T) {
	t.Parallel()

	assert.True(t, IsCorrect("0.0000", 0.0))
	assert.True(t, IsCorrect("56", float64(56)))
	assert.True(t, IsCorrect("0.166", "1/6"), "within tolerance of 0.1667")
	assert.True(t, IsCorrect("1,000", 1000.0))
	assert.False(t, IsCorrect("0.2", 0.0))
	assert.False(t, IsCorrect("57", float64(56)))
}

func TestIsCorrect_TextFallback(t *testing.T) {
	t.Parallel()

	assert.True(t, IsCorrect("Yes", "yes"))
	assert.True(t, IsCorrect("  triangle ", "Triangle"))
	assert.False(t, IsCorrect("no", "yes"))
	assert.False(t, IsCorrect("", "yes"))
	assert.False(t, IsCorrect("yes", nil))
}

func TestParseNumeric(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{"-3.5", -3.5, true},
		{"1,234,567", 1234567, true},
		{"$120", 120, true},
		{"85%", 85, true},
		{"1/6", 1.0 / 6.0, true},
		{"10/0", 0, false},
		{"about five", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumeric(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9, "input %q", tc.in)
		}
	}
}

func TestMajorityAnswer(t *testing.T) {
	t.Parallel()

	rep, count := MajorityAnswer([]string{"0.0000", "0.0", "0.5"})
	assert.Equal(t, "0.0000", rep)
	assert.Equal(t, 2, count)

	rep, count = MajorityAnswer([]string{"yes", "Yes", "no"})
	assert.Equal(t, "yes", rep)
	assert.Equal(t, 2, count)

	// A three-way tie resolves to the smallest representative.
	rep, count = MajorityAnswer([]string{"b", "c", "a"})
	assert.Equal(t, "a", rep)
	assert.Equal(t, 1, count)

	rep, count = MajorityAnswer(nil)
	assert.Empty(t, rep)
	assert.Zero(t, count)

	rep, count = MajorityAnswer([]string{"", "  "})
	assert.Empty(t, rep)
	assert.Zero(t, count)
}

func resultWith(category, winner, winnerAnswer string, truth any, warning bool) *types.DebateResult {
	r := &types.DebateResult{
		Problem: types.Problem{ID: 1, Category: category, Answer: truth},
		Roles: types.RolePartition{
			Judge:   "judge",
			Solvers: []string{"s1", "s2", "s3"},
		},
		Refined: map[string]types.RefinedSolution{
			"s1": {RefinedAnswer: winnerAnswer},
			"s2": {RefinedAnswer: winnerAnswer},
			"s3": {RefinedAnswer: "999"},
		},
		Judgment: types.Judgment{Winner: winner, Warning: warning},
		Answer:   truth,
	}
	if warning {
		r.Judgment.Winner = ""
		r.Judgment.Err = "judgment response is not valid JSON"
	}
	return r
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	results := []*types.DebateResult{
		resultWith("probability", "s1", "0.0000", 0.0, false),
		resultWith("probability", "s1", "0.25", 0.5, false),
		resultWith("arithmetic", "", "56", float64(56), true),
	}

	m := Evaluate(results)

	assert.Equal(t, 3, m.Debates)
	assert.Equal(t, 2, m.Judged)
	assert.Equal(t, 1, m.SoftFailures)
	assert.Equal(t, 1, m.WinnerCorrect)
	assert.InDelta(t, 0.5, m.WinnerAccuracy, 1e-9)

	// Majority: correct in the first and third debate (two solvers agree
	// on the right answer even though the third was judged soft).
	assert.Equal(t, 2, m.MajorityCorrect)
	assert.InDelta(t, 2.0/3.0, m.MajorityAccuracy, 1e-9)

	require.Contains(t, m.ByCategory, "probability")
	assert.Equal(t, 2, m.ByCategory["probability"].Debates)
	assert.Equal(t, 1, m.ByCategory["probability"].WinnerCorrect)

	// Every fixture has a dissenting third solver, so each debate counts as
	// a disagreement and none as consensus. No original solutions are
	// stored, so the baselines score nothing.
	assert.Equal(t, 3, m.Disagreements)
	assert.Equal(t, 1, m.JudgeCorrectOnDisagreement)
	assert.Zero(t, m.Consensus)
	assert.Zero(t, m.SingleScored)
	assert.Zero(t, m.VoteScored)
}

func resultWithOriginals(truth any, winner string, originals, refined [3]string) *types.DebateResult {
	ids := []string{"s1", "s2", "s3"}
	r := &types.DebateResult{
		Problem: types.Problem{ID: 2, Category: "arithmetic", Answer: truth},
		Roles: types.RolePartition{
			Judge:   "judge",
			Solvers: ids,
		},
		Solutions: map[string]types.Solution{},
		Refined:   map[string]types.RefinedSolution{},
		Judgment:  types.Judgment{Winner: winner},
		Answer:    truth,
	}
	for i, id := range ids {
		r.Solutions[id] = types.Solution{SolverID: id, FinalAnswer: originals[i]}
		r.Refined[id] = types.RefinedSolution{RefinedAnswer: refined[i]}
	}
	return r
}

func TestEvaluate_ImprovementConsensusAndBaselines(t *testing.T) {
	t.Parallel()

	results := []*types.DebateResult{
		// All solvers converge on the right answer; s3 started wrong.
		resultWithOriginals(42.0, "s1",
			[3]string{"42", "42", "41"},
			[3]string{"42", "42", "42"}),
		// Solvers split after refinement; the judge picks the right one,
		// while the first-solver and majority-vote baselines both fail.
		resultWithOriginals(7.0, "s1",
			[3]string{"8", "8", "7"},
			[3]string{"7", "8", "7"}),
	}

	m := Evaluate(results)

	assert.Equal(t, 2, m.Debates)
	assert.Equal(t, 1, m.Consensus)
	assert.InDelta(t, 0.5, m.ConsensusRate, 1e-9)

	assert.Equal(t, 2, m.Improved, "a wrong solver turned correct in both debates")
	assert.InDelta(t, 1.0, m.ImprovementRate, 1e-9)

	assert.Equal(t, 1, m.Disagreements)
	assert.Equal(t, 1, m.JudgeCorrectOnDisagreement)
	assert.InDelta(t, 1.0, m.JudgeDisagreementAccuracy, 1e-9)

	assert.Equal(t, 2, m.SingleScored)
	assert.Equal(t, 1, m.SingleCorrect)
	assert.InDelta(t, 0.5, m.SingleAccuracy, 1e-9)

	assert.Equal(t, 2, m.VoteScored)
	assert.Equal(t, 1, m.VoteCorrect)
	assert.InDelta(t, 0.5, m.VoteAccuracy, 1e-9)
}

func TestEvaluate_Empty(t *testing.T) {
	t.Parallel()

	m := Evaluate(nil)
	assert.Zero(t, m.Debates)
	assert.Zero(t, m.WinnerAccuracy)
	assert.Nil(t, m.ByCategory)
}
