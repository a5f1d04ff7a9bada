// Package eval scores finished debates against ground truth.
//
// Answers arrive as free text, so comparison is tolerant: numeric answers
// match within a small absolute tolerance, everything else falls back to a
// case-insensitive string comparison. Besides the judged winner, the batch
// is scored for a majority vote across refined answers, the improvement and
// consensus rates, judge accuracy restricted to debates where the solvers
// disagreed, and two pre-debate baselines (first solver alone, majority
// vote over the original answers).
package eval

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/BaSui01/debateflow/types"
)

// Tolerance is the absolute difference under which two numeric answers
// count as equal.
const Tolerance = 0.01

// Metrics aggregates correctness over a batch of debates.
type Metrics struct {
	Debates      int `json:"debates"`
	Judged       int `json:"judged"`
	SoftFailures int `json:"soft_failures"`

	WinnerCorrect   int `json:"winner_correct"`
	MajorityCorrect int `json:"majority_correct"`

	// Improved counts debates where at least one solver who started wrong
	// ended with a correct refined answer. Consensus counts debates where
	// every solver's refined answer agrees. Disagreements counts debates
	// with two or more distinct refined answers; JudgeCorrectOnDisagreement
	// is how often the judged winner was right in exactly those cases.
	Improved                   int `json:"improved"`
	Consensus                  int `json:"consensus"`
	Disagreements              int `json:"disagreements"`
	JudgeCorrectOnDisagreement int `json:"judge_correct_on_disagreement"`

	// Baselines score the pre-debate solutions: SingleCorrect takes the
	// first solver's original answer, VoteCorrect a majority vote over all
	// original answers. Debates with no scorable original answer are
	// excluded from the respective denominator.
	SingleScored  int `json:"single_scored"`
	SingleCorrect int `json:"single_correct"`
	VoteScored    int `json:"vote_scored"`
	VoteCorrect   int `json:"vote_correct"`

	// WinnerAccuracy is over judged debates only; a soft failure has no
	// winner to score. MajorityAccuracy, ImprovementRate, and ConsensusRate
	// are over all debates.
	WinnerAccuracy            float64 `json:"winner_accuracy"`
	MajorityAccuracy          float64 `json:"majority_accuracy"`
	ImprovementRate           float64 `json:"improvement_rate"`
	ConsensusRate             float64 `json:"consensus_rate"`
	JudgeDisagreementAccuracy float64 `json:"judge_disagreement_accuracy"`
	SingleAccuracy            float64 `json:"single_accuracy"`
	VoteAccuracy              float64 `json:"vote_accuracy"`

	ByCategory map[string]*CategoryMetrics `json:"by_category,omitempty"`
}

// CategoryMetrics is the per-category slice of Metrics.
type CategoryMetrics struct {
	Debates       int `json:"debates"`
	WinnerCorrect int `json:"winner_correct"`
}

// Evaluate scores a batch of debate results.
func Evaluate(results []*types.DebateResult) Metrics {
	m := Metrics{ByCategory: map[string]*CategoryMetrics{}}

	for _, r := range results {
		m.Debates++
		cat := m.ByCategory[r.Problem.Category]
		if cat == nil {
			cat = &CategoryMetrics{}
			m.ByCategory[r.Problem.Category] = cat
		}
		cat.Debates++

		if r.Judgment.Warning {
			m.SoftFailures++
		} else if r.Judgment.Winner != "" {
			m.Judged++
			if IsCorrect(r.WinnerAnswer(), r.Answer) {
				m.WinnerCorrect++
				cat.WinnerCorrect++
			}
		}

		refined := refinedAnswers(r)
		if majority, _ := MajorityAnswer(refined); majority != "" {
			if IsCorrect(majority, r.Answer) {
				m.MajorityCorrect++
			}
		}

		ids := r.SortedSolverIDs()
		groups := answerGroups(refined)
		if len(groups) == 1 && groups[0].count == len(ids) && len(ids) > 0 {
			m.Consensus++
		}
		if len(groups) >= 2 {
			m.Disagreements++
			if IsCorrect(r.WinnerAnswer(), r.Answer) {
				m.JudgeCorrectOnDisagreement++
			}
		}

		for _, id := range ids {
			if !IsCorrect(r.Solutions[id].FinalAnswer, r.Answer) &&
				IsCorrect(r.Refined[id].RefinedAnswer, r.Answer) {
				m.Improved++
				break
			}
		}

		if len(ids) > 0 {
			if first := r.Solutions[ids[0]].FinalAnswer; strings.TrimSpace(first) != "" {
				m.SingleScored++
				if IsCorrect(first, r.Answer) {
					m.SingleCorrect++
				}
			}
		}
		if vote, _ := MajorityAnswer(originalAnswers(r)); vote != "" {
			m.VoteScored++
			if IsCorrect(vote, r.Answer) {
				m.VoteCorrect++
			}
		}
	}

	if m.Judged > 0 {
		m.WinnerAccuracy = float64(m.WinnerCorrect) / float64(m.Judged)
	}
	if m.Debates > 0 {
		m.MajorityAccuracy = float64(m.MajorityCorrect) / float64(m.Debates)
		m.ImprovementRate = float64(m.Improved) / float64(m.Debates)
		m.ConsensusRate = float64(m.Consensus) / float64(m.Debates)
	}
	if m.Disagreements > 0 {
		m.JudgeDisagreementAccuracy = float64(m.JudgeCorrectOnDisagreement) / float64(m.Disagreements)
	}
	if m.SingleScored > 0 {
		m.SingleAccuracy = float64(m.SingleCorrect) / float64(m.SingleScored)
	}
	if m.VoteScored > 0 {
		m.VoteAccuracy = float64(m.VoteCorrect) / float64(m.VoteScored)
	}
	if len(m.ByCategory) == 0 {
		m.ByCategory = nil
	}
	return m
}

// IsCorrect compares a stated answer against the ground truth. Both sides
// are parsed numerically when possible and compared under Tolerance;
// otherwise the normalized strings must match.
func IsCorrect(got string, want any) bool {
	wantStr := groundTruthString(want)
	if wantStr == "" || got == "" {
		return false
	}

	gotNum, gotOK := ParseNumeric(got)
	wantNum, wantOK := ParseNumeric(wantStr)
	if gotOK && wantOK {
		return math.Abs(gotNum-wantNum) <= Tolerance
	}
	return normalizeText(got) == normalizeText(wantStr)
}

// MajorityAnswer groups equivalent answers and returns a representative of
// the largest group with its size. Ties break toward the lexicographically
// smallest representative, keeping the vote deterministic.
func MajorityAnswer(answers []string) (string, int) {
	groups := answerGroups(answers)
	if len(groups) == 0 {
		return "", 0
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rep < groups[j].rep
	})
	return groups[0].rep, groups[0].count
}

type answerGroup struct {
	rep   string
	num   float64
	isNum bool
	count int
}

// answerGroups buckets answers by equivalence: numeric answers within
// Tolerance of each other, textual answers by normalized equality. Blank
// answers are skipped.
func answerGroups(answers []string) []*answerGroup {
	var groups []*answerGroup

	for _, answer := range answers {
		if strings.TrimSpace(answer) == "" {
			continue
		}
		num, isNum := ParseNumeric(answer)

		var matched *answerGroup
		for _, g := range groups {
			if isNum && g.isNum {
				if math.Abs(num-g.num) <= Tolerance {
					matched = g
					break
				}
			} else if !isNum && !g.isNum && normalizeText(answer) == normalizeText(g.rep) {
				matched = g
				break
			}
		}
		if matched == nil {
			groups = append(groups, &answerGroup{rep: answer, num: num, isNum: isNum, count: 1})
			continue
		}
		matched.count++
	}
	return groups
}

// ParseNumeric parses an answer as a number, tolerating thousands
// separators, leading currency and percent signs, and simple fractions
// ("1/6").
func ParseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "$%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return 0, false
	}

	if num, den, found := strings.Cut(s, "/"); found {
		n, errN := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, errD := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if errN == nil && errD == nil && d != 0 {
			return n / d, true
		}
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func refinedAnswers(r *types.DebateResult) []string {
	ids := r.SortedSolverIDs()
	answers := make([]string, 0, len(ids))
	for _, id := range ids {
		if refined, ok := r.Refined[id]; ok {
			answers = append(answers, refined.RefinedAnswer)
		}
	}
	return answers
}

func originalAnswers(r *types.DebateResult) []string {
	ids := r.SortedSolverIDs()
	answers := make([]string, 0, len(ids))
	for _, id := range ids {
		if sol, ok := r.Solutions[id]; ok {
			answers = append(answers, sol.FinalAnswer)
		}
	}
	return answers
}

func groundTruthString(want any) string {
	switch v := want.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
