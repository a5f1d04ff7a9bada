package debate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/BaSui01/debateflow/extract"
	"github.com/BaSui01/debateflow/internal/metrics"
	"github.com/BaSui01/debateflow/llm"
	"github.com/BaSui01/debateflow/types"
)

// Judge runs the judgment stage. Unlike the other stages it does not
// default its way past malformed output: a verdict that cannot be
// validated becomes an explicit soft failure with no winner, because a
// fabricated winner would silently corrupt any downstream accuracy
// numbers.
type Judge struct {
	invoker     llm.Invoker
	ex          *extract.Extractor
	logger      *zap.Logger
	metrics     *metrics.Collector
	temperature float32
}

// NewJudge creates the judgment stage.
func NewJudge(opts Options) *Judge {
	opts = opts.normalized()
	return &Judge{
		invoker:     opts.Invoker,
		ex:          opts.Extractor,
		logger:      opts.Logger.With(zap.String("stage", StageJudgment)),
		metrics:     opts.Metrics,
		temperature: opts.Temperature,
	}
}

// Decide asks the judge for a verdict over the refined solutions and
// validates it strictly against the solver set. It always returns a
// Judgment; invocation and validation problems surface as soft failures.
func (j *Judge) Decide(ctx context.Context, judgeID string, problem types.Problem, refined map[string]types.RefinedSolution, solverIDs []string) types.Judgment {
	raw, err := j.invoker.Invoke(ctx, judgeID, judgmentPrompt(problem, refined, solverIDs), j.temperature)
	if err != nil {
		j.metrics.RecordInvoke(StageJudgment, judgeID, statusError)
		j.logger.Warn("judgment invocation failed", zap.String("judge", judgeID), zap.Error(err))
		return softFailure("", fmt.Sprintf("judge invocation failed: %v", err))
	}
	j.metrics.RecordInvoke(StageJudgment, judgeID, statusOK)
	return j.parseJudgment(raw, solverIDs)
}

// parseJudgment applies the layered JSON strategies and validates the
// result. Soft failures preserve the raw response for offline inspection.
func (j *Judge) parseJudgment(raw string, solverIDs []string) types.Judgment {
	obj, ok := judgmentObject(raw)
	if !ok {
		j.metrics.RecordParseFallback(StageJudgment, "winner")
		j.logger.Warn("judgment is not valid JSON")
		return softFailure(raw, "judgment response is not valid JSON")
	}

	winner, ok := extract.StringValue(obj["winner"])
	if !ok || winner == "" {
		j.logger.Warn("judgment missing winner field")
		return softFailure(raw, "judgment missing required field: winner")
	}
	if !containsID(solverIDs, winner) {
		j.logger.Warn("judgment names an invalid winner", zap.String("winner", winner))
		return softFailure(raw, fmt.Sprintf("invalid winner %q, not in candidate list %v", winner, sortedIDs(solverIDs)))
	}

	verdict := types.Judgment{Winner: winner}
	if v, present := obj["confidence"]; present {
		if c, ok := confidenceIfValid(v); ok {
			verdict.Confidence = &c
		}
	}
	if s, ok := extract.StringValue(obj["reasoning"]); ok {
		verdict.Reasoning = s
	}
	if m, ok := obj["evaluation_criteria"].(map[string]any); ok {
		verdict.EvaluationCriteria = scoreMap(m)
	}
	if m, ok := obj["ranking"].(map[string]any); ok {
		verdict.Ranking = rankMap(m)
	}
	return verdict
}

// judgmentObject runs the layered JSON strategies: the whole response with
// code fences stripped, then the outermost brace span, then the brace span
// keyed on "winner".
func judgmentObject(raw string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(extract.StripCodeFence(raw)), &obj); err == nil {
		return obj, true
	}
	if obj, ok := extract.JSONObject(raw); ok {
		return obj, true
	}
	return extract.JSONObjectWithKey(raw, "winner")
}

func softFailure(raw, reason string) types.Judgment {
	return types.Judgment{
		Warning:     true,
		Err:         reason,
		RawResponse: raw,
	}
}

// confidenceIfValid coerces a stated confidence, accepting numbers and
// percentage strings. An uncoercible or out-of-range value is dropped
// rather than clamped.
func confidenceIfValid(v any) (float64, bool) {
	c := extract.ConfidenceValue(v, -1)
	if c < 0 {
		return 0, false
	}
	return c, true
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func sortedIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func scoreMap(m map[string]any) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if n, ok := v.(float64); ok {
			out[k] = n
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func rankMap(m map[string]any) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		if n, ok := v.(float64); ok {
			out[k] = int(n)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
