package debate

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/debateflow/extract"
	"github.com/BaSui01/debateflow/internal/metrics"
	"github.com/BaSui01/debateflow/llm"
	"github.com/BaSui01/debateflow/types"
)

// DefaultRefinementConfidence is assumed when a refined solution states
// none. It sits above the solution default: a solver that has seen its
// reviews is expected to be more certain, not less.
const DefaultRefinementConfidence = 0.8

// refinementLabels are the section labels of a refinement response.
var refinementLabels = []string{
	"Changes Made",
	"Refined Solution",
	"Refined Answer", "Final Answer", "Answer", "Result",
	"Confidence",
}

// answerLabels order encodes the priority among answer spellings: an early
// "Refined Answer" beats any later "Answer" or "Result".
var answerLabels = []string{"Refined Answer", "Final Answer", "Answer", "Result"}

// Refiner runs the refinement stage: each solver revises its own solution
// in light of the critiques it received.
type Refiner struct {
	invoker     llm.Invoker
	ex          *extract.Extractor
	logger      *zap.Logger
	metrics     *metrics.Collector
	temperature float32
}

// NewRefiner creates the refinement stage.
func NewRefiner(opts Options) *Refiner {
	opts = opts.normalized()
	return &Refiner{
		invoker:     opts.Invoker,
		ex:          opts.Extractor,
		logger:      opts.Logger.With(zap.String("stage", StageRefinement)),
		metrics:     opts.Metrics,
		temperature: opts.Temperature,
	}
}

// RefineAll fans out one Refine per solver and gathers the results. It
// never fails: a solver whose invocation errors keeps its original answer
// in a default refinement record.
func (f *Refiner) RefineAll(ctx context.Context, problem types.Problem, solutions map[string]types.Solution, reviews map[string][]types.PeerReview) map[string]types.RefinedSolution {
	refined := make(map[string]types.RefinedSolution, len(solutions))

	var mu sync.Mutex
	eg, gctx := errgroup.WithContext(ctx)
	for id, sol := range solutions {
		id, sol := id, sol
		eg.Go(func() error {
			rs := f.Refine(gctx, problem, sol, reviews[id])
			mu.Lock()
			refined[id] = rs
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	return refined
}

// Refine asks one solver to revise its solution against the reviews it
// received and parses the revision.
func (f *Refiner) Refine(ctx context.Context, problem types.Problem, sol types.Solution, reviews []types.PeerReview) types.RefinedSolution {
	raw, err := f.invoker.Invoke(ctx, sol.SolverID, refinementPrompt(problem, sol, reviews), f.temperature)
	if err != nil {
		f.metrics.RecordInvoke(StageRefinement, sol.SolverID, statusError)
		f.logger.Warn("refinement invocation failed, keeping original solution",
			zap.String("solver", sol.SolverID), zap.Error(err))
		return types.RefinedSolution{
			OriginalSolutionID: sol.SolverID,
			ChangesMade:        []types.CritiqueResponse{defaultCritiqueResponse()},
			RefinedText:        sol.SolutionText,
			RefinedAnswer:      sol.FinalAnswer,
			Confidence:         DefaultRefinementConfidence,
		}
	}
	f.metrics.RecordInvoke(StageRefinement, sol.SolverID, statusOK)
	return f.parseRefinement(sol.SolverID, raw)
}

func (f *Refiner) parseRefinement(solverID, raw string) types.RefinedSolution {
	rs := types.RefinedSolution{
		OriginalSolutionID: solverID,
		Confidence:         DefaultRefinementConfidence,
	}

	if obj, ok := extract.JSONObject(raw); ok && hasAnyKey(obj, "refined_solution", "refined_answer", "changes_made") {
		if v, ok := extract.StringValue(obj["refined_solution"]); ok {
			rs.RefinedText = v
		} else {
			rs.RefinedText = raw
		}
		if v, ok := extract.StringValue(obj["refined_answer"]); ok {
			rs.RefinedAnswer = v
		} else if v, ok := extract.StringValue(obj["answer"]); ok {
			rs.RefinedAnswer = v
		}
		rs.Confidence = extract.ConfidenceValue(obj["confidence"], DefaultRefinementConfidence)
		if items, ok := obj["changes_made"].([]any); ok {
			rs.ChangesMade = critiquesFromJSON(items)
		}
	} else {
		f.parseRefinementText(&rs, raw)
	}

	if len(rs.ChangesMade) == 0 {
		f.metrics.RecordParseFallback(StageRefinement, "changes_made")
		rs.ChangesMade = []types.CritiqueResponse{defaultCritiqueResponse()}
	}
	return rs
}

func (f *Refiner) parseRefinementText(rs *types.RefinedSolution, raw string) {
	if v, ok := extract.LabelValue(raw, answerLabels, refinementLabels); ok {
		rs.RefinedAnswer = v
	} else if num, ok := extract.LastNumber(raw); ok {
		f.metrics.RecordParseFallback(StageRefinement, "refined_answer")
		rs.RefinedAnswer = num
	}

	if v, ok := extract.LabelValue(raw, []string{"Refined Solution"}, refinementLabels); ok && v != "" {
		rs.RefinedText = v
	} else {
		rs.RefinedText = raw
	}

	if v, ok := extract.LabelValue(raw, []string{"Confidence"}, refinementLabels); ok {
		rs.Confidence = extract.Confidence(v, DefaultRefinementConfidence)
	} else {
		f.metrics.RecordParseFallback(StageRefinement, "confidence")
	}

	if body, ok := extract.Section(raw, "Changes Made", refinementLabels); ok {
		rs.ChangesMade = parseCritiqueResponses(body)
	}
}

// parseCritiqueResponses reads a "Changes Made" section: entries start at
// "Critique:" and carry optional Response, Accepted, and Changes lines.
func parseCritiqueResponses(body string) []types.CritiqueResponse {
	var (
		out     []types.CritiqueResponse
		current *types.CritiqueResponse
	)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		switch {
		case hasKey(line, "Critique"):
			if current != nil {
				out = append(out, *current)
			}
			current = &types.CritiqueResponse{CritiqueID: keyValue(line), Accepted: true}
		case current == nil:
			continue
		case hasKey(line, "Response"):
			current.Response = keyValue(line)
		case hasKey(line, "Accepted"):
			v := strings.ToLower(keyValue(line))
			current.Accepted = v == "true" || v == "yes"
		case hasKey(line, "Changes"):
			current.ChangesMade = keyValue(line)
		}
	}
	if current != nil {
		out = append(out, *current)
	}
	return out
}

func critiquesFromJSON(items []any) []types.CritiqueResponse {
	out := make([]types.CritiqueResponse, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		cr := types.CritiqueResponse{Accepted: true}
		cr.CritiqueID, _ = extract.StringValue(m["critique_id"])
		if cr.CritiqueID == "" {
			cr.CritiqueID, _ = extract.StringValue(m["critique"])
		}
		cr.Response, _ = extract.StringValue(m["response"])
		cr.ChangesMade, _ = extract.StringValue(m["changes_made"])
		if b, ok := m["accepted"].(bool); ok {
			cr.Accepted = b
		}
		if cr.CritiqueID == "" && cr.Response == "" {
			continue
		}
		out = append(out, cr)
	}
	return out
}

// defaultCritiqueResponse is the synthesized entry that keeps ChangesMade
// non-empty when the solver's text had no parseable section.
func defaultCritiqueResponse() types.CritiqueResponse {
	return types.CritiqueResponse{
		CritiqueID:  "peer feedback",
		Accepted:    true,
		Response:    "considered all peer reviews",
		ChangesMade: "revised the solution to address the critiques",
	}
}

func hasKey(line, key string) bool {
	if len(line) <= len(key) {
		return false
	}
	return strings.EqualFold(line[:len(key)], key) &&
		strings.HasPrefix(strings.TrimSpace(line[len(key):]), ":")
}

func keyValue(line string) string {
	_, after, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(after)
}
