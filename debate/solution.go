package debate

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/debateflow/extract"
	"github.com/BaSui01/debateflow/internal/metrics"
	"github.com/BaSui01/debateflow/llm"
	"github.com/BaSui01/debateflow/types"
)

// DefaultSolutionConfidence is assumed when a solver states none.
const DefaultSolutionConfidence = 0.5

// solutionSchema describes the labeled fields of a solution response.
var solutionSchema = extract.Schema{
	Fields: []extract.Field{
		{
			Name: "final_answer", Kind: extract.KindString,
			Keys:            []string{"answer", "result"},
			Labels:          []string{"Final Answer", "Answer", "Result"},
			NumericFallback: true,
		},
		{
			Name: "confidence", Kind: extract.KindNumber,
			Labels: []string{"Confidence"},
		},
		{
			Name: "reasoning_steps", Kind: extract.KindList,
			Keys:    []string{"steps", "reasoning"},
			Section: "Reasoning Steps",
		},
		{
			Name: "assumptions", Kind: extract.KindList,
			Section: "Assumptions",
		},
		{
			Name: "solution_text", Kind: extract.KindString,
			Keys:   []string{"solution"},
			Labels: []string{"Solution"},
		},
	},
}

// SolutionGenerator runs the independent solution stage: every solver gets
// the same problem, sees nobody else's work, and produces a structured
// solution.
type SolutionGenerator struct {
	invoker     llm.Invoker
	ex          *extract.Extractor
	logger      *zap.Logger
	metrics     *metrics.Collector
	temperature float32
}

// NewSolutionGenerator creates the solution stage.
func NewSolutionGenerator(opts Options) *SolutionGenerator {
	opts = opts.normalized()
	return &SolutionGenerator{
		invoker:     opts.Invoker,
		ex:          opts.Extractor,
		logger:      opts.Logger.With(zap.String("stage", StageSolution)),
		metrics:     opts.Metrics,
		temperature: opts.Temperature,
	}
}

// GenerateAll fans out one Generate per solver and gathers the results. It
// never fails: solvers whose invocation errors still get a default
// solution record.
func (g *SolutionGenerator) GenerateAll(ctx context.Context, problem types.Problem, solvers []string) map[string]types.Solution {
	solutions := make(map[string]types.Solution, len(solvers))

	var mu sync.Mutex
	eg, gctx := errgroup.WithContext(ctx)
	for _, id := range solvers {
		id := id
		eg.Go(func() error {
			sol := g.Generate(gctx, problem, id)
			mu.Lock()
			solutions[id] = sol
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	return solutions
}

// Generate asks one solver for a solution and parses it, degrading field by
// field to defaults on malformed output.
func (g *SolutionGenerator) Generate(ctx context.Context, problem types.Problem, solverID string) types.Solution {
	raw, err := g.invoker.Invoke(ctx, solverID, solutionPrompt(problem), g.temperature)
	if err != nil {
		g.metrics.RecordInvoke(StageSolution, solverID, statusError)
		g.logger.Warn("solution invocation failed, using default",
			zap.String("solver", solverID), zap.Error(err))
		raw = ""
	} else {
		g.metrics.RecordInvoke(StageSolution, solverID, statusOK)
	}
	return g.parseSolution(solverID, raw)
}

func (g *SolutionGenerator) parseSolution(solverID, raw string) types.Solution {
	res := g.ex.Extract(raw, solutionSchema)

	sol := types.Solution{
		SolverID:    solverID,
		Confidence:  DefaultSolutionConfidence,
		Assumptions: []string{},
	}

	if v, ok := res.String("final_answer"); ok {
		sol.FinalAnswer = v
	} else {
		g.metrics.RecordParseFallback(StageSolution, "final_answer")
	}
	if v, ok := res.Number("confidence"); ok {
		sol.Confidence = v
	} else {
		g.metrics.RecordParseFallback(StageSolution, "confidence")
	}
	if v, ok := res.List("reasoning_steps"); ok && len(v) > 0 {
		sol.ReasoningSteps = v
	} else {
		// The full response stands in as the single reasoning step, so the
		// record is never empty even for free-form output.
		sol.ReasoningSteps = []string{raw}
		g.metrics.RecordParseFallback(StageSolution, "reasoning_steps")
	}
	if v, ok := res.List("assumptions"); ok {
		sol.Assumptions = v
	}
	if v, ok := res.String("solution_text"); ok {
		sol.SolutionText = v
	} else {
		sol.SolutionText = raw
	}
	return sol
}
