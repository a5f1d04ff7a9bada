package debate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/debateflow/internal/metrics"
	"github.com/BaSui01/debateflow/types"
)

// Sink persists finished debate results. store.FileSink and store.SQLiteSink
// implement it.
type Sink interface {
	Save(ctx context.Context, result *types.DebateResult) error
}

// Config holds the per-pipeline settings.
type Config struct {
	// Participants are the ids of every debating model, registered with the
	// invoker. At least four are required.
	Participants []string
	// Temperature for every invocation; zero means DefaultTemperature.
	Temperature float32
	// JudgeThreshold is the minimum judge confidence for judge eligibility;
	// zero means DefaultJudgeThreshold.
	JudgeThreshold float64
}

// Pipeline runs complete debates. Stages execute strictly in order with a
// barrier between them; within a stage the per-participant work runs
// concurrently. A constructed pipeline is safe for concurrent Run calls.
type Pipeline struct {
	participants []string

	assigner  *RoleAssigner
	solutions *SolutionGenerator
	reviewer  *PeerReviewer
	refiner   *Refiner
	judge     *Judge

	sink    Sink
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewPipeline wires the five stages. sink may be nil when results are not
// persisted. Fails when the invoker is missing or the participant pool is
// too small to fill one judge and three solver seats.
func NewPipeline(cfg Config, opts Options, sink Sink) (*Pipeline, error) {
	if opts.Invoker == nil {
		return nil, types.NewError(types.ErrConfiguration, "pipeline needs an invoker")
	}
	if len(cfg.Participants) < types.SolverCount+1 {
		return nil, types.NewError(types.ErrConfiguration,
			fmt.Sprintf("need at least %d participants for a debate, got %d",
				types.SolverCount+1, len(cfg.Participants)))
	}
	if cfg.Temperature != 0 {
		opts.Temperature = cfg.Temperature
	}
	opts = opts.normalized()

	return &Pipeline{
		participants: append([]string(nil), cfg.Participants...),
		assigner:     NewRoleAssigner(opts, cfg.JudgeThreshold),
		solutions:    NewSolutionGenerator(opts),
		reviewer:     NewPeerReviewer(opts),
		refiner:      NewRefiner(opts),
		judge:        NewJudge(opts),
		sink:         sink,
		metrics:      opts.Metrics,
		logger:       opts.Logger.With(zap.String("component", "pipeline")),
	}, nil
}

// Run executes one full debate over the problem. It returns an error only
// for configuration-level problems such as a failed role assignment;
// malformed model output degrades to defaults or, for the judgment, to a
// recorded soft failure, and the debate still completes.
func (p *Pipeline) Run(ctx context.Context, problem types.Problem) (*types.DebateResult, error) {
	debateID := uuid.NewString()
	logger := p.logger.With(zap.String("debate_id", debateID), zap.Int("problem_id", problem.ID))
	logger.Info("debate started", zap.String("category", problem.Category))
	started := time.Now()

	prefs := p.timedPreferences(ctx, problem, logger)

	partition, err := p.assigner.AssignRoles(prefs)
	if err != nil {
		p.metrics.RecordDebate("failed")
		return nil, err
	}

	solutions := p.timedSolutions(ctx, problem, partition.Solvers, logger)
	reviews := p.timedReviews(ctx, problem, solutions, logger)
	refined := p.timedRefinements(ctx, problem, solutions, reviews, logger)
	judgment := p.timedJudgment(ctx, problem, partition, refined, logger)

	result := &types.DebateResult{
		DebateID:    debateID,
		Problem:     problem,
		Roles:       partition,
		Preferences: prefs,
		Solutions:   solutions,
		Reviews:     reviews,
		Refined:     refined,
		Judgment:    judgment,
		Answer:      problem.Answer,
		StartedAt:   started,
		CompletedAt: time.Now(),
	}

	status := "completed"
	if judgment.Warning {
		status = "soft_failure"
	}
	p.metrics.RecordDebate(status)
	logger.Info("debate finished",
		zap.String("status", status),
		zap.String("winner", judgment.Winner),
		zap.Duration("duration", result.CompletedAt.Sub(started)))

	if p.sink != nil {
		if err := p.sink.Save(ctx, result); err != nil {
			// Persistence never fails the debate; the result is still
			// returned to the caller.
			logger.Error("failed to persist debate result", zap.Error(err))
		}
	}
	return result, nil
}

func (p *Pipeline) timedPreferences(ctx context.Context, problem types.Problem, logger *zap.Logger) map[string]types.RolePreference {
	start := time.Now()
	prefs := p.assigner.CollectPreferences(ctx, problem, p.participants)
	p.observeStage(StagePreferences, start, logger)
	return prefs
}

func (p *Pipeline) timedSolutions(ctx context.Context, problem types.Problem, solvers []string, logger *zap.Logger) map[string]types.Solution {
	start := time.Now()
	solutions := p.solutions.GenerateAll(ctx, problem, solvers)
	p.observeStage(StageSolution, start, logger)
	return solutions
}

func (p *Pipeline) timedReviews(ctx context.Context, problem types.Problem, solutions map[string]types.Solution, logger *zap.Logger) map[string][]types.PeerReview {
	start := time.Now()
	reviews := p.reviewer.ReviewAll(ctx, problem, solutions)
	p.observeStage(StageReview, start, logger)
	return reviews
}

func (p *Pipeline) timedRefinements(ctx context.Context, problem types.Problem, solutions map[string]types.Solution, reviews map[string][]types.PeerReview, logger *zap.Logger) map[string]types.RefinedSolution {
	start := time.Now()
	refined := p.refiner.RefineAll(ctx, problem, solutions, reviews)
	p.observeStage(StageRefinement, start, logger)
	return refined
}

func (p *Pipeline) timedJudgment(ctx context.Context, problem types.Problem, partition types.RolePartition, refined map[string]types.RefinedSolution, logger *zap.Logger) types.Judgment {
	start := time.Now()
	judgment := p.judge.Decide(ctx, partition.Judge, problem, refined, partition.Solvers)
	p.observeStage(StageJudgment, start, logger)
	return judgment
}

func (p *Pipeline) observeStage(stage string, start time.Time, logger *zap.Logger) {
	d := time.Since(start)
	p.metrics.ObserveStage(stage, d)
	logger.Debug("stage finished", zap.String("stage", stage), zap.Duration("duration", d))
}
