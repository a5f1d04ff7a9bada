// Package debateflow provides a top-level convenience entry point for
// running multi-agent debates with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/debateflow"
//
//	p, err := debateflow.New(
//	    debateflow.WithParticipants("gpt-1", "claude-2", "gemini-3", "llama-4"),
//	    debateflow.WithMockProviders(),
//	)
//	result, err := p.Run(ctx, problem)
//
// This is a thin wrapper around [debate.NewPipeline]; use the debate
// package directly when you need per-stage control.
package debateflow

import (
	"go.uber.org/zap"

	"github.com/BaSui01/debateflow/debate"
	"github.com/BaSui01/debateflow/llm"
	"github.com/BaSui01/debateflow/testutil/mocks"
	"github.com/BaSui01/debateflow/types"
)

// Option configures the pipeline created by [New].
type Option func(*settings)

type settings struct {
	participants   []string
	invoker        llm.Invoker
	mock           bool
	logger         *zap.Logger
	sink           debate.Sink
	temperature    float32
	judgeThreshold float64
}

// WithParticipants sets the debating model ids. At least four are
// required.
func WithParticipants(ids ...string) Option {
	return func(s *settings) { s.participants = ids }
}

// WithInvoker sets a pre-built invoker, typically an [llm.RegistryInvoker]
// over real providers.
func WithInvoker(invoker llm.Invoker) Option {
	return func(s *settings) { s.invoker = invoker }
}

// WithMockProviders binds every participant to a scripted provider, so
// debates run without API keys.
func WithMockProviders() Option {
	return func(s *settings) { s.mock = true }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithSink persists every finished debate.
func WithSink(sink debate.Sink) Option {
	return func(s *settings) { s.sink = sink }
}

// WithTemperature overrides the invocation temperature.
func WithTemperature(t float32) Option {
	return func(s *settings) { s.temperature = t }
}

// WithJudgeThreshold overrides the judge eligibility threshold.
func WithJudgeThreshold(v float64) Option {
	return func(s *settings) { s.judgeThreshold = v }
}

// New creates a ready-to-run debate pipeline. A provider source must be
// specified via [WithInvoker] or [WithMockProviders].
func New(opts ...Option) (*debate.Pipeline, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	if s.invoker == nil {
		if !s.mock {
			return nil, types.NewError(types.ErrConfiguration,
				"no provider source: use WithInvoker or WithMockProviders")
		}
		registry := llm.NewRegistry()
		for _, id := range s.participants {
			registry.Register(id, mocks.ScriptedProvider(id))
		}
		s.invoker = llm.NewRegistryInvoker(registry, s.logger)
	}

	return debate.NewPipeline(
		debate.Config{
			Participants:   s.participants,
			Temperature:    s.temperature,
			JudgeThreshold: s.judgeThreshold,
		},
		debate.Options{
			Invoker: s.invoker,
			Logger:  s.logger,
		},
		s.sink,
	)
}
