package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Invoker is the single capability the debate stages depend on. Stage code
// treats it as total: any returned error is absorbed into the stage's
// default record, never propagated.
type Invoker interface {
	Invoke(ctx context.Context, participantID, prompt string, temperature float32) (string, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, participantID, prompt string, temperature float32) (string, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, participantID, prompt string, temperature float32) (string, error) {
	return f(ctx, participantID, prompt, temperature)
}

// RegistryInvoker resolves participants through a Registry and runs each
// completion through a middleware chain.
type RegistryInvoker struct {
	registry  *Registry
	chain     *Chain
	maxTokens int
	logger    *zap.Logger
}

// RegistryInvokerOption configures a RegistryInvoker.
type RegistryInvokerOption func(*RegistryInvoker)

// WithMaxTokens caps the completion length of every invocation.
func WithMaxTokens(n int) RegistryInvokerOption {
	return func(i *RegistryInvoker) { i.maxTokens = n }
}

// WithChain sets the middleware chain applied to every invocation.
func WithChain(c *Chain) RegistryInvokerOption {
	return func(i *RegistryInvoker) { i.chain = c }
}

// NewRegistryInvoker creates an Invoker over the given registry.
func NewRegistryInvoker(registry *Registry, logger *zap.Logger, opts ...RegistryInvokerOption) *RegistryInvoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	inv := &RegistryInvoker{
		registry: registry,
		chain:    NewChain(),
		logger:   logger.With(zap.String("component", "invoker")),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke resolves the participant's provider and issues one completion.
func (i *RegistryInvoker) Invoke(ctx context.Context, participantID, prompt string, temperature float32) (string, error) {
	provider, ok := i.registry.Get(participantID)
	if !ok {
		return "", fmt.Errorf("participant %q has no bound provider", participantID)
	}

	req := &ChatRequest{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   i.maxTokens,
		Temperature: temperature,
	}

	handler := i.chain.Then(provider.Completion)
	resp, err := handler(ctx, req)
	if err != nil {
		return "", fmt.Errorf("completion via %s: %w", provider.Name(), err)
	}
	if resp.Text() == "" {
		i.logger.Warn("empty completion",
			zap.String("participant", participantID),
			zap.String("provider", provider.Name()))
	}
	return resp.Text(), nil
}
