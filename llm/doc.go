// Package llm defines the model-invocation collaborator used by the debate
// pipeline: a minimal chat Provider interface, a thread-safe participant
// registry that binds each debating participant to a provider at
// configuration time, an Invoker facade the stages call, and a middleware
// chain for logging, timeouts, and rate limiting.
//
// The registry replaces dispatch by model-name substring: participants are
// resolved to providers exactly once, when the debate is configured.
package llm
