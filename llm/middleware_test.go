package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func okHandler(text string) Handler {
	return func(_ context.Context, _ *ChatRequest) (*ChatResponse, error) {
		return &ChatResponse{Choices: []ChatChoice{{Message: Message{Content: text}}}}, nil
	}
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}

	chain := NewChain(mw("outer")).Use(mw("inner"))
	require.Equal(t, 2, chain.Len())

	_, err := chain.Then(okHandler("x"))(context.Background(), &ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	t.Parallel()

	h := LoggingMiddleware(zap.NewNop())(okHandler("hello"))
	resp, err := h(context.Background(), &ChatRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text())

	// Errors pass through unchanged.
	boom := errors.New("boom")
	h = LoggingMiddleware(nil)(func(_ context.Context, _ *ChatRequest) (*ChatResponse, error) {
		return nil, boom
	})
	_, err = h(context.Background(), &ChatRequest{})
	assert.ErrorIs(t, err, boom)
}

func TestTimeoutMiddleware(t *testing.T) {
	t.Parallel()

	h := TimeoutMiddleware(10 * time.Millisecond)(func(ctx context.Context, _ *ChatRequest) (*ChatResponse, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return &ChatResponse{}, nil
		}
	})

	_, err := h(context.Background(), &ChatRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Zero timeout disables the bound.
	h = TimeoutMiddleware(0)(okHandler("ok"))
	resp, err := h(context.Background(), &ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	// Generous limiter: both calls go through.
	h := RateLimitMiddleware(rate.NewLimiter(rate.Inf, 1))(okHandler("ok"))
	for i := 0; i < 2; i++ {
		_, err := h(context.Background(), &ChatRequest{})
		require.NoError(t, err)
	}

	// Exhausted limiter with a cancelled context surfaces a rate error.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h = RateLimitMiddleware(rate.NewLimiter(rate.Every(time.Hour), 0))(okHandler("ok"))
	_, err := h(ctx, &ChatRequest{})
	require.Error(t, err)
	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrRateLimited, llmErr.Code)

	// Nil limiter is a no-op.
	h = RateLimitMiddleware(nil)(okHandler("ok"))
	_, err = h(context.Background(), &ChatRequest{})
	assert.NoError(t, err)
}
