package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prana-run/prana/internal/middleware"
)

func TestFire_ShouldReturnDataUnchanged_WhenChainIsEmpty(t *testing.T) {
	p := middleware.New()

	out, err := p.Fire(context.Background(), middleware.EventNodeStarted, map[string]any{"a": 1})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, out)
}

func TestFire_ShouldRunMiddlewaresInConstructionOrder(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return middleware.Func(func(ctx context.Context, event middleware.Event, data map[string]any, next middleware.Next) (map[string]any, error) {
			order = append(order, name)
			return next(ctx, data)
		})
	}
	p := middleware.New(tag("first"), tag("second"), tag("third"))

	_, err := p.Fire(context.Background(), middleware.EventExecutionStarted, map[string]any{})

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestFire_ShouldShortCircuit_WhenAMiddlewareDoesNotCallNext(t *testing.T) {
	var reached bool
	stopper := middleware.Func(func(ctx context.Context, event middleware.Event, data map[string]any, next middleware.Next) (map[string]any, error) {
		data["stopped"] = true
		return data, nil
	})
	after := middleware.Func(func(ctx context.Context, event middleware.Event, data map[string]any, next middleware.Next) (map[string]any, error) {
		reached = true
		return next(ctx, data)
	})
	p := middleware.New(stopper, after)

	out, err := p.Fire(context.Background(), middleware.EventNodeCompleted, map[string]any{})

	require.NoError(t, err)
	assert.False(t, reached)
	assert.Equal(t, true, out["stopped"])
}

func TestFire_ShouldPropagateError_WhenAMiddlewareFails(t *testing.T) {
	failing := middleware.Func(func(ctx context.Context, event middleware.Event, data map[string]any, next middleware.Next) (map[string]any, error) {
		return nil, errors.New("boom")
	})
	p := middleware.New(failing)

	_, err := p.Fire(context.Background(), middleware.EventNodeFailed, map[string]any{})

	assert.EqualError(t, err, "boom")
}

func TestFire_ShouldPassTransformedData_ToSubsequentMiddlewares(t *testing.T) {
	setter := middleware.Func(func(ctx context.Context, event middleware.Event, data map[string]any, next middleware.Next) (map[string]any, error) {
		data["seen"] = true
		return next(ctx, data)
	})
	reader := middleware.Func(func(ctx context.Context, event middleware.Event, data map[string]any, next middleware.Next) (map[string]any, error) {
		assert.Equal(t, true, data["seen"])
		return next(ctx, data)
	})
	p := middleware.New(setter, reader)

	_, err := p.Fire(context.Background(), middleware.EventExecutionCompleted, map[string]any{})

	require.NoError(t, err)
}
