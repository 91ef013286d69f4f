package generator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"postcraft/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type permanentErr struct{}

func (permanentErr) Error() string   { return "bad request" }
func (permanentErr) Retryable() bool { return false }

type fakeClient struct {
	mu    sync.Mutex
	calls map[float64]int
	fn    func(ctx context.Context, temp float64, call int) (string, error)
}

func (f *fakeClient) Generate(ctx context.Context, _, _ string, temp float64) (string, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[float64]int)
	}
	f.calls[temp]++
	call := f.calls[temp]
	f.mu.Unlock()
	return f.fn(ctx, temp, call)
}

func newGenerator(client TextGenerator, cfg Config) *Generator {
	return New(client, cfg, logger.New(), nil)
}

func TestStream_UnconfiguredYieldsFixedFallbackSet(t *testing.T) {
	g := newGenerator(nil, DefaultConfig())

	batch := Collect(g.Stream(context.Background(), "sys", "user"))

	assert.False(t, g.Configured())
	assert.True(t, batch.UsedFallback)
	assert.Equal(t, FallbackTexts(), batch.Texts())
}

func TestStream_SamplesAtDistinctTemperatures(t *testing.T) {
	client := &fakeClient{fn: func(_ context.Context, temp float64, _ int) (string, error) {
		return fmt.Sprintf("caption at %.1f", temp), nil
	}}
	g := newGenerator(client, DefaultConfig())

	batch := Collect(g.Stream(context.Background(), "sys", "user"))

	require.Len(t, batch.Samples, 3)
	assert.False(t, batch.UsedFallback)
	assert.Equal(t, []string{"caption at 0.6", "caption at 0.7", "caption at 0.8"}, batch.Texts())
	assert.Len(t, client.calls, 3)
}

func TestStream_SingleFailureFallsBackForThatSampleOnly(t *testing.T) {
	client := &fakeClient{fn: func(_ context.Context, temp float64, _ int) (string, error) {
		if temp == 0.7 {
			return "", permanentErr{}
		}
		return "model output", nil
	}}
	g := newGenerator(client, DefaultConfig())

	batch := Collect(g.Stream(context.Background(), "sys", "user"))

	require.Len(t, batch.Samples, 3)
	assert.False(t, batch.UsedFallback)
	assert.False(t, batch.Samples[0].Fallback)
	assert.True(t, batch.Samples[1].Fallback)
	assert.Equal(t, fallbackTexts[1], batch.Samples[1].Text)
	assert.Error(t, batch.Samples[1].Err)
	assert.Equal(t, 1, client.calls[0.7])
}

func TestStream_AllFailuresYieldFixedFallbackSet(t *testing.T) {
	client := &fakeClient{fn: func(context.Context, float64, int) (string, error) {
		return "", permanentErr{}
	}}
	g := newGenerator(client, DefaultConfig())

	batch := Collect(g.Stream(context.Background(), "sys", "user"))

	assert.True(t, batch.UsedFallback)
	assert.Equal(t, FallbackTexts(), batch.Texts())
}

func TestStream_TimeoutIsAFailureNotAHang(t *testing.T) {
	client := &fakeClient{fn: func(ctx context.Context, _ float64, _ int) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	cfg := DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond
	g := newGenerator(client, cfg)

	start := time.Now()
	batch := Collect(g.Stream(context.Background(), "sys", "user"))

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, batch.UsedFallback)
}

func TestStream_RetriesTransientFailure(t *testing.T) {
	client := &fakeClient{fn: func(_ context.Context, _ float64, call int) (string, error) {
		if call == 1 {
			return "", errors.New("connection reset")
		}
		return "second try", nil
	}}
	cfg := DefaultConfig()
	cfg.Temperatures = []float64{0.6}
	g := newGenerator(client, cfg)

	batch := Collect(g.Stream(context.Background(), "sys", "user"))

	require.Len(t, batch.Samples, 1)
	assert.Equal(t, "second try", batch.Samples[0].Text)
	assert.Equal(t, 2, client.calls[0.6])
}

func TestShouldRetry(t *testing.T) {
	assert.False(t, shouldRetry(nil))
	assert.False(t, shouldRetry(context.DeadlineExceeded))
	assert.False(t, shouldRetry(fmt.Errorf("wrapped: %w", permanentErr{})))
	assert.True(t, shouldRetry(errors.New("io timeout")))
}
