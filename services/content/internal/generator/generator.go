// Package generator produces raw candidate text by sampling an external
// text generator at several temperatures.
package generator

import (
	"context"
	"errors"
	"sort"
	"time"

	"postcraft/pkg/logger"
	"postcraft/pkg/metrics"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/sync/errgroup"
)

// TextGenerator is the external capability. It may fail and must honor ctx.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}

type Config struct {
	Temperatures []float64
	// Timeout bounds each sample, retries included.
	Timeout    time.Duration
	MaxRetries int
}

func DefaultConfig() Config {
	return Config{
		Temperatures: []float64{0.6, 0.7, 0.8},
		Timeout:      20 * time.Second,
		MaxRetries:   1,
	}
}

// Sample is one raw output. Fallback is set when Text is a canned
// substitute for a failed call.
type Sample struct {
	Index       int
	Temperature float64
	Text        string
	Fallback    bool
	Err         error
}

// Batch is a drained stream in index order.
type Batch struct {
	Samples []Sample
	// UsedFallback is true when no sample came from the generator.
	UsedFallback bool
}

func (b Batch) Texts() []string {
	out := make([]string, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = s.Text
	}
	return out
}

type Generator struct {
	client   TextGenerator
	cfg      Config
	executor failsafe.Executor[string]
	log      *logger.Logger
	metrics  *metrics.Collector
}

// New wires the generator. A nil client means generation is unconfigured and
// every stream yields the fixed fallback set.
func New(client TextGenerator, cfg Config, log *logger.Logger, m *metrics.Collector) *Generator {
	if len(cfg.Temperatures) == 0 {
		cfg.Temperatures = DefaultConfig().Temperatures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	retry := retrypolicy.NewBuilder[string]().
		WithBackoff(200*time.Millisecond, 2*time.Second).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(_ string, err error) bool {
			return shouldRetry(err)
		}).
		Build()

	breaker := circuitbreaker.NewBuilder[string]().
		WithFailureThresholdRatio(5, 10).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			log.Warn("text generation circuit breaker %v -> %v", event.OldState, event.NewState)
		}).
		Build()

	return &Generator{
		client:   client,
		cfg:      cfg,
		executor: failsafe.With[string](retry, breaker),
		log:      log,
		metrics:  m,
	}
}

func (g *Generator) Configured() bool {
	return g.client != nil
}

// Stream starts one call per temperature and yields samples as they finish.
// The channel is closed after the last sample; it cannot be restarted.
func (g *Generator) Stream(ctx context.Context, systemPrompt, userPrompt string) <-chan Sample {
	out := make(chan Sample, len(g.cfg.Temperatures))

	if g.client == nil {
		for i, temp := range g.cfg.Temperatures {
			out <- fallbackSample(i, temp, nil)
		}
		close(out)
		return out
	}

	var group errgroup.Group
	for i, temp := range g.cfg.Temperatures {
		group.Go(func() error {
			out <- g.sample(ctx, i, temp, systemPrompt, userPrompt)
			return nil
		})
	}
	go func() {
		_ = group.Wait()
		close(out)
	}()
	return out
}

func (g *Generator) sample(ctx context.Context, index int, temp float64, systemPrompt, userPrompt string) Sample {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := g.executor.WithContext(ctx).Get(func() (string, error) {
		return g.client.Generate(ctx, systemPrompt, userPrompt, temp)
	})
	if err == nil && text == "" {
		err = errors.New("empty generation")
	}
	if err != nil {
		g.log.Warn("sample %d (temperature %.1f) failed, using fallback: %v", index, temp, err)
		g.metrics.ObserveSample(true, time.Since(start))
		return fallbackSample(index, temp, err)
	}
	g.metrics.ObserveSample(false, time.Since(start))
	return Sample{Index: index, Temperature: temp, Text: text}
}

// Collect drains a stream and orders the samples by index.
func Collect(samples <-chan Sample) Batch {
	var b Batch
	for s := range samples {
		b.Samples = append(b.Samples, s)
	}
	sort.Slice(b.Samples, func(i, j int) bool { return b.Samples[i].Index < b.Samples[j].Index })

	b.UsedFallback = len(b.Samples) > 0
	for _, s := range b.Samples {
		if !s.Fallback {
			b.UsedFallback = false
			break
		}
	}
	return b
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}
