package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"git-analyse/packages/ai"
	"git-analyse/types"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DriverConfig controls how chunks are sent to the completer.
type DriverConfig struct {
	Concurrency       int
	RequestsPerSecond float64
	FailFast          bool
}

// Driver sends every chunk through a Completer and collects the answers in
// chunk order.
type Driver struct {
	completer ai.Completer
	config    DriverConfig
	limiter   *rate.Limiter
}

func NewDriver(completer ai.Completer, config DriverConfig) *Driver {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerSecond > 0 {
		burst := int(math.Max(1, math.Ceil(config.RequestsPerSecond)))
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	return &Driver{completer: completer, config: config, limiter: limiter}
}

// Analyze returns one result per chunk, indexed like chunks. A failed call is
// recorded in its result and the remaining chunks still run, unless FailFast
// is set, in which case the first failure cancels outstanding calls and is
// returned.
func (d *Driver) Analyze(ctx context.Context, target types.ResolvedTarget, fileTypes []string, chunks []types.Chunk) ([]types.AnalysisResult, error) {
	results := make([]types.AnalysisResult, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.config.Concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			result := d.analyzeChunk(gctx, target, fileTypes, chunk)
			results[i] = result
			if result.Err != nil && d.config.FailFast {
				return result.Err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Driver) analyzeChunk(ctx context.Context, target types.ResolvedTarget, fileTypes []string, chunk types.Chunk) types.AnalysisResult {
	result := types.AnalysisResult{ChunkIndex: chunk.Index}

	if err := d.limiter.Wait(ctx); err != nil {
		result.Err = fmt.Errorf("part %d of %d: %w", chunk.Index+1, chunk.Total, err)
		return result
	}

	prompt := ai.BuildChunkPrompt(target.Raw, chunk, fileTypes)
	slog.Info("Sending chunk for analysis",
		"part", chunk.Index+1,
		"total", chunk.Total,
		"promptLength", len(prompt))

	text, err := d.completer.Complete(ctx, prompt)
	if err != nil {
		slog.Error("Chunk analysis failed", "part", chunk.Index+1, "total", chunk.Total, "error", err)
		result.Err = fmt.Errorf("part %d of %d: %w", chunk.Index+1, chunk.Total, err)
		return result
	}

	slog.Info("Chunk analysis completed", "part", chunk.Index+1, "total", chunk.Total, "resultLength", len(text))
	result.Text = text
	return result
}
