package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"git-analyse/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter answers with the chunk text found in the prompt, or fails for
// prompts containing failOn.
type fakeCompleter struct {
	mu       sync.Mutex
	prompts  []string
	failOn   string
	delay    func(prompt string) time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.delay != nil {
		select {
		case <-time.After(f.delay(prompt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if f.failOn != "" && strings.Contains(prompt, f.failOn) {
		return "", &types.RemoteAnalysisFailedError{Message: "quota exceeded"}
	}

	start := strings.Index(prompt, "```\n") + 4
	end := strings.LastIndex(prompt, "\n```")
	return "analysis of " + prompt[start:end], nil
}

func testTarget() types.ResolvedTarget {
	return types.ResolvedTarget{
		RepositoryReference: types.RepositoryReference{
			Raw:      "https://github.com/acme/widget",
			Provider: types.ProviderGitHub,
			Owner:    "acme",
			Name:     "widget",
		},
		Branch: "main",
	}
}

func testChunks(texts ...string) []types.Chunk {
	chunks := make([]types.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = types.Chunk{Index: i, Total: len(texts), Text: text}
	}
	return chunks
}

func TestAnalyzeSequential(t *testing.T) {
	completer := &fakeCompleter{}
	driver := NewDriver(completer, DriverConfig{})

	results, err := driver.Analyze(context.Background(), testTarget(), []string{"go"}, testChunks("one", "two", "three"))
	require.NoError(t, err)

	require.Len(t, results, 3)
	for i, want := range []string{"one", "two", "three"} {
		assert.Equal(t, i, results[i].ChunkIndex)
		assert.Equal(t, "analysis of "+want, results[i].Text)
		assert.NoError(t, results[i].Err)
	}

	require.Len(t, completer.prompts, 3)
	assert.Contains(t, completer.prompts[0], "This is part 1 of 3.")
	assert.Contains(t, completer.prompts[2], "This is part 3 of 3.")
	assert.Equal(t, int32(1), completer.peak.Load())
}

func TestAnalyzeConcurrentKeepsOrder(t *testing.T) {
	texts := make([]string, 12)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk-%02d", i)
	}

	// earlier chunks take longer so completion order is reversed
	completer := &fakeCompleter{delay: func(prompt string) time.Duration {
		for i := range texts {
			if strings.Contains(prompt, texts[i]) {
				return time.Duration(len(texts)-i) * 5 * time.Millisecond
			}
		}
		return 0
	}}
	driver := NewDriver(completer, DriverConfig{Concurrency: 4})

	results, err := driver.Analyze(context.Background(), testTarget(), nil, testChunks(texts...))
	require.NoError(t, err)

	require.Len(t, results, len(texts))
	for i, text := range texts {
		assert.Equal(t, i, results[i].ChunkIndex)
		assert.Equal(t, "analysis of "+text, results[i].Text)
	}
	assert.LessOrEqual(t, completer.peak.Load(), int32(4))
}

func TestAnalyzeBestEffort(t *testing.T) {
	completer := &fakeCompleter{failOn: "part 2 of 3"}
	driver := NewDriver(completer, DriverConfig{Concurrency: 2})

	results, err := driver.Analyze(context.Background(), testTarget(), nil, testChunks("a", "b", "c"))
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "analysis of a", results[0].Text)
	assert.Equal(t, "analysis of c", results[2].Text)

	require.Error(t, results[1].Err)
	var remote *types.RemoteAnalysisFailedError
	assert.True(t, errors.As(results[1].Err, &remote))
	assert.Contains(t, results[1].Err.Error(), "part 2 of 3")
}

func TestAnalyzeFailFast(t *testing.T) {
	completer := &fakeCompleter{failOn: "part 1 of 3"}
	driver := NewDriver(completer, DriverConfig{FailFast: true})

	results, err := driver.Analyze(context.Background(), testTarget(), nil, testChunks("a", "b", "c"))
	assert.Nil(t, results)

	var remote *types.RemoteAnalysisFailedError
	require.True(t, errors.As(err, &remote), "got %v", err)
	assert.Equal(t, "quota exceeded", remote.Message)
}

func TestAnalyzeNoChunks(t *testing.T) {
	completer := &fakeCompleter{}
	results, err := NewDriver(completer, DriverConfig{}).Analyze(context.Background(), testTarget(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, completer.prompts)
}

func TestAnalyzeRateLimited(t *testing.T) {
	completer := &fakeCompleter{}
	driver := NewDriver(completer, DriverConfig{Concurrency: 3, RequestsPerSecond: 20})

	start := time.Now()
	results, err := driver.Analyze(context.Background(), testTarget(), nil, testChunks("a", "b", "c", "d", "e"))
	require.NoError(t, err)
	assert.Len(t, results, 5)

	// burst of 20 tokens covers all five calls immediately
	assert.Less(t, time.Since(start), time.Second)
}

func TestAnalyzeRateLimitPacesCalls(t *testing.T) {
	completer := &fakeCompleter{}
	driver := NewDriver(completer, DriverConfig{Concurrency: 8, RequestsPerSecond: 5})

	start := time.Now()
	results, err := driver.Analyze(context.Background(), testTarget(), nil,
		testChunks("a", "b", "c", "d", "e", "f", "g", "h"))
	require.NoError(t, err)
	elapsed := time.Since(start)

	require.Len(t, results, 8)
	for _, res := range results {
		assert.NoError(t, res.Err)
	}
	// a burst of 5 goes out at once; the other 3 wait 200ms each
	assert.GreaterOrEqual(t, elapsed, 550*time.Millisecond)
	assert.Less(t, elapsed, 3*time.Second)
}

func TestAnalyzeCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver := NewDriver(&fakeCompleter{}, DriverConfig{RequestsPerSecond: 1})
	results, err := driver.Analyze(ctx, testTarget(), nil, testChunks("a"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}
