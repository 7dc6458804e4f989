package handlers

import (
	"context"
	"errors"
	"testing"

	"git-analyse/types"

	"github.com/google/go-github/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swinton/go-probot/probot"
)

type recordingAnalyzer struct {
	calls   [][2]string
	clients []*github.Client
	err     error
}

func (r *recordingAnalyzer) RunWithClient(_ context.Context, gh *github.Client, reference, branch string) (*types.Report, error) {
	r.calls = append(r.calls, [2]string{reference, branch})
	r.clients = append(r.clients, gh)
	if r.err != nil {
		return nil, r.err
	}
	return &types.Report{
		RunID:   "run-1",
		Results: []types.AnalysisResult{{ChunkIndex: 0, Text: "fine"}},
	}, nil
}

func pushEvent(ref, defaultBranch, after string) *github.PushEvent {
	return &github.PushEvent{
		Ref:   github.String(ref),
		After: github.String(after),
		Repo: &github.PushEventRepository{
			FullName:      github.String("acme/widget"),
			HTMLURL:       github.String("https://github.com/acme/widget"),
			DefaultBranch: github.String(defaultBranch),
		},
	}
}

func TestPushTarget(t *testing.T) {
	tests := []struct {
		name       string
		ev         *github.PushEvent
		wantBranch string
		wantOK     bool
	}{
		{"default branch", pushEvent("refs/heads/main", "main", "abc123"), "main", true},
		{"non-main default", pushEvent("refs/heads/dev", "dev", "abc123"), "dev", true},
		{"other branch", pushEvent("refs/heads/feature", "main", "abc123"), "", false},
		{"tag", pushEvent("refs/tags/main", "main", "abc123"), "", false},
		{"deleted", pushEvent("refs/heads/main", "main", deletedRef), "", false},
		{"no repository", &github.PushEvent{Ref: github.String("refs/heads/main")}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reference, branch, ok := pushTarget(tt.ev)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBranch, branch)
			if ok {
				assert.Equal(t, "https://github.com/acme/widget", reference)
			}
		})
	}
}

func TestPushHandlerRunsAnalysis(t *testing.T) {
	analyzer := &recordingAnalyzer{}
	handler := NewPushHandler(analyzer)

	installation := github.NewClient(nil)
	err := handler(&probot.Context{GitHub: installation, Payload: pushEvent("refs/heads/main", "main", "abc123")})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"https://github.com/acme/widget", "main"}}, analyzer.calls)
	require.Len(t, analyzer.clients, 1)
	assert.Same(t, installation, analyzer.clients[0])
}

func TestPushHandlerIgnoresOtherBranches(t *testing.T) {
	analyzer := &recordingAnalyzer{}
	handler := NewPushHandler(analyzer)

	require.NoError(t, handler(&probot.Context{Payload: pushEvent("refs/heads/feature", "main", "abc123")}))
	require.NoError(t, handler(&probot.Context{Payload: &github.IssuesEvent{}}))
	assert.Empty(t, analyzer.calls)
}

func TestPushHandlerReturnsAnalysisError(t *testing.T) {
	analyzer := &recordingAnalyzer{err: errors.New("download failed")}
	handler := NewPushHandler(analyzer)

	err := handler(&probot.Context{Payload: pushEvent("refs/heads/main", "main", "abc123")})
	assert.EqualError(t, err, "download failed")
}
