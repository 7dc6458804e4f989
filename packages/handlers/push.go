package handlers

import (
	"context"
	"log/slog"
	"strings"

	"git-analyse/types"

	"github.com/google/go-github/github"
	"github.com/swinton/go-probot/probot"
)

const deletedRef = "0000000000000000000000000000000000000000"

// Analyzer runs one repository analysis. GitHub calls go through gh, the
// installation client probot hands to each event, so private repositories
// the app is installed on can be read.
type Analyzer interface {
	RunWithClient(ctx context.Context, gh *github.Client, reference, branch string) (*types.Report, error)
}

// NewPushHandler returns a push handler that analyses the repository whenever
// its default branch moves. Pushes to other branches are ignored.
func NewPushHandler(analyzer Analyzer) func(ctx *probot.Context) error {
	return func(ctx *probot.Context) error {
		ev, ok := ctx.Payload.(*github.PushEvent)
		if !ok {
			return nil
		}

		reference, branch, ok := pushTarget(ev)
		if !ok {
			return nil
		}

		repoName := ev.GetRepo().GetFullName()
		slog.Info("Push to default branch detected", "repo", repoName, "branch", branch, "after", ev.GetAfter())

		report, err := analyzer.RunWithClient(context.Background(), ctx.GitHub, reference, branch)
		if err != nil {
			slog.Error("Repository analysis failed", "repo", repoName, "error", err)
			return err
		}

		logReport(repoName, report)
		return nil
	}
}

// logReport writes one line per part plus a summary, the webhook
// counterpart of the CLI's rendered report.
func logReport(repoName string, report *types.Report) {
	for _, result := range report.Results {
		if result.Failed() {
			slog.Warn("Part failed", "runID", report.RunID, "part", result.ChunkIndex+1, "error", result.Err)
			continue
		}
		slog.Info("Part analysed", "runID", report.RunID, "part", result.ChunkIndex+1, "analysis", result.Text)
	}
	slog.Info("Repository analysis finished",
		"repo", repoName,
		"runID", report.RunID,
		"fileTypes", report.FileTypes,
		"parts", len(report.Results),
		"failed", report.Failed())
}

// pushTarget returns the repository URL and branch for a push to the default
// branch. Branch deletions and pushes to other refs report false.
func pushTarget(ev *github.PushEvent) (reference, branch string, ok bool) {
	repo := ev.GetRepo()
	if repo == nil || ev.GetAfter() == deletedRef {
		return "", "", false
	}

	branch, isBranch := strings.CutPrefix(ev.GetRef(), "refs/heads/")
	if !isBranch || branch == "" || branch != repo.GetDefaultBranch() {
		return "", "", false
	}
	return repo.GetHTMLURL(), branch, true
}
