package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/go-github/github"
	"github.com/swinton/go-probot/probot"
)

// NewInstallationHandler returns a handler for installation_repositories
// events. Every repository added to the installation gets an initial analysis
// of its default branch.
func NewInstallationHandler(analyzer Analyzer) func(ctx *probot.Context) error {
	return func(ctx *probot.Context) error {
		event, ok := ctx.Payload.(*github.InstallationRepositoriesEvent)
		if !ok {
			return nil
		}

		action := event.GetAction()
		slog.Info("Installation action", "action", action)

		switch action {
		case "added":
			handleRepositoriesAdded(analyzer, ctx.GitHub, event.RepositoriesAdded)
		case "removed":
			for _, repo := range event.RepositoriesRemoved {
				slog.Info("Repository removed", "fullName", repo.GetFullName())
			}
		}
		return nil
	}
}

// handleRepositoriesAdded analyses each repository in turn. A failure is
// logged and does not stop the remaining repositories.
func handleRepositoriesAdded(analyzer Analyzer, gh *github.Client, repos []*github.Repository) {
	for _, repo := range repos {
		fullName := repo.GetFullName()

		parts := strings.Split(fullName, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			slog.Error("Invalid repository full name", "fullName", fullName)
			continue
		}

		reference := repo.GetHTMLURL()
		if reference == "" {
			reference = "https://github.com/" + fullName
		}

		slog.Info("Analysing added repository", "fullName", fullName)
		report, err := analyzer.RunWithClient(context.Background(), gh, reference, "")
		if err != nil {
			slog.Error("Repository analysis failed", "repo", fullName, "error", err)
			continue
		}
		logReport(fullName, report)
	}
}
