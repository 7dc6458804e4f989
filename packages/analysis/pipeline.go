package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"git-analyse/packages/ai"
	"git-analyse/packages/config"
	"git-analyse/packages/repository"
	"git-analyse/types"

	"github.com/google/go-github/github"
	"github.com/google/uuid"
)

// Pipeline runs Locator -> Retriever -> Extractor -> Partitioner -> Driver ->
// Aggregator for one repository at a time. It holds no state between runs.
type Pipeline struct {
	locator       *repository.Locator
	retriever     *repository.Retriever
	extractor     *repository.Extractor
	driver        *Driver
	maxChars      int
	defaultBranch string
}

// NewPipeline wires the stages from cfg. A nil httpClient gets one with the
// configured timeout.
func NewPipeline(cfg *config.Config, completer ai.Completer, httpClient *http.Client) (*Pipeline, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTP.Timeout}
	}

	gh, err := repository.NewGitHubClient(httpClient, cfg.Providers.GitHub.APIBaseURL, cfg.Credentials.GitHubToken)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		locator: repository.NewLocator(gh, cfg.Repository.DefaultBranch),
		retriever: repository.NewRetriever(httpClient, repository.RetrieverConfig{
			GitHubBaseURL: cfg.Providers.GitHub.ArchiveBaseURL,
			GitLabBaseURL: cfg.Providers.GitLab.ArchiveBaseURL,
			UserAgent:     cfg.HTTP.UserAgent,
		}),
		extractor: repository.NewExtractor(cfg.Extract.Extensions, cfg.Extract.FileHeaders),
		driver: NewDriver(completer, DriverConfig{
			Concurrency:       cfg.Analysis.Concurrency,
			RequestsPerSecond: cfg.Analysis.RequestsPerSecond,
			FailFast:          cfg.Analysis.FailFast,
		}),
		maxChars:      cfg.Analysis.MaxChars,
		defaultBranch: cfg.Repository.DefaultBranch,
	}, nil
}

// RunWithClient is Run with GitHub metadata and archive links going through
// gh, typically the installation client of a GitHub App. A nil gh is Run.
func (p *Pipeline) RunWithClient(ctx context.Context, gh *github.Client, reference, branch string) (*types.Report, error) {
	if gh == nil {
		return p.Run(ctx, reference, branch)
	}
	scoped := *p
	scoped.locator = repository.NewLocator(gh, p.defaultBranch)
	scoped.retriever = p.retriever.WithGitHubClient(gh)
	return scoped.Run(ctx, reference, branch)
}

// Run analyses reference at branch ("" resolves the default branch). Any
// stage failure aborts the run; per-chunk failures end up in the report
// unless the driver runs fail-fast.
func (p *Pipeline) Run(ctx context.Context, reference, branch string) (*types.Report, error) {
	runID := uuid.NewString()
	logger := slog.With("runID", runID)
	logger.Info("Starting repository analysis", "reference", reference, "branch", branch)

	target, err := p.locator.Resolve(ctx, reference, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository: %w", err)
	}

	archive, err := p.retriever.Fetch(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository archive: %w", err)
	}

	corpus, err := p.extractor.Extract(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to extract repository archive: %w", err)
	}

	chunks, err := repository.Partition(corpus.Text, p.maxChars)
	if err != nil {
		return nil, fmt.Errorf("failed to partition corpus: %w", err)
	}
	logger.Info("Corpus partitioned", "chunks", len(chunks), "maxChars", p.maxChars)

	results, err := p.driver.Analyze(ctx, target, corpus.SortedFileTypes(), chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze repository: %w", err)
	}

	report := Aggregate(runID, target, corpus.FileTypes, results)
	logger.Info("Repository analysis completed",
		"repo", target.FullName(),
		"branch", target.Branch,
		"parts", len(report.Results),
		"failed", report.Failed())
	return report, nil
}
