package repository

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"git-analyse/types"

	"github.com/google/go-github/github"
)

const (
	defaultGitHubArchiveBase = "https://github.com"
	defaultGitLabArchiveBase = "https://gitlab.com"
)

// RetrieverConfig holds the archive hosts and transport settings.
type RetrieverConfig struct {
	GitHubBaseURL string
	GitLabBaseURL string
	UserAgent     string
}

// Retriever downloads repository snapshots as ZIP archives.
type Retriever struct {
	client *http.Client
	config RetrieverConfig
	gh     *github.Client
}

func NewRetriever(client *http.Client, config RetrieverConfig) *Retriever {
	if client == nil {
		client = http.DefaultClient
	}
	if config.GitHubBaseURL == "" {
		config.GitHubBaseURL = defaultGitHubArchiveBase
	}
	if config.GitLabBaseURL == "" {
		config.GitLabBaseURL = defaultGitLabArchiveBase
	}
	config.GitHubBaseURL = strings.TrimRight(config.GitHubBaseURL, "/")
	config.GitLabBaseURL = strings.TrimRight(config.GitLabBaseURL, "/")
	return &Retriever{client: client, config: config}
}

// WithGitHubClient returns a retriever that asks gh for GitHub archive links
// instead of building public download URLs. The links GitHub hands out carry
// a short-lived token, so private repositories visible to gh can be fetched.
func (r *Retriever) WithGitHubClient(gh *github.Client) *Retriever {
	clone := *r
	clone.gh = gh
	return &clone
}

// ArchiveURL follows each provider's download convention:
//
//	github: {base}/{owner}/{name}/archive/{branch}.zip
//	gitlab: {base}/{owner}/{name}/-/archive/{branch}/{name}-{branch}.zip
func (r *Retriever) ArchiveURL(target types.ResolvedTarget) (string, error) {
	switch target.Provider {
	case types.ProviderGitHub:
		return fmt.Sprintf("%s/%s/%s/archive/%s.zip",
			r.config.GitHubBaseURL, target.Owner, target.Name, target.Branch), nil
	case types.ProviderGitLab:
		return fmt.Sprintf("%s/%s/%s/-/archive/%s/%s-%s.zip",
			r.config.GitLabBaseURL, target.Owner, target.Name, target.Branch, target.Name, target.Branch), nil
	default:
		return "", fmt.Errorf("%w: %s (must be GitHub or GitLab)", types.ErrUnsupportedProvider, target.Raw)
	}
}

// Fetch downloads the archive bytes. There is no retry.
func (r *Retriever) Fetch(ctx context.Context, target types.ResolvedTarget) ([]byte, error) {
	archiveURL, err := r.downloadURL(ctx, target)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive request: %w", err)
	}
	if r.config.UserAgent != "" {
		req.Header.Set("User-Agent", r.config.UserAgent)
	}

	slog.Info("Downloading archive", "url", archiveURL)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.DownloadFailedError{Status: resp.StatusCode, URL: archiveURL}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive body: %w", err)
	}

	slog.Info("Successfully downloaded archive", "url", archiveURL, "bytes", len(data))
	return data, nil
}

func (r *Retriever) downloadURL(ctx context.Context, target types.ResolvedTarget) (string, error) {
	if r.gh == nil || target.Provider != types.ProviderGitHub {
		return r.ArchiveURL(target)
	}

	link, resp, err := r.gh.Repositories.GetArchiveLink(ctx, target.Owner, target.Name, github.Zipball,
		&github.RepositoryContentGetOptions{Ref: target.Branch})
	if err != nil {
		if resp != nil && resp.Response != nil {
			return "", &types.DownloadFailedError{
				Status: resp.StatusCode,
				URL:    fmt.Sprintf("repos/%s/%s/zipball/%s", target.Owner, target.Name, target.Branch),
			}
		}
		return "", fmt.Errorf("failed to resolve archive link: %w", err)
	}
	return link.String(), nil
}
