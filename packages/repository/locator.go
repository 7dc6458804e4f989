package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"git-analyse/types"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"
)

// ParseReference splits a URL-like repository identifier into owner and name,
// taken from its last two path segments. Browser URLs pointing at a branch
// (".../owner/name/tree/<branch>", ".../owner/name/-/tree/<branch>") also
// yield the branch.
func ParseReference(reference string) (types.RepositoryReference, error) {
	raw := strings.TrimSpace(reference)
	trimmed := strings.TrimSuffix(strings.TrimRight(raw, "/"), ".git")
	segments, branch := splitTreeMarker(strings.Split(trimmed, "/"))

	if len(segments) < 2 {
		return types.RepositoryReference{}, fmt.Errorf("%w: %q", types.ErrInvalidReference, reference)
	}
	owner := segments[len(segments)-2]
	name := segments[len(segments)-1]
	if owner == "" || name == "" {
		return types.RepositoryReference{}, fmt.Errorf("%w: %q", types.ErrInvalidReference, reference)
	}

	return types.RepositoryReference{
		Raw:            raw,
		Provider:       DetectProvider(raw),
		Owner:          owner,
		Name:           name,
		ExplicitBranch: branch,
	}, nil
}

// splitTreeMarker cuts a branch off a browser URL. The marker only counts
// right after the owner/name pair that follows the provider host:
// host/owner/name/tree/<branch> or host/owner/name/-/tree/<branch>. An owner
// or group that happens to be called "tree" is left alone.
func splitTreeMarker(segments []string) ([]string, string) {
	host := -1
	for i, seg := range segments {
		if DetectProvider(seg) != types.ProviderUnknown {
			host = i
			break
		}
	}
	if host < 0 {
		return segments, ""
	}

	marker := host + 3
	switch {
	case len(segments) > marker+1 && segments[marker] == "tree":
		return segments[:marker], strings.Join(segments[marker+1:], "/")
	case len(segments) > marker+2 && segments[marker] == "-" && segments[marker+1] == "tree":
		return segments[:marker], strings.Join(segments[marker+2:], "/")
	}
	return segments, ""
}

func DetectProvider(reference string) types.Provider {
	switch {
	case strings.Contains(reference, "github.com"):
		return types.ProviderGitHub
	case strings.Contains(reference, "gitlab.com"):
		return types.ProviderGitLab
	default:
		return types.ProviderUnknown
	}
}

// NewGitHubClient builds a go-github client against apiBaseURL. The token is
// optional; anonymous calls work for public repositories.
func NewGitHubClient(httpClient *http.Client, apiBaseURL, token string) (*github.Client, error) {
	httpClient = withErrorBodies(httpClient)
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
		authed.Timeout = httpClient.Timeout
		httpClient = authed
	}

	client := github.NewClient(httpClient)
	if apiBaseURL != "" {
		if !strings.HasSuffix(apiBaseURL, "/") {
			apiBaseURL += "/"
		}
		u, err := url.Parse(apiBaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse GitHub API URL: %w", err)
		}
		client.BaseURL = u
	}
	return client, nil
}

// Locator resolves repository references to a concrete branch.
type Locator struct {
	gh            *github.Client
	defaultBranch string
}

func NewLocator(gh *github.Client, defaultBranch string) *Locator {
	if defaultBranch == "" {
		defaultBranch = "main"
	}
	return &Locator{gh: gh, defaultBranch: defaultBranch}
}

// Resolve parses reference and settles its branch: explicitBranch if given,
// then a branch carried by the URL, then the provider's default branch.
func (l *Locator) Resolve(ctx context.Context, reference, explicitBranch string) (types.ResolvedTarget, error) {
	ref, err := ParseReference(reference)
	if err != nil {
		return types.ResolvedTarget{}, err
	}
	if explicitBranch != "" {
		ref.ExplicitBranch = explicitBranch
	}

	if ref.ExplicitBranch != "" {
		return types.ResolvedTarget{RepositoryReference: ref, Branch: ref.ExplicitBranch}, nil
	}

	branch, err := l.DefaultBranch(ctx, ref)
	if err != nil {
		return types.ResolvedTarget{}, err
	}

	slog.Info("Resolved default branch", "repo", ref.FullName(), "branch", branch)
	return types.ResolvedTarget{RepositoryReference: ref, Branch: branch}, nil
}

// DefaultBranch queries the provider's metadata API. Only GitHub exposes one
// here; other providers need an explicit branch.
func (l *Locator) DefaultBranch(ctx context.Context, ref types.RepositoryReference) (string, error) {
	if ref.Provider != types.ProviderGitHub {
		return "", fmt.Errorf("default branch lookup for %s: %w", ref.Raw, types.ErrUnsupportedProvider)
	}

	repo, resp, err := l.gh.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		if resp != nil && resp.Response != nil && resp.StatusCode >= http.StatusMultipleChoices {
			return "", &types.MetadataFetchFailedError{Status: resp.StatusCode, Body: errorBody(resp, err)}
		}
		return "", fmt.Errorf("failed to fetch repository information: %w", err)
	}

	if branch := repo.GetDefaultBranch(); branch != "" {
		return branch, nil
	}
	return l.defaultBranch, nil
}

// errorBody prefers the raw response body kept by errorBodyTransport and
// falls back to the message go-github parsed out of it.
func errorBody(resp *github.Response, err error) string {
	if resp != nil && resp.Response != nil {
		if body, ok := resp.Body.(*retainedBody); ok && len(body.data) > 0 {
			return string(body.data)
		}
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Message != "" {
		return ghErr.Message
	}
	return err.Error()
}

// withErrorBodies returns a copy of client whose transport keeps error
// response bodies readable after go-github has drained them.
func withErrorBodies(client *http.Client) *http.Client {
	wrapped := &http.Client{}
	if client != nil {
		*wrapped = *client
	}
	base := wrapped.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped.Transport = errorBodyTransport{base: base}
	return wrapped
}

type errorBodyTransport struct {
	base http.RoundTripper
}

func (t errorBodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	if readErr != nil {
		slog.Debug("Failed to read error response body", "url", req.URL.String(), "error", readErr)
	}
	resp.Body = &retainedBody{Reader: bytes.NewReader(data), data: data}
	return resp, nil
}

const maxErrorBody = 64 << 10

// retainedBody is a response body that can be read again through data.
type retainedBody struct {
	*bytes.Reader
	data []byte
}

func (*retainedBody) Close() error { return nil }
