package types

import "sort"

type Provider string

const (
	ProviderUnknown Provider = ""
	ProviderGitHub  Provider = "github"
	ProviderGitLab  Provider = "gitlab"
)

// RepositoryReference is a parsed repository identifier.
type RepositoryReference struct {
	Raw            string
	Provider       Provider
	Owner          string
	Name           string
	ExplicitBranch string
}

// ResolvedTarget is a reference whose branch is known.
type ResolvedTarget struct {
	RepositoryReference
	Branch string
}

// FullName returns "owner/name".
func (r RepositoryReference) FullName() string {
	return r.Owner + "/" + r.Name
}

type Corpus struct {
	Text      string
	FileTypes map[string]struct{}
}

// SortedFileTypes returns the file type inventory in lexical order.
func (c *Corpus) SortedFileTypes() []string {
	return SortedSet(c.FileTypes)
}

type Chunk struct {
	Index int
	Total int
	Text  string
}

// AnalysisResult is the outcome of one chunk: Text on success, Err on failure.
type AnalysisResult struct {
	ChunkIndex int
	Text       string
	Err        error
}

func (r AnalysisResult) Failed() bool {
	return r.Err != nil
}

type Report struct {
	RunID     string
	Target    ResolvedTarget
	FileTypes []string
	Results   []AnalysisResult
}

// Failed returns the number of chunks whose analysis failed.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Failed() {
			n++
		}
	}
	return n
}

func SortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
