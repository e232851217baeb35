package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// githubAPIBase is the GitHub REST endpoint queried for repository
// metadata. Overridable in tests.
var githubAPIBase = "https://api.github.com"

// GitHubSource answers repository metadata queries via the GitHub API.
// It claims the github_repo, github_branch and github_visibility
// prefixes and is only constructed when networking is enabled.
//
// An API token is read from GITHUB_TOKEN in the environment snapshot;
// requests are anonymous without one.
type GitHubSource struct {
	client *http.Client
	env    Env
}

// NewGitHubSource builds a GitHub source with the given per-call
// timeout; zero selects DefaultHTTPTimeout.
func NewGitHubSource(env Env, timeout time.Duration) *GitHubSource {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &GitHubSource{client: &http.Client{Timeout: timeout}, env: env}
}

// CanCheck implements Source.
func (s *GitHubSource) CanCheck(sourceID string) bool {
	switch prefixOf(sourceID) {
	case "github_repo", "github_branch", "github_visibility":
		return true
	}
	return false
}

// Check implements Source.
func (s *GitHubSource) Check(ctx context.Context, sourceID, expected string) Result {
	prefix, repo, ok := splitSourceID(sourceID)
	if !ok {
		return unverifiable(expected, fmt.Sprintf("malformed source id: %s", sourceID))
	}

	data, err := s.repoMetadata(ctx, repo)
	if err != nil {
		return unverifiable(expected, fmt.Sprintf("github api failed: %v", err))
	}

	var actual string
	switch prefix {
	case "github_repo":
		actual, _ = data["full_name"].(string)
	case "github_branch":
		actual, _ = data["default_branch"].(string)
	case "github_visibility":
		if private, _ := data["private"].(bool); private {
			actual = "private"
		} else {
			actual = "public"
		}
	default:
		return unverifiable(expected, fmt.Sprintf("unknown source prefix: %s", prefix))
	}

	if actual == expected {
		return match(expected, actual, fmt.Sprintf("%s == %q", prefix, expected))
	}
	return contradiction(expected, actual, fmt.Sprintf("%s: expected %q, got %q", prefix, expected, actual))
}

func (s *GitHubSource) repoMetadata(ctx context.Context, repo string) (map[string]any, error) {
	url := fmt.Sprintf("%s/repos/%s", githubAPIBase, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if token, ok := s.env.Get("GITHUB_TOKEN"); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}
