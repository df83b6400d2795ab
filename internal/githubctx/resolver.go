// Package githubctx fills in PR metadata the caller did not pass on the
// command line. The tracker usually runs inside a GitHub Actions job, where
// the repository, ref and actor are already in the environment and the rest
// can be fetched from the GitHub API.
package githubctx

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/go-github/v66/github"
)

// Context is the slice of the Actions runner environment this tool consumes
type Context struct {
	Repository string // "owner/repo"
	PRNumber   int
	Actor      string
	HeadRef    string
	Token      string
}

// FromEnv reads the GitHub Actions environment. Missing variables leave
// zero values; callers use whatever is present.
func FromEnv() *Context {
	return &Context{
		Repository: os.Getenv("GITHUB_REPOSITORY"),
		PRNumber:   prNumberFromRef(os.Getenv("GITHUB_REF")),
		Actor:      os.Getenv("GITHUB_ACTOR"),
		HeadRef:    os.Getenv("GITHUB_HEAD_REF"),
		Token:      os.Getenv("GITHUB_TOKEN"),
	}
}

// prNumberFromRef extracts N from "refs/pull/N/merge", returning 0 when
// the ref is not a pull request ref
func prNumberFromRef(ref string) int {
	parts := strings.Split(ref, "/")
	if len(parts) < 3 || parts[0] != "refs" || parts[1] != "pull" {
		return 0
	}
	number, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	return number
}

// PRInfo is the metadata a tracked pipeline displays
type PRInfo struct {
	Number int
	Title  string
	Author string
	Branch string
}

// newClient is a package-level variable so tests can inject a client
// pointed at a test server
var newClient = func(token string) *github.Client {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}

// ResolvePR fetches the pull request named by the context from the GitHub
// API. It needs Repository and a PR number; the token is optional for
// public repositories.
func (c *Context) ResolvePR(ctx context.Context) (*PRInfo, error) {
	if c.Repository == "" || c.PRNumber == 0 {
		return nil, fmt.Errorf("not running in a pull request context (GITHUB_REPOSITORY=%q, pr number %d)", c.Repository, c.PRNumber)
	}
	owner, repo, ok := strings.Cut(c.Repository, "/")
	if !ok {
		return nil, fmt.Errorf("malformed GITHUB_REPOSITORY %q", c.Repository)
	}

	pr, _, err := newClient(c.Token).PullRequests.Get(ctx, owner, repo, c.PRNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR #%d: %w", c.PRNumber, err)
	}

	return &PRInfo{
		Number: c.PRNumber,
		Title:  pr.GetTitle(),
		Author: pr.GetUser().GetLogin(),
		Branch: pr.GetHead().GetRef(),
	}, nil
}
