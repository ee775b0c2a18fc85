// Package ghcontext fetches GitHub issue and pull request context for
// a prompt's frontmatter context.github_issues / context.github_prs
// references, rendering each into a text block suitable for inclusion
// ahead of a generation request's user prompt.
package ghcontext

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-github/v77/github"
)

// Client fetches and renders GitHub issue/PR context. It implements
// the generator.ContextFetcher interface without importing
// internal/generator, avoiding an import cycle.
type Client struct {
	gh *github.Client
}

// NewClient returns a Client authenticated with token. An empty token
// falls back to unauthenticated (rate-limited) requests.
func NewClient(token string) *Client {
	gh := github.NewClient(nil)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	return &Client{gh: gh}
}

// ref is a parsed "owner/repo#number" reference.
type ref struct {
	owner, repo string
	number      int
}

// parseRef parses "owner/repo#number" references.
func parseRef(s string) (ref, error) {
	slash := strings.Index(s, "/")
	hash := strings.LastIndex(s, "#")
	if slash < 0 || hash < 0 || hash < slash {
		return ref{}, fmt.Errorf("invalid GitHub reference %q: expected owner/repo#number", s)
	}
	owner := s[:slash]
	repo := s[slash+1 : hash]
	number, err := strconv.Atoi(s[hash+1:])
	if err != nil {
		return ref{}, fmt.Errorf("invalid GitHub reference %q: %w", s, err)
	}
	return ref{owner: owner, repo: repo, number: number}, nil
}

// FetchIssue fetches the issue named by ref ("owner/repo#number") and
// renders its title, body, and comments as a text block.
func (c *Client) FetchIssue(ctx context.Context, r string) (string, error) {
	parsed, err := parseRef(r)
	if err != nil {
		return "", err
	}

	issue, _, err := c.gh.Issues.Get(ctx, parsed.owner, parsed.repo, parsed.number)
	if err != nil {
		return "", handleAPIError(err, fmt.Sprintf("failed to fetch issue %s", r))
	}

	comments, err := c.listIssueComments(ctx, parsed)
	if err != nil {
		return "", err
	}

	return renderIssue(r, issue, comments), nil
}

// FetchPR fetches the pull request named by ref ("owner/repo#number")
// and renders its title, description, and comments as a text block.
func (c *Client) FetchPR(ctx context.Context, r string) (string, error) {
	parsed, err := parseRef(r)
	if err != nil {
		return "", err
	}

	pr, _, err := c.gh.PullRequests.Get(ctx, parsed.owner, parsed.repo, parsed.number)
	if err != nil {
		return "", handleAPIError(err, fmt.Sprintf("failed to fetch pull request %s", r))
	}

	comments, err := c.listIssueComments(ctx, parsed)
	if err != nil {
		return "", err
	}

	return renderPR(r, pr, comments), nil
}

func (c *Client) listIssueComments(ctx context.Context, r ref) ([]*github.IssueComment, error) {
	var all []*github.IssueComment
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, r.owner, r.repo, r.number, opts)
		if err != nil {
			return nil, handleAPIError(err, "failed to list comments")
		}
		all = append(all, comments...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func renderIssue(ref string, issue *github.Issue, comments []*github.IssueComment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Issue %s: %s\nState: %s\n\n%s\n", ref, issue.GetTitle(), issue.GetState(), issue.GetBody())
	for _, c := range comments {
		fmt.Fprintf(&sb, "\n--- comment by %s ---\n%s\n", authorLogin(c.GetUser()), c.GetBody())
	}
	return sb.String()
}

func renderPR(ref string, pr *github.PullRequest, comments []*github.IssueComment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Pull request %s: %s\nState: %s (merged=%v)\n\n%s\n",
		ref, pr.GetTitle(), pr.GetState(), pr.GetMerged(), pr.GetBody())
	for _, c := range comments {
		fmt.Fprintf(&sb, "\n--- comment by %s ---\n%s\n", authorLogin(c.GetUser()), c.GetBody())
	}
	return sb.String()
}

func authorLogin(u *github.User) string {
	if u == nil {
		return "unknown"
	}
	return u.GetLogin()
}

// handleAPIError wraps API errors with context, calling out rate
// limiting specifically since it is the most common recoverable case.
func handleAPIError(err error, msg string) error {
	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%s: hit GitHub rate limit (used %d of %d, resets at %v): %w",
			msg, rateLimitErr.Rate.Used, rateLimitErr.Rate.Limit, rateLimitErr.Rate.Reset.Time, err)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%s: hit GitHub secondary rate limit (retry after %v): %w",
			msg, abuseErr.GetRetryAfter(), err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
