package ghcontext

import (
	"strings"
	"testing"

	"github.com/google/go-github/v77/github"
)

func TestParseRefValid(t *testing.T) {
	r, err := parseRef("octocat/hello-world#42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.owner != "octocat" || r.repo != "hello-world" || r.number != 42 {
		t.Errorf("unexpected parse: %+v", r)
	}
}

func TestParseRefInvalid(t *testing.T) {
	cases := []string{"no-slash-or-hash", "owner/repo-no-hash", "owner#42-no-slash", "owner/repo#notanumber"}
	for _, c := range cases {
		if _, err := parseRef(c); err == nil {
			t.Errorf("expected an error parsing %q", c)
		}
	}
}

func TestRenderIssueIncludesTitleBodyAndComments(t *testing.T) {
	issue := &github.Issue{
		Title: github.Ptr("Crash on startup"),
		Body:  github.Ptr("Repro steps here."),
		State: github.Ptr("open"),
	}
	comments := []*github.IssueComment{
		{Body: github.Ptr("I can reproduce this."), User: &github.User{Login: github.Ptr("alice")}},
	}

	out := renderIssue("octocat/hello-world#1", issue, comments)
	for _, want := range []string{"Crash on startup", "Repro steps here.", "open", "I can reproduce this.", "alice"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected rendered issue to contain %q, got %q", want, out)
		}
	}
}

func TestRenderPRIncludesMergeState(t *testing.T) {
	pr := &github.PullRequest{
		Title:  github.Ptr("Add retry logic"),
		Body:   github.Ptr("Wraps provider calls with backoff."),
		State:  github.Ptr("closed"),
		Merged: github.Ptr(true),
	}

	out := renderPR("octocat/hello-world#7", pr, nil)
	for _, want := range []string{"Add retry logic", "Wraps provider calls with backoff.", "merged=true"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected rendered PR to contain %q, got %q", want, out)
		}
	}
}

func TestAuthorLoginHandlesNilUser(t *testing.T) {
	if got := authorLogin(nil); got != "unknown" {
		t.Errorf("expected 'unknown' for a nil user, got %q", got)
	}
}
