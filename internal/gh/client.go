// Package gh implements the remote issue-tracker collaborator on the GitHub
// REST API, and owns the fixed outcome-message table for mutating calls.
package gh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gogithub "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
)

// CallTimeout bounds every outbound GitHub call. A timeout is reported to the
// user the same way as a non-2xx response.
const CallTimeout = 10 * time.Second

// Issue is the subset of issue metadata the bot presents in chat.
type Issue struct {
	Number        int
	Title         string
	State         string
	User          string
	Labels        []string
	Assignees     []string
	Body          string
	HTMLURL       string
	IsPullRequest bool
}

// Client is the GitHub collaborator. A zero token degrades the bot to bare
// URL expansion; constructing a Client requires a token.
type Client struct {
	gh *gogithub.Client
}

// NewClient builds a client with the transport stack:
//  1. httpcache (ETag conditional-request caching for issue lookups)
//  2. go-github-ratelimit (sleeps on secondary rate limits)
//  3. go-github with bearer token auth
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	return &Client{gh: gogithub.NewClient(rateLimitClient).WithAuthToken(token)}
}

// NewClientWithHTTPClient builds a Client against a custom base URL, for
// injecting an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gogithub.NewClient(httpClient)
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u
	return &Client{gh: client}, nil
}

// GetIssue fetches one issue (or pull request) by number.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	issue, _, err := c.gh.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("getting %s/%s#%d: %w", owner, repo, number, err)
	}
	return mapIssue(issue), nil
}

// CreateIssue opens a new issue.
func (c *Client) CreateIssue(ctx context.Context, owner, repo, title string, assignees []string, body string, labels []string) (*Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	req := &gogithub.IssueRequest{Title: gogithub.Ptr(title)}
	if body != "" {
		req.Body = gogithub.Ptr(body)
	}
	if len(assignees) > 0 {
		req.Assignees = &assignees
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}

	issue, _, err := c.gh.Issues.Create(ctx, owner, repo, req)
	if err != nil {
		return nil, fmt.Errorf("creating issue in %s/%s: %w", owner, repo, err)
	}
	return mapIssue(issue), nil
}

// SetIssueState closes or reopens an issue; state is "closed" or "open".
func (c *Client) SetIssueState(ctx context.Context, owner, repo string, number int, state string) (*Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	issue, _, err := c.gh.Issues.Edit(ctx, owner, repo, number,
		&gogithub.IssueRequest{State: gogithub.Ptr(state)})
	if err != nil {
		return nil, fmt.Errorf("setting %s/%s#%d to %s: %w", owner, repo, number, state, err)
	}
	return mapIssue(issue), nil
}

// AuthenticatedUser returns the login the token authenticates as.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	user, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("getting authenticated user: %w", err)
	}
	return user.GetLogin(), nil
}

// StatusCode extracts the HTTP status from a go-github error chain. Zero
// means the request never produced a response (timeout, transport failure);
// user-facing handling treats that like any other non-2xx outcome.
func StatusCode(err error) int {
	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	var rateErr *gogithub.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return rateErr.Response.StatusCode
	}
	return 0
}

func mapIssue(issue *gogithub.Issue) *Issue {
	out := &Issue{
		Number:        issue.GetNumber(),
		Title:         issue.GetTitle(),
		State:         issue.GetState(),
		User:          issue.GetUser().GetLogin(),
		Body:          issue.GetBody(),
		HTMLURL:       issue.GetHTMLURL(),
		IsPullRequest: issue.IsPullRequest(),
	}
	for _, l := range issue.Labels {
		out.Labels = append(out.Labels, l.GetName())
	}
	for _, a := range issue.Assignees {
		out.Assignees = append(out.Assignees, a.GetLogin())
	}
	return out
}
