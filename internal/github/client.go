// Package github is the thin client for the two repository operations the
// cleanup flow needs: closing a pull request and deleting a branch ref. Both
// are best-effort; failures are reported as Result values, never as errors,
// so callers log and continue without rolling back local state.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultAPIBaseURL = "https://api.github.com"

// Result is the outcome of one collaborator call. Skipped means the call was
// never attempted (no credential); OK covers the not-found-is-success case on
// branch deletion.
type Result struct {
	OK      bool
	Skipped bool
	Detail  string
}

// Client talks to the GitHub REST API for a single owner/repo pair.
type Client struct {
	owner   string
	repo    string
	token   string
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient creates a collaborator client. An empty token produces a client
// whose calls are all Skipped. Timeout bounds each request.
func NewClient(owner, repo, token string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		owner:   owner,
		repo:    repo,
		token:   token,
		baseURL: defaultAPIBaseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SetBaseURL overrides the API endpoint; tests point it at a local server.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// HasToken reports whether a credential is configured.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// PullRequestURL returns the browser URL for a PR, used in manual follow-up
// instructions when no credential is available.
func (c *Client) PullRequestURL(prNumber int) string {
	return fmt.Sprintf("https://github.com/%s/%s/pull/%d", c.owner, c.repo, prNumber)
}

// ClosePullRequest sets the pull request state to closed. Idempotent on the
// GitHub side; closing an already-closed PR succeeds.
func (c *Client) ClosePullRequest(ctx context.Context, prNumber int) Result {
	if !c.HasToken() {
		return Result{Skipped: true, Detail: "no GitHub token configured"}
	}

	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, c.owner, c.repo, prNumber)
	body, _ := json.Marshal(map[string]string{"state": "closed"})

	resp, err := c.do(ctx, http.MethodPatch, url, body)
	if err != nil {
		c.log.Warn("close PR request failed", zap.Int("pr", prNumber), zap.Error(err))
		return Result{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Result{OK: true}
	}
	detail := apiErrorDetail(resp)
	c.log.Warn("close PR rejected", zap.Int("pr", prNumber), zap.String("detail", detail))
	return Result{Detail: detail}
}

// DeleteBranch deletes a branch ref. A 422 response means the ref is already
// gone and is treated as success.
func (c *Client) DeleteBranch(ctx context.Context, branch string) Result {
	if !c.HasToken() {
		return Result{Skipped: true, Detail: "no GitHub token configured"}
	}

	url := fmt.Sprintf("%s/repos/%s/%s/git/refs/heads/%s", c.baseURL, c.owner, c.repo, branch)

	resp, err := c.do(ctx, http.MethodDelete, url, nil)
	if err != nil {
		c.log.Warn("delete branch request failed", zap.String("branch", branch), zap.Error(err))
		return Result{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if (resp.StatusCode >= 200 && resp.StatusCode < 300) || resp.StatusCode == http.StatusUnprocessableEntity {
		return Result{OK: true}
	}
	detail := apiErrorDetail(resp)
	c.log.Warn("delete branch rejected", zap.String("branch", branch), zap.String("detail", detail))
	return Result{Detail: detail}
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// apiErrorDetail pulls the message out of a GitHub error body, falling back
// to the HTTP status.
func apiErrorDetail(resp *http.Response) string {
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return resp.Status
}
