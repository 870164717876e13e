// Package imagecheck validates the image URLs referenced by a markdown
// document: each must resolve to a reachable resource with an image
// content-type, and must not live on a blacklisted host. Checks run in
// parallel and are independent; one slow or failing URL never cancels the
// rest.
package imagecheck

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds each individual HEAD check.
const DefaultTimeout = 3 * time.Second

// DefaultBlacklist lists hosts whose images are rejected outright, without
// issuing any request.
var DefaultBlacklist = []string{
	"spam.io",
	"malicious-host.com",
	"unsafe-cdn.net",
}

var imagePattern = regexp.MustCompile(`!\[.*?\]\((https?://[^)]+)\)`)

// ExtractImageURLs returns every markdown image URL in document order.
func ExtractImageURLs(markdown string) []string {
	var urls []string
	for _, m := range imagePattern.FindAllStringSubmatch(markdown, -1) {
		urls = append(urls, m[1])
	}
	return urls
}

// CheckResult is the outcome of validating one URL.
type CheckResult struct {
	URL         string
	Valid       bool
	ContentType string
	Detail      string
}

// Validator performs the reachability and content-type checks.
type Validator struct {
	client    *http.Client
	timeout   time.Duration
	blacklist []string
}

// NewValidator creates a validator with the given per-check timeout and host
// blacklist; zero/nil select the defaults.
func NewValidator(timeout time.Duration, blacklist []string) *Validator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if blacklist == nil {
		blacklist = DefaultBlacklist
	}
	return &Validator{
		client:    &http.Client{Timeout: timeout},
		timeout:   timeout,
		blacklist: blacklist,
	}
}

// ValidateAll checks every URL concurrently and returns results in input
// order. The returned error covers only internal failures; per-URL problems
// are reported in the results.
func (v *Validator) ValidateAll(ctx context.Context, urls []string) ([]CheckResult, error) {
	results := make([]CheckResult, len(urls))

	// Plain group, not WithContext: a failed check must not cancel its
	// siblings.
	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			results[i] = v.validate(ctx, u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (v *Validator) validate(ctx context.Context, rawURL string) CheckResult {
	if host := blacklistedHost(rawURL, v.blacklist); host != "" {
		return CheckResult{URL: rawURL, Detail: "Domain is blacklisted"}
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return CheckResult{URL: rawURL, Detail: err.Error()}
	}

	resp, err := v.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return CheckResult{URL: rawURL, Detail: fmt.Sprintf("Timeout after %s", v.timeout)}
		}
		return CheckResult{URL: rawURL, Detail: err.Error()}
	}
	defer resp.Body.Close()

	// Server errors are failures; client errors still expose a content-type
	// we can judge.
	if resp.StatusCode >= http.StatusInternalServerError {
		return CheckResult{URL: rawURL, Detail: fmt.Sprintf("Server error: %s", resp.Status)}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return CheckResult{
			URL:    rawURL,
			Detail: fmt.Sprintf("Invalid content type: %s (expected image/*)", contentType),
		}
	}

	return CheckResult{URL: rawURL, Valid: true, ContentType: contentType}
}

// blacklistedHost returns the matching blacklist entry, or "" when the URL's
// host is clean. Unparseable URLs pass the blacklist and fail at request
// time instead.
func blacklistedHost(rawURL string, blacklist []string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	for _, domain := range blacklist {
		if strings.Contains(u.Hostname(), domain) {
			return domain
		}
	}
	return ""
}
