package repometa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var lastPagePattern = regexp.MustCompile(`page=(\d+)>; rel="last"`)

// HTTPError represents a non-200 API response.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: %s", e.URL, e.Status)
}

// IsNotFound returns true for 404 responses.
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// ClientOptions configures the GitHub API client.
type ClientOptions struct {
	BaseURL           string
	Token             string
	Timeout           time.Duration
	RepoDelay         time.Duration
	ContributorsDelay time.Duration
	HTTPClient        *http.Client
}

// Client fetches repository snapshots from the GitHub REST API. Requests
// are paced by two limiters, one per endpoint.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	userAgent    string
	repoPace     *rate.Limiter
	contribsPace *rate.Limiter
}

// NewClient creates a GitHub client.
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		token:        opts.Token,
		userAgent:    "jszoo-update",
		repoPace:     pacer(opts.RepoDelay),
		contribsPace: pacer(opts.ContributorsDelay),
	}
}

func pacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Repository returns the raw repository document of owner/repo.
func (c *Client) Repository(ctx context.Context, owner, repo string) (map[string]any, error) {
	if err := c.repoPace.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.get(ctx, c.repoURL(owner, repo))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", owner, repo, err)
	}
	return doc, nil
}

// Contributors counts the contributors of owner/repo, anonymous ones
// included. With one result per page the last page number is the count.
func (c *Client) Contributors(ctx context.Context, owner, repo string) (int64, error) {
	if err := c.contribsPace.Wait(ctx); err != nil {
		return 0, err
	}
	resp, err := c.get(ctx, c.repoURL(owner, repo)+"/contributors?per_page=1&anon=true")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if link := resp.Header.Get("Link"); strings.Contains(link, `rel="last"`) {
		m := lastPagePattern.FindStringSubmatch(link)
		if m == nil {
			return 0, nil
		}
		return strconv.ParseInt(m[1], 10, 64)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return 0, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err != nil {
		return 0, fmt.Errorf("decode contributors of %s/%s: %w", owner, repo, err)
	}
	return int64(len(list)), nil
}

func (c *Client) repoURL(owner, repo string) string {
	return fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}
