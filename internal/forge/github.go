package forge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/docmirror/internal/foundation/errors"
)

// Options configure a GitHubClient for one repository.
type Options struct {
	Owner             string
	Repo              string
	APIURL            string // default https://api.github.com
	RawContentBaseURL string // default https://raw.githubusercontent.com
	Token             string
	HTTPClient        *http.Client
}

// GitHubClient reads one GitHub repository through the git trees API and raw content host.
type GitHubClient struct {
	*BaseClient
	owner  string
	repo   string
	apiURL string
	rawURL string
}

// NewGitHubClient creates a client bound to opts.Owner/opts.Repo.
func NewGitHubClient(opts Options) (*GitHubClient, error) {
	if opts.Owner == "" || opts.Repo == "" {
		return nil, errors.ConfigError("GitHub client requires owner and repo").Build()
	}
	c := &GitHubClient{
		BaseClient: NewBaseClient(opts.HTTPClient, opts.Token),
		owner:      opts.Owner,
		repo:       opts.Repo,
		apiURL:     opts.APIURL,
		rawURL:     opts.RawContentBaseURL,
	}
	if c.apiURL == "" {
		c.apiURL = "https://api.github.com"
	}
	if c.rawURL == "" {
		c.rawURL = "https://raw.githubusercontent.com"
	}
	c.SetCustomHeader("X-GitHub-Api-Version", "2022-11-28")
	return c, nil
}

// FullName returns "owner/repo".
func (c *GitHubClient) FullName() string { return c.owner + "/" + c.repo }

// TreeEntry is one node of a recursive git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // blob|tree|commit
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

type githubTree struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// ListTree returns every entry of the repository tree at ref.
func (c *GitHubClient) ListTree(ctx context.Context, ref string) ([]TreeEntry, bool, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/git/trees/%s?recursive=1", c.owner, c.repo, ref)
	req, err := c.NewRequest(ctx, c.apiURL, endpoint)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	var tree githubTree
	if err := c.DoJSON(req, &tree); err != nil {
		return nil, false, err
	}
	return tree.Tree, tree.Truncated, nil
}

// Validators carry the conditional request headers for a raw fetch.
type Validators struct {
	ETag         string
	LastModified time.Time
}

// RawResponse is the outcome of a raw content request that reached the server.
type RawResponse struct {
	NotModified  bool
	Body         []byte
	ContentType  string
	ETag         string
	LastModified time.Time
}

// RawURL returns the raw content URL of filePath at ref.
func (c *GitHubClient) RawURL(ref, filePath string) string {
	return strings.TrimSuffix(c.rawURL, "/") + "/" + c.owner + "/" + c.repo + "/" + ref + "/" + strings.TrimPrefix(filePath, "/")
}

// FetchRaw issues a (conditional) GET for filePath at ref. A 304 yields
// NotModified; 404 yields a not_found ClassifiedError.
func (c *GitHubClient) FetchRaw(ctx context.Context, ref, filePath string, v Validators) (*RawResponse, error) {
	endpoint := c.owner + "/" + c.repo + "/" + ref + "/" + strings.TrimPrefix(filePath, "/")
	req, err := c.NewRequest(ctx, c.rawURL, endpoint)
	if err != nil {
		return nil, err
	}
	if v.ETag != "" {
		req.Header.Set("If-None-Match", v.ETag)
	}
	if !v.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", v.LastModified.UTC().Format(http.TimeFormat))
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return &RawResponse{NotModified: true}, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := readAll(resp, maxBodyBytes)
		if err != nil {
			if errors.HasCategory(err, errors.CategoryForge) {
				return nil, err
			}
			return nil, errors.NetworkError("failed to read upstream body").
				WithCause(err).
				WithContext("url", req.URL.String()).
				Retryable().
				Build()
		}
		out := &RawResponse{
			Body:        body,
			ContentType: resp.Header.Get("Content-Type"),
			ETag:        resp.Header.Get("ETag"),
		}
		if lm := resp.Header.Get("Last-Modified"); lm != "" {
			if t, perr := http.ParseTime(lm); perr == nil {
				out.LastModified = t
			}
		}
		return out, nil
	default:
		return nil, StatusError(req, resp)
	}
}
