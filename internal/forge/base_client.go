package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/docmirror/internal/foundation/errors"
)

// BaseClient provides the request plumbing shared by the tree API and raw content calls.
type BaseClient struct {
	httpClient *http.Client
	token      string

	authHeaderPrefix string
	customHeaders    map[string]string
}

// NewHTTPClient builds the upstream HTTP client with separate connect and whole-request timeouts.
func NewHTTPClient(connectTimeout, requestTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Transport: transport, Timeout: requestTimeout}
}

// NewBaseClient creates a BaseClient. A nil httpClient gets default timeouts.
func NewBaseClient(httpClient *http.Client, token string) *BaseClient {
	if httpClient == nil {
		httpClient = NewHTTPClient(5*time.Second, 15*time.Second)
	}
	return &BaseClient{
		httpClient:       httpClient,
		token:            token,
		authHeaderPrefix: "Bearer ",
		customHeaders:    make(map[string]string),
	}
}

// SetCustomHeader sets a header sent on every request.
func (b *BaseClient) SetCustomHeader(key, value string) {
	b.customHeaders[key] = value
}

// NewRequest creates a GET request for endpoint below baseURL.
// Query strings in endpoint are preserved.
func (b *BaseClient) NewRequest(ctx context.Context, baseURL, endpoint string) (*http.Request, error) {
	cleanEndpoint := strings.TrimPrefix(endpoint, "/")

	var rawQuery string
	if idx := strings.Index(cleanEndpoint, "?"); idx != -1 {
		rawQuery = cleanEndpoint[idx+1:]
		cleanEndpoint = cleanEndpoint[:idx]
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.ForgeError("failed to parse base URL").
			WithCause(err).
			WithContext("base_url", baseURL).
			Build()
	}

	basePath := strings.TrimSuffix(u.Path, "/")
	u.Path = path.Join(basePath, cleanEndpoint)
	if rawQuery != "" {
		u.RawQuery = rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, errors.ForgeError("failed to create request").
			WithCause(err).
			WithContext("url", u.String()).
			Build()
	}

	if b.token != "" {
		req.Header.Set("Authorization", b.authHeaderPrefix+b.token)
	}
	req.Header.Set("User-Agent", "docmirror/1.0")
	for key, value := range b.customHeaders {
		req.Header.Set(key, value)
	}
	return req, nil
}

// Do executes req. Transport failures become retryable network errors.
// The caller owns the response body.
func (b *BaseClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.NetworkError("failed to execute upstream request").
			WithCause(err).
			WithContext("url", req.URL.String()).
			Retryable().
			Build()
	}
	return resp, nil
}

// DoJSON executes req and decodes a JSON response into result.
func (b *BaseClient) DoJSON(req *http.Request, result any) error {
	resp, err := b.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return StatusError(req, resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return errors.ForgeError("failed to decode response").
				WithCause(err).
				WithContext("url", req.URL.String()).
				Build()
		}
	}
	return nil
}

// StatusError classifies an unsuccessful response. 5xx and 429 are retryable.
func StatusError(req *http.Request, resp *http.Response) error {
	limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")

	category := errors.CategoryNetwork
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		category = errors.CategoryAuth
	case http.StatusNotFound:
		category = errors.CategoryNotFound
	}

	b := errors.NewError(category, fmt.Sprintf("upstream error: %s", resp.Status)).
		WithContext("code", resp.StatusCode).
		WithContext("url", req.URL.String()).
		WithContext("response", bodyStr)
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		b = b.Retryable()
	}
	if category == errors.CategoryNotFound {
		b = b.Info()
	}
	return b.Build()
}
