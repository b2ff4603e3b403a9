// Package alist is a stateless client for the alist file-server HTTP
// API: login, directory listing, idempotent mkdir, raw-URL resolution,
// and byte upload/download. Response bodies are decoded against typed
// structs; no field is ever scraped out of raw JSON text.
package alist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// TransientError wraps an error that is likely temporary and safe to retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or any error in its chain) is a
// TransientError, meaning the caller may retry after a delay.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// APIError is a non-success code carried in an alist response body.
// alist frequently answers HTTP 200 with a non-200 code field, so the
// body code is authoritative.
type APIError struct {
	Endpoint string
	Code     int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("alist %s (code %d): %s", e.Endpoint, e.Code, e.Message)
}

// IsAuth reports whether err is an alist authorization failure.
func IsAuth(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	return apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden
}

// ErrNotFound means the requested path has no object behind it.
var ErrNotFound = errors.New("object not found")

const (
	// maxRedirects is the maximum number of HTTP redirects to follow
	// before giving up, matching the default net/http limit.
	maxRedirects = 10

	// httpClientTimeout is the timeout for the default HTTP client used
	// when no custom client is provided. Uploads of large clipboard
	// images need headroom beyond a typical API call.
	httpClientTimeout = 2 * time.Minute

	// maxAPIResponseBytes caps API response body reads. alist API
	// responses are small JSON payloads.
	maxAPIResponseBytes = 4 * 1024 * 1024

	// maxDownloadBytes caps raw file downloads so a misbehaving server
	// cannot consume unbounded memory.
	maxDownloadBytes = 256 * 1024 * 1024
)

// Client talks to the alist REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string

	// downloadClient fetches raw download URLs. It carries no
	// Authorization header, so cross-host redirects are allowed; storage
	// backends routinely hand out links that bounce to another host.
	downloadClient *http.Client
}

// sameHostRedirectPolicy follows redirects only when the target host
// matches the original request host, so the Authorization header cannot
// leak to third-party domains.
func sameHostRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("stopped after 10 redirects")
	}

	if len(via) > 0 {
		origHost := via[0].URL.Host
		if req.URL.Host != origHost {
			return fmt.Errorf("redirect to different host blocked: %s -> %s", origHost, req.URL.Host)
		}
	}

	return nil
}

// NewClient creates an API client for the alist server at baseURL.
// If httpClient is nil, a client with a default timeout and same-host
// redirect policy is created.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:       httpClientTimeout,
			CheckRedirect: sameHostRedirectPolicy,
		}
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		downloadClient: &http.Client{Timeout: httpClientTimeout},
	}
}

// sanitizeResponseBody truncates and sanitizes a response body for
// inclusion in error messages. Limits to 256 bytes and replaces
// non-printable characters to prevent log injection.
func sanitizeResponseBody(body []byte) string {
	const maxLen = 256
	if len(body) > maxLen {
		body = body[:maxLen]
	}

	var clean []byte

	for len(body) > 0 {
		r, size := utf8.DecodeRune(body)
		if r == utf8.RuneError && size <= 1 {
			clean = append(clean, '?')
			body = body[1:]

			continue
		}

		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			clean = append(clean, '?')
		} else {
			clean = append(clean, body[:size]...)
		}

		body = body[size:]
	}

	return string(clean)
}

// post sends a JSON POST request and decodes the response into result.
// The body envelope's code field is checked; a non-200 code becomes a
// typed error even when the HTTP status is 200.
func (c *Client) post(ctx context.Context, endpoint, token string, body, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors (timeouts, connection refused, DNS failures)
		// are transient by nature.
		return &TransientError{Err: fmt.Errorf("sending request to %s: %w", endpoint, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return &TransientError{Err: fmt.Errorf("reading response from %s: %w", endpoint, err)}
	}

	if resp.StatusCode != http.StatusOK {
		// A non-success HTTP status from the store counts as retryable.
		return &TransientError{
			Err: fmt.Errorf("alist %s returned status %d: %s", endpoint, resp.StatusCode, sanitizeResponseBody(respBody)),
		}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}

	if env.Code != http.StatusOK {
		return c.apiError(endpoint, env.Code, env.Message)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response from %s: %w", endpoint, err)
		}
	}

	return nil
}

// apiError maps an in-body code to a typed error. Server-side 5xx codes
// are additionally marked transient.
func (c *Client) apiError(endpoint string, code int, message string) error {
	apiErr := &APIError{Endpoint: endpoint, Code: code, Message: message}

	switch {
	case code == http.StatusNotFound || isNotFoundMessage(message):
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Error())
	case code >= 500:
		return &TransientError{Err: apiErr}
	default:
		return apiErr
	}
}

// isNotFoundMessage matches alist's habit of reporting missing objects
// with code 500 and a descriptive message.
func isNotFoundMessage(msg string) bool {
	lower := strings.ToLower(msg)

	return strings.Contains(lower, "not found") ||
		strings.Contains(lower, "object not exist") ||
		strings.Contains(lower, "failed get dir")
}

// Login authenticates with username and password, returning a token.
// Login failures are terminal; the caller must not retry them.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	req := LoginRequest{
		Username: username,
		Password: password,
	}

	var resp LoginResponse
	if err := c.post(ctx, "/api/auth/login", "", req, &resp); err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}

	if resp.Data.Token == "" {
		return "", fmt.Errorf("logging in: server returned no token")
	}

	return resp.Data.Token, nil
}

// List returns the entries of a remote directory. The request always
// sets refresh so the server re-reads its backing storage: a cached
// listing defeats newest-wins selection. Entry names are normalized to
// NFC so name comparisons behave across storage backends.
func (c *Client) List(ctx context.Context, token, dirPath string) ([]Entry, error) {
	req := ListRequest{
		Path:    dirPath,
		Page:    1,
		PerPage: 0,
		Refresh: true,
	}

	var resp ListResponse
	if err := c.post(ctx, "/api/fs/list", token, req, &resp); err != nil {
		return nil, fmt.Errorf("listing %s: %w", dirPath, err)
	}

	entries := resp.Data.Content
	for i := range entries {
		entries[i].Name = norm.NFC.String(entries[i].Name)
	}

	return entries, nil
}

// Mkdir creates a remote directory. A server complaint that the path
// already exists is success: the operation is idempotent by contract.
func (c *Client) Mkdir(ctx context.Context, token, path string) error {
	req := MkdirRequest{Path: path}

	err := c.post(ctx, "/api/fs/mkdir", token, req, nil)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && isExistsMessage(apiErr.Message) {
		return nil
	}

	return fmt.Errorf("creating directory %s: %w", path, err)
}

// isExistsMessage matches the server messages alist uses when a mkdir
// target is already present.
func isExistsMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "exist")
}

// Get resolves a file path to its raw download URL.
func (c *Client) Get(ctx context.Context, token, filePath string) (string, error) {
	req := GetRequest{Path: filePath}

	var resp GetResponse
	if err := c.post(ctx, "/api/fs/get", token, req, &resp); err != nil {
		return "", fmt.Errorf("resolving %s: %w", filePath, err)
	}

	if resp.Data.RawURL == "" {
		return "", fmt.Errorf("resolving %s: %w", filePath, ErrNotFound)
	}

	return resp.Data.RawURL, nil
}

// Put uploads data to the given remote path in a single PUT. As-Task
// asks the server to finish placement in the background; the client
// sets the hint but does not interpret it further.
func (c *Client) Put(ctx context.Context, token, filePath string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/fs/put", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}

	req.Header.Set("Authorization", token)
	req.Header.Set("File-Path", url.PathEscape(filePath))
	req.Header.Set("As-Task", "true")
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransientError{Err: fmt.Errorf("uploading %s: %w", filePath, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return &TransientError{Err: fmt.Errorf("reading upload response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &TransientError{
			Err: fmt.Errorf("upload of %s returned status %d: %s", filePath, resp.StatusCode, sanitizeResponseBody(respBody)),
		}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("decoding upload response: %w", err)
	}

	if env.Code != http.StatusOK {
		return fmt.Errorf("uploading %s: %w", filePath, c.apiError("/api/fs/put", env.Code, env.Message))
	}

	return nil
}

// Download fetches raw bytes from a resolved download URL. The URL may
// point at a different host than the API (storage backends hand out
// their own links), so it is fetched unauthenticated with a client that
// follows redirects across hosts.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("downloading: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransientError{Err: fmt.Errorf("download returned status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("reading download body: %w", err)}
	}

	return data, nil
}
