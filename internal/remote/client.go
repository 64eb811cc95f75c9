// Package remote commits dataset snapshots to a hosted content store over
// its HTTP contents API, using revision ids for optimistic concurrency.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FileInfo describes one file on the remote store.
type FileInfo struct {
	Path    string
	SHA     string // opaque revision id used for conditional writes
	Content []byte // decoded content
}

// Client speaks the contents API of a repository-style blob store:
// GET /contents/{path} for revision lookup, PUT /contents/{path} for
// conditional writes.
type Client struct {
	baseURL string
	token   string
	branch  string
	http    *http.Client
}

// NewClient creates a content API client. baseURL is the API root of one
// repository (everything before /contents). httpClient may be nil for a
// default with a 30s timeout.
func NewClient(baseURL, token, branch string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		branch:  branch,
		http:    httpClient,
	}
}

type contentResponse struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"` // base64
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// GetFile fetches path from the remote store. Returns ErrNotFound when the
// path does not exist and ErrAuth when the credential is rejected.
func (c *Client) GetFile(ctx context.Context, path string) (*FileInfo, error) {
	u := c.contentsURL(path)
	if c.branch != "" {
		u += "?ref=" + url.QueryEscape(c.branch)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content API request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, path); err != nil {
		return nil, err
	}

	var body contentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse content response: %w", err)
	}

	content, err := decodeContent(body.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", path, err)
	}

	return &FileInfo{Path: path, SHA: body.SHA, Content: content}, nil
}

// PutFile writes content to path. sha must be the revision returned by a
// prior GetFile when the file already exists, and empty to create a new
// file. A stale sha yields ErrConflict. Returns the new revision id.
func (c *Client) PutFile(ctx context.Context, path, message string, content []byte, sha string) (string, error) {
	payload := putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  c.branch,
		SHA:     sha,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal put request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contentsURL(path), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("content API request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, path); err != nil {
		return "", err
	}

	var out putResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse put response: %w", err)
	}
	return out.Content.SHA, nil
}

func (c *Client) contentsURL(path string) string {
	return c.baseURL + "/contents/" + strings.TrimLeft(path, "/")
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
}

// checkStatus maps HTTP status codes onto the package's error taxonomy.
func (c *Client) checkStatus(resp *http.Response, path string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", path, ErrAuth)
	case resp.StatusCode == http.StatusConflict, resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w", path, ErrConflict)
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("content API returned %d for %s: %s", resp.StatusCode, path, strings.TrimSpace(string(msg)))
	}
}

// decodeContent handles the base64 payload of a GET response, which the API
// wraps with newlines.
func decodeContent(raw string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, raw)
	return base64.StdEncoding.DecodeString(cleaned)
}
