// Package client downloads CSV exports from the export API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rrens/nlsql/internal/domain"
)

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("export API returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to one export server. Requests are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	query      url.Values
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends a bearer token with every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithQuery adds CSV options (bom, line_terminator, escaping) to export requests
func WithQuery(q url.Values) Option {
	return func(c *Client) { c.query = q }
}

// New creates a client for the server at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DownloadTable saves the export of table into dir and returns the file path
func (c *Client) DownloadTable(ctx context.Context, table, dir string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/export/table/"+url.PathEscape(table), nil)
	if err != nil {
		return "", err
	}
	return c.download(req, dir, table+".csv")
}

// DownloadResults posts a result set and saves the CSV into dir
func (c *Client) DownloadResults(ctx context.Context, results domain.ResultExportRequest, dir string) (string, error) {
	body, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/export/results", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.download(req, dir, "query_results.csv")
}

// ListTables returns the tables the server can export
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/tables", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var envelope struct {
		Data struct {
			Tables []string `json:"tables"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return envelope.Data.Tables, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(c.query) > 0 && strings.HasPrefix(path, "/api/v1/export/") {
		u += "?" + c.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) download(req *http.Request, dir, fallback string) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeAPIError(resp)
	}

	name := filenameFromDisposition(resp.Header.Get("Content-Disposition"), fallback)
	return saveFile(resp.Body, dir, name)
}

// saveFile writes r to dir/name through a temporary file that is removed
// unless the whole body arrived
func saveFile(r io.Reader, dir, name string) (path string, err error) {
	tmp, err := os.CreateTemp(dir, ".download-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		return "", fmt.Errorf("failed to read export: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	path = filepath.Join(dir, name)
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}
	return path, nil
}

func filenameFromDisposition(header, fallback string) string {
	if header == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return fallback
	}
	name := filepath.Base(params["filename"])
	if name == "." || name == "/" || name == "" || strings.HasPrefix(name, ".") {
		return fallback
	}
	return name
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&envelope); err != nil || len(envelope.Error) == 0 {
		return apiErr
	}

	var msg string
	if err := json.Unmarshal(envelope.Error, &msg); err == nil {
		apiErr.Message = msg
	} else {
		apiErr.Message = string(envelope.Error)
	}
	return apiErr
}
