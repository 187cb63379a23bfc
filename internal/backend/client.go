// Package backend is the HTTP client for the external trading backend.
//
// The backend owns all trading business logic: broker authentication, order
// placement, profit-and-loss aggregation, OTP delivery and the log-producing
// engine. The console only issues requests and renders whatever comes back.
package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trading_console/internal/apperrors"
)

const (
	// httpClientTimeout bounds every request to the backend.
	httpClientTimeout = 30 * time.Second
)

// Client provides methods for calling the trading backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new backend API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: httpClientTimeout,
		},
	}
}

// BaseURL returns the backend base URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// getJSON performs a GET request and decodes the JSON response into out.
func (c *Client) getJSON(path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, path, out)
}

// postJSON performs a POST request with a JSON body and decodes the JSON
// response into out. body may be nil for empty-body endpoints.
func (c *Client) postJSON(path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request for %s: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, out)
}

// do executes the request and decodes the response. Failures are classified
// per the console's error taxonomy: transport errors when the backend is
// unreachable, application errors when it answers with a non-2xx status or an
// undecodable body.
func (c *Client) do(req *http.Request, path string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Transport(fmt.Sprintf("backend unreachable: %s", path), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Transport(fmt.Sprintf("reading response from %s", path), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.Application(fmt.Sprintf("%s returned status %d: %s", path, resp.StatusCode, truncate(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Application(fmt.Sprintf("decoding response from %s: %v", path, err))
	}

	return nil
}

// truncate keeps error messages readable when the backend returns a large
// body.
func truncate(data []byte) string {
	const max = 200
	s := string(data)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
