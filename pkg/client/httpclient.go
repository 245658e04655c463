package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client
	// Authorization is sent verbatim as the Authorization header when set.
	Authorization string
}

func NewHttpClient(baseURL string) *HttpClient {
	return &HttpClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithBearer returns a copy of the client that authenticates with token.
func (c *HttpClient) WithBearer(token string) *HttpClient {
	clone := *c
	clone.Authorization = "Bearer " + token
	return &clone
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (r *Response) ToString() string {
	return fmt.Sprintf("status=%d body=%s", r.StatusCode, string(r.Body))
}

func (c *HttpClient) GET(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodGet, path, nil, nil)
}

func (c *HttpClient) POST(ctx context.Context, path string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPost, path, body, nil)
}

func (c *HttpClient) PATCH(ctx context.Context, path string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPatch, path, body, nil)
}

func (c *HttpClient) DELETE(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HttpClient) POSTWithHeaders(ctx context.Context, path string, body any, headers map[string]string) (*Response, error) {
	return c.request(ctx, http.MethodPost, path, body, headers)
}

func (c *HttpClient) POSTRaw(ctx context.Context, path string, rawBody []byte) (*Response, error) {
	var reqBody io.Reader
	if rawBody != nil {
		reqBody = bytes.NewReader(rawBody)
	}
	return c.do(ctx, http.MethodPost, path, reqBody, rawBody != nil, nil)
}

func (c *HttpClient) request(ctx context.Context, method, path string, body any, headers map[string]string) (*Response, error) {
	var reqBody io.Reader

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	return c.do(ctx, method, path, reqBody, body != nil, headers)
}

func (c *HttpClient) do(ctx context.Context, method, path string, reqBody io.Reader, hasBody bool, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Authorization != "" {
		req.Header.Set("Authorization", c.Authorization)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Response: resp,
		Body:     respBody,
	}, nil
}

func (c *HttpClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		resp, err := c.GET(ctx, "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service did not become healthy within %v", maxWait)
		case <-ticker.C:
		}
	}
}

// GetErrorMessage extracts a human readable message from either error body
// shape the service emits.
func GetErrorMessage(resp *Response) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := resp.DecodeJSON(&errResp); err != nil {
		return fmt.Sprintf("failed to unmarshal error: %v", err)
	}

	if errResp.Message != "" {
		return errResp.Message
	}
	if errResp.Error != "" {
		return errResp.Error
	}
	return errResp.Code
}

// GetErrorCode returns the machine readable code from an error body.
func GetErrorCode(resp *Response) string {
	var errResp struct {
		Code string `json:"code"`
	}
	_ = resp.DecodeJSON(&errResp)
	return errResp.Code
}
