package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBytes caps how much of a response body the client buffers.
const maxResponseBytes = 1 << 20

// request describes one call to the service.
type request struct {
	method  string
	path    string
	body    any
	headers map[string]string
	want    int // expected status
}

// call sends req and decodes a response with the expected status into a new
// T. Any other status is returned as an *OAuth2Error.
func call[T any](ctx context.Context, c *SDKClient, req request) (*T, error) {
	raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	out := new(T)
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("authsdk: decode %s %s response: %w", req.method, req.path, err)
	}
	return out, nil
}

func (c *SDKClient) send(ctx context.Context, req request) ([]byte, error) {
	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("authsdk: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.BaseURL+req.path, body)
	if err != nil {
		return nil, fmt.Errorf("authsdk: build request: %w", err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("authsdk: %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("authsdk: read response: %w", err)
	}
	if resp.StatusCode != req.want {
		return nil, errorFromResponse(resp.StatusCode, raw)
	}
	return raw, nil
}
