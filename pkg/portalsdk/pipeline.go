package portalsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// request is buffered so a retry sends identical bytes.
type request struct {
	method      string
	path        string
	body        []byte
	contentType string
}

func jsonRequest(method, path string, in any) (request, error) {
	r := request{method: method, path: path}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return request{}, fmt.Errorf("failed to encode request: %w", err)
		}
		r.body = b
		r.contentType = "application/json"
	}
	return r, nil
}

func (c *Client) send(ctx context.Context, r request, bearer string) (*http.Response, []byte, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.url(r.path), body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, networkError(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, networkError(err)
	}
	return resp, b, nil
}

// do runs r through the authenticated pipeline. A 401 triggers at most
// MaxRetryAttempts refreshes; if a refresh fails the stored token is
// cleared and the session is reported expired. A caller whose own ctx ends
// during the refresh gets a network error and the session is left alone.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		token, _, err := c.Tokens.Get(ctx)
		if err != nil {
			return nil, err
		}

		resp, body, err := c.send(ctx, r, token)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		if resp.StatusCode == http.StatusUnauthorized && r.path != refreshPath && attempt < MaxRetryAttempts {
			if c.Refresh(ctx) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, networkError(err)
			}
			if err := c.Tokens.Clear(context.WithoutCancel(ctx)); err != nil {
				return nil, errors.Join(sessionExpired(), fmt.Errorf("failed to clear token: %w", err))
			}
			c.expired()
			return nil, sessionExpired()
		}
		return nil, parseError(resp, body)
	}
}

// public sends r once without a bearer token.
func (c *Client) public(ctx context.Context, r request) ([]byte, error) {
	resp, body, err := c.send(ctx, r, "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(resp, body)
	}
	return body, nil
}

func decode(body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	r, err := jsonRequest(method, path, in)
	if err != nil {
		return err
	}
	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	return decode(body, out)
}
