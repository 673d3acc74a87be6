package portalsdk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const (
	refreshPath    = "/auth/refresh-token"
	refreshTimeout = 15 * time.Second
)

// Refresh exchanges the refresh cookie for a new access token and saves it.
// It reports false on any failure. Concurrent callers share one request,
// which runs detached from ctx so one caller giving up does not fail the
// others or lose a rotated cookie.
func (c *Client) Refresh(ctx context.Context) bool {
	ch := c.refresh.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return c.refreshOnce(rctx), nil
	})
	select {
	case res := <-ch:
		return res.Val.(bool)
	case <-ctx.Done():
		return false
	}
}

func (c *Client) refreshOnce(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(refreshPath), nil)
	if err != nil {
		return false
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false
	}

	var out AccessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.AccessToken == "" {
		return false
	}
	return c.Tokens.Save(ctx, out.AccessToken) == nil
}
