package portalsdk

import (
	"context"
	"net/http"
)

func (c *Client) health(ctx context.Context, path string) (HealthResponse, error) {
	var out HealthResponse
	body, err := c.public(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return out, err
	}
	err = decode(body, &out)
	return out, err
}

func (c *Client) Liveness(ctx context.Context) (HealthResponse, error) {
	return c.health(ctx, "/livez")
}

func (c *Client) Readiness(ctx context.Context) (HealthResponse, error) {
	return c.health(ctx, "/readyz")
}
