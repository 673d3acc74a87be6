package portalsdk

import (
	"context"
	"net/http"
)

// JWKS fetches the keys that verify portal access tokens.
func (c *Client) JWKS(ctx context.Context) (JWKSResponse, error) {
	var out JWKSResponse
	body, err := c.public(ctx, request{method: http.MethodGet, path: "/.well-known/jwks.json"})
	if err != nil {
		return out, err
	}
	err = decode(body, &out)
	return out, err
}
