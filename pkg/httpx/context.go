package httpx

import (
	"context"

	"github.com/Raymond-engr/DRID-Research/pkg/jwtx"
)

type ctxKey string

const ctxKeyClaims ctxKey = "claims"

func ContextWithClaims(ctx context.Context, c jwtx.Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, c)
}

// ClaimsFromContext returns the verified access token claims placed on the
// request by AuthnMiddleware.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(jwtx.Claims)
	return c, ok
}
