package http

import (
	"net/http"

	"github.com/Raymond-engr/DRID-Research/pkg/httpx"
	"github.com/Raymond-engr/DRID-Research/pkg/jwtx"
	"github.com/Raymond-engr/DRID-Research/pkg/portalsdk"
)

// JWKSHandler publishes the access token verification keys so other
// services can check portal tokens without calling back.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify access tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	portalsdk.JWKSResponse
//	@Router			/.well-known/jwks.json [get]
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		set := keys.PublicJWKS()
		out := portalsdk.JWKSResponse{Keys: make([]portalsdk.JWK, 0, len(set.Keys))}
		for _, k := range set.Keys {
			out.Keys = append(out.Keys, portalsdk.JWK(k))
		}
		w.Header().Set("Cache-Control", "public, max-age=300")
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}
