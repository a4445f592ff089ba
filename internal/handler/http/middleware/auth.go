package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/chatkit/push-dispatch-go/internal/handler/http/response"
	"github.com/chatkit/push-dispatch-go/internal/pkg/session"
)

// SessionRequired rejects requests without a valid session token minted by
// the pairing handshake.
func SessionRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, session.ErrInvalidSessionToken)
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.HandleError(w, session.ErrInvalidSessionToken)
				return
			}
			tokenType, ok := claims["type"].(string)
			if tokenType != "session" || !ok {
				response.HandleError(w, session.ErrInvalidSessionToken)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
