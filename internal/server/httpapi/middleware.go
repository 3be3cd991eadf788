package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type contextKey string

const userContextKey contextKey = "current_user"

// currentUser returns the account the auth middleware attached to ctx.
func currentUser(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userContextKey).(*models.User)
	return u, ok
}

// authMiddleware accepts an access token from the Authorization header
// (Bearer scheme) or the accessToken cookie, verifies it statelessly, then
// confirms the subject still exists before attaching it to the context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(accessTokenCookie); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			s.writeError(r.Context(), w, common.ErrUnauthorized)
			return
		}

		claims, err := auth.GetClaimsFromToken(token, auth.AccessToken, s.jwtSecret)
		if err != nil {
			s.writeError(r.Context(), w, common.ErrInvalidToken)
			return
		}

		user, err := s.accounts.GetByID(r.Context(), claims.UserID)
		if err != nil {
			s.writeError(r.Context(), w, common.ErrUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	token := strings.TrimPrefix(h, "Bearer ")
	if token == h {
		return ""
	}
	return token
}
