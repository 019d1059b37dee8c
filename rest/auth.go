package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hpmalinova/monifly/model"
	"github.com/hpmalinova/monifly/session"
)

type ctxKey int

const userKey ctxKey = iota

// bearer returns the access token from the Authorization header or the
// token cookie.
func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if t, err := r.Cookie("token"); err == nil {
		return t.Value
	}
	return ""
}

func (a *App) JwtVerify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearer(r)
		if token == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing auth token")
			return
		}

		claims, err := a.Auth.Verify(token)
		if err != nil {
			if errors.Is(err, session.ErrSessionExpired) {
				respondWithError(w, http.StatusUnauthorized, "Session expired, please sign in again")
				return
			}
			respondWithError(w, http.StatusUnauthorized, "Invalid auth token")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PublicOnly refuses requests that already carry a valid session.
func (a *App) PublicOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.hasSession(r) {
			respondWithJSON(w, http.StatusConflict, map[string]string{
				"error":    "Already signed in",
				"redirect": session.Guard(session.ViewLogin, true),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *App) hasSession(r *http.Request) bool {
	token := bearer(r)
	if token == "" {
		return false
	}
	_, err := a.Auth.Verify(token)
	return err == nil
}

func claimsFrom(ctx context.Context) *model.UserToken {
	claims, _ := ctx.Value(userKey).(*model.UserToken)
	return claims
}

// userID of the verified caller. Only valid behind JwtVerify.
func userID(r *http.Request) string {
	if c := claimsFrom(r.Context()); c != nil {
		return c.UserID()
	}
	return ""
}
