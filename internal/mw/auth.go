package mw

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"photomart/internal/model"
)

type contextKey string

const PhotographerCtxKey contextKey = "photographer"

// PhotographerLookup resolves the tenant behind an identity-provider
// subject. *service.PhotographerService implements it.
type PhotographerLookup interface {
	ByAuthUserID(ctx context.Context, authUserID string) (*model.Photographer, error)
}

// Auth validates a provider-issued bearer token, resolves the photographer
// and gates on subscription state. Credentials themselves never touch this
// service; only token validation happens here.
func Auth(jwtSecret string, photographers PhotographerLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			subject, err := token.Claims.GetSubject()
			if err != nil || subject == "" {
				http.Error(w, "subject not found in token", http.StatusUnauthorized)
				return
			}

			photographer, err := photographers.ByAuthUserID(r.Context(), subject)
			if err != nil {
				http.Error(w, "photographer not found", http.StatusForbidden)
				return
			}

			if !photographer.SubscriptionActiveAt(time.Now()) {
				http.Error(w, "subscription inactive", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), PhotographerCtxKey, photographer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Photographer pulls the authenticated tenant from the request context.
func Photographer(ctx context.Context) (*model.Photographer, bool) {
	p, ok := ctx.Value(PhotographerCtxKey).(*model.Photographer)
	return p, ok
}
