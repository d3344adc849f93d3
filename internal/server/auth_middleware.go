package server

import (
	"net/http"
	"strings"

	"github.com/swiftbase/swiftbase/internal/apperr"
	"github.com/swiftbase/swiftbase/internal/auth"
	"github.com/swiftbase/swiftbase/internal/server/response"
)

// RequireAuth is the route-level auth stage: it extracts and validates
// a bearer token, rejecting the request with UNAUTHORIZED if absent,
// malformed, or invalid, and attaching the validated claims to the
// request context for handlers that need the principal id.
func RequireAuth(svc *auth.Service, kind auth.PrincipalKind) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				response.WriteError(w, r, apperr.AuthFailure(err.Error()))
				return
			}

			claims, err := svc.ValidateToken(r.Context(), token, kind)
			if err != nil {
				response.WriteError(w, r, apperr.AuthFailure("invalid or expired token"))
				return
			}

			ctx := auth.ContextWithClaims(r.Context(), claims)
			ctx = auth.ContextWithUser(ctx, claims.PrincipalID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyPrincipal is the route-level auth stage for endpoints the
// spec marks "U": a valid user OR admin access token is accepted.
func RequireAnyPrincipal(svc *auth.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				response.WriteError(w, r, apperr.AuthFailure(err.Error()))
				return
			}

			claims, err := svc.ValidateToken(r.Context(), token, auth.PrincipalUser)
			if err != nil {
				claims, err = svc.ValidateToken(r.Context(), token, auth.PrincipalAdmin)
			}
			if err != nil {
				response.WriteError(w, r, apperr.AuthFailure("invalid or expired token"))
				return
			}

			ctx := auth.ContextWithClaims(r.Context(), claims)
			ctx = auth.ContextWithUser(ctx, claims.PrincipalID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingAuth
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errMalformedAuth
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errMalformedAuth
	}
	return token, nil
}

var (
	errMissingAuth   = authHeaderError("authentication required")
	errMalformedAuth = authHeaderError("malformed authorization header")
)

type authHeaderError string

func (e authHeaderError) Error() string { return string(e) }
