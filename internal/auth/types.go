// Package auth implements SwiftBase's authentication and session core:
// password hashing, JWT issuance/verification, the refresh-token
// Session Store, and the user/admin Auth Service built on top of them.
package auth

import (
	"context"
	"time"
)

// User is the "user" principal kind.
type User struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"email_verified"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	LastLogin     *time.Time     `json:"last_login,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Admin is the "admin" principal kind. Admins are not users.
type Admin struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenPair is the access/refresh pair returned from register, login,
// and refresh.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int       `json:"expiresIn"`
	ExpiresAt    time.Time `json:"-"`
}

// RegisterInput is the payload accepted by Register.
type RegisterInput struct {
	Email    string
	Password string
	Metadata map[string]any
}

// LoginInput is the payload accepted by Login.
type LoginInput struct {
	Email    string
	Password string
}

// AdminLoginInput is the payload accepted by AdminLogin.
type AdminLoginInput struct {
	Username string
	Password string
}

type contextKey string

const (
	userContextKey   contextKey = "swiftbase_auth_user"
	claimsContextKey contextKey = "swiftbase_auth_claims"
)

// UserFromContext retrieves the authenticated principal id from ctx, if
// any request-auth middleware has populated it.
func UserFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userContextKey).(string)
	return id, ok
}

// ClaimsFromContext retrieves the decoded access token claims from ctx.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

func ContextWithUser(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, userContextKey, principalID)
}

func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func IsAuthenticated(ctx context.Context) bool {
	_, ok := ClaimsFromContext(ctx)
	return ok
}
