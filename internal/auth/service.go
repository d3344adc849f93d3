package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swiftbase/swiftbase/internal/apperr"
	"github.com/swiftbase/swiftbase/internal/config"
	"github.com/swiftbase/swiftbase/internal/database"
)

// Service implements the Auth Service: registration, login, refresh
// (with rotation), logout-all, and "who am I", for both user and admin
// principal kinds.
type Service struct {
	db       *database.DB
	jwt      *JWTService
	sessions *SessionStore
	cfg      *config.AuthConfig
}

func NewService(db *database.DB, cfg *config.AuthConfig) *Service {
	return &Service{
		db:       db,
		jwt:      NewJWTService(cfg.JWT),
		sessions: NewSessionStore(db),
		cfg:      cfg,
	}
}

func (s *Service) AccessTTLSeconds() int {
	return int(s.jwt.AccessTTL().Seconds())
}

// Register creates a user and issues its first session.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, *TokenPair, error) {
	email := normalizeEmail(in.Email)
	if !isValidEmail(email) {
		return nil, nil, apperr.WithField(apperr.KindInvalidInput, "email", "invalid email format")
	}
	if err := ValidatePassword(in.Password, s.cfg.Password); err != nil {
		return nil, nil, apperr.WithField(apperr.KindInvalidInput, "password", err.Error())
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}

	id := database.GenerateShortID()
	now := database.Now()
	metadataJSON := "{}"
	if in.Metadata != nil {
		metadataJSON = encodeJSON(in.Metadata)
	}

	var user *User
	var tokens *TokenPair

	err = s.db.Write(ctx, func(tx *database.Tx) error {
		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO _sb_users (id, email, password_hash, metadata, email_verified, created_at, updated_at)
			VALUES (?, ?, ?, ?, 0, ?, ?)
		`, id, email, hash, metadataJSON, now, now)
		if execErr != nil {
			classified := database.ClassifyError(execErr)
			if database.IsUniqueError(classified) {
				return apperr.Conflict("an account with this email already exists")
			}
			return apperr.Storage(execErr)
		}

		user = &User{ID: id, Email: email, Metadata: in.Metadata}

		var issueErr error
		tokens, issueErr = s.issueSession(ctx, tx, id, PrincipalUser)
		return issueErr
	})
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Login verifies credentials and issues a new session. Failures never
// disclose whether the email exists.
func (s *Service) Login(ctx context.Context, in LoginInput) (*User, *TokenPair, error) {
	email := normalizeEmail(in.Email)

	var (
		id       string
		hash     string
		verified bool
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash, email_verified FROM _sb_users WHERE email = ?
	`, email).Scan(&id, &hash, &verified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, apperr.AuthFailure("invalid email or password")
	}
	if err != nil {
		return nil, nil, apperr.Storage(err)
	}

	if verifyErr := VerifyPassword(in.Password, hash); verifyErr != nil {
		return nil, nil, apperr.AuthFailure("invalid email or password")
	}

	var user *User
	var tokens *TokenPair
	err = s.db.Write(ctx, func(tx *database.Tx) error {
		if _, execErr := tx.ExecContext(ctx, `
			UPDATE _sb_users SET last_login = ? WHERE id = ?
		`, database.Now(), id); execErr != nil {
			return apperr.Storage(execErr)
		}

		user = &User{ID: id, Email: email, EmailVerified: verified}

		var issueErr error
		tokens, issueErr = s.issueSession(ctx, tx, id, PrincipalUser)
		return issueErr
	})
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Refresh is the sole refresh path: it validates the presented refresh
// token, consumes its jti, and issues a fresh pair. A replay of an
// already-consumed token fails.
func (s *Service) Refresh(ctx context.Context, refreshToken string, kind PrincipalKind) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.AuthFailure("invalid refresh token")
	}
	if claims.Kind != kind {
		return nil, apperr.AuthFailure("invalid refresh token")
	}

	var tokens *TokenPair
	err = s.db.Write(ctx, func(tx *database.Tx) error {
		if consumeErr := s.sessions.Consume(ctx, tx, claims.JTI); consumeErr != nil {
			if errors.Is(consumeErr, ErrSessionNotFound) {
				return apperr.AuthFailure("refresh token already used or unknown")
			}
			return apperr.Storage(consumeErr)
		}

		var issueErr error
		tokens, issueErr = s.issueSession(ctx, tx, claims.PrincipalID, kind)
		return issueErr
	})
	if err != nil {
		return nil, err
	}

	return tokens, nil
}

// Logout revokes every outstanding session for the principal behind
// accessToken: every refresh token is deleted and a revocation
// tombstone is recorded so prior access tokens also stop verifying.
func (s *Service) Logout(ctx context.Context, accessToken string, kind PrincipalKind) error {
	claims, err := s.jwt.ValidateAccessToken(accessToken, kind)
	if err != nil {
		return apperr.AuthFailure("invalid access token")
	}

	return s.db.Write(ctx, func(tx *database.Tx) error {
		if revokeErr := s.sessions.RevokeAll(ctx, tx, claims.PrincipalID, kind); revokeErr != nil {
			return apperr.Storage(revokeErr)
		}
		return nil
	})
}

// ValidateToken verifies an access token and additionally rejects it if
// it was issued before the principal's last global logout.
func (s *Service) ValidateToken(ctx context.Context, token string, kind PrincipalKind) (*Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token, kind)
	if err != nil {
		return nil, apperr.AuthFailure(err.Error())
	}

	revokedAt, err := s.sessions.LastRevokedAt(ctx, claims.PrincipalID, kind)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if !revokedAt.IsZero() && !claims.IssuedAt.After(revokedAt) {
		return nil, apperr.AuthFailure("token was revoked by a subsequent logout")
	}

	return claims, nil
}

// Me returns the user profile behind a validated access token.
func (s *Service) Me(ctx context.Context, principalID string) (*User, error) {
	return s.GetUserByID(ctx, principalID)
}

func (s *Service) GetUserByID(ctx context.Context, id string) (*User, error) {
	var u User
	var lastLogin sql.NullString
	var metadataJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, email_verified, metadata, last_login, created_at, updated_at
		FROM _sb_users WHERE id = ?
	`, id).Scan(&u.ID, &u.Email, &u.EmailVerified, &metadataJSON, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	u.Metadata = decodeJSON(metadataJSON)
	if lastLogin.Valid {
		if t, parseErr := time.Parse(time.RFC3339, lastLogin.String); parseErr == nil {
			u.LastLogin = &t
		}
	}
	return &u, nil
}

// AdminLogin authenticates an admin principal.
func (s *Service) AdminLogin(ctx context.Context, in AdminLoginInput) (*Admin, *TokenPair, error) {
	var (
		id   string
		hash string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM _sb_admins WHERE username = ?
	`, in.Username).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, apperr.AuthFailure("invalid username or password")
	}
	if err != nil {
		return nil, nil, apperr.Storage(err)
	}

	if verifyErr := VerifyPassword(in.Password, hash); verifyErr != nil {
		return nil, nil, apperr.AuthFailure("invalid username or password")
	}

	var admin *Admin
	var tokens *TokenPair
	err = s.db.Write(ctx, func(tx *database.Tx) error {
		admin = &Admin{ID: id, Username: in.Username}
		var issueErr error
		tokens, issueErr = s.issueSession(ctx, tx, id, PrincipalAdmin)
		return issueErr
	})
	if err != nil {
		return nil, nil, err
	}

	return admin, tokens, nil
}

func (s *Service) GetAdminByID(ctx context.Context, id string) (*Admin, error) {
	var a Admin
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, created_at, updated_at FROM _sb_admins WHERE id = ?
	`, id).Scan(&a.ID, &a.Username, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("admin not found")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &a, nil
}

func (s *Service) issueSession(ctx context.Context, tx *database.Tx, principalID string, kind PrincipalKind) (*TokenPair, error) {
	accessToken, _, err := s.jwt.GenerateAccessToken(principalID, kind)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	jti := uuid.New().String()
	refreshToken, refreshExpiresAt, err := s.jwt.GenerateRefreshToken(principalID, kind, jti)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := time.Now()
	if err := s.sessions.Issue(ctx, tx, jti, principalID, kind, now, refreshExpiresAt); err != nil {
		return nil, apperr.Storage(err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwt.AccessTTL().Seconds()),
		ExpiresAt:    refreshExpiresAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".")
}

func encodeJSON(v map[string]any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodeJSON(s string) map[string]any {
	if s == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}
