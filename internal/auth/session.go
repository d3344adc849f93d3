package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/swiftbase/swiftbase/internal/database"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists refresh-token records in _sb_refresh_tokens and
// per-principal revocation tombstones in _sb_revocations, realizing the
// Session Store component: issue, rotate (atomic consume-then-reissue),
// and revoke_all (logout-invalidates-all-sessions).
type SessionStore struct {
	db *database.DB
}

func NewSessionStore(db *database.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Issue persists a new refresh-token record for principal. Callers run
// this inside the same Write scope that creates or logs in the
// principal, so the session record and the principal row commit
// together.
func (s *SessionStore) Issue(ctx context.Context, tx *database.Tx, jti, principalID string, kind PrincipalKind, issuedAt, expiresAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO _sb_refresh_tokens (jti, principal_id, principal_kind, issued_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, jti, principalID, string(kind), issuedAt.UTC().Format(time.RFC3339), expiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return database.ClassifyError(err)
	}
	return nil
}

// Consume removes a presented jti if and only if it currently exists,
// returning ErrSessionNotFound otherwise. This is the atomic
// require-then-remove half of rotation: a replayed refresh token finds
// nothing to consume and the rotation fails.
func (s *SessionStore) Consume(ctx context.Context, tx *database.Tx, jti string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM _sb_refresh_tokens WHERE jti = ?`, jti)
	if err != nil {
		return database.ClassifyError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RevokeAll deletes every refresh token for principal and records a
// last_revoked_at tombstone, so access tokens issued before this moment
// fail verification even though they carry no server-side state of
// their own.
func (s *SessionStore) RevokeAll(ctx context.Context, tx *database.Tx, principalID string, kind PrincipalKind) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM _sb_refresh_tokens WHERE principal_id = ? AND principal_kind = ?
	`, principalID, string(kind)); err != nil {
		return database.ClassifyError(err)
	}

	now := database.Now()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO _sb_revocations (principal_id, principal_kind, revoked_at)
		VALUES (?, ?, ?)
		ON CONFLICT (principal_id, principal_kind) DO UPDATE SET revoked_at = excluded.revoked_at
	`, principalID, string(kind), now); err != nil {
		return database.ClassifyError(err)
	}

	return nil
}

// LastRevokedAt returns the most recent global-logout tombstone for a
// principal, or the zero time if none exists.
func (s *SessionStore) LastRevokedAt(ctx context.Context, principalID string, kind PrincipalKind) (time.Time, error) {
	var revokedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT revoked_at FROM _sb_revocations WHERE principal_id = ? AND principal_kind = ?
	`, principalID, string(kind)).Scan(&revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("querying revocation: %w", err)
	}
	t, err := time.Parse(time.RFC3339, revokedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing revoked_at: %w", err)
	}
	return t, nil
}
