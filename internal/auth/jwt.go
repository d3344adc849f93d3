package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/swiftbase/swiftbase/internal/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidIssuer    = errors.New("invalid token issuer")
	ErrMissingSubject   = errors.New("token missing subject")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrWrongKind        = errors.New("token is the wrong principal kind")
)

// PrincipalKind distinguishes user sessions from admin sessions. The
// two are parallel principal types, never interchangeable.
type PrincipalKind string

const (
	PrincipalUser  PrincipalKind = "user"
	PrincipalAdmin PrincipalKind = "admin"
)

type accessClaims struct {
	jwt.RegisteredClaims
	Type PrincipalKind `json:"type"`
}

type refreshClaims struct {
	jwt.RegisteredClaims
	Type PrincipalKind `json:"type"`
}

// Claims is the validated, decoded form of an access token handed back
// to callers; it never carries the raw jwt library types.
type Claims struct {
	PrincipalID string
	Kind        PrincipalKind
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// RefreshClaims is the validated, decoded form of a refresh token.
type RefreshClaims struct {
	PrincipalID string
	Kind        PrincipalKind
	JTI         string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// JWTService issues and verifies access and refresh tokens.
type JWTService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

// AccessTTL reports the configured access token lifetime, used to
// populate the response envelope's expiresIn field.
func (s *JWTService) AccessTTL() time.Duration {
	return s.accessTTL
}

// GenerateAccessToken signs a short-lived access token for principalID.
func (s *JWTService) GenerateAccessToken(principalID string, kind PrincipalKind) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
		},
		Type: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// GenerateRefreshToken signs a refresh token with a fresh jti, the
// value the Session Store persists and later consumes on rotation.
func (s *JWTService) GenerateRefreshToken(principalID string, kind PrincipalKind, jti string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.refreshTTL)

	claims := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   principalID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
		},
		Type: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// ValidateAccessToken verifies signature, expiry, issuer, and that the
// token's type claim matches expectKind.
func (s *JWTService) ValidateAccessToken(tokenString string, expectKind PrincipalKind) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != s.issuer {
		return nil, ErrInvalidIssuer
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	if claims.Type != expectKind {
		return nil, ErrWrongKind
	}

	return &Claims{
		PrincipalID: claims.Subject,
		Kind:        claims.Type,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// ValidateRefreshToken verifies signature, expiry, and issuer, without
// regard to kind (the Session Store checks the jti, which is kind-scoped
// by construction since jti is only ever issued alongside a kind).
func (s *JWTService) ValidateRefreshToken(tokenString string) (*RefreshClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &refreshClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*refreshClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != s.issuer {
		return nil, ErrInvalidIssuer
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return &RefreshClaims{
		PrincipalID: claims.Subject,
		Kind:        claims.Type,
		JTI:         claims.ID,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
