package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/swiftbase/swiftbase/internal/config"
)

const bcryptCost = 12

var (
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrPasswordHashMismatch = errors.New("password does not match")
)

// HashPassword returns bcrypt's self-describing encoded hash: algorithm,
// cost, salt, and digest are all carried in the returned string, so
// raising bcryptCost later needs no migration of existing rows.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares in constant time via bcrypt's own comparator.
func VerifyPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordHashMismatch
	}
	return err
}

// ValidatePassword enforces the configured minimum length.
func ValidatePassword(password string, cfg config.PasswordConfig) error {
	if len(password) < cfg.MinLength {
		return ErrPasswordTooShort
	}
	return nil
}
