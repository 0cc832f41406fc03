package service

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/agrimanage/farmreg/internal/errors"
)

// bcrypt ignores input beyond 72 bytes; truncate explicitly so Hash and
// Verify agree on the effective secret.
const maxPasswordBytes = 72

// PasswordHasher provides one-way password hashing and verification.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher constructs a PasswordHasher with the default bcrypt cost.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: bcrypt.DefaultCost}
}

// Hash derives a digest from the secret. Secrets longer than 72 bytes are
// silently truncated; callers must not rely on characters beyond that limit.
func (h *PasswordHasher) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(truncateSecret(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether the secret matches the digest. Deterministic and
// side-effect free.
func (h *PasswordHasher) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), truncateSecret(secret)) == nil
}

func truncateSecret(secret string) []byte {
	b := []byte(secret)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// ValidatePasswordStrength enforces the minimum password policy for account
// registration and password changes: at least 8 characters with an upper-case
// letter, a lower-case letter, and a digit.
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return apperrors.ValidationField("password", "password must be at least 8 characters long")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	switch {
	case !hasUpper:
		return apperrors.ValidationField("password", "password must contain at least one uppercase letter")
	case !hasLower:
		return apperrors.ValidationField("password", "password must contain at least one lowercase letter")
	case !hasDigit:
		return apperrors.ValidationField("password", "password must contain at least one digit")
	}
	return nil
}
