package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordError is a password rejected by the account policy. Its message
// is shown to the user as is.
type PasswordError struct{ msg string }

func (e *PasswordError) Error() string { return e.msg }

var (
	ErrPasswordTooShort = &PasswordError{msg: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)}
	ErrPasswordTooLong  = &PasswordError{msg: fmt.Sprintf("Password must be at most %d bytes", maxPasswordBytes)}
)

const (
	MinPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt ignores anything longer
	accountCost       = 12
)

// HashPassword hashes a new account password.
func HashPassword(password string) (string, error) {
	return hash(password, accountCost)
}

// HashPasswordFast uses the minimum bcrypt cost. Seeded demo accounts and
// tests use it so startup stays quick.
func HashPasswordFast(password string) (string, error) {
	return hash(password, bcrypt.MinCost)
}

func hash(password string, cost int) (string, error) {
	switch {
	case len([]rune(password)) < MinPasswordLength:
		return "", ErrPasswordTooShort
	case len(password) > maxPasswordBytes:
		return "", ErrPasswordTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword reports whether password matches hash. Malformed hashes
// never match.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
