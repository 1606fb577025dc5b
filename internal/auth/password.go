package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any email or password mismatch.
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Operator is a configured dashboard account.
type Operator struct {
	Email        string
	PasswordHash string
	Role         string
}

// ID is a stable identifier derived from the operator's email.
func (o Operator) ID() uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(strings.TrimSpace(o.Email))))
}

// Check compares the supplied credentials with the operator's. The email is
// case-insensitive. An operator without a password hash never matches.
func (o Operator) Check(email, password string) error {
	if o.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	want := strings.ToLower(strings.TrimSpace(o.Email))
	got := strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
	// Always run bcrypt so a wrong email costs the same as a wrong password.
	pwErr := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password))
	if !emailOK || pwErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}
