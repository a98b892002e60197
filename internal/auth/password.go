// Package auth verifies the shared admin secret.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/gallery"
	"golang.org/x/crypto/bcrypt"
)

// HashAdminPassword returns the bcrypt hash to configure as ADMIN_PASSWORD_HASH.
func HashAdminPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("admin password cannot be blank")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing admin password: %w", err)
	}
	return string(hash), nil
}

// AdminVerifier checks candidate passwords against either a plaintext secret
// or a bcrypt hash. The hash wins when both are configured.
type AdminVerifier struct {
	secret []byte
	hash   string
}

var _ gallery.AdminVerifier = (*AdminVerifier)(nil)

// NewAdminVerifier returns a verifier for the given secret or bcrypt hash.
func NewAdminVerifier(secret, hash string) (*AdminVerifier, error) {
	hash = strings.TrimSpace(hash)
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, errors.New("ADMIN_PASSWORD_HASH is not a bcrypt hash")
		}
		return &AdminVerifier{hash: hash}, nil
	}
	if secret == "" {
		return nil, errors.New("admin password cannot be empty")
	}
	return &AdminVerifier{secret: []byte(secret)}, nil
}

// Verify reports whether password matches. An empty password never matches.
func (v *AdminVerifier) Verify(password string) bool {
	if password == "" {
		return false
	}
	if v.hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(v.hash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), v.secret) == 1
}
