package users

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/2beens/fittracker/pkg"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(password, hash string) bool
}

var (
	_ PasswordHasher = (*BcryptHasher)(nil)
	_ PasswordHasher = (*SHA256Hasher)(nil)
)

func NewPasswordHasher(scheme string) (PasswordHasher, error) {
	switch scheme {
	case "", "bcrypt":
		return &BcryptHasher{}, nil
	case "sha256":
		return &SHA256Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password hash scheme: %s", scheme)
	}
}

type BcryptHasher struct{}

func (h *BcryptHasher) Hash(password string) (string, error) {
	return pkg.HashPassword(password)
}

func (h *BcryptHasher) Matches(password, hash string) bool {
	return pkg.CheckPasswordHash(password, hash)
}

// SHA256Hasher keeps credentials stored as unsalted hex sha256 digests usable.
type SHA256Hasher struct{}

func (h *SHA256Hasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (h *SHA256Hasher) Matches(password, hash string) bool {
	expected, _ := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(hash)) == 1
}
