// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"

	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/service"
	"credvault/internal/errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptSHA256Prefix marks digests whose input was SHA-256 pre-hashed before bcrypt.
// The rest of the digest is an ordinary bcrypt string, e.g. "$bcrypt-sha256$2a$10$...".
const bcryptSHA256Prefix = "$bcrypt-sha256"

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
// New digests are always pre-hashed so that bcrypt's 72-byte input limit never applies.
type bcryptHasher struct {
	cost int
}

// NewBcryptHasher is the constructor for bcryptHasher using bcrypt.DefaultCost.
// It returns the implementation as a service.PasswordHasher interface.
func NewBcryptHasher() service.PasswordHasher {
	return NewBcryptHasherWithCost(bcrypt.DefaultCost)
}

// NewBcryptHasherWithCost builds a bcrypt hasher; the cost is clamped to bcrypt's valid range.
func NewBcryptHasherWithCost(cost int) service.PasswordHasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}

	return &bcryptHasher{cost: cost}
}

// Hash generates a salted bcrypt digest of the password's SHA-256 pre-hash.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(prehashSHA256(password), h.cost)
	if err != nil {
		return "", errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	return bcryptSHA256Prefix + string(bytes), nil
}

// Check compares a plaintext password with a pre-hashed or a plain bcrypt digest.
func (h *bcryptHasher) Check(password, hash string) (bool, error) {
	if digest, ok := strings.CutPrefix(hash, bcryptSHA256Prefix); ok {
		return compareBcrypt(prehashSHA256(password), digest)
	}

	return compareBcrypt([]byte(password), hash)
}

func compareBcrypt(password []byte, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), password)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		// ErrHashTooShort, InvalidHashPrefixError, InvalidCostError, HashVersionTooNewError
		return false, errors.Wrap(domainerrors.ErrInvalidDigestFormat, err.Error())
	}
}

// prehashSHA256 maps any input to 44 printable bytes, well under bcrypt's limit and free of NUL bytes.
func prehashSHA256(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])

	return out
}
