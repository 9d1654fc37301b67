package auth

import (
	"strings"

	"credvault/config"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/service"
	"credvault/internal/errors"
)

var bcryptPrefixes = []string{bcryptSHA256Prefix + "$", "$2a$", "$2b$", "$2y$"}

// multiHasher hashes with the configured algorithm and verifies any supported digest,
// so changing auth.hashAlgorithm never locks out existing accounts.
type multiHasher struct {
	primary service.PasswordHasher
	bcrypt  service.PasswordHasher
	argon2  service.PasswordHasher
}

// NewPasswordHasher builds the hasher selected by config.
func NewPasswordHasher(cfg *config.Config) (service.PasswordHasher, error) {
	authCfg := cfg.Auth
	if authCfg == nil {
		authCfg = &config.AuthConfig{HashAlgorithm: config.HashAlgorithmBcrypt}
	}

	h := &multiHasher{
		bcrypt: NewBcryptHasherWithCost(authCfg.BcryptCost),
		argon2: NewArgon2idHasher(authCfg.Argon2),
	}

	switch authCfg.HashAlgorithm {
	case config.HashAlgorithmBcrypt, "":
		h.primary = h.bcrypt
	case config.HashAlgorithmArgon2id:
		h.primary = h.argon2
	default:
		return nil, errors.Errorf("unknown hash algorithm: %s", authCfg.HashAlgorithm)
	}

	return h, nil
}

func (h *multiHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

func (h *multiHasher) Check(password, hash string) (bool, error) {
	if strings.HasPrefix(hash, argon2idPrefix) {
		return h.argon2.Check(password, hash)
	}

	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(hash, prefix) {
			return h.bcrypt.Check(password, hash)
		}
	}

	return false, errors.Wrap(domainerrors.ErrInvalidDigestFormat, "unrecognized digest scheme")
}
