package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"credvault/config"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/service"
	"credvault/internal/errors"

	"golang.org/x/crypto/argon2"
)

const argon2idPrefix = "$argon2id$"

var defaultArgon2Params = config.Argon2Config{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// argon2idHasher produces PHC-formatted digests: $argon2id$v=19$m=...,t=...,p=...$salt$key
type argon2idHasher struct {
	params config.Argon2Config
}

// NewArgon2idHasher builds an argon2id hasher; zero fields take the defaults.
func NewArgon2idHasher(params config.Argon2Config) service.PasswordHasher {
	if params.Memory == 0 {
		params.Memory = defaultArgon2Params.Memory
	}
	if params.Iterations == 0 {
		params.Iterations = defaultArgon2Params.Iterations
	}
	if params.Parallelism == 0 {
		params.Parallelism = defaultArgon2Params.Parallelism
	}
	if params.SaltLength == 0 {
		params.SaltLength = defaultArgon2Params.SaltLength
	}
	if params.KeyLength == 0 {
		params.KeyLength = defaultArgon2Params.KeyLength
	}

	return &argon2idHasher{params: params}
}

// Hash derives a key with a fresh random salt.
func (h *argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix,
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Check re-derives the key with the digest's own parameters and compares in constant time.
func (h *argon2idHasher) Check(password, hash string) (bool, error) {
	params, salt, key, err := decodeArgon2id(hash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

func decodeArgon2id(hash string) (config.Argon2Config, []byte, []byte, error) {
	var params config.Argon2Config

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, errors.Wrap(domainerrors.ErrInvalidDigestFormat, "malformed argon2id digest")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, errors.Wrap(domainerrors.ErrInvalidDigestFormat, "malformed argon2id version")
	}
	if version != argon2.Version {
		return params, nil, nil, errors.Wrapf(domainerrors.ErrInvalidDigestFormat, "unsupported argon2id version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return params, nil, nil, errors.Wrap(domainerrors.ErrInvalidDigestFormat, "malformed argon2id parameters")
	}
	if params.Memory == 0 || params.Iterations == 0 || params.Parallelism == 0 {
		return params, nil, nil, errors.Wrap(domainerrors.ErrInvalidDigestFormat, "zero argon2id parameter")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return params, nil, nil, errors.Wrap(domainerrors.ErrInvalidDigestFormat, "malformed argon2id salt")
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, errors.Wrap(domainerrors.ErrInvalidDigestFormat, "malformed argon2id key")
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}
