package breach

import (
	"context"
	"crypto/sha1" //nolint:gosec // the range API is keyed by SHA-1
	"encoding/hex"
	"strings"

	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/service"
	"credvault/internal/errors"
)

const prefixLength = 5

type oracle struct {
	fetcher        RangeFetcher
	minOccurrences int
}

// NewOracle builds a BreachOracle that sends only the first five hex characters
// of the password's SHA-1 digest to the fetcher.
func NewOracle(fetcher RangeFetcher, minOccurrences int) service.BreachOracle {
	if minOccurrences < 1 {
		minOccurrences = 1
	}

	return &oracle{
		fetcher:        fetcher,
		minOccurrences: minOccurrences,
	}
}

func (o *oracle) IsCompromised(ctx context.Context, password string) (bool, error) {
	prefix, suffix := splitDigest(password)

	entries, err := o.fetcher.FetchRange(ctx, prefix)
	if err != nil {
		if errors.Is(err, domainerrors.ErrOracleUnavailable) {
			return false, err
		}

		return false, errors.Wrap(domainerrors.ErrOracleUnavailable, err.Error())
	}

	// zero counts are padding entries
	count := entries[suffix]

	return count > 0 && count >= o.minOccurrences, nil
}

// splitDigest returns the upper-case hex SHA-1 of password split into its 5-character prefix and 35-character suffix.
func splitDigest(password string) (string, string) {
	sum := sha1.Sum([]byte(password)) //nolint:gosec
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))

	return digest[:prefixLength], digest[prefixLength:]
}
