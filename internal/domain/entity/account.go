// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is the credential record of a single person, keyed by ID and unique by Email.
// PasswordHash is a self-describing one-way digest and never the plaintext.
type Account struct {
	ID           uuid.UUID `json:"id"`         // The Global Unique Identifier (GUID) for the account.
	Email        string    `json:"email"`      // Normalized email address, unique across all accounts.
	PasswordHash string    `json:"-"`          // One-way digest of the current password; never serialized.
	CreatedAt    time.Time `json:"created_at"` // Timestamp of when this account was registered.
	UpdatedAt    time.Time `json:"updated_at"` // Timestamp of the last password rotation.
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address
// so that lookups and the uniqueness constraint are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailLocalPart returns the lower-cased part of the address before the first '@'.
// An address without '@' is treated as all local part.
func EmailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")

	return strings.ToLower(local)
}
