package service

import "context"

// BreachOracle reports whether a password appears in a corpus of breached passwords.
type BreachOracle interface {
	// IsCompromised returns true when the password has been seen in a breach.
	// Lookup failures are returned as errors matching domainerrors.ErrOracleUnavailable
	// and are never folded into a false result.
	IsCompromised(ctx context.Context, password string) (bool, error)
}
