// Package policy decides whether a candidate password may be stored.
//
// Rules run cheapest first and stop at the first failure: length, email
// fragment, reuse of the current password, and finally the breach oracle,
// which is the only rule that leaves the process.
package policy

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"credvault/internal/domain/entity"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/service"
	"credvault/internal/errors"

	"golang.org/x/text/cases"
)

const (
	DefaultMinLength = 8
	DefaultMaxLength = 64
)

// Violation is the reason a candidate was rejected.
type Violation string

const (
	ViolationTooShort               Violation = "too_short"
	ViolationTooLong                Violation = "too_long"
	ViolationContainsEmailFragment  Violation = "contains_email_fragment"
	ViolationMatchesCurrentPassword Violation = "matches_current_password"
	ViolationPreviouslyBreached     Violation = "previously_breached"
)

// Decision is the verdict of Evaluate. The zero value is Accepted.
type Decision struct {
	Violation Violation
}

// Accepted is the decision for a candidate that passed every rule.
var Accepted = Decision{}

// Rejected builds a decision that refuses the candidate for the given reason.
func Rejected(v Violation) Decision {
	return Decision{Violation: v}
}

// IsAccepted reports whether the candidate passed every rule.
func (d Decision) IsAccepted() bool {
	return d.Violation == ""
}

// FailureMode selects what happens when the breach oracle cannot answer.
type FailureMode string

const (
	// FailClosed propagates oracle outages to the caller.
	FailClosed FailureMode = "closed"
	// FailOpen logs the outage and lets the candidate through the breach rule.
	FailOpen FailureMode = "open"
)

// Context carries the account facts the rules compare against.
type Context struct {
	// EmailLocalPart is the lower-cased part of the email before '@'. Empty disables the fragment rule.
	EmailLocalPart string
	// CurrentHash is the stored digest during rotation; empty during registration.
	CurrentHash string
}

// NewContext derives the evaluation context from an email and an optional current digest.
func NewContext(email, currentHash string) Context {
	return Context{
		EmailLocalPart: entity.EmailLocalPart(email),
		CurrentHash:    currentHash,
	}
}

// Options configures a Policy.
type Options struct {
	MinLength   int
	MaxLength   int
	FailureMode FailureMode
}

// Policy evaluates candidate passwords. It holds no mutable state and is safe for concurrent use.
type Policy struct {
	minLength   int
	maxLength   int
	failureMode FailureMode
	hasher      service.PasswordHasher
	oracle      service.BreachOracle
	logger      *slog.Logger
}

// New builds a Policy. A nil oracle disables the breach rule.
func New(opts Options, hasher service.PasswordHasher, oracle service.BreachOracle, logger *slog.Logger) *Policy {
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.FailureMode == "" {
		opts.FailureMode = FailClosed
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Policy{
		minLength:   opts.MinLength,
		maxLength:   opts.MaxLength,
		failureMode: opts.FailureMode,
		hasher:      hasher,
		oracle:      oracle,
		logger:      logger,
	}
}

// Evaluate applies the rules in order and returns the first violation found.
// An error is returned only when a collaborator fails: the hasher cannot parse
// the current digest, or the breach oracle is unavailable in FailClosed mode.
func (p *Policy) Evaluate(ctx context.Context, candidate string, pc Context) (Decision, error) {
	if d := p.checkLength(candidate); !d.IsAccepted() {
		return d, nil
	}

	if containsEmailFragment(candidate, pc.EmailLocalPart) {
		return Rejected(ViolationContainsEmailFragment), nil
	}

	if pc.CurrentHash != "" {
		same, err := p.hasher.Check(candidate, pc.CurrentHash)
		if err != nil {
			return Decision{}, errors.Wrap(err, "failed to compare candidate with current password")
		}
		if same {
			return Rejected(ViolationMatchesCurrentPassword), nil
		}
	}

	return p.checkBreach(ctx, candidate)
}

func (p *Policy) checkLength(candidate string) Decision {
	n := utf8.RuneCountInString(candidate)
	switch {
	case n < p.minLength:
		return Rejected(ViolationTooShort)
	case n > p.maxLength:
		return Rejected(ViolationTooLong)
	default:
		return Accepted
	}
}

func (p *Policy) checkBreach(ctx context.Context, candidate string) (Decision, error) {
	if p.oracle == nil {
		return Accepted, nil
	}

	compromised, err := p.oracle.IsCompromised(ctx, candidate)
	if err != nil {
		if p.failureMode == FailOpen && errors.Is(err, domainerrors.ErrOracleUnavailable) {
			p.logger.WarnContext(ctx, "Breach oracle unavailable, accepting candidate", slog.Any("error", err))

			return Accepted, nil
		}

		return Decision{}, errors.Wrap(err, "breach check failed")
	}
	if compromised {
		return Rejected(ViolationPreviouslyBreached), nil
	}

	return Accepted, nil
}

// containsEmailFragment compares under Unicode case folding; an empty local part never matches.
func containsEmailFragment(candidate, localPart string) bool {
	if localPart == "" {
		return false
	}
	folder := cases.Fold()

	return strings.Contains(folder.String(candidate), folder.String(localPart))
}
