package policy

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/errors"
	mockSvc "credvault/internal/mocks/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// policyFixtures holds the policy under test and its mocked collaborators.
type policyFixtures struct {
	policy *Policy
	hasher *mockSvc.MockPasswordHasher
	oracle *mockSvc.MockBreachOracle
}

func createTestPolicy(t *testing.T, mode FailureMode) policyFixtures {
	hasher := mockSvc.NewMockPasswordHasher(t)
	oracle := mockSvc.NewMockBreachOracle(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return policyFixtures{
		policy: New(Options{FailureMode: mode}, hasher, oracle, logger),
		hasher: hasher,
		oracle: oracle,
	}
}

func TestPolicy_Evaluate_AcceptsValidPasswords(t *testing.T) {
	fx := createTestPolicy(t, FailClosed)
	ctx := context.Background()
	pc := NewContext("alice@example.com", "")

	fx.oracle.EXPECT().IsCompromised(ctx, mock.AnythingOfType("string")).Return(false, nil)

	for _, candidate := range []string{
		"Tr0ub4dor&3",
		strings.Repeat("x", 8),
		strings.Repeat("y", 64),
		"correct horse battery staple",
		"Pässphräse-über",
	} {
		d, err := fx.policy.Evaluate(ctx, candidate, pc)
		require.NoError(t, err)
		assert.True(t, d.IsAccepted(), "expected %q to be accepted, got %s", candidate, d.Violation)
	}

	fx.hasher.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
}

func TestPolicy_Evaluate_LengthBounds(t *testing.T) {
	fx := createTestPolicy(t, FailClosed)

	tests := []struct {
		name      string
		candidate string
		want      Violation
	}{
		{name: "empty", candidate: "", want: ViolationTooShort},
		{name: "seven", candidate: strings.Repeat("a", 7), want: ViolationTooShort},
		{name: "sixty five", candidate: strings.Repeat("a", 65), want: ViolationTooLong},
		// length is checked before the email fragment, so "alice" never matters here
		{name: "short with fragment", candidate: "alice", want: ViolationTooShort},
		{name: "multibyte counts code points", candidate: strings.Repeat("é", 65), want: ViolationTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := fx.policy.Evaluate(context.Background(), tt.candidate, NewContext("alice@example.com", "digest-x"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Violation)
		})
	}

	fx.oracle.AssertNotCalled(t, "IsCompromised", mock.Anything, mock.Anything)
	fx.hasher.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
}

func TestPolicy_Evaluate_MultibyteWithinBounds(t *testing.T) {
	fx := createTestPolicy(t, FailClosed)
	ctx := context.Background()
	candidate := strings.Repeat("é", 8)

	fx.oracle.EXPECT().IsCompromised(ctx, candidate).Return(false, nil).Once()

	d, err := fx.policy.Evaluate(ctx, candidate, Context{})
	require.NoError(t, err)
	assert.True(t, d.IsAccepted())
}

func TestPolicy_Evaluate_EmailFragment(t *testing.T) {
	fx := createTestPolicy(t, FailClosed)
	pc := NewContext("alice@example.com", "")

	for _, candidate := range []string{"ALICEpass1", "my-alice-pw", "xxAlIcExx"} {
		d, err := fx.policy.Evaluate(context.Background(), candidate, pc)
		require.NoError(t, err)
		assert.Equal(t, ViolationContainsEmailFragment, d.Violation, candidate)
	}

	fx.oracle.AssertNotCalled(t, "IsCompromised", mock.Anything, mock.Anything)
}

func TestPolicy_Evaluate_EmailFragmentUsesCaseFolding(t *testing.T) {
	fx := createTestPolicy(t, FailClosed)

	d, err := fx.policy.Evaluate(context.Background(), "ÖMER-secret", NewContext("Ömer@example.com", ""))
	require.NoError(t, err)
	assert.Equal(t, ViolationContainsEmailFragment, d.Violation)
}

func TestPolicy_Evaluate_EmptyLocalPartNeverMatches(t *testing.T) {
	fx := createTestPolicy(t, FailClosed)
	ctx := context.Background()

	fx.oracle.EXPECT().IsCompromised(ctx, "anything-goes").Return(false, nil).Once()

	d, err := fx.policy.Evaluate(ctx, "anything-goes", NewContext("@example.com", ""))
	require.NoError(t, err)
	assert.True(t, d.IsAccepted())
}

func TestPolicy_Evaluate_MatchesCurrentPassword(t *testing.T) {
	fx := createTestPolicy(t, FailClosed)

	fx.hasher.EXPECT().Check("SamePassword1!", "digest-1").Return(true, nil).Once()

	d, err := fx.policy.Evaluate(context.Background(), "SamePassword1!", NewContext("bob@example.com", "digest-1"))
	require.NoError(t, err)
	assert.Equal(t, ViolationMatchesCurrentPassword, d.Violation)
	fx.oracle.AssertNotCalled(t, "IsCompromised", mock.Anything, mock.Anything)
}

func TestPolicy_Evaluate_DifferentFromCurrentPasswordReachesOracle(t *testing.T) {
	fx := createTestPolicy(t, FailClosed)
	ctx := context.Background()

	fx.hasher.EXPECT().Check("NewPassword1!", "digest-1").Return(false, nil).Once()
	fx.oracle.EXPECT().IsCompromised(ctx, "NewPassword1!").Return(false, nil).Once()

	d, err := fx.policy.Evaluate(ctx, "NewPassword1!", NewContext("bob@example.com", "digest-1"))
	require.NoError(t, err)
	assert.True(t, d.IsAccepted())
}

func TestPolicy_Evaluate_ReuseSkippedWithoutCurrentHash(t *testing.T) {
	fx := createTestPolicy(t, FailClosed)
	ctx := context.Background()

	fx.oracle.EXPECT().IsCompromised(ctx, "SamePassword1!").Return(false, nil).Once()

	d, err := fx.policy.Evaluate(ctx, "SamePassword1!", NewContext("bob@example.com", ""))
	require.NoError(t, err)
	assert.True(t, d.IsAccepted())
	fx.hasher.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
}

func TestPolicy_Evaluate_InvalidCurrentDigest(t *testing.T) {
	fx := createTestPolicy(t, FailClosed)

	fx.hasher.EXPECT().Check("NewPassword1!", "garbage").Return(false, domainerrors.ErrInvalidDigestFormat).Once()

	_, err := fx.policy.Evaluate(context.Background(), "NewPassword1!", NewContext("bob@example.com", "garbage"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidDigestFormat))
	fx.oracle.AssertNotCalled(t, "IsCompromised", mock.Anything, mock.Anything)
}

func TestPolicy_Evaluate_Breached(t *testing.T) {
	fx := createTestPolicy(t, FailClosed)
	ctx := context.Background()

	fx.oracle.EXPECT().IsCompromised(ctx, "P@ssw0rd123").Return(true, nil).Once()

	d, err := fx.policy.Evaluate(ctx, "P@ssw0rd123", NewContext("bob@example.com", ""))
	require.NoError(t, err)
	assert.Equal(t, ViolationPreviouslyBreached, d.Violation)
}

func TestPolicy_Evaluate_OracleUnavailable(t *testing.T) {
	outage := errors.Wrap(domainerrors.ErrOracleUnavailable, "dial tcp: timeout")

	t.Run("fail closed propagates", func(t *testing.T) {
		fx := createTestPolicy(t, FailClosed)
		fx.oracle.EXPECT().IsCompromised(mock.Anything, "NewPassword1!").Return(false, outage).Once()

		_, err := fx.policy.Evaluate(context.Background(), "NewPassword1!", Context{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainerrors.ErrOracleUnavailable))
	})

	t.Run("fail open accepts", func(t *testing.T) {
		fx := createTestPolicy(t, FailOpen)
		fx.oracle.EXPECT().IsCompromised(mock.Anything, "NewPassword1!").Return(false, outage).Once()

		d, err := fx.policy.Evaluate(context.Background(), "NewPassword1!", Context{})
		require.NoError(t, err)
		assert.True(t, d.IsAccepted())
	})

	t.Run("fail open still propagates unexpected errors", func(t *testing.T) {
		fx := createTestPolicy(t, FailOpen)
		fx.oracle.EXPECT().IsCompromised(mock.Anything, "NewPassword1!").Return(false, errors.New("boom")).Once()

		_, err := fx.policy.Evaluate(context.Background(), "NewPassword1!", Context{})
		assert.Error(t, err)
	})
}

func TestPolicy_Evaluate_NilOracleSkipsBreachRule(t *testing.T) {
	p := New(Options{}, mockSvc.NewMockPasswordHasher(t), nil, nil)

	d, err := p.Evaluate(context.Background(), "NewPassword1!", Context{})
	require.NoError(t, err)
	assert.True(t, d.IsAccepted())
}

func TestNewContext(t *testing.T) {
	pc := NewContext("Alice.Smith@Example.com", "digest")
	assert.Equal(t, "alice.smith", pc.EmailLocalPart)
	assert.Equal(t, "digest", pc.CurrentHash)

	assert.Equal(t, "", NewContext("", "").EmailLocalPart)
	assert.Equal(t, "nodomain", NewContext("nodomain", "").EmailLocalPart)
}
