package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bus-booking/errors"
)

var testKey = []byte("test-signing-key")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func aliceClaims() Claims {
	return Claims{
		SubjectID:   "64f1c2a9e4b0a1b2c3d4e5f6",
		DisplayName: "Alice",
		Email:       "alice@example.com",
		Roles:       []string{RoleUser},
	}
}

func TestIssueValidateRoundTrip(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	codec := NewTokenCodec(testKey, time.Hour)
	codec.Now = fixedClock(issuedAt)

	token, err := codec.Issue(aliceClaims())
	require.NoError(t, err)

	codec.Now = fixedClock(issuedAt.Add(59 * time.Minute))
	claims, err := codec.Validate(token)
	require.NoError(t, err)

	want := aliceClaims()
	assert.Equal(t, want.SubjectID, claims.SubjectID)
	assert.Equal(t, want.DisplayName, claims.DisplayName)
	assert.Equal(t, want.Email, claims.Email)
	assert.Equal(t, want.Roles, claims.Roles)
	assert.True(t, claims.IssuedAt.Time.Equal(issuedAt))
	assert.True(t, claims.ExpiresAt.Time.Equal(issuedAt.Add(time.Hour)))
}

func TestValidateExpiredWithZeroTTL(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	codec := NewTokenCodec(testKey, 0)
	codec.Now = fixedClock(issuedAt)

	token, err := codec.Issue(aliceClaims())
	require.NoError(t, err)

	codec.Now = fixedClock(issuedAt.Add(time.Second))
	_, err = codec.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredSession)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	assert.NotErrorIs(t, err, ErrMalformedToken)
}

func TestValidateRejectsTampering(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	codec := NewTokenCodec(testKey, time.Hour)
	codec.Now = fixedClock(issuedAt)

	token, err := codec.Issue(aliceClaims())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	other := NewTokenCodec([]byte("another-key"), time.Hour)
	other.Now = codec.Now
	forged, err := other.Issue(Claims{SubjectID: "x", Roles: []string{RoleSuperAdmin}})
	require.NoError(t, err)
	forgedParts := strings.Split(forged, ".")

	tests := []struct {
		description string
		token       string
	}{
		{description: "garbage", token: "not-a-token"},
		{description: "empty", token: ""},
		{description: "swapped payload", token: parts[0] + "." + forgedParts[1] + "." + parts[2]},
		{description: "foreign key", token: forged},
		{description: "truncated signature", token: parts[0] + "." + parts[1] + "." + parts[2][:10]},
	}

	for _, test := range tests {
		_, err := codec.Validate(test.token)
		assert.ErrorIsf(t, err, ErrMalformedToken, test.description)
	}
}

func TestValidateReportsTamperingBeforeExpiry(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	other := NewTokenCodec([]byte("another-key"), 0)
	other.Now = fixedClock(issuedAt)
	forged, err := other.Issue(aliceClaims())
	require.NoError(t, err)

	codec := NewTokenCodec(testKey, time.Hour)
	codec.Now = fixedClock(issuedAt.Add(time.Hour))
	_, err = codec.Validate(forged)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestValidateRejectsOtherAlgorithms(t *testing.T) {
	claims := aliceClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	codec := NewTokenCodec(testKey, time.Hour)
	_, err = codec.Validate(unsigned)
	assert.True(t, errors.Is(err, ErrMalformedToken))
}
