package auth

import (
	"agora/domain/event"
	"agora/errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenVerifier(t *testing.T) {
	verifier := NewTokenVerifier("test-secret-with-enough-entropy", "accounts")

	t.Run("should return the subject of a valid token", func(t *testing.T) {
		req := require.New(t)
		token, err := verifier.Issue("u1", "member", time.Hour)
		req.NoError(err)

		identityID, err := verifier.Verify(token)
		req.NoError(err)
		req.Equal("u1", identityID)
	})

	t.Run("should reject expired, foreign and tampered tokens", func(t *testing.T) {
		req := require.New(t)
		expired, err := verifier.Issue("u1", "member", -time.Minute)
		req.NoError(err)
		_, err = verifier.Verify(expired)
		req.ErrorIs(err, errors.ErrInvalidCredential)

		foreign, err := NewTokenVerifier("another-secret", "accounts").Issue("u1", "member", time.Hour)
		req.NoError(err)
		_, err = verifier.Verify(foreign)
		req.ErrorIs(err, errors.ErrInvalidCredential)

		otherIssuer, err := NewTokenVerifier("test-secret-with-enough-entropy", "elsewhere").Issue("u1", "", time.Hour)
		req.NoError(err)
		_, err = verifier.Verify(otherIssuer)
		req.ErrorIs(err, errors.ErrAuthentication)

		_, err = verifier.Verify("not-a-jwt")
		req.ErrorIs(err, errors.ErrInvalidCredential)
	})

	t.Run("should reject a token without subject or expiry", func(t *testing.T) {
		req := require.New(t)
		secret := []byte("test-secret-with-enough-entropy")

		noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "accounts",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}).SignedString(secret)
		req.NoError(err)
		_, err = verifier.Verify(noSubject)
		req.ErrorIs(err, errors.ErrInvalidCredential)

		noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  "accounts",
			Subject: "u1",
		}}).SignedString(secret)
		req.NoError(err)
		_, err = verifier.Verify(noExpiry)
		req.ErrorIs(err, errors.ErrInvalidCredential)
	})
}

func TestValidate(t *testing.T) {
	req := require.New(t)

	req.NoError(Validate(event.JoinRoom{Room: "conv-1"}))
	req.ErrorIs(Validate(event.JoinRoom{}), errors.ErrValidation)
	req.NoError(Validate(event.CallSignalInput{Room: "call-1", Payload: []byte(`{}`)}))
	req.ErrorIs(Validate(event.CallSignalInput{Payload: []byte(`{}`)}), errors.ErrValidation)
	req.ErrorIs(Validate(event.CallStartInput{To: "u2", Room: "call-1", Kind: "fax"}), errors.ErrValidation)
}
