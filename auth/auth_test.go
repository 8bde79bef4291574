package auth

import (
	"strings"
	"testing"
	"time"

	"qleon/errors"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "correct horse 42"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong horse 42", hash)
	req.NoError(err)
	req.False(match)
}

func TestCompare_Malformed_Hash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("secret", "plain-text")
	req.Error(err)

	_, err = ComparePassword("secret", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA")
	req.Error(err)
}

func TestRegistrationValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr error
	}{
		{"Valid request", RegisterRequest{"alice_01", "password1"}, nil},
		{"Empty username", RegisterRequest{"", "password1"}, errors.ErrUsernameEmpty},
		{"Username too short", RegisterRequest{"al", "password1"}, errors.ErrUsernameTooShort},
		{"Username with dash", RegisterRequest{"al-ice", "password1"}, errors.ErrUsernameInvalid},
		{"Password too short", RegisterRequest{"alice", "pass1"}, errors.ErrInvalidPassword},
		{"Password without digit", RegisterRequest{"alice", "password"}, errors.ErrInvalidPassword},
		{"Password too long", RegisterRequest{"alice", strings.Repeat("a1", 37)}, errors.ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestToken_Roundtrip_And_Expiration(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClockAt(time.Now())
	issuer := NewTokenIssuer("test-secret", time.Hour, clock)

	token, err := issuer.GenerateToken("uuid-1", "alice")
	req.NoError(err)

	claims, err := issuer.ValidateToken(token)
	req.NoError(err)
	req.Equal("uuid-1", claims.UserID)
	req.Equal("alice", claims.Username)

	// When the session outlives its duration
	clock.Advance(2 * time.Hour)
	_, err = issuer.ValidateToken(token)
	req.Error(err)
}

func TestToken_Signed_With_Another_Secret(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClockAt(time.Now())

	token, err := NewTokenIssuer("secret-a", time.Hour, clock).GenerateToken("uuid-1", "alice")
	req.NoError(err)

	_, err = NewTokenIssuer("secret-b", time.Hour, clock).ValidateToken(token)
	req.Error(err)
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("a-long-password-for-bench-123")
	}
}
