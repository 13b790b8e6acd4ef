package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"canopy-realtime/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)
	maker := NewTokenMaker("unit_test_secret_key_2026")
	user := domain.User{ID: "u1", Name: "Alice"}

	token, err := maker.Generate(user, time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	got, err := maker.Validate(token)
	req.NoError(err)
	req.Equal(user, got)
}

func TestTokenExpired(t *testing.T) {
	req := require.New(t)
	maker := NewTokenMaker("unit_test_secret_key_2026")

	token, err := maker.Generate(domain.User{ID: "u1", Name: "Alice"}, -time.Minute)
	req.NoError(err)

	_, err = maker.Validate(token)
	req.Error(err)
}

func TestTokenWrongSecret(t *testing.T) {
	req := require.New(t)
	maker := NewTokenMaker("unit_test_secret_key_2026")
	other := NewTokenMaker("a_completely_different_secret")

	token, err := maker.Generate(domain.User{ID: "u1", Name: "Alice"}, time.Hour)
	req.NoError(err)

	_, err = other.Validate(token)
	req.Error(err)
}

func TestTokenGarbage(t *testing.T) {
	req := require.New(t)
	maker := NewTokenMaker("unit_test_secret_key_2026")

	_, err := maker.Validate("not.a.token")
	req.Error(err)
}
