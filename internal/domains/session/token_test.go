package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	id := uuid.New()
	token, err := issuer.Issue(id, KindVision)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.SessionID)
	assert.Equal(t, KindVision, claims.Kind)

	assert.NoError(t, issuer.Authorize(token, id))
	assert.ErrorIs(t, issuer.Authorize(token, uuid.New()), ErrInvalidToken)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("other", time.Hour)
	require.NoError(t, err)

	token, err := other.Issue(uuid.New(), KindAudio)
	require.NoError(t, err)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewTokenIssuer("secret", -time.Minute)
	require.NoError(t, err)
	token, err = expired.Issue(uuid.New(), KindAudio)
	require.NoError(t, err)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RandomKey(t *testing.T) {
	a, err := NewTokenIssuer("", 0)
	require.NoError(t, err)
	b, err := NewTokenIssuer("", 0)
	require.NoError(t, err)

	token, err := a.Issue(uuid.New(), KindAudio)
	require.NoError(t, err)
	_, err = b.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
