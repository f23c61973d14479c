package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager(testSecret, 2*time.Hour)

	signed, issued, err := m.Issue(42, "ana")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := m.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{TokenAudience}, claims.Audience)
	assert.Equal(t, issued.ID, claims.ID)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.InDelta(t, (2 * time.Hour).Seconds(), m.Remaining(claims).Seconds(), 5)
}

func TestTokenManager_IssueUniqueIDs(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	_, a, err := m.Issue(1, "a")
	require.NoError(t, err)
	_, b, err := m.Issue(1, "a")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestTokenManager_ParseRejects(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	valid, _, err := m.Issue(7, "bo")
	require.NoError(t, err)

	expired := NewTokenManager(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	old, _, err := expired.Issue(7, "bo")
	require.NoError(t, err)

	foreign := func(claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}
	now := time.Now()
	wrongIssuer := foreign(&SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "7", Issuer: "someone-else", Audience: jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}})
	wrongAudience := foreign(&SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "7", Issuer: TokenIssuer, Audience: jwt.ClaimStrings{"other-client"},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}})
	badSubject := foreign(&SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "abc", Issuer: TokenIssuer, Audience: jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}})
	noExpiry := foreign(&SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "7", Issuer: TokenIssuer, Audience: jwt.ClaimStrings{TokenAudience},
	}})

	tests := []struct {
		name  string
		token string
		mgr   *TokenManager
	}{
		{"wrong secret", valid, NewTokenManager("another-secret-entirely-different", time.Hour)},
		{"expired", old, m},
		{"wrong issuer", wrongIssuer, m},
		{"wrong audience", wrongAudience, m},
		{"non numeric subject", badSubject, m},
		{"missing expiry", noExpiry, m},
		{"garbage", "not.a.token", m},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.mgr.Parse(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	claims := &SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "7", Issuer: TokenIssuer, Audience: jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = m.Parse(s)
	assert.Error(t, err)
}

func TestTokenManager_EmptySecret(t *testing.T) {
	_, _, err := NewTokenManager("", time.Hour).Issue(1, "a")
	assert.Error(t, err)
}
