package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTOTP(t *testing.T) {
	setup, err := GenerateTOTP("ShareFit", "ana")
	require.NoError(t, err)

	assert.NotEmpty(t, setup.Secret)
	assert.True(t, strings.HasPrefix(setup.URL, "otpauth://totp/ShareFit:ana"))
	assert.Contains(t, setup.URL, "secret="+setup.Secret)
	assert.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))
}

func TestValidateTOTP_Window(t *testing.T) {
	setup, err := GenerateTOTP("ShareFit", "ana")
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	code, err := TOTPCode(setup.Secret, now)
	require.NoError(t, err)
	assert.Len(t, code, 6)

	assert.True(t, ValidateTOTP(code, setup.Secret, now))
	assert.True(t, ValidateTOTP(code, setup.Secret, now.Add(30*time.Second)), "one period of drift is accepted")
	assert.False(t, ValidateTOTP(code, setup.Secret, now.Add(90*time.Second)))
	assert.False(t, ValidateTOTP("000000x", setup.Secret, now))
	assert.False(t, ValidateTOTP(code, "", now))
}
