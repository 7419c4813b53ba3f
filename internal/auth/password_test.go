package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	phc, err := HashPassword(DefaultArgon2idParams, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(phc, "$argon2id$v=19$"))

	assert.True(t, VerifyPassword("correct horse battery staple", phc))
	assert.False(t, VerifyPassword("correct horse battery stapl", phc))
	assert.False(t, VerifyPassword("", phc))
}

func TestHashPassword_RejectsEmpty(t *testing.T) {
	_, err := HashPassword(DefaultArgon2idParams, "")
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedPHC(t *testing.T) {
	assert.False(t, VerifyPassword("pw", ""))
	assert.False(t, VerifyPassword("pw", "$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA"))
	assert.False(t, VerifyPassword("pw", "$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$aGFzaA"))
	assert.False(t, VerifyPassword("pw", "$argon2id$v=19$m=65536,t=3,p=1$!!$aGFzaA"))
}

func TestNewRawToken(t *testing.T) {
	a := NewRawToken()
	b := NewRawToken()
	assert.NotEqual(t, a, b)
	// 16 bytes of entropy, base64url without padding.
	assert.Len(t, a, 22)
	assert.NotContains(t, a, "=")
}
