package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)

	// 32 random bytes hex-encoded
	assert.Len(t, token, 64)

	other, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestHashToken_Deterministic(t *testing.T) {
	token := "abc123"

	first := HashToken(token)
	second := HashToken(token)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // SHA-256 hex
	assert.NotEqual(t, token, first)
	assert.NotEqual(t, first, HashToken("abc124"))
}

func TestHashPassword(t *testing.T) {
	hash, err := hashPassword("kataLaluan123")
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("kataLaluan123")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("salah")))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcryptCost, cost)
}
