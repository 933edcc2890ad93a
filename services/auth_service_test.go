package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthServiceLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewAuthService(string(hash))

	assert.NoError(t, svc.Login("hunter2"))
	assert.ErrorIs(t, svc.Login("wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, svc.Login(""), ErrInvalidCredentials)
}
