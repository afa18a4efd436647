package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/livechat-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	role := domain.RoleAgent
	token, expiresAt, err := tm.GenerateToken(42, domain.SubjectTypeUser, 3, &role)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.SubjectID)
	assert.Equal(t, domain.SubjectTypeUser, claims.Subject)
	assert.Equal(t, int64(3), claims.OrganizationID)
	require.NotNil(t, claims.Role)
	assert.Equal(t, domain.RoleAgent, *claims.Role)
}

func TestTokenCustomerHasNoRole(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, _, err := tm.GenerateToken(100, domain.SubjectTypeCustomer, 3, nil)
	require.NoError(t, err)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectTypeCustomer, claims.Subject)
	assert.Nil(t, claims.Role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 60).GenerateToken(42, domain.SubjectTypeUser, 3, nil)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 60).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	_, err := NewTokenManager("secret", 60).ParseToken("not.a.token")
	assert.Error(t, err)
}
