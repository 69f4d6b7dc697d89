package auth

import (
	"testing"

	"erp-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenRoundTrip(t *testing.T) {
	secret := "test-secret-that-is-long-enough-0001"
	user := &models.User{Email: "qc@example.com", Role: models.RoleQC}
	user.ID = 42

	tokenStr, err := GenerateToken(secret, user)
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(*JWTCustomClaims)
	require.True(t, ok)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "qc@example.com", claims.Email)
	assert.Equal(t, models.RoleQC, claims.Role)
}

func TestGenerateTokenRejectsWrongSecret(t *testing.T) {
	user := &models.User{Email: "qc@example.com", Role: models.RoleQC}

	tokenStr, err := GenerateToken("correct-secret-correct-secret-000000", user)
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret-wrong-secret-0000000000"), nil
	})
	assert.Error(t, err)
}
