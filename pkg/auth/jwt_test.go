package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAndValidate(t *testing.T) {
	// Arrange
	svc := NewJWTService("test-secret", "nexusboard", time.Hour)

	// Act
	token, err := svc.GenerateToken("user-123", "ada@example.com", "Ada", "#ff0000")
	require.NoError(t, err)
	claims, err := svc.ValidateToken(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "Ada", claims.Username)
	assert.Equal(t, "#ff0000", claims.Color)
	assert.Equal(t, "nexusboard", claims.Issuer)
}

func TestJWTService_ValidateToken_StripsBearerPrefix(t *testing.T) {
	svc := NewJWTService("test-secret", "nexusboard", time.Hour)
	token, err := svc.GenerateToken("user-123", "", "Ada", "")
	require.NoError(t, err)

	claims, err := svc.ValidateToken("Bearer " + token)

	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
}

func TestJWTService_ValidateToken_WrongSecret(t *testing.T) {
	issuing := NewJWTService("secret-a", "nexusboard", time.Hour)
	validating := NewJWTService("secret-b", "nexusboard", time.Hour)
	token, err := issuing.GenerateToken("user-123", "", "Ada", "")
	require.NoError(t, err)

	_, err = validating.ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ValidateToken_Expired(t *testing.T) {
	svc := NewJWTService("test-secret", "nexusboard", -time.Minute)
	token, err := svc.GenerateToken("user-123", "", "Ada", "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_ValidateToken_WrongIssuer(t *testing.T) {
	issuing := NewJWTService("test-secret", "someone-else", time.Hour)
	validating := NewJWTService("test-secret", "nexusboard", time.Hour)
	token, err := issuing.GenerateToken("user-123", "", "Ada", "")
	require.NoError(t, err)

	_, err = validating.ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestJWTService_ValidateToken_Empty(t *testing.T) {
	svc := NewJWTService("test-secret", "nexusboard", time.Hour)

	_, err := svc.ValidateToken("")

	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestUserContext_RoundTrip(t *testing.T) {
	user := &UserContext{UserID: "user-123", Username: "Ada", Color: "#ff0000"}

	ctx := SetUserInContext(context.Background(), user)
	got, err := GetUserFromContext(ctx)

	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestUserContext_MissingUser(t *testing.T) {
	_, err := GetUserFromContext(context.Background())

	assert.Error(t, err)
}
