package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/constants"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

func setupConfig(t *testing.T, accessExpire int) {
	t.Helper()
	prev := config.GlobalConfig
	config.GlobalConfig = &config.Config{
		Auth: config.AuthConfig{
			JWT: config.JWTConfig{
				Secret:             "test-secret",
				Algorithm:          "HS256",
				AccessTokenExpire:  accessExpire,
				RefreshTokenExpire: 3600,
			},
		},
	}
	t.Cleanup(func() { config.GlobalConfig = prev })
}

func TestGenerateTokenPair(t *testing.T) {
	setupConfig(t, 1800)

	pair, err := GenerateTokenPair("user-1", "a@example.com", "pm")
	require.NoError(t, err)
	assert.Equal(t, 1800, pair.ExpiresIn)

	claims, err := ValidateToken(pair.AccessToken, constants.JWTTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "pm", claims.Role)
	assert.NotEmpty(t, claims.ID)

	refresh, err := ValidateToken(pair.RefreshToken, constants.JWTTypeRefresh)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, refresh.ID)
}

func TestValidateTokenWrongType(t *testing.T) {
	setupConfig(t, 1800)

	token, err := GenerateRefreshToken("user-1", "a@example.com", "viewer")
	require.NoError(t, err)

	_, err = ValidateToken(token, constants.JWTTypeAccess)
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	setupConfig(t, -10)

	token, err := GenerateAccessToken("user-1", "a@example.com", "viewer")
	require.NoError(t, err)

	_, err = ValidateToken(token, constants.JWTTypeAccess)
	assert.ErrorIs(t, err, pkgErrors.ErrTokenExpired)
}

func TestParseTokenBadSignature(t *testing.T) {
	setupConfig(t, 1800)

	token, err := GenerateAccessToken("user-1", "a@example.com", "viewer")
	require.NoError(t, err)

	config.GlobalConfig.Auth.JWT.Secret = "another-secret"
	_, err = ParseToken(token)
	require.Error(t, err)
	appErr, ok := pkgErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, pkgErrors.CodeUnauthorized, appErr.Code)

	_, err = ParseToken("garbage")
	assert.Error(t, err)
}
