package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/constants"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

// UserClaims 用户Claims
type UserClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"` // access or refresh
	jwt.RegisteredClaims
}

// TokenPair 访问/刷新令牌
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // 访问令牌有效期(秒)
}

// signingMethod 按配置选择HMAC算法
func signingMethod(alg string) jwt.SigningMethod {
	switch alg {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

func generate(userID, email, role, tokenType string, ttl time.Duration) (string, error) {
	cfg := config.GlobalConfig.Auth.JWT
	now := time.Now()

	claims := UserClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(signingMethod(cfg.Algorithm), claims)
	return token.SignedString([]byte(cfg.Secret))
}

// GenerateAccessToken 生成访问Token
func GenerateAccessToken(userID, email, role string) (string, error) {
	cfg := config.GlobalConfig.Auth.JWT
	return generate(userID, email, role, constants.JWTTypeAccess, time.Duration(cfg.AccessTokenExpire)*time.Second)
}

// GenerateRefreshToken 生成刷新Token
func GenerateRefreshToken(userID, email, role string) (string, error) {
	cfg := config.GlobalConfig.Auth.JWT
	return generate(userID, email, role, constants.JWTTypeRefresh, time.Duration(cfg.RefreshTokenExpire)*time.Second)
}

// GenerateTokenPair 同时生成访问与刷新Token
func GenerateTokenPair(userID, email, role string) (*TokenPair, error) {
	access, err := GenerateAccessToken(userID, email, role)
	if err != nil {
		return nil, err
	}
	refresh, err := GenerateRefreshToken(userID, email, role)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    config.GlobalConfig.Auth.JWT.AccessTokenExpire,
	}, nil
}

// ParseToken 解析Token
func ParseToken(tokenString string) (*UserClaims, error) {
	cfg := config.GlobalConfig.Auth.JWT

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名方法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithValidMethods([]string{signingMethod(cfg.Algorithm).Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, pkgErrors.ErrTokenExpired
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeUnauthorized, "Invalid token", err)
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, pkgErrors.ErrInvalidToken
}

// ValidateToken 验证Token有效性及类型
func ValidateToken(tokenString, tokenType string) (*UserClaims, error) {
	claims, err := ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Type != tokenType {
		return nil, pkgErrors.ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, pkgErrors.ErrInvalidToken
	}

	return claims, nil
}
