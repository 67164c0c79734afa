package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/cache"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/crypto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/jwt"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/constants"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

type AuthService interface {
	Register(req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, claims *jwt.UserClaims) error
	VerifyToken(ctx context.Context, token string) (*jwt.UserClaims, error)
}

type authService struct {
	cfg         *config.AuthConfig
	userRepo    repository.UserRepository
	teamRepo    repository.TeamRepository
	ldapService LDAPService
	tokens      cache.TokenStore
	logger      *zap.Logger
	now         Clock
}

func NewAuthService(
	cfg *config.AuthConfig,
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	ldapService LDAPService,
	tokens cache.TokenStore,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:         cfg,
		userRepo:    userRepo,
		teamRepo:    teamRepo,
		ldapService: ldapService,
		tokens:      tokens,
		logger:      logger,
		now:         utcNow,
	}
}

// Register 注册; 团队不存在时创建, 新团队的首个用户为 owner
func (s *authService) Register(req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	email := normalizeEmail(req.Email)
	if existing, err := s.userRepo.FindByEmail(email); err == nil && existing != nil {
		return nil, pkgErrors.New(pkgErrors.CodeConflict, "Email already registered")
	} else if err != nil && !pkgErrors.IsNotFound(err) {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:          email,
		Name:           req.Name,
		HashedPassword: hashed,
		IsActive:       true,
		Role:           model.UserRoleContributor,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.FindByName(req.TeamName)
	switch {
	case err == nil:
		user.TeamID = team.ID
		if err := s.userRepo.Create(user); err != nil {
			return nil, err
		}
	case pkgErrors.IsNotFound(err):
		team = &model.Team{Name: req.TeamName}
		user.Role = model.UserRoleOwner
		if err := s.userRepo.CreateWithTeam(team, user); err != nil {
			return nil, err
		}
		s.logger.Info("注册时创建团队", zap.String("team_id", team.ID), zap.String("team", team.Name))
	default:
		return nil, err
	}

	s.logger.Info("用户注册成功", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return s.issue(user)
}

func (s *authService) Login(req *dto.LoginRequest) (*dto.TokenResponse, error) {
	var user *model.User
	var err error

	switch req.AuthType {
	case constants.AuthTypeLDAP:
		user, err = s.authenticateLDAP(req.Email, req.Password)
	case constants.AuthTypeLocal, "":
		user, err = s.authenticateLocal(req.Email, req.Password)
	default:
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "Unsupported auth type")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("用户登录", zap.String("user_id", user.ID), zap.String("auth_type", req.AuthType))
	return s.issue(user)
}

func (s *authService) authenticateLocal(email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(normalizeEmail(email))
	if err != nil {
		if pkgErrors.IsNotFound(err) {
			crypto.CheckPassword(password, "")
			return nil, pkgErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	// 验证密码
	if !crypto.CheckPassword(password, user.HashedPassword) {
		return nil, pkgErrors.ErrInvalidCredentials
	}

	// 检查状态
	if !user.IsActive {
		return nil, pkgErrors.ErrUserDisabled
	}

	// 旧成本的哈希在登录成功后升级
	if crypto.NeedsRehash(user.HashedPassword) {
		s.rehash(user, password)
	}
	return user, nil
}

func (s *authService) rehash(user *model.User, password string) {
	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return
	}
	user.HashedPassword = hashed
	if err := s.userRepo.Update(user); err != nil {
		s.logger.Warn("密码哈希升级失败", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// authenticateLDAP 目录认证, 用户需已在系统中开通
func (s *authService) authenticateLDAP(login, password string) (*model.User, error) {
	if !s.cfg.LDAP.Enabled || s.ldapService == nil {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "LDAP authentication is not enabled")
	}

	identity, err := s.ldapService.Authenticate(login, password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(normalizeEmail(identity.Email))
	if err != nil {
		if pkgErrors.IsNotFound(err) {
			s.logger.Warn("LDAP用户未开通", zap.String("email", identity.Email))
			return nil, pkgErrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgErrors.ErrUserDisabled
	}
	return user, nil
}

// RefreshToken 刷新令牌, 旧的刷新令牌随即作废
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := jwt.ValidateToken(refreshToken, constants.JWTTypeRefresh)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if pkgErrors.IsNotFound(err) {
			return nil, pkgErrors.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgErrors.ErrUserDisabled
	}

	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Logout 作废当前访问令牌直到其过期
func (s *authService) Logout(ctx context.Context, claims *jwt.UserClaims) error {
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}
	s.logger.Info("用户登出", zap.String("user_id", claims.UserID))
	return nil
}

// VerifyToken 校验访问令牌及其吊销状态
func (s *authService) VerifyToken(ctx context.Context, token string) (*jwt.UserClaims, error) {
	claims, err := jwt.ValidateToken(token, constants.JWTTypeAccess)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *authService) checkRevoked(ctx context.Context, claims *jwt.UserClaims) error {
	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternalError, "Failed to check token", err)
	}
	if revoked {
		return pkgErrors.ErrTokenRevoked
	}
	return nil
}

func (s *authService) revoke(ctx context.Context, claims *jwt.UserClaims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.tokens.Revoke(ctx, claims.ID, ttl); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternalError, "Failed to revoke token", err)
	}
	return nil
}

func (s *authService) issue(user *model.User) (*dto.TokenResponse, error) {
	pair, err := jwt.GenerateTokenPair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "Failed to generate token", err)
	}
	return &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    constants.TokenTypeBearer,
		ExpiresIn:    pair.ExpiresIn,
		User:         toUserResponse(user),
	}, nil
}
