package constants

// 认证类型
const (
	AuthTypeLDAP  = "ldap"
	AuthTypeLocal = "local"
)

// JWT 相关
const (
	JWTTypeAccess   = "access"
	JWTTypeRefresh  = "refresh"
	TokenTypeBearer = "bearer"
)

// HTTP Header
const (
	HeaderAuthorization = "Authorization"
	HeaderBearerPrefix  = "Bearer "
)

// gin.Context 中的键
const (
	ContextKeyUser     = "user"
	ContextKeyUserID   = "user_id"
	ContextKeyRole     = "role"
	ContextKeyTokenID  = "token_id"
	ContextKeyTokenExp = "token_exp"
)

// 分页
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// AI 响应状态
const (
	AIStatusSuccess = "success"
	AIStatusError   = "error"
)
