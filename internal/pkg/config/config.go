package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var GlobalConfig *Config

// Config 全局配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Mail     MailConfig     `mapstructure:"mail"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name         string   `mapstructure:"name"`
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	Mode         string   `mapstructure:"mode"` // debug, release
	APIPrefix    string   `mapstructure:"api_prefix"`
	AllowedHosts []string `mapstructure:"allowed_hosts"` // CORS 允许的来源
}

// AppConfig 运行环境
type AppConfig struct {
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, mysql, sqlite
	URL             string `mapstructure:"url"`    // 完整连接串, 优先于下列字段
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
	LogLevel        string `mapstructure:"log_level"`         // SQL日志级别: silent/error/warn/info
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// RedisConfig 缓存配置, URL 为空时使用进程内存储
type RedisConfig struct {
	URL       string `mapstructure:"url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWT  JWTConfig  `mapstructure:"jwt"`
	LDAP LDAPConfig `mapstructure:"ldap"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	Algorithm          string `mapstructure:"algorithm"`            // HS256, HS384, HS512
	AccessTokenExpire  int    `mapstructure:"access_token_expire"`  // 秒
	RefreshTokenExpire int    `mapstructure:"refresh_token_expire"` // 秒
}

// LDAPConfig LDAP配置
type LDAPConfig struct {
	Enabled      bool           `mapstructure:"enabled"`
	Host         string         `mapstructure:"host"`
	Port         int            `mapstructure:"port"`
	UseSSL       bool           `mapstructure:"use_ssl"`
	BindDN       string         `mapstructure:"bind_dn"`
	BindPassword string         `mapstructure:"bind_password"`
	BaseDN       string         `mapstructure:"base_dn"`
	UserFilter   string         `mapstructure:"user_filter"` // 例如 (mail=%s)
	Attributes   LDAPAttributes `mapstructure:"attributes"`
}

// LDAPAttributes LDAP属性映射
type LDAPAttributes struct {
	Email       string `mapstructure:"email"`
	DisplayName string `mapstructure:"display_name"`
}

// LLMConfig 大模型服务配置
type LLMConfig struct {
	OpenAI      ProviderConfig `mapstructure:"openai"`
	Anthropic   ProviderConfig `mapstructure:"anthropic"`
	Temperature float64        `mapstructure:"temperature"`
	MaxTokens   int            `mapstructure:"max_tokens"`
	Timeout     time.Duration  `mapstructure:"timeout"`
}

// ProviderConfig 单个模型服务商配置
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// StorageConfig 对象存储配置(S3兼容)
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	BasePath  string `mapstructure:"base_path"`
}

// Enabled 是否配置了对象存储
func (c *StorageConfig) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// MailConfig 邮件配置
type MailConfig struct {
	SMTPHost     string   `mapstructure:"smtp_host"`
	SMTPPort     int      `mapstructure:"smtp_port"`
	SMTPUser     string   `mapstructure:"smtp_user"`
	SMTPPassword string   `mapstructure:"smtp_password"`
	From         string   `mapstructure:"from"`
	Recipients   []string `mapstructure:"recipients"` // 自动化通知默认收件人
}

// Enabled 是否配置了SMTP
func (c *MailConfig) Enabled() bool {
	return c.SMTPHost != ""
}

// NotifyConfig 自动化通知渠道
type NotifyConfig struct {
	LarkWebhook string        `mapstructure:"lark_webhook"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, console
	Output     string `mapstructure:"output"` // stdout, file, both
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

// envBindings 兼容常见的扁平环境变量名
var envBindings = map[string]string{
	"server.api_prefix":     "API_V1_STR",
	"server.allowed_hosts":  "ALLOWED_HOSTS",
	"auth.jwt.secret":       "SECRET_KEY",
	"auth.jwt.algorithm":    "ALGORITHM",
	"database.url":          "DATABASE_URL",
	"redis.url":             "REDIS_URL",
	"llm.openai.api_key":    "OPENAI_API_KEY",
	"llm.anthropic.api_key": "ANTHROPIC_API_KEY",
	"storage.bucket":        "S3_BUCKET_NAME",
	"storage.access_key":    "S3_ACCESS_KEY",
	"storage.secret_key":    "S3_SECRET_KEY",
	"storage.region":        "S3_REGION",
	"mail.smtp_host":        "SMTP_HOST",
	"mail.smtp_port":        "SMTP_PORT",
	"mail.smtp_user":        "SMTP_USER",
	"mail.smtp_password":    "SMTP_PASSWORD",
	"app.environment":       "ENVIRONMENT",
	"app.debug":             "DEBUG",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "pm-api")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.api_prefix", "/api/v1")
	v.SetDefault("server.allowed_hosts", []string{"http://localhost:3000", "http://localhost:8000"})

	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", true)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "ai_project_management")
	v.SetDefault("database.username", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 3600)
	v.SetDefault("database.log_level", "silent")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.key_prefix", "pm:")

	v.SetDefault("auth.jwt.secret", "your-secret-key-here")
	v.SetDefault("auth.jwt.algorithm", "HS256")
	v.SetDefault("auth.jwt.access_token_expire", 1800)
	v.SetDefault("auth.jwt.refresh_token_expire", 7*24*3600)
	v.SetDefault("auth.ldap.enabled", false)
	v.SetDefault("auth.ldap.port", 389)
	v.SetDefault("auth.ldap.user_filter", "(mail=%s)")
	v.SetDefault("auth.ldap.attributes.email", "mail")
	v.SetDefault("auth.ldap.attributes.display_name", "cn")

	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.openai.model", "gpt-4")
	v.SetDefault("llm.anthropic.base_url", "https://api.anthropic.com/v1")
	v.SetDefault("llm.anthropic.model", "claude-3-sonnet-20240229")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("storage.endpoint", "s3.amazonaws.com")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.base_path", "avatars")

	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.from", "noreply@example.com")

	v.SetDefault("notify.timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 30)
}

// Load 加载配置, 优先级: 环境变量 > 配置文件 > 默认值
func Load(configPath string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// 读取环境变量
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		auto := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, auto, env); err != nil {
			return nil, fmt.Errorf("绑定环境变量失败: %w", err)
		}
	}

	// 读取配置文件, 未显式指定且默认路径不存在时仅使用默认值与环境变量
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 解析配置
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 设置全局配置
	GlobalConfig = config

	return config, nil
}

// GetDSN 获取数据库DSN
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return normalizeURL(c.URL)
	}
	switch c.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.Username,
			c.Password,
			c.Host,
			c.Port,
			c.Database,
		)
	case "sqlite":
		return c.Database
	default:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			c.Host,
			c.Port,
			c.Username,
			c.Password,
			c.Database,
			c.SSLMode,
		)
	}
}

// normalizeURL 去掉 SQLAlchemy 风格的驱动后缀, 例如 postgresql+asyncpg://
func normalizeURL(url string) string {
	if i := strings.Index(url, "://"); i > 0 {
		scheme := url[:i]
		if j := strings.Index(scheme, "+"); j > 0 {
			return scheme[:j] + url[i:]
		}
	}
	return url
}
