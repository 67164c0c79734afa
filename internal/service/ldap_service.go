package service

import (
	"fmt"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

const ldapDialTimeout = 5 * time.Second

// LDAPIdentity 目录中的用户信息
type LDAPIdentity struct {
	DN          string
	Email       string
	DisplayName string
}

// LDAPService 目录账号校验, 成功后由 AuthService 建立本地用户
type LDAPService interface {
	Authenticate(login, password string) (*LDAPIdentity, error)
}

type ldapService struct {
	cfg *config.LDAPConfig
}

func NewLDAPService(cfg *config.LDAPConfig) LDAPService {
	return &ldapService{cfg: cfg}
}

func (s *ldapService) Authenticate(login, password string) (*LDAPIdentity, error) {
	if !s.cfg.Enabled {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "LDAP authentication is not enabled")
	}
	// 空密码会被部分服务器当作匿名绑定
	if password == "" {
		return nil, pkgErrors.ErrInvalidCredentials
	}

	conn, err := s.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	identity, err := s.lookup(conn, login)
	if err != nil {
		return nil, err
	}

	// 以用户身份重新绑定即校验密码
	if err := conn.Bind(identity.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, pkgErrors.ErrInvalidCredentials
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeUpstreamError, "LDAP bind failed", err)
	}

	if identity.Email == "" {
		identity.Email = login
	}
	return identity, nil
}

// dial 连接目录并以服务账号绑定
func (s *ldapService) dial() (*ldap.Conn, error) {
	conn, err := ldap.DialURL(ldapURL(s.cfg), ldap.DialWithDialer(&net.Dialer{Timeout: ldapDialTimeout}))
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeUpstreamError, "LDAP connection failed", err)
	}
	conn.SetTimeout(ldapDialTimeout)

	if err := conn.Bind(s.cfg.BindDN, s.cfg.BindPassword); err != nil {
		conn.Close()
		return nil, pkgErrors.Wrap(pkgErrors.CodeUpstreamError, "LDAP bind failed", err)
	}
	return conn, nil
}

// lookup 登录名必须恰好匹配一个条目
func (s *ldapService) lookup(conn *ldap.Conn, login string) (*LDAPIdentity, error) {
	attrs := s.cfg.Attributes
	req := ldap.NewSearchRequest(
		s.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		2, int(ldapDialTimeout/time.Second), false,
		buildUserFilter(s.cfg.UserFilter, login),
		[]string{attrs.Email, attrs.DisplayName},
		nil,
	)

	result, err := conn.Search(req)
	if err != nil && !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return nil, pkgErrors.Wrap(pkgErrors.CodeUpstreamError, "LDAP search failed", err)
	}
	if result == nil || len(result.Entries) != 1 {
		return nil, pkgErrors.ErrInvalidCredentials
	}

	entry := result.Entries[0]
	return &LDAPIdentity{
		DN:          entry.DN,
		Email:       entry.GetAttributeValue(attrs.Email),
		DisplayName: entry.GetAttributeValue(attrs.DisplayName),
	}, nil
}

func ldapURL(cfg *config.LDAPConfig) string {
	scheme := "ldap"
	if cfg.UseSSL {
		scheme = "ldaps"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)))
}

// buildUserFilter 按配置模板生成过滤器, 登录名会被转义
func buildUserFilter(template, login string) string {
	if template == "" {
		template = "(mail=%s)"
	}
	return fmt.Sprintf(template, ldap.EscapeFilter(login))
}
