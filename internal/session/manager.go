package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"bizdir_listing/pkg/directory"
)

var (
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// refreshTimeout 单次合并刷新调用的上限
const refreshTimeout = 10 * time.Second

// AuthAPI 认证服务
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*directory.TokenResp, error)
	Refresh(ctx context.Context, refreshToken string) (*directory.TokenResp, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Config 令牌校验配置
type Config struct {
	Secret string        // 认证服务的 HS256 签名密钥
	Issuer string        // 为空时不校验
	Leeway time.Duration // 时钟偏差容忍
}

// Manager 会话的唯一变更入口：登录、刷新、注销
// 同一刷新令牌的并发刷新只会调用一次认证服务
type Manager struct {
	auth   AuthAPI
	cfg    Config
	parser *jwt.Parser
	group  singleflight.Group
	now    func() time.Time
	log    *zap.Logger
}

// NewManager 创建会话管理器
func NewManager(auth AuthAPI, cfg Config, log *zap.Logger) *Manager {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{auth: auth, cfg: cfg, now: time.Now, log: log}
	opts = append(opts, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	m.parser = jwt.NewParser(opts...)
	return m
}

// Login 账号密码登录
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	tokens, err := m.auth.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, directory.ErrUnauthorized) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("登录失败: %w", err)
	}
	return m.build(tokens)
}

// Refresh 用刷新令牌换取新会话
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if refreshToken == "" {
		return Session{}, ErrUnauthenticated
	}
	// 合并后的调用不随任一调用方取消，调用方各自按自己的 ctx 放弃等待
	ch := m.group.DoChan(refreshToken, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return m.auth.Refresh(rctx, refreshToken)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
	if res.Err != nil {
		if errors.Is(res.Err, directory.ErrUnauthorized) {
			return Session{}, ErrUnauthenticated
		}
		return Session{}, fmt.Errorf("刷新令牌失败: %w", res.Err)
	}
	if res.Shared {
		m.log.Debug("合并并发刷新请求")
	}
	return m.build(res.Val.(*directory.TokenResp))
}

// Logout 注销刷新令牌
func (m *Manager) Logout(ctx context.Context, s Session) error {
	if s.refreshToken == "" {
		return nil
	}
	if err := m.auth.Logout(ctx, s.refreshToken); err != nil {
		return fmt.Errorf("注销失败: %w", err)
	}
	return nil
}

// Resolve 由请求携带的令牌恢复会话；访问令牌过期时用刷新令牌透明续期
// refreshed 为 true 表示调用方需要下发新的 Cookie
func (m *Manager) Resolve(ctx context.Context, accessToken, refreshToken string) (s Session, refreshed bool, err error) {
	if accessToken != "" {
		claims, perr := m.parse(accessToken)
		if perr == nil {
			return FromClaims(claims, accessToken, refreshToken), false, nil
		}
		if !errors.Is(perr, jwt.ErrTokenExpired) {
			return Session{}, false, fmt.Errorf("%w: %v", ErrUnauthenticated, perr)
		}
	}
	if refreshToken == "" {
		return Session{}, false, ErrUnauthenticated
	}
	s, err = m.Refresh(ctx, refreshToken)
	if err != nil {
		return Session{}, false, err
	}
	return s, true, nil
}

func (m *Manager) parse(token string) (*Claims, error) {
	var claims Claims
	_, err := m.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(m.cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("令牌缺少 sub")
	}
	return &claims, nil
}

func (m *Manager) build(tokens *directory.TokenResp) (Session, error) {
	claims, err := m.parse(tokens.AccessToken)
	if err != nil {
		return Session{}, fmt.Errorf("认证服务返回的令牌无效: %w", err)
	}
	return FromClaims(claims, tokens.AccessToken, tokens.RefreshToken), nil
}
