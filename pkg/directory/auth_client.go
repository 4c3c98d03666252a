package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized 认证服务拒绝凭证
var ErrUnauthorized = errors.New("unauthorized")

// AuthClient 认证服务客户端（基于 Cookie 的访问/刷新令牌）
type AuthClient struct {
	c *Client
}

// NewAuthClient 创建认证服务客户端，认证请求不自动重试
func NewAuthClient(cfg ClientConfig) *AuthClient {
	cfg.FetchRetries = 0
	return &AuthClient{c: NewClient(cfg, nil)}
}

// Login 账号密码登录
func (a *AuthClient) Login(ctx context.Context, email, password string) (*TokenResp, error) {
	return a.tokenCall(ctx, "/auth/login", &LoginReq{Email: email, Password: password})
}

// Refresh 使用刷新令牌换取新的令牌对
func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (*TokenResp, error) {
	return a.tokenCall(ctx, "/auth/refresh", &RefreshReq{RefreshToken: refreshToken})
}

// Logout 注销刷新令牌
func (a *AuthClient) Logout(ctx context.Context, refreshToken string) error {
	resp, err := a.c.writer.R().
		SetContext(ctx).
		SetBody(&RefreshReq{RefreshToken: refreshToken}).
		Post("/auth/logout")
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusUnauthorized {
		return toAPIError(resp)
	}
	return nil
}

func (a *AuthClient) tokenCall(ctx context.Context, path string, body interface{}) (*TokenResp, error) {
	var out TokenResp
	resp, err := a.c.writer.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("auth %s: %w", path, err)
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.IsError():
		return nil, toAPIError(resp)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("auth %s: empty access token", path)
	}
	return &out, nil
}
