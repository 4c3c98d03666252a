package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bizdir_listing/internal/session"
)

// Cookie 名
const (
	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"
)

// ContextKeySession gin.Context 中的会话键
const ContextKeySession = "session"

// SessionResolver 由令牌恢复会话
type SessionResolver interface {
	Resolve(ctx context.Context, accessToken, refreshToken string) (session.Session, bool, error)
}

// CookieConfig 令牌 Cookie 设置
type CookieConfig struct {
	Domain   string
	Secure   bool
	MaxAge   int // 刷新令牌 Cookie 有效期（秒）
	SameSite http.SameSite
}

// SetSessionCookies 下发令牌 Cookie
func SetSessionCookies(c *gin.Context, cfg CookieConfig, s session.Session) {
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(CookieAccessToken, s.AccessToken(), cfg.MaxAge, "/", cfg.Domain, cfg.Secure, true)
	if s.RefreshToken() != "" {
		c.SetCookie(CookieRefreshToken, s.RefreshToken(), cfg.MaxAge, "/", cfg.Domain, cfg.Secure, true)
	}
}

// ClearSessionCookies 清除令牌 Cookie
func ClearSessionCookies(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(CookieAccessToken, "", -1, "/", cfg.Domain, cfg.Secure, true)
	c.SetCookie(CookieRefreshToken, "", -1, "/", cfg.Domain, cfg.Secure, true)
}

// SessionAuth 认证中间件
// 令牌来源：Authorization: Bearer 优先，其次 Cookie；访问令牌过期时自动刷新并重新下发 Cookie
func SessionAuth(resolver SessionResolver, cookies CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, refresh := tokensFromRequest(c)
		if access == "" && refresh == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未提供认证信息",
			})
			c.Abort()
			return
		}

		s, refreshed, err := resolver.Resolve(c.Request.Context(), access, refresh)
		if err != nil {
			status := http.StatusUnauthorized
			msg := "Token 无效或已过期"
			if !errors.Is(err, session.ErrUnauthenticated) {
				status = http.StatusBadGateway
				msg = "认证服务不可用"
			}
			c.JSON(status, gin.H{
				"code":    status,
				"message": msg,
			})
			c.Abort()
			return
		}
		if refreshed {
			SetSessionCookies(c, cookies, s)
		}

		// 出站请求从 Request context 读取令牌
		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
		c.Set(ContextKeySession, s)
		c.Next()
	}
}

func tokensFromRequest(c *gin.Context) (access, refresh string) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			access = strings.TrimSpace(parts[1])
		}
	}
	if access == "" {
		access, _ = c.Cookie(CookieAccessToken)
	}
	refresh, _ = c.Cookie(CookieRefreshToken)
	return access, refresh
}

// ==================== 辅助函数 ====================

// GetSession 从 Context 获取会话
func GetSession(c *gin.Context) session.Session {
	if v, exists := c.Get(ContextKeySession); exists {
		if s, ok := v.(session.Session); ok {
			return s
		}
	}
	return session.Session{}
}

// GetUserID 从 Context 获取用户 ID
func GetUserID(c *gin.Context) string {
	return GetSession(c).UserID()
}
