package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 认证服务签发的访问令牌声明，sub 为用户 ID
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Session 当前用户的认证上下文，创建后不可变
// 由已验证的令牌声明经 FromClaims 构造
type Session struct {
	userID       string
	email        string
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func (s Session) UserID() string { return s.userID }
func (s Session) Email() string { return s.email }
func (s Session) AccessToken() string { return s.accessToken }
func (s Session) RefreshToken() string { return s.refreshToken }
func (s Session) ExpiresAt() time.Time { return s.expiresAt }
func (s Session) IsZero() bool { return s.userID == "" }
func (s Session) Expired(now time.Time) bool {
	return !s.expiresAt.IsZero() && !now.Before(s.expiresAt)
}

// FromClaims 由已验证的访问令牌声明构造会话
func FromClaims(claims *Claims, access, refresh string) Session {
	s := Session{
		userID:       claims.Subject,
		email:        claims.Email,
		accessToken:  access,
		refreshToken: refresh,
	}
	if claims.ExpiresAt != nil {
		s.expiresAt = claims.ExpiresAt.Time
	}
	return s
}

// ==================== Context ====================

type ctxKey struct{}

// WithSession 将会话写入 context
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext 读取会话
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok && !s.IsZero()
}

// BearerToken 出站请求使用的访问令牌，可直接作为 directory.TokenFunc
func BearerToken(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.accessToken
	}
	return ""
}
