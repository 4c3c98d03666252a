// Package sessiontest 为其他包的测试构造已登录会话，不经过认证服务
package sessiontest

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bizdir_listing/internal/session"
)

// New 一小时后过期的会话，邮箱与令牌由 userID 派生
func New(userID string) session.Session {
	claims := &session.Claims{
		Email: userID + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	return session.FromClaims(claims, "test-token-"+userID, "")
}
