package dto

import (
	"time"

	"bizdir_listing/internal/session"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,listing_email"`
	Password string `json:"password" binding:"required,max=256"`
}

// RefreshRequest 刷新请求；为空时读取 Cookie
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SessionResponse 当前会话
type SessionResponse struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ToSessionResponse 会话转视图；withToken 为 true 时返回访问令牌（非浏览器客户端使用）
func ToSessionResponse(s session.Session, withToken bool) SessionResponse {
	resp := SessionResponse{
		UserID:    s.UserID(),
		Email:     s.Email(),
		ExpiresAt: s.ExpiresAt(),
	}
	if withToken {
		resp.AccessToken = s.AccessToken()
	}
	return resp
}
