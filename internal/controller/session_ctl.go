package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bizdir_listing/internal/api/dto"
	"bizdir_listing/internal/middleware"
	"bizdir_listing/internal/session"
)

// SessionManager 会话变更入口
type SessionManager interface {
	Login(ctx context.Context, email, password string) (session.Session, error)
	Refresh(ctx context.Context, refreshToken string) (session.Session, error)
	Logout(ctx context.Context, s session.Session) error
}

// SessionController 登录会话控制器
type SessionController struct {
	manager SessionManager
	cookies middleware.CookieConfig
	log     *zap.Logger
}

func NewSessionController(manager SessionManager, cookies middleware.CookieConfig, log *zap.Logger) *SessionController {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionController{manager: manager, cookies: cookies, log: log}
}

// Login 登录
// @Summary 邮箱密码登录，令牌写入 HttpOnly Cookie
// @Tags Session
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.SessionResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/session/login [post]
func (ctrl *SessionController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	s, err := ctrl.manager.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetSessionCookies(c, ctrl.cookies, s)
	success(c, http.StatusOK, dto.ToSessionResponse(s, true))
}

// Refresh 刷新令牌
// @Summary 使用刷新令牌换取新的访问令牌
// @Tags Session
// @Accept json
// @Produce json
// @Param body body dto.RefreshRequest false "为空时读取 Cookie"
// @Success 200 {object} dto.SessionResponse
// @Router /api/session/refresh [post]
func (ctrl *SessionController) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(middleware.CookieRefreshToken)
	}
	if req.RefreshToken == "" {
		fail(c, http.StatusUnauthorized, "未提供刷新令牌", nil)
		return
	}

	s, err := ctrl.manager.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetSessionCookies(c, ctrl.cookies, s)
	success(c, http.StatusOK, dto.ToSessionResponse(s, true))
}

// Logout 注销
// @Summary 注销并清除 Cookie
// @Tags Session
// @Success 200 {object} map[string]interface{}
// @Router /api/session/logout [post]
func (ctrl *SessionController) Logout(c *gin.Context) {
	s := middleware.GetSession(c)
	if err := ctrl.manager.Logout(c.Request.Context(), s); err != nil {
		// 本地 Cookie 照常清除
		ctrl.log.Warn("注销刷新令牌失败", zap.String("user_id", s.UserID()), zap.Error(err))
	}
	middleware.ClearSessionCookies(c, ctrl.cookies)
	success(c, http.StatusOK, nil)
}

// Me 当前会话
// @Summary 当前登录用户
// @Tags Session
// @Produce json
// @Success 200 {object} dto.SessionResponse
// @Router /api/session [get]
func (ctrl *SessionController) Me(c *gin.Context) {
	success(c, http.StatusOK, dto.ToSessionResponse(middleware.GetSession(c), false))
}
