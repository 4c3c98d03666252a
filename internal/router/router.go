package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"bizdir_listing/internal/controller"
	"bizdir_listing/internal/middleware"

	_ "bizdir_listing/docs"
)

// Deps 路由依赖
type Deps struct {
	WizardCtl      *controller.WizardController
	SessionCtl     *controller.SessionController
	Auth           gin.HandlerFunc // SessionAuth
	SubmitLimiter  *middleware.CooldownLimiter
	SubmitCooldown time.Duration
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, d Deps) {
	// 1. Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 2. API 路由组
	api := r.Group("/api")
	{
		// session 登录会话
		sess := api.Group("/session")
		{
			// POST /api/session/login
			sess.POST("/login", d.SessionCtl.Login)
			// POST /api/session/refresh
			sess.POST("/refresh", d.SessionCtl.Refresh)
			// POST /api/session/logout
			sess.POST("/logout", d.Auth, d.SessionCtl.Logout)
			// GET /api/session
			sess.GET("", d.Auth, d.SessionCtl.Me)
		}

		// wizard 列表表单
		wiz := api.Group("/wizard")
		{
			// GET /api/wizard/steps?business_types=Product,Service
			wiz.GET("/steps", d.WizardCtl.GetSteps)

			sessions := wiz.Group("/sessions", d.Auth)
			{
				sessions.POST("", d.WizardCtl.Start)
				sessions.GET("/:session_id", d.WizardCtl.Get)
				sessions.DELETE("/:session_id", d.WizardCtl.Discard)
				sessions.PATCH("/:session_id/fields", d.WizardCtl.UpdateField)
				sessions.POST("/:session_id/advance", d.WizardCtl.Advance)
				sessions.POST("/:session_id/retreat", d.WizardCtl.Retreat)
				sessions.POST("/:session_id/jump", d.WizardCtl.Jump)
				sessions.POST("/:session_id/images/:slot", d.WizardCtl.UploadImage)

				submit := []gin.HandlerFunc{d.WizardCtl.Submit}
				if d.SubmitLimiter != nil && d.SubmitCooldown > 0 {
					submit = append([]gin.HandlerFunc{middleware.SubmitCooldown(d.SubmitLimiter, d.SubmitCooldown)}, submit...)
				}
				sessions.POST("/:session_id/submit", submit...)
			}
		}

		// listings 提交记录
		listings := api.Group("/listings", d.Auth)
		{
			// GET /api/listings/:listing_id/submissions
			listings.GET("/:listing_id/submissions", d.WizardCtl.ListSubmissions)
		}
	}
}
