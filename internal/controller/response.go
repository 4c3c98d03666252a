package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bizdir_listing/internal/api/dto"
	"bizdir_listing/internal/service"
	"bizdir_listing/internal/session"
	"bizdir_listing/internal/wizard"
	"bizdir_listing/pkg/directory"
)

// ==================== 统一响应 ====================

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

func fail(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{
		"code":    status,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, "参数错误: "+err.Error(), nil)
}

// respondError 错误 -> HTTP 状态码
func respondError(c *gin.Context, err error) {
	var verr *wizard.ValidationError
	var subErr *service.SubmissionError
	var apiErr *directory.APIError

	switch {
	case errors.As(err, &verr):
		msg := "表单校验未通过"
		if errors.Is(err, wizard.ErrJumpBlocked) {
			msg = "前序步骤未完成，无法跳转"
		}
		fail(c, http.StatusUnprocessableEntity, msg, dto.ValidationErrorResponse{Step: verr.Step, Fields: verr.Fields})

	case errors.As(err, &subErr):
		// 表单数据保留，可重试；先于包装的目录错误匹配
		fail(c, http.StatusBadGateway, "提交失败: "+subErr.Message, gin.H{
			"operation":   subErr.Op,
			"status_code": subErr.StatusCode,
			"retryable":   true,
		})

	case errors.Is(err, wizard.ErrUnknownField),
		errors.Is(err, wizard.ErrBranchInactive),
		errors.Is(err, wizard.ErrInvalidValue),
		errors.Is(err, service.ErrUnknownSlot),
		errors.Is(err, service.ErrUnsupportedImage):
		fail(c, http.StatusBadRequest, err.Error(), nil)

	case errors.Is(err, service.ErrImageTooLarge):
		fail(c, http.StatusRequestEntityTooLarge, err.Error(), nil)

	case errors.Is(err, wizard.ErrFirstStep),
		errors.Is(err, wizard.ErrLastStep),
		errors.Is(err, wizard.ErrStepOutOfRange),
		errors.Is(err, service.ErrSubmissionInFlight):
		fail(c, http.StatusConflict, err.Error(), nil)

	case errors.Is(err, service.ErrFormSessionNotFound),
		errors.Is(err, directory.ErrListingNotFound):
		fail(c, http.StatusNotFound, err.Error(), nil)

	case errors.Is(err, service.ErrFormSessionForbidden):
		fail(c, http.StatusForbidden, "无权访问该表单", nil)

	case errors.Is(err, session.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "邮箱或密码错误", nil)

	case errors.Is(err, session.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, "Token 无效或已过期", nil)

	case errors.As(err, &apiErr):
		fail(c, http.StatusBadGateway, "目录服务错误: "+apiErr.Message, gin.H{"status_code": apiErr.StatusCode})

	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "服务器内部错误", nil)
	}
}
