package model

import (
	"gorm.io/datatypes"
)

// ==================== 状态常量 ====================

const (
	// 提交操作
	SubmissionOpCreate = "create"
	SubmissionOpUpdate = "update"

	// 提交结果
	SubmissionStatusSucceeded = "succeeded"
	SubmissionStatusFailed    = "failed"
)

// ==================== 数据库模型 ====================

// SubmissionRecord 表单提交记录（仅用于审计，不回写表单状态）
type SubmissionRecord struct {
	BaseModel
	SessionID    string         `gorm:"size:64;index;comment:表单会话ID" json:"session_id"`
	UserID       string         `gorm:"size:64;index;comment:提交用户" json:"user_id"`
	ListingID    string         `gorm:"size:64;index;comment:目录列表ID" json:"listing_id"`
	Operation    string         `gorm:"size:16;not null;comment:create/update" json:"operation"`
	Status       string         `gorm:"size:16;index;not null;comment:提交结果" json:"status"`
	HTTPStatus   int            `gorm:"comment:后端响应码" json:"http_status"`
	ErrorMessage string         `gorm:"size:1024;comment:错误信息" json:"error_message,omitempty"`
	Payload      datatypes.JSON `gorm:"comment:提交载荷" json:"payload,omitempty"`
}

func (*SubmissionRecord) TableName() string {
	return "listing_submissions"
}

// MarkSucceeded 标记提交成功
func (r *SubmissionRecord) MarkSucceeded(listingID string, httpStatus int) {
	r.Status = SubmissionStatusSucceeded
	r.ListingID = listingID
	r.HTTPStatus = httpStatus
	r.ErrorMessage = ""
}

// MarkFailed 标记提交失败
func (r *SubmissionRecord) MarkFailed(httpStatus int, errMsg string) {
	r.Status = SubmissionStatusFailed
	r.HTTPStatus = httpStatus
	if len(errMsg) > 1024 {
		errMsg = errMsg[:1024]
	}
	r.ErrorMessage = errMsg
}
