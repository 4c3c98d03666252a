package dto

import (
	"bizdir_listing/internal/model"
	"bizdir_listing/internal/wizard"
)

// ==================== 请求 DTO ====================

// StepsQuery 步骤定义查询
type StepsQuery struct {
	BusinessTypes string `form:"business_types"` // 逗号分隔，如 Product,Service
}

// StartWizardRequest 开始表单会话；listing_id 为空表示新建
type StartWizardRequest struct {
	ListingID string `json:"listing_id" binding:"omitempty,max=64"`
}

// UpdateFieldRequest 修改字段
type UpdateFieldRequest struct {
	Path  string      `json:"path" binding:"required,max=128"`
	Value interface{} `json:"value"`
}

// JumpRequest 跳转步骤，step_id 优先
type JumpRequest struct {
	Step   *int   `json:"step" binding:"omitempty,min=0"`
	StepID string `json:"step_id" binding:"omitempty,max=64"`
}

// SubmissionHistoryQuery 提交记录查询
type SubmissionHistoryQuery struct {
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

// ==================== 响应 DTO ====================

// FieldVO 字段定义
type FieldVO struct {
	Path     string `json:"path"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Message  string `json:"message"`
}

// StepVO 步骤定义
type StepVO struct {
	Index  int       `json:"index"`
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Fields []FieldVO `json:"fields"`
}

// StepsResponse 步骤序列
type StepsResponse struct {
	BusinessTypes model.BusinessTypes `json:"business_types"`
	Steps         []StepVO            `json:"steps"`
}

// SubmissionVO 提交记录
type SubmissionVO struct {
	ID           int64  `json:"id"`
	ListingID    string `json:"listing_id"`
	Operation    string `json:"operation"`
	Status       string `json:"status"`
	HTTPStatus   int    `json:"http_status"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// ValidationErrorResponse 422 响应的 data
type ValidationErrorResponse struct {
	Step   string              `json:"step"`
	Fields []wizard.FieldError `json:"fields"`
}

// ==================== 转换 ====================

// ToStepsResponse 步骤定义转视图
func ToStepsResponse(types model.BusinessTypes, steps []wizard.Step) StepsResponse {
	out := StepsResponse{BusinessTypes: types, Steps: make([]StepVO, len(steps))}
	for i, s := range steps {
		fields := make([]FieldVO, len(s.Fields))
		for j, f := range s.Fields {
			typ := wizard.FieldType(f.Path)
			if typ == "" {
				typ = "group" // 跨字段规则
			}
			fields[j] = FieldVO{
				Path:     f.Path,
				Type:     typ,
				Required: f.Required,
				Message:  f.Message,
			}
		}
		out.Steps[i] = StepVO{Index: i, ID: s.ID, Title: s.Title, Fields: fields}
	}
	return out
}

// ToSubmissionVOs 提交记录转视图
func ToSubmissionVOs(recs []model.SubmissionRecord) []SubmissionVO {
	out := make([]SubmissionVO, len(recs))
	for i, r := range recs {
		out[i] = SubmissionVO{
			ID:           r.ID,
			ListingID:    r.ListingID,
			Operation:    r.Operation,
			Status:       r.Status,
			HTTPStatus:   r.HTTPStatus,
			ErrorMessage: r.ErrorMessage,
			CreatedAt:    r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	return out
}
