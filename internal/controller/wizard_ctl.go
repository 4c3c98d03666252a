package controller

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bizdir_listing/internal/api/dto"
	"bizdir_listing/internal/middleware"
	"bizdir_listing/internal/model"
	"bizdir_listing/internal/service"
	"bizdir_listing/internal/wizard"
)

// ==================== 控制器 ====================

// WizardController 列表表单控制器
type WizardController struct {
	wizardService     *service.WizardService
	submissionService *service.SubmissionService
	maxUploadBytes    int64
}

func NewWizardController(
	wizardService *service.WizardService,
	submissionService *service.SubmissionService,
	maxUploadBytes int64,
) *WizardController {
	return &WizardController{
		wizardService:     wizardService,
		submissionService: submissionService,
		maxUploadBytes:    maxUploadBytes,
	}
}

// ==================== API 方法 ====================

// GetSteps 步骤定义
// @Summary 按业务类型获取步骤序列
// @Tags Wizard
// @Produce json
// @Param business_types query string false "逗号分隔，如 Product,Service"
// @Success 200 {object} dto.StepsResponse
// @Router /api/wizard/steps [get]
func (ctrl *WizardController) GetSteps(c *gin.Context) {
	var q dto.StepsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	var types []model.BusinessType
	for _, s := range strings.Split(q.BusinessTypes, ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		t, ok := model.ParseBusinessType(s)
		if !ok {
			fail(c, http.StatusBadRequest, "未知业务类型: "+s, nil)
			return
		}
		types = append(types, t)
	}

	bt := model.NewBusinessTypes(types...)
	success(c, http.StatusOK, dto.ToStepsResponse(bt, wizard.StepsFor(bt)))
}

// Start 开始表单会话
// @Summary 开始新建或编辑列表
// @Tags Wizard
// @Accept json
// @Produce json
// @Param body body dto.StartWizardRequest false "listing_id 为空表示新建"
// @Success 201 {object} service.FormView
// @Failure 404 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/wizard/sessions [post]
func (ctrl *WizardController) Start(c *gin.Context) {
	var req dto.StartWizardRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	view, err := ctrl.wizardService.Start(c.Request.Context(), middleware.GetSession(c), req.ListingID)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, view)
}

// Get 获取表单会话
// @Summary 获取表单当前状态
// @Tags Wizard
// @Produce json
// @Param session_id path string true "表单会话ID"
// @Success 200 {object} service.FormView
// @Router /api/wizard/sessions/{session_id} [get]
func (ctrl *WizardController) Get(c *gin.Context) {
	view, err := ctrl.wizardService.Get(middleware.GetSession(c), c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, view)
}

// Discard 放弃表单会话
// @Summary 放弃表单，数据不提交
// @Tags Wizard
// @Param session_id path string true "表单会话ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/wizard/sessions/{session_id} [delete]
func (ctrl *WizardController) Discard(c *gin.Context) {
	if err := ctrl.wizardService.Discard(middleware.GetSession(c), c.Param("session_id")); err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, nil)
}

// UpdateField 修改字段
// @Summary 修改单个字段，返回最新状态及当前步骤错误
// @Tags Wizard
// @Accept json
// @Produce json
// @Param session_id path string true "表单会话ID"
// @Param body body dto.UpdateFieldRequest true "字段路径和值"
// @Success 200 {object} service.FormView
// @Router /api/wizard/sessions/{session_id}/fields [patch]
func (ctrl *WizardController) UpdateField(c *gin.Context) {
	var req dto.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := ctrl.wizardService.UpdateField(middleware.GetSession(c), c.Param("session_id"), req.Path, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, view)
}

// Advance 下一步
// @Summary 校验当前步骤并前进
// @Tags Wizard
// @Param session_id path string true "表单会话ID"
// @Success 200 {object} service.FormView
// @Failure 422 {object} map[string]interface{}
// @Router /api/wizard/sessions/{session_id}/advance [post]
func (ctrl *WizardController) Advance(c *gin.Context) {
	view, err := ctrl.wizardService.Advance(middleware.GetSession(c), c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, view)
}

// Retreat 上一步
// @Summary 返回上一步，不校验
// @Tags Wizard
// @Param session_id path string true "表单会话ID"
// @Success 200 {object} service.FormView
// @Router /api/wizard/sessions/{session_id}/retreat [post]
func (ctrl *WizardController) Retreat(c *gin.Context) {
	view, err := ctrl.wizardService.Retreat(middleware.GetSession(c), c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, view)
}

// Jump 跳转步骤
// @Summary 跳转到指定步骤，前序步骤需全部有效
// @Tags Wizard
// @Accept json
// @Param session_id path string true "表单会话ID"
// @Param body body dto.JumpRequest true "目标步骤"
// @Success 200 {object} service.FormView
// @Router /api/wizard/sessions/{session_id}/jump [post]
func (ctrl *WizardController) Jump(c *gin.Context) {
	var req dto.JumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Step == nil && req.StepID == "" {
		fail(c, http.StatusBadRequest, "参数错误: step 或 step_id 必填", nil)
		return
	}
	step := 0
	if req.Step != nil {
		step = *req.Step
	}

	view, err := ctrl.wizardService.JumpTo(middleware.GetSession(c), c.Param("session_id"), step, req.StepID)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, view)
}

// Submit 提交
// @Summary 提交表单到目录后端
// @Tags Wizard
// @Param session_id path string true "表单会话ID"
// @Success 200 {object} service.SubmitResult
// @Failure 422 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/wizard/sessions/{session_id}/submit [post]
func (ctrl *WizardController) Submit(c *gin.Context) {
	result, err := ctrl.wizardService.Submit(c.Request.Context(), middleware.GetSession(c), c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, result)
}

// UploadImage 上传 logo / banner
// @Summary 上传图片并写入表单
// @Tags Wizard
// @Accept multipart/form-data
// @Param session_id path string true "表单会话ID"
// @Param slot path string true "logo 或 banner"
// @Param file formData file true "图片文件"
// @Success 200 {object} service.FormView
// @Router /api/wizard/sessions/{session_id}/images/{slot} [post]
func (ctrl *WizardController) UploadImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}
	if ctrl.maxUploadBytes > 0 && fh.Size > ctrl.maxUploadBytes {
		respondError(c, service.ErrImageTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		badRequest(c, err)
		return
	}

	view, err := ctrl.wizardService.UploadImage(c.Request.Context(), middleware.GetSession(c),
		c.Param("session_id"), c.Param("slot"), data)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, view)
}

// ListSubmissions 提交记录
// @Summary 当前用户对某列表的提交记录
// @Tags Wizard
// @Param listing_id path string true "列表ID"
// @Param limit query int false "条数，默认 20"
// @Success 200 {array} dto.SubmissionVO
// @Router /api/listings/{listing_id}/submissions [get]
func (ctrl *WizardController) ListSubmissions(c *gin.Context) {
	var q dto.SubmissionHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	recs, err := ctrl.submissionService.History(c.Request.Context(), middleware.GetUserID(c), c.Param("listing_id"), q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, dto.ToSubmissionVOs(recs))
}
