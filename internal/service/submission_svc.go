package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"bizdir_listing/internal/model"
	"bizdir_listing/internal/repository"
	"bizdir_listing/pkg/directory"
	"bizdir_listing/pkg/mq"
)

// ==================== 外部依赖 ====================

// ListingAPI 目录后端写接口
type ListingAPI interface {
	CreateListing(ctx context.Context, body *directory.CreateListingReq) (*directory.ListingMutationResp, int, error)
	UpdateListing(ctx context.Context, id string, body *directory.UpdateListingReq) (*directory.ListingMutationResp, int, error)
}

// Notifier 用户事件通知
type Notifier interface {
	NotifyUser(ctx context.Context, userID, event string, data interface{}) error
}

// ==================== 结果与错误 ====================

// ErrSubmissionFailed 所有提交失败都匹配此错误
var ErrSubmissionFailed = errors.New("listing submission failed")

// SubmissionError 创建/更新调用失败，表单数据由调用方保留以便重试
type SubmissionError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s listing failed [%d]: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s listing failed: %s", e.Op, e.Message)
}

func (e *SubmissionError) Is(target error) bool { return target == ErrSubmissionFailed }

func (e *SubmissionError) Unwrap() error { return e.Err }

// SubmitRequest 提交参数；ListingID 为空表示新建
type SubmitRequest struct {
	SessionID string
	UserID    string
	ListingID string
	Data      *model.ListingFormData
	Sections  map[string]bool // 仅更新时使用
}

// SubmitResult 提交成功结果
type SubmitResult struct {
	ListingID  string `json:"listing_id"`
	Operation  string `json:"operation"`
	Status     string `json:"status"`
	HTTPStatus int    `json:"http_status"`
}

// ==================== 服务实现 ====================

// SubmissionService 提交编排：决定新建或更新、组装载荷、调用后端、记录结果
// 不自动重试
type SubmissionService struct {
	api      ListingAPI
	repo     repository.SubmissionRepository
	notifier Notifier
	log      *zap.Logger
}

// NewSubmissionService 创建提交服务；repo / notifier 可为 nil
func NewSubmissionService(
	api ListingAPI,
	repo repository.SubmissionRepository,
	notifier Notifier,
	log *zap.Logger,
) *SubmissionService {
	if notifier == nil {
		notifier = mq.NoopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionService{api: api, repo: repo, notifier: notifier, log: log}
}

// Submit 执行一次提交
func (s *SubmissionService) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	if req.Data == nil {
		return nil, fmt.Errorf("提交数据为空")
	}
	if req.ListingID == "" {
		return s.create(ctx, req)
	}
	return s.update(ctx, req)
}

func (s *SubmissionService) create(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	body := ToCreatePayload(req.Data)
	rec := s.newRecord(req, model.SubmissionOpCreate, body)

	resp, status, err := s.api.CreateListing(ctx, body)
	if err != nil {
		return nil, s.fail(ctx, rec, model.SubmissionOpCreate, status, err)
	}
	return s.succeed(ctx, req, rec, model.SubmissionOpCreate, resp, status), nil
}

func (s *SubmissionService) update(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	body := ToUpdatePayload(req.ListingID, req.Data, req.Sections)
	rec := s.newRecord(req, model.SubmissionOpUpdate, body)
	rec.ListingID = req.ListingID

	resp, status, err := s.api.UpdateListing(ctx, req.ListingID, body)
	if err != nil {
		return nil, s.fail(ctx, rec, model.SubmissionOpUpdate, status, err)
	}
	if resp.ID == "" {
		resp.ID = req.ListingID
	}
	return s.succeed(ctx, req, rec, model.SubmissionOpUpdate, resp, status), nil
}

func (s *SubmissionService) newRecord(req *SubmitRequest, op string, body interface{}) *model.SubmissionRecord {
	payload, err := json.Marshal(body)
	if err != nil {
		s.log.Warn("序列化提交载荷失败", zap.Error(err))
	}
	return &model.SubmissionRecord{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Operation: op,
		Payload:   datatypes.JSON(payload),
	}
}

func (s *SubmissionService) succeed(ctx context.Context, req *SubmitRequest, rec *model.SubmissionRecord,
	op string, resp *directory.ListingMutationResp, status int) *SubmitResult {
	rec.MarkSucceeded(resp.ID, status)
	s.record(ctx, rec)

	result := &SubmitResult{
		ListingID:  resp.ID,
		Operation:  op,
		Status:     resp.Status,
		HTTPStatus: status,
	}
	if err := s.notifier.NotifyUser(ctx, req.UserID, mq.EventListingSubmitted, result); err != nil {
		s.log.Warn("提交通知发送失败", zap.String("listing_id", resp.ID), zap.Error(err))
	}

	s.log.Info("列表提交成功",
		zap.String("session_id", req.SessionID),
		zap.String("listing_id", resp.ID),
		zap.String("op", op),
		zap.Int("status", status),
	)
	return result
}

func (s *SubmissionService) fail(ctx context.Context, rec *model.SubmissionRecord, op string, status int, err error) error {
	subErr := &SubmissionError{Op: op, StatusCode: status, Message: err.Error(), Err: err}

	var apiErr *directory.APIError
	if errors.As(err, &apiErr) {
		subErr.StatusCode = apiErr.StatusCode
		subErr.Message = apiErr.Message
	} else if errors.Is(err, directory.ErrListingNotFound) {
		subErr.Message = "listing not found"
	}

	rec.MarkFailed(subErr.StatusCode, subErr.Message)
	s.record(ctx, rec)

	if nerr := s.notifier.NotifyUser(ctx, rec.UserID, mq.EventListingFailed, map[string]interface{}{
		"operation":   op,
		"listing_id":  rec.ListingID,
		"http_status": subErr.StatusCode,
	}); nerr != nil {
		s.log.Warn("失败通知发送失败", zap.Error(nerr))
	}

	s.log.Warn("列表提交失败",
		zap.String("session_id", rec.SessionID),
		zap.String("op", op),
		zap.Int("status", subErr.StatusCode),
		zap.Error(err),
	)
	return subErr
}

// record 写审计记录，失败只记日志
func (s *SubmissionService) record(ctx context.Context, rec *model.SubmissionRecord) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Create(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Error("保存提交记录失败", zap.String("session_id", rec.SessionID), zap.Error(err))
	}
}

// History 当前用户对某列表的提交历史
func (s *SubmissionService) History(ctx context.Context, userID, listingID string, limit int) ([]model.SubmissionRecord, error) {
	if s.repo == nil {
		return []model.SubmissionRecord{}, nil
	}
	recs, err := s.repo.ListByListing(ctx, listingID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("查询提交记录失败: %w", err)
	}
	return recs, nil
}
