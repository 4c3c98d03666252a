package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bizdir_listing/internal/model"
	"bizdir_listing/internal/session"
	"bizdir_listing/internal/wizard"
	"bizdir_listing/pkg/directory"
	"bizdir_listing/pkg/utils"
)

var (
	ErrFormSessionNotFound  = errors.New("form session not found or expired")
	ErrFormSessionForbidden = errors.New("form session belongs to another user")
	ErrSubmissionInFlight   = errors.New("a submission is already in progress")
)

// ListingFetcher 读取已有列表
type ListingFetcher interface {
	GetListing(ctx context.Context, id string) (*directory.PersistedListing, error)
}

// Submitter 提交编排
type Submitter interface {
	Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error)
}

// ImageUploader 图片上传与删除
type ImageUploader interface {
	UploadImage(ctx context.Context, slot string, data []byte) (string, error)
	DeleteImage(ctx context.Context, url string) error
}

const (
	FormModeCreate = "create"
	FormModeEdit   = "edit"
)

// FormView 表单会话视图
type FormView struct {
	SessionID string `json:"sessionId"`
	ListingID string `json:"listingId,omitempty"`
	Mode      string `json:"mode"`
	wizard.Snapshot
}

// formSession 单个表单实例，迁移由 mu 串行化
type formSession struct {
	id         string
	userID     string
	listingID  string
	mu         sync.Mutex
	ctl        *wizard.Controller
	submitting atomic.Bool
	uploaded   map[string]bool // 本会话上传的图片，替换时可删除
}

func (fs *formSession) view() *FormView {
	mode := FormModeCreate
	if fs.listingID != "" {
		mode = FormModeEdit
	}
	return &FormView{
		SessionID: fs.id,
		ListingID: fs.listingID,
		Mode:      mode,
		Snapshot:  fs.ctl.Snapshot(),
	}
}

// WizardService 表单会话管理：创建、字段修改、步骤迁移、提交
type WizardService struct {
	fetcher   ListingFetcher
	submitter Submitter
	uploader  ImageUploader
	sessions  *utils.TTLCache[*formSession]
	log       *zap.Logger
}

// NewWizardService 创建表单服务；uploader 可为 nil（不支持图片上传）
func NewWizardService(
	fetcher ListingFetcher,
	submitter Submitter,
	uploader ImageUploader,
	idleTTL time.Duration,
	log *zap.Logger,
) *WizardService {
	if log == nil {
		log = zap.NewNop()
	}
	return &WizardService{
		fetcher:   fetcher,
		submitter: submitter,
		uploader:  uploader,
		sessions:  utils.NewTTLCache[*formSession](idleTTL),
		log:       log,
	}
}

// Start 开始表单会话：listingID 为空为新建，否则先拉取已有列表
// 拉取失败时不创建会话
func (s *WizardService) Start(ctx context.Context, sess session.Session, listingID string) (*FormView, error) {
	var initial *model.ListingFormData
	if listingID != "" {
		persisted, err := s.fetcher.GetListing(ctx, listingID)
		if err != nil {
			return nil, fmt.Errorf("获取列表失败: %w", err)
		}
		initial = ToFormData(persisted)
	}

	fs := &formSession{
		id:        uuid.NewString(),
		userID:    sess.UserID(),
		listingID: listingID,
		ctl:       wizard.NewController(initial),
		uploaded:  map[string]bool{},
	}
	s.sessions.Set(fs.id, fs)

	s.log.Info("表单会话开始",
		zap.String("session_id", fs.id),
		zap.String("user_id", fs.userID),
		zap.String("listing_id", listingID),
	)
	return fs.view(), nil
}

func (s *WizardService) lookup(sess session.Session, id string) (*formSession, error) {
	fs, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrFormSessionNotFound
	}
	if fs.userID != sess.UserID() {
		return nil, ErrFormSessionForbidden
	}
	return fs, nil
}

// with 在会话锁内执行 fn 并返回最新视图
func (s *WizardService) with(sess session.Session, id string, fn func(fs *formSession) error) (*FormView, error) {
	fs, err := s.lookup(sess, id)
	if err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fn(fs); err != nil {
		return nil, err
	}
	return fs.view(), nil
}

// Get 当前会话视图
func (s *WizardService) Get(sess session.Session, id string) (*FormView, error) {
	return s.with(sess, id, func(*formSession) error { return nil })
}

// UpdateField 修改字段，返回当前步骤的校验结果
func (s *WizardService) UpdateField(sess session.Session, id, path string, value interface{}) (*FormView, error) {
	return s.with(sess, id, func(fs *formSession) error {
		_, err := fs.ctl.UpdateField(path, value)
		return err
	})
}

// Advance 下一步
func (s *WizardService) Advance(sess session.Session, id string) (*FormView, error) {
	return s.with(sess, id, func(fs *formSession) error { return fs.ctl.Advance() })
}

// Retreat 上一步
func (s *WizardService) Retreat(sess session.Session, id string) (*FormView, error) {
	return s.with(sess, id, func(fs *formSession) error { return fs.ctl.Retreat() })
}

// JumpTo 跳转到指定步骤；stepID 非空时优先按 ID 跳转
func (s *WizardService) JumpTo(sess session.Session, id string, step int, stepID string) (*FormView, error) {
	return s.with(sess, id, func(fs *formSession) error {
		if stepID != "" {
			return fs.ctl.JumpToID(stepID)
		}
		return fs.ctl.JumpTo(step)
	})
}

// UploadImage 上传 logo / banner 并写入表单
func (s *WizardService) UploadImage(ctx context.Context, sess session.Session, id, slot string, data []byte) (*FormView, error) {
	if s.uploader == nil {
		return nil, errors.New("未配置图片存储")
	}
	fs, err := s.lookup(sess, id)
	if err != nil {
		return nil, err
	}
	var path string
	switch slot {
	case ImageSlotLogo:
		path = wizard.SectionLogo + ".ref"
	case ImageSlotBanner:
		path = wizard.SectionBanner + ".ref"
	default:
		return nil, ErrUnknownSlot
	}

	// 上传在锁外进行
	url, err := s.uploader.UploadImage(ctx, slot, data)
	if err != nil {
		return nil, err
	}

	var replaced string
	view, err := s.with(sess, id, func(fs2 *formSession) error {
		if fs2 != fs {
			return ErrFormSessionNotFound
		}
		prev, _ := wizard.GetField(fs.ctl.Data(), path)
		if _, err := fs.ctl.UpdateField(path, url); err != nil {
			return err
		}
		if prev != nil && fs.uploaded[*prev] {
			replaced = *prev
			delete(fs.uploaded, *prev)
		}
		fs.uploaded[url] = true
		return nil
	})
	if err != nil {
		s.deleteImage(ctx, url)
		return nil, err
	}
	// 只删除本会话上传后又被替换的图片，已发布列表的原图保留
	if replaced != "" {
		s.deleteImage(ctx, replaced)
	}
	return view, nil
}

func (s *WizardService) deleteImage(ctx context.Context, url string) {
	if err := s.uploader.DeleteImage(context.WithoutCancel(ctx), url); err != nil {
		s.log.Warn("删除图片失败", zap.String("url", url), zap.Error(err))
	}
}

// Submit 提交表单。新建要求所有步骤有效，更新要求被修改字段所在步骤有效
// 成功后丢弃会话，失败保留数据以便重试
func (s *WizardService) Submit(ctx context.Context, sess session.Session, id string) (*SubmitResult, error) {
	fs, err := s.lookup(sess, id)
	if err != nil {
		return nil, err
	}
	if !fs.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer fs.submitting.Store(false)

	fs.mu.Lock()
	req := &SubmitRequest{
		SessionID: fs.id,
		UserID:    fs.userID,
		ListingID: fs.listingID,
		Data:      fs.ctl.Data(),
	}
	if fs.listingID == "" {
		err = fs.ctl.ValidateAll()
	} else {
		err = fs.ctl.ValidateTouched()
		req.Sections = fs.ctl.TouchedSections()
	}
	fs.mu.Unlock()
	if err != nil {
		return nil, err
	}

	result, err := s.submitter.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	s.sessions.Delete(fs.id)
	return result, nil
}

// Discard 放弃会话
func (s *WizardService) Discard(sess session.Session, id string) error {
	if _, err := s.lookup(sess, id); err != nil {
		return err
	}
	s.sessions.Delete(id)
	return nil
}

// SweepExpired 清理空闲过期的会话
func (s *WizardService) SweepExpired() int {
	return s.sessions.Sweep(func(id string, fs *formSession) {
		s.log.Debug("表单会话过期", zap.String("session_id", id), zap.String("user_id", fs.userID))
	})
}

// ActiveSessions 当前会话数
func (s *WizardService) ActiveSessions() int {
	return s.sessions.Len()
}
