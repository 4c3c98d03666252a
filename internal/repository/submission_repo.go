package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bizdir_listing/internal/model"
)

// ==================== 仓储接口 ====================

// SubmissionRepository 提交记录仓储接口
type SubmissionRepository interface {
	Create(ctx context.Context, rec *model.SubmissionRecord) error
	GetByID(ctx context.Context, id int64) (*model.SubmissionRecord, error)
	ListByListing(ctx context.Context, listingID, userID string, limit int) ([]model.SubmissionRecord, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.SubmissionRecord, error)

	// 统计与清理
	CountByStatus(ctx context.Context, userID string) (map[string]int64, error)
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}

// ==================== 仓储实现 ====================

const defaultListLimit = 50

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepository 创建提交记录仓储
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, rec *model.SubmissionRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, id int64) (*model.SubmissionRecord, error) {
	var rec model.SubmissionRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByListing 某个列表的提交历史，按时间倒序；userID 为空时不过滤用户
func (r *submissionRepo) ListByListing(ctx context.Context, listingID, userID string, limit int) ([]model.SubmissionRecord, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	query := r.db.WithContext(ctx).Where("listing_id = ?", listingID)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	var recs []model.SubmissionRecord
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

func (r *submissionRepo) ListBySession(ctx context.Context, sessionID string) ([]model.SubmissionRecord, error) {
	var recs []model.SubmissionRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&recs).Error
	return recs, err
}

// CountByStatus 按结果统计，userID 为空时统计全部
func (r *submissionRepo) CountByStatus(ctx context.Context, userID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	query := r.db.WithContext(ctx).Model(&model.SubmissionRecord{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	err := query.Select("status, COUNT(*) as total").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

// PurgeBefore 物理删除早于 before 的记录
func (r *submissionRepo) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("created_at < ?", before).
		Delete(&model.SubmissionRecord{})
	return res.RowsAffected, res.Error
}
