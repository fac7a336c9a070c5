package repository

import (
	"context"
	"errors"

	"recipe-pipeline/internal/core/model"

	"gorm.io/gorm"
)

// VideoRepository 影片原始資料存取
type VideoRepository struct {
	db *gorm.DB
}

// NewVideoRepository 創建影片資料存取層
func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// FindByVideoID 依影片 ID 查詢
func (r *VideoRepository) FindByVideoID(ctx context.Context, videoID string) (*model.VideoRecord, error) {
	var record model.VideoRecord
	err := r.db.WithContext(ctx).Where("video_id = ?", videoID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindByVideoIDs 依影片 ID 批次查詢
func (r *VideoRepository) FindByVideoIDs(ctx context.Context, videoIDs []string) ([]model.VideoRecord, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}
	var records []model.VideoRecord
	err := r.db.WithContext(ctx).Where("video_id IN ?", videoIDs).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Create 建立新記錄
// 同一影片同時首次寫入時，以唯一約束為準；輸家回傳 gorm.ErrDuplicatedKey
func (r *VideoRepository) Create(ctx context.Context, record *model.VideoRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// Save 覆寫既有記錄
func (r *VideoRepository) Save(ctx context.Context, record *model.VideoRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// CreateOrReread 建立新記錄；若唯一約束衝突則改讀既有列
func (r *VideoRepository) CreateOrReread(ctx context.Context, record *model.VideoRecord) (*model.VideoRecord, error) {
	err := r.Create(ctx, record)
	if err == nil {
		return record, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.FindByVideoID(ctx, record.VideoID)
	}
	return nil, err
}
