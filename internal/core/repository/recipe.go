package repository

import (
	"context"
	"errors"

	"recipe-pipeline/internal/core/model"

	"gorm.io/gorm"
)

// RecipeRepository 食譜工作存取
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository 創建食譜資料存取層
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// FindByID 依主鍵查詢
func (r *RecipeRepository) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	var recipe model.Recipe
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &recipe, nil
}

// FindByYoutubeID 依影片 ID 查詢
func (r *RecipeRepository) FindByYoutubeID(ctx context.Context, youtubeID string) (*model.Recipe, error) {
	var recipe model.Recipe
	err := r.db.WithContext(ctx).Where("youtube_id = ?", youtubeID).First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &recipe, nil
}

// Create 建立新工作
func (r *RecipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

// CreateOrReread 建立新工作；若影片 ID 唯一約束衝突則改讀既有列
// 回傳值標明這筆是否由本次呼叫建立，輸掉競爭的一方拿到的是既有列
func (r *RecipeRepository) CreateOrReread(ctx context.Context, recipe *model.Recipe) (*model.Recipe, bool, error) {
	err := r.Create(ctx, recipe)
	if err == nil {
		return recipe, true, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, findErr := r.FindByYoutubeID(ctx, recipe.YoutubeID)
		return existing, false, findErr
	}
	return nil, false, err
}

// Update 依主鍵更新指定欄位（單次更新，欄位與狀態一併寫入）
func (r *RecipeRepository) Update(ctx context.Context, id string, values map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", id).Updates(values).Error
}

// UpdateIfStatus 只在現況符合預期狀態時更新，回傳是否真的更新了
// 兩個請求同時要重跑同一筆工作時，只有一方會搶到
func (r *RecipeRepository) UpdateIfStatus(ctx context.Context, id string, from []model.RecipeStatus, values map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Recipe{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete 依主鍵刪除
func (r *RecipeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Recipe{}, "id = ?", id).Error
}

// FindCompleted 查詢已完成的食譜，依建立時間新到舊
func (r *RecipeRepository) FindCompleted(ctx context.Context, limit int) ([]model.Recipe, error) {
	var recipes []model.Recipe
	err := r.db.WithContext(ctx).
		Where("status = ?", model.RecipeStatusCompleted).
		Order("created_at DESC").
		Limit(limit).
		Find(&recipes).Error
	return recipes, err
}

// FindCompletedPage 分頁查詢已完成的食譜，可選標題關鍵字
func (r *RecipeRepository) FindCompletedPage(ctx context.Context, keyword string, offset, limit int) ([]model.Recipe, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Recipe{}).
		Where("status = ?", model.RecipeStatusCompleted)
	if keyword != "" {
		query = query.Where("title LIKE ?", "%"+keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []model.Recipe
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&recipes).Error
	return recipes, total, err
}
