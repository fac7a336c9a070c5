package repository

import (
	"context"
	"errors"
	"time"

	"recipe-pipeline/internal/core/model"

	"gorm.io/gorm"
)

// UserRecipeRequestRepository 使用者食譜請求記錄存取
type UserRecipeRequestRepository struct {
	db *gorm.DB
}

// NewUserRecipeRequestRepository 創建請求記錄存取層
func NewUserRecipeRequestRepository(db *gorm.DB) *UserRecipeRequestRepository {
	return &UserRecipeRequestRepository{db: db}
}

// CreateOrUpdate 建立或更新請求記錄
// 已存在時只更新 UpdatedAt（touch），不新增列
func (r *UserRecipeRequestRepository) CreateOrUpdate(ctx context.Context, userID uint, recipeID string) (*model.UserRecipeRequest, error) {
	existing, err := r.FindByUserAndRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.UpdatedAt = time.Now()
		if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}

	request := &model.UserRecipeRequest{
		UserID:   userID,
		RecipeID: recipeID,
	}
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		// 同一組合同時首次寫入時以唯一約束為準，輸家改走 touch
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.CreateOrUpdate(ctx, userID, recipeID)
		}
		return nil, err
	}
	return request, nil
}

// FindByUserAndRecipe 依 (userID, recipeID) 查詢
func (r *UserRecipeRequestRepository) FindByUserAndRecipe(ctx context.Context, userID uint, recipeID string) (*model.UserRecipeRequest, error) {
	var request model.UserRecipeRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// FindByUserID 查詢使用者的請求記錄，依最後請求時間新到舊，併入食譜資料
func (r *UserRecipeRequestRepository) FindByUserID(ctx context.Context, userID uint, limit int) ([]model.UserRecipeRequest, error) {
	var requests []model.UserRecipeRequest
	err := r.db.WithContext(ctx).
		Preload("Recipe").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}

// FindRecentByUserID 查詢使用者近 N 天內的請求記錄
func (r *UserRecipeRequestRepository) FindRecentByUserID(ctx context.Context, userID uint, days, limit int) ([]model.UserRecipeRequest, error) {
	threshold := time.Now().AddDate(0, 0, -days)

	var requests []model.UserRecipeRequest
	err := r.db.WithContext(ctx).
		Preload("Recipe").
		Where("user_id = ? AND updated_at >= ?", userID, threshold).
		Order("updated_at DESC").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}
