package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRecipeRequest 使用者的食譜生成請求記錄
// (userID, recipeID) 組合唯一；重複請求只更新 UpdatedAt
type UserRecipeRequest struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	UserID   uint   `gorm:"uniqueIndex:idx_user_recipe;index;not null" json:"userId"`
	RecipeID string `gorm:"uniqueIndex:idx_user_recipe;index;size:36;not null" json:"recipeId"`

	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"recipe,omitempty"`

	CreatedAt time.Time `json:"createdAt"` // 最初請求時間
	UpdatedAt time.Time `json:"updatedAt"` // 最後請求時間
}

// TableName 指定表名
func (UserRecipeRequest) TableName() string {
	return "user_recipe_requests"
}

// BeforeCreate 產生 UUID 主鍵
func (r *UserRecipeRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// IsRecentRequest 是否為 24 小時內的請求
func (r *UserRecipeRequest) IsRecentRequest() bool {
	return r.UpdatedAt.After(time.Now().AddDate(0, 0, -1))
}
