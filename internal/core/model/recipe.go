package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeStatus 食譜生成狀態
type RecipeStatus string

const (
	RecipeStatusPending    RecipeStatus = "pending"
	RecipeStatusProcessing RecipeStatus = "processing"
	RecipeStatusCompleted  RecipeStatus = "completed"
	RecipeStatusFailed     RecipeStatus = "failed"
)

// Recipe 食譜生成工作
// 每個影片只會有一筆，狀態機：pending → processing → {completed | failed}
// failed 可經由新的生成請求回到 processing；completed 為終態
type Recipe struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	YoutubeID string       `gorm:"uniqueIndex;size:50;not null" json:"youtubeId"`
	Status    RecipeStatus `gorm:"size:20;index;default:pending" json:"status"`

	// 萃取結果
	Title         string             `gorm:"size:500" json:"title,omitempty"`
	Description   string             `gorm:"type:text" json:"description,omitempty"`
	Steps         []RecipeStep       `gorm:"serializer:json" json:"steps,omitempty"`
	Ingredients   []RecipeIngredient `gorm:"serializer:json" json:"ingredients,omitempty"`
	Nutrition     *NutritionInfo     `gorm:"serializer:json" json:"nutrition,omitempty"`
	Categories    []string           `gorm:"serializer:json" json:"categories,omitempty"`
	Tags          []string           `gorm:"serializer:json" json:"tags,omitempty"`
	Difficulty    string             `gorm:"size:50" json:"difficulty,omitempty"`
	EstimatedTime int                `json:"estimatedTime,omitempty"`
	Servings      int                `json:"servings,omitempty"`

	ErrorMessage string    `gorm:"type:text" json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Recipe) TableName() string {
	return "recipes"
}

// BeforeCreate 產生 UUID 主鍵
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// RecipeStep 食譜步驟（含影片時間區間）
type RecipeStep struct {
	StepNumber       int      `json:"stepNumber"`
	Summary          string   `json:"summary"`
	StartTimeSeconds float64  `json:"startTimeSeconds"`
	EndTimeSeconds   float64  `json:"endTimeSeconds"`
	Techniques       []string `json:"techniques,omitempty"`
	Tools            []string `json:"tools,omitempty"`
}

// RecipeIngredient 食材
type RecipeIngredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount,omitempty"`
	Unit   string `json:"unit,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// NutritionInfo 營養資訊估算
type NutritionInfo struct {
	Calories      *float64 `json:"calories,omitempty"`
	Protein       *float64 `json:"protein,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Fat           *float64 `json:"fat,omitempty"`
	Fiber         *float64 `json:"fiber,omitempty"`
	Sodium        *float64 `json:"sodium,omitempty"`
}

// IsProcessing 是否正在生成
func (r *Recipe) IsProcessing() bool {
	return r.Status == RecipeStatusProcessing
}

// IsCompleted 是否已完成
func (r *Recipe) IsCompleted() bool {
	return r.Status == RecipeStatusCompleted
}

// IsFailed 是否失敗
func (r *Recipe) IsFailed() bool {
	return r.Status == RecipeStatusFailed
}
