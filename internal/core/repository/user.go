package repository

import (
	"context"
	"errors"

	"recipe-pipeline/internal/core/model"

	"gorm.io/gorm"
)

// UserRepository 使用者資料存取
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 創建使用者資料存取層
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID 依主鍵查詢
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail 依電子郵件查詢
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByPhone 依手機號碼查詢
func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create 建立新使用者
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Save 覆寫既有使用者
func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdatePassword 依手機號碼更新密碼
func (r *UserRepository) UpdatePassword(ctx context.Context, phone, hashedPassword string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("phone = ?", phone).
		Update("password", hashedPassword).Error
}

// FindWithdrawn 查詢已退會的使用者
func (r *UserRepository) FindWithdrawn(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Where("is_withdrawal = ?", true).Find(&users).Error
	return users, err
}
