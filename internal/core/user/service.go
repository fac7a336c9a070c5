package user

import (
	"context"
	"fmt"

	"recipe-pipeline/internal/core/model"
	"recipe-pipeline/internal/core/repository"
	"recipe-pipeline/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service 使用者資料服務
type Service struct {
	userRepo *repository.UserRepository
}

// NewService 創建使用者資料服務
func NewService(userRepo *repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// GetProfile 取得使用者資料
func (s *Service) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if user == nil || !user.IsActive() {
		return nil, common.ErrUserNotFound
	}
	return user, nil
}

// UpdateInput 可更新的使用者欄位，nil 表示不變更
type UpdateInput struct {
	Name            *string
	Birthday        *string
	MarketingAgreed *bool
	ProfileImageNo  *int
}

// UpdateProfile 更新使用者資料
func (s *Service) UpdateProfile(ctx context.Context, userID uint, input UpdateInput) (*model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = input.Name
	}
	if input.Birthday != nil {
		user.Birthday = input.Birthday
	}
	if input.MarketingAgreed != nil {
		user.MarketingAgreed = *input.MarketingAgreed
	}
	if input.ProfileImageNo != nil {
		user.ProfileImageNo = *input.ProfileImageNo
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// ResetPassword 以手機號碼重設密碼
// 呼叫端需先完成簡訊驗證
func (s *Service) ResetPassword(ctx context.Context, phone, newPassword string) error {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("failed to query user: %w", err)
	}
	if user == nil || !user.IsActive() {
		return common.ErrUserNotFound
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, phone, string(hashed)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	common.LogInfo("用戶密碼已重設", zap.Uint("user_id", user.ID))
	return nil
}

// Withdraw 退會並遮罩個資
func (s *Service) Withdraw(ctx context.Context, userID uint, reason, reasonType string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	user.Withdraw(reason, reasonType)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to withdraw user: %w", err)
	}

	common.LogInfo("用戶退會",
		zap.Uint("user_id", userID),
		zap.String("reason_type", reasonType))
	return nil
}
