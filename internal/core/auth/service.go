package auth

import (
	"context"
	"fmt"

	"recipe-pipeline/internal/core/model"
	"recipe-pipeline/internal/core/repository"
	"recipe-pipeline/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service 帳號與登入服務
type Service struct {
	userRepo *repository.UserRepository
	jwt      *JWTManager
	kakao    *KakaoClient
	apple    *AppleClient
}

// NewService 創建帳號與登入服務
func NewService(userRepo *repository.UserRepository, jwt *JWTManager, kakao *KakaoClient, apple *AppleClient) *Service {
	return &Service{
		userRepo: userRepo,
		jwt:      jwt,
		kakao:    kakao,
		apple:    apple,
	}
}

// RegisterInput 註冊資料
type RegisterInput struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	Birthday        string
	MarketingAgreed bool
}

// AuthResult 登入結果
type AuthResult struct {
	User   *model.User `json:"user"`
	Tokens *TokenPair  `json:"tokens"`
	IsNew  bool        `json:"isNew"`
}

// Register 建立一般帳號
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if existing != nil {
		return nil, common.ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Password:        string(hashed),
		RegisterPath:    model.RegisterPathDirect,
		MarketingAgreed: input.MarketingAgreed,
	}
	if input.Name != "" {
		user.Name = &input.Name
	}
	if input.Email != "" {
		user.Email = &input.Email
	}
	if input.Phone != "" {
		user.Phone = &input.Phone
	}
	if input.Birthday != "" {
		user.Birthday = &input.Birthday
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	common.LogInfo("新用戶註冊", zap.Uint("user_id", user.ID))

	tokens, err := s.jwt.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens, IsNew: true}, nil
}

// Login 帳號密碼登入
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if user == nil || !user.IsActive() {
		return nil, common.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	tokens, err := s.jwt.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// LoginWithKakao 卡考登入，帳號不存在時自動註冊
func (s *Service) LoginWithKakao(ctx context.Context, code string) (*AuthResult, error) {
	profile, err := s.kakao.GetProfile(ctx, code)
	if err != nil {
		return nil, common.ErrUnauthorized.WithError(err)
	}
	return s.loginWithProfile(ctx, profile, model.RegisterPathKakao)
}

// LoginWithApple 蘋果登入，帳號不存在時自動註冊
func (s *Service) LoginWithApple(ctx context.Context, identityToken string) (*AuthResult, error) {
	profile, err := s.apple.GetProfile(ctx, identityToken)
	if err != nil {
		return nil, common.ErrUnauthorized.WithError(err)
	}
	return s.loginWithProfile(ctx, profile, model.RegisterPathApple)
}

// loginWithProfile 以社群帳號的 email 查找使用者，不存在時建立新帳號
func (s *Service) loginWithProfile(ctx context.Context, profile *SocialProfile, registerPath string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	isNew := false
	if user == nil {
		email := profile.Email
		user = &model.User{
			Email:        &email,
			RegisterPath: registerPath,
		}
		if profile.Name != "" {
			name := profile.Name
			user.Name = &name
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		isNew = true
		common.LogInfo("社群登入建立新用戶",
			zap.Uint("user_id", user.ID),
			zap.String("provider", profile.Provider))
	}
	if !user.IsActive() {
		return nil, common.ErrInvalidCredentials
	}

	tokens, err := s.jwt.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens, IsNew: isNew}, nil
}

// Refresh 以更新權杖換發新的權杖組
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, common.ErrUnauthorized.WithError(err)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if user == nil || !user.IsActive() {
		return nil, common.ErrUnauthorized
	}

	return s.jwt.GenerateTokenPair(user.ID)
}
