package sms

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"recipe-pipeline/internal/infrastructure/config"
	"recipe-pipeline/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	solapiBaseURL = "https://api.solapi.com"
	codeTTL       = 3 * time.Minute
	codeLength    = 6
)

// Service 簡訊服務
// 透過 Solapi 發送驗證碼與通知簡訊，驗證碼保存在記憶體中
type Service struct {
	client *resty.Client
	config *config.SMSConfig

	mu    sync.Mutex
	codes map[string]verificationCode
}

type verificationCode struct {
	code      string
	expiresAt time.Time
}

// NewService 創建簡訊服務
func NewService(cfg *config.SMSConfig) *Service {
	client := resty.New().
		SetBaseURL(solapiBaseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Service{
		client: client,
		config: cfg,
		codes:  make(map[string]verificationCode),
	}
}

// authorization 組出 Solapi HMAC-SHA256 認證標頭
func (s *Service) authorization() string {
	date := time.Now().Format(time.RFC3339)
	salt := uuid.New().String()

	mac := hmac.New(sha256.New, []byte(s.config.APISecret))
	mac.Write([]byte(date + salt))
	signature := hex.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("HMAC-SHA256 apiKey=%s, date=%s, salt=%s, signature=%s",
		s.config.APIKey, date, salt, signature)
}

type sendResponse struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

// Send 發送單封簡訊
func (s *Service) Send(ctx context.Context, to, text string) error {
	var result sendResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", s.authorization()).
		SetBody(map[string]interface{}{
			"message": map[string]interface{}{
				"to":   to,
				"from": s.config.Sender,
				"text": text,
			},
		}).
		SetResult(&result).
		SetError(&result).
		Post("/messages/v4/send")
	if err != nil {
		return common.ErrSMSSendFailed.WithError(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return common.ErrSMSSendFailed.WithError(
			fmt.Errorf("solapi returned status %d: %s", resp.StatusCode(), result.StatusMessage))
	}

	common.LogInfo("簡訊已發送", zap.String("to", maskPhone(to)))
	return nil
}

// SendVerificationCode 產生並發送驗證碼
func (s *Service) SendVerificationCode(ctx context.Context, phone string) error {
	code, err := generateCode(codeLength)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	s.mu.Lock()
	s.codes[phone] = verificationCode{
		code:      code,
		expiresAt: time.Now().Add(codeTTL),
	}
	s.mu.Unlock()

	text := fmt.Sprintf("[인증번호] %s (3분 내 입력)", code)
	return s.Send(ctx, phone, text)
}

// VerifyCode 驗證驗證碼，成功後即失效
func (s *Service) VerifyCode(phone, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.codes[phone]
	if !ok {
		return false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.codes, phone)
		return false
	}
	if entry.code != code {
		return false
	}

	delete(s.codes, phone)
	return true
}

// SendWelcome 發送註冊歡迎簡訊
// 發送失敗只記錄警告，不影響註冊流程
func (s *Service) SendWelcome(ctx context.Context, phone, name string) {
	if phone == "" {
		return
	}
	text := fmt.Sprintf("%s님, 가입을 환영합니다! 요리 영상 링크만 보내면 레시피를 만들어 드려요.", name)
	if err := s.Send(ctx, phone, text); err != nil {
		common.LogWarn("歡迎簡訊發送失敗", zap.Error(err))
	}
}

// NotifyOwner 發送營運通知簡訊
// 未設定通知電話時靜默略過
func (s *Service) NotifyOwner(ctx context.Context, message string) {
	if s.config.OwnerPhone == "" {
		return
	}
	if err := s.Send(ctx, s.config.OwnerPhone, message); err != nil {
		common.LogWarn("營運通知發送失敗", zap.Error(err))
	}
}

// generateCode 產生指定長度的數字驗證碼
func generateCode(length int) (string, error) {
	code := ""
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code += n.String()
	}
	return code, nil
}

// maskPhone 遮罩電話號碼中段
func maskPhone(phone string) string {
	if len(phone) < 7 {
		return "****"
	}
	return phone[:3] + "****" + phone[len(phone)-4:]
}
