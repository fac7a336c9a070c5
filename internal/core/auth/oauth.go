package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recipe-pipeline/internal/infrastructure/config"

	"github.com/go-resty/resty/v2"
)

// SocialProfile 社群登入取得的使用者資料
type SocialProfile struct {
	Provider string
	Email    string
	Name     string
}

// KakaoClient 卡考 OAuth 客戶端
type KakaoClient struct {
	client *resty.Client
	config *config.KakaoOAuthConfig
}

// NewKakaoClient 創建卡考 OAuth 客戶端
func NewKakaoClient(cfg *config.KakaoOAuthConfig) *KakaoClient {
	return &KakaoClient{
		client: resty.New().SetTimeout(10 * time.Second),
		config: cfg,
	}
}

type kakaoTokenResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type kakaoUserResponse struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname string `json:"nickname"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

// GetProfile 以授權碼換取使用者資料
func (c *KakaoClient) GetProfile(ctx context.Context, code string) (*SocialProfile, error) {
	var tokenResp kakaoTokenResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":   "authorization_code",
			"client_id":    c.config.ClientID,
			"redirect_uri": c.config.RedirectURI,
			"code":         code,
		}).
		SetResult(&tokenResp).
		SetError(&tokenResp).
		Post("https://kauth.kakao.com/oauth/token")
	if err != nil {
		return nil, fmt.Errorf("failed to exchange kakao code: %w", err)
	}
	if resp.StatusCode() != http.StatusOK || tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("kakao token exchange failed: %s %s", tokenResp.Error, tokenResp.ErrorDescription)
	}

	var userResp kakaoUserResponse
	resp, err = c.client.R().
		SetContext(ctx).
		SetAuthToken(tokenResp.AccessToken).
		SetResult(&userResp).
		Get("https://kapi.kakao.com/v2/user/me")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch kakao profile: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("kakao profile request returned status %d", resp.StatusCode())
	}
	if userResp.KakaoAccount.Email == "" {
		return nil, fmt.Errorf("kakao account has no email")
	}

	return &SocialProfile{
		Provider: "kakao",
		Email:    userResp.KakaoAccount.Email,
		Name:     userResp.KakaoAccount.Profile.Nickname,
	}, nil
}

// AppleClient 蘋果登入客戶端
// 驗證交給前端完成的授權流程，這裡只解出 identity token 的內容
type AppleClient struct {
	config *config.AppleOAuthConfig
}

// NewAppleClient 創建蘋果登入客戶端
func NewAppleClient(cfg *config.AppleOAuthConfig) *AppleClient {
	return &AppleClient{config: cfg}
}

type applePayload struct {
	Iss   string `json:"iss"`
	Aud   string `json:"aud"`
	Exp   int64  `json:"exp"`
	Email string `json:"email"`
}

// GetProfile 解析 identity token 取得使用者資料
func (c *AppleClient) GetProfile(ctx context.Context, identityToken string) (*SocialProfile, error) {
	parts := strings.Split(identityToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed identity token")
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode identity token: %w", err)
	}

	var payload applePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse identity token: %w", err)
	}

	if payload.Iss != "https://appleid.apple.com" {
		return nil, fmt.Errorf("unexpected token issuer: %s", payload.Iss)
	}
	if c.config.ClientID != "" && payload.Aud != c.config.ClientID {
		return nil, fmt.Errorf("token audience mismatch")
	}
	if payload.Exp > 0 && time.Unix(payload.Exp, 0).Before(time.Now()) {
		return nil, fmt.Errorf("identity token expired")
	}
	if payload.Email == "" {
		return nil, fmt.Errorf("identity token has no email")
	}

	return &SocialProfile{
		Provider: "apple",
		Email:    payload.Email,
	}, nil
}
