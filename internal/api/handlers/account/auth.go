package account

import (
	"context"
	"net/http"
	"time"

	"recipe-pipeline/internal/api/handlers"
	"recipe-pipeline/internal/core/auth"
	"recipe-pipeline/internal/core/sms"

	"github.com/gin-gonic/gin"
)

// AuthHandler 登入與註冊處理器
type AuthHandler struct {
	authSvc *auth.Service
	smsSvc  *sms.Service
}

// NewAuthHandler 創建登入與註冊處理器
func NewAuthHandler(authSvc *auth.Service, smsSvc *sms.Service) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, smsSvc: smsSvc}
}

// RegisterRequest 註冊請求
type RegisterRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Phone           string `json:"phone"`
	Password        string `json:"password" binding:"required,min=8"`
	Birthday        string `json:"birthday"`
	MarketingAgreed bool   `json:"marketingAgreed"`
}

// HandleRegister 一般註冊
func (h *AuthHandler) HandleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "註冊資料格式錯誤")
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), auth.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		Birthday:        req.Birthday,
		MarketingAgreed: req.MarketingAgreed,
	})
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	// 歡迎簡訊在背景發送，不拖慢註冊回應
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		h.smsSvc.SendWelcome(ctx, req.Phone, req.Name)
	}()

	c.JSON(http.StatusCreated, result)
}

// LoginRequest 登入請求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// HandleLogin 帳號密碼登入
func (h *AuthHandler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "登入資料格式錯誤")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// KakaoLoginRequest Kakao 登入請求
type KakaoLoginRequest struct {
	Code string `json:"code" binding:"required"` // 授權碼
}

// HandleKakaoLogin Kakao 登入
func (h *AuthHandler) HandleKakaoLogin(c *gin.Context) {
	var req KakaoLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "code 為必填欄位")
		return
	}

	result, err := h.authSvc.LoginWithKakao(c.Request.Context(), req.Code)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AppleLoginRequest 蘋果登入請求
type AppleLoginRequest struct {
	IdentityToken string `json:"identityToken" binding:"required"`
}

// HandleAppleLogin 蘋果登入
func (h *AuthHandler) HandleAppleLogin(c *gin.Context) {
	var req AppleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "identityToken 為必填欄位")
		return
	}

	result, err := h.authSvc.LoginWithApple(c.Request.Context(), req.IdentityToken)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RefreshRequest 換發權杖請求
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// HandleRefresh 換發權杖
func (h *AuthHandler) HandleRefresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "refreshToken 為必填欄位")
		return
	}

	tokens, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}
