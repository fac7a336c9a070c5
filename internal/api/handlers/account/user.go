package account

import (
	"net/http"

	"recipe-pipeline/internal/api/handlers"
	"recipe-pipeline/internal/api/middleware"
	"recipe-pipeline/internal/core/sms"
	"recipe-pipeline/internal/core/user"

	"github.com/gin-gonic/gin"
)

// UserHandler 使用者資料處理器
type UserHandler struct {
	userSvc *user.Service
	smsSvc  *sms.Service
}

// NewUserHandler 創建使用者資料處理器
func NewUserHandler(userSvc *user.Service, smsSvc *sms.Service) *UserHandler {
	return &UserHandler{userSvc: userSvc, smsSvc: smsSvc}
}

// HandleGetProfile 取得自己的資料
func (h *UserHandler) HandleGetProfile(c *gin.Context) {
	profile, err := h.userSvc.GetProfile(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfileRequest 可更新的欄位，省略的欄位不變更
type UpdateProfileRequest struct {
	Name            *string `json:"name"`
	Birthday        *string `json:"birthday"`
	MarketingAgreed *bool   `json:"marketingAgreed"`
	ProfileImageNo  *int    `json:"profileImageNo"`
}

// HandleUpdateProfile 更新自己的資料
func (h *UserHandler) HandleUpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "更新資料格式錯誤")
		return
	}

	profile, err := h.userSvc.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), user.UpdateInput{
		Name:            req.Name,
		Birthday:        req.Birthday,
		MarketingAgreed: req.MarketingAgreed,
		ProfileImageNo:  req.ProfileImageNo,
	})
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// WithdrawRequest 退會請求
type WithdrawRequest struct {
	Reason     string `json:"reason"`
	ReasonType string `json:"reasonType" binding:"required"`
}

// HandleWithdraw 退會
func (h *UserHandler) HandleWithdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "reasonType 為必填欄位")
		return
	}

	if err := h.userSvc.Withdraw(c.Request.Context(), middleware.CurrentUserID(c), req.Reason, req.ReasonType); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawn": true})
}

// ResetPasswordRequest 重設密碼請求
// 需附上簡訊驗證碼
type ResetPasswordRequest struct {
	Phone       string `json:"phone" binding:"required"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// HandleResetPassword 以手機驗證重設密碼
func (h *UserHandler) HandleResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "重設密碼資料格式錯誤")
		return
	}

	if !h.smsSvc.VerifyCode(req.Phone, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "驗證碼錯誤或已過期",
			"code":  "INVALID_VERIFICATION_CODE",
		})
		return
	}

	if err := h.userSvc.ResetPassword(c.Request.Context(), req.Phone, req.NewPassword); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}
