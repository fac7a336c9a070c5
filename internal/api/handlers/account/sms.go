package account

import (
	"net/http"

	"recipe-pipeline/internal/api/handlers"
	"recipe-pipeline/internal/core/sms"

	"github.com/gin-gonic/gin"
)

// SMSHandler 簡訊驗證處理器
type SMSHandler struct {
	smsSvc *sms.Service
}

// NewSMSHandler 創建簡訊驗證處理器
func NewSMSHandler(smsSvc *sms.Service) *SMSHandler {
	return &SMSHandler{smsSvc: smsSvc}
}

// SendCodeRequest 發送驗證碼請求
type SendCodeRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// HandleSendCode 發送驗證碼
func (h *SMSHandler) HandleSendCode(c *gin.Context) {
	var req SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "phone 為必填欄位")
		return
	}

	if err := h.smsSvc.SendVerificationCode(c.Request.Context(), req.Phone); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// VerifyCodeRequest 驗證碼確認請求
type VerifyCodeRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// HandleVerifyCode 確認驗證碼
// 確認成功後驗證碼即失效
func (h *SMSHandler) HandleVerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "phone 與 code 為必填欄位")
		return
	}

	if !h.smsSvc.VerifyCode(req.Phone, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "驗證碼錯誤或已過期",
			"code":  "INVALID_VERIFICATION_CODE",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}
