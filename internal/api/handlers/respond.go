package handlers

import (
	"errors"
	"net/http"

	"recipe-pipeline/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 將服務層錯誤轉為統一的錯誤響應
func RespondError(c *gin.Context, err error) {
	var customErr *common.CustomError
	if errors.As(err, &customErr) {
		body := common.ErrorResponse{
			Code:    customErr.Code,
			Message: customErr.Message,
		}
		if customErr.Err != nil {
			body.Details = customErr.Err.Error()
		}
		c.JSON(customErr.Status, body)
		return
	}

	if common.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: err.Error(),
		})
		return
	}

	common.LogError("未分類的處理錯誤",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, common.ErrorResponse{
		Code:    common.ErrCodeInternalError,
		Message: "服務器內部錯誤",
	})
}

// RespondBadRequest 參數驗證失敗的響應
func RespondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, common.ErrorResponse{
		Code:    common.ErrCodeInvalidRequest,
		Message: message,
	})
}
