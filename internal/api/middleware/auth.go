package middleware

import (
	"net/http"
	"strings"

	"recipe-pipeline/internal/core/auth"

	"github.com/gin-gonic/gin"
)

// context key，存放登入使用者的 ID
const UserIDKey = "user_id"

// RequireAuth 認證中間件，缺少或無效的權杖一律拒絕
func RequireAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, jwtManager)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "未授權的訪問",
				"code":  "UNAUTHORIZED",
			})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// OptionalAuth 可選認證中間件
// 有合法權杖時記錄使用者 ID，沒有時以匿名身份繼續
func OptionalAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, jwtManager); ok {
			c.Set(UserIDKey, claims.UserID)
		}
		c.Next()
	}
}

// CurrentUserID 取出登入使用者的 ID，匿名時回傳 0
func CurrentUserID(c *gin.Context) uint {
	if id, exists := c.Get(UserIDKey); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

func parseBearer(c *gin.Context, jwtManager *auth.JWTManager) (*auth.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, false
	}

	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return nil, false
	}

	claims, err := jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}
