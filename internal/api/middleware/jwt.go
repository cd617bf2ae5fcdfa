package middleware

import (
	"errors"
	"net/http"
	"strings"

	"jobboard/internal/model"
	"jobboard/internal/pkg/token"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware 校验 Bearer 令牌并解析出当前用户。
//
// 令牌无效、过期或对应用户已不存在时一律返回 401，不区分具体原因。
// 用户每次请求都从数据库新查一遍，保证 is_admin 等事实不因令牌缓存而过期。
func AuthMiddleware(verifier *token.Issuer, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			c.Abort()
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			c.Abort()
			return
		}

		uid, ok := verifier.Verify(parts[1])
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		var user model.User
		if err := db.WithContext(c.Request.Context()).First(&user, uid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
			}
			c.Abort()
			return
		}

		c.Set("userID", user.ID)
		c.Set("isAdmin", user.IsAdmin)
		c.Next()
	}
}

// AdminOnly 要求当前用户具备管理员标记，否则返回 403。
// 必须挂在 AuthMiddleware 之后。
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("isAdmin") {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID 返回 AuthMiddleware 写入的当前用户 ID。
func CurrentUserID(c *gin.Context) uint {
	v, ok := c.Get("userID")
	if !ok {
		return 0
	}
	if id, ok := v.(uint); ok {
		return id
	}
	return 0
}
