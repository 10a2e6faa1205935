package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"agentlink/internal/db"
	"agentlink/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey  = "user"
	CheckAgentKey = "agent"
)

// LoadUser retrieves user from session and sets to context
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")

		if userID != nil {
			var user models.User
			if err := db.DB.First(&user, userID).Error; err == nil {
				c.Set(CheckUserKey, &user)
			}
		}
		c.Next()
	}
}

// LoadAgent 解析 Authorization: Bearer <token>，token 以 sha256 存库比对
func LoadAgent() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			sum := sha256.Sum256([]byte(token))
			var agent models.Agent
			if err := db.DB.Where("token_hash = ?", hex.EncodeToString(sum[:])).
				First(&agent).Error; err == nil {
				c.Set(CheckAgentKey, &agent)
			}
		}
		c.Next()
	}
}

// AuthRequired 要求会话用户或 agent token 二者之一
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, hasUser := c.Get(CheckUserKey)
		_, hasAgent := c.Get(CheckAgentKey)
		if !hasUser && !hasAgent {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "请先登录",
			})
			return
		}
		c.Next()
	}
}

// ModeratorRequired 仅限版主/管理员的接口
func ModeratorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := c.Get(CheckUserKey)
		if !exists || !user.(*models.User).IsModerator() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "FORBIDDEN",
				"message": "权限不足",
			})
			return
		}
		c.Next()
	}
}
