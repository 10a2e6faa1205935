package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"agentlink/internal/db"
	"agentlink/internal/middleware"
	"agentlink/internal/models"
	"agentlink/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

// Clock 请求处理用的时钟，测试里可替换为 fake clock
var Clock clockwork.Clock = clockwork.NewRealClock()

// JSONError 统一的错误响应壳
func JSONError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": message})
}

// requestIdentity 当前请求的操作主体：Actor + 是否新账号
type requestIdentity struct {
	Actor *models.Actor
	IsNew bool
	User  *models.User  // 会话用户时非空
	Agent *models.Agent // agent 调用时非空
}

// currentIdentity 解析会话用户或 agent token 对应的 Actor
func currentIdentity(c *gin.Context) (*requestIdentity, error) {
	now := Clock.Now()

	if v, exists := c.Get(middleware.CheckUserKey); exists {
		user := v.(*models.User)
		actor, err := services.GetOrCreateActorForUser(db.DB, user.ID)
		if err != nil {
			return nil, err
		}
		return &requestIdentity{Actor: actor, IsNew: user.IsNewAccount(now), User: user}, nil
	}

	if v, exists := c.Get(middleware.CheckAgentKey); exists {
		agent := v.(*models.Agent)
		actor, err := services.GetOrCreateActorForAgent(db.DB, agent.ID)
		if err != nil {
			return nil, err
		}
		return &requestIdentity{Actor: actor, IsNew: agent.IsNewAccount(now), Agent: agent}, nil
	}

	return nil, services.ErrForbidden
}

// renderServiceError 把核心层的错误分类翻译成 HTTP 响应
func renderServiceError(c *gin.Context, err error) {
	if rle, ok := services.IsRateLimited(err); ok {
		c.Header("Retry-After", strconv.Itoa(rle.RetryAfterSeconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"code":                "RATE_LIMITED",
			"message":             "请求过于频繁，请稍后再试",
			"retry_after_seconds": rle.RetryAfterSeconds,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		JSONError(c, http.StatusNotFound, "NOT_FOUND", "目标不存在")
	case errors.Is(err, services.ErrTargetFrozen):
		JSONError(c, http.StatusConflict, "TARGET_FROZEN", "已删除或隐藏的内容不能投票")
	case errors.Is(err, services.ErrSelfVote):
		JSONError(c, http.StatusForbidden, "SELF_VOTE", "不能给自己的内容投票")
	case errors.Is(err, services.ErrBanned):
		JSONError(c, http.StatusForbidden, "BANNED", "账号已被封禁")
	case errors.Is(err, services.ErrForbidden):
		JSONError(c, http.StatusForbidden, "FORBIDDEN", "无权执行该操作")
	default:
		JSONError(c, http.StatusInternalServerError, "INTERNAL", "处理中发生错误")
	}
}
