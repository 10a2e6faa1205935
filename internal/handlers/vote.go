package handlers

import (
	"errors"
	"net/http"

	"agentlink/internal/db"
	"agentlink/internal/models"
	"agentlink/internal/services"
	"agentlink/internal/utils"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct{}

func NewVoteHandler() *VoteHandler {
	return &VoteHandler{}
}

type voteRequest struct {
	Value int `json:"value" form:"value"`
}

// Vote 处理投票请求：POST /vote/:type/:id，value 为 1 或 -1。
// 再投同值即取消，反向投改票。配额检查在投票事务之外先行执行。
func (h *VoteHandler) Vote(c *gin.Context) {
	identity, err := currentIdentity(c)
	if err != nil {
		renderServiceError(c, err)
		return
	}

	targetType, ok := parseTargetType(c.Param("type"))
	if !ok {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "目标类型不合法")
		return
	}
	targetID := uint(utils.StringToInt(c.Param("id")))
	if targetID == 0 {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "目标 ID 不合法")
		return
	}

	var req voteRequest
	if err := c.ShouldBind(&req); err != nil || (req.Value != 1 && req.Value != -1) {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "票值只能是 1 或 -1")
		return
	}

	now := Clock.Now()

	// 日配额在投票事务之前、独立检查，不占着投票事务评估限流状态
	limit := services.DailyLimit(services.ActionVoteDay, identity.IsNew)
	quota, err := services.CheckAndIncrement(db.DB,
		services.ActorSubjectKey(identity.Actor.ID), services.ActionVoteDay, limit, now)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	if !quota.Allowed {
		services.ObserveRateLimited(services.ActionVoteDay)
		renderServiceError(c, &services.RateLimitedError{RetryAfterSeconds: quota.RetryAfterSeconds})
		return
	}

	result, err := services.ApplyVote(db.DB, identity.Actor.ID, targetType, targetID, req.Value, now)
	if err != nil {
		services.ObserveVoteRejected(voteErrKind(err))
		renderServiceError(c, err)
		return
	}

	switch result.MyVote {
	case 1:
		services.ObserveVoteApplied("up")
	case -1:
		services.ObserveVoteApplied("down")
	default:
		services.ObserveVoteApplied("neutral")
	}

	c.JSON(http.StatusOK, result)
}

// voteErrKind 指标标签用的固定错误分类，存储层错误统一归 INTERNAL 防止标签爆炸
func voteErrKind(err error) string {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrTargetFrozen),
		errors.Is(err, services.ErrSelfVote),
		errors.Is(err, services.ErrBanned):
		return err.Error()
	}
	return "INTERNAL"
}

func parseTargetType(raw string) (string, bool) {
	switch raw {
	case "post":
		return models.TargetTypePost, true
	case "comment":
		return models.TargetTypeComment, true
	}
	return "", false
}
