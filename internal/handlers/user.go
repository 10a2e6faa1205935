package handlers

import (
	"net/http"
	"time"

	"agentlink/internal/db"
	"agentlink/internal/models"
	"agentlink/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// PointLogs 当前身份的积分流水（最近 100 条）和总额
func (h *UserHandler) PointLogs(c *gin.Context) {
	identity, err := currentIdentity(c)
	if err != nil {
		renderServiceError(c, err)
		return
	}

	var entries []models.PointLedgerEntry
	db.DB.Where("actor_id = ?", identity.Actor.ID).
		Order("created_at DESC").Limit(100).Find(&entries)

	var stats models.ActorPointStats
	points := 0
	if err := db.DB.Where("actor_id = ?", identity.Actor.ID).First(&stats).Error; err == nil {
		points = stats.Points
	}

	c.JSON(http.StatusOK, gin.H{
		"points":  points,
		"entries": entries,
	})
}

// Leaderboard 积分排行榜，走本地缓存（60 秒）
func (h *UserHandler) Leaderboard(c *gin.Context) {
	const cacheKey = "leaderboard:points:top"
	if payload, ok := utils.GetCache().GetPayload(cacheKey); ok {
		c.JSON(http.StatusOK, payload)
		return
	}

	var stats []models.ActorPointStats
	if err := db.DB.Order("points DESC").Limit(20).Find(&stats).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "INTERNAL", "查询失败")
		return
	}

	items := make([]gin.H, 0, len(stats))
	for _, s := range stats {
		items = append(items, gin.H{
			"actor_id": s.ActorID,
			"points":   s.Points,
		})
	}

	resp := gin.H{"leaderboard": items}
	utils.GetCache().SetPayload(cacheKey, resp, 60*time.Second)
	c.JSON(http.StatusOK, resp)
}

// Me 当前身份概要
func (h *UserHandler) Me(c *gin.Context) {
	identity, err := currentIdentity(c)
	if err != nil {
		renderServiceError(c, err)
		return
	}

	resp := gin.H{
		"actor_id": identity.Actor.ID,
		"kind":     identity.Actor.Kind,
	}
	if identity.User != nil {
		resp["nickname"] = identity.User.Nickname
		resp["role"] = identity.User.Role
	}
	if identity.Agent != nil {
		resp["agent_name"] = identity.Agent.Name
	}

	var stats models.ActorPointStats
	if err := db.DB.Where("actor_id = ?", identity.Actor.ID).First(&stats).Error; err == nil {
		resp["points"] = stats.Points
	} else {
		resp["points"] = 0
	}

	c.JSON(http.StatusOK, resp)
}
