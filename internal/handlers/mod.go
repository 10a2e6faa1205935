package handlers

import (
	"net/http"
	"time"

	"agentlink/internal/db"
	"agentlink/internal/models"
	"agentlink/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ModHandler struct{}

func NewModHandler() *ModHandler {
	return &ModHandler{}
}

type modTargetRequest struct {
	TargetType string `json:"target_type" form:"target_type"`
	TargetID   uint   `json:"target_id" form:"target_id"`
}

type banRequest struct {
	ActorID        uint   `json:"actor_id" form:"actor_id"`
	Scope          string `json:"scope" form:"scope"`
	BoardID        *uint  `json:"board_id" form:"board_id"`
	Reason         string `json:"reason" form:"reason"`
	ExpiresInHours int    `json:"expires_in_hours" form:"expires_in_hours"` // 0 表示永久
}

func bindModTarget(c *gin.Context) (string, uint, bool) {
	var req modTargetRequest
	if err := c.ShouldBind(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "请求格式不正确")
		return "", 0, false
	}
	targetType, ok := parseTargetType(req.TargetType)
	if !ok || req.TargetID == 0 {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "目标信息不正确")
		return "", 0, false
	}
	return targetType, req.TargetID, true
}

// Hide 版务隐藏内容，同一事务内翻状态并没收积分；重复调用是幂等空操作
func (h *ModHandler) Hide(c *gin.Context) {
	targetType, targetID, ok := bindModTarget(c)
	if !ok {
		return
	}

	result, err := services.HideContent(db.DB, targetType, targetID, Clock.Now())
	if err != nil {
		renderServiceError(c, err)
		return
	}
	if result.Applied && result.ConfiscatedPoints > 0 {
		services.ObserveConfiscation(result.ConfiscatedPoints)
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":                 true,
		"applied":            result.Applied,
		"confiscated_points": result.ConfiscatedPoints,
	})
}

// Unhide 恢复可见。没收不回滚，只恢复状态
func (h *ModHandler) Unhide(c *gin.Context) {
	targetType, targetID, ok := bindModTarget(c)
	if !ok {
		return
	}

	if err := services.UnhideContent(db.DB, targetType, targetID); err != nil {
		renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type adjustPointsRequest struct {
	ActorID    uint   `json:"actor_id" form:"actor_id"`
	Delta      int    `json:"delta" form:"delta"`
	TargetType string `json:"target_type" form:"target_type"`
	TargetID   uint   `json:"target_id" form:"target_id"`
}

// AdjustPoints 管理员手工调整积分，走 ADMIN_ADJUST 流水留痕
func (h *ModHandler) AdjustPoints(c *gin.Context) {
	var req adjustPointsRequest
	if err := c.ShouldBind(&req); err != nil || req.ActorID == 0 || req.Delta == 0 {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "请求格式不正确")
		return
	}
	targetType, ok := parseTargetType(req.TargetType)
	if !ok {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "目标信息不正确")
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		return services.RecordPointDelta(tx, req.ActorID, req.Delta,
			targetType, req.TargetID, models.PointReasonAdminAdjust)
	})
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "INTERNAL", "调整失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Ban 封禁 actor（全站或板块）
func (h *ModHandler) Ban(c *gin.Context) {
	var req banRequest
	if err := c.ShouldBind(&req); err != nil || req.ActorID == 0 {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "请求格式不正确")
		return
	}
	if req.Scope != models.BanScopeGlobal && req.Scope != models.BanScopeBoard {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "scope 只能是 GLOBAL 或 BOARD")
		return
	}
	if req.Scope == models.BanScopeBoard && req.BoardID == nil {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "板块封禁必须指定 board_id")
		return
	}

	ban := models.Ban{
		ActorID: req.ActorID,
		Scope:   req.Scope,
		BoardID: req.BoardID,
		Reason:  req.Reason,
	}
	if req.ExpiresInHours > 0 {
		expires := Clock.Now().Add(time.Duration(req.ExpiresInHours) * time.Hour)
		ban.ExpiresAt = &expires
	}

	if err := db.DB.Create(&ban).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "INTERNAL", "封禁失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "ban_id": ban.ID})
}
