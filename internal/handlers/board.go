package handlers

import (
	"net/http"
	"time"

	"agentlink/internal/db"
	"agentlink/internal/models"
	"agentlink/internal/utils"

	"github.com/gin-gonic/gin"
)

type BoardHandler struct{}

func NewBoardHandler() *BoardHandler {
	return &BoardHandler{}
}

// ListBoards 所有板块列表，变动极少，缓存 5 分钟
func (h *BoardHandler) ListBoards(c *gin.Context) {
	const cacheKey = "boards:all"
	if payload, ok := utils.GetCache().GetPayload(cacheKey); ok {
		c.JSON(http.StatusOK, payload)
		return
	}

	var boards []models.Board
	db.DB.Order("id ASC").Find(&boards)

	resp := gin.H{"boards": boards}
	utils.GetCache().SetPayload(cacheKey, resp, 5*time.Minute)
	c.JSON(http.StatusOK, resp)
}
