package handlers

import (
	"net/http"
	"os"

	"agentlink/internal/db"
	"agentlink/internal/models"
	"agentlink/internal/services"
	"agentlink/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type StoryHandler struct{}

func NewStoryHandler() *StoryHandler {
	return &StoryHandler{}
}

type createPostRequest struct {
	BoardSlug string `json:"board" form:"board"`
	Title     string `json:"title" form:"title"`
	Content   string `json:"content" form:"content"`
}

type createCommentRequest struct {
	Content  string `json:"content" form:"content"`
	ParentID *uint  `json:"parent_id" form:"parent_id"`
}

func postJSON(post *models.Post) gin.H {
	return gin.H{
		"pid":             post.Pid,
		"board_id":        post.BoardID,
		"title":           post.Title,
		"content_html":    utils.RenderMarkdown(post.Content),
		"up_count":        post.UpCount,
		"down_count":      post.DownCount,
		"comment_count":   post.CommentCount,
		"hot_score":       post.HotScore,
		"discussed_score": post.DiscussedScore,
		"is_best":         post.IsBest,
		"created_at":      post.CreatedAt,
	}
}

// ListPosts 帖子列表：GET /posts?sort=hot|new|discussed&board=slug
func (h *StoryHandler) ListPosts(c *gin.Context) {
	query := db.DB.Model(&models.Post{}).
		Where("status = ?", models.ContentStatusVisible)

	if slug := c.Query("board"); slug != "" {
		var board models.Board
		if err := db.DB.Where("slug = ?", slug).First(&board).Error; err != nil {
			JSONError(c, http.StatusNotFound, "NOT_FOUND", "板块不存在")
			return
		}
		query = query.Where("board_id = ?", board.ID)
	}

	switch c.DefaultQuery("sort", "hot") {
	case "new":
		query = query.Order("created_at DESC")
	case "discussed":
		// 同分按时间新者优先
		query = query.Order("discussed_score DESC").Order("created_at DESC")
	default:
		query = query.Order("hot_score DESC")
	}

	var posts []models.Post
	if err := query.Limit(50).Find(&posts).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "INTERNAL", "查询失败")
		return
	}

	items := make([]gin.H, 0, len(posts))
	for i := range posts {
		items = append(items, postJSON(&posts[i]))
	}
	c.JSON(http.StatusOK, gin.H{"posts": items})
}

// CreatePost 发帖：冷却 + 日配额两道闸都过了才落库
func (h *StoryHandler) CreatePost(c *gin.Context) {
	identity, err := currentIdentity(c)
	if err != nil {
		renderServiceError(c, err)
		return
	}

	var req createPostRequest
	if err := c.ShouldBind(&req); err != nil || req.Title == "" {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "标题不能为空")
		return
	}

	var board models.Board
	slug := req.BoardSlug
	if slug == "" {
		slug = "chat"
	}
	if err := db.DB.Where("slug = ?", slug).First(&board).Error; err != nil {
		JSONError(c, http.StatusNotFound, "NOT_FOUND", "板块不存在")
		return
	}

	now := Clock.Now()

	if err := services.AssertNotBanned(db.DB, identity.Actor.ID, &board.ID, now); err != nil {
		renderServiceError(c, err)
		return
	}

	// IP 粗限流（对人和 agent 一视同仁）
	ipKey := services.IPSubjectKey(utils.HashIP(c.ClientIP(), os.Getenv("IP_HASH_SALT")))
	ipQuota, err := services.CheckWindowQuota(db.DB, ipKey, "post_ip_min", 10, 60, now)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	if !ipQuota.Allowed {
		services.ObserveRateLimited("post_ip_min")
		renderServiceError(c, &services.RateLimitedError{RetryAfterSeconds: ipQuota.RetryAfterSeconds})
		return
	}

	// 冷却：一个窗口只许发一帖
	subject := services.ActorSubjectKey(identity.Actor.ID)
	cooldown, err := services.CheckCooldown(db.DB, subject, services.ActionPostCool,
		services.CooldownSeconds(services.ActionPostCool), now)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	if !cooldown.Allowed {
		services.ObserveRateLimited(services.ActionPostCool)
		renderServiceError(c, &services.RateLimitedError{RetryAfterSeconds: cooldown.RetryAfterSeconds})
		return
	}

	// 日配额
	limit := services.DailyLimit(services.ActionPostDay, identity.IsNew)
	quota, err := services.CheckAndIncrement(db.DB, subject, services.ActionPostDay, limit, now)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	if !quota.Allowed {
		services.ObserveRateLimited(services.ActionPostDay)
		renderServiceError(c, &services.RateLimitedError{RetryAfterSeconds: quota.RetryAfterSeconds})
		return
	}

	post := models.Post{
		Pid:           utils.RandStringBytesMaskImpr(8),
		BoardID:       board.ID,
		AuthorActorID: identity.Actor.ID,
		Title:         req.Title,
		Content:       req.Content,
		Status:        models.ContentStatusVisible,
		HotScore:      utils.ComputeHotScore(0, 0, now),
		CreatedAt:     now, // 和热度公式的时间输入保持同一时刻
	}
	if err := db.DB.Create(&post).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "INTERNAL", "发布失败")
		return
	}

	c.JSON(http.StatusCreated, postJSON(&post))
}

// Detail 帖子详情和可见评论
func (h *StoryHandler) Detail(c *gin.Context) {
	var post models.Post
	if err := db.DB.Where("pid = ?", c.Param("pid")).First(&post).Error; err != nil {
		JSONError(c, http.StatusNotFound, "NOT_FOUND", "帖子不存在")
		return
	}
	if post.Status != models.ContentStatusVisible {
		JSONError(c, http.StatusNotFound, "NOT_FOUND", "帖子不存在")
		return
	}

	var comments []models.Comment
	db.DB.Where("post_id = ? AND status = ?", post.ID, models.ContentStatusVisible).
		Order("created_at ASC").Find(&comments)

	commentItems := make([]gin.H, 0, len(comments))
	for i := range comments {
		cm := &comments[i]
		commentItems = append(commentItems, gin.H{
			"cid":          cm.Cid,
			"parent_id":    cm.ParentID,
			"content_html": utils.RenderMarkdown(cm.Content),
			"up_count":     cm.UpCount,
			"down_count":   cm.DownCount,
			"created_at":   cm.CreatedAt,
		})
	}

	resp := postJSON(&post)
	resp["comments"] = commentItems

	// 登录用户带上自己的投票状态
	if identity, err := currentIdentity(c); err == nil {
		var vote models.Vote
		myVote := 0
		if err := db.DB.Where("voter_actor_id = ? AND target_type = ? AND target_id = ?",
			identity.Actor.ID, models.TargetTypePost, post.ID).First(&vote).Error; err == nil {
			myVote = vote.Value
		}
		resp["my_vote"] = myVote
	}

	c.JSON(http.StatusOK, resp)
}

// CreateComment 发评论：冷却 + 日配额，事务内同步维护评论数和讨论分
func (h *StoryHandler) CreateComment(c *gin.Context) {
	identity, err := currentIdentity(c)
	if err != nil {
		renderServiceError(c, err)
		return
	}

	var post models.Post
	if err := db.DB.Where("pid = ?", c.Param("pid")).First(&post).Error; err != nil {
		JSONError(c, http.StatusNotFound, "NOT_FOUND", "帖子不存在")
		return
	}
	if post.Status != models.ContentStatusVisible {
		JSONError(c, http.StatusConflict, "TARGET_FROZEN", "帖子已删除或隐藏")
		return
	}

	var req createCommentRequest
	if err := c.ShouldBind(&req); err != nil || req.Content == "" {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "内容不能为空")
		return
	}

	now := Clock.Now()

	if err := services.AssertNotBanned(db.DB, identity.Actor.ID, &post.BoardID, now); err != nil {
		renderServiceError(c, err)
		return
	}

	ipKey := services.IPSubjectKey(utils.HashIP(c.ClientIP(), os.Getenv("IP_HASH_SALT")))
	ipQuota, err := services.CheckWindowQuota(db.DB, ipKey, "comment_ip_min", 30, 60, now)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	if !ipQuota.Allowed {
		services.ObserveRateLimited("comment_ip_min")
		renderServiceError(c, &services.RateLimitedError{RetryAfterSeconds: ipQuota.RetryAfterSeconds})
		return
	}

	subject := services.ActorSubjectKey(identity.Actor.ID)
	cooldown, err := services.CheckCooldown(db.DB, subject, services.ActionCommentCool,
		services.CooldownSeconds(services.ActionCommentCool), now)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	if !cooldown.Allowed {
		services.ObserveRateLimited(services.ActionCommentCool)
		renderServiceError(c, &services.RateLimitedError{RetryAfterSeconds: cooldown.RetryAfterSeconds})
		return
	}

	limit := services.DailyLimit(services.ActionCommentDay, identity.IsNew)
	quota, err := services.CheckAndIncrement(db.DB, subject, services.ActionCommentDay, limit, now)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	if !quota.Allowed {
		services.ObserveRateLimited(services.ActionCommentDay)
		renderServiceError(c, &services.RateLimitedError{RetryAfterSeconds: quota.RetryAfterSeconds})
		return
	}

	comment := models.Comment{
		Cid:           utils.RandStringBytesMaskImpr(8),
		PostID:        post.ID,
		AuthorActorID: identity.Actor.ID,
		ParentID:      req.ParentID,
		Content:       req.Content,
		Status:        models.ContentStatusVisible,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		nextCount := post.CommentCount + 1
		return tx.Model(&models.Post{}).Where("id = ?", post.ID).
			Updates(map[string]interface{}{
				"comment_count":   nextCount,
				"discussed_score": utils.ComputeDiscussedScore(nextCount, post.UpCount, post.DownCount),
			}).Error
	})
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "INTERNAL", "评论失败")
		return
	}

	// 异步对账，修正并发评论下的计数偏差
	services.GetRankingService().ScheduleUpdate(post.ID)

	c.JSON(http.StatusCreated, gin.H{
		"cid":        comment.Cid,
		"post_pid":   post.Pid,
		"created_at": comment.CreatedAt,
	})
}

// DeletePost 作者自删：状态置 DELETED 并触发积分没收
func (h *StoryHandler) DeletePost(c *gin.Context) {
	identity, err := currentIdentity(c)
	if err != nil {
		renderServiceError(c, err)
		return
	}

	var post models.Post
	if err := db.DB.Where("pid = ?", c.Param("pid")).First(&post).Error; err != nil {
		JSONError(c, http.StatusNotFound, "NOT_FOUND", "帖子不存在")
		return
	}
	if post.AuthorActorID != identity.Actor.ID {
		JSONError(c, http.StatusForbidden, "FORBIDDEN", "只能删除自己的帖子")
		return
	}

	if _, err := services.DeleteContent(db.DB, models.TargetTypePost, post.ID, Clock.Now()); err != nil {
		renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DeleteComment 作者自删评论
func (h *StoryHandler) DeleteComment(c *gin.Context) {
	identity, err := currentIdentity(c)
	if err != nil {
		renderServiceError(c, err)
		return
	}

	var comment models.Comment
	if err := db.DB.Where("cid = ?", c.Param("cid")).First(&comment).Error; err != nil {
		JSONError(c, http.StatusNotFound, "NOT_FOUND", "评论不存在")
		return
	}
	if comment.AuthorActorID != identity.Actor.ID {
		JSONError(c, http.StatusForbidden, "FORBIDDEN", "只能删除自己的评论")
		return
	}

	if _, err := services.DeleteContent(db.DB, models.TargetTypeComment, comment.ID, Clock.Now()); err != nil {
		renderServiceError(c, err)
		return
	}

	// 评论数对账交给后台任务
	services.GetRankingService().ScheduleUpdate(comment.PostID)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
