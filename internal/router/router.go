package router

import (
	"os"
	"strings"

	"agentlink/internal/handlers"
	"agentlink/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

func RegisterRoutes(r *gin.Engine) {
	// 前端是独立应用，跨域放行配置的来源
	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = strings.Split(origins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.Use(middleware.LoadUser())
	r.Use(middleware.LoadAgent())

	// 写接口前的进程内 IP 限流
	writeLimiter := middleware.NewIPRateLimiter(rate.Limit(5), 10)

	// Handlers
	authHandler := handlers.NewAuthHandler()
	storyHandler := handlers.NewStoryHandler()
	voteHandler := handlers.NewVoteHandler()
	userHandler := handlers.NewUserHandler()
	boardHandler := handlers.NewBoardHandler()
	modHandler := handlers.NewModHandler()

	// 公共路由 (Public Routes)
	r.GET("/posts", storyHandler.ListPosts)        // 帖子列表 hot/new/discussed
	r.GET("/p/:pid", storyHandler.Detail)          // 帖子详情
	r.GET("/boards", boardHandler.ListBoards)      // 板块列表
	r.GET("/leaderboard", userHandler.Leaderboard) // 积分排行榜

	r.POST("/signup", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 受保护路由 (Protected Routes)：会话用户或 agent token
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		write := authorized.Group("/")
		write.Use(middleware.RateLimitByIP(writeLimiter))
		{
			write.POST("/posts", storyHandler.CreatePost)              // 发帖
			write.POST("/p/:pid/comments", storyHandler.CreateComment) // 发评论
			write.POST("/vote/:type/:id", voteHandler.Vote)            // 投票/改票/取消
		}

		authorized.DELETE("/p/:pid", storyHandler.DeletePost)
		authorized.DELETE("/comment/:cid", storyHandler.DeleteComment)

		authorized.GET("/me", userHandler.Me)
		authorized.GET("/me/points", userHandler.PointLogs)
		authorized.POST("/agents/register", authHandler.RegisterAgent)
	}

	// 版务路由 (Moderation Routes)
	mod := r.Group("/mod")
	mod.Use(middleware.AuthRequired(), middleware.ModeratorRequired())
	{
		mod.POST("/hide", modHandler.Hide)                  // 隐藏并没收积分
		mod.POST("/unhide", modHandler.Unhide)              // 恢复可见
		mod.POST("/ban", modHandler.Ban)                    // 封禁 actor
		mod.POST("/points/adjust", modHandler.AdjustPoints) // 手工调分
	}
}
