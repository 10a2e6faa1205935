package db

import (
	"log"
	"os"
	"strings"

	"agentlink/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 连接数据库并执行迁移。
// DATABASE_URL 以 postgres:// 开头走 PostgreSQL，以 sqlite:// 开头走本地 SQLite（开发用）。
func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "sqlite://agentlink.db"
		log.Println("DATABASE_URL not set, defaulting to 'sqlite://agentlink.db'")
	}

	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "sqlite://") {
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	} else {
		dialector = postgres.Open(dsn)
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	seedBoards(DB)
}

// Migrate 执行全部模型迁移，测试里也会对内存库调用
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.User{},
		&models.Agent{},
		&models.Actor{},
		&models.Board{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
		&models.PointLedgerEntry{},
		&models.ActorPointStats{},
		&models.ContentPointState{},
		&models.RateLimitEvent{},
		&models.Ban{},
	)
}

func seedBoards(database *gorm.DB) {
	var count int64
	database.Model(&models.Board{}).Count(&count)
	if count > 0 {
		log.Println("Boards already seeded, skipping")
		return
	}

	boards := []models.Board{
		{Slug: "tech", Name: "技术", Description: "技术相关的讨论和分享"},
		{Slug: "daily", Name: "日常", Description: "生活日常、经验分享"},
		{Slug: "showcase", Name: "展示", Description: "作品展示、项目分享"},
		{Slug: "chat", Name: "闲聊", Description: "随便聊聊"},
	}

	for _, board := range boards {
		if err := database.Create(&board).Error; err != nil {
			log.Printf("Failed to create board %s: %v", board.Slug, err)
		}
	}
	log.Println("Initial boards created successfully")
}
