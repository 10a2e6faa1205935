package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"agentlink/internal/db"
	"agentlink/internal/models"
	"agentlink/internal/utils"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存库，按测试名隔离，
// cache=shared 让 gorm 连接池里的多条连接看到同一份数据
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// newBareDB 只建 Actor 表，积分/限流表缺失，模拟 E2E 引导期的残缺库
func newBareDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.Actor{}))
	return gdb
}

func newActor(t *testing.T, gdb *gorm.DB) uint {
	t.Helper()
	actor := &models.Actor{Kind: models.ActorKindUser}
	require.NoError(t, gdb.Create(actor).Error)
	return actor.ID
}

func newBoard(t *testing.T, gdb *gorm.DB, slug string) uint {
	t.Helper()
	board := &models.Board{Slug: slug, Name: slug}
	require.NoError(t, gdb.Create(board).Error)
	return board.ID
}

func newPost(t *testing.T, gdb *gorm.DB, boardID, authorActorID uint) *models.Post {
	t.Helper()
	post := &models.Post{
		Pid:           utils.RandStringBytesMaskImpr(8),
		BoardID:       boardID,
		AuthorActorID: authorActorID,
		Title:         "测试帖子",
		Status:        models.ContentStatusVisible,
	}
	require.NoError(t, gdb.Create(post).Error)
	return post
}

func newComment(t *testing.T, gdb *gorm.DB, postID, authorActorID uint) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		Cid:           utils.RandStringBytesMaskImpr(8),
		PostID:        postID,
		AuthorActorID: authorActorID,
		Content:       "测试评论",
		Status:        models.ContentStatusVisible,
	}
	require.NoError(t, gdb.Create(comment).Error)
	return comment
}

func reloadPost(t *testing.T, gdb *gorm.DB, id uint) *models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, gdb.First(&post, id).Error)
	return &post
}

func reloadComment(t *testing.T, gdb *gorm.DB, id uint) *models.Comment {
	t.Helper()
	var comment models.Comment
	require.NoError(t, gdb.First(&comment, id).Error)
	return &comment
}

// actorPoints 读作者积分总额，无行按 0 算
func actorPoints(t *testing.T, gdb *gorm.DB, actorID uint) int {
	t.Helper()
	var stats models.ActorPointStats
	err := gdb.Where("actor_id = ?", actorID).First(&stats).Error
	if err == gorm.ErrRecordNotFound {
		return 0
	}
	require.NoError(t, err)
	return stats.Points
}

func ledgerEntries(t *testing.T, gdb *gorm.DB, actorID uint) []models.PointLedgerEntry {
	t.Helper()
	var entries []models.PointLedgerEntry
	require.NoError(t, gdb.Where("actor_id = ?", actorID).Order("id").Find(&entries).Error)
	return entries
}

func voteCount(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, gdb.Model(&models.Vote{}).Count(&count).Error)
	return count
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
