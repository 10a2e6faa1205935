package services

import (
	"log"
	"sync"
	"time"

	"agentlink/internal/db"
	"agentlink/internal/models"
	"agentlink/internal/utils"

	"github.com/jonboulle/clockwork"
)

// RankingService 异步对账帖子的计数和分数。
// 投票事务里的增量更新是权威路径；这里定期按 Vote/Comment 表重算，
// 修正任何漂移（比如人工改库、历史数据迁移）。
type RankingService struct {
	queue   chan uint // 待重算的帖子 ID 队列
	pending map[uint]bool
	mu      sync.Mutex
	clock   clockwork.Clock
}

var (
	rankingService *RankingService
	once           sync.Once
)

// GetRankingService 获取单例排名服务
func GetRankingService() *RankingService {
	once.Do(func() {
		rankingService = &RankingService{
			queue:   make(chan uint, 1000), // 缓冲队列，防止阻塞
			pending: make(map[uint]bool),
			clock:   clockwork.NewRealClock(),
		}
		go rankingService.worker()
	})
	return rankingService
}

// ScheduleUpdate 将帖子加入重算队列（异步），短时间内重复请求去重
func (s *RankingService) ScheduleUpdate(postID uint) {
	s.mu.Lock()
	if s.pending[postID] {
		s.mu.Unlock()
		return
	}
	s.pending[postID] = true
	s.mu.Unlock()

	select {
	case s.queue <- postID:
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
		log.Printf("排名更新队列已满，跳过帖子 %d", postID)
	}
}

// worker 后台批量处理队列中的重算请求
func (s *RankingService) worker() {
	batch := make([]uint, 0, 50)
	ticker := s.clock.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case postID := <-s.queue:
			batch = append(batch, postID)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.Chan():
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *RankingService) processBatch(postIDs []uint) {
	for _, postID := range postIDs {
		s.reconcilePost(postID)

		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
	}
}

// reconcilePost 按源表重新统计一个帖子的票数/评论数并重算分数
func (s *RankingService) reconcilePost(postID uint) {
	var post models.Post
	if err := db.DB.First(&post, postID).Error; err != nil {
		log.Printf("重算分数失败：帖子 %d 不存在", postID)
		return
	}

	var upvotes int64
	db.DB.Model(&models.Vote{}).
		Where("target_type = ? AND target_id = ? AND value = 1", models.TargetTypePost, postID).
		Count(&upvotes)

	var downvotes int64
	db.DB.Model(&models.Vote{}).
		Where("target_type = ? AND target_id = ? AND value = -1", models.TargetTypePost, postID).
		Count(&downvotes)

	var comments int64
	db.DB.Model(&models.Comment{}).
		Where("post_id = ? AND status = ?", postID, models.ContentStatusVisible).
		Count(&comments)

	updates := map[string]interface{}{
		"up_count":        int(upvotes),
		"down_count":      int(downvotes),
		"comment_count":   int(comments),
		"hot_score":       utils.ComputeHotScore(int(upvotes), int(downvotes), post.CreatedAt),
		"discussed_score": utils.ComputeDiscussedScore(int(comments), int(upvotes), int(downvotes)),
	}
	if err := db.DB.Model(&post).Updates(updates).Error; err != nil {
		log.Printf("更新帖子 %d 分数失败: %v", postID, err)
	}
}

// StartScheduledReconcile 启动定时对账任务（每天凌晨 3 点执行）
func (s *RankingService) StartScheduledReconcile() {
	go func() {
		for {
			now := s.clock.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, now.Location())
			if now.After(next) {
				next = next.Add(24 * time.Hour)
			}
			s.clock.Sleep(next.Sub(now))

			log.Println("开始定时对账帖子分数...")
			s.reconcileRecent()
			log.Println("定时对账完成")
		}
	}()
}

// reconcileRecent 对账最近 7 天和热度最高的 30 篇帖子（边遍历边去重）
func (s *RankingService) reconcileRecent() {
	processed := make(map[uint]bool)
	count := 0

	sevenDaysAgo := s.clock.Now().AddDate(0, 0, -7)
	var recentPosts []models.Post
	db.DB.Where("created_at >= ?", sevenDaysAgo).Select("id").Find(&recentPosts)
	for _, p := range recentPosts {
		s.reconcilePost(p.ID)
		processed[p.ID] = true
		count++
	}

	var topPosts []models.Post
	db.DB.Order("hot_score DESC").Limit(30).Select("id").Find(&topPosts)
	for _, p := range topPosts {
		if !processed[p.ID] {
			s.reconcilePost(p.ID)
			count++
		}
	}

	log.Printf("本次对账 %d 篇帖子", count)
}
