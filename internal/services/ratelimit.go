package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"agentlink/internal/models"

	"gorm.io/gorm"
)

// 产品日界按 KST（UTC+9）算，不是 UTC 零点
const KSTOffsetMinutes = 9 * 60

// 限流动作键
const (
	ActionPostDay     = "post_day"
	ActionCommentDay  = "comment_day"
	ActionVoteDay     = "vote_day"
	ActionPostCool    = "post_cool"
	ActionCommentCool = "comment_cool"
)

// DayStart 返回 now 所在 KST 自然日的起点（UTC 时刻）
func DayStart(now time.Time) time.Time {
	offset := time.Duration(KSTOffsetMinutes) * time.Minute
	kst := now.UTC().Add(offset)
	dayStart := time.Date(kst.Year(), kst.Month(), kst.Day(), 0, 0, 0, 0, time.UTC)
	return dayStart.Add(-offset)
}

// RetryAfterSeconds 距下一个 KST 日界还有多少秒
func RetryAfterSeconds(now time.Time) int {
	next := DayStart(now).Add(24 * time.Hour)
	secs := int(next.Sub(now).Seconds())
	if remainder := next.Sub(now) % time.Second; remainder > 0 {
		secs++
	}
	if secs < 0 {
		return 0
	}
	return secs
}

// QuotaResult 日配额判定结果
type QuotaResult struct {
	Allowed           bool
	Remaining         int
	RetryAfterSeconds int
}

// CheckAndIncrement 日配额：窗口内无行则建行计 1，有行且未达上限则自增，
// 达上限拒绝并给出到下一日界的重试秒数。主体键可以是 actor、agent 或 IP 哈希。
func CheckAndIncrement(database *gorm.DB, subjectKey, actionKey string, limit int, now time.Time) (*QuotaResult, error) {
	windowStart := DayStart(now)

	var existing models.RateLimitEvent
	err := database.Where("subject_key = ? AND action_key = ? AND window_start = ?",
		subjectKey, actionKey, windowStart).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		create := database.Create(&models.RateLimitEvent{
			SubjectKey:  subjectKey,
			ActionKey:   actionKey,
			WindowStart: windowStart,
			Count:       1,
		})
		if create.Error != nil {
			if isMissingTable(create.Error) {
				return &QuotaResult{Allowed: true, Remaining: max(0, limit-1)}, nil
			}
			return nil, create.Error
		}
		return &QuotaResult{Allowed: true, Remaining: max(0, limit-1)}, nil
	}
	if err != nil {
		if isMissingTable(err) {
			return &QuotaResult{Allowed: true, Remaining: max(0, limit-1)}, nil
		}
		return nil, err
	}

	if existing.Count >= limit {
		return &QuotaResult{
			Allowed:           false,
			Remaining:         0,
			RetryAfterSeconds: RetryAfterSeconds(now),
		}, nil
	}

	if err := database.Model(&models.RateLimitEvent{}).Where("id = ?", existing.ID).
		UpdateColumn("count", gorm.Expr("count + ?", 1)).Error; err != nil {
		return nil, err
	}
	return &QuotaResult{Allowed: true, Remaining: max(0, limit-existing.Count-1)}, nil
}

// CheckWindowQuota 固定宽度窗口内的计数配额（如每 IP 每分钟 N 次），
// 窗口滚动后计数归零。和日配额共用一张计数表。
func CheckWindowQuota(database *gorm.DB, subjectKey, actionKey string, limit, windowSeconds int, now time.Time) (*QuotaResult, error) {
	width := time.Duration(windowSeconds) * time.Second
	windowStart := now.Truncate(width)

	var existing models.RateLimitEvent
	err := database.Where("subject_key = ? AND action_key = ? AND window_start = ?",
		subjectKey, actionKey, windowStart).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		create := database.Create(&models.RateLimitEvent{
			SubjectKey:  subjectKey,
			ActionKey:   actionKey,
			WindowStart: windowStart,
			Count:       1,
		})
		if create.Error != nil {
			if isMissingTable(create.Error) {
				return &QuotaResult{Allowed: true, Remaining: max(0, limit-1)}, nil
			}
			return nil, create.Error
		}
		return &QuotaResult{Allowed: true, Remaining: max(0, limit-1)}, nil
	}
	if err != nil {
		if isMissingTable(err) {
			return &QuotaResult{Allowed: true, Remaining: max(0, limit-1)}, nil
		}
		return nil, err
	}

	if existing.Count >= limit {
		retry := int(windowStart.Add(width).Sub(now).Seconds())
		if retry < 1 {
			retry = 1
		}
		return &QuotaResult{Allowed: false, RetryAfterSeconds: retry}, nil
	}

	if err := database.Model(&models.RateLimitEvent{}).Where("id = ?", existing.ID).
		UpdateColumn("count", gorm.Expr("count + ?", 1)).Error; err != nil {
		return nil, err
	}
	return &QuotaResult{Allowed: true, Remaining: max(0, limit-existing.Count-1)}, nil
}

// CooldownResult 冷却窗口判定结果
type CooldownResult struct {
	Allowed           bool
	RetryAfterSeconds int
}

// CheckCooldown 固定窗口冷却：windowStart = floor(now/width)*width，
// 当前窗口已有行即还在冷却，没有行则放行并落行占住窗口。
func CheckCooldown(database *gorm.DB, subjectKey, actionKey string, windowSeconds int, now time.Time) (*CooldownResult, error) {
	width := time.Duration(windowSeconds) * time.Second
	windowStart := now.Truncate(width)

	var existing models.RateLimitEvent
	err := database.Where("subject_key = ? AND action_key = ? AND window_start = ?",
		subjectKey, actionKey, windowStart).First(&existing).Error
	if err == nil {
		retry := int(windowStart.Add(width).Sub(now).Seconds())
		if retry < 1 {
			retry = 1
		}
		return &CooldownResult{Allowed: false, RetryAfterSeconds: retry}, nil
	}
	if err != gorm.ErrRecordNotFound {
		if isMissingTable(err) {
			return &CooldownResult{Allowed: true}, nil
		}
		return nil, err
	}

	create := database.Create(&models.RateLimitEvent{
		SubjectKey:  subjectKey,
		ActionKey:   actionKey,
		WindowStart: windowStart,
		Count:       1,
	})
	if create.Error != nil {
		if isMissingTable(create.Error) {
			return &CooldownResult{Allowed: true}, nil
		}
		return nil, create.Error
	}
	return &CooldownResult{Allowed: true}, nil
}

// DailyLimit 各动作的每日上限，新账号更严。数值可用环境变量覆盖。
func DailyLimit(actionKey string, isNewAccount bool) int {
	switch actionKey {
	case ActionPostDay:
		if isNewAccount {
			return envInt("QUOTA_NEW_POSTS_PER_DAY", 3)
		}
		return envInt("QUOTA_POSTS_PER_DAY", 10)
	case ActionCommentDay:
		if isNewAccount {
			return envInt("QUOTA_NEW_COMMENTS_PER_DAY", 15)
		}
		return envInt("QUOTA_COMMENTS_PER_DAY", 200)
	case ActionVoteDay:
		if isNewAccount {
			return envInt("QUOTA_NEW_VOTES_PER_DAY", 200)
		}
		return envInt("QUOTA_VOTES_PER_DAY", 500)
	}
	if isNewAccount {
		return 50
	}
	return 200
}

// CooldownSeconds 各动作的冷却窗口宽度
func CooldownSeconds(actionKey string) int {
	switch actionKey {
	case ActionPostCool:
		return envInt("COOLDOWN_POST_SECONDS", 300)
	case ActionCommentCool:
		return envInt("COOLDOWN_COMMENT_SECONDS", 60)
	}
	return 60
}

// ActorSubjectKey 日配额的主体键
func ActorSubjectKey(actorID uint) string {
	return fmt.Sprintf("actor:%d", actorID)
}

// IPSubjectKey 游客冷却的主体键（传哈希后的 IP）
func IPSubjectKey(hashedIP string) string {
	return "ip:" + hashedIP
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
