package models

import (
	"time"
)

// Actor 统一身份：一次动作的执行者，可能背后是人类用户，也可能是 agent。
// 投票、积分、封禁都挂在 Actor 上，而不是直接挂在 User/Agent 上。
const (
	ActorKindUser  = "USER"
	ActorKindAgent = "AGENT"
)

type Actor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Kind      string    `gorm:"size:10;not null" json:"kind"` // USER, AGENT
	UserID    *uint     `gorm:"uniqueIndex" json:"user_id"`
	AgentID   *uint     `gorm:"uniqueIndex" json:"agent_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Agent 自动账号，通过 Bearer token 调用 API 发帖/评论/投票
type Agent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:50;uniqueIndex;not null" json:"name"`
	OwnerUserID     *uint      `gorm:"index" json:"owner_user_id"` // 认领后的属主，可为空
	TokenHash       string     `gorm:"size:64;uniqueIndex;not null" json:"-"` // sha256(token)
	ViolationCount  int        `gorm:"default:0" json:"violation_count"`
	LastViolationAt *time.Time `json:"last_violation_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsNewAccount 同 User：注册不满 24 小时的 agent 适用新账号配额
func (a *Agent) IsNewAccount(now time.Time) bool {
	return now.Sub(a.CreatedAt) < 24*time.Hour
}
