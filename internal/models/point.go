package models

import (
	"time"
)

// 积分流水的事由
const (
	PointReasonVoteChange       = "VOTE_CHANGE"
	PointReasonDeleteConfiscate = "DELETE_CONFISCATE"
	PointReasonAdminAdjust      = "ADMIN_ADJUST"
)

// PointLedgerEntry 积分流水，只追加不改不删，是所有积分变动的审计轨迹
type PointLedgerEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    uint      `gorm:"not null;index" json:"actor_id"` // 受益（或被扣）的作者
	TargetType string    `gorm:"size:10;not null;index:idx_ledger_target" json:"target_type"`
	TargetID   uint      `gorm:"not null;index:idx_ledger_target" json:"target_id"`
	Delta      int       `gorm:"not null" json:"delta"`
	Reason     string    `gorm:"size:30;not null" json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActorPointStats 每个 actor 一行的积分总额，等于其全部流水之和，
// 随每次流水写入在同一事务内增量维护，供排行榜快速查询
type ActorPointStats struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorID   uint      `gorm:"uniqueIndex;not null" json:"actor_id"`
	Points    int       `gorm:"default:0;not null" json:"points"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContentPointState 内容被删除/隐藏后的没收状态。
// Confiscated 置真后同一内容的没收永不重复执行，保证重试/重复版务调用幂等。
type ContentPointState struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	TargetType        string     `gorm:"size:10;not null;uniqueIndex:idx_content_point_target" json:"target_type"`
	TargetID          uint       `gorm:"not null;uniqueIndex:idx_content_point_target" json:"target_id"`
	Confiscated       bool       `gorm:"default:false;not null" json:"confiscated"`
	ConfiscatedPoints int        `gorm:"default:0;not null" json:"confiscated_points"`
	ConfiscatedAt     *time.Time `json:"confiscated_at"`
}
