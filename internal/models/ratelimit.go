package models

import (
	"time"
)

// RateLimitEvent 窗口计数器，日配额和冷却共用一张表。
// SubjectKey 是 actor id、agent id 或 IP 哈希；同一主体同一动作同一窗口只有一行。
type RateLimitEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SubjectKey  string    `gorm:"size:80;not null;uniqueIndex:idx_rl_subject_action_window" json:"subject_key"`
	ActionKey   string    `gorm:"size:40;not null;uniqueIndex:idx_rl_subject_action_window" json:"action_key"`
	WindowStart time.Time `gorm:"not null;uniqueIndex:idx_rl_subject_action_window" json:"window_start"`
	Count       int       `gorm:"default:0;not null" json:"count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
