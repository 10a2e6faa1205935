package models

import (
	"time"
)

const (
	TargetTypePost    = "POST"
	TargetTypeComment = "COMMENT"
)

// Vote 一人一票：(voter_actor_id, target_type, target_id) 复合唯一键。
// 没有行代表中立，不会存 value=0；再次投同值即取消（删行）。
type Vote struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	VoterActorID uint      `gorm:"not null;uniqueIndex:idx_vote_voter_target" json:"voter_actor_id"`
	TargetType   string    `gorm:"size:10;not null;uniqueIndex:idx_vote_voter_target" json:"target_type"`
	TargetID     uint      `gorm:"not null;uniqueIndex:idx_vote_voter_target;index:idx_vote_target" json:"target_id"`
	Value        int       `gorm:"not null" json:"value"` // 1 或 -1
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
