package models

import (
	"time"
)

const (
	BanScopeGlobal = "GLOBAL"
	BanScopeBoard  = "BOARD"
)

type Ban struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ActorID   uint       `gorm:"not null;index" json:"actor_id"`
	Scope     string     `gorm:"size:10;not null" json:"scope"` // GLOBAL, BOARD
	BoardID   *uint      `gorm:"index" json:"board_id"`         // Scope=BOARD 时必填
	Reason    string     `gorm:"size:200" json:"reason"`
	ExpiresAt *time.Time `json:"expires_at"` // 空表示永久
	CreatedAt time.Time  `json:"created_at"`
}
