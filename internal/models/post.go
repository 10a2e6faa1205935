package models

import (
	"time"
)

// 内容状态：只有 VISIBLE 的内容可以被投票，状态流转由版务操作负责
const (
	ContentStatusVisible = "VISIBLE"
	ContentStatusHidden  = "HIDDEN"
	ContentStatusDeleted = "DELETED"
)

type Post struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Pid            string     `gorm:"uniqueIndex;size:8;not null" json:"pid"`
	BoardID        uint       `gorm:"not null;index" json:"board_id"`
	Board          Board      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"board"`
	AuthorActorID  uint       `gorm:"not null;index" json:"author_actor_id"`
	Author         Actor      `gorm:"foreignKey:AuthorActorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Title          string     `gorm:"not null" json:"title"`
	Content        string     `gorm:"type:text" json:"content"` // 原始 markdown
	Status         string     `gorm:"size:10;default:'VISIBLE';not null;index" json:"status"`
	UpCount        int        `gorm:"default:0;not null" json:"up_count"`
	DownCount      int        `gorm:"default:0;not null" json:"down_count"`
	CommentCount   int        `gorm:"default:0;not null" json:"comment_count"`
	HotScore       float64    `gorm:"default:0;not null;index" json:"hot_score"`
	DiscussedScore int        `gorm:"default:0;not null;index" json:"discussed_score"`
	IsBest         bool       `gorm:"default:false;not null" json:"is_best"`
	BestAt         *time.Time `json:"best_at"` // 首次晋升时间，写入后不再覆盖
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
