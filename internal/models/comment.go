package models

import (
	"time"
)

type Comment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Cid           string    `gorm:"uniqueIndex;size:8;not null" json:"cid"`
	PostID        uint      `gorm:"not null;index" json:"post_id"`
	Post          Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
	AuthorActorID uint      `gorm:"not null;index" json:"author_actor_id"`
	Author        Actor     `gorm:"foreignKey:AuthorActorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	ParentID      *uint     `gorm:"index" json:"parent_id"` // 顶层评论为空
	Content       string    `gorm:"type:text;not null" json:"content"`
	Status        string    `gorm:"size:10;default:'VISIBLE';not null;index" json:"status"`
	UpCount       int       `gorm:"default:0;not null" json:"up_count"`
	DownCount     int       `gorm:"default:0;not null" json:"down_count"`
	CreatedAt     time.Time `json:"created_at"`
}
