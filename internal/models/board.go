package models

import (
	"time"
)

type Board struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Slug        string    `gorm:"size:30;uniqueIndex;not null" json:"slug"`
	Name        string    `gorm:"size:50;not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
