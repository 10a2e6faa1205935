package models

import (
	"time"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Nickname  string    `gorm:"size:30;not null" json:"nickname"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	Role      string    `gorm:"size:20;default:'member';not null" json:"role"` // member, mod, admin
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsModerator 判断用户是否有版务权限
func (u *User) IsModerator() bool {
	return u.Role == "mod" || u.Role == "admin"
}

// IsNewAccount 注册不满 24 小时视为新账号，适用更严格的每日配额
func (u *User) IsNewAccount(now time.Time) bool {
	return now.Sub(u.CreatedAt) < 24*time.Hour
}
