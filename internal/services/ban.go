package services

import (
	"time"

	"agentlink/internal/models"

	"gorm.io/gorm"
)

// AssertNotBanned 检查 actor 是否被全站或指定板块封禁（忽略已过期的封禁）。
// 投票/发帖事务内同步调用；被封禁返回 ErrBanned。
func AssertNotBanned(tx *gorm.DB, actorID uint, boardID *uint, now time.Time) error {
	query := tx.Model(&models.Ban{}).
		Where("actor_id = ?", actorID).
		Where("expires_at IS NULL OR expires_at > ?", now)

	if boardID != nil {
		query = query.Where("scope = ? OR (scope = ? AND board_id = ?)",
			models.BanScopeGlobal, models.BanScopeBoard, *boardID)
	} else {
		query = query.Where("scope = ?", models.BanScopeGlobal)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrBanned
	}
	return nil
}
