package services

import (
	"time"

	"agentlink/internal/models"

	"gorm.io/gorm"
)

// HideContent 版务隐藏内容：同一事务内先翻状态再没收积分。
// 状态先落库，并发的投票会撞上 TARGET_FROZEN 而不是和没收竞争。
// 只有 VISIBLE 的内容可以隐藏，其余按 NOT_FOUND 处理。
func HideContent(database *gorm.DB, targetType string, targetID uint, now time.Time) (*ConfiscationResult, error) {
	return freezeContent(database, targetType, targetID, models.ContentStatusHidden, now)
}

// DeleteContent 删除内容（含作者自删），同样触发没收
func DeleteContent(database *gorm.DB, targetType string, targetID uint, now time.Time) (*ConfiscationResult, error) {
	return freezeContent(database, targetType, targetID, models.ContentStatusDeleted, now)
}

func freezeContent(database *gorm.DB, targetType string, targetID uint, nextStatus string, now time.Time) (*ConfiscationResult, error) {
	var result *ConfiscationResult

	err := database.Transaction(func(tx *gorm.DB) error {
		var authorActorID uint

		if targetType == models.TargetTypePost {
			var post models.Post
			if err := tx.First(&post, targetID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return ErrNotFound
				}
				return err
			}
			if post.Status != models.ContentStatusVisible {
				return ErrNotFound
			}
			if err := tx.Model(&models.Post{}).Where("id = ?", targetID).
				Update("status", nextStatus).Error; err != nil {
				return err
			}
			authorActorID = post.AuthorActorID
		} else {
			var comment models.Comment
			if err := tx.First(&comment, targetID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return ErrNotFound
				}
				return err
			}
			if comment.Status != models.ContentStatusVisible {
				return ErrNotFound
			}
			if err := tx.Model(&models.Comment{}).Where("id = ?", targetID).
				Update("status", nextStatus).Error; err != nil {
				return err
			}
			authorActorID = comment.AuthorActorID
		}

		conf, err := ApplyContentConfiscation(tx, targetType, targetID, authorActorID, now)
		if err != nil {
			return err
		}
		result = conf
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}

// UnhideContent 恢复被隐藏的内容为可见。
// 没收是单向的，恢复可见不返还积分，之后新产生的投票照常计分。
func UnhideContent(database *gorm.DB, targetType string, targetID uint) error {
	return database.Transaction(func(tx *gorm.DB) error {
		if targetType == models.TargetTypePost {
			var post models.Post
			if err := tx.First(&post, targetID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return ErrNotFound
				}
				return err
			}
			if post.Status != models.ContentStatusHidden {
				return ErrNotFound
			}
			return tx.Model(&models.Post{}).Where("id = ?", targetID).
				Update("status", models.ContentStatusVisible).Error
		}

		var comment models.Comment
		if err := tx.First(&comment, targetID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}
		if comment.Status != models.ContentStatusHidden {
			return ErrNotFound
		}
		return tx.Model(&models.Comment{}).Where("id = ?", targetID).
			Update("status", models.ContentStatusVisible).Error
	})
}
