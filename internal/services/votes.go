package services

import (
	"time"

	"agentlink/internal/models"
	"agentlink/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 投票状态机的三种动作
const (
	VoteActionCreate = "create"
	VoteActionUpdate = "update"
	VoteActionDelete = "delete"
)

// ToggleResult 状态机输出：对 Vote 行的动作、两个计数器的增量、落库后的值。
// NextValue 为 0 表示回到中立（删行），不会有 value=0 的行。
type ToggleResult struct {
	Action    string
	DeltaUp   int
	DeltaDown int
	NextValue int
}

// ToggleVote 纯决策函数：existing 为 nil 表示没投过票，next 只能是 1 或 -1。
//   - 没投过 → create，计入对应方向
//   - 同值再投 → delete，相当于"再点一次取消"
//   - 反向投 → update，旧方向 -1 新方向 +1
func ToggleVote(existing *int, next int) ToggleResult {
	if existing == nil {
		r := ToggleResult{Action: VoteActionCreate, NextValue: next}
		if next == 1 {
			r.DeltaUp = 1
		} else {
			r.DeltaDown = 1
		}
		return r
	}

	if *existing == next {
		r := ToggleResult{Action: VoteActionDelete, NextValue: 0}
		if *existing == 1 {
			r.DeltaUp = -1
		} else {
			r.DeltaDown = -1
		}
		return r
	}

	r := ToggleResult{Action: VoteActionUpdate, NextValue: next}
	if next == 1 {
		r.DeltaUp = 1
		r.DeltaDown = -1
	} else {
		r.DeltaUp = -1
		r.DeltaDown = 1
	}
	return r
}

// lockForUpdate 读目标行时加行锁，防止并发读-改-写丢失计数。
// sqlite 不支持 FOR UPDATE，但它的写入本就是单写者串行，跳过无妨。
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// VoteResult 返回给调用方的计数快照
type VoteResult struct {
	Up     int `json:"up"`
	Down   int `json:"down"`
	MyVote int `json:"my_vote"`
}

// BestPromotionUpvotes 帖子首次达到该赞数即晋升精华，BestAt 只写一次
const BestPromotionUpvotes = 3

// ApplyVote 一次投票请求的事务边界：读现有票 → 状态机 → 校验目标
// （存在、VISIBLE、非自投、未封禁）→ 落票 → 更新计数和分数 → 记积分流水。
// 全部成功一起提交，任何一步失败整体回滚。
func ApplyVote(database *gorm.DB, voterActorID uint, targetType string, targetID uint, value int, now time.Time) (*VoteResult, error) {
	var result *VoteResult

	err := database.Transaction(func(tx *gorm.DB) error {
		var existing models.Vote
		var existingValue *int
		err := tx.Where("voter_actor_id = ? AND target_type = ? AND target_id = ?",
			voterActorID, targetType, targetID).First(&existing).Error
		if err == nil {
			v := existing.Value
			existingValue = &v
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		toggle := ToggleVote(existingValue, value)
		prev := 0
		if existingValue != nil {
			prev = *existingValue
		}
		pointDelta := VotePointDelta(prev, toggle.NextValue)

		applyVoteChange := func() error {
			switch toggle.Action {
			case VoteActionCreate:
				return tx.Create(&models.Vote{
					VoterActorID: voterActorID,
					TargetType:   targetType,
					TargetID:     targetID,
					Value:        value,
				}).Error
			case VoteActionUpdate:
				return tx.Model(&models.Vote{}).Where("id = ?", existing.ID).
					Update("value", value).Error
			default:
				return tx.Delete(&models.Vote{}, existing.ID).Error
			}
		}

		if targetType == models.TargetTypePost {
			// 加行锁读帖子，避免并发读-改-写丢失计数
			var post models.Post
			if err := lockForUpdate(tx).
				First(&post, targetID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return ErrNotFound
				}
				return err
			}
			if post.Status != models.ContentStatusVisible {
				return ErrTargetFrozen
			}
			if post.AuthorActorID == voterActorID {
				return ErrSelfVote
			}
			if err := AssertNotBanned(tx, voterActorID, &post.BoardID, now); err != nil {
				return err
			}

			if err := applyVoteChange(); err != nil {
				return err
			}

			if toggle.DeltaUp == 0 && toggle.DeltaDown == 0 {
				result = &VoteResult{Up: post.UpCount, Down: post.DownCount, MyVote: toggle.NextValue}
				return nil
			}

			nextUp := post.UpCount + toggle.DeltaUp
			nextDown := post.DownCount + toggle.DeltaDown
			updates := map[string]interface{}{
				"up_count":        nextUp,
				"down_count":      nextDown,
				"hot_score":       utils.ComputeHotScore(nextUp, nextDown, post.CreatedAt),
				"discussed_score": utils.ComputeDiscussedScore(post.CommentCount, nextUp, nextDown),
			}
			// 首次达标晋升精华，BestAt 一旦写入不再覆盖
			if !post.IsBest && nextUp >= BestPromotionUpvotes {
				updates["is_best"] = true
				if post.BestAt == nil {
					updates["best_at"] = now
				}
			}
			if err := tx.Model(&models.Post{}).Where("id = ?", targetID).
				Updates(updates).Error; err != nil {
				return err
			}

			if pointDelta != 0 {
				if err := RecordPointDelta(tx, post.AuthorActorID, pointDelta,
					models.TargetTypePost, targetID, models.PointReasonVoteChange); err != nil {
					return err
				}
			}

			result = &VoteResult{Up: nextUp, Down: nextDown, MyVote: toggle.NextValue}
			return nil
		}

		var comment models.Comment
		if err := lockForUpdate(tx).
			First(&comment, targetID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}
		if comment.Status != models.ContentStatusVisible {
			return ErrTargetFrozen
		}
		if comment.AuthorActorID == voterActorID {
			return ErrSelfVote
		}

		// 评论所属的帖子被冻结时评论同样不可投票
		var post models.Post
		if err := tx.First(&post, comment.PostID).Error; err == nil {
			if post.Status != models.ContentStatusVisible {
				return ErrTargetFrozen
			}
			if err := AssertNotBanned(tx, voterActorID, &post.BoardID, now); err != nil {
				return err
			}
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := applyVoteChange(); err != nil {
			return err
		}

		if toggle.DeltaUp == 0 && toggle.DeltaDown == 0 {
			result = &VoteResult{Up: comment.UpCount, Down: comment.DownCount, MyVote: toggle.NextValue}
			return nil
		}

		nextUp := comment.UpCount + toggle.DeltaUp
		nextDown := comment.DownCount + toggle.DeltaDown
		if err := tx.Model(&models.Comment{}).Where("id = ?", targetID).
			Updates(map[string]interface{}{
				"up_count":   nextUp,
				"down_count": nextDown,
			}).Error; err != nil {
			return err
		}

		if pointDelta != 0 {
			if err := RecordPointDelta(tx, comment.AuthorActorID, pointDelta,
				models.TargetTypeComment, targetID, models.PointReasonVoteChange); err != nil {
				return err
			}
		}

		result = &VoteResult{Up: nextUp, Down: nextDown, MyVote: toggle.NextValue}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}
