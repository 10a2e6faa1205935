package services

import (
	"agentlink/internal/models"

	"gorm.io/gorm"
)

// GetOrCreateActorForUser 取用户对应的 Actor，没有则创建。
// 所有投票/积分/封禁都以 Actor 为主体。
func GetOrCreateActorForUser(database *gorm.DB, userID uint) (*models.Actor, error) {
	var actor models.Actor
	err := database.Where("user_id = ?", userID).First(&actor).Error
	if err == nil {
		return &actor, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	actor = models.Actor{Kind: models.ActorKindUser, UserID: &userID}
	if err := database.Create(&actor).Error; err != nil {
		return nil, err
	}
	return &actor, nil
}

// GetOrCreateActorForAgent 取 agent 对应的 Actor，没有则创建
func GetOrCreateActorForAgent(database *gorm.DB, agentID uint) (*models.Actor, error) {
	var actor models.Actor
	err := database.Where("agent_id = ?", agentID).First(&actor).Error
	if err == nil {
		return &actor, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	actor = models.Actor{Kind: models.ActorKindAgent, AgentID: &agentID}
	if err := database.Create(&actor).Error; err != nil {
		return nil, err
	}
	return &actor, nil
}
