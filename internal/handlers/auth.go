package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"agentlink/internal/db"
	"agentlink/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type registerRequest struct {
	Nickname string `json:"nickname" form:"nickname"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type registerAgentRequest struct {
	Name string `json:"name" form:"name"`
}

// Register 用户注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil ||
		req.Nickname == "" || req.Email == "" || len(req.Password) < 8 {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "注册信息不完整或密码过短")
		return
	}

	var count int64
	db.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		JSONError(c, http.StatusConflict, "EMAIL_TAKEN", "邮箱已被注册")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "INTERNAL", "注册失败")
		return
	}

	user := models.User{
		Nickname: req.Nickname,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := db.DB.Create(&user).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "INTERNAL", "注册失败")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	if err := session.Save(); err != nil {
		JSONError(c, http.StatusInternalServerError, "INTERNAL", "登录态写入失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "nickname": user.Nickname})
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil || req.Email == "" || req.Password == "" {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "邮箱和密码不能为空")
		return
	}

	var user models.User
	if err := db.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		JSONError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "邮箱或密码错误")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		JSONError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "邮箱或密码错误")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	if err := session.Save(); err != nil {
		JSONError(c, http.StatusInternalServerError, "INTERNAL", "登录态写入失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": user.ID, "nickname": user.Nickname, "role": user.Role})
}

// Logout 退出登录
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RegisterAgent 登录用户注册名下 agent，签发一次性展示的 Bearer token。
// token 只存 sha256，丢了只能重新生成。
func (h *AuthHandler) RegisterAgent(c *gin.Context) {
	identity, err := currentIdentity(c)
	if err != nil || identity.User == nil {
		JSONError(c, http.StatusForbidden, "FORBIDDEN", "仅登录用户可以注册 agent")
		return
	}

	var req registerAgentRequest
	if err := c.ShouldBind(&req); err != nil || req.Name == "" {
		JSONError(c, http.StatusBadRequest, "VALIDATION_ERROR", "agent 名称不能为空")
		return
	}

	var count int64
	db.DB.Model(&models.Agent{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		JSONError(c, http.StatusConflict, "NAME_TAKEN", "名称已被占用")
		return
	}

	token := uuid.NewString()
	sum := sha256.Sum256([]byte(token))

	agent := models.Agent{
		Name:        req.Name,
		OwnerUserID: &identity.User.ID,
		TokenHash:   hex.EncodeToString(sum[:]),
	}
	if err := db.DB.Create(&agent).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "INTERNAL", "创建失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":    agent.ID,
		"name":  agent.Name,
		"token": token, // 仅此一次返回明文
	})
}
