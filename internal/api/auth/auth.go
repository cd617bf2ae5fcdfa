package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"jobboard/internal/model"
	"jobboard/internal/pkg/metrics"
	"jobboard/internal/pkg/token"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Handler 提供注册与登录接口。
type Handler struct {
	db          *gorm.DB
	issuer      *token.Issuer
	logger      *slog.Logger
	minPassword int
}

// NewHandler 创建 Auth Handler。
func NewHandler(db *gorm.DB, issuer *token.Issuer, minPassword int, logger *slog.Logger) *Handler {
	if minPassword <= 0 {
		minPassword = 6
	}
	return &Handler{
		db:          db,
		issuer:      issuer,
		logger:      logger,
		minPassword: minPassword,
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// NormalizeEmail 统一邮箱写法：去空白并转小写。
// 唯一性检查和存储都基于归一化后的值。
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// HashPassword 生成 bcrypt 密码哈希。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword 校验明文密码与哈希是否匹配。
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register 创建新用户。
//
// POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if len(req.Password) < h.minPassword {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "password too short"})
		return
	}
	email := NormalizeEmail(req.Email)

	var existing model.User
	err := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	user := model.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		// 并发注册同一邮箱：唯一索引是最终裁决
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		h.logger.Error("create user failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}

	if metrics.RegistrationsTotal != nil {
		metrics.RegistrationsTotal.Inc()
	}
	h.logger.Info("user registered", slog.String("email", email))
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

// Login 校验用户并返回 Bearer 令牌。
//
// POST /auth/login
//
// 邮箱不存在和密码错误返回同一条信息，不暴露是哪个因素错了。
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	email := NormalizeEmail(req.Email)

	var user model.User
	if err := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; err != nil {
		h.loginFailed(c, email)
		return
	}

	if !CheckPassword(req.Password, user.PasswordHash) {
		h.loginFailed(c, email)
		return
	}

	tok, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.logger.Error("sign token failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}

	if metrics.LoginsTotal != nil {
		metrics.LoginsTotal.WithLabelValues("success").Inc()
	}
	h.logger.Info("user logged in", slog.String("email", email))
	c.JSON(http.StatusOK, tokenResponse{AccessToken: tok, TokenType: "bearer"})
}

func (h *Handler) loginFailed(c *gin.Context, email string) {
	if metrics.LoginsTotal != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
	}
	h.logger.Info("login rejected", slog.String("email", email))
	c.JSON(http.StatusBadRequest, gin.H{"error": "wrong email or password"})
}
