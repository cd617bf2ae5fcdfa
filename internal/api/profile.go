package api

import (
	"errors"
	"log/slog"
	"net/http"

	"jobboard/internal/api/middleware"
	"jobboard/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type profileRequest struct {
	FullName string       `json:"full_name" binding:"required,max=80"`
	Age      int          `json:"age" binding:"required,gte=18,lte=80"`
	Gender   model.Gender `json:"gender" binding:"required"`
	Phone    string       `json:"phone"`
	Intro    string       `json:"intro" binding:"max=1000"`
}

type profileResponse struct {
	UserID   uint         `json:"user_id"`
	FullName string       `json:"full_name"`
	Age      int          `json:"age"`
	Gender   model.Gender `json:"gender"`
	Phone    string       `json:"phone,omitempty"`
	Intro    string       `json:"intro,omitempty"`
}

func toProfileResponse(p model.CandidateProfile) profileResponse {
	return profileResponse{
		UserID:   p.UserID,
		FullName: p.FullName,
		Age:      p.Age,
		Gender:   p.Gender,
		Phone:    p.Phone,
		Intro:    p.Intro,
	}
}

// handleGetMyProfile 返回当前用户的候选人资料。
//
// GET /profile/me
func (s *Server) handleGetMyProfile(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var profile model.CandidateProfile
	if err := s.db.WithContext(c.Request.Context()).First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		s.logger.Error("query profile failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query profile failed"})
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(profile))
}

// handleUpsertProfile 创建或整体替换当前用户的候选人资料。
//
// PUT /profile/
//
// 以用户 ID 为主键的 upsert：重复提交同样的字段得到同样的存储状态。
func (s *Server) handleUpsertProfile(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if !model.ValidGender(req.Gender) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid gender"})
		return
	}

	profile := model.CandidateProfile{
		UserID:   userID,
		FullName: req.FullName,
		Age:      req.Age,
		Gender:   req.Gender,
		Phone:    req.Phone,
		Intro:    req.Intro,
	}

	if err := s.db.WithContext(c.Request.Context()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&profile).Error; err != nil {
		s.logger.Error("upsert profile failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save profile failed"})
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(profile))
}
