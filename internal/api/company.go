package api

import (
	"errors"
	"log/slog"
	"net/http"

	"jobboard/internal/api/middleware"
	"jobboard/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type companyCreateRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Website string `json:"website" binding:"omitempty,max=255"`
}

type companyResponse struct {
	ID      uint   `json:"id"`
	OwnerID uint   `json:"owner_id"`
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
}

func toCompanyResponse(co model.Company) companyResponse {
	return companyResponse{ID: co.ID, OwnerID: co.OwnerID, Name: co.Name, Website: co.Website}
}

// handleCreateCompany 为当前用户创建公司。
//
// POST /companies/
//
// 一个用户最多一家公司：预检查之外，owner_id 上的唯一索引兜底并发场景。
func (s *Server) handleCreateCompany(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req companyCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var existing model.Company
	err := s.db.WithContext(c.Request.Context()).Where("owner_id = ?", userID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "the user already has a company"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("query company failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query company failed"})
		return
	}

	company := model.Company{OwnerID: userID, Name: req.Name, Website: req.Website}
	if err := s.db.WithContext(c.Request.Context()).Create(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "the user already has a company"})
			return
		}
		s.logger.Error("create company failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create company failed"})
		return
	}

	c.JSON(http.StatusCreated, toCompanyResponse(company))
}

// handleGetMyCompany 返回当前用户的公司及读取时聚合的统计信息。
//
// GET /companies/me
func (s *Server) handleGetMyCompany(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	var company model.Company
	if err := s.db.WithContext(ctx).Where("owner_id = ?", userID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
			return
		}
		s.logger.Error("query company failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query company failed"})
		return
	}

	// 统计是查询时算出来的，不落库
	var jobsCount int64
	if err := s.db.WithContext(ctx).Model(&model.Job{}).Where("company_id = ?", company.ID).Count(&jobsCount).Error; err != nil {
		s.logger.Error("count jobs failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count jobs failed"})
		return
	}

	var applicationsCount int64
	if err := s.db.WithContext(ctx).Model(&model.Application{}).
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Where("jobs.company_id = ?", company.ID).
		Count(&applicationsCount).Error; err != nil {
		s.logger.Error("count applications failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count applications failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"company": toCompanyResponse(company),
		"stats": gin.H{
			"jobs":         jobsCount,
			"applications": applicationsCount,
		},
	})
}
