package api

import (
	"log/slog"
	"net/http"

	"jobboard/internal/model"

	"github.com/gin-gonic/gin"
)

// 管理端只读视图。权限由路由组上的 AdminOnly 中间件把守。

func (s *Server) handleAdminUsers(c *gin.Context) {
	var users []model.User
	if err := s.db.WithContext(c.Request.Context()).Order("id").Find(&users).Error; err != nil {
		s.adminQueryFailed(c, "users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) handleAdminCompanies(c *gin.Context) {
	var companies []model.Company
	if err := s.db.WithContext(c.Request.Context()).Order("id").Find(&companies).Error; err != nil {
		s.adminQueryFailed(c, "companies", err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (s *Server) handleAdminJobs(c *gin.Context) {
	var jobs []model.Job
	if err := s.db.WithContext(c.Request.Context()).Order("id").Find(&jobs).Error; err != nil {
		s.adminQueryFailed(c, "jobs", err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (s *Server) handleAdminApplications(c *gin.Context) {
	var applications []model.Application
	if err := s.db.WithContext(c.Request.Context()).Order("id").Find(&applications).Error; err != nil {
		s.adminQueryFailed(c, "applications", err)
		return
	}
	c.JSON(http.StatusOK, applications)
}

func (s *Server) handleAdminProfiles(c *gin.Context) {
	var profiles []model.CandidateProfile
	if err := s.db.WithContext(c.Request.Context()).Order("user_id").Find(&profiles).Error; err != nil {
		s.adminQueryFailed(c, "profiles", err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// handleAdminStats 返回各实体的行数汇总。
func (s *Server) handleAdminStats(c *gin.Context) {
	ctx := c.Request.Context()
	counts := gin.H{}

	for name, m := range map[string]interface{}{
		"users":        &model.User{},
		"companies":    &model.Company{},
		"jobs":         &model.Job{},
		"applications": &model.Application{},
		"profiles":     &model.CandidateProfile{},
	} {
		var n int64
		if err := s.db.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
			s.adminQueryFailed(c, name, err)
			return
		}
		counts[name] = n
	}

	c.JSON(http.StatusOK, counts)
}

func (s *Server) adminQueryFailed(c *gin.Context, entity string, err error) {
	s.logger.Error("admin query failed", slog.String("entity", entity), slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
}
