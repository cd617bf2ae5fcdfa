package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"jobboard/internal/api/middleware"
	"jobboard/internal/model"
	"jobboard/internal/pkg/metrics"
	"jobboard/internal/pkg/notify"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type applicationCreateRequest struct {
	JobID           uint   `json:"job_id" binding:"required"`
	ApplicationNote string `json:"application_note" binding:"max=1000"`
}

type applicationResponse struct {
	ID              uint                    `json:"id"`
	UserID          uint                    `json:"user_id"`
	JobID           uint                    `json:"job_id"`
	Status          model.ApplicationStatus `json:"status"`
	ApplicationNote string                  `json:"application_note,omitempty"`
}

func toApplicationResponse(a model.Application) applicationResponse {
	return applicationResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		JobID:           a.JobID,
		Status:          a.Status,
		ApplicationNote: a.ApplicationNote,
	}
}

// handleCreateApplication 投递一个职位。
//
// POST /applications/
//
// 前置条件：候选人资料已填写（资料就是展示给雇主的信息）。
// (user, job) 唯一：预检查返回 409，真正的裁决是存储层唯一索引，
// 并发重复请求恰好一个成功、一个冲突。
func (s *Server) handleCreateApplication(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	var req applicationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var job model.Job
	if err := s.db.WithContext(ctx).First(&job, req.JobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "occupation not found"})
			return
		}
		s.logger.Error("query job failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query job failed"})
		return
	}

	var profile model.CandidateProfile
	if err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "please complete your candidate profile before applying"})
			return
		}
		s.logger.Error("query profile failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query profile failed"})
		return
	}

	var existing model.Application
	err := s.db.WithContext(ctx).Where("user_id = ? AND job_id = ?", userID, req.JobID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "already applied to this job"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("query application failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query application failed"})
		return
	}

	application := model.Application{
		UserID:          userID,
		JobID:           req.JobID,
		Status:          model.StatusApplied,
		ApplicationNote: req.ApplicationNote,
	}
	if err := s.db.WithContext(ctx).Create(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if metrics.ApplicationConflictsTotal != nil {
				metrics.ApplicationConflictsTotal.Inc()
			}
			c.JSON(http.StatusConflict, gin.H{"error": "already applied to this job"})
			return
		}
		s.logger.Error("create application failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create application failed"})
		return
	}

	if metrics.ApplicationsCreatedTotal != nil {
		metrics.ApplicationsCreatedTotal.Inc()
	}
	s.notifyCompanyOwner(job, profile, req.ApplicationNote)

	c.JSON(http.StatusCreated, toApplicationResponse(application))
}

// notifyCompanyOwner 异步通知公司所有者收到新投递。失败只记日志。
// goroutine 登记在 notifyWG 上，Close 会先排空再断开连接。
func (s *Server) notifyCompanyOwner(job model.Job, profile model.CandidateProfile, note string) {
	if s.mailer == nil {
		return
	}

	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var owner model.User
		err := s.db.WithContext(ctx).
			Joins("JOIN companies ON companies.owner_id = users.id").
			Where("companies.id = ?", job.CompanyID).
			First(&owner).Error
		if err != nil {
			s.logger.Warn("load company owner failed", slog.String("error", err.Error()))
			return
		}

		n := notify.Notice{
			JobTitle:      job.Title,
			CandidateName: profile.FullName,
			Note:          note,
		}
		if err := s.mailer.SendApplicationReceived(ctx, n, owner.Email); err != nil {
			s.logger.Warn("send application notification failed", slog.String("error", err.Error()))
		}
	}()
}

// handleListMyApplications 返回当前用户的全部投递。
//
// GET /applications/me
func (s *Server) handleListMyApplications(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var applications []model.Application
	if err := s.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("id").
		Find(&applications).Error; err != nil {
		s.logger.Error("list applications failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list applications failed"})
		return
	}

	resp := make([]applicationResponse, 0, len(applications))
	for _, a := range applications {
		resp = append(resp, toApplicationResponse(a))
	}
	c.JSON(http.StatusOK, resp)
}

// handleCancelApplication 取消一条投递。
//
// PATCH /applications/:id/cancel
//
// 只有本人可取消；已取消的再取消是错误而不是幂等成功。
func (s *Server) handleCancelApplication(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
		return
	}

	var application model.Application
	if err := s.db.WithContext(c.Request.Context()).First(&application, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
			return
		}
		s.logger.Error("query application failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query application failed"})
		return
	}

	if application.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "no permission to cancel this application"})
		return
	}
	if application.Status == model.StatusCancelledByCandidate {
		c.JSON(http.StatusBadRequest, gin.H{"error": "application already cancelled"})
		return
	}

	if err := s.db.WithContext(c.Request.Context()).
		Model(&application).
		Update("status", model.StatusCancelledByCandidate).Error; err != nil {
		s.logger.Error("cancel application failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel application failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": model.StatusCancelledByCandidate})
}

// companyApplicationEntry 公司视角的投递条目，读取时联查候选人资料与职位摘要。
type companyApplicationEntry struct {
	ID              uint                    `json:"id"`
	Status          model.ApplicationStatus `json:"status"`
	ApplicationNote string                  `json:"application_note,omitempty"`
	Candidate       gin.H                   `json:"candidate"`
	Job             gin.H                   `json:"job"`
}

// handleListCompanyApplications 返回投向当前用户公司职位的全部投递。
//
// GET /applications/company?job_id=
//
// 指定 job_id 时会再校验该职位属于当前公司。
func (s *Server) handleListCompanyApplications(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	company, err := s.ownedCompany(c, userID)
	if err != nil {
		s.logger.Error("query company failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query company failed"})
		return
	}
	if company == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no company associated with the user"})
		return
	}

	query := s.db.WithContext(ctx).Model(&model.Application{}).
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Where("jobs.company_id = ?", company.ID)

	if v := c.Query("job_id"); v != "" {
		jobID, parseErr := strconv.ParseUint(v, 10, 64)
		if parseErr != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "occupation not found or does not belong to your company"})
			return
		}

		var job model.Job
		if err := s.db.WithContext(ctx).First(&job, uint(jobID)).Error; err != nil || job.CompanyID != company.ID {
			c.JSON(http.StatusNotFound, gin.H{"error": "occupation not found or does not belong to your company"})
			return
		}
		query = query.Where("applications.job_id = ?", jobID)
	}

	var applications []model.Application
	if err := query.Order("applications.id").Find(&applications).Error; err != nil {
		s.logger.Error("list company applications failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list applications failed"})
		return
	}

	result := make([]companyApplicationEntry, 0, len(applications))
	for _, app := range applications {
		entry := companyApplicationEntry{
			ID:              app.ID,
			Status:          app.Status,
			ApplicationNote: app.ApplicationNote,
		}

		var profile model.CandidateProfile
		if err := s.db.WithContext(ctx).First(&profile, "user_id = ?", app.UserID).Error; err == nil {
			entry.Candidate = gin.H{
				"user_id":   profile.UserID,
				"full_name": profile.FullName,
				"age":       profile.Age,
				"gender":    profile.Gender,
				"phone":     profile.Phone,
				"intro":     profile.Intro,
			}
		} else {
			entry.Candidate = gin.H{"user_id": app.UserID}
		}

		var job model.Job
		if err := s.db.WithContext(ctx).First(&job, app.JobID).Error; err == nil {
			entry.Job = gin.H{
				"id":       job.ID,
				"title":    job.Title,
				"position": job.Position,
			}
		}

		result = append(result, entry)
	}

	c.JSON(http.StatusOK, result)
}
