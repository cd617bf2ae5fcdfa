package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"unicode/utf8"

	"jobboard/internal/api/middleware"
	"jobboard/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type jobCreateRequest struct {
	Title       string         `json:"title" binding:"required,min=1,max=120"`
	Position    model.Position `json:"position" binding:"required"`
	BasedInCode *int           `json:"based_in_code" binding:"required"`
	Description string         `json:"description" binding:"required,min=1,max=10000"`
	Salary      *int           `json:"salary" binding:"required"`
}

type jobUpdateRequest struct {
	Title       *string         `json:"title"`
	Position    *model.Position `json:"position"`
	BasedInCode *int            `json:"based_in_code"`
	Description *string         `json:"description"`
	Salary      *int            `json:"salary"`
}

type jobResponse struct {
	ID          uint           `json:"id"`
	CompanyID   uint           `json:"company_id"`
	Title       string         `json:"title"`
	Position    model.Position `json:"position"`
	BasedInCode int            `json:"based_in_code"`
	Description string         `json:"description"`
	Salary      int            `json:"salary"`
}

func toJobResponse(j model.Job) jobResponse {
	return jobResponse{
		ID:          j.ID,
		CompanyID:   j.CompanyID,
		Title:       j.Title,
		Position:    j.Position,
		BasedInCode: j.BasedInCode,
		Description: j.Description,
		Salary:      j.Salary,
	}
}

// ownedCompany 查询用户拥有的公司。每次请求新查，不缓存。
func (s *Server) ownedCompany(c *gin.Context, userID uint) (*model.Company, error) {
	var company model.Company
	err := s.db.WithContext(c.Request.Context()).Where("owner_id = ?", userID).First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// handleCreateJob 以当前用户的公司名义发布职位。
//
// POST /jobs/
func (s *Server) handleCreateJob(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req jobCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if !model.ValidPosition(req.Position) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid position"})
		return
	}
	if !model.ValidBasedInCode(*req.BasedInCode) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid based_in_code"})
		return
	}
	if *req.Salary < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid salary"})
		return
	}

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

	job := model.Job{
		CompanyID:   company.ID,
		Title:       req.Title,
		Position:    req.Position,
		BasedInCode: *req.BasedInCode,
		Description: req.Description,
		Salary:      *req.Salary,
	}
	if err := s.db.WithContext(c.Request.Context()).Create(&job).Error; err != nil {
		s.logger.Error("create job failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create job failed"})
		return
	}

	c.JSON(http.StatusCreated, toJobResponse(job))
}

// handleListJobs 公共职位列表，过滤条件按 AND 叠加。
//
// GET /jobs/?position=&based_in_code=&salary_min=&salary_max=
func (s *Server) handleListJobs(c *gin.Context) {
	query := s.db.WithContext(c.Request.Context()).Model(&model.Job{})

	if v := c.Query("position"); v != "" {
		if !model.ValidPosition(model.Position(v)) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid position"})
			return
		}
		query = query.Where("position = ?", v)
	}
	if v := c.Query("based_in_code"); v != "" {
		code, err := strconv.Atoi(v)
		if err != nil || !model.ValidBasedInCode(code) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid based_in_code"})
			return
		}
		query = query.Where("based_in_code = ?", code)
	}
	if v := c.Query("salary_min"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid salary_min"})
			return
		}
		query = query.Where("salary >= ?", m)
	}
	if v := c.Query("salary_max"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid salary_max"})
			return
		}
		query = query.Where("salary <= ?", m)
	}

	var jobs []model.Job
	if err := query.Order("id").Find(&jobs).Error; err != nil {
		s.logger.Error("list jobs failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list jobs failed"})
		return
	}

	resp := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		resp = append(resp, toJobResponse(j))
	}
	c.JSON(http.StatusOK, resp)
}

// handleGetJob 返回单个职位详情。
//
// GET /jobs/:id
func (s *Server) handleGetJob(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "occupation not found"})
		return
	}

	var job model.Job
	if err := s.db.WithContext(c.Request.Context()).First(&job, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "occupation not found"})
			return
		}
		s.logger.Error("query job failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query job failed"})
		return
	}

	c.JSON(http.StatusOK, toJobResponse(job))
}

// handleUpdateJob 部分更新职位，只覆盖提交了的字段。
//
// PATCH /jobs/:id
//
// 仅职位所属公司的拥有者可编辑。
func (s *Server) handleUpdateJob(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "occupation not found"})
		return
	}

	var req jobUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var job model.Job
	if err := s.db.WithContext(c.Request.Context()).First(&job, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "occupation not found"})
			return
		}
		s.logger.Error("query job failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query job failed"})
		return
	}

	company, err := s.ownedCompany(c, userID)
	if err != nil {
		s.logger.Error("query company failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query company failed"})
		return
	}
	if company == nil || company.ID != job.CompanyID {
		c.JSON(http.StatusForbidden, gin.H{"error": "no permission to edit this job"})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		// 长度按字符数算，和创建时的 binding 校验一致，多字节标题不受影响
		if *req.Title == "" || utf8.RuneCountInString(*req.Title) > 120 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid title"})
			return
		}
		updates["title"] = *req.Title
	}
	if req.Position != nil {
		if !model.ValidPosition(*req.Position) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid position"})
			return
		}
		updates["position"] = *req.Position
	}
	if req.BasedInCode != nil {
		if !model.ValidBasedInCode(*req.BasedInCode) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid based_in_code"})
			return
		}
		updates["based_in_code"] = *req.BasedInCode
	}
	if req.Description != nil {
		if *req.Description == "" || utf8.RuneCountInString(*req.Description) > 10000 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid description"})
			return
		}
		updates["description"] = *req.Description
	}
	if req.Salary != nil {
		if *req.Salary < 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid salary"})
			return
		}
		updates["salary"] = *req.Salary
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(c.Request.Context()).Model(&job).Updates(updates).Error; err != nil {
			s.logger.Error("update job failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update job failed"})
			return
		}
	}

	c.JSON(http.StatusOK, toJobResponse(job))
}
