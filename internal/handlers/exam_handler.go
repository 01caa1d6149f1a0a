package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doannc02/exam-process-service/internal/repositories"
	"github.com/doannc02/exam-process-service/internal/services"
)

type ExamHandler struct {
	service services.ExamService
	logger  *slog.Logger
}

func NewExamHandler(service services.ExamService, logger *slog.Logger) *ExamHandler {
	return &ExamHandler{
		service: service,
		logger:  logger,
	}
}

// CreateExam handles POST /api/v1/exams
func (h *ExamHandler) CreateExam(c *gin.Context) {
	actor, err := ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
		return
	}

	var req services.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	resp, err := h.service.Create(c.Request.Context(), &req, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetExam handles GET /api/v1/exams/:id
func (h *ExamHandler) GetExam(c *gin.Context) {
	actor, err := ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateExam handles PUT /api/v1/exams/:id
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	actor, err := ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	var req services.UpdateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	req.ID = id

	resp, err := h.service.Update(c.Request.Context(), &req, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteExam handles DELETE /api/v1/exams/:id
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	actor, err := ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, actor); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "exam deleted"})
}

// ListExams handles GET /api/v1/exams
func (h *ExamHandler) ListExams(c *gin.Context) {
	actor, err := ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
		return
	}

	status, err := queryStatus(c, "status")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	filters := repositories.ExamFilters{
		Search:         queryString(c, "search"),
		Status:         status,
		ExamSetID:      queryUintPtr(c, "exam_set_id"),
		AcademicYearID: queryUintPtr(c, "academic_year_id"),
		Page:           queryInt(c, "page", 1),
		Size:           queryInt(c, "size", 10),
		Sort:           c.Query("sort"),
	}

	resp, err := h.service.List(c.Request.Context(), filters, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
