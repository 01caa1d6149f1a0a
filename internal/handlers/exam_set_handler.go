package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doannc02/exam-process-service/internal/repositories"
	"github.com/doannc02/exam-process-service/internal/services"
)

type ExamSetHandler struct {
	service services.ExamSetService
	logger  *slog.Logger
}

func NewExamSetHandler(service services.ExamSetService, logger *slog.Logger) *ExamSetHandler {
	return &ExamSetHandler{
		service: service,
		logger:  logger,
	}
}

// CreateExamSet handles POST /api/v1/exam-sets
func (h *ExamSetHandler) CreateExamSet(c *gin.Context) {
	actor, err := ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
		return
	}

	var req services.CreateExamSetRequest
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

// GetExamSet handles GET /api/v1/exam-sets/:id
func (h *ExamSetHandler) GetExamSet(c *gin.Context) {
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

// UpdateExamSet handles PUT /api/v1/exam-sets/:id
func (h *ExamSetHandler) UpdateExamSet(c *gin.Context) {
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

	var req services.UpdateExamSetRequest
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

// DeleteExamSet handles DELETE /api/v1/exam-sets/:id
func (h *ExamSetHandler) DeleteExamSet(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{"message": "exam set deleted"})
}

// ListExamSets handles GET /api/v1/exam-sets
func (h *ExamSetHandler) ListExamSets(c *gin.Context) {
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

	filters := repositories.ExamSetFilters{
		Search:     queryString(c, "search"),
		Status:     status,
		ProposalID: queryUintPtr(c, "proposal_id"),
		Unassigned: queryBoolPtr(c, "unassigned"),
		Page:       queryInt(c, "page", 1),
		Size:       queryInt(c, "size", 10),
		Sort:       c.Query("sort"),
	}

	resp, err := h.service.List(c.Request.Context(), filters, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
