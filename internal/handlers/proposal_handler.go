package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/doannc02/exam-process-service/internal/repositories"
	"github.com/doannc02/exam-process-service/internal/services"
)

type ProposalHandler struct {
	service       services.ProposalService
	reportService services.ReportService
	logger        *slog.Logger
}

func NewProposalHandler(service services.ProposalService, reportService services.ReportService, logger *slog.Logger) *ProposalHandler {
	return &ProposalHandler{
		service:       service,
		reportService: reportService,
		logger:        logger,
	}
}

// CreateProposal handles POST /api/v1/proposals
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	actor, err := ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
		return
	}

	var req services.CreateProposalRequest
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

// GetProposal handles GET /api/v1/proposals/:id
func (h *ProposalHandler) GetProposal(c *gin.Context) {
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

// UpdateProposal handles PUT /api/v1/proposals/:id
func (h *ProposalHandler) UpdateProposal(c *gin.Context) {
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

	var req services.UpdateProposalRequest
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

// UpdateProposalStatus handles PUT /api/v1/proposals/:id/status
func (h *ProposalHandler) UpdateProposalStatus(c *gin.Context) {
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

	var req services.UpdateProposalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	resp, err := h.service.UpdateStatus(c.Request.Context(), id, &req, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteProposal handles DELETE /api/v1/proposals/:id
func (h *ProposalHandler) DeleteProposal(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{"message": "proposal deleted"})
}

// ListProposals handles GET /api/v1/proposals
func (h *ProposalHandler) ListProposals(c *gin.Context) {
	actor, err := ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
		return
	}

	filters, err := h.parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	resp, err := h.service.List(c.Request.Context(), filters, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExportProposals handles GET /api/v1/proposals/export
func (h *ProposalHandler) ExportProposals(c *gin.Context) {
	actor, err := ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
		return
	}

	filters, err := h.parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	data, err := h.reportService.ExportProposals(c.Request.Context(), filters, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	filename := fmt.Sprintf("proposals-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *ProposalHandler) parseFilters(c *gin.Context) (repositories.ProposalFilters, error) {
	status, err := queryStatus(c, "status")
	if err != nil {
		return repositories.ProposalFilters{}, err
	}
	createMonth, err := queryMonth(c, "create_month")
	if err != nil {
		return repositories.ProposalFilters{}, err
	}
	endMonth, err := queryMonth(c, "end_month")
	if err != nil {
		return repositories.ProposalFilters{}, err
	}

	return repositories.ProposalFilters{
		Search:           queryString(c, "search"),
		Status:           status,
		Semester:         queryString(c, "semester"),
		CreateMonth:      createMonth,
		EndMonth:         endMonth,
		ExpireWithinDays: queryIntPtr(c, "expire_within_days"),
		Page:             queryInt(c, "page", 1),
		Size:             queryInt(c, "size", 10),
		Sort:             c.Query("sort"),
	}, nil
}
