package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/doannc02/exam-process-service/internal/config"
	"github.com/doannc02/exam-process-service/internal/models"
	"github.com/doannc02/exam-process-service/internal/repositories"
	"github.com/doannc02/exam-process-service/internal/services"
)

type HandlerManager struct {
	proposalHandler *ProposalHandler
	examSetHandler  *ExamSetHandler
	examHandler     *ExamHandler
	authMiddleware  *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger *slog.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return &HandlerManager{
		proposalHandler: NewProposalHandler(serviceManager.Proposal(), serviceManager.Report(), logger),
		examSetHandler:  NewExamSetHandler(serviceManager.ExamSet(), logger),
		examHandler:     NewExamHandler(serviceManager.Exam(), logger),
		authMiddleware:  NewCasdoorAuthMiddleware(casdoorConfig, userRepo),
	}
}

// SetupRoutes sets up all API routes.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	requireStaff := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		proposals := v1.Group("/proposals")
		{
			proposals.POST("", requireStaff, hm.proposalHandler.CreateProposal)
			proposals.GET("", hm.proposalHandler.ListProposals)
			proposals.GET("/export", requireStaff, hm.proposalHandler.ExportProposals)
			proposals.GET("/:id", hm.proposalHandler.GetProposal)
			proposals.PUT("/:id", requireStaff, hm.proposalHandler.UpdateProposal)
			proposals.PUT("/:id/status", requireStaff, hm.proposalHandler.UpdateProposalStatus)
			proposals.DELETE("/:id", requireStaff, hm.proposalHandler.DeleteProposal)
		}

		examSets := v1.Group("/exam-sets")
		{
			examSets.POST("", requireStaff, hm.examSetHandler.CreateExamSet)
			examSets.GET("", hm.examSetHandler.ListExamSets)
			examSets.GET("/:id", hm.examSetHandler.GetExamSet)
			examSets.PUT("/:id", requireStaff, hm.examSetHandler.UpdateExamSet)
			examSets.DELETE("/:id", requireStaff, hm.examSetHandler.DeleteExamSet)
		}

		exams := v1.Group("/exams")
		{
			exams.POST("", requireStaff, hm.examHandler.CreateExam)
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.PUT("/:id", requireStaff, hm.examHandler.UpdateExam)
			exams.DELETE("/:id", requireStaff, hm.examHandler.DeleteExam)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "exam-process-service",
		})
	})
}
