package services

import (
	"context"

	"github.com/doannc02/exam-process-service/internal/models"
	"github.com/doannc02/exam-process-service/internal/repositories"
	"github.com/doannc02/exam-process-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateProposalRequest = validator.ProposalCreateRequest
type UpdateProposalRequest = validator.ProposalUpdateRequest
type UpdateProposalStatusRequest = validator.UpdateProposalStatusRequest
type CreateExamSetRequest = validator.ExamSetCreateRequest
type UpdateExamSetRequest = validator.ExamSetUpdateRequest
type CreateExamRequest = validator.ExamCreateRequest
type UpdateExamRequest = validator.ExamUpdateRequest

// Actor identifies the authenticated caller. Admins see and touch every
// record; teachers are limited to proposals they own.
type Actor struct {
	UserID uint
	Role   models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

type ProposalResponse struct {
	*models.Proposal
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

type ProposalListResponse struct {
	Proposals  []*ProposalResponse `json:"proposals"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	Size       int                 `json:"size"`
	TotalPages int                 `json:"total_pages"`
}

type ExamSetResponse struct {
	*models.ExamSet
	CanEdit bool `json:"can_edit"`
}

type ExamSetListResponse struct {
	ExamSets   []*ExamSetResponse `json:"exam_sets"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Size       int                `json:"size"`
	TotalPages int                `json:"total_pages"`
}

type ExamResponse struct {
	*models.Exam
	CanEdit bool `json:"can_edit"`
}

type ExamListResponse struct {
	Exams      []*ExamResponse `json:"exams"`
	Total      int64           `json:"total"`
	Size       int             `json:"size"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
}

// ===== SERVICE INTERFACES =====

type ProposalService interface {
	Create(ctx context.Context, req *CreateProposalRequest, actor Actor) (*ProposalResponse, error)
	GetByID(ctx context.Context, id uint, actor Actor) (*ProposalResponse, error)
	Update(ctx context.Context, req *UpdateProposalRequest, actor Actor) (*ProposalResponse, error)
	Delete(ctx context.Context, id uint, actor Actor) error

	List(ctx context.Context, filters repositories.ProposalFilters, actor Actor) (*ProposalListResponse, error)

	// UpdateStatus applies one state-machine edge to the proposal and
	// cascades it to every exam set and exam underneath.
	UpdateStatus(ctx context.Context, id uint, req *UpdateProposalStatusRequest, actor Actor) (*ProposalResponse, error)
}

type ExamSetService interface {
	Create(ctx context.Context, req *CreateExamSetRequest, actor Actor) (*ExamSetResponse, error)
	GetByID(ctx context.Context, id uint, actor Actor) (*ExamSetResponse, error)
	Update(ctx context.Context, req *UpdateExamSetRequest, actor Actor) (*ExamSetResponse, error)
	Delete(ctx context.Context, id uint, actor Actor) error

	List(ctx context.Context, filters repositories.ExamSetFilters, actor Actor) (*ExamSetListResponse, error)
}

type ExamService interface {
	Create(ctx context.Context, req *CreateExamRequest, actor Actor) (*ExamResponse, error)
	GetByID(ctx context.Context, id uint, actor Actor) (*ExamResponse, error)
	Update(ctx context.Context, req *UpdateExamRequest, actor Actor) (*ExamResponse, error)
	Delete(ctx context.Context, id uint, actor Actor) error

	List(ctx context.Context, filters repositories.ExamFilters, actor Actor) (*ExamListResponse, error)
}

type ReportService interface {
	// ExportProposals renders the filtered proposal list, with exam set and
	// exam counts, as an xlsx workbook.
	ExportProposals(ctx context.Context, filters repositories.ProposalFilters, actor Actor) ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Proposal() ProposalService
	ExamSet() ExamSetService
	Exam() ExamService
	Report() ReportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
