package repositories

import (
	"context"

	"github.com/doannc02/exam-process-service/internal/models"
)

// ProposalRepository interface for proposal-specific operations
type ProposalRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, proposal *models.Proposal) error
	GetByID(ctx context.Context, id uint) (*models.Proposal, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Proposal, error) // row-locked read for the cascade
	GetByPlanCode(ctx context.Context, planCode string) (*models.Proposal, error)
	Update(ctx context.Context, proposal *models.Proposal) error
	Delete(ctx context.Context, id uint) error

	// Query operations
	List(ctx context.Context, filters ProposalFilters) ([]*models.Proposal, int64, error)

	// Status operations
	UpdateStatus(ctx context.Context, id uint, status models.ProposalStatus) error

	// Ownership link operations
	CreateOwnership(ctx context.Context, link *models.TeacherProposal) error
	GetOwnerUserIDs(ctx context.Context, proposalIDs []uint) (map[uint][]uint, error)

	// Validation and checks
	ExistsByPlanCode(ctx context.Context, planCode string, excludeID *uint) (bool, error)
}
