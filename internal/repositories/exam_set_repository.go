package repositories

import (
	"context"

	"github.com/doannc02/exam-process-service/internal/models"
)

// ExamSetRepository interface for exam-set operations
type ExamSetRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, set *models.ExamSet) error
	GetByID(ctx context.Context, id uint) (*models.ExamSet, error)
	Update(ctx context.Context, set *models.ExamSet) error
	Delete(ctx context.Context, id uint) error

	// Bulk operations
	GetByIDs(ctx context.Context, ids []uint) ([]*models.ExamSet, error)
	GetByProposalID(ctx context.Context, proposalID uint) ([]*models.ExamSet, error)
	CountByProposalIDs(ctx context.Context, proposalIDs []uint) (map[uint]int64, error)
	UpdateStatusBulk(ctx context.Context, ids []uint, status models.ProposalStatus) error

	// Proposal linking. AssignProposal sets proposal_id for the given sets;
	// ClearProposal detaches every set currently linked to the proposal that
	// is not in keepIDs.
	AssignProposal(ctx context.Context, ids []uint, proposalID uint) error
	ClearProposal(ctx context.Context, proposalID uint, keepIDs []uint) error

	// Query operations
	List(ctx context.Context, filters ExamSetFilters) ([]*models.ExamSet, int64, error)

	// Validation and checks
	ExistsByName(ctx context.Context, name string, excludeID *uint) (bool, error)
}
