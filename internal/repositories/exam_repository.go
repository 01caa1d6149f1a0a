package repositories

import (
	"context"

	"github.com/doannc02/exam-process-service/internal/models"
)

// ExamRepository interface for exam operations
type ExamRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id uint) error

	// Bulk operations
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Exam, error)
	// GetByExamSetIDs loads every exam under the given sets in one query,
	// keyed by exam_set_id.
	GetByExamSetIDs(ctx context.Context, setIDs []uint) (map[uint][]*models.Exam, error)
	UpdateStatusBulk(ctx context.Context, ids []uint, status models.ProposalStatus) error
	// ClearSet detaches every exam under the set. Rows are kept.
	ClearSet(ctx context.Context, setID uint) error

	// Query operations
	List(ctx context.Context, filters ExamFilters) ([]*models.Exam, int64, error)

	// Validation and checks
	ExistsByCode(ctx context.Context, code string, excludeID *uint) (bool, error)
	ExistsByName(ctx context.Context, name string, excludeID *uint) (bool, error)
	ExistsByAttachedFile(ctx context.Context, file string, excludeID *uint) (bool, error)
}
