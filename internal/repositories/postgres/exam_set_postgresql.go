package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/doannc02/exam-process-service/internal/cache"
	"github.com/doannc02/exam-process-service/internal/models"
	"github.com/doannc02/exam-process-service/internal/repositories"
)

type ExamSetPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewExamSetPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ExamSetRepository {
	return &ExamSetPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (e *ExamSetPostgreSQL) Create(ctx context.Context, set *models.ExamSet) error {
	if err := e.db.WithContext(ctx).Create(set).Error; err != nil {
		return fmt.Errorf("failed to create exam set: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, e.cacheManager.ExamSet, "list:*")
	return nil
}

func (e *ExamSetPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ExamSet, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var set models.ExamSet

	err := e.cacheManager.ExamSet.CacheOrExecute(ctx, cacheKey, &set, cache.ExamSetCacheConfig.TTL, func() (interface{}, error) {
		var dbSet models.ExamSet
		err := e.db.WithContext(ctx).
			Preload("Exams").
			First(&dbSet, id).Error
		if err != nil {
			return nil, err
		}
		return &dbSet, nil
	})
	if err != nil {
		return nil, err
	}

	return &set, nil
}

func (e *ExamSetPostgreSQL) Update(ctx context.Context, set *models.ExamSet) error {
	err := e.db.WithContext(ctx).
		Model(&models.ExamSet{}).
		Where("id = ?", set.ID).
		Updates(map[string]interface{}{
			"name":          set.Name,
			"department_id": set.DepartmentID,
			"major_id":      set.MajorID,
			"course_id":     set.CourseID,
			"exam_quantity": set.ExamQuantity,
			"description":   set.Description,
			"status":        set.Status,
			"proposal_id":   set.ProposalID,
			"updated_at":    time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update exam set: %w", err)
	}

	cache.InvalidateExamSetCache(ctx, e.cacheManager, set.ID, set.ProposalID)
	return nil
}

func (e *ExamSetPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := e.db.WithContext(ctx).Delete(&models.ExamSet{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete exam set: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateExamSetCache(ctx, e.cacheManager, id, nil)
	return nil
}

func (e *ExamSetPostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.ExamSet, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var sets []*models.ExamSet
	err := e.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&sets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load exam sets: %w", err)
	}
	return sets, nil
}

func (e *ExamSetPostgreSQL) GetByProposalID(ctx context.Context, proposalID uint) ([]*models.ExamSet, error) {
	var sets []*models.ExamSet
	err := e.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("id ASC").
		Find(&sets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load exam sets for proposal: %w", err)
	}
	return sets, nil
}

// CountByProposalIDs returns exam-set counts for a batch of proposals in one
// query. Proposals with no sets are absent from the map.
func (e *ExamSetPostgreSQL) CountByProposalIDs(ctx context.Context, proposalIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64, len(proposalIDs))
	if len(proposalIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ProposalID uint
		Count      int64
	}
	err := e.db.WithContext(ctx).
		Model(&models.ExamSet{}).
		Select("proposal_id, COUNT(*) as count").
		Where("proposal_id IN ?", proposalIDs).
		Group("proposal_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count exam sets: %w", err)
	}

	for _, row := range rows {
		result[row.ProposalID] = row.Count
	}
	return result, nil
}

func (e *ExamSetPostgreSQL) UpdateStatusBulk(ctx context.Context, ids []uint, status models.ProposalStatus) error {
	if len(ids) == 0 {
		return nil
	}
	err := e.db.WithContext(ctx).
		Model(&models.ExamSet{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to bulk update exam set status: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, e.cacheManager.ExamSet, "*")
	return nil
}

func (e *ExamSetPostgreSQL) AssignProposal(ctx context.Context, ids []uint, proposalID uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := e.db.WithContext(ctx).
		Model(&models.ExamSet{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"proposal_id": proposalID,
			"updated_at":  time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to assign exam sets to proposal: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, e.cacheManager.ExamSet, "*")
	cache.InvalidateProposalCache(ctx, e.cacheManager, proposalID)
	return nil
}

// ClearProposal detaches every set linked to the proposal except keepIDs.
// Detached sets keep their rows; only the link is cleared.
func (e *ExamSetPostgreSQL) ClearProposal(ctx context.Context, proposalID uint, keepIDs []uint) error {
	query := e.db.WithContext(ctx).
		Model(&models.ExamSet{}).
		Where("proposal_id = ?", proposalID)
	if len(keepIDs) > 0 {
		query = query.Where("id NOT IN ?", keepIDs)
	}

	err := query.Updates(map[string]interface{}{
		"proposal_id": nil,
		"updated_at":  time.Now(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to clear proposal links: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, e.cacheManager.ExamSet, "*")
	cache.InvalidateProposalCache(ctx, e.cacheManager, proposalID)
	return nil
}

func (e *ExamSetPostgreSQL) List(ctx context.Context, filters repositories.ExamSetFilters) ([]*models.ExamSet, int64, error) {
	query := e.db.WithContext(ctx).Model(&models.ExamSet{})
	query = e.applyFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Credit sorts go through the linked course.
	if filters.Sort == repositories.SortCredit || filters.Sort == repositories.SortCreditDesc {
		query = query.Joins("LEFT JOIN courses ON courses.id = exam_sets.course_id")
	}
	query = applySort(query, filters.Sort, map[string]string{
		"id":     "exam_sets.id",
		"name":   "exam_sets.name",
		"code":   "exam_sets.name",
		"credit": "courses.credit",
	})
	query = applyPagination(query, filters.Page, filters.Size)

	var sets []*models.ExamSet
	if err := query.Preload("Exams").Find(&sets).Error; err != nil {
		return nil, 0, err
	}

	return sets, total, nil
}

func (e *ExamSetPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ExamSetFilters) *gorm.DB {
	if filters.Search != nil && *filters.Search != "" {
		query = query.Where("exam_sets.name ILIKE ?", "%"+*filters.Search+"%")
	}
	if filters.Status != nil {
		query = query.Where("exam_sets.status = ?", *filters.Status)
	}
	if filters.ProposalID != nil {
		query = query.Where("exam_sets.proposal_id = ?", *filters.ProposalID)
	}
	if filters.Unassigned != nil && *filters.Unassigned {
		query = query.Where("exam_sets.proposal_id IS NULL")
	}
	if filters.UserID != nil {
		query = query.
			Joins("JOIN teacher_proposals ON teacher_proposals.proposal_id = exam_sets.proposal_id").
			Where("teacher_proposals.user_id = ?", *filters.UserID)
	}
	return query
}

func (e *ExamSetPostgreSQL) ExistsByName(ctx context.Context, name string, excludeID *uint) (bool, error) {
	query := e.db.WithContext(ctx).
		Model(&models.ExamSet{}).
		Where("name = ?", name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
