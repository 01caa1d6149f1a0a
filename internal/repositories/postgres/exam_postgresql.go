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

type ExamPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (e *ExamPostgreSQL) Create(ctx context.Context, exam *models.Exam) error {
	if err := e.db.WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, e.cacheManager.Exam, "list:*")
	return nil
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := e.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, exam *models.Exam) error {
	err := e.db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", exam.ID).
		Updates(map[string]interface{}{
			"exam_code":        exam.ExamCode,
			"exam_name":        exam.ExamName,
			"attached_file":    exam.AttachedFile,
			"comment":          exam.Comment,
			"description":      exam.Description,
			"upload_date":      exam.UploadDate,
			"academic_year_id": exam.AcademicYearID,
			"exam_set_id":      exam.ExamSetID,
			"status":           exam.Status,
			"meta":             exam.Meta,
			"updated_at":       time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, exam.ID, exam.ExamSetID)
	return nil
}

func (e *ExamPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := e.db.WithContext(ctx).Delete(&models.Exam{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete exam: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, id, nil)
	return nil
}

func (e *ExamPostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.Exam, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var exams []*models.Exam
	err := e.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&exams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load exams: %w", err)
	}
	return exams, nil
}

// GetByExamSetIDs loads every exam under the given sets in one query so the
// cascade never issues per-set lookups.
func (e *ExamPostgreSQL) GetByExamSetIDs(ctx context.Context, setIDs []uint) (map[uint][]*models.Exam, error) {
	result := make(map[uint][]*models.Exam, len(setIDs))
	if len(setIDs) == 0 {
		return result, nil
	}

	var exams []*models.Exam
	err := e.db.WithContext(ctx).
		Where("exam_set_id IN ?", setIDs).
		Order("id ASC").
		Find(&exams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load exams for sets: %w", err)
	}

	for _, exam := range exams {
		if exam.ExamSetID == nil {
			continue
		}
		result[*exam.ExamSetID] = append(result[*exam.ExamSetID], exam)
	}
	return result, nil
}

func (e *ExamPostgreSQL) UpdateStatusBulk(ctx context.Context, ids []uint, status models.ProposalStatus) error {
	if len(ids) == 0 {
		return nil
	}
	err := e.db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to bulk update exam status: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, e.cacheManager.Exam, "*")
	return nil
}

// ClearSet detaches every exam under the set without touching the rows.
func (e *ExamPostgreSQL) ClearSet(ctx context.Context, setID uint) error {
	err := e.db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("exam_set_id = ?", setID).
		Updates(map[string]interface{}{
			"exam_set_id": nil,
			"updated_at":  time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to clear exam set links: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, e.cacheManager.Exam, "*")
	return nil
}

func (e *ExamPostgreSQL) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	query := e.db.WithContext(ctx).Model(&models.Exam{})
	query = e.applyFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applySort(query, filters.Sort, map[string]string{
		"id":   "exams.id",
		"name": "exams.exam_name",
		"code": "exams.exam_code",
	})
	query = applyPagination(query, filters.Page, filters.Size)

	var exams []*models.Exam
	if err := query.Find(&exams).Error; err != nil {
		return nil, 0, err
	}

	return exams, total, nil
}

func (e *ExamPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ExamFilters) *gorm.DB {
	if filters.Search != nil && *filters.Search != "" {
		like := "%" + *filters.Search + "%"
		query = query.Where("exams.exam_code ILIKE ? OR exams.exam_name ILIKE ?", like, like)
	}
	if filters.Status != nil {
		query = query.Where("exams.status = ?", *filters.Status)
	}
	if filters.ExamSetID != nil {
		query = query.Where("exams.exam_set_id = ?", *filters.ExamSetID)
	}
	if filters.AcademicYearID != nil {
		query = query.Where("exams.academic_year_id = ?", *filters.AcademicYearID)
	}
	if filters.UserID != nil {
		query = query.
			Joins("JOIN exam_sets ON exam_sets.id = exams.exam_set_id").
			Joins("JOIN teacher_proposals ON teacher_proposals.proposal_id = exam_sets.proposal_id").
			Where("teacher_proposals.user_id = ?", *filters.UserID)
	}
	return query
}

func (e *ExamPostgreSQL) ExistsByCode(ctx context.Context, code string, excludeID *uint) (bool, error) {
	return e.exists(ctx, "exam_code = ?", code, excludeID)
}

func (e *ExamPostgreSQL) ExistsByName(ctx context.Context, name string, excludeID *uint) (bool, error) {
	return e.exists(ctx, "exam_name = ?", name, excludeID)
}

func (e *ExamPostgreSQL) ExistsByAttachedFile(ctx context.Context, file string, excludeID *uint) (bool, error) {
	return e.exists(ctx, "attached_file = ?", file, excludeID)
}

func (e *ExamPostgreSQL) exists(ctx context.Context, cond string, value string, excludeID *uint) (bool, error) {
	query := e.db.WithContext(ctx).
		Model(&models.Exam{}).
		Where(cond, value)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
