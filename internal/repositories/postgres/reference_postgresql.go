package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/doannc02/exam-process-service/internal/models"
	"github.com/doannc02/exam-process-service/internal/repositories"
)

// ReferencePostgreSQL batches reference-data lookups for display resolution.
type ReferencePostgreSQL struct {
	db *gorm.DB
}

func NewReferencePostgreSQL(db *gorm.DB) repositories.ReferenceRepository {
	return &ReferencePostgreSQL{db: db}
}

func (r *ReferencePostgreSQL) GetDepartmentsByIDs(ctx context.Context, ids []uint) (map[uint]*models.Department, error) {
	result := make(map[uint]*models.Department, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []*models.Department
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load departments: %w", err)
	}
	for _, row := range rows {
		result[row.ID] = row
	}
	return result, nil
}

func (r *ReferencePostgreSQL) GetMajorsByIDs(ctx context.Context, ids []uint) (map[uint]*models.Major, error) {
	result := make(map[uint]*models.Major, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []*models.Major
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load majors: %w", err)
	}
	for _, row := range rows {
		result[row.ID] = row
	}
	return result, nil
}

func (r *ReferencePostgreSQL) GetCoursesByIDs(ctx context.Context, ids []uint) (map[uint]*models.Course, error) {
	result := make(map[uint]*models.Course, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []*models.Course
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load courses: %w", err)
	}
	for _, row := range rows {
		result[row.ID] = row
	}
	return result, nil
}

func (r *ReferencePostgreSQL) GetAcademicYearsByIDs(ctx context.Context, ids []uint) (map[uint]*models.AcademicYear, error) {
	result := make(map[uint]*models.AcademicYear, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []*models.AcademicYear
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load academic years: %w", err)
	}
	for _, row := range rows {
		result[row.ID] = row
	}
	return result, nil
}

func (r *ReferencePostgreSQL) ExistsCourse(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ReferencePostgreSQL) ExistsAcademicYear(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AcademicYear{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
