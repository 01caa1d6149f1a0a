package repositories

import (
	"context"

	"github.com/doannc02/exam-process-service/internal/models"
)

// ReferenceRepository batches lookups of read-only reference data so display
// resolution never degenerates into per-row queries.
type ReferenceRepository interface {
	GetDepartmentsByIDs(ctx context.Context, ids []uint) (map[uint]*models.Department, error)
	GetMajorsByIDs(ctx context.Context, ids []uint) (map[uint]*models.Major, error)
	GetCoursesByIDs(ctx context.Context, ids []uint) (map[uint]*models.Course, error)
	GetAcademicYearsByIDs(ctx context.Context, ids []uint) (map[uint]*models.AcademicYear, error)

	ExistsCourse(ctx context.Context, id uint) (bool, error)
	ExistsAcademicYear(ctx context.Context, id uint) (bool, error)
}
