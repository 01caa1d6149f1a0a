package repositories

import (
	"context"

	"github.com/doannc02/exam-process-service/internal/models"
)

// UserRepository interface for user operations (this service is not the owner
// of user data; reads only).
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error)
	GetTeachersByUserIDs(ctx context.Context, userIDs []uint) (map[uint]*models.Teacher, error)

	// Validation and checks
	ExistsByID(ctx context.Context, id uint) (bool, error)
}
