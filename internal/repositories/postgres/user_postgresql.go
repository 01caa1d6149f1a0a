package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/doannc02/exam-process-service/internal/models"
	"github.com/doannc02/exam-process-service/internal/repositories"
)

// UserPostgreSQL reads user and teacher rows. This service does not own user
// data; there are no write paths.
type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error) {
	result := make(map[uint]*models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []*models.User
	err := u.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	for _, user := range users {
		result[user.ID] = user
	}
	return result, nil
}

func (u *UserPostgreSQL) GetTeachersByUserIDs(ctx context.Context, userIDs []uint) (map[uint]*models.Teacher, error) {
	result := make(map[uint]*models.Teacher, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var teachers []*models.Teacher
	err := u.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&teachers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load teachers: %w", err)
	}

	for _, teacher := range teachers {
		result[teacher.UserID] = teacher
	}
	return result, nil
}

func (u *UserPostgreSQL) ExistsByID(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
