package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates all per-entity repositories.
type Repository interface {
	Proposal() ProposalRepository
	ExamSet() ExamSetRepository
	Exam() ExamRepository

	// Read-only collaborators
	User() UserRepository
	Reference() ReferenceRepository

	// Transaction support: fn runs against a Repository bound to one
	// database transaction; returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// IsNotFoundError reports whether err is a missing-row error from storage.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a unique-constraint violation.
// Requires the gorm connection to be opened with TranslateError.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
