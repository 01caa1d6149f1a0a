package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/doannc02/exam-process-service/internal/models"
	"github.com/doannc02/exam-process-service/internal/repositories"
	"github.com/doannc02/exam-process-service/internal/validator"
)

type examSetService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewExamSetService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) ExamSetService {
	return &examSetService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *examSetService) Create(ctx context.Context, req *CreateExamSetRequest, actor Actor) (*ExamSetResponse, error) {
	s.logger.Info("Creating exam set", "name", req.Name, "user_id", actor.UserID)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	exists, err := s.repo.ExamSet().ExistsByName(ctx, req.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check exam set name: %w", err)
	}
	if exists {
		return nil, NewConflictError("exam set", "name", req.Name)
	}

	refErrs, err := s.checkReferences(ctx, req.DepartmentID, req.MajorID, req.CourseID)
	if err != nil {
		return nil, err
	}
	if len(refErrs) > 0 {
		return nil, refErrs
	}

	set := &models.ExamSet{
		Name:         req.Name,
		DepartmentID: req.DepartmentID,
		MajorID:      req.MajorID,
		CourseID:     req.CourseID,
		ExamQuantity: req.ExamQuantity,
		Description:  req.Description,
		Status:       models.StatusInProgress,
	}
	if err := s.repo.ExamSet().Create(ctx, set); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("exam set", "name", req.Name)
		}
		return nil, fmt.Errorf("failed to create exam set: %w", err)
	}

	s.logger.Info("Exam set created", "exam_set_id", set.ID)
	return s.GetByID(ctx, set.ID, actor)
}

func (s *examSetService) GetByID(ctx context.Context, id uint, actor Actor) (*ExamSetResponse, error) {
	set, err := s.repo.ExamSet().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exam set", id)
		}
		return nil, fmt.Errorf("failed to get exam set: %w", err)
	}

	canAccess, err := s.canAccess(ctx, set, actor)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, NewPermissionError(actor.UserID, id, "exam set", "read", "not an owner of the linked proposal")
	}

	if err := s.resolveDisplays(ctx, []*models.ExamSet{set}); err != nil {
		return nil, err
	}

	return s.buildResponse(set), nil
}

func (s *examSetService) Update(ctx context.Context, req *UpdateExamSetRequest, actor Actor) (*ExamSetResponse, error) {
	s.logger.Info("Updating exam set", "exam_set_id", req.ID, "user_id", actor.UserID)

	set, err := s.repo.ExamSet().GetByID(ctx, req.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exam set", req.ID)
		}
		return nil, fmt.Errorf("failed to get exam set: %w", err)
	}

	if set.Status == models.StatusApproved {
		return nil, NewImmutableStateError("exam set", set.ID, "approved exam sets are read-only")
	}
	canAccess, err := s.canAccess(ctx, set, actor)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, NewPermissionError(actor.UserID, req.ID, "exam set", "update", "not an owner of the linked proposal")
	}

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if req.Name != nil && *req.Name != set.Name {
		exists, err := s.repo.ExamSet().ExistsByName(ctx, *req.Name, &set.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check exam set name: %w", err)
		}
		if exists {
			return nil, NewConflictError("exam set", "name", *req.Name)
		}
		set.Name = *req.Name
	}
	if req.DepartmentID != nil {
		set.DepartmentID = *req.DepartmentID
	}
	if req.MajorID != nil {
		set.MajorID = *req.MajorID
	}
	if req.CourseID != nil {
		set.CourseID = *req.CourseID
	}
	if req.ExamQuantity != nil {
		set.ExamQuantity = *req.ExamQuantity
	}
	if req.Description != nil {
		set.Description = req.Description
	}

	refErrs, err := s.checkReferences(ctx, set.DepartmentID, set.MajorID, set.CourseID)
	if err != nil {
		return nil, err
	}
	if len(refErrs) > 0 {
		return nil, refErrs
	}

	if err := s.repo.ExamSet().Update(ctx, set); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("exam set", "name", set.Name)
		}
		return nil, fmt.Errorf("failed to update exam set: %w", err)
	}

	s.logger.Info("Exam set updated", "exam_set_id", set.ID)
	return s.GetByID(ctx, set.ID, actor)
}

func (s *examSetService) Delete(ctx context.Context, id uint, actor Actor) error {
	s.logger.Info("Deleting exam set", "exam_set_id", id, "user_id", actor.UserID)

	set, err := s.repo.ExamSet().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("exam set", id)
		}
		return fmt.Errorf("failed to get exam set: %w", err)
	}

	if set.Status == models.StatusApproved {
		return NewImmutableStateError("exam set", id, "approved exam sets cannot be deleted")
	}
	canAccess, err := s.canAccess(ctx, set, actor)
	if err != nil {
		return err
	}
	if !canAccess {
		return NewPermissionError(actor.UserID, id, "exam set", "delete", "not an owner of the linked proposal")
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Exam().ClearSet(ctx, id); err != nil {
			return fmt.Errorf("failed to detach exams: %w", err)
		}
		if err := tx.ExamSet().Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete exam set: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Exam set deleted", "exam_set_id", id)
	return nil
}

func (s *examSetService) List(ctx context.Context, filters repositories.ExamSetFilters, actor Actor) (*ExamSetListResponse, error) {
	// The unassigned pool has no owner, so the ownership restriction only
	// applies when listing assigned sets.
	if !actor.IsAdmin() && (filters.Unassigned == nil || !*filters.Unassigned) {
		userID := actor.UserID
		filters.UserID = &userID
	}
	filters.Page, filters.Size = repositories.NormalizePage(filters.Page, filters.Size)

	sets, total, err := s.repo.ExamSet().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exam sets: %w", err)
	}

	if err := s.resolveDisplays(ctx, sets); err != nil {
		return nil, err
	}

	responses := make([]*ExamSetResponse, 0, len(sets))
	for _, set := range sets {
		responses = append(responses, s.buildResponse(set))
	}

	return &ExamSetListResponse{
		ExamSets:   responses,
		Total:      total,
		Page:       filters.Page,
		Size:       filters.Size,
		TotalPages: totalPages(total, filters.Size),
	}, nil
}

// ===== HELPERS =====

func (s *examSetService) canAccess(ctx context.Context, set *models.ExamSet, actor Actor) (bool, error) {
	if actor.IsAdmin() || set.ProposalID == nil {
		return true, nil
	}

	owners, err := s.repo.Proposal().GetOwnerUserIDs(ctx, []uint{*set.ProposalID})
	if err != nil {
		return false, fmt.Errorf("failed to load proposal owners: %w", err)
	}
	for _, userID := range owners[*set.ProposalID] {
		if userID == actor.UserID {
			return true, nil
		}
	}
	return false, nil
}

func (s *examSetService) buildResponse(set *models.ExamSet) *ExamSetResponse {
	return &ExamSetResponse{
		ExamSet: set,
		CanEdit: set.Status != models.StatusApproved,
	}
}

func (s *examSetService) checkReferences(ctx context.Context, departmentID, majorID, courseID uint) (validator.ValidationErrors, error) {
	var errs validator.ValidationErrors

	departments, err := s.repo.Reference().GetDepartmentsByIDs(ctx, []uint{departmentID})
	if err != nil {
		return nil, fmt.Errorf("failed to check department: %w", err)
	}
	if departments[departmentID] == nil {
		errs = append(errs, validator.ValidationError{
			Field: "department_id", Message: "does not exist", Value: departmentID, Rule: "exists",
		})
	}
	majors, err := s.repo.Reference().GetMajorsByIDs(ctx, []uint{majorID})
	if err != nil {
		return nil, fmt.Errorf("failed to check major: %w", err)
	}
	if majors[majorID] == nil {
		errs = append(errs, validator.ValidationError{
			Field: "major_id", Message: "does not exist", Value: majorID, Rule: "exists",
		})
	}
	courseExists, err := s.repo.Reference().ExistsCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check course: %w", err)
	}
	if !courseExists {
		errs = append(errs, validator.ValidationError{
			Field: "course_id", Message: "does not exist", Value: courseID, Rule: "exists",
		})
	}

	return errs, nil
}

// resolveDisplays fills course, department, major names and the exam count
// for a batch of sets with three lookups.
func (s *examSetService) resolveDisplays(ctx context.Context, sets []*models.ExamSet) error {
	if len(sets) == 0 {
		return nil
	}

	var departmentIDs, majorIDs, courseIDs []uint
	seenDept := make(map[uint]bool)
	seenMajor := make(map[uint]bool)
	seenCourse := make(map[uint]bool)
	for _, set := range sets {
		if !seenDept[set.DepartmentID] {
			seenDept[set.DepartmentID] = true
			departmentIDs = append(departmentIDs, set.DepartmentID)
		}
		if !seenMajor[set.MajorID] {
			seenMajor[set.MajorID] = true
			majorIDs = append(majorIDs, set.MajorID)
		}
		if !seenCourse[set.CourseID] {
			seenCourse[set.CourseID] = true
			courseIDs = append(courseIDs, set.CourseID)
		}
	}

	departments, err := s.repo.Reference().GetDepartmentsByIDs(ctx, departmentIDs)
	if err != nil {
		return err
	}
	majors, err := s.repo.Reference().GetMajorsByIDs(ctx, majorIDs)
	if err != nil {
		return err
	}
	courses, err := s.repo.Reference().GetCoursesByIDs(ctx, courseIDs)
	if err != nil {
		return err
	}

	for _, set := range sets {
		if dept := departments[set.DepartmentID]; dept != nil {
			set.DepartmentName = dept.Name
		}
		if major := majors[set.MajorID]; major != nil {
			set.MajorName = major.Name
		}
		if course := courses[set.CourseID]; course != nil {
			set.CourseName = course.Name
			set.CourseCode = course.Code
		}
		set.ExamCount = len(set.Exams)
	}

	return nil
}
