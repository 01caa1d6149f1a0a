package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/doannc02/exam-process-service/internal/models"
	"github.com/doannc02/exam-process-service/internal/repositories"
	"github.com/doannc02/exam-process-service/internal/validator"
)

type examService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewExamService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) ExamService {
	return &examService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, actor Actor) (*ExamResponse, error) {
	s.logger.Info("Creating exam", "exam_code", req.ExamCode, "user_id", actor.UserID)

	errs := s.validator.GetBusinessValidator().Validate(req)

	uploadDate, err := validator.ParseDate(req.UploadDate)
	if err != nil {
		errs = append(errs, validator.ValidationError{
			Field: "upload_date", Message: err.Error(), Value: req.UploadDate, Rule: "date",
		})
	}

	uniqueErrs, err := s.checkUniqueness(ctx, req.ExamCode, req.ExamName, req.AttachedFile, nil)
	if err != nil {
		return nil, err
	}
	errs = append(errs, uniqueErrs...)

	yearExists, err := s.repo.Reference().ExistsAcademicYear(ctx, req.AcademicYearID)
	if err != nil {
		return nil, fmt.Errorf("failed to check academic year: %w", err)
	}
	if !yearExists {
		errs = append(errs, validator.ValidationError{
			Field: "academic_year_id", Message: "does not exist", Value: req.AcademicYearID, Rule: "exists",
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	if req.ExamSetID != nil {
		if _, err := s.repo.ExamSet().GetByID(ctx, *req.ExamSetID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, NewNotFoundError("exam set", *req.ExamSetID)
			}
			return nil, fmt.Errorf("failed to get exam set: %w", err)
		}
	}

	exam := &models.Exam{
		ExamCode:       req.ExamCode,
		ExamName:       req.ExamName,
		AttachedFile:   req.AttachedFile,
		Comment:        req.Comment,
		Description:    req.Description,
		UploadDate:     uploadDate,
		AcademicYearID: req.AcademicYearID,
		ExamSetID:      req.ExamSetID,
		Status:         models.StatusInProgress,
	}
	if err := s.repo.Exam().Create(ctx, exam); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("exam", "exam_code", req.ExamCode)
		}
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.logger.Info("Exam created", "exam_id", exam.ID)
	return s.GetByID(ctx, exam.ID, actor)
}

func (s *examService) GetByID(ctx context.Context, id uint, actor Actor) (*ExamResponse, error) {
	exam, err := s.repo.Exam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exam", id)
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	canAccess, err := s.canAccess(ctx, exam, actor)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, NewPermissionError(actor.UserID, id, "exam", "read", "not an owner of the linked proposal")
	}

	if err := s.resolveDisplays(ctx, []*models.Exam{exam}); err != nil {
		return nil, err
	}

	return s.buildResponse(exam), nil
}

func (s *examService) Update(ctx context.Context, req *UpdateExamRequest, actor Actor) (*ExamResponse, error) {
	s.logger.Info("Updating exam", "exam_id", req.ID, "user_id", actor.UserID)

	exam, err := s.repo.Exam().GetByID(ctx, req.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exam", req.ID)
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if exam.Status == models.StatusApproved {
		return nil, NewImmutableStateError("exam", exam.ID, "approved exams are read-only")
	}
	canAccess, err := s.canAccess(ctx, exam, actor)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, NewPermissionError(actor.UserID, req.ID, "exam", "update", "not an owner of the linked proposal")
	}

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	code := exam.ExamCode
	name := exam.ExamName
	file := exam.AttachedFile
	if req.ExamCode != nil {
		code = *req.ExamCode
	}
	if req.ExamName != nil {
		name = *req.ExamName
	}
	if req.AttachedFile != nil {
		file = *req.AttachedFile
	}
	uniqueErrs, err := s.checkUniqueness(ctx, code, name, file, &exam.ID)
	if err != nil {
		return nil, err
	}
	if len(uniqueErrs) > 0 {
		return nil, uniqueErrs
	}
	exam.ExamCode = code
	exam.ExamName = name
	exam.AttachedFile = file

	if req.Comment != nil {
		exam.Comment = req.Comment
	}
	if req.Description != nil {
		exam.Description = req.Description
	}
	if req.UploadDate != nil {
		uploadDate, err := validator.ParseDate(*req.UploadDate)
		if err != nil {
			return nil, validator.ValidationErrors{{
				Field: "upload_date", Message: err.Error(), Value: *req.UploadDate, Rule: "date",
			}}
		}
		exam.UploadDate = uploadDate
	}
	if req.AcademicYearID != nil {
		yearExists, err := s.repo.Reference().ExistsAcademicYear(ctx, *req.AcademicYearID)
		if err != nil {
			return nil, fmt.Errorf("failed to check academic year: %w", err)
		}
		if !yearExists {
			return nil, validator.ValidationErrors{{
				Field: "academic_year_id", Message: "does not exist", Value: *req.AcademicYearID, Rule: "exists",
			}}
		}
		exam.AcademicYearID = *req.AcademicYearID
	}
	if req.ExamSetID != nil {
		if _, err := s.repo.ExamSet().GetByID(ctx, *req.ExamSetID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, NewNotFoundError("exam set", *req.ExamSetID)
			}
			return nil, fmt.Errorf("failed to get exam set: %w", err)
		}
		exam.ExamSetID = req.ExamSetID
	}

	if err := s.repo.Exam().Update(ctx, exam); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("exam", "exam_code", exam.ExamCode)
		}
		return nil, fmt.Errorf("failed to update exam: %w", err)
	}

	s.logger.Info("Exam updated", "exam_id", exam.ID)
	return s.GetByID(ctx, exam.ID, actor)
}

func (s *examService) Delete(ctx context.Context, id uint, actor Actor) error {
	s.logger.Info("Deleting exam", "exam_id", id, "user_id", actor.UserID)

	exam, err := s.repo.Exam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("exam", id)
		}
		return fmt.Errorf("failed to get exam: %w", err)
	}

	if exam.Status == models.StatusApproved {
		return NewImmutableStateError("exam", id, "approved exams cannot be deleted")
	}
	canAccess, err := s.canAccess(ctx, exam, actor)
	if err != nil {
		return err
	}
	if !canAccess {
		return NewPermissionError(actor.UserID, id, "exam", "delete", "not an owner of the linked proposal")
	}

	if err := s.repo.Exam().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	s.logger.Info("Exam deleted", "exam_id", id)
	return nil
}

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters, actor Actor) (*ExamListResponse, error) {
	// Exams inherit ownership through their set's proposal; detached exams
	// are visible to everyone, so the restriction only applies when a set
	// filter narrows the query to assigned exams.
	if !actor.IsAdmin() && filters.ExamSetID == nil {
		userID := actor.UserID
		filters.UserID = &userID
	}
	filters.Page, filters.Size = repositories.NormalizePage(filters.Page, filters.Size)

	exams, total, err := s.repo.Exam().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	if err := s.resolveDisplays(ctx, exams); err != nil {
		return nil, err
	}

	responses := make([]*ExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, s.buildResponse(exam))
	}

	return &ExamListResponse{
		Exams:      responses,
		Total:      total,
		Page:       filters.Page,
		Size:       filters.Size,
		TotalPages: totalPages(total, filters.Size),
	}, nil
}

// ===== HELPERS =====

func (s *examService) canAccess(ctx context.Context, exam *models.Exam, actor Actor) (bool, error) {
	if actor.IsAdmin() || exam.ExamSetID == nil {
		return true, nil
	}

	set, err := s.repo.ExamSet().GetByID(ctx, *exam.ExamSetID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to get exam set: %w", err)
	}
	if set.ProposalID == nil {
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

func (s *examService) buildResponse(exam *models.Exam) *ExamResponse {
	return &ExamResponse{
		Exam:    exam,
		CanEdit: exam.Status != models.StatusApproved,
	}
}

// checkUniqueness validates the three unique columns together so a response
// reports every clash at once.
func (s *examService) checkUniqueness(ctx context.Context, code, name, file string, excludeID *uint) (validator.ValidationErrors, error) {
	var errs validator.ValidationErrors

	exists, err := s.repo.Exam().ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check exam code: %w", err)
	}
	if exists {
		errs = append(errs, validator.ValidationError{
			Field: "exam_code", Message: "already exists", Value: code, Rule: "unique",
		})
	}

	exists, err = s.repo.Exam().ExistsByName(ctx, name, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check exam name: %w", err)
	}
	if exists {
		errs = append(errs, validator.ValidationError{
			Field: "exam_name", Message: "already exists", Value: name, Rule: "unique",
		})
	}

	exists, err = s.repo.Exam().ExistsByAttachedFile(ctx, file, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check attached file: %w", err)
	}
	if exists {
		errs = append(errs, validator.ValidationError{
			Field: "attached_file", Message: "already exists", Value: file, Rule: "unique",
		})
	}

	return errs, nil
}

func (s *examService) resolveDisplays(ctx context.Context, exams []*models.Exam) error {
	if len(exams) == 0 {
		return nil
	}

	var yearIDs []uint
	seen := make(map[uint]bool)
	for _, exam := range exams {
		if !seen[exam.AcademicYearID] {
			seen[exam.AcademicYearID] = true
			yearIDs = append(yearIDs, exam.AcademicYearID)
		}
	}

	years, err := s.repo.Reference().GetAcademicYearsByIDs(ctx, yearIDs)
	if err != nil {
		return err
	}

	for _, exam := range exams {
		if year := years[exam.AcademicYearID]; year != nil {
			exam.AcademicYearName = year.Name
		}
	}
	return nil
}
