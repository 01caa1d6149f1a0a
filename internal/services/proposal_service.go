package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/doannc02/exam-process-service/internal/events"
	"github.com/doannc02/exam-process-service/internal/models"
	"github.com/doannc02/exam-process-service/internal/repositories"
	"github.com/doannc02/exam-process-service/internal/validator"
)

type proposalService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.Publisher

	// When true, deleting a proposal detaches its exam sets instead of
	// refusing while children exist.
	unlinkChildrenOnDelete bool
}

func NewProposalService(
	repo repositories.Repository,
	logger *slog.Logger,
	v *validator.Validator,
	publisher events.Publisher,
	unlinkChildrenOnDelete bool,
) ProposalService {
	return &proposalService{
		repo:                   repo,
		logger:                 logger,
		validator:              v,
		publisher:              publisher,
		unlinkChildrenOnDelete: unlinkChildrenOnDelete,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *proposalService) Create(ctx context.Context, req *CreateProposalRequest, actor Actor) (*ProposalResponse, error) {
	s.logger.Info("Creating proposal", "plan_code", req.PlanCode, "user_id", actor.UserID)

	errs := s.validator.GetBusinessValidator().Validate(req)

	startDate, endDate, dateErrs := parseDateRange(req.StartDate, req.EndDate, s.validator)
	errs = append(errs, dateErrs...)

	status := req.Status
	if status == "" {
		status = models.StatusInProgress
	}

	if len(errs) > 0 {
		return nil, errs
	}

	ownerID := actor.UserID
	createdByAdmin := false
	if req.TargetUserID != nil && *req.TargetUserID != ownerID {
		if !actor.IsAdmin() {
			return nil, NewPermissionError(actor.UserID, 0, "proposal", "create", "only admins can create proposals for other users")
		}
		ownerID = *req.TargetUserID
		createdByAdmin = true
	}

	ownerExists, err := s.repo.User().ExistsByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check owner: %w", err)
	}
	if !ownerExists {
		return nil, NewNotFoundError("user", ownerID)
	}

	exists, err := s.repo.Proposal().ExistsByPlanCode(ctx, req.PlanCode, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check plan code: %w", err)
	}
	if exists {
		return nil, NewConflictError("proposal", "plan_code", req.PlanCode)
	}

	var proposal *models.Proposal
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if len(req.ExamSetIDs) > 0 {
			if err := s.checkSetsLinkable(ctx, tx, req.ExamSetIDs, nil); err != nil {
				return err
			}
		}

		proposal = &models.Proposal{
			PlanCode:       req.PlanCode,
			AcademicYear:   req.AcademicYear,
			Semester:       req.Semester,
			StartDate:      startDate,
			EndDate:        endDate,
			Content:        req.Content,
			Status:         status,
			CreatedByAdmin: createdByAdmin,
		}
		if err := tx.Proposal().Create(ctx, proposal); err != nil {
			if repositories.IsDuplicateError(err) {
				return NewConflictError("proposal", "plan_code", req.PlanCode)
			}
			return fmt.Errorf("failed to create proposal: %w", err)
		}

		link := &models.TeacherProposal{ProposalID: proposal.ID, UserID: ownerID}
		if err := tx.Proposal().CreateOwnership(ctx, link); err != nil {
			return fmt.Errorf("failed to link owner: %w", err)
		}

		if len(req.ExamSetIDs) > 0 {
			if err := tx.ExamSet().AssignProposal(ctx, req.ExamSetIDs, proposal.ID); err != nil {
				return fmt.Errorf("failed to assign exam sets: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Proposal created", "proposal_id", proposal.ID, "plan_code", proposal.PlanCode)
	s.publishEvent(events.EventProposalCreated, events.ProposalLifecycleData{
		ProposalID:  proposal.ID,
		PlanCode:    proposal.PlanCode,
		ActorUserID: actor.UserID,
	})

	return s.GetByID(ctx, proposal.ID, actor)
}

func (s *proposalService) GetByID(ctx context.Context, id uint, actor Actor) (*ProposalResponse, error) {
	proposal, err := s.repo.Proposal().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("proposal", id)
		}
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	if !s.canAccess(proposal, actor) {
		return nil, NewPermissionError(actor.UserID, id, "proposal", "read", "not an owner")
	}

	if err := s.resolveDisplays(ctx, []*models.Proposal{proposal}); err != nil {
		return nil, err
	}

	return s.buildResponse(proposal, actor), nil
}

func (s *proposalService) Update(ctx context.Context, req *UpdateProposalRequest, actor Actor) (*ProposalResponse, error) {
	s.logger.Info("Updating proposal", "proposal_id", req.ID, "user_id", actor.UserID)

	proposal, err := s.repo.Proposal().GetByID(ctx, req.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("proposal", req.ID)
		}
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	if proposal.Status == models.StatusApproved {
		return nil, NewImmutableStateError("proposal", proposal.ID, "approved proposals are read-only")
	}
	if !s.canAccess(proposal, actor) {
		return nil, NewPermissionError(actor.UserID, req.ID, "proposal", "update", "not an owner")
	}

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if req.PlanCode != nil && *req.PlanCode != proposal.PlanCode {
		exists, err := s.repo.Proposal().ExistsByPlanCode(ctx, *req.PlanCode, &proposal.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check plan code: %w", err)
		}
		if exists {
			return nil, NewConflictError("proposal", "plan_code", *req.PlanCode)
		}
	}

	if err := s.applyUpdates(proposal, req); err != nil {
		return nil, err
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Proposal().Update(ctx, proposal); err != nil {
			if repositories.IsDuplicateError(err) {
				return NewConflictError("proposal", "plan_code", proposal.PlanCode)
			}
			return fmt.Errorf("failed to update proposal: %w", err)
		}

		if req.ExamSets != nil {
			if err := s.relinkChildren(ctx, tx, proposal.ID, req.ExamSets); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Proposal updated", "proposal_id", proposal.ID)
	return s.GetByID(ctx, proposal.ID, actor)
}

func (s *proposalService) Delete(ctx context.Context, id uint, actor Actor) error {
	s.logger.Info("Deleting proposal", "proposal_id", id, "user_id", actor.UserID)

	proposal, err := s.repo.Proposal().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("proposal", id)
		}
		return fmt.Errorf("failed to get proposal: %w", err)
	}

	if proposal.Status == models.StatusApproved {
		return NewImmutableStateError("proposal", id, "approved proposals cannot be deleted")
	}
	if !s.canAccess(proposal, actor) {
		return NewPermissionError(actor.UserID, id, "proposal", "delete", "not an owner")
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if s.unlinkChildrenOnDelete {
			if err := tx.ExamSet().ClearProposal(ctx, id, nil); err != nil {
				return fmt.Errorf("failed to detach exam sets: %w", err)
			}
		} else if len(proposal.ExamSets) > 0 {
			return NewConflictError("proposal", "exam_sets", fmt.Sprintf("%d linked", len(proposal.ExamSets)))
		}

		if err := tx.Proposal().Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete proposal: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Proposal deleted", "proposal_id", id)
	s.publishEvent(events.EventProposalDeleted, events.ProposalLifecycleData{
		ProposalID:  id,
		PlanCode:    proposal.PlanCode,
		ActorUserID: actor.UserID,
	})

	return nil
}

// ===== LIST =====

func (s *proposalService) List(ctx context.Context, filters repositories.ProposalFilters, actor Actor) (*ProposalListResponse, error) {
	if !actor.IsAdmin() {
		userID := actor.UserID
		filters.UserID = &userID
	}
	filters.Page, filters.Size = repositories.NormalizePage(filters.Page, filters.Size)

	proposals, total, err := s.repo.Proposal().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	if err := s.resolveDisplays(ctx, proposals); err != nil {
		return nil, err
	}

	responses := make([]*ProposalResponse, 0, len(proposals))
	for _, p := range proposals {
		responses = append(responses, s.buildResponse(p, actor))
	}

	return &ProposalListResponse{
		Proposals:  responses,
		Total:      total,
		Page:       filters.Page,
		Size:       filters.Size,
		TotalPages: totalPages(total, filters.Size),
	}, nil
}

// ===== STATUS CASCADE =====

// UpdateStatus moves the proposal along one state-machine edge and cascades
// the new status to every non-approved exam set and exam underneath. All
// checks run against row-locked data inside one transaction; any violation
// aborts with nothing written.
func (s *proposalService) UpdateStatus(ctx context.Context, id uint, req *UpdateProposalStatusRequest, actor Actor) (*ProposalResponse, error) {
	s.logger.Info("Updating proposal status", "proposal_id", id, "target", req.Status, "user_id", actor.UserID)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	var (
		fromStatus models.ProposalStatus
		planCode   string
		setsMoved  int
		examsMoved int
	)

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		proposal, err := tx.Proposal().GetByIDForUpdate(ctx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError("proposal", id)
			}
			return fmt.Errorf("failed to lock proposal: %w", err)
		}

		fromStatus = proposal.Status
		planCode = proposal.PlanCode

		if !s.canAccess(s.withOwners(ctx, tx, proposal), actor) {
			return NewPermissionError(actor.UserID, id, "proposal", "update_status", "not an owner")
		}

		if proposal.Status == models.StatusApproved {
			return NewImmutableStateError("proposal", id, "approved proposals cannot change status")
		}
		if proposal.Status == req.Status {
			return ErrNoStatusChange
		}
		if errs := s.validator.GetBusinessValidator().ValidateStatusTransition(proposal.Status, req.Status); len(errs) > 0 {
			return errs
		}

		sets, err := tx.ExamSet().GetByProposalID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load exam sets: %w", err)
		}

		setIDs := make([]uint, 0, len(sets))
		for _, set := range sets {
			setIDs = append(setIDs, set.ID)
		}
		examsBySet, err := tx.Exam().GetByExamSetIDs(ctx, setIDs)
		if err != nil {
			return fmt.Errorf("failed to load exams: %w", err)
		}

		if errs := s.validator.GetBusinessValidator().ValidateStatusCascade(sets, examsBySet, req.Status); len(errs) > 0 {
			return errs
		}

		// Approved sets are skipped wholesale, their exams included;
		// elsewhere only non-approved children follow the proposal.
		var cascadeSetIDs, cascadeExamIDs []uint
		for _, set := range sets {
			if set.Status == models.StatusApproved {
				continue
			}
			cascadeSetIDs = append(cascadeSetIDs, set.ID)
			for _, exam := range examsBySet[set.ID] {
				if exam.Status != models.StatusApproved {
					cascadeExamIDs = append(cascadeExamIDs, exam.ID)
				}
			}
		}

		if len(cascadeSetIDs) > 0 {
			if err := tx.ExamSet().UpdateStatusBulk(ctx, cascadeSetIDs, req.Status); err != nil {
				return fmt.Errorf("failed to cascade status to exam sets: %w", err)
			}
		}
		if len(cascadeExamIDs) > 0 {
			if err := tx.Exam().UpdateStatusBulk(ctx, cascadeExamIDs, req.Status); err != nil {
				return fmt.Errorf("failed to cascade status to exams: %w", err)
			}
		}

		if err := tx.Proposal().UpdateStatus(ctx, id, req.Status); err != nil {
			return fmt.Errorf("failed to update proposal status: %w", err)
		}

		setsMoved = len(cascadeSetIDs)
		examsMoved = len(cascadeExamIDs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Proposal status updated",
		"proposal_id", id,
		"from", fromStatus,
		"to", req.Status,
		"exam_sets_updated", setsMoved,
		"exams_updated", examsMoved)

	s.publishEvent(events.EventProposalStatusChanged, events.ProposalStatusChangedData{
		ProposalID:      id,
		PlanCode:        planCode,
		FromStatus:      fromStatus,
		ToStatus:        req.Status,
		ChangedByUserID: actor.UserID,
		ExamSetsUpdated: setsMoved,
		ExamsUpdated:    examsMoved,
		Comment:         req.Comment,
	})

	return s.GetByID(ctx, id, actor)
}
