package services

import (
	"context"
	"fmt"
	"time"

	"github.com/doannc02/exam-process-service/internal/models"
	"github.com/doannc02/exam-process-service/internal/repositories"
	"github.com/doannc02/exam-process-service/internal/validator"
)

// ===== ACCESS CONTROL =====

func (s *proposalService) canAccess(proposal *models.Proposal, actor Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	for _, link := range proposal.TeacherProposals {
		if link.UserID == actor.UserID {
			return true
		}
	}
	return false
}

// withOwners backfills ownership links on proposals loaded without preloads
// (the row-locked read used by the cascade).
func (s *proposalService) withOwners(ctx context.Context, repo repositories.Repository, proposal *models.Proposal) *models.Proposal {
	if len(proposal.TeacherProposals) > 0 {
		return proposal
	}

	owners, err := repo.Proposal().GetOwnerUserIDs(ctx, []uint{proposal.ID})
	if err != nil {
		s.logger.Warn("Failed to load proposal owners", "proposal_id", proposal.ID, "error", err)
		return proposal
	}
	for _, userID := range owners[proposal.ID] {
		proposal.TeacherProposals = append(proposal.TeacherProposals, models.TeacherProposal{
			ProposalID: proposal.ID,
			UserID:     userID,
		})
	}
	return proposal
}

// ===== RESPONSE BUILDING =====

func (s *proposalService) buildResponse(proposal *models.Proposal, actor Actor) *ProposalResponse {
	mutable := proposal.Status != models.StatusApproved
	owner := s.canAccess(proposal, actor)
	return &ProposalResponse{
		Proposal:  proposal,
		CanEdit:   owner && mutable,
		CanDelete: owner && mutable,
	}
}

// resolveDisplays fills the computed fields on a batch of proposals: owner
// display names ("user name - teacher code") and exam set counts. Ownership
// links are backfilled for rows loaded without preloads.
func (s *proposalService) resolveDisplays(ctx context.Context, proposals []*models.Proposal) error {
	if len(proposals) == 0 {
		return nil
	}

	proposalIDs := make([]uint, 0, len(proposals))
	for _, p := range proposals {
		proposalIDs = append(proposalIDs, p.ID)
	}

	owners, err := s.repo.Proposal().GetOwnerUserIDs(ctx, proposalIDs)
	if err != nil {
		return fmt.Errorf("failed to load proposal owners: %w", err)
	}

	var userIDs []uint
	seen := make(map[uint]bool)
	for _, ids := range owners {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				userIDs = append(userIDs, id)
			}
		}
	}

	users, err := s.repo.User().GetByIDs(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	teachers, err := s.repo.User().GetTeachersByUserIDs(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("failed to load teachers: %w", err)
	}

	setCounts, err := s.repo.ExamSet().CountByProposalIDs(ctx, proposalIDs)
	if err != nil {
		return fmt.Errorf("failed to count exam sets: %w", err)
	}

	for _, p := range proposals {
		ownerIDs := owners[p.ID]
		if len(p.TeacherProposals) == 0 {
			for _, userID := range ownerIDs {
				p.TeacherProposals = append(p.TeacherProposals, models.TeacherProposal{
					ProposalID: p.ID,
					UserID:     userID,
				})
			}
		}
		if len(ownerIDs) > 0 {
			p.OwnerDisplay = formatOwnerDisplay(users[ownerIDs[0]], teachers[ownerIDs[0]])
		}
		if len(p.ExamSets) > 0 {
			p.ExamSetCount = len(p.ExamSets)
		} else {
			p.ExamSetCount = int(setCounts[p.ID])
		}
	}

	return nil
}

func formatOwnerDisplay(user *models.User, teacher *models.Teacher) string {
	if user == nil {
		return ""
	}
	if teacher != nil && teacher.Code != "" {
		return fmt.Sprintf("%s - %s", user.Name, teacher.Code)
	}
	return user.Name
}

// ===== UPDATE HELPERS =====

func (s *proposalService) applyUpdates(proposal *models.Proposal, req *UpdateProposalRequest) error {
	if req.PlanCode != nil {
		proposal.PlanCode = *req.PlanCode
	}
	if req.AcademicYear != nil {
		proposal.AcademicYear = *req.AcademicYear
	}
	if req.Semester != nil {
		proposal.Semester = *req.Semester
	}
	if req.Content != nil {
		proposal.Content = req.Content
	}

	if req.StartDate != nil {
		start, err := validator.ParseDate(*req.StartDate)
		if err != nil {
			return validator.ValidationErrors{{Field: "start_date", Message: err.Error(), Value: *req.StartDate, Rule: "date"}}
		}
		proposal.StartDate = start
	}
	if req.EndDate != nil {
		end, err := validator.ParseDate(*req.EndDate)
		if err != nil {
			return validator.ValidationErrors{{Field: "end_date", Message: err.Error(), Value: *req.EndDate, Rule: "date"}}
		}
		proposal.EndDate = end
	}
	if errs := s.validator.GetBusinessValidator().ValidateDateRange(proposal.StartDate, proposal.EndDate); len(errs) > 0 {
		return errs
	}

	return nil
}

// checkSetsLinkable verifies every set in the request list is unique, exists
// and is free to link: either unassigned or already linked to
// allowProposalID. Violations are collected per set id, never fail-fast.
func (s *proposalService) checkSetsLinkable(ctx context.Context, repo repositories.Repository, setIDs []uint, allowProposalID *uint) error {
	sets, err := repo.ExamSet().GetByIDs(ctx, setIDs)
	if err != nil {
		return fmt.Errorf("failed to load exam sets: %w", err)
	}

	byID := make(map[uint]*models.ExamSet, len(sets))
	for _, set := range sets {
		byID[set.ID] = set
	}

	var errs validator.ValidationErrors
	seen := make(map[uint]bool, len(setIDs))
	for _, id := range setIDs {
		if seen[id] {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("exam_sets[%d]", id),
				Message: "is listed more than once",
				Value:   id,
				Rule:    "duplicate",
			})
			continue
		}
		seen[id] = true

		set, ok := byID[id]
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("exam_sets[%d]", id),
				Message: "does not exist",
				Value:   id,
				Rule:    "exists",
			})
			continue
		}
		if set.ProposalID != nil && (allowProposalID == nil || *set.ProposalID != *allowProposalID) {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("exam_sets[%d]", id),
				Message: fmt.Sprintf("%q is already assigned to proposal %d", set.Name, *set.ProposalID),
				Value:   id,
				Rule:    "assigned",
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// relinkChildren reconciles the proposal's exam set membership with the
// requested list, and each listed set's exam membership in turn. Sets and
// exams dropped from the lists are detached, never deleted.
func (s *proposalService) relinkChildren(ctx context.Context, tx repositories.Repository, proposalID uint, reqs []validator.ProposalExamSetRequest) error {
	keepIDs := make([]uint, 0, len(reqs))
	for _, r := range reqs {
		keepIDs = append(keepIDs, r.ID)
	}

	if len(keepIDs) > 0 {
		if err := s.checkSetsLinkable(ctx, tx, keepIDs, &proposalID); err != nil {
			return err
		}
		if err := tx.ExamSet().AssignProposal(ctx, keepIDs, proposalID); err != nil {
			return fmt.Errorf("failed to assign exam sets: %w", err)
		}
	}
	if err := tx.ExamSet().ClearProposal(ctx, proposalID, keepIDs); err != nil {
		return fmt.Errorf("failed to detach exam sets: %w", err)
	}

	for _, r := range reqs {
		if r.ExamIDs == nil {
			continue
		}
		if err := s.relinkExams(ctx, tx, r.ID, r.ExamIDs); err != nil {
			return err
		}
	}

	return nil
}

func (s *proposalService) relinkExams(ctx context.Context, tx repositories.Repository, setID uint, examIDs []uint) error {
	wanted := make(map[uint]bool, len(examIDs))
	for _, id := range examIDs {
		wanted[id] = true
	}

	if len(examIDs) > 0 {
		exams, err := tx.Exam().GetByIDs(ctx, examIDs)
		if err != nil {
			return fmt.Errorf("failed to load exams: %w", err)
		}
		byID := make(map[uint]*models.Exam, len(exams))
		for _, exam := range exams {
			byID[exam.ID] = exam
		}

		for _, id := range examIDs {
			exam, ok := byID[id]
			if !ok {
				return NewNotFoundError("exam", id)
			}
			if exam.ExamSetID != nil && *exam.ExamSetID != setID {
				return NewConflictError("exam", "exam_set_id", fmt.Sprintf("%s is already assigned to exam set %d", exam.ExamCode, *exam.ExamSetID))
			}
			if exam.ExamSetID == nil {
				exam.ExamSetID = &setID
				if err := tx.Exam().Update(ctx, exam); err != nil {
					return fmt.Errorf("failed to assign exam %d: %w", id, err)
				}
			}
		}
	}

	current, err := tx.Exam().GetByExamSetIDs(ctx, []uint{setID})
	if err != nil {
		return fmt.Errorf("failed to load current exams: %w", err)
	}
	for _, exam := range current[setID] {
		if !wanted[exam.ID] {
			exam.ExamSetID = nil
			if err := tx.Exam().Update(ctx, exam); err != nil {
				return fmt.Errorf("failed to detach exam %d: %w", exam.ID, err)
			}
		}
	}

	return nil
}

// ===== SHARED HELPERS =====

func parseDateRange(startStr, endStr string, v *validator.Validator) (*time.Time, *time.Time, validator.ValidationErrors) {
	var errs validator.ValidationErrors

	start, err := validator.ParseDate(startStr)
	if err != nil {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: err.Error(), Value: startStr, Rule: "date"})
	}
	end, err := validator.ParseDate(endStr)
	if err != nil {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: err.Error(), Value: endStr, Rule: "date"})
	}
	if len(errs) == 0 {
		errs = append(errs, v.GetBusinessValidator().ValidateDateRange(start, end)...)
	}

	return start, end, errs
}

func totalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	pages := total / int64(size)
	if total%int64(size) != 0 {
		pages++
	}
	return int(pages)
}

func (s *proposalService) publishEvent(eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(eventType, data); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", eventType, "error", err)
	}
}
