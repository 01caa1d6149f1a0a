package validator

import (
	"github.com/doannc02/exam-process-service/internal/models"
)

// ProposalCreateRequest carries a new semester plan. Dates travel as strings
// in DateLayout form and are parsed during validation.
type ProposalCreateRequest struct {
	PlanCode     string                `json:"plan_code" validate:"required,not_placeholder,max=100"`
	AcademicYear string                `json:"academic_year" validate:"required,not_placeholder,max=50"`
	Semester     string                `json:"semester" validate:"required,not_placeholder,max=20"`
	StartDate    string                `json:"start_date"`
	EndDate      string                `json:"end_date"`
	Content      *string               `json:"content" validate:"omitempty,max=2000"`
	Status       models.ProposalStatus `json:"status" validate:"omitempty,proposal_status"`

	// Admin may create on behalf of another user.
	TargetUserID *uint `json:"target_user_id"`

	// Unassigned exam sets to link to the new proposal.
	ExamSetIDs []uint `json:"exam_set_ids"`
}

// ProposalExamSetRequest names an exam set kept/linked by an update, with the
// exams expected under it. This path only re-links existing records.
type ProposalExamSetRequest struct {
	ID      uint   `json:"id" validate:"required"`
	ExamIDs []uint `json:"exam_ids"`
}

type ProposalUpdateRequest struct {
	ID           uint                     `json:"id" validate:"required"`
	PlanCode     *string                  `json:"plan_code" validate:"omitempty,not_placeholder,max=100"`
	AcademicYear *string                  `json:"academic_year" validate:"omitempty,not_placeholder,max=50"`
	Semester     *string                  `json:"semester" validate:"omitempty,not_placeholder,max=20"`
	StartDate    *string                  `json:"start_date"`
	EndDate      *string                  `json:"end_date"`
	Content      *string                  `json:"content" validate:"omitempty,max=2000"`
	ExamSets     []ProposalExamSetRequest `json:"exam_sets" validate:"omitempty,dive"`
}

// UpdateProposalStatusRequest asks for one edge of the status state machine.
type UpdateProposalStatusRequest struct {
	Status  models.ProposalStatus `json:"status" validate:"required,proposal_status"`
	Comment *string               `json:"comment" validate:"omitempty,max=500"`
}

type ExamSetCreateRequest struct {
	Name         string  `json:"name" validate:"required,not_placeholder,max=200"`
	DepartmentID uint    `json:"department_id" validate:"required"`
	MajorID      uint    `json:"major_id" validate:"required"`
	CourseID     uint    `json:"course_id" validate:"required"`
	ExamQuantity int     `json:"exam_quantity" validate:"min=0"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
}

type ExamSetUpdateRequest struct {
	ID           uint    `json:"id" validate:"required"`
	Name         *string `json:"name" validate:"omitempty,not_placeholder,max=200"`
	DepartmentID *uint   `json:"department_id"`
	MajorID      *uint   `json:"major_id"`
	CourseID     *uint   `json:"course_id"`
	ExamQuantity *int    `json:"exam_quantity" validate:"omitempty,min=0"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
}

type ExamCreateRequest struct {
	ExamCode       string  `json:"exam_code" validate:"required,not_placeholder,max=100"`
	ExamName       string  `json:"exam_name" validate:"required,not_placeholder,max=200"`
	AttachedFile   string  `json:"attached_file" validate:"required,max=500"`
	Comment        *string `json:"comment" validate:"omitempty,max=1000"`
	Description    *string `json:"description" validate:"omitempty,max=1000"`
	UploadDate     string  `json:"upload_date"`
	AcademicYearID uint    `json:"academic_year_id" validate:"required"`
	ExamSetID      *uint   `json:"exam_set_id"`
}

type ExamUpdateRequest struct {
	ID             uint    `json:"id" validate:"required"`
	ExamCode       *string `json:"exam_code" validate:"omitempty,not_placeholder,max=100"`
	ExamName       *string `json:"exam_name" validate:"omitempty,not_placeholder,max=200"`
	AttachedFile   *string `json:"attached_file" validate:"omitempty,max=500"`
	Comment        *string `json:"comment" validate:"omitempty,max=1000"`
	Description    *string `json:"description" validate:"omitempty,max=1000"`
	UploadDate     *string `json:"upload_date"`
	AcademicYearID *uint   `json:"academic_year_id"`
	ExamSetID      *uint   `json:"exam_set_id"`
}
