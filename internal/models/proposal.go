package models

import (
	"time"
)

type ProposalStatus string

const (
	StatusInProgress      ProposalStatus = "in_progress"
	StatusPendingApproval ProposalStatus = "pending_approval"
	StatusApproved        ProposalStatus = "approved"
	StatusRejected        ProposalStatus = "rejected"
)

// ValidProposalStatus reports whether s is one of the four known statuses.
func ValidProposalStatus(s ProposalStatus) bool {
	switch s {
	case StatusInProgress, StatusPendingApproval, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type Proposal struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	PlanCode     string         `json:"plan_code" gorm:"uniqueIndex;not null;size:100" validate:"required,max=100"`
	AcademicYear string         `json:"academic_year" gorm:"not null;size:50" validate:"required,max=50"`
	Semester     string         `json:"semester" gorm:"not null;size:20;index" validate:"required,max=20"`
	StartDate    *time.Time     `json:"start_date"`
	EndDate      *time.Time     `json:"end_date" gorm:"index"`
	Content      *string        `json:"content" gorm:"type:text" validate:"omitempty,max=2000"`
	Status       ProposalStatus `json:"status" gorm:"default:in_progress;index" validate:"omitempty,proposal_status"`

	// Set when an admin created the proposal on behalf of another user.
	CreatedByAdmin bool `json:"created_by_admin" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	ExamSets         []ExamSet         `json:"exam_sets" gorm:"foreignKey:ProposalID"`
	TeacherProposals []TeacherProposal `json:"teacher_proposals" gorm:"foreignKey:ProposalID"`

	// Computed fields (not stored)
	OwnerDisplay string `json:"owner_display" gorm:"-"`
	ExamSetCount int    `json:"exam_set_count" gorm:"-"`
}

// TeacherProposal links a proposal to the owning user. The relation allows
// many rows but create writes exactly one.
type TeacherProposal struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ProposalID uint      `json:"proposal_id" gorm:"not null;index:idx_teacher_proposal,unique"`
	UserID     uint      `json:"user_id" gorm:"not null;index:idx_teacher_proposal,unique;index"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Proposal) TableName() string {
	return "proposals"
}

func (TeacherProposal) TableName() string {
	return "teacher_proposals"
}
