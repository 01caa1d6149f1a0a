package repositories

import (
	"time"

	"github.com/doannc02/exam-process-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

// ProposalFilters drives the proposal list query. Page is 1-indexed; UserID
// restricts results to proposals reachable through the teacher_proposals
// ownership link (nil means no restriction, i.e. an admin caller).
type ProposalFilters struct {
	Search           *string                `json:"search"` // matched against plan_code
	Status           *models.ProposalStatus `json:"status"`
	Semester         *string                `json:"semester"`
	CreateMonth      *time.Time             `json:"create_month"` // month of created_at
	EndMonth         *time.Time             `json:"end_month"`    // month of end_date
	ExpireWithinDays *int                   `json:"expire_within_days"`
	UserID           *uint                  `json:"user_id"`
	Page             int                    `json:"page"`
	Size             int                    `json:"size"`
	Sort             string                 `json:"sort"` // name|name_desc|code|code_desc|credit|credit_desc
}

type ExamSetFilters struct {
	Search     *string                `json:"search"` // matched against name
	Status     *models.ProposalStatus `json:"status"`
	ProposalID *uint                  `json:"proposal_id"`
	Unassigned *bool                  `json:"unassigned"` // true: proposal_id IS NULL
	UserID     *uint                  `json:"user_id"`
	Page       int                    `json:"page"`
	Size       int                    `json:"size"`
	Sort       string                 `json:"sort"`
}

type ExamFilters struct {
	Search         *string                `json:"search"` // matched against exam_code and exam_name
	Status         *models.ProposalStatus `json:"status"`
	ExamSetID      *uint                  `json:"exam_set_id"`
	AcademicYearID *uint                  `json:"academic_year_id"`
	UserID         *uint                  `json:"user_id"`
	Page           int                    `json:"page"`
	Size           int                    `json:"size"`
	Sort           string                 `json:"sort"`
}

// Recognized sort keys. Credit sorts only apply to exam-set queries (via the
// linked course); other entities fall back to the id default.
const (
	SortName       = "name"
	SortNameDesc   = "name_desc"
	SortCode       = "code"
	SortCodeDesc   = "code_desc"
	SortCredit     = "credit"
	SortCreditDesc = "credit_desc"
)

// NormalizePage clamps page/size to sane values: page >= 1, 1 <= size <= 100.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
